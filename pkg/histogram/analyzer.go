package histogram

// Computes an image's content light level (CLL) by rendering a luminance
// histogram of the color managed image:
//
//   colorManagement > scale(0.5x) > Y/norm matrix > gamma(red only) > histogram

import (
	"errors"
	"fmt"
	"log"

	"gonum.org/v1/gonum/floats"

	"github.com/abworrall/hdrview/pkg/ecolor"
	"github.com/abworrall/hdrview/pkg/emath"
	"github.com/abworrall/hdrview/pkg/graph"
)

// Evaluator renders a node once, and reads back a histogram node's bins.
type Evaluator interface {
	Evaluate(n graph.Node) error
	HistogramOutput(n graph.Node) ([]float64, error)
}

type Config struct {
	NumBins    int
	Gamma      float64
	MaxNits    float64
	Percentile float64
}

func DefaultConfig() Config {
	return Config{
		NumBins:    ecolor.HistogramNumBins,
		Gamma:      ecolor.HistogramGamma,
		MaxNits:    ecolor.HistogramMaxNits,
		Percentile: ecolor.MaxCLLPercentile,
	}
}

// Analyzer owns the histogram sub-graph for one device instance. Create a
// new one after the device is recreated, since the compute capability may
// have changed.
type Analyzer struct {
	Config
	Verbosity int

	host  graph.EffectHost
	eval  Evaluator
	nodes []graph.Node
	hist  graph.Node

	supported       bool
	loggedNoCompute bool

	LastBins []float64 // from the most recent Analyze, for debugging
}

func NewAnalyzer(host graph.EffectHost, eval Evaluator, cfg Config) *Analyzer {
	return &Analyzer{
		Config: cfg,
		host:   host,
		eval:   eval,
	}
}

// Supported is false when the device can't run the histogram node. It is
// only meaningful after Build.
func (a *Analyzer) Supported() bool { return a.supported }

// Build wires the analysis sub-graph onto the color managed output. Missing
// compute capability isn't an error: the analyzer just reports unknown CLL.
func (a *Analyzer) Build(colorManaged graph.Node, legacyHdr10 bool) error {
	a.Release()

	scale, err := a.add(graph.NodeScale, colorManaged,
		graph.Prop(graph.PropScale, emath.Vec2{0.5, 0.5}))
	if err != nil {
		return err
	}

	norm := ecolor.HistogramNormalizeScale(a.MaxNits, legacyHdr10)
	matrix, err := a.add(graph.NodeColorMatrix, scale,
		graph.Prop(graph.PropColorMatrix, ecolor.LuminanceMatrix(norm)))
	if err != nil {
		return err
	}

	// More bins for the darker luminance levels
	gamma, err := a.add(graph.NodeGammaTransfer, matrix,
		graph.Prop(graph.PropRedExponent, a.Gamma),
		graph.Prop(graph.PropGreenDisable, true),
		graph.Prop(graph.PropBlueDisable, true),
		graph.Prop(graph.PropAlphaDisable, true))
	if err != nil {
		return err
	}

	if !a.host.QueryCapability(graph.FeatureCompute) {
		a.markUnsupported()
		return nil
	}
	hist, err := a.add(graph.NodeHistogram, gamma, graph.Prop(graph.PropNumBins, a.NumBins))
	if errors.Is(err, graph.ErrInsufficientCapability) {
		a.markUnsupported()
		return nil
	} else if err != nil {
		return err
	}

	a.hist = hist
	a.supported = true
	return nil
}

func (a *Analyzer) markUnsupported() {
	a.supported = false
	if !a.loggedNoCompute {
		log.Printf("histogram: device has no compute support, HDR metadata will be unknown")
		a.loggedNoCompute = true
	}
}

func (a *Analyzer) add(kind graph.NodeKind, input graph.Node, props ...graph.Property) (graph.Node, error) {
	n, err := graph.Create(a.host, kind)
	if err != nil {
		return nil, err
	}
	a.nodes = append(a.nodes, n)
	if err := graph.Connect(a.host, n, 0, input); err != nil {
		return nil, err
	}
	if err := graph.Set(a.host, n, props...); err != nil {
		return nil, err
	}
	return n, nil
}

// Analyze renders the histogram and turns it into a CLL. Only HDR images
// get a CLL; everything else, and unsupported devices, get the sentinel.
func (a *Analyzer) Analyze(info ecolor.ImageInfo) (ecolor.ImageCLL, error) {
	if !a.supported || a.hist == nil || info.Kind != ecolor.HighDynamicRange {
		return ecolor.UnknownCLL, nil
	}

	if err := a.eval.Evaluate(a.hist); err != nil {
		return ecolor.UnknownCLL, fmt.Errorf("histogram render: %w", err)
	}
	bins, err := a.eval.HistogramOutput(a.hist)
	if err != nil {
		return ecolor.UnknownCLL, fmt.Errorf("histogram output: %w", err)
	}
	a.LastBins = bins

	if total := floats.Sum(bins); total == 0 {
		if a.Verbosity > 0 {
			log.Printf("histogram: empty, treating CLL as unknown")
		}
		return ecolor.UnknownCLL, nil
	} else if a.Verbosity > 0 {
		log.Printf("histogram: %d bins, total mass %.4f", len(bins), total)
	}

	cll := ecolor.CLLFromHistogram(bins, a.Gamma, a.MaxNits, a.Percentile)
	if a.Verbosity > 0 {
		log.Printf("histogram: %s", cll)
	}
	return cll, nil
}

// Release drops the sub-graph's nodes.
func (a *Analyzer) Release() {
	graph.Release(a.host, a.nodes...)
	a.nodes = nil
	a.hist = nil
	a.supported = false
}
