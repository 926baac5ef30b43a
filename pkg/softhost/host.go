package softhost

import (
	"errors"
	"fmt"
	"log"

	"github.com/mdouchement/hdr"

	"github.com/abworrall/hdrview/pkg/graph"
)

// Host is a CPU implementation of graph.EffectHost. Nodes are evaluated
// on demand, pulling pixels through their inputs.
type Host struct {
	Verbosity int

	dev   *Device
	gen   int
	caps  graph.Capabilities
	nodes map[*node]bool

	failNext map[graph.NodeKind]bool
}

var errOutOfMemory = errors.New("softhost: out of device memory")

type node struct {
	kind   graph.NodeKind
	gen    int
	input  *node
	props  map[graph.PropKey]interface{}
	bins   []float64 // histogram nodes, after Evaluate
	cached *FloatImage
}

func (n *node) Kind() graph.NodeKind { return n.kind }

func (n *node) String() string { return fmt.Sprintf("%s@%d", n.kind, n.gen) }

func newHost(dev *Device, gen int, caps graph.Capabilities) *Host {
	return &Host{dev: dev, gen: gen, caps: caps, nodes: map[*node]bool{}, failNext: map[graph.NodeKind]bool{}}
}

// NewHost is a host with no presentation device; it never loses its device.
func NewHost(caps graph.Capabilities) *Host {
	return newHost(nil, 1, caps)
}

func (h *Host) lost() bool { return h.dev != nil && h.dev.isLost(h.gen) }

func (h *Host) QueryCapability(f graph.Feature) bool {
	switch f {
	case graph.FeaturePlatformTonemap:
		return h.caps.PlatformTonemap
	case graph.FeatureCompute:
		return h.caps.Compute
	}
	return false
}

// FailNextCreate makes the next CreateNode of that kind fail, the way a
// driver does when it runs out of memory.
func (h *Host) FailNextCreate(kind graph.NodeKind) { h.failNext[kind] = true }

func (h *Host) CreateNode(kind graph.NodeKind) (graph.Node, error) {
	if h.lost() {
		return nil, graph.ErrDeviceRemoved
	}
	if h.failNext[kind] {
		delete(h.failNext, kind)
		return nil, fmt.Errorf("%s: %w", kind, errOutOfMemory)
	}
	switch kind {
	case graph.NodeHdrTonemap, graph.NodeWhiteLevelAdjust:
		if !h.caps.PlatformTonemap {
			return nil, fmt.Errorf("%s: %w", kind, graph.ErrNotImplemented)
		}
	case graph.NodeHistogram:
		if !h.caps.Compute {
			return nil, graph.ErrInsufficientCapability
		}
	}
	n := &node{kind: kind, gen: h.gen, props: map[graph.PropKey]interface{}{}}
	h.nodes[n] = true
	return n, nil
}

func (h *Host) own(gn graph.Node) (*node, error) {
	if h.lost() {
		return nil, graph.ErrDeviceRemoved
	}
	n, ok := gn.(*node)
	if !ok || !h.nodes[n] {
		return nil, fmt.Errorf("node %v does not belong to this host", gn)
	}
	return n, nil
}

func (h *Host) SetInput(gn graph.Node, slot int, src graph.Node) error {
	dst, err := h.own(gn)
	if err != nil {
		return err
	}
	s, err := h.own(src)
	if err != nil {
		return err
	}
	if slot != 0 {
		return fmt.Errorf("%s has no input %d", dst.kind, slot)
	}
	dst.input = s
	return nil
}

func (h *Host) SetProperty(gn graph.Node, p graph.Property) error {
	n, err := h.own(gn)
	if err != nil {
		return err
	}
	if err := n.kind.Validate(p); err != nil {
		return err
	}
	n.props[p.Key] = p.Value
	if p.Key == graph.PropSourceImage {
		n.cached = nil
	}
	return nil
}

func (h *Host) ReleaseNode(gn graph.Node) {
	if n, ok := gn.(*node); ok {
		delete(h.nodes, n)
	}
}

// NumNodes is how many nodes are alive on the host.
func (h *Host) NumNodes() int { return len(h.nodes) }

// Render evaluates a node into an image.
func (h *Host) Render(gn graph.Node) (*FloatImage, error) {
	n, err := h.own(gn)
	if err != nil {
		return nil, err
	}
	return h.render(n, 0)
}

func (h *Host) render(n *node, depth int) (*FloatImage, error) {
	if depth > 32 {
		return nil, fmt.Errorf("graph too deep at %s", n)
	}
	if n.kind == graph.NodeSource {
		return h.renderSource(n)
	}
	if n.input == nil || !h.nodes[n.input] {
		return nil, fmt.Errorf("%s: input not connected", n)
	}
	in, err := h.render(n.input, depth+1)
	if err != nil {
		return nil, err
	}
	return apply(n, in)
}

// The decoded image is converted once; the scale is applied every time.
func (h *Host) renderSource(n *node) (*FloatImage, error) {
	src, ok := n.props[graph.PropSourceImage].(hdr.Image)
	if !ok {
		return nil, fmt.Errorf("%s: no image", n)
	}
	if n.cached == nil {
		if fi, ok := src.(*FloatImage); ok {
			n.cached = fi
		} else {
			n.cached = FromHDR(src)
		}
	}
	scale := floatProp(n, graph.PropSourceScale, 1)
	if scale <= 0 {
		return nil, fmt.Errorf("%s: bad scale %f", n, scale)
	}
	return n.cached.Resample(scale), nil
}

// Evaluate renders a node once, discarding the pixels. For histogram
// nodes this is what fills in the bins.
func (h *Host) Evaluate(gn graph.Node) error {
	_, err := h.Render(gn)
	if err != nil && h.Verbosity > 0 {
		log.Printf("softhost: evaluate %v: %v", gn, err)
	}
	return err
}

func (h *Host) HistogramOutput(gn graph.Node) ([]float64, error) {
	n, err := h.own(gn)
	if err != nil {
		return nil, err
	}
	if n.kind != graph.NodeHistogram {
		return nil, fmt.Errorf("%s is not a histogram", n)
	}
	if n.bins == nil {
		return nil, fmt.Errorf("%s has not been evaluated", n)
	}
	return append([]float64(nil), n.bins...), nil
}
