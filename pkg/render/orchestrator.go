package render

// The orchestrator owns the render graph, the view transform and the
// histogram analysis for the loaded image, and redraws on demand. It is
// single threaded: callers serialize everything through it.
//
//   Uninitialized --Load--> Ready --(device lost)--> DeviceLost --Recover--> Recovering --> Ready

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync/atomic"

	"github.com/mdouchement/hdr"

	"github.com/abworrall/hdrview/pkg/ecolor"
	"github.com/abworrall/hdrview/pkg/emath"
	"github.com/abworrall/hdrview/pkg/graph"
	"github.com/abworrall/hdrview/pkg/histogram"
	"github.com/abworrall/hdrview/pkg/view"
)

type State int

const (
	Uninitialized State = iota
	Ready
	DeviceLost
	Recovering
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Ready:
		return "Ready"
	case DeviceLost:
		return "DeviceLost"
	case Recovering:
		return "Recovering"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// LoaderState tracks the loaded image's device resources.
type LoaderState int

const (
	NotInitialized LoaderState = iota
	LoadingSucceeded
	LoadingFailed
	NeedDeviceResources
)

func (s LoaderState) String() string {
	switch s {
	case NotInitialized:
		return "NotInitialized"
	case LoadingSucceeded:
		return "LoadingSucceeded"
	case LoadingFailed:
		return "LoadingFailed"
	case NeedDeviceResources:
		return "NeedDeviceResources"
	default:
		return fmt.Sprintf("LoaderState(%d)", int(s))
	}
}

// Image is what a decoder hands over. The pixels only ever go to the
// source node; the renderer doesn't look at them.
type Image struct {
	Info    ecolor.ImageInfo
	Pixels  hdr.Image
	Profile ecolor.ColorProfile
}

type Orchestrator struct {
	Config

	dev   Device
	state State
	busy  atomic.Bool

	img    *Image
	loader LoaderState
	cll    ecolor.ImageCLL
	caps   graph.Capabilities // of the device the graph was last built on

	mode       graph.RenderEffectKind
	brightness float64
	display    *ecolor.DisplayInfo

	view       view.State
	sourceZoom float64 // the source's scale; the sphere map zooms its camera instead
	panel      emath.Vec2
	lostPanel  emath.Vec2

	builder  *graph.Builder
	analyzer *histogram.Analyzer

	LastMetadata *ecolor.HDR10Metadata
}

func NewOrchestrator(cfg Config, dev Device) (*Orchestrator, error) {
	mode, err := cfg.GetEffect()
	if err != nil {
		return nil, err
	}
	if cfg.Brightness <= 0 {
		cfg.Brightness = 1
	}
	if cfg.Histogram.NumBins <= 0 {
		cfg.Histogram = histogram.DefaultConfig()
	}
	if cfg.MaxZoom <= 0 {
		cfg.MaxZoom = view.DefaultMaxZoom
	}
	if cfg.SphereMapMinZoom <= 0 {
		cfg.SphereMapMinZoom = view.DefaultSphereMinZoom
	}

	o := &Orchestrator{
		Config:     cfg,
		dev:        dev,
		cll:        ecolor.UnknownCLL,
		mode:       mode,
		brightness: cfg.Brightness,
		view:       view.NewState(cfg.MaxZoom, cfg.SphereMapMinZoom),
		sourceZoom: 1,
	}
	size := dev.Surface().Size()
	o.panel = emath.Vec2{float64(size.X), float64(size.Y)}
	o.newDeviceResources()

	if r, ok := dev.(notifyRegistrar); ok {
		r.RegisterDeviceNotify(o)
	}
	return o, nil
}

func (o *Orchestrator) State() State                     { return o.state }
func (o *Orchestrator) LoaderState() LoaderState         { return o.loader }
func (o *Orchestrator) ImageCLL() ecolor.ImageCLL        { return o.cll }
func (o *Orchestrator) View() view.State                 { return o.view }
func (o *Orchestrator) Mode() graph.RenderEffectKind     { return o.mode }
func (o *Orchestrator) Brightness() float64              { return o.brightness }
func (o *Orchestrator) Builder() *graph.Builder          { return o.builder }
func (o *Orchestrator) Analyzer() *histogram.Analyzer    { return o.analyzer }
func (o *Orchestrator) Capabilities() graph.Capabilities { return o.caps }
func (o *Orchestrator) DisplayInfo() ecolor.DisplayInfo  { return o.currentDisplay() }

func (o *Orchestrator) ImageInfo() ecolor.ImageInfo {
	if o.img == nil {
		return ecolor.ImageInfo{}
	}
	return o.img.Info
}

func (o *Orchestrator) begin() error {
	if !o.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (o *Orchestrator) end() { o.busy.Store(false) }

func (o *Orchestrator) idle() error {
	if o.busy.Load() {
		return ErrBusy
	}
	return nil
}

func (o *Orchestrator) newDeviceResources() {
	host := o.dev.Host()
	o.builder = graph.NewBuilder(host)
	o.analyzer = histogram.NewAnalyzer(host, o.dev.Evaluator(), o.Histogram)
	o.analyzer.Verbosity = o.Verbosity
}

func (o *Orchestrator) releaseDeviceResources() {
	o.analyzer.Release()
	o.builder.Release()
	if o.img != nil {
		o.loader = NeedDeviceResources
	}
}

// A graph that failed part way through is unusable; drop it and wait for
// the caller to recover.
func (o *Orchestrator) fail(err error) error {
	var ce *graph.CreationError
	if errors.As(err, &ce) || errors.Is(err, ErrDeviceRemoved) {
		log.Printf("render: %v, waiting for recovery", err)
		o.lostPanel = o.panel
		o.releaseDeviceResources()
		o.state = DeviceLost
	}
	return err
}

// Load runs the decoder and swaps the result in. Decoding is the part that
// blocks, and nothing else may run on the orchestrator until it returns.
// If decoding fails the current image stays as it was.
func (o *Orchestrator) Load(decode func() (Image, error)) (ecolor.ImageInfo, error) {
	if o.state == DeviceLost || o.state == Recovering {
		return ecolor.ImageInfo{}, fmt.Errorf("load in state %s: %w", o.state, ErrWrongState)
	}
	if err := o.begin(); err != nil {
		return ecolor.ImageInfo{}, err
	}
	img, err := decode()
	o.end()

	if err != nil {
		return ecolor.ImageInfo{}, fmt.Errorf("load: %w", err)
	} else if img.Pixels == nil || !img.Info.Valid {
		return ecolor.ImageInfo{}, fmt.Errorf("load: decoder gave no image: %w", ErrInvalidArgument)
	}

	o.img = &img
	o.loader = NeedDeviceResources
	o.cll = ecolor.UnknownCLL
	o.view.Pointer = emath.Vec2{}

	if err := o.buildImageGraph(true, true); err != nil {
		o.loader = LoadingFailed
		return img.Info, o.fail(err)
	}
	o.loader = LoadingSucceeded
	o.state = Ready

	log.Printf("render: loaded %s, %s", img.Info, o.cll)
	if o.Verbosity > 0 {
		log.Printf("render: %s", o.view)
	}
	return img.Info, nil
}

// buildImageGraph creates everything that needs both the image and the
// device: the render graph and the analysis sub-graph.
func (o *Orchestrator) buildImageGraph(fit, analyze bool) error {
	if fit {
		o.fitToWindow()
	}

	if err := o.builder.BuildPrefix(o.img.Pixels, o.sourceZoom, o.img.Profile); err != nil {
		return err
	}
	o.caps = o.builder.Capabilities()
	if err := o.pushView(); err != nil {
		return err
	}

	if err := o.analyzer.Build(o.builder.ColorManagement(), o.legacyHdr10()); err != nil {
		return err
	}
	if analyze {
		cll, err := o.analyzer.Analyze(o.img.Info)
		if err != nil {
			return err
		}
		o.cll = cll
	}

	return o.configure()
}

func (o *Orchestrator) targetSize() emath.Vec2 {
	size := o.dev.Surface().Size()
	return emath.Vec2{float64(size.X), float64(size.Y)}
}

func (o *Orchestrator) fitToWindow() {
	size := o.img.Info.Size()
	o.view.Target = o.targetSize()
	o.view.FitToWindow(o.panel, emath.Vec2{float64(size.X), float64(size.Y)})
	o.sourceZoom = o.view.Zoom
}

func (o *Orchestrator) pushView() error {
	if err := o.builder.SetSourceScale(o.sourceZoom); err != nil {
		return err
	}
	size := o.img.Info.Size()
	if err := o.builder.SetSceneSize(emath.Vec2{float64(size.X), float64(size.Y)}.MulScalar(o.sourceZoom)); err != nil {
		return err
	}
	return o.builder.SetSphereView(o.view.SphereCenter(), o.view.Zoom)
}

func (o *Orchestrator) currentDisplay() ecolor.DisplayInfo {
	if o.display != nil {
		return *o.display
	}
	return o.GetDisplay()
}

func sdrWhiteLevel(d ecolor.DisplayInfo) float64 {
	if d.SdrWhiteLevel > 0 {
		return d.SdrWhiteLevel
	}
	return ecolor.NominalRefWhite
}

// Without the platform tonemapper, old HDR10 screenshots were never
// rescaled into scRGB range. Both the white scale and the histogram need
// to agree on this.
func (o *Orchestrator) legacyHdr10() bool {
	return o.img.Info.IsLegacyHdr10 && !o.caps.PlatformTonemap
}

func (o *Orchestrator) renderParams() graph.RenderParams {
	disp := o.currentDisplay()

	return graph.RenderParams{
		Mode:       o.mode,
		WhiteScale: ecolor.ComputeWhiteLevelScale(o.img.Info.Kind, sdrWhiteLevel(disp), o.brightness, o.legacyHdr10()),
		Tonemap:    ecolor.SelectTonemapTarget(ecolor.BestDisplayMaxLuminance(disp), disp.IsHDR(), o.cll.MaxNits, o.brightness),
	}
}

func (o *Orchestrator) configure() error {
	p := o.renderParams()
	if err := o.builder.Configure(p); err != nil {
		return err
	}
	if o.Verbosity > 0 {
		log.Printf("render: white scale %.3f, %s", p.WhiteScale, p.Tonemap)
		log.Printf("render: %s", o.builder.Describe())
	}
	return nil
}

// SetRenderOptions changes the mode, brightness and display, rebuilds the
// mode specific part of the graph, and redraws. A nil display means the
// host has no display information. Outside Ready the options are kept,
// and applied on the next load or recovery.
func (o *Orchestrator) SetRenderOptions(mode graph.RenderEffectKind, brightness float64, disp *ecolor.DisplayInfo) error {
	if err := o.idle(); err != nil {
		return err
	}
	if _, err := graph.TopologyFor(mode, graph.Capabilities{}, false); err != nil {
		return err
	}
	if brightness <= 0 || math.IsNaN(brightness) {
		return fmt.Errorf("brightness %f: %w", brightness, ErrInvalidArgument)
	}

	o.mode, o.brightness = mode, brightness
	o.display = nil
	if disp != nil {
		d := *disp
		o.display = &d
	}

	if o.state != Ready {
		return nil
	}
	if err := o.configure(); err != nil {
		return o.fail(err)
	}
	return o.Draw()
}

// SetPanelSize is for window resizes. The image is refit, but its HDR
// metadata is not recomputed.
func (o *Orchestrator) SetPanelSize(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("panel %.0fx%.0f: %w", width, height, ErrInvalidArgument)
	}
	if err := o.idle(); err != nil {
		return err
	}

	o.panel = emath.Vec2{width, height}
	if o.state != Ready {
		return nil
	}

	o.fitToWindow()
	if err := o.pushView(); err != nil {
		return o.fail(err)
	}
	return nil
}

// UpdateManipulation applies a pan/zoom gesture, and redraws.
func (o *Orchestrator) UpdateManipulation(m view.Manipulation) error {
	if o.state != Ready {
		return fmt.Errorf("manipulation in state %s: %w", o.state, ErrWrongState)
	}
	if err := o.idle(); err != nil {
		return err
	}

	o.view.Target = o.targetSize()
	o.view.ApplyManipulationDelta(m, o.mode)

	var err error
	if o.mode == graph.EffectSphereMap {
		err = o.builder.SetSphereView(o.view.SphereCenter(), o.view.Zoom)
	} else {
		o.sourceZoom = o.view.Zoom
		err = o.builder.SetSourceScale(o.sourceZoom)
	}
	if err != nil {
		return o.fail(err)
	}
	return o.Draw()
}

// Draw renders the graph output to the surface and presents it. Before
// any image is loaded it presents a black frame.
func (o *Orchestrator) Draw() error {
	if err := o.idle(); err != nil {
		return err
	}
	if o.state != Ready && o.state != Uninitialized {
		return fmt.Errorf("draw in state %s: %w", o.state, ErrWrongState)
	}

	surf := o.dev.Surface()
	var out graph.Node
	if o.state == Ready {
		out = o.builder.Output()
	}

	drawn := false
	if err := surf.Draw(out, o.view.Offset); errors.Is(err, ErrRecreateTarget) {
		if o.Verbosity > 0 {
			log.Printf("render: target needs recreating, skipping frame")
		}
	} else if err != nil {
		return fmt.Errorf("draw: %w", err)
	} else {
		drawn = true
	}

	if drawn && o.state == Ready {
		if err := o.emitHdrMetadata(surf); errors.Is(err, ErrDeviceRemoved) {
			o.HandleDeviceLost()
			return fmt.Errorf("hdr metadata: %w", err)
		} else if err != nil {
			return fmt.Errorf("hdr metadata: %w", err)
		}
	}

	if err := surf.Present(); errors.Is(err, ErrDeviceRemoved) {
		o.HandleDeviceLost()
		return fmt.Errorf("present: %w", err)
	} else if err != nil {
		return fmt.Errorf("present: %w", err)
	}
	return nil
}

// EffectiveMaxCLL is the peak luminance reported to the display, which
// depends on what the mode does to the image.
func (o *Orchestrator) EffectiveMaxCLL() float64 {
	disp := o.currentDisplay()
	switch o.mode {
	case graph.EffectNone:
		return math.Max(o.cll.MaxNits, 0) * o.brightness
	case graph.EffectHdrTonemap:
		return ecolor.BestDisplayMaxLuminance(disp) * o.brightness
	default:
		// The other modes all output SDR range content
		return sdrWhiteLevel(disp) * o.brightness
	}
}

func (o *Orchestrator) emitHdrMetadata(surf Surface) error {
	disp := o.currentDisplay()
	if !disp.IsHDR() {
		return nil
	}

	md := ecolor.NewHDR10Metadata(disp, o.EffectiveMaxCLL())
	if err := surf.SetHdrMetadata(md.Bytes()); err != nil {
		return err
	}
	o.LastMetadata = &md
	if o.Verbosity > 1 {
		log.Printf("render: %s", md)
	}
	return nil
}

// HandleDeviceLost drops everything that lived on the device. The view,
// the image (pixels included) and its CLL are kept for recovery.
func (o *Orchestrator) HandleDeviceLost() {
	if o.state == DeviceLost {
		return
	}
	log.Printf("render: device lost in state %s", o.state)
	o.lostPanel = o.panel
	o.releaseDeviceResources()
	o.state = DeviceLost
}

// Recover rebuilds on the device's current instance and redraws. The view
// and mode come through unchanged unless the panel was resized meanwhile,
// and the CLL is only measured again if compute support changed.
func (o *Orchestrator) Recover() error {
	if o.state != DeviceLost {
		return fmt.Errorf("recover in state %s: %w", o.state, ErrWrongState)
	}
	if err := o.idle(); err != nil {
		return err
	}

	o.state = Recovering
	o.newDeviceResources()

	if o.img == nil {
		o.state = Uninitialized
		return o.Draw()
	}

	caps := graph.QueryCapabilities(o.dev.Host())
	analyze := caps.Compute != o.caps.Compute
	refit := o.panel != o.lostPanel
	if o.Verbosity > 0 {
		log.Printf("render: recovering, caps %+v (was %+v), refit:%v", caps, o.caps, refit)
	}

	if err := o.buildImageGraph(refit, analyze); err != nil {
		o.releaseDeviceResources()
		o.state = DeviceLost
		return fmt.Errorf("recover: %w", err)
	}
	o.loader = LoadingSucceeded
	o.state = Ready

	log.Printf("render: recovered, %s", o.cll)
	return o.Draw()
}

// OnDeviceLost and OnDeviceRestored implement DeviceNotify.
func (o *Orchestrator) OnDeviceLost() { o.HandleDeviceLost() }

func (o *Orchestrator) OnDeviceRestored() {
	// The device may have come back before anyone noticed it had gone
	o.HandleDeviceLost()
	if err := o.Recover(); err != nil {
		log.Printf("render: recovery failed: %v", err)
	}
}
