package graph

import (
	"errors"
	"fmt"
)

// NodeKind is the type of a filter node.
type NodeKind int

const (
	NodeSource NodeKind = iota
	NodeColorManagement
	NodeColorMatrix
	NodeHdrTonemap       // platform tonemapper
	NodeCustomTonemap    // stand-in when the platform has no tonemapper
	NodeWhiteLevelAdjust // platform SDR white level adjustment
	NodePlaceholder      // stand-in for NodeWhiteLevelAdjust; passes its input through untouched
	NodeSdrOverlay
	NodeLuminanceHeatmap
	NodeSphereMap
	NodeBorder
	NodeScale
	NodeGammaTransfer
	NodeHistogram
)

var nodeKindNames = map[NodeKind]string{
	NodeSource:           "Source",
	NodeColorManagement:  "ColorManagement",
	NodeColorMatrix:      "ColorMatrix",
	NodeHdrTonemap:       "HdrTonemap",
	NodeCustomTonemap:    "CustomTonemap",
	NodeWhiteLevelAdjust: "WhiteLevelAdjust",
	NodePlaceholder:      "Placeholder",
	NodeSdrOverlay:       "SdrOverlay",
	NodeLuminanceHeatmap: "LuminanceHeatmap",
	NodeSphereMap:        "SphereMap",
	NodeBorder:           "Border",
	NodeScale:            "Scale",
	NodeGammaTransfer:    "GammaTransfer",
	NodeHistogram:        "Histogram",
}

func (k NodeKind) String() string {
	if s, ok := nodeKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// NumInputs is how many input slots a node of this kind has.
func (k NodeKind) NumInputs() int {
	if k == NodeSource {
		return 0
	}
	return 1
}

// Node is an opaque handle to a filter node owned by an EffectHost.
type Node interface {
	Kind() NodeKind
}

// Feature is an optional platform capability.
type Feature int

const (
	FeaturePlatformTonemap Feature = iota // NodeHdrTonemap and NodeWhiteLevelAdjust are available
	FeatureCompute                        // NodeHistogram can run
)

func (f Feature) String() string {
	switch f {
	case FeaturePlatformTonemap:
		return "PlatformTonemap"
	case FeatureCompute:
		return "Compute"
	default:
		return fmt.Sprintf("Feature(%d)", int(f))
	}
}

// EffectHost creates and wires filter nodes. Implementations validate
// nothing beyond what they need to; properties are checked against the
// node schema before they are handed over.
type EffectHost interface {
	CreateNode(kind NodeKind) (Node, error)
	SetInput(node Node, slot int, src Node) error
	SetProperty(node Node, p Property) error
	QueryCapability(f Feature) bool
}

// NodeReleaser is implemented by hosts that want to know when the graph
// stops using a node.
type NodeReleaser interface {
	ReleaseNode(node Node)
}

var (
	// ErrNotImplemented is returned for values that have no wiring, such as an
	// unknown RenderEffectKind.
	ErrNotImplemented = errors.New("not implemented")

	// ErrInvalidProperty means a property key doesn't belong to the node
	// kind, or its value has the wrong type.
	ErrInvalidProperty = errors.New("invalid property")

	// ErrInsufficientCapability can be returned by CreateNode when the
	// device cannot run a node of that kind.
	ErrInsufficientCapability = errors.New("insufficient device capability")

	// ErrDeviceRemoved is reported by hosts and presentation surfaces once
	// their device has gone away. Everything created on it is invalid.
	ErrDeviceRemoved = errors.New("device removed")

	// ErrRecreateTarget is a transient presentation failure; the render
	// target needs recreating, which happens on the next present.
	ErrRecreateTarget = errors.New("render target needs recreating")

	// ErrNoImage is returned when configuring a graph that has no image source.
	ErrNoImage = errors.New("no image graph")
)

// CreationError wraps a failure to create, wire or configure a node. Any
// graph built so far must be treated as invalid.
type CreationError struct {
	Kind NodeKind
	Op   string
	Err  error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("graph: %s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }
