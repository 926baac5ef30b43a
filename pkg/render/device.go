package render

// The collaborators the renderer is driven through. A GPU backend, or
// softhost for tests and the CLI, implements these.

import (
	"image"

	"github.com/mdouchement/hdr"

	"github.com/abworrall/hdrview/pkg/emath"
	"github.com/abworrall/hdrview/pkg/graph"
	"github.com/abworrall/hdrview/pkg/histogram"
)

// These two come back from the surface, and are what device loss looks like.
var (
	ErrDeviceRemoved  = graph.ErrDeviceRemoved
	ErrRecreateTarget = graph.ErrRecreateTarget
)

// Surface is the presentation target.
type Surface interface {
	Size() image.Point

	// Draw clears the target to black and draws the node at the offset. A
	// nil node just clears.
	Draw(n graph.Node, offset emath.Vec2) error

	// Present returns ErrDeviceRemoved when the device has gone away.
	Present() error

	SetHdrMetadata(b []byte) error
}

// Device is one instance of a rendering device. Everything it hands out
// is invalid once the device is lost.
type Device interface {
	Host() graph.EffectHost
	Evaluator() histogram.Evaluator
	Surface() Surface

	// Readback renders a node into CPU memory, for export.
	Readback(n graph.Node) (hdr.Image, error)
}

// DeviceNotify is how the device owner tells the renderer about loss and
// recovery.
type DeviceNotify interface {
	OnDeviceLost()
	OnDeviceRestored()
}

// Devices that can call back implement this; the orchestrator registers
// itself when it is created.
type notifyRegistrar interface {
	RegisterDeviceNotify(DeviceNotify)
}
