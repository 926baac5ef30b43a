package softhost

import (
	"image"
	"log"
	"math"

	"github.com/mdouchement/hdr"

	"github.com/abworrall/hdrview/pkg/emath"
	"github.com/abworrall/hdrview/pkg/graph"
	"github.com/abworrall/hdrview/pkg/histogram"
	"github.com/abworrall/hdrview/pkg/render"
)

// Device is a software stand-in for a GPU device plus its swap chain. It
// can be lost and restored, to exercise the renderer's recovery path; each
// restore is a new generation, and anything created on an older one fails.
type Device struct {
	Verbosity int

	gen     int
	lost    bool
	host    *Host
	surface *Surface
	notify  render.DeviceNotify
}

func NewDevice(width, height int, caps graph.Capabilities) *Device {
	d := &Device{}
	d.create(image.Point{width, height}, caps)
	return d
}

func (d *Device) create(size image.Point, caps graph.Capabilities) {
	d.gen++
	d.lost = false
	d.host = newHost(d, d.gen, caps)
	d.surface = &Surface{dev: d, gen: d.gen, size: size}
}

func (d *Device) isLost(gen int) bool { return d.lost || gen != d.gen }

func (d *Device) Host() graph.EffectHost         { return d.host }
func (d *Device) Evaluator() histogram.Evaluator { return d.host }
func (d *Device) Surface() render.Surface        { return d.surface }

func (d *Device) Readback(n graph.Node) (hdr.Image, error) {
	img, err := d.host.Render(n)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// SoftHost and SoftSurface give tests access to the concrete types.
func (d *Device) SoftHost() *Host       { return d.host }
func (d *Device) SoftSurface() *Surface { return d.surface }

func (d *Device) RegisterDeviceNotify(n render.DeviceNotify) { d.notify = n }

// Lose simulates the device being removed. Nothing is notified; the
// renderer finds out when it next presents.
func (d *Device) Lose() {
	if d.Verbosity > 0 {
		log.Printf("softhost: device generation %d lost", d.gen)
	}
	d.lost = true
}

// Restore creates a new device generation, possibly with different
// capabilities, and tells whoever registered.
func (d *Device) Restore(caps graph.Capabilities) {
	d.create(d.surface.size, caps)
	if d.Verbosity > 0 {
		log.Printf("softhost: device generation %d created, caps %+v", d.gen, caps)
	}
	if d.notify != nil {
		d.notify.OnDeviceRestored()
	}
}

// Surface is the presentation target: a framebuffer that nodes are drawn
// into, and which is copied to Frame on Present.
type Surface struct {
	dev  *Device
	gen  int
	size image.Point

	back     *FloatImage
	Frame    *FloatImage // the last presented frame
	Metadata []byte      // the last HDR metadata set
	Presents int

	recreatePending bool
}

func (s *Surface) lost() bool { return s.dev.isLost(s.gen) }

func (s *Surface) Size() image.Point { return s.size }

// Resize changes the target size; like a swap chain resize, the current
// contents are dropped.
func (s *Surface) Resize(width, height int) {
	s.size = image.Point{width, height}
	s.back = nil
}

// FailNextDraw makes the next Draw report that the target needs recreating.
func (s *Surface) FailNextDraw() { s.recreatePending = true }

// Draw clears the framebuffer to black and draws the node at the offset.
func (s *Surface) Draw(n graph.Node, offset emath.Vec2) error {
	if s.lost() {
		return graph.ErrRecreateTarget
	}
	if s.recreatePending {
		s.recreatePending = false
		return graph.ErrRecreateTarget
	}

	s.back = NewFloatImage(s.size.X, s.size.Y)
	for i := 3; i < len(s.back.Pix); i += 4 {
		s.back.Pix[i] = 1
	}
	if n == nil {
		return nil
	}

	img, err := s.dev.host.Render(n)
	if err != nil {
		return err
	}

	ox, oy := int(math.Round(offset[0])), int(math.Round(offset[1]))
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.RGBA(x, y)
			s.back.SetRGBA(x-b.Min.X+ox, y-b.Min.Y+oy, r, g, bl, a)
		}
	}
	return nil
}

func (s *Surface) Present() error {
	if s.lost() {
		return graph.ErrDeviceRemoved
	}
	if s.back != nil {
		s.Frame = s.back.Copy()
	}
	s.Presents++
	return nil
}

func (s *Surface) SetHdrMetadata(b []byte) error {
	if s.lost() {
		return graph.ErrDeviceRemoved
	}
	s.Metadata = append([]byte(nil), b...)
	return nil
}
