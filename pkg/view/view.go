package view

// The pan/zoom state of the image in the window.
//
// Normal modes move the image: Offset is where the image's top left corner
// lands in the panel, and Zoom scales image pixels to panel pixels. The
// sphere map instead moves a virtual camera, and the image stays put.

import (
	"fmt"
	"math"

	"github.com/abworrall/hdrview/pkg/emath"
	"github.com/abworrall/hdrview/pkg/graph"
)

const (
	DefaultMaxZoom       = 1.0
	DefaultSphereMinZoom = 0.25
)

// Manipulation is one pointer/gesture update.
type Manipulation struct {
	PositionDelta emath.Vec2 // translation since the last update
	Position      emath.Vec2 // where the pointer is now, in panel coords
	ZoomDelta     float64    // multiplicative; 1 is no change
}

type State struct {
	Zoom    float64
	Offset  emath.Vec2
	Pointer emath.Vec2 // accumulated pointer movement, sphere map only

	MaxZoom       float64
	SphereMinZoom float64

	Panel  emath.Vec2 // logical size of the window
	Target emath.Vec2 // pixel size of the render target
	Image  emath.Vec2 // pixel size of the image
}

func NewState(maxZoom, sphereMinZoom float64) State {
	return State{
		Zoom:          1,
		MaxZoom:       maxZoom,
		SphereMinZoom: sphereMinZoom,
	}
}

func (s State) String() string {
	return fmt.Sprintf("view{zoom:%.4f, offset:%s, pointer:%s, panel:%s, image:%s}",
		s.Zoom, s.Offset, s.Pointer, s.Panel, s.Image)
}

// ApplyManipulationDelta updates the view for a gesture.
//
// Outside the sphere map, the zoom is centered on the pointer: the image
// point under the pointer stays there. Zoom is only clamped at the top;
// the offset is then clamped so no empty space shows past the image edges.
// When the scaled image is smaller than the panel on an axis, that clamp
// pins the axis offset to 0.
func (s *State) ApplyManipulationDelta(m Manipulation, mode graph.RenderEffectKind) {
	if mode == graph.EffectSphereMap {
		s.Pointer = s.Pointer.Add(m.PositionDelta)
		s.Zoom = emath.Clamp(s.Zoom*m.ZoomDelta, s.SphereMinZoom, s.MaxZoom)
		return
	}

	s.Offset = s.Offset.Add(m.PositionDelta)

	abs := s.Offset.Sub(m.Position).MulScalar(1 / s.Zoom)
	s.Zoom = math.Min(s.Zoom*m.ZoomDelta, s.MaxZoom)
	s.Offset = abs.MulScalar(s.Zoom).Add(m.Position)

	s.Offset = emath.Vec2{
		emath.ClampPan(s.Offset[0], s.Panel[0], s.Image[0]*s.Zoom),
		emath.ClampPan(s.Offset[1], s.Panel[1], s.Image[1]*s.Zoom),
	}
}

// FitToWindow letterboxes the image in the panel, never zooming in past
// MaxZoom, and centers it.
func (s *State) FitToWindow(panel, img emath.Vec2) (float64, emath.Vec2) {
	s.Panel, s.Image = panel, img
	if img[0] <= 0 || img[1] <= 0 {
		return s.Zoom, s.Offset
	}

	letterbox := math.Min(panel[0]/img[0], panel[1]/img[1])
	s.Zoom = math.Min(s.MaxZoom, letterbox)
	s.Offset = emath.Vec2{
		(panel[0] - img[0]*s.Zoom) / 2,
		(panel[1] - img[1]*s.Zoom) / 2,
	}
	return s.Zoom, s.Offset
}

// SphereCenter is the accumulated pointer position, normalized by the
// render target size.
func (s State) SphereCenter() emath.Vec2 {
	if s.Target[0] <= 0 || s.Target[1] <= 0 {
		return emath.Vec2{}
	}
	return emath.Vec2{s.Pointer[0] / s.Target[0], s.Pointer[1] / s.Target[1]}
}

// SceneSize is the image size at the current zoom.
func (s State) SceneSize() emath.Vec2 { return s.Image.MulScalar(s.Zoom) }

// ImageToPanel maps image pixel coords to panel coords.
func (s State) ImageToPanel() emath.Aff3 {
	return emath.Identity().Translate(s.Offset[0], s.Offset[1]).Scale(s.Zoom, s.Zoom)
}

// PanelToImage maps a panel point (e.g. the pointer) back to the image.
func (s State) PanelToImage(p emath.Vec2) emath.Vec2 {
	return s.ImageToPanel().Invert().Apply(p)
}
