package graph

import (
	"errors"
	"image"
	"image/color"

	"github.com/mdouchement/hdr/hdrcolor"
)

// fakeHost records what the builder asks of it, without touching pixels.
type fakeHost struct {
	caps     map[Feature]bool
	failKind map[NodeKind]error
	nextID   int
	live     map[*fakeNode]bool
}

type fakeNode struct {
	kind   NodeKind
	id     int
	inputs map[int]*fakeNode
	props  map[PropKey]interface{}
}

func (n *fakeNode) Kind() NodeKind { return n.kind }

func newFakeHost(platformTonemap, compute bool) *fakeHost {
	return &fakeHost{
		caps:     map[Feature]bool{FeaturePlatformTonemap: platformTonemap, FeatureCompute: compute},
		failKind: map[NodeKind]error{},
		live:     map[*fakeNode]bool{},
	}
}

func (h *fakeHost) CreateNode(kind NodeKind) (Node, error) {
	if err := h.failKind[kind]; err != nil {
		return nil, err
	}
	h.nextID++
	n := &fakeNode{kind: kind, id: h.nextID, inputs: map[int]*fakeNode{}, props: map[PropKey]interface{}{}}
	h.live[n] = true
	return n, nil
}

func (h *fakeHost) SetInput(node Node, slot int, src Node) error {
	dst, ok := node.(*fakeNode)
	if !ok || !h.live[dst] {
		return errors.New("bad node")
	}
	dst.inputs[slot] = src.(*fakeNode)
	return nil
}

func (h *fakeHost) SetProperty(node Node, p Property) error {
	n := node.(*fakeNode)
	n.props[p.Key] = p.Value
	return nil
}

func (h *fakeHost) QueryCapability(f Feature) bool { return h.caps[f] }

func (h *fakeHost) ReleaseNode(node Node) { delete(h.live, node.(*fakeNode)) }

// A 4x2 image that is black everywhere
type blankImage struct{}

func (blankImage) ColorModel() color.Model       { return hdrcolor.RGBModel }
func (blankImage) Bounds() image.Rectangle       { return image.Rect(0, 0, 4, 2) }
func (blankImage) At(x, y int) color.Color       { return hdrcolor.RGB{} }
func (blankImage) HDRAt(x, y int) hdrcolor.Color { return hdrcolor.RGB{} }
func (blankImage) Size() int                     { return 8 }
