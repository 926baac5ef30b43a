package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mdouchement/hdr"

	"github.com/abworrall/hdrview/pkg/ecolor"
	"github.com/abworrall/hdrview/pkg/emath"
)

// RenderParams are the per-configuration inputs to the suffix of the graph.
type RenderParams struct {
	Mode       RenderEffectKind
	WhiteScale float64 // from ecolor.ComputeWhiteLevelScale
	Tonemap    ecolor.TonemapTarget
}

func (p RenderParams) displayIsHdr() bool { return p.Tonemap.Mode == ecolor.TonemapHDR }

// Builder owns the live render graph for one image. The prefix (source,
// color management, white scale) lives as long as the image; the suffix is
// torn down and recreated on every Configure.
type Builder struct {
	host   EffectHost
	caps   Capabilities
	nodes  map[Role]Node
	inputs map[Role]Role
	topo   *Topology

	sceneSize emath.Vec2
	center    emath.Vec2
	zoom      float64
}

func NewBuilder(host EffectHost) *Builder {
	return &Builder{
		host:   host,
		nodes:  map[Role]Node{},
		inputs: map[Role]Role{},
		zoom:   1,
	}
}

// BuildPrefix creates source > colorManagement > whiteScale for a newly
// loaded image, releasing whatever graph existed before. Capabilities are
// queried afresh, since this also runs after a device comes back.
func (b *Builder) BuildPrefix(src hdr.Image, scale float64, profile ecolor.ColorProfile) error {
	b.Release()
	b.caps = QueryCapabilities(b.host)

	prefix := []struct {
		role Role
		kind NodeKind
	}{
		{RoleSource, NodeSource},
		{RoleColorManagement, NodeColorManagement},
		{RoleWhiteScale, NodeColorMatrix},
	}
	for _, p := range prefix {
		n, err := Create(b.host, p.kind)
		if err != nil {
			b.Release()
			return err
		}
		b.nodes[p.role] = n
	}

	err := b.set(RoleSource, Prop(PropSourceImage, src), Prop(PropSourceScale, scale))
	if err == nil {
		err = b.set(RoleColorManagement,
			Prop(PropSourceProfile, profile),
			Prop(PropDestinationProfile, ecolor.ColorProfile{Kind: ecolor.ProfileLinearSRGB}))
	}
	if err == nil {
		err = b.connect(RoleColorManagement, RoleSource)
	}
	if err == nil {
		err = b.connect(RoleWhiteScale, RoleColorManagement)
	}
	if err == nil {
		err = b.set(RoleWhiteScale, Prop(PropColorMatrix, ecolor.ScaleMatrix(1)))
	}
	if err != nil {
		b.Release()
		return err
	}

	return nil
}

// Configure rebuilds the suffix for the mode, and sets the white scale and
// tonemap parameters. An unknown mode fails before anything is touched.
func (b *Builder) Configure(p RenderParams) error {
	if !b.Built() {
		return fmt.Errorf("configure %s: %w", p.Mode, ErrNoImage)
	}

	topo, err := TopologyFor(p.Mode, b.caps, p.displayIsHdr())
	if err != nil {
		return err
	}

	b.releaseSuffix()

	if err := b.configure(topo, p); err != nil {
		b.releaseSuffix()
		return err
	}

	b.topo = &topo
	return nil
}

func (b *Builder) configure(topo Topology, p RenderParams) error {
	for _, r := range topo.Suffix {
		n, err := Create(b.host, topo.Kinds[r])
		if err != nil {
			return err
		}
		b.nodes[r] = n
	}

	for _, e := range topo.Edges {
		if e.To == RoleColorManagement {
			continue // wired once, in BuildPrefix
		}
		if err := b.connect(e.To, e.From); err != nil {
			return err
		}
	}

	if err := b.set(RoleWhiteScale, Prop(PropColorMatrix, ecolor.ScaleMatrix(p.WhiteScale))); err != nil {
		return err
	}

	if topo.Has(RoleHdrTonemap) {
		err := b.set(RoleHdrTonemap,
			Prop(PropOutputMaxLuminance, p.Tonemap.OutputMaxNits),
			Prop(PropInputMaxLuminance, p.Tonemap.InputMaxNits),
			Prop(PropDisplayMode, p.Tonemap.Mode))
		if err != nil {
			return err
		}
	}

	// Tonemapper output is scene referred (80 nits at 1.0); an SDR or WCG
	// display wants it display referred, with 1.0 at the display's peak.
	if topo.Has(RoleSdrWhiteScale) && topo.Kinds[RoleSdrWhiteScale] == NodeWhiteLevelAdjust && !p.displayIsHdr() {
		err := b.set(RoleSdrWhiteScale,
			Prop(PropInputWhiteLevel, ecolor.NominalRefWhite),
			Prop(PropOutputWhiteLevel, p.Tonemap.OutputMaxNits))
		if err != nil {
			return err
		}
	}

	if topo.Has(RoleBorder) {
		if err := b.set(RoleBorder, Prop(PropEdgeModeX, EdgeWrap), Prop(PropEdgeModeY, EdgeWrap)); err != nil {
			return err
		}
	}

	if topo.Has(RoleSphereMap) {
		err := b.set(RoleSphereMap,
			Prop(PropSceneSize, b.sceneSize),
			Prop(PropCenter, b.center),
			Prop(PropZoom, b.zoom))
		if err != nil {
			return err
		}
	}

	return nil
}

// SetSourceScale pushes the view zoom into the image source.
func (b *Builder) SetSourceScale(scale float64) error {
	if !b.Built() {
		return fmt.Errorf("source scale: %w", ErrNoImage)
	}
	return b.set(RoleSource, Prop(PropSourceScale, scale))
}

// SetSceneSize records the (zoomed) image size for the sphere map, and
// pushes it if a sphere map node exists.
func (b *Builder) SetSceneSize(size emath.Vec2) error {
	b.sceneSize = size
	if _, ok := b.nodes[RoleSphereMap]; !ok {
		return nil
	}
	return b.set(RoleSphereMap, Prop(PropSceneSize, size))
}

// SetSphereView records the sphere map's virtual camera, and pushes it if
// a sphere map node exists.
func (b *Builder) SetSphereView(center emath.Vec2, zoom float64) error {
	b.center, b.zoom = center, zoom
	if _, ok := b.nodes[RoleSphereMap]; !ok {
		return nil
	}
	return b.set(RoleSphereMap, Prop(PropCenter, center), Prop(PropZoom, zoom))
}

func (b *Builder) Built() bool {
	_, ok := b.nodes[RoleSource]
	return ok
}

// Output is the node to draw; nil until Configure has succeeded.
func (b *Builder) Output() Node {
	if b.topo == nil {
		return nil
	}
	return b.nodes[b.topo.Output]
}

// ColorManagement is the color managed image, before any mode specific
// processing. The histogram taps it.
func (b *Builder) ColorManagement() Node { return b.nodes[RoleColorManagement] }

func (b *Builder) Capabilities() Capabilities { return b.caps }

func (b *Builder) Node(r Role) Node { return b.nodes[r] }

// Topology is the most recently configured topology.
func (b *Builder) Topology() (Topology, bool) {
	if b.topo == nil {
		return Topology{}, false
	}
	return *b.topo, true
}

// Release drops every node. Used on image reload and device loss.
func (b *Builder) Release() {
	for r, n := range b.nodes {
		Release(b.host, n)
		delete(b.nodes, r)
	}
	b.inputs = map[Role]Role{}
	b.topo = nil
}

func (b *Builder) releaseSuffix() {
	for r, n := range b.nodes {
		if r.IsPrefix() {
			continue
		}
		Release(b.host, n)
		delete(b.nodes, r)
		delete(b.inputs, r)
	}
	b.topo = nil
}

func (b *Builder) connect(to, from Role) error {
	if err := Connect(b.host, b.nodes[to], 0, b.nodes[from]); err != nil {
		return err
	}
	b.inputs[to] = from
	return nil
}

func (b *Builder) set(r Role, props ...Property) error {
	return Set(b.host, b.nodes[r], props...)
}

// Describe renders the live wiring in the same canonical form as
// Topology.String, so the two can be compared.
func (b *Builder) Describe() string {
	if b.topo == nil {
		return "unconfigured"
	}
	edges := []string{}
	for to, from := range b.inputs {
		edges = append(edges, fmt.Sprintf("%s(%s)[0]<-%s(%s)", to, b.nodes[to].Kind(), from, b.nodes[from].Kind()))
	}
	sort.Strings(edges)
	out := b.topo.Output
	return fmt.Sprintf("%s: out=%s(%s) {%s}", b.topo.Mode, out, b.nodes[out].Kind(), strings.Join(edges, ", "))
}
