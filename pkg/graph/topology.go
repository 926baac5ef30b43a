package graph

import (
	"fmt"
	"sort"
	"strings"
)

// Role is a node's position in the render graph. Roles are fixed per
// mode; the node kind filling a role can depend on platform capabilities.
type Role int

const (
	RoleSource Role = iota
	RoleColorManagement
	RoleWhiteScale
	RoleHdrTonemap
	RoleSdrWhiteScale
	RoleSdrOverlay
	RoleHeatmap
	RoleBorder
	RoleSphereMap
)

var roleNames = []string{
	"source", "colorManagement", "whiteScale", "hdrTonemap", "sdrWhiteScale",
	"sdrOverlay", "heatmap", "border", "sphereMap",
}

func (r Role) String() string {
	if int(r) >= 0 && int(r) < len(roleNames) {
		return roleNames[r]
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// IsPrefix is true for the roles that persist across mode changes.
func (r Role) IsPrefix() bool {
	return r == RoleSource || r == RoleColorManagement || r == RoleWhiteScale
}

// Edge connects From's output to To's input slot.
type Edge struct {
	To   Role
	Slot int
	From Role
}

func (e Edge) String() string { return fmt.Sprintf("%s[%d]<-%s", e.To, e.Slot, e.From) }

// Capabilities is the subset of platform features the graph depends on.
type Capabilities struct {
	PlatformTonemap bool
	Compute         bool
}

func QueryCapabilities(host EffectHost) Capabilities {
	return Capabilities{
		PlatformTonemap: host.QueryCapability(FeaturePlatformTonemap),
		Compute:         host.QueryCapability(FeatureCompute),
	}
}

// Topology describes the full render graph for one mode.
type Topology struct {
	Mode   RenderEffectKind
	Kinds  map[Role]NodeKind // node kind per role, prefix included
	Suffix []Role            // roles created per mode, in creation order
	Edges  []Edge
	Output Role
}

// TopologyFor is the wiring for a mode. It is a pure function of its
// arguments; Builder turns it into live nodes.
//
//	None:             source > cm > whiteScale
//	HdrTonemap:       source > cm > whiteScale > hdrTonemap > sdrWhiteScale
//	SdrOverlay:       source > cm > sdrOverlay > whiteScale
//	LuminanceHeatmap: source > cm > heatmap > whiteScale
//	SphereMap:        source > cm > whiteScale > border > sphereMap
func TopologyFor(mode RenderEffectKind, caps Capabilities, displayIsHdr bool) (Topology, error) {
	t := Topology{
		Mode: mode,
		Kinds: map[Role]NodeKind{
			RoleSource:          NodeSource,
			RoleColorManagement: NodeColorManagement,
			RoleWhiteScale:      NodeColorMatrix,
		},
		Edges: []Edge{{RoleColorManagement, 0, RoleSource}},
	}

	add := func(r Role, k NodeKind) {
		t.Suffix = append(t.Suffix, r)
		t.Kinds[r] = k
	}
	wire := func(to, from Role) {
		t.Edges = append(t.Edges, Edge{to, 0, from})
	}

	switch mode {
	case EffectNone:
		wire(RoleWhiteScale, RoleColorManagement)
		t.Output = RoleWhiteScale

	case EffectHdrTonemap:
		if caps.PlatformTonemap {
			add(RoleHdrTonemap, NodeHdrTonemap)
			add(RoleSdrWhiteScale, NodeWhiteLevelAdjust)
		} else {
			add(RoleHdrTonemap, NodeCustomTonemap)
			add(RoleSdrWhiteScale, NodePlaceholder)
		}
		wire(RoleWhiteScale, RoleColorManagement)
		wire(RoleHdrTonemap, RoleWhiteScale)
		wire(RoleSdrWhiteScale, RoleHdrTonemap)

		// The second white scale keeps SDR and WCG output in [0,1]; HDR
		// displays take the tonemapper output directly.
		if displayIsHdr {
			t.Output = RoleHdrTonemap
		} else {
			t.Output = RoleSdrWhiteScale
		}

	case EffectSdrOverlay:
		add(RoleSdrOverlay, NodeSdrOverlay)
		wire(RoleSdrOverlay, RoleColorManagement)
		wire(RoleWhiteScale, RoleSdrOverlay)
		t.Output = RoleWhiteScale

	case EffectLuminanceHeatmap:
		add(RoleHeatmap, NodeLuminanceHeatmap)
		wire(RoleHeatmap, RoleColorManagement)
		wire(RoleWhiteScale, RoleHeatmap)
		t.Output = RoleWhiteScale

	case EffectSphereMap:
		add(RoleBorder, NodeBorder)
		add(RoleSphereMap, NodeSphereMap)
		wire(RoleWhiteScale, RoleColorManagement)
		wire(RoleBorder, RoleWhiteScale)
		wire(RoleSphereMap, RoleBorder)
		t.Output = RoleSphereMap

	default:
		return Topology{}, fmt.Errorf("topology for %s: %w", mode, ErrNotImplemented)
	}

	return t, nil
}

// Has is true if the topology uses the role.
func (t Topology) Has(r Role) bool {
	_, ok := t.Kinds[r]
	return ok
}

// InputOf returns the role feeding the given role's slot 0.
func (t Topology) InputOf(r Role) (Role, bool) {
	for _, e := range t.Edges {
		if e.To == r && e.Slot == 0 {
			return e.From, true
		}
	}
	return 0, false
}

// String is a canonical form, independent of how the topology was built.
func (t Topology) String() string {
	edges := []string{}
	for _, e := range t.Edges {
		edges = append(edges, fmt.Sprintf("%s(%s)[%d]<-%s(%s)", e.To, t.Kinds[e.To], e.Slot, e.From, t.Kinds[e.From]))
	}
	sort.Strings(edges)
	return fmt.Sprintf("%s: out=%s(%s) {%s}", t.Mode, t.Output, t.Kinds[t.Output], strings.Join(edges, ", "))
}
