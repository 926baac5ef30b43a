package graph

import (
	"fmt"
	"strings"
)

// RenderEffectKind is the visualization mode. Exactly one is active.
type RenderEffectKind int

const (
	EffectNone RenderEffectKind = iota
	EffectHdrTonemap
	EffectSdrOverlay
	EffectLuminanceHeatmap
	EffectSphereMap
)

var effectNames = map[RenderEffectKind]string{
	EffectNone:             "none",
	EffectHdrTonemap:       "hdrtonemap",
	EffectSdrOverlay:       "sdroverlay",
	EffectLuminanceHeatmap: "heatmap",
	EffectSphereMap:        "spheremap",
}

func (k RenderEffectKind) String() string {
	if s, ok := effectNames[k]; ok {
		return s
	}
	return fmt.Sprintf("RenderEffectKind(%d)", int(k))
}

// ParseEffect maps a config name (as produced by String) to its kind.
func ParseEffect(name string) (RenderEffectKind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, s := range effectNames {
		if s == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("effect %q: %w", name, ErrNotImplemented)
}

// EffectOption is an entry in the list of modes offered to the user.
type EffectOption struct {
	Description string
	Kind        RenderEffectKind
}

// EffectOptions lists the modes in display order. The sphere map is a
// debugging aid and only listed when asked for.
func EffectOptions(debug bool) []EffectOption {
	opts := []EffectOption{
		{"No effect", EffectNone},
		{"HDR tonemap", EffectHdrTonemap},
		{"Draw SDR as grayscale", EffectSdrOverlay},
		{"Luminance heatmap", EffectLuminanceHeatmap},
	}
	if debug {
		opts = append(opts, EffectOption{"Draw as spheremap", EffectSphereMap})
	}
	return opts
}

func ListEffects() string {
	names := []string{}
	for _, o := range EffectOptions(true) {
		names = append(names, o.Kind.String())
	}
	return fmt.Sprintf("%v", names)
}
