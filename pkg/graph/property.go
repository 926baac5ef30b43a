package graph

import (
	"fmt"

	"github.com/mdouchement/hdr"

	"github.com/abworrall/hdrview/pkg/ecolor"
	"github.com/abworrall/hdrview/pkg/emath"
)

// PropKey names a node property.
type PropKey int

const (
	PropSourceImage PropKey = iota
	PropSourceScale

	PropSourceProfile
	PropDestinationProfile

	PropColorMatrix

	PropInputMaxLuminance
	PropOutputMaxLuminance
	PropDisplayMode

	PropInputWhiteLevel
	PropOutputWhiteLevel

	PropEdgeModeX
	PropEdgeModeY

	PropSceneSize
	PropCenter
	PropZoom

	PropScale

	PropRedExponent
	PropGreenDisable
	PropBlueDisable
	PropAlphaDisable

	PropNumBins
)

var propKeyNames = map[PropKey]string{
	PropSourceImage:        "SourceImage",
	PropSourceScale:        "SourceScale",
	PropSourceProfile:      "SourceProfile",
	PropDestinationProfile: "DestinationProfile",
	PropColorMatrix:        "ColorMatrix",
	PropInputMaxLuminance:  "InputMaxLuminance",
	PropOutputMaxLuminance: "OutputMaxLuminance",
	PropDisplayMode:        "DisplayMode",
	PropInputWhiteLevel:    "InputWhiteLevel",
	PropOutputWhiteLevel:   "OutputWhiteLevel",
	PropEdgeModeX:          "EdgeModeX",
	PropEdgeModeY:          "EdgeModeY",
	PropSceneSize:          "SceneSize",
	PropCenter:             "Center",
	PropZoom:               "Zoom",
	PropScale:              "Scale",
	PropRedExponent:        "RedExponent",
	PropGreenDisable:       "GreenDisable",
	PropBlueDisable:        "BlueDisable",
	PropAlphaDisable:       "AlphaDisable",
	PropNumBins:            "NumBins",
}

func (k PropKey) String() string {
	if s, ok := propKeyNames[k]; ok {
		return s
	}
	return fmt.Sprintf("PropKey(%d)", int(k))
}

// EdgeMode says how a border node samples outside the image.
type EdgeMode int

const (
	EdgeClamp EdgeMode = iota
	EdgeWrap
	EdgeMirror
)

// ValueType is the type a property's value must have.
type ValueType int

const (
	TypeFloat   ValueType = iota // float64
	TypeInt                      // int
	TypeBool                     // bool
	TypeVec2                     // emath.Vec2
	TypeMatrix                   // ecolor.Matrix5x4
	TypeProfile                  // ecolor.ColorProfile
	TypeMode                     // ecolor.TonemapMode
	TypeEdge                     // EdgeMode
	TypeImage                    // hdr.Image
)

func typeOf(v interface{}) (ValueType, bool) {
	switch v.(type) {
	case float64:
		return TypeFloat, true
	case int:
		return TypeInt, true
	case bool:
		return TypeBool, true
	case emath.Vec2:
		return TypeVec2, true
	case ecolor.Matrix5x4:
		return TypeMatrix, true
	case ecolor.ColorProfile:
		return TypeProfile, true
	case ecolor.TonemapMode:
		return TypeMode, true
	case EdgeMode:
		return TypeEdge, true
	case hdr.Image:
		return TypeImage, true
	}
	return 0, false
}

var propTypes = map[PropKey]ValueType{
	PropSourceImage:        TypeImage,
	PropSourceScale:        TypeFloat,
	PropSourceProfile:      TypeProfile,
	PropDestinationProfile: TypeProfile,
	PropColorMatrix:        TypeMatrix,
	PropInputMaxLuminance:  TypeFloat,
	PropOutputMaxLuminance: TypeFloat,
	PropDisplayMode:        TypeMode,
	PropInputWhiteLevel:    TypeFloat,
	PropOutputWhiteLevel:   TypeFloat,
	PropEdgeModeX:          TypeEdge,
	PropEdgeModeY:          TypeEdge,
	PropSceneSize:          TypeVec2,
	PropCenter:             TypeVec2,
	PropZoom:               TypeFloat,
	PropScale:              TypeVec2,
	PropRedExponent:        TypeFloat,
	PropGreenDisable:       TypeBool,
	PropBlueDisable:        TypeBool,
	PropAlphaDisable:       TypeBool,
	PropNumBins:            TypeInt,
}

// The properties each node kind accepts. NodeCustomTonemap shares the
// platform tonemapper's keys.
var nodeProps = map[NodeKind][]PropKey{
	NodeSource:           {PropSourceImage, PropSourceScale},
	NodeColorManagement:  {PropSourceProfile, PropDestinationProfile},
	NodeColorMatrix:      {PropColorMatrix},
	NodeHdrTonemap:       {PropInputMaxLuminance, PropOutputMaxLuminance, PropDisplayMode},
	NodeCustomTonemap:    {PropInputMaxLuminance, PropOutputMaxLuminance, PropDisplayMode},
	NodeWhiteLevelAdjust: {PropInputWhiteLevel, PropOutputWhiteLevel},
	NodePlaceholder:      {},
	NodeSdrOverlay:       {},
	NodeLuminanceHeatmap: {},
	NodeSphereMap:        {PropSceneSize, PropCenter, PropZoom},
	NodeBorder:           {PropEdgeModeX, PropEdgeModeY},
	NodeScale:            {PropScale},
	NodeGammaTransfer:    {PropRedExponent, PropGreenDisable, PropBlueDisable, PropAlphaDisable},
	NodeHistogram:        {PropNumBins},
}

// Property is a typed key/value pair destined for one node.
type Property struct {
	Key   PropKey
	Value interface{}
}

func Prop(key PropKey, value interface{}) Property {
	return Property{Key: key, Value: value}
}

func (p Property) String() string {
	return fmt.Sprintf("%s=%v", p.Key, p.Value)
}

// Validate checks that the property belongs to the node kind, and that its
// value has the type the key wants.
func (k NodeKind) Validate(p Property) error {
	keys, ok := nodeProps[k]
	if !ok {
		return fmt.Errorf("%w: unknown node kind %s", ErrInvalidProperty, k)
	}

	found := false
	for _, key := range keys {
		if key == p.Key {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s has no property %s", ErrInvalidProperty, k, p.Key)
	}

	got, ok := typeOf(p.Value)
	if !ok || got != propTypes[p.Key] {
		return fmt.Errorf("%w: %s.%s given %T", ErrInvalidProperty, k, p.Key, p.Value)
	}

	return nil
}
