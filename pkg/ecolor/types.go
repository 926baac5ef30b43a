package ecolor

import (
	"fmt"
	"image"
)

// AdvancedColorKind classifies the dynamic range of an image, or of a display.
type AdvancedColorKind int

const (
	StandardDynamicRange AdvancedColorKind = iota
	WideColorGamut
	HighDynamicRange
)

func (k AdvancedColorKind) String() string {
	switch k {
	case StandardDynamicRange:
		return "SDR"
	case WideColorGamut:
		return "WCG"
	case HighDynamicRange:
		return "HDR"
	default:
		return fmt.Sprintf("AdvancedColorKind(%d)", int(k))
	}
}

// ImageInfo describes a loaded image. It is created once per successful load
// and not modified after that.
type ImageInfo struct {
	Width, Height  int
	BitsPerPixel   int
	BitsPerChannel int
	IsFloat        bool
	Kind           AdvancedColorKind

	// HDR10 data that was stored as scRGB but never rescaled from [0,1] to
	// [0,125]; it needs a x125 correction on platforms without tonemap support.
	IsLegacyHdr10 bool

	Valid bool
}

func (ii ImageInfo) Size() image.Point { return image.Point{ii.Width, ii.Height} }

func (ii ImageInfo) String() string {
	if !ii.Valid {
		return "ImageInfo{invalid}"
	}
	str := fmt.Sprintf("%dx%d %s, %dbpp (%dbpc", ii.Width, ii.Height, ii.Kind, ii.BitsPerPixel, ii.BitsPerChannel)
	if ii.IsFloat {
		str += " float"
	}
	str += ")"
	if ii.IsLegacyHdr10 {
		str += " legacy-hdr10"
	}
	return str
}

// ImageCLL is the content light level of an image, in nits.
type ImageCLL struct {
	MaxNits float64
	MedNits float64
}

// UnknownCLL is the sentinel for "not computed, or not meaningful".
var UnknownCLL = ImageCLL{MaxNits: -1, MedNits: -1}

func (c ImageCLL) Known() bool { return c.MaxNits >= 0 }

func (c ImageCLL) String() string {
	if !c.Known() {
		return "CLL{unknown}"
	}
	return fmt.Sprintf("CLL{max:%.1f nits, med:%.1f nits}", c.MaxNits, c.MedNits)
}

// Chromaticity is a CIE 1931 xy coordinate.
type Chromaticity struct {
	X, Y float64
}

// DisplayInfo is a read-only snapshot of the attached display's capabilities.
type DisplayInfo struct {
	Kind          AdvancedColorKind
	MaxLuminance  float64 // nits; zero if the display doesn't report it
	SdrWhiteLevel float64 // nits

	RedPrimary   Chromaticity
	GreenPrimary Chromaticity
	BluePrimary  Chromaticity
	WhitePoint   Chromaticity
}

// Rec.709 primaries and a D65 white point
var (
	BT709Red   = Chromaticity{0.640, 0.330}
	BT709Green = Chromaticity{0.300, 0.600}
	BT709Blue  = Chromaticity{0.150, 0.060}
	D65White   = Chromaticity{0.3127, 0.3290}
)

// DefaultDisplayInfo describes a plain SDR display, used when the host has
// no display information to offer.
func DefaultDisplayInfo() DisplayInfo {
	return DisplayInfo{
		Kind:          StandardDynamicRange,
		SdrWhiteLevel: NominalRefWhite,
		RedPrimary:    BT709Red,
		GreenPrimary:  BT709Green,
		BluePrimary:   BT709Blue,
		WhitePoint:    D65White,
	}
}

func (d DisplayInfo) IsHDR() bool { return d.Kind == HighDynamicRange }

func (d DisplayInfo) String() string {
	return fmt.Sprintf("Display{%s, max:%.0f nits, sdrwhite:%.0f nits}", d.Kind, d.MaxLuminance, d.SdrWhiteLevel)
}
