package ecolor

import (
	"bytes"
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/abworrall/hdrview/pkg/emath"
)

// ProfileKind names the color space a source image was encoded in.
type ProfileKind int

const (
	ProfileSRGB       ProfileKind = iota // gamma encoded, Rec.709 primaries
	ProfileLinearSRGB                    // scRGB: linear, Rec.709 primaries, 1.0 == 80 nits
	ProfileDisplayP3                     // sRGB transfer, P3 primaries
	ProfileBT2100PQ                      // HDR10: ST.2084 transfer, Rec.2020 primaries
	ProfileICC                           // an embedded ICC blob
)

func (k ProfileKind) String() string {
	switch k {
	case ProfileSRGB:
		return "sRGB"
	case ProfileLinearSRGB:
		return "scRGB"
	case ProfileDisplayP3:
		return "DisplayP3"
	case ProfileBT2100PQ:
		return "BT2100-PQ"
	case ProfileICC:
		return "ICC"
	default:
		return fmt.Sprintf("ProfileKind(%d)", int(k))
	}
}

// ColorProfile is the color context handed over by the decoder. The ICC
// blob is opaque to the renderer.
type ColorProfile struct {
	Kind ProfileKind
	ICC  []byte
}

func (cp ColorProfile) String() string {
	if cp.Kind == ProfileICC {
		return fmt.Sprintf("ICC(%d bytes)", len(cp.ICC))
	}
	return cp.Kind.String()
}

var (
	// Linear Rec.2020 (D65) to linear Rec.709 (D65)
	// https://www.itu.int/pub/R-REP-BT.2407
	BT2020_to_BT709 = emath.Mat3{
		1.6605, -0.5876, -0.0728,
		-0.1246, 1.1329, -0.0083,
		-0.0182, -0.1006, 1.1187,
	}

	// Linear Display P3 (D65) to linear Rec.709 (D65)
	P3_to_BT709 = emath.Mat3{
		1.2249, -0.2247, 0.0,
		-0.0420, 1.0419, 0.0,
		-0.0197, -0.0786, 1.0979,
	}

	// Translates XYZ(D65) to linear sRGB(D65); used for decoders that hand
	// back hdrcolor.XYZ pixels.
	// http://www.brucelindbloom.com/index.html?Eqn_RGB_XYZ_Matrix.html
	XYZD65_to_linear_sRGBD65 = emath.Mat3{
		3.2404542, -1.5371385, -0.4985314,
		-0.9692660, 1.8760108, 0.0415560,
		0.0556434, -0.2040259, 1.0572252,
	}
)

// ST.2084 constants
const (
	pqM1 = 2610.0 / 16384.0
	pqM2 = 2523.0 / 4096.0 * 128.0
	pqC1 = 3424.0 / 4096.0
	pqC2 = 2413.0 / 4096.0 * 32.0
	pqC3 = 2392.0 / 4096.0 * 32.0

	PQMaxNits = 10000.0
)

// PQToNits maps an ST.2084 encoded value in [0,1] to absolute luminance.
func PQToNits(e float64) float64 {
	if e <= 0 {
		return 0
	}
	p := math.Pow(e, 1/pqM2)
	num := math.Max(p-pqC1, 0)
	den := pqC2 - pqC3*p
	return math.Pow(num/den, 1/pqM1) * PQMaxNits
}

// NitsToPQ is the inverse of PQToNits.
func NitsToPQ(nits float64) float64 {
	if nits <= 0 {
		return 0
	}
	y := math.Pow(nits/PQMaxNits, pqM1)
	return math.Pow((pqC1+pqC2*y)/(1+pqC3*y), pqM2)
}

func ConvertGamut(rgb hdrcolor.RGB, m emath.Mat3) hdrcolor.RGB {
	v := m.Apply(emath.Vec3{rgb.R, rgb.G, rgb.B})
	return hdrcolor.RGB{R: v[0], G: v[1], B: v[2]}
}

func XYZToSRGB(xyz hdrcolor.XYZ) hdrcolor.RGB {
	rgb := XYZD65_to_linear_sRGBD65.Apply(emath.Vec3{xyz.X, xyz.Y, xyz.Z})
	return hdrcolor.RGB{R: rgb[0], G: rgb[1], B: rgb[2]}
}

// ToScRGB converts an encoded pixel into linear Rec.709 with 1.0 at the
// nominal 80 nit reference white.
func (cp ColorProfile) ToScRGB(c hdrcolor.RGB) hdrcolor.RGB {
	switch cp.effectiveKind() {
	case ProfileLinearSRGB:
		return c

	case ProfileDisplayP3:
		r, g, b := colorful.Color{R: c.R, G: c.G, B: c.B}.LinearRgb()
		return ConvertGamut(hdrcolor.RGB{R: r, G: g, B: b}, P3_to_BT709)

	case ProfileBT2100PQ:
		lin := hdrcolor.RGB{
			R: PQToNits(c.R) / NominalRefWhite,
			G: PQToNits(c.G) / NominalRefWhite,
			B: PQToNits(c.B) / NominalRefWhite,
		}
		return ConvertGamut(lin, BT2020_to_BT709)

	default:
		r, g, b := colorful.Color{R: c.R, G: c.G, B: c.B}.LinearRgb()
		return hdrcolor.RGB{R: r, G: g, B: b}
	}
}

// An ICC blob is only sniffed for a Display P3 description; anything else
// is treated as sRGB.
func (cp ColorProfile) effectiveKind() ProfileKind {
	if cp.Kind != ProfileICC {
		return cp.Kind
	}
	if bytes.Contains(bytes.ToLower(cp.ICC), []byte("display p3")) {
		return ProfileDisplayP3
	}
	return ProfileSRGB
}

// Luminance of a linear Rec.709 color, in the same units as the input.
func Luminance(c hdrcolor.RGB) float64 {
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}
