package ecolor

import (
	"image"
	"image/color"
	"math"

	"github.com/mdouchement/hdr"

	"github.com/abworrall/hdrview/pkg/emath"
)

// EncodeSRGB8 turns display referred linear light (1.0 == display white)
// into an 8-bit sRGB image. Out of range values clip.
func EncodeSRGB8(img hdr.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := img.HDRAt(x+b.Min.X, y+b.Min.Y).HDRRGBA()
			v := emath.GammaExpand_sRGB(emath.Vec3{emath.Clamp01(r), emath.Clamp01(g), emath.Clamp01(bl)})
			out.SetNRGBA(x, y, color.NRGBA{
				R: uint8(math.Round(v[0] * 255)),
				G: uint8(math.Round(v[1] * 255)),
				B: uint8(math.Round(v[2] * 255)),
				A: 255,
			})
		}
	}
	return out
}
