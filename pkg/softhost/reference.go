package softhost

import (
	"github.com/codahale/hdrhistogram"
	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/abworrall/hdrview/pkg/ecolor"
)

// ReferenceCLL measures an image's content light level directly from its
// pixels, without the binning and gamma warp that the histogram node does.
// It is a cross check for the histogram analysis.
func ReferenceCLL(img hdr.Image, profile ecolor.ColorProfile, percentile float64) ecolor.ImageCLL {
	const unitsPerNit = 10
	h := hdrhistogram.New(1, int64(ecolor.HistogramMaxNits*unitsPerNit), 3)

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.HDRAt(x, y).HDRRGBA()
			lin := profile.ToScRGB(hdrcolor.RGB{R: r, G: g, B: bl})
			nits := ecolor.Luminance(lin) * ecolor.NominalRefWhite
			v := int64(nits * unitsPerNit)
			if v < 0 {
				v = 0
			} else if v > h.HighestTrackableValue() {
				v = h.HighestTrackableValue()
			}
			h.RecordValue(v)
		}
	}

	if h.TotalCount() == 0 || h.Max() == 0 {
		return ecolor.UnknownCLL
	}
	return ecolor.ImageCLL{
		MaxNits: float64(h.ValueAtQuantile(percentile*100)) / unitsPerNit,
		MedNits: float64(h.ValueAtQuantile(50)) / unitsPerNit,
	}
}
