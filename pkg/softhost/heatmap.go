package softhost

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/abworrall/hdrview/pkg/ecolor"
)

// Luminance stops for the heatmap, in nits. Colors between stops are
// blended in Lab, on a log scale.
var heatmapStops = []struct {
	nits float64
	col  colorful.Color
}{
	{0.01, colorful.Color{R: 0, G: 0, B: 0}},
	{10, colorful.Color{R: 0, G: 0, B: 1}},
	{40, colorful.Color{R: 0, G: 1, B: 1}},
	{80, colorful.Color{R: 0, G: 1, B: 0}},
	{200, colorful.Color{R: 1, G: 1, B: 0}},
	{600, colorful.Color{R: 1, G: 0.5, B: 0}},
	{1200, colorful.Color{R: 1, G: 0, B: 0}},
	{4000, colorful.Color{R: 1, G: 0, B: 1}},
	{10000, colorful.Color{R: 1, G: 1, B: 1}},
}

// HeatmapColor maps a luminance to its (sRGB encoded) heatmap color.
func HeatmapColor(nits float64) colorful.Color {
	first, last := heatmapStops[0], heatmapStops[len(heatmapStops)-1]
	if nits <= first.nits {
		return first.col
	}
	if nits >= last.nits {
		return last.col
	}
	for i := 1; i < len(heatmapStops); i++ {
		lo, hi := heatmapStops[i-1], heatmapStops[i]
		if nits <= hi.nits {
			t := (math.Log10(nits) - math.Log10(lo.nits)) / (math.Log10(hi.nits) - math.Log10(lo.nits))
			return lo.col.BlendLab(hi.col, t).Clamped()
		}
	}
	return last.col
}

// The heatmap is drawn at SDR white (scRGB 1.0), so the white scale that
// follows it sets its brightness.
func heatmap(r, g, b, a float64) (float64, float64, float64, float64) {
	nits := ecolor.Luminance(hdrcolor.RGB{R: r, G: g, B: b}) * ecolor.NominalRefWhite
	lr, lg, lb := HeatmapColor(nits).LinearRgb()
	return lr, lg, lb, a
}
