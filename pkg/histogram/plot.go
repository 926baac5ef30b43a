package histogram

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/abworrall/hdrview/pkg/ecolor"
)

// Plot saves a bar chart of the bins as a PNG, with the bin that CLL came
// from marked in red. Bar heights are log scaled, or the faint highlights
// would vanish.
func Plot(bins []float64, cfg Config, title, filename string) error {
	if len(bins) == 0 {
		return fmt.Errorf("plot %s: no bins", filename)
	}

	const height = 300
	width := len(bins) * 2
	maxBin, medBin := ecolor.ExtractPercentileLuminance(bins, cfg.Percentile)

	maxVal := 0.0
	for _, v := range bins {
		if v > maxVal {
			maxVal = v
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, v := range bins {
		barCol := color.RGBA{0xC0, 0xC0, 0xC0, 0xFF}
		if i == maxBin {
			barCol = color.RGBA{0xFF, 0x20, 0x20, 0xFF}
		} else if i == medBin {
			barCol = color.RGBA{0x20, 0x80, 0xFF, 0xFF}
		}
		h := barHeight(v, maxVal, height-60)
		for x := i * 2; x < i*2+2; x++ {
			for y := height - h; y < height; y++ {
				img.Set(x, y, barCol)
			}
		}
	}

	cll := ecolor.CLLFromHistogram(bins, cfg.Gamma, cfg.MaxNits, cfg.Percentile)
	dc := gg.NewContextForImage(img)
	dc.SetRGB(1, 1, 1)
	dc.DrawString(title, 10, 20)
	dc.DrawString(cll.String(), 10, 40)
	return dc.SavePNG(filename)
}

// log10 scale over 8 decades
func barHeight(v, maxVal float64, maxHeight int) int {
	if v <= 0 || maxVal <= 0 {
		return 0
	}
	decades := 0.0
	for r := maxVal / v; r >= 10 && decades < 8; r /= 10 {
		decades++
	}
	return int(float64(maxHeight) * (8 - decades) / 8)
}
