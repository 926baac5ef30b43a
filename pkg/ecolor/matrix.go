package ecolor

import "fmt"

// Matrix5x4 is a color matrix in row vector form: [r g b a 1] x M gives
// [r' g' b' a']. Rows 0-3 are the channel weights, row 4 is the offset.
type Matrix5x4 [20]float64

func (m Matrix5x4) Apply(r, g, b, a float64) (float64, float64, float64, float64) {
	in := [5]float64{r, g, b, a, 1}
	var out [4]float64
	for col := 0; col < 4; col++ {
		for row := 0; row < 5; row++ {
			out[col] += in[row] * m[row*4+col]
		}
	}
	return out[0], out[1], out[2], out[3]
}

// ScaleMatrix multiplies each color channel, leaving alpha alone.
func ScaleMatrix(scale float64) Matrix5x4 {
	return Matrix5x4{
		scale, 0, 0, 0,
		0, scale, 0, 0,
		0, 0, scale, 0,
		0, 0, 0, 1,
		0, 0, 0, 0,
	}
}

// LuminanceMatrix writes Y/scale into the red channel, and passes alpha.
// Green and blue come out as zero.
func LuminanceMatrix(scale float64) Matrix5x4 {
	return Matrix5x4{
		0.2126 / scale, 0, 0, 0,
		0.7152 / scale, 0, 0, 0,
		0.0722 / scale, 0, 0, 0,
		0, 0, 0, 1,
		0, 0, 0, 0,
	}
}

// HistogramNormalizeScale is the divisor that takes scRGB luminance into
// the [0,1] range the histogram wants.
func HistogramNormalizeScale(maxNits float64, legacyHdr10 bool) float64 {
	scale := maxNits / NominalRefWhite
	if legacyHdr10 {
		scale /= LegacyHdr10Correction
	}
	return scale
}

func (m Matrix5x4) String() string {
	str := ""
	for row := 0; row < 5; row++ {
		str += fmt.Sprintf("[%8.4f %8.4f %8.4f %8.4f]\n", m[row*4], m[row*4+1], m[row*4+2], m[row*4+3])
	}
	return str
}
