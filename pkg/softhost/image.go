package softhost

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"math"
	"os"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/abworrall/hdrview/pkg/ecolor"
)

// FloatImage is a linear, floating point RGBA image. It implements
// image.Image and hdr.Image.
type FloatImage struct {
	Rect image.Rectangle
	Pix  []float64 // 4 values per pixel, row major

	wrapX, wrapY bool // how Sample treats coords outside Rect
}

func NewFloatImage(w, h int) *FloatImage {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &FloatImage{
		Rect: image.Rect(0, 0, w, h),
		Pix:  make([]float64, w*h*4),
	}
}

// FromHDR copies any hdr.Image into a FloatImage, rebased to (0,0).
func FromHDR(src hdr.Image) *FloatImage {
	b := src.Bounds()
	fi := NewFloatImage(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, a := src.HDRAt(x+b.Min.X, y+b.Min.Y).HDRRGBA()
			if a == 0 {
				a = 1
			}
			fi.SetRGBA(x, y, r, g, bl, a)
		}
	}
	return fi
}

// Implement image.Image
func (fi *FloatImage) ColorModel() color.Model { return hdrcolor.RGBModel }
func (fi *FloatImage) Bounds() image.Rectangle { return fi.Rect }
func (fi *FloatImage) At(x, y int) color.Color { return fi.HDRAt(x, y) }

// Implement hdr.Image
func (fi *FloatImage) HDRAt(x, y int) hdrcolor.Color {
	r, g, b, _ := fi.RGBA(x, y)
	return hdrcolor.RGB{R: r, G: g, B: b}
}
func (fi *FloatImage) Size() int { return fi.Rect.Dx() * fi.Rect.Dy() }

func (fi *FloatImage) offset(x, y int) int {
	return ((y-fi.Rect.Min.Y)*fi.Rect.Dx() + (x - fi.Rect.Min.X)) * 4
}

func (fi *FloatImage) RGBA(x, y int) (r, g, b, a float64) {
	if !(image.Point{x, y}.In(fi.Rect)) {
		return 0, 0, 0, 0
	}
	i := fi.offset(x, y)
	return fi.Pix[i], fi.Pix[i+1], fi.Pix[i+2], fi.Pix[i+3]
}

func (fi *FloatImage) SetRGBA(x, y int, r, g, b, a float64) {
	if !(image.Point{x, y}.In(fi.Rect)) {
		return
	}
	i := fi.offset(x, y)
	fi.Pix[i], fi.Pix[i+1], fi.Pix[i+2], fi.Pix[i+3] = r, g, b, a
}

// Sample reads a pixel, honoring the image's edge mode: wrapped axes
// repeat the image, the others clamp to the edge.
func (fi *FloatImage) Sample(x, y int) (r, g, b, a float64) {
	w, h := fi.Rect.Dx(), fi.Rect.Dy()
	if w == 0 || h == 0 {
		return 0, 0, 0, 0
	}
	x, y = x-fi.Rect.Min.X, y-fi.Rect.Min.Y
	x = edge(x, w, fi.wrapX)
	y = edge(y, h, fi.wrapY)
	return fi.RGBA(x+fi.Rect.Min.X, y+fi.Rect.Min.Y)
}

func edge(v, n int, wrap bool) int {
	if wrap {
		v %= n
		if v < 0 {
			v += n
		}
		return v
	}
	if v < 0 {
		return 0
	} else if v >= n {
		return n - 1
	}
	return v
}

func (fi *FloatImage) Copy() *FloatImage {
	c := *fi
	c.Pix = append([]float64(nil), fi.Pix...)
	return &c
}

func (fi *FloatImage) String() string {
	return fmt.Sprintf("FloatImage %s", fi.Rect)
}

// Resample returns a nearest-neighbour copy of the image at the given scale.
func (fi *FloatImage) Resample(scale float64) *FloatImage {
	if scale == 1 {
		return fi.Copy()
	}
	w := int(math.Round(float64(fi.Rect.Dx()) * scale))
	h := int(math.Round(float64(fi.Rect.Dy()) * scale))
	out := NewFloatImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx := fi.Rect.Min.X + int(float64(x)/scale)
			sy := fi.Rect.Min.Y + int(float64(y)/scale)
			r, g, b, a := fi.Sample(sx, sy)
			out.SetRGBA(x, y, r, g, b, a)
		}
	}
	return out
}

// ToSRGB8 clamps to [0,1] and gamma encodes, for writing SDR files.
func (fi *FloatImage) ToSRGB8() *image.NRGBA { return ecolor.EncodeSRGB8(fi) }

// WriteToHDR outputs a Radiance RGBE file, in scRGB units.
func (fi *FloatImage) WriteToHDR(filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("FloatImage.WriteToHDR, open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		err := rgbe.Encode(writer, fi)
		if err != nil {
			log.Printf("FloatImage.WriteToHDR, encoding RGBE file: %v\n", err)
		}
		return err
	}
}

func (fi *FloatImage) WritePNG(filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		return png.Encode(writer, fi.ToSRGB8())
	}
}
