package decode

// Turns image files into what the renderer wants: an ImageInfo, the pixels
// as an hdr.Image, and the color profile they are encoded in. Integer
// formats keep their encoded values, scaled to [0,1]; float formats are
// linear scRGB.

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"
	"github.com/mrjoshuak/go-openexr/exr"
	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/tiff"

	"github.com/abworrall/hdrview/pkg/ecolor"
	"github.com/abworrall/hdrview/pkg/render"
)

type decodeFunc func(filename string) (render.Image, error)

var Verbosity int

// File decodes an image file, picking the decoder by extension.
func File(filename string) (render.Image, error) {
	fi, err := FormatForFilename(filename)
	if err != nil {
		return render.Image{}, fmt.Errorf("load %s: %w", filename, err)
	} else if !fi.Supported() {
		return render.Image{}, fmt.Errorf("load %s: %s: %w", filename, fi.Description, ErrUnsupportedFormat)
	}

	img, err := fi.decode(filename)
	if err != nil {
		return render.Image{}, fmt.Errorf("load %s: %w", filename, err)
	}
	if Verbosity > 0 {
		log.Printf("decode: %s as %s: %s, profile %s", filename, fi.Description, img.Info, img.Profile)
	}
	return img, nil
}

// Classify is how the renderer treats an image: anything float is HDR,
// anything deeper than 8 bits is wide gamut.
func Classify(bitsPerChannel int, isFloat bool, profile ecolor.ColorProfile) ecolor.AdvancedColorKind {
	switch {
	case isFloat || profile.Kind == ecolor.ProfileBT2100PQ:
		return ecolor.HighDynamicRange
	case bitsPerChannel > 8 || profile.Kind == ecolor.ProfileDisplayP3:
		return ecolor.WideColorGamut
	default:
		return ecolor.StandardDynamicRange
	}
}

func newInfo(b image.Rectangle, bpc, channels int, isFloat bool, profile ecolor.ColorProfile) ecolor.ImageInfo {
	return ecolor.ImageInfo{
		Width:          b.Dx(),
		Height:         b.Dy(),
		BitsPerChannel: bpc,
		BitsPerPixel:   bpc * channels,
		IsFloat:        isFloat,
		Kind:           Classify(bpc, isFloat, profile),
		Valid:          b.Dx() > 0 && b.Dy() > 0,
	}
}

func loadRGBE(filename string) (render.Image, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return render.Image{}, fmt.Errorf("open+r '%s': %v", filename, err)
	}
	defer reader.Close()

	m, err := rgbe.Decode(reader)
	if err != nil {
		return render.Image{}, fmt.Errorf("rgbe decoding '%s': %v", filename, err)
	}
	pix, ok := m.(hdr.Image)
	if !ok {
		return render.Image{}, fmt.Errorf("rgbe decoding '%s': got a %T", filename, m)
	}

	// Radiance files share an 8-bit exponent between three 8-bit mantissas
	profile := ecolor.ColorProfile{Kind: ecolor.ProfileLinearSRGB}
	info := newInfo(pix.Bounds(), 8, 4, true, profile)
	return render.Image{Info: info, Pixels: pix, Profile: profile}, nil
}

func loadEXR(filename string) (render.Image, error) {
	f, err := exr.OpenFile(filename)
	if err != nil {
		return render.Image{}, fmt.Errorf("exr open '%s': %v", filename, err)
	}
	defer f.Close()

	rgba, err := exr.NewRGBAInputFile(f)
	if err != nil {
		return render.Image{}, fmt.Errorf("exr rgba '%s': %v", filename, err)
	}
	src, err := rgba.ReadRGBA()
	if err != nil {
		return render.Image{}, fmt.Errorf("exr reading '%s': %v", filename, err)
	}

	w, h := src.Rect.Dx(), src.Rect.Dy()
	pix := hdr.NewRGB(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := src.RGBA(x, y)
			pix.Set(x, y, hdrcolor.RGB{R: float64(r), G: float64(g), B: float64(b)})
		}
	}

	profile := ecolor.ColorProfile{Kind: ecolor.ProfileLinearSRGB}
	info := newInfo(pix.Bounds(), 16, 4, true, profile)
	return render.Image{Info: info, Pixels: pix, Profile: profile}, nil
}

func loadTIFF(filename string) (render.Image, error) {
	profile := exifProfile(filename)

	reader, err := os.Open(filename)
	if err != nil {
		return render.Image{}, fmt.Errorf("open+r img '%s': %v", filename, err)
	}
	defer reader.Close()

	m, err := tiff.Decode(reader)
	if err != nil {
		return render.Image{}, fmt.Errorf("tiff loading '%s': %v", filename, err)
	}
	return fromStdlib(m, profile), nil
}

// loadStdlib handles PNG and JPEG, via the registered image decoders.
func loadStdlib(filename string) (render.Image, error) {
	profile := exifProfile(filename)

	reader, err := os.Open(filename)
	if err != nil {
		return render.Image{}, fmt.Errorf("open+r img '%s': %v", filename, err)
	}
	defer reader.Close()

	m, format, err := image.Decode(reader)
	if err != nil {
		return render.Image{}, fmt.Errorf("image loading '%s': %v", filename, err)
	}
	if Verbosity > 1 {
		log.Printf("decode: %s decoded by image/%s as %T", filename, format, m)
	}
	return fromStdlib(m, profile), nil
}

// fromStdlib copies an integer image into floats, without touching its
// encoding.
func fromStdlib(m image.Image, profile ecolor.ColorProfile) render.Image {
	b := m.Bounds()
	pix := hdr.NewRGB(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := m.At(x+b.Min.X, y+b.Min.Y).RGBA()
			pix.Set(x, y, hdrcolor.RGB{
				R: float64(r) / 0xffff,
				G: float64(g) / 0xffff,
				B: float64(bl) / 0xffff,
			})
		}
	}

	bpc, channels := bitDepth(m)
	return render.Image{
		Info:    newInfo(b, bpc, channels, false, profile),
		Pixels:  pix,
		Profile: profile,
	}
}

func bitDepth(m image.Image) (bpc, channels int) {
	switch m.(type) {
	case *image.RGBA64, *image.NRGBA64:
		return 16, 4
	case *image.Gray16:
		return 16, 1
	case *image.Gray:
		return 8, 1
	case *image.YCbCr, *image.CMYK:
		return 8, 3
	default:
		return 8, 4
	}
}

// exifProfile picks a color space from the EXIF ColorSpace tag. It is 1
// for sRGB, and 0xFFFF (uncalibrated) for wider spaces; phones use the
// latter for Display P3. No EXIF at all means sRGB.
func exifProfile(filename string) ecolor.ColorProfile {
	profile := ecolor.ColorProfile{Kind: ecolor.ProfileSRGB}

	reader, err := os.Open(filename)
	if err != nil {
		return profile
	}
	defer reader.Close()

	ex, err := exif.Decode(reader)
	if err != nil {
		return profile
	}
	if tag, err := ex.Get(exif.ColorSpace); err != nil {
		return profile
	} else if val, err := tag.Int64(0); err != nil {
		return profile
	} else if val == 0xFFFF {
		profile.Kind = ecolor.ProfileDisplayP3
	}
	return profile
}
