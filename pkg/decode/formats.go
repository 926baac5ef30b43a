package decode

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrUnknownFormat     = errors.New("unknown image format")
	ErrUnsupportedFormat = errors.New("no decoder for image format")
)

// FormatId identifies an image loading configuration. It is not quite one
// per extension.
type FormatId int

const (
	FormatUnknown FormatId = iota
	FormatJxr
	FormatJpg
	FormatPng
	FormatTif
	FormatHdr
	FormatExr
	FormatDds
	FormatDng
	FormatHeic
	FormatAvif
)

type FormatInfo struct {
	Id          FormatId
	Extension   string // lowercase, with the dot
	Description string

	decode decodeFunc // nil if we can't read it
}

func (fi FormatInfo) String() string { return fmt.Sprintf("%s (%s)", fi.Description, fi.Extension) }

// Supported is false for formats we know about, but have no decoder for.
func (fi FormatInfo) Supported() bool { return fi.decode != nil }

var formats []FormatInfo

func init() {
	formats = []FormatInfo{
		{FormatJxr, ".jxr", "JPEG-XR image", nil},
		{FormatJpg, ".jpg", "JPEG image", loadStdlib},
		{FormatJpg, ".jpeg", "JPEG image", loadStdlib},
		{FormatPng, ".png", "PNG image", loadStdlib},
		{FormatTif, ".tif", "TIFF image", loadTIFF},
		{FormatTif, ".tiff", "TIFF image", loadTIFF},
		{FormatHdr, ".hdr", "HDR Radiance image", loadRGBE},
		{FormatExr, ".exr", "OpenEXR image", loadEXR},
		{FormatDds, ".dds", "DDS image", nil},
		{FormatDng, ".dng", "DNG image", nil},
		{FormatHeic, ".heic", "HEIF image", nil},
		{FormatAvif, ".avif", "AVIF image", nil},
	}
}

func Formats() []FormatInfo { return formats }

func FormatForFilename(filename string) (FormatInfo, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, fi := range formats {
		if fi.Extension == ext {
			return fi, nil
		}
	}
	return FormatInfo{}, fmt.Errorf("%q: %w", ext, ErrUnknownFormat)
}
