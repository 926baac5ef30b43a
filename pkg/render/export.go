package render

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	"golang.org/x/image/tiff"

	"github.com/abworrall/hdrview/pkg/ecolor"
	"github.com/abworrall/hdrview/pkg/graph"
)

type ExportFormat int

const (
	ExportPNG ExportFormat = iota
	ExportJPEG
	ExportTIFF
)

func (f ExportFormat) String() string {
	switch f {
	case ExportPNG:
		return "png"
	case ExportJPEG:
		return "jpeg"
	case ExportTIFF:
		return "tiff"
	default:
		return fmt.Sprintf("ExportFormat(%d)", int(f))
	}
}

// ParseExportFormat takes a format name or file extension.
func ParseExportFormat(name string) (ExportFormat, error) {
	switch strings.TrimPrefix(strings.ToLower(name), ".") {
	case "png":
		return ExportPNG, nil
	case "jpg", "jpeg":
		return ExportJPEG, nil
	case "tif", "tiff":
		return ExportTIFF, nil
	}
	return 0, fmt.Errorf("export format %q: %w", name, ErrInvalidArgument)
}

// ExportSdrFile exports to a file, picking the format from its extension.
// The file is only created once the export can go ahead.
func (o *Orchestrator) ExportSdrFile(filename string) (err error) {
	if filename == "" {
		return fmt.Errorf("export: empty filename: %w", ErrInvalidArgument)
	}
	format, err := ParseExportFormat(filepath.Ext(filename))
	if err != nil {
		return err
	}
	if err := o.canExport(); err != nil {
		return err
	}

	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	}
	defer func() {
		if cerr := writer.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close '%s': %v", filename, cerr)
		}
	}()

	return o.ExportSdr(writer, format)
}

func (o *Orchestrator) canExport() error {
	if o.state != Ready {
		return fmt.Errorf("export in state %s: %w", o.state, ErrWrongState)
	}
	return o.idle()
}

// ExportSdr renders the whole image at 1:1, tonemapped for a plain SDR
// display, and encodes it. It builds its own nodes; the live render graph
// and view are not touched.
func (o *Orchestrator) ExportSdr(w io.Writer, format ExportFormat) error {
	if w == nil {
		return fmt.Errorf("export: no writer: %w", ErrInvalidArgument)
	}
	if err := o.canExport(); err != nil {
		return err
	}
	if err := o.begin(); err != nil {
		return err
	}
	defer o.end()

	img, err := o.renderSdr()
	if err != nil {
		return o.fail(fmt.Errorf("export: %w", err))
	}
	img = o.limitSize(img)

	if o.Verbosity > 0 {
		log.Printf("render: exporting %s as %s", img.Bounds(), format)
	}

	switch format {
	case ExportPNG:
		return png.Encode(w, img)
	case ExportJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case ExportTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("export format %s: %w", format, graph.ErrNotImplemented)
}

//   source(1.0) > colorManagement > tonemap(SDR) > whiteScale
//
// or, with ExportTonemapper set, a tmo operator run over the color managed
// image.
func (o *Orchestrator) renderSdr() (image.Image, error) {
	host := o.dev.Host()
	nodes := []graph.Node{}
	defer func() { graph.Release(host, nodes...) }()

	add := func(kind graph.NodeKind, input graph.Node, props ...graph.Property) (graph.Node, error) {
		n, err := graph.Create(host, kind)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
		if input != nil {
			if err := graph.Connect(host, n, 0, input); err != nil {
				return nil, err
			}
		}
		return n, graph.Set(host, n, props...)
	}

	src, err := add(graph.NodeSource, nil,
		graph.Prop(graph.PropSourceImage, o.img.Pixels),
		graph.Prop(graph.PropSourceScale, 1.0))
	if err != nil {
		return nil, err
	}
	cm, err := add(graph.NodeColorManagement, src,
		graph.Prop(graph.PropSourceProfile, o.img.Profile),
		graph.Prop(graph.PropDestinationProfile, ecolor.ColorProfile{Kind: ecolor.ProfileLinearSRGB}))
	if err != nil {
		return nil, err
	}

	if o.ExportTonemapper != "" {
		lin, err := o.dev.Readback(cm)
		if err != nil {
			return nil, err
		}
		op, err := GetTonemapper(o.ExportTonemapper, lin)
		if err != nil {
			return nil, err
		}
		log.Printf("render: tonemapping export with %s", o.ExportTonemapper)
		return op.Perform(), nil
	}

	kind := graph.NodeCustomTonemap
	if host.QueryCapability(graph.FeaturePlatformTonemap) {
		kind = graph.NodeHdrTonemap
	}

	// SDR content already fits, and only needs the tonemapper to be a no-op
	target := ecolor.TonemapTarget{
		InputMaxNits:  ecolor.DefaultSdrDisplayMaxNits,
		OutputMaxNits: ecolor.DefaultSdrDisplayMaxNits,
		Mode:          ecolor.TonemapSDR,
	}
	if o.img.Info.Kind == ecolor.HighDynamicRange {
		target = ecolor.SelectTonemapTarget(ecolor.DefaultSdrDisplayMaxNits, false, o.cll.MaxNits, 1)
	}

	tm, err := add(kind, cm,
		graph.Prop(graph.PropInputMaxLuminance, target.InputMaxNits),
		graph.Prop(graph.PropOutputMaxLuminance, target.OutputMaxNits),
		graph.Prop(graph.PropDisplayMode, target.Mode))
	if err != nil {
		return nil, err
	}
	ws, err := add(graph.NodeColorMatrix, tm,
		graph.Prop(graph.PropColorMatrix, ecolor.ScaleMatrix(ecolor.NominalRefWhite/ecolor.DefaultSdrDisplayMaxNits)))
	if err != nil {
		return nil, err
	}

	out, err := o.dev.Readback(ws)
	if err != nil {
		return nil, err
	}
	return ecolor.EncodeSRGB8(out), nil
}

func (o *Orchestrator) limitSize(img image.Image) image.Image {
	if o.ExportMaxWidth <= 0 && o.ExportMaxHeight <= 0 {
		return img
	}
	b := img.Bounds()
	w, h := o.ExportMaxWidth, o.ExportMaxHeight
	if w <= 0 {
		w = b.Dx()
	}
	if h <= 0 {
		h = b.Dy()
	}
	return resize.Thumbnail(uint(w), uint(h), img, resize.Lanczos3)
}
