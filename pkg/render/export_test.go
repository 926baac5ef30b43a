package render_test

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/abworrall/hdrview/pkg/ecolor"
	"github.com/abworrall/hdrview/pkg/graph"
	"github.com/abworrall/hdrview/pkg/render"
	"github.com/abworrall/hdrview/pkg/softhost"
)

func TestParseExportFormat(t *testing.T) {
	tests := []struct {
		in   string
		want render.ExportFormat
	}{
		{"png", render.ExportPNG},
		{".PNG", render.ExportPNG},
		{"jpg", render.ExportJPEG},
		{".jpeg", render.ExportJPEG},
		{".tif", render.ExportTIFF},
		{"TIFF", render.ExportTIFF},
	}
	for _, tc := range tests {
		got, err := render.ParseExportFormat(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", ".bmp", "exr"} {
		_, err := render.ParseExportFormat(bad)
		assert.ErrorIs(t, err, render.ErrInvalidArgument, bad)
	}
}

func TestExportSdrImage(t *testing.T) {
	dev, o := loaded(t, 16, 16, allCaps, nil, sdrImage(12, 10, 0.5))
	nodes := dev.SoftHost().NumNodes()
	v := o.View()

	var buf bytes.Buffer
	require.NoError(t, o.ExportSdr(&buf, render.ExportPNG))
	assert.Equal(t, nodes, dev.SoftHost().NumNodes(), "export nodes are released")
	assert.Equal(t, v, o.View())

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 12, 10), img.Bounds())

	// SDR content comes out as it went in
	r, _, _, a := img.At(5, 5).RGBA()
	assert.InDelta(t, 128, int(r>>8), 1)
	assert.Equal(t, uint32(0xffff), a)
}

func TestExportHdrImage(t *testing.T) {
	for _, caps := range []graph.Capabilities{allCaps, {Compute: true}} {
		_, o := loaded(t, 16, 16, caps, hdrDisplay(), hdrImage(8, 8, 1000))

		var buf bytes.Buffer
		require.NoError(t, o.ExportSdr(&buf, render.ExportPNG))
		img, err := png.Decode(&buf)
		require.NoError(t, err)

		// The peak is tonemapped to SDR white, not clipped from far above it
		r, _, _, _ := img.At(3, 3).RGBA()
		assert.True(t, r>>8 >= 250, "caps %+v, got %d", caps, r>>8)
	}
}

func TestExportFormats(t *testing.T) {
	_, o := loaded(t, 16, 16, allCaps, nil, sdrImage(6, 4, 0.25))

	var buf bytes.Buffer
	require.NoError(t, o.ExportSdr(&buf, render.ExportJPEG))
	img, err := jpeg.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 6, img.Bounds().Dx())

	buf.Reset()
	require.NoError(t, o.ExportSdr(&buf, render.ExportTIFF))
	img, err = tiff.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dy())

	assert.Error(t, o.ExportSdr(&buf, render.ExportFormat(7)))
}

func TestExportSdrFile(t *testing.T) {
	_, o := loaded(t, 16, 16, allCaps, nil, sdrImage(6, 4, 0.25))
	dir := t.TempDir()

	filename := filepath.Join(dir, "out.png")
	require.NoError(t, o.ExportSdrFile(filename))
	f, err := os.Open(filename)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Width)

	assert.ErrorIs(t, o.ExportSdrFile(""), render.ErrInvalidArgument)
	assert.ErrorIs(t, o.ExportSdrFile(filepath.Join(dir, "out.bmp")), render.ErrInvalidArgument)
	assert.Error(t, o.ExportSdrFile(filepath.Join(dir, "missing", "out.png")))
}

func TestExportErrors(t *testing.T) {
	_, o := newOrchestrator(t, 16, 16, allCaps, nil)
	var buf bytes.Buffer
	assert.ErrorIs(t, o.ExportSdr(&buf, render.ExportPNG), render.ErrWrongState)
	assert.ErrorIs(t, o.ExportSdr(nil, render.ExportPNG), render.ErrInvalidArgument)
}

func TestExportMaxSize(t *testing.T) {
	cfg := render.NewConfig()
	cfg.ExportMaxWidth = 8

	dev := softhost.NewDevice(16, 16, allCaps)
	o, err := render.NewOrchestrator(cfg, dev)
	require.NoError(t, err)
	_, err = o.Load(decoded(sdrImage(32, 16, 0.5)))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, o.ExportSdr(&buf, render.ExportPNG))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 4), img.Bounds())
}

// A horizontal ramp, so the global operators have some range to work with.
func rampImage(w, h int, maxNits float64) render.Image {
	img := hdrImage(w, h, 1)
	fi := img.Pixels.(*softhost.FloatImage)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := (float64(x) + 1) / float64(w) * maxNits / ecolor.NominalRefWhite
			fi.SetRGBA(x, y, v, v, v, 1)
		}
	}
	return img
}

func TestExportWithTonemapper(t *testing.T) {
	for _, name := range []string{"linear", "reinhard05"} {
		cfg := render.NewConfig()
		cfg.ExportTonemapper = name

		o, err := render.NewOrchestrator(cfg, softhost.NewDevice(16, 16, allCaps))
		require.NoError(t, err)
		_, err = o.Load(decoded(rampImage(16, 8, 2000)))
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, o.ExportSdr(&buf, render.ExportPNG), name)
		img, err := png.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 16, 8), img.Bounds(), name)
	}

	cfg := render.NewConfig()
	cfg.ExportTonemapper = "bogus"
	o, err := render.NewOrchestrator(cfg, softhost.NewDevice(16, 16, allCaps))
	require.NoError(t, err)
	_, err = o.Load(decoded(rampImage(16, 8, 2000)))
	require.NoError(t, err)
	var buf bytes.Buffer
	assert.ErrorIs(t, o.ExportSdr(&buf, render.ExportPNG), render.ErrInvalidArgument)
	assert.Equal(t, render.Ready, o.State(), "a bad operator is not a device failure")
}

func TestGetTonemapper(t *testing.T) {
	img := rampImage(4, 4, 1000).Pixels
	for _, name := range render.Tonemappers {
		op, err := render.GetTonemapper(name, img)
		require.NoError(t, err, name)
		assert.NotNil(t, op, name)
	}
	_, err := render.GetTonemapper("aces", img)
	assert.ErrorIs(t, err, render.ErrInvalidArgument)
}

func TestExportSdrFileRejected(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "keep.png")
	require.NoError(t, os.WriteFile(filename, []byte("keep"), 0644))
	unchanged := func() {
		b, err := os.ReadFile(filename)
		require.NoError(t, err)
		assert.Equal(t, "keep", string(b))
	}

	_, o := newOrchestrator(t, 16, 16, allCaps, nil)
	assert.ErrorIs(t, o.ExportSdrFile(filename), render.ErrWrongState)
	unchanged()

	_, err := o.Load(decoded(sdrImage(6, 4, 0.25)))
	require.NoError(t, err)
	var busyErr error
	_, err = o.Load(func() (render.Image, error) {
		busyErr = o.ExportSdrFile(filename)
		return sdrImage(6, 4, 0.25), nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, busyErr, render.ErrBusy)
	unchanged()
}
