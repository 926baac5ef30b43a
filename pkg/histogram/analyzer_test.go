package histogram_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/hdrview/pkg/ecolor"
	"github.com/abworrall/hdrview/pkg/graph"
	"github.com/abworrall/hdrview/pkg/histogram"
	"github.com/abworrall/hdrview/pkg/softhost"
)

var linear = ecolor.ColorProfile{Kind: ecolor.ProfileLinearSRGB}

func hdrInfo() ecolor.ImageInfo {
	return ecolor.ImageInfo{Width: 8, Height: 8, IsFloat: true, Kind: ecolor.HighDynamicRange, Valid: true}
}

// A 8x8 scRGB image where the top rows are at brightNits and the rest at
// SDR white.
func testImage(brightNits float64, brightRows int) *softhost.FloatImage {
	fi := softhost.NewFloatImage(8, 8)
	for y := 0; y < 8; y++ {
		v := 1.0
		if y < brightRows {
			v = brightNits / ecolor.NominalRefWhite
		}
		for x := 0; x < 8; x++ {
			fi.SetRGBA(x, y, v, v, v, 1)
		}
	}
	return fi
}

func newAnalyzer(t *testing.T, caps graph.Capabilities, img *softhost.FloatImage) (*softhost.Host, *histogram.Analyzer) {
	t.Helper()
	h := softhost.NewHost(caps)

	src, err := graph.Create(h, graph.NodeSource)
	require.NoError(t, err)
	require.NoError(t, graph.Set(h, src, graph.Prop(graph.PropSourceImage, img)))

	cm, err := graph.Create(h, graph.NodeColorManagement)
	require.NoError(t, err)
	require.NoError(t, graph.Connect(h, cm, 0, src))
	require.NoError(t, graph.Set(h, cm,
		graph.Prop(graph.PropSourceProfile, linear),
		graph.Prop(graph.PropDestinationProfile, linear)))

	a := histogram.NewAnalyzer(h, h, histogram.DefaultConfig())
	require.NoError(t, a.Build(cm, false))
	return h, a
}

func TestAnalyzeMatchesReference(t *testing.T) {
	img := testImage(1000, 8)
	_, a := newAnalyzer(t, graph.Capabilities{Compute: true}, img)
	require.True(t, a.Supported())

	cll, err := a.Analyze(hdrInfo())
	require.NoError(t, err)
	assert.Len(t, a.LastBins, ecolor.HistogramNumBins)

	ref := softhost.ReferenceCLL(img, linear, ecolor.MaxCLLPercentile)
	assert.InEpsilon(t, ref.MaxNits, cll.MaxNits, 0.05)
	assert.InEpsilon(t, 1000.0, cll.MaxNits, 0.05)
}

func TestAnalyzeMixed(t *testing.T) {
	// Only 1/4 of the image is bright, but that is well past the percentile
	_, a := newAnalyzer(t, graph.Capabilities{Compute: true}, testImage(2000, 2))
	cll, err := a.Analyze(hdrInfo())
	require.NoError(t, err)
	assert.InEpsilon(t, 2000.0, cll.MaxNits, 0.05)
	assert.InEpsilon(t, ecolor.NominalRefWhite, cll.MedNits, 0.1)
}

func TestAnalyzeOnlyHDR(t *testing.T) {
	_, a := newAnalyzer(t, graph.Capabilities{Compute: true}, testImage(1000, 8))

	info := hdrInfo()
	info.Kind = ecolor.WideColorGamut
	cll, err := a.Analyze(info)
	require.NoError(t, err)
	assert.Equal(t, ecolor.UnknownCLL, cll)
	assert.Nil(t, a.LastBins, "nothing was rendered")
}

func TestAnalyzeNoCompute(t *testing.T) {
	_, a := newAnalyzer(t, graph.Capabilities{PlatformTonemap: true}, testImage(1000, 8))
	assert.False(t, a.Supported())

	cll, err := a.Analyze(hdrInfo())
	require.NoError(t, err)
	assert.Equal(t, ecolor.UnknownCLL, cll)
}

func TestAnalyzeBlack(t *testing.T) {
	_, a := newAnalyzer(t, graph.Capabilities{Compute: true}, softhost.NewFloatImage(8, 8))
	cll, err := a.Analyze(hdrInfo())
	require.NoError(t, err)
	assert.Equal(t, ecolor.UnknownCLL, cll)
}

func TestRelease(t *testing.T) {
	h, a := newAnalyzer(t, graph.Capabilities{Compute: true}, testImage(1000, 8))
	assert.Equal(t, 6, h.NumNodes())

	a.Release()
	assert.Equal(t, 2, h.NumNodes())
	assert.False(t, a.Supported())

	cll, err := a.Analyze(hdrInfo())
	require.NoError(t, err)
	assert.Equal(t, ecolor.UnknownCLL, cll)
}

func TestPlot(t *testing.T) {
	_, a := newAnalyzer(t, graph.Capabilities{Compute: true}, testImage(1000, 2))
	_, err := a.Analyze(hdrInfo())
	require.NoError(t, err)

	filename := filepath.Join(t.TempDir(), "hist.png")
	require.NoError(t, histogram.Plot(a.LastBins, a.Config, "test", filename))
	st, err := os.Stat(filename)
	require.NoError(t, err)
	assert.True(t, st.Size() > 0)

	assert.Error(t, histogram.Plot(nil, a.Config, "empty", filename))
}
