package ecolor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeWhiteLevelScale(t *testing.T) {
	for _, b := range []float64{0.25, 1, 2.5} {
		for _, w := range []float64{80, 200, 310} {
			assert.InDelta(t, w/NominalRefWhite*b, ComputeWhiteLevelScale(StandardDynamicRange, w, b, false), 1e-12)
			assert.InDelta(t, w/NominalRefWhite*b, ComputeWhiteLevelScale(WideColorGamut, w, b, false), 1e-12)
			assert.InDelta(t, b, ComputeWhiteLevelScale(HighDynamicRange, w, b, false), 1e-12)
		}
	}

	assert.InDelta(t, 125.0*2, ComputeWhiteLevelScale(HighDynamicRange, 240, 2, true), 1e-9)
}

func TestBestDisplayMaxLuminance(t *testing.T) {
	assert.Equal(t, 600.0, BestDisplayMaxLuminance(DisplayInfo{Kind: HighDynamicRange, MaxLuminance: 600}))
	assert.Equal(t, DefaultHdrDisplayMaxNits, BestDisplayMaxLuminance(DisplayInfo{Kind: HighDynamicRange}))
	assert.Equal(t, DefaultSdrDisplayMaxNits, BestDisplayMaxLuminance(DisplayInfo{Kind: WideColorGamut}))
	assert.Equal(t, DefaultSdrDisplayMaxNits, BestDisplayMaxLuminance(DefaultDisplayInfo()))
}

func TestSelectTonemapTarget(t *testing.T) {
	tests := []struct {
		name       string
		dispMax    float64
		dispHdr    bool
		cll        float64
		brightness float64
		want       TonemapTarget
	}{
		{"hdr display, bright image", 1000, true, 4000, 1, TonemapTarget{4000, 1000, TonemapHDR}},
		{"hdr display unreported", 0, true, 2000, 1, TonemapTarget{2000, 1499, TonemapHDR}},
		{"sdr display unreported", 0, false, 2000, 1, TonemapTarget{2000, 80, TonemapSDR}},
		{"unknown cll uses default", 600, true, -1, 1, TonemapTarget{4000, 600, TonemapHDR}},
		{"brightness scales input", 600, true, 1000, 2, TonemapTarget{2000, 600, TonemapHDR}},
		{"dim image floored", 1000, true, 100, 1, TonemapTarget{500, 1000, TonemapHDR}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectTonemapTarget(tt.dispMax, tt.dispHdr, tt.cll, tt.brightness)
			assert.InDelta(t, tt.want.InputMaxNits, got.InputMaxNits, 1e-9)
			assert.InDelta(t, tt.want.OutputMaxNits, got.OutputMaxNits, 1e-9)
			assert.Equal(t, tt.want.Mode, got.Mode)
		})
	}
}

func TestExtractPercentileLuminance(t *testing.T) {
	bins := make([]float64, HistogramNumBins)
	bins[0] = 1
	maxBin, medBin := ExtractPercentileLuminance(bins, MaxCLLPercentile)
	assert.Equal(t, 0, maxBin)
	assert.Equal(t, 0, medBin)

	bins = make([]float64, HistogramNumBins)
	bins[HistogramNumBins-1] = 1
	maxBin, medBin = ExtractPercentileLuminance(bins, MaxCLLPercentile)
	assert.Equal(t, HistogramNumBins-1, maxBin)
	assert.Equal(t, HistogramNumBins-1, medBin)

	// A small bright highlight sits above the 99.99th percentile, so it's
	// ignored; the median is in the dark bulk.
	bins = make([]float64, HistogramNumBins)
	bins[399] = 0.00001
	bins[300] = 0.01
	bins[100] = 0.98999
	bins[10] = 0.01
	maxBin, medBin = ExtractPercentileLuminance(bins, MaxCLLPercentile)
	assert.Equal(t, 300, maxBin)
	assert.Equal(t, 100, medBin)

	maxBin, medBin = ExtractPercentileLuminance(make([]float64, HistogramNumBins), MaxCLLPercentile)
	assert.Equal(t, -1, maxBin)
	assert.Equal(t, -1, medBin)
}

func TestDenormalizeBin(t *testing.T) {
	for _, n := range []int{10, 400} {
		assert.Equal(t, 0.0, DenormalizeBin(0, n, HistogramGamma, HistogramMaxNits))
		assert.InDelta(t, HistogramMaxNits, DenormalizeBin(n, n, HistogramGamma, HistogramMaxNits), 1e-6)
	}

	// Halfway in gamma space is 0.5^10 of the range
	assert.InDelta(t, HistogramMaxNits/1024, DenormalizeBin(200, 400, HistogramGamma, HistogramMaxNits), 1e-6)
}

func TestCLLFromHistogram(t *testing.T) {
	assert.Equal(t, UnknownCLL, CLLFromHistogram(make([]float64, HistogramNumBins), HistogramGamma, HistogramMaxNits, MaxCLLPercentile))

	black := make([]float64, HistogramNumBins)
	black[0] = 1
	assert.Equal(t, UnknownCLL, CLLFromHistogram(black, HistogramGamma, HistogramMaxNits, MaxCLLPercentile))

	bins := make([]float64, HistogramNumBins)
	bins[300] = 0.4
	bins[200] = 0.6
	cll := CLLFromHistogram(bins, HistogramGamma, HistogramMaxNits, MaxCLLPercentile)
	require.True(t, cll.Known())
	assert.InDelta(t, DenormalizeBin(300, HistogramNumBins, HistogramGamma, HistogramMaxNits), cll.MaxNits, 1e-9)
	assert.InDelta(t, DenormalizeBin(200, HistogramNumBins, HistogramGamma, HistogramMaxNits), cll.MedNits, 1e-9)
}
