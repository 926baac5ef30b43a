package ecolor

import (
	"fmt"
	"math"
)

const (
	NominalRefWhite          = 80.0 // nits; scRGB 1.0
	DefaultHdrDisplayMaxNits = 1499.0
	DefaultSdrDisplayMaxNits = 80.0
	DefaultImageMaxCLL       = 4000.0
	LegacyHdr10Correction    = 125.0 // 10000 nits / 80 nits

	HistogramNumBins = 400
	HistogramGamma   = 0.1
	HistogramMaxNits = 1000000.0
	MaxCLLPercentile = 0.9999
	MedianPercentile = 0.5
)

// ComputeWhiteLevelScale figures out the linear multiplier applied to the
// color managed image. HDR content carries absolute luminance, so only the
// user's brightness applies; SDR and WCG content is lifted to the display's
// SDR white level.
func ComputeWhiteLevelScale(imageKind AdvancedColorKind, sdrWhiteLevelNits, brightness float64, legacyHdr10 bool) float64 {
	scale := 1.0
	if imageKind != HighDynamicRange {
		scale = sdrWhiteLevelNits / NominalRefWhite
	}
	if legacyHdr10 {
		scale *= LegacyHdr10Correction
	}
	return scale * brightness
}

// BestDisplayMaxLuminance is the display's reported peak, or a default
// for its kind when it reports nothing.
func BestDisplayMaxLuminance(d DisplayInfo) float64 {
	if d.MaxLuminance != 0 {
		return d.MaxLuminance
	}
	if d.IsHDR() {
		return DefaultHdrDisplayMaxNits
	}
	return DefaultSdrDisplayMaxNits
}

type TonemapMode int

const (
	TonemapSDR TonemapMode = iota
	TonemapHDR
)

func (m TonemapMode) String() string {
	if m == TonemapHDR {
		return "HDR"
	}
	return "SDR"
}

// TonemapTarget holds the parameters for the tonemap stage.
type TonemapTarget struct {
	InputMaxNits  float64
	OutputMaxNits float64
	Mode          TonemapMode
}

func (t TonemapTarget) String() string {
	return fmt.Sprintf("tonemap[%.1f -> %.1f nits, %s]", t.InputMaxNits, t.OutputMaxNits, t.Mode)
}

// SelectTonemapTarget picks the input and output luminance of the tonemapper.
// A sentinel (negative) imageMaxCLL is replaced by DefaultImageMaxCLL. The
// input is floored at half the output, otherwise the tonemapper does almost
// nothing.
func SelectTonemapTarget(displayMaxNits float64, displayIsHdr bool, imageMaxCLL, brightness float64) TonemapTarget {
	out := displayMaxNits
	if out == 0 {
		if displayIsHdr {
			out = DefaultHdrDisplayMaxNits
		} else {
			out = DefaultSdrDisplayMaxNits
		}
	}

	cll := imageMaxCLL
	if cll < 0 {
		cll = DefaultImageMaxCLL
	}
	in := math.Max(cll*brightness, 0.5*out)

	mode := TonemapSDR
	if displayIsHdr {
		mode = TonemapHDR
	}

	return TonemapTarget{InputMaxNits: in, OutputMaxNits: out, Mode: mode}
}

// ExtractPercentileLuminance walks the histogram from the brightest bin
// down, accumulating mass. maxBin is the first bin where the accumulated
// mass reaches (1 - percentile); medianBin is the first bin where it goes
// past one half. A histogram with no mass returns -1 for both.
//
// This is one bin higher than stopping at the last bin still under the
// threshold, so a histogram with all its mass in the top bin reports the
// top bin rather than the one below it.
func ExtractPercentileLuminance(bins []float64, percentile float64) (maxBin, medianBin int) {
	maxBin, medianBin = -1, -1
	tail := 1.0 - percentile
	sum := 0.0

	for i := len(bins) - 1; i >= 0; i-- {
		sum += bins[i]
		if maxBin < 0 && sum > 0 && sum >= tail {
			maxBin = i
		}
		if sum > MedianPercentile {
			medianBin = i
			break
		}
	}

	// Mass that never gets past one half (i.e. an unnormalised or sparse
	// histogram) still has a median in its lowest populated bin.
	if medianBin < 0 && sum > 0 {
		for i := 0; i < len(bins); i++ {
			if bins[i] > 0 {
				medianBin = i
				break
			}
		}
	}

	return maxBin, medianBin
}

// DenormalizeBin undoes the gamma pre-warp applied before binning.
func DenormalizeBin(bin, numBins int, gamma, maxNits float64) float64 {
	if bin <= 0 || numBins <= 0 {
		return 0
	}
	norm := float64(bin) / float64(numBins)
	return math.Pow(norm, 1/gamma) * maxNits
}

// CLLFromHistogram turns a normalised luminance histogram into the image's
// content light level. Empty histograms, and ones whose peak lands on zero
// nits (black images, or drivers that return nothing), are unknown.
func CLLFromHistogram(bins []float64, gamma, maxNits, percentile float64) ImageCLL {
	maxBin, medBin := ExtractPercentileLuminance(bins, percentile)
	if maxBin < 0 {
		return UnknownCLL
	}

	cll := ImageCLL{
		MaxNits: DenormalizeBin(maxBin, len(bins), gamma, maxNits),
		MedNits: DenormalizeBin(medBin, len(bins), gamma, maxNits),
	}
	if cll.MaxNits == 0 {
		return UnknownCLL
	}
	return cll
}
