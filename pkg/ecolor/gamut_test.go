package ecolor

import (
	"testing"

	"github.com/mdouchement/hdr/hdrcolor"
	"github.com/stretchr/testify/assert"
)

func TestPQRoundTrip(t *testing.T) {
	assert.Equal(t, 0.0, PQToNits(0))
	assert.InDelta(t, PQMaxNits, PQToNits(1), 1e-6)

	for _, nits := range []float64{0.1, 80, 203, 1000, 4000} {
		assert.InDelta(t, nits, PQToNits(NitsToPQ(nits)), nits*1e-6)
	}
}

func TestToScRGB(t *testing.T) {
	white := hdrcolor.RGB{R: 1, G: 1, B: 1}

	lin := ColorProfile{Kind: ProfileLinearSRGB}.ToScRGB(hdrcolor.RGB{R: 3, G: 2, B: 1})
	assert.Equal(t, hdrcolor.RGB{R: 3, G: 2, B: 1}, lin)

	srgb := ColorProfile{Kind: ProfileSRGB}.ToScRGB(white)
	assert.InDelta(t, 1.0, srgb.R, 1e-6)
	assert.InDelta(t, 1.0, srgb.B, 1e-6)

	// PQ 1.0 is 10000 nits, i.e. 125x reference white; Rec.2020 white stays white
	pq := ColorProfile{Kind: ProfileBT2100PQ}.ToScRGB(white)
	assert.InDelta(t, 125.0, pq.G, 0.01)
	assert.InDelta(t, 125.0, Luminance(pq), 0.05)

	p3 := ColorProfile{Kind: ProfileDisplayP3}.ToScRGB(hdrcolor.RGB{R: 1})
	assert.Greater(t, p3.R, 1.0) // P3 red lies outside Rec.709
	assert.Less(t, p3.G, 0.0)
}

func TestICCSniffing(t *testing.T) {
	p3 := ColorProfile{Kind: ProfileICC, ICC: []byte("....desc....Display P3....")}
	assert.Equal(t, ProfileDisplayP3, p3.effectiveKind())

	other := ColorProfile{Kind: ProfileICC, ICC: []byte("....desc....Adobe RGB....")}
	assert.Equal(t, ProfileSRGB, other.effectiveKind())
}

func TestMatrix5x4(t *testing.T) {
	r, g, b, a := ScaleMatrix(2.5).Apply(1, 2, 4, 0.5)
	assert.Equal(t, []float64{2.5, 5, 10, 0.5}, []float64{r, g, b, a})

	scale := HistogramNormalizeScale(HistogramMaxNits, false)
	assert.Equal(t, 12500.0, scale)
	assert.Equal(t, 100.0, HistogramNormalizeScale(HistogramMaxNits, true))

	y, g, b, a := LuminanceMatrix(scale).Apply(12500, 12500, 12500, 1)
	assert.InDelta(t, 1.0, y, 1e-9)
	assert.Equal(t, 0.0, g)
	assert.Equal(t, 0.0, b)
	assert.Equal(t, 1.0, a)
}

func TestHDR10Metadata(t *testing.T) {
	d := DefaultDisplayInfo()
	m := NewHDR10Metadata(d, 1499.7)

	assert.Equal(t, [2]uint16{32000, 16500}, m.RedPrimary)
	assert.Equal(t, [2]uint16{15635, 16450}, m.WhitePoint)
	assert.Equal(t, uint16(1499), m.MaxContentLightLevel)
	assert.Equal(t, uint16(0), NewHDR10Metadata(d, -1).MaxContentLightLevel)

	b := m.Bytes()
	assert.Len(t, b, 28)
	assert.Equal(t, []byte{0x00, 0x7d}, b[0:2]) // 32000, little-endian

	back, err := ParseHDR10Metadata(b)
	assert.NoError(t, err)
	assert.Equal(t, m, back)
}
