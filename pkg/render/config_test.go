package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/hdrview/pkg/ecolor"
	"github.com/abworrall/hdrview/pkg/graph"
)

func TestConfigYamlRoundTrip(t *testing.T) {
	c := NewConfig()
	c.Effect = graph.EffectHdrTonemap.String()
	c.Brightness = 1.5
	d := ecolor.DefaultDisplayInfo()
	d.Kind = ecolor.HighDynamicRange
	d.MaxLuminance = 1000
	c.Display = &d

	c2, err := newConfigFromYaml([]byte(c.AsYaml()))
	require.NoError(t, err)
	assert.Equal(t, c, c2)
}

func TestConfigDefaults(t *testing.T) {
	c, err := newConfigFromYaml([]byte("effect: heatmap\nbrightness: 2\n"))
	require.NoError(t, err)

	mode, err := c.GetEffect()
	require.NoError(t, err)
	assert.Equal(t, graph.EffectLuminanceHeatmap, mode)
	assert.Equal(t, 2.0, c.Brightness)
	assert.Equal(t, ecolor.HistogramNumBins, c.Histogram.NumBins, "unset fields keep their defaults")
	assert.Equal(t, ecolor.DefaultDisplayInfo(), c.GetDisplay())

	c.Effect = "sepia"
	_, err = c.GetEffect()
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "hdrview.yaml")
	require.NoError(t, os.WriteFile(filename, []byte("effect: sdroverlay\ndebug: true\n"), 0644))

	c, err := LoadConfig(filename)
	require.NoError(t, err)
	assert.Equal(t, "sdroverlay", c.Effect)
	assert.True(t, c.Debug)

	_, err = LoadConfig(filename + ".missing")
	assert.Error(t, err)
}
