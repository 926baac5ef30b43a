package render

import (
	"fmt"
	"io/ioutil"
	"log"

	"gopkg.in/yaml.v2"

	"github.com/abworrall/hdrview/pkg/ecolor"
	"github.com/abworrall/hdrview/pkg/graph"
	"github.com/abworrall/hdrview/pkg/histogram"
	"github.com/abworrall/hdrview/pkg/view"
)

type Config struct {
	Verbosity int

	Effect     string  // see graph.ListEffects
	Brightness float64 // multiplier on top of the white level
	Debug      bool    // offers the sphere map

	// Used when the host has nothing to say about the display
	Display *ecolor.DisplayInfo

	MaxZoom          float64
	SphereMapMinZoom float64

	Histogram histogram.Config

	ExportTonemapper string // "" for the render graph's own tonemapper, else see ListTonemappers
	ExportMaxWidth   int    // 0 is unlimited
	ExportMaxHeight  int
}

func NewConfig() Config {
	return Config{
		Effect:           graph.EffectNone.String(),
		Brightness:       1.0,
		MaxZoom:          view.DefaultMaxZoom,
		SphereMapMinZoom: view.DefaultSphereMinZoom,
		Histogram:        histogram.DefaultConfig(),
	}
}

func newConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	err := yaml.Unmarshal(b, &c)
	return c, err
}

func LoadConfig(filename string) (Config, error) {
	contents, err := ioutil.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config read %s: %v", filename, err)
	}

	return newConfigFromYaml(contents)
}

func (c Config) AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Fatalf("Can't marshal config yaml: %v\n", err)
	}
	return string(b)
}

func (c Config) GetEffect() (graph.RenderEffectKind, error) {
	return graph.ParseEffect(c.Effect)
}

// GetDisplay is the configured display, or a plain SDR one.
func (c Config) GetDisplay() ecolor.DisplayInfo {
	if c.Display != nil {
		return *c.Display
	}
	return ecolor.DefaultDisplayInfo()
}
