package main

// hdrview renders an image the way the viewer would show it on a given
// display, and writes the presented frame out.
//
//   hdrview -effect hdrtonemap -display hdr -maxnits 600 pic.exr [config.yaml]

import (
	"flag"
	"fmt"
	"log"
	"math"
	"path/filepath"
	"strings"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/hdrcolor"
	skyhist "github.com/skypies/util/histogram"

	"github.com/abworrall/hdrview/pkg/decode"
	"github.com/abworrall/hdrview/pkg/ecolor"
	"github.com/abworrall/hdrview/pkg/emath"
	"github.com/abworrall/hdrview/pkg/graph"
	"github.com/abworrall/hdrview/pkg/histogram"
	"github.com/abworrall/hdrview/pkg/render"
	"github.com/abworrall/hdrview/pkg/softhost"
	"github.com/abworrall/hdrview/pkg/view"
)

var (
	fVerbosity       int
	fEffect          string
	fBrightness      float64
	fDisplay         string
	fMaxNits         float64
	fSdrWhite        float64
	fWidth           int
	fHeight          int
	fZoom            float64
	fOutput          string
	fHdrOutput       string
	fExport          string
	fTonemapper      string
	fCompute         bool
	fPlatformTonemap bool
	fDebug           bool
)

func init() {
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.StringVar(&fEffect, "effect", "", "how to render the image: "+graph.ListEffects())
	flag.Float64Var(&fBrightness, "brightness", 0, "brightness multiplier (default 1.0)")

	flag.StringVar(&fDisplay, "display", "", "pretend the display is sdr, wcg or hdr")
	flag.Float64Var(&fMaxNits, "maxnits", 0, "the display's peak luminance, 0 if unknown")
	flag.Float64Var(&fSdrWhite, "sdrwhite", ecolor.NominalRefWhite, "the display's SDR white level, in nits")
	flag.IntVar(&fWidth, "width", 1280, "width of the window")
	flag.IntVar(&fHeight, "height", 720, "height of the window")
	flag.Float64Var(&fZoom, "zoom", 1, "zoom in (or out) on the center of the window, after fitting")

	flag.StringVar(&fOutput, "o", "frame.png", "where to write the presented frame, as 8-bit sRGB")
	flag.StringVar(&fHdrOutput, "hdro", "", "also write the presented frame as a Radiance .hdr file")
	flag.StringVar(&fExport, "export", "", "export an SDR version of the whole image (.png, .jpg, .tif)")
	flag.StringVar(&fTonemapper, "tonemapper", "", "tonemap the export with a global operator: "+render.ListTonemappers())

	flag.BoolVar(&fCompute, "compute", true, "device supports compute (needed for HDR metadata)")
	flag.BoolVar(&fPlatformTonemap, "platformtonemap", true, "device has a built in HDR tonemapper")
	flag.BoolVar(&fDebug, "debug", false, "allow debug only effects")
	flag.Parse()

	log.Printf("hdrview starting\n")
}

func parseKind(s string) (ecolor.AdvancedColorKind, error) {
	switch strings.ToLower(s) {
	case "sdr":
		return ecolor.StandardDynamicRange, nil
	case "wcg":
		return ecolor.WideColorGamut, nil
	case "hdr":
		return ecolor.HighDynamicRange, nil
	}
	return 0, fmt.Errorf("display kind %q not recognized, wanted sdr, wcg or hdr", s)
}

func main() {
	cfg := render.NewConfig()
	imgFile := ""
	for _, arg := range flag.Args() {
		if strings.ToLower(filepath.Ext(arg)) == ".yaml" {
			c, err := render.LoadConfig(arg)
			if err != nil {
				log.Fatalf("Loading %s as config YAML failed: %v", arg, err)
			}
			cfg = c
			log.Printf("Loaded base configuration from %s\n", arg)
		} else {
			imgFile = arg
		}
	}
	if imgFile == "" {
		log.Fatal("no image file given")
	}

	// Override the config file with command line args, if relevant
	if fEffect != "" {
		cfg.Effect = fEffect
	}
	if fBrightness > 0 {
		cfg.Brightness = fBrightness
	}
	if fTonemapper != "" {
		cfg.ExportTonemapper = fTonemapper
	}
	if fDisplay != "" {
		kind, err := parseKind(fDisplay)
		if err != nil {
			log.Fatal(err)
		}
		d := ecolor.DefaultDisplayInfo()
		d.Kind = kind
		d.MaxLuminance = fMaxNits
		d.SdrWhiteLevel = fSdrWhite
		cfg.Display = &d
	}
	cfg.Debug = cfg.Debug || fDebug
	cfg.Verbosity = fVerbosity
	decode.Verbosity = fVerbosity

	mode, err := cfg.GetEffect()
	if err != nil {
		log.Fatal(err)
	} else if mode == graph.EffectSphereMap && !cfg.Debug {
		log.Fatalf("effect %s needs -debug", mode)
	}

	if cfg.Verbosity > 0 {
		log.Printf("Final configuration:-\n\n%s\n", cfg.AsYaml())
	}

	dev := softhost.NewDevice(fWidth, fHeight, graph.Capabilities{PlatformTonemap: fPlatformTonemap, Compute: fCompute})
	dev.Verbosity = cfg.Verbosity
	dev.SoftHost().Verbosity = cfg.Verbosity

	r, err := render.NewOrchestrator(cfg, dev)
	if err != nil {
		log.Fatal(err)
	}

	var img render.Image
	info, err := r.Load(func() (render.Image, error) {
		var err error
		img, err = decode.File(imgFile)
		return img, err
	})
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Loaded %s: %s", imgFile, info)

	disp := cfg.GetDisplay()
	if err := r.SetRenderOptions(mode, cfg.Brightness, &disp); err != nil {
		log.Fatalf("render %s: %v", mode, err)
	}

	if fZoom != 1 {
		m := view.Manipulation{
			Position:  emath.Vec2{float64(fWidth) / 2, float64(fHeight) / 2},
			ZoomDelta: fZoom,
		}
		if err := r.UpdateManipulation(m); err != nil {
			log.Fatalf("zoom: %v", err)
		}
	}

	log.Printf("Image CLL %s, reported MaxCLL %.0f nits on %s", r.ImageCLL(), r.EffectiveMaxCLL(), disp)
	if r.LastMetadata != nil {
		log.Printf("HDR metadata: %s", r.LastMetadata)
	}

	if cfg.Verbosity > 0 {
		describe(r, img, imgFile)
	}

	frame := dev.SoftSurface().Frame
	if frame == nil {
		log.Fatal("nothing was presented")
	}
	if err := frame.WritePNG(fOutput); err != nil {
		log.Fatal(err)
	}
	log.Printf("frame written '%s'\n", fOutput)
	if fHdrOutput != "" {
		if err := frame.WriteToHDR(fHdrOutput); err != nil {
			log.Fatal(err)
		}
		log.Printf("HDR frame written '%s'\n", fHdrOutput)
	}

	if fExport != "" {
		if err := r.ExportSdrFile(fExport); err != nil {
			log.Fatalf("export: %v", err)
		}
		log.Printf("SDR export written '%s'\n", fExport)
	}
}

// describe dumps what the renderer made of the image: the graph, the CLL
// cross check, a coarse luminance histogram, and a plot of the analyzer's.
func describe(r *render.Orchestrator, img render.Image, filename string) {
	log.Printf("Graph: %s", r.Builder().Describe())
	log.Printf("View: %s", r.View())

	ref := softhost.ReferenceCLL(img.Pixels, img.Profile, r.Histogram.Percentile)
	log.Printf("Reference CLL (unbinned, full size): %s", ref)

	log.Printf("log2(nits) histogram, 10 buckets per stop:\n%v", luminanceHistogram(img.Pixels, img.Profile))

	if bins := r.Analyzer().LastBins; len(bins) > 0 {
		title := fmt.Sprintf("%s, %s", filepath.Base(filename), r.ImageCLL())
		if err := histogram.Plot(bins, r.Histogram, title, "histogram.png"); err != nil {
			log.Printf("histogram plot: %v", err)
		} else {
			log.Printf("histogram plot written 'histogram.png'")
		}
	}
}

func luminanceHistogram(img hdr.Image, profile ecolor.ColorProfile) skyhist.Histogram {
	h := skyhist.Histogram{NumBuckets: 240, ValMin: -80, ValMax: 160}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			rr, g, bl, _ := img.HDRAt(x, y).HDRRGBA()
			nits := ecolor.Luminance(profile.ToScRGB(hdrcolor.RGB{R: rr, G: g, B: bl})) * ecolor.NominalRefWhite
			if nits <= 0 {
				continue
			}
			h.Add(skyhist.ScalarVal(int(math.Log2(nits) * 10)))
		}
	}
	return h
}
