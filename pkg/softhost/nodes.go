package softhost

import (
	"fmt"
	"math"

	"github.com/mdouchement/hdr/hdrcolor"
	"gonum.org/v1/gonum/floats"

	"github.com/abworrall/hdrview/pkg/ecolor"
	"github.com/abworrall/hdrview/pkg/emath"
	"github.com/abworrall/hdrview/pkg/graph"
)

func floatProp(n *node, k graph.PropKey, def float64) float64 {
	if v, ok := n.props[k].(float64); ok {
		return v
	}
	return def
}

func boolProp(n *node, k graph.PropKey) bool {
	v, _ := n.props[k].(bool)
	return v
}

func vecProp(n *node, k graph.PropKey, def emath.Vec2) emath.Vec2 {
	if v, ok := n.props[k].(emath.Vec2); ok {
		return v
	}
	return def
}

// apply runs a node's pixel operation over its (already rendered) input.
func apply(n *node, in *FloatImage) (*FloatImage, error) {
	switch n.kind {
	case graph.NodeColorManagement:
		return colorManage(n, in), nil
	case graph.NodeColorMatrix:
		m, ok := n.props[graph.PropColorMatrix].(ecolor.Matrix5x4)
		if !ok {
			m = ecolor.ScaleMatrix(1)
		}
		return perPixel(in, m.Apply), nil
	case graph.NodeHdrTonemap, graph.NodeCustomTonemap:
		return tonemap(n, in), nil
	case graph.NodeWhiteLevelAdjust:
		scale := floatProp(n, graph.PropInputWhiteLevel, ecolor.NominalRefWhite) /
			floatProp(n, graph.PropOutputWhiteLevel, ecolor.NominalRefWhite)
		return perPixel(in, ecolor.ScaleMatrix(scale).Apply), nil
	case graph.NodePlaceholder:
		return in, nil
	case graph.NodeSdrOverlay:
		return perPixel(in, sdrOverlay), nil
	case graph.NodeLuminanceHeatmap:
		return perPixel(in, heatmap), nil
	case graph.NodeBorder:
		out := *in
		out.wrapX = n.props[graph.PropEdgeModeX] == graph.EdgeWrap
		out.wrapY = n.props[graph.PropEdgeModeY] == graph.EdgeWrap
		return &out, nil
	case graph.NodeSphereMap:
		return sphereMap(n, in), nil
	case graph.NodeScale:
		return downscale(in, vecProp(n, graph.PropScale, emath.Vec2{1, 1})), nil
	case graph.NodeGammaTransfer:
		return gammaTransfer(n, in), nil
	case graph.NodeHistogram:
		n.bins = binRed(in, n.props[graph.PropNumBins])
		return in, nil
	}
	return nil, fmt.Errorf("%s: %w", n.kind, graph.ErrNotImplemented)
}

type pixelFunc func(r, g, b, a float64) (float64, float64, float64, float64)

func perPixel(in *FloatImage, f pixelFunc) *FloatImage {
	out := NewFloatImage(in.Rect.Dx(), in.Rect.Dy())
	for i := 0; i < len(in.Pix); i += 4 {
		out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = f(in.Pix[i], in.Pix[i+1], in.Pix[i+2], in.Pix[i+3])
	}
	return out
}

// Source pixels are in the source profile's encoding; the output is scRGB.
func colorManage(n *node, in *FloatImage) *FloatImage {
	profile, _ := n.props[graph.PropSourceProfile].(ecolor.ColorProfile)
	return perPixel(in, func(r, g, b, a float64) (float64, float64, float64, float64) {
		c := profile.ToScRGB(hdrcolor.RGB{R: r, G: g, B: b})
		return c.R, c.G, c.B, a
	})
}

// An extended Reinhard curve on luminance, reaching the output max exactly
// at the input max. When the input max is below the output max this is a
// no-op.
func tonemap(n *node, in *FloatImage) *FloatImage {
	inMax := floatProp(n, graph.PropInputMaxLuminance, ecolor.DefaultImageMaxCLL)
	outMax := floatProp(n, graph.PropOutputMaxLuminance, ecolor.DefaultSdrDisplayMaxNits)
	if inMax <= outMax || outMax <= 0 {
		return in
	}
	w := inMax / outMax

	return perPixel(in, func(r, g, b, a float64) (float64, float64, float64, float64) {
		nits := ecolor.Luminance(hdrcolor.RGB{R: r, G: g, B: b}) * ecolor.NominalRefWhite
		if nits <= 0 {
			return r, g, b, a
		}
		x := nits / outMax
		y := x * (1 + x/(w*w)) / (1 + x)
		scale := y * outMax / nits
		return r * scale, g * scale, b * scale, a
	})
}

// Anything that fits in SDR range is drawn as gray; the rest keeps its color.
func sdrOverlay(r, g, b, a float64) (float64, float64, float64, float64) {
	if math.Max(r, math.Max(g, b)) <= 1 {
		y := ecolor.Luminance(hdrcolor.RGB{R: r, G: g, B: b})
		return y, y, y, a
	}
	return r, g, b, a
}

// Box filter downscale; the output is floor(size*scale).
func downscale(in *FloatImage, scale emath.Vec2) *FloatImage {
	if scale[0] <= 0 || scale[1] <= 0 {
		return NewFloatImage(0, 0)
	}
	w := int(float64(in.Rect.Dx()) * scale[0])
	h := int(float64(in.Rect.Dy()) * scale[1])
	out := NewFloatImage(w, h)
	fx, fy := 1/scale[0], 1/scale[1]

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, x1 := int(float64(x)*fx), int(math.Max(float64(x+1)*fx, float64(x)*fx+1))
			y0, y1 := int(float64(y)*fy), int(math.Max(float64(y+1)*fy, float64(y)*fy+1))
			var sum [4]float64
			cnt := 0.0
			for sy := y0; sy < y1; sy++ {
				for sx := x0; sx < x1; sx++ {
					r, g, b, a := in.Sample(sx+in.Rect.Min.X, sy+in.Rect.Min.Y)
					sum[0] += r
					sum[1] += g
					sum[2] += b
					sum[3] += a
					cnt++
				}
			}
			out.SetRGBA(x, y, sum[0]/cnt, sum[1]/cnt, sum[2]/cnt, sum[3]/cnt)
		}
	}
	return out
}

func gammaTransfer(n *node, in *FloatImage) *FloatImage {
	exp := floatProp(n, graph.PropRedExponent, 1)
	pow := func(v float64) float64 {
		if v <= 0 {
			return 0
		}
		return math.Pow(v, exp)
	}
	return perPixel(in, func(r, g, b, a float64) (float64, float64, float64, float64) {
		r = pow(r)
		if !boolProp(n, graph.PropGreenDisable) {
			g = pow(g)
		}
		if !boolProp(n, graph.PropBlueDisable) {
			b = pow(b)
		}
		if !boolProp(n, graph.PropAlphaDisable) {
			a = pow(a)
		}
		return r, g, b, a
	})
}

// binRed histograms the red channel over [0,1]; the result sums to 1.
func binRed(in *FloatImage, numBins interface{}) []float64 {
	nb, ok := numBins.(int)
	if !ok || nb <= 0 {
		nb = ecolor.HistogramNumBins
	}
	bins := make([]float64, nb)
	total := 0.0
	for i := 0; i < len(in.Pix); i += 4 {
		v := emath.Clamp01(in.Pix[i])
		b := int(v * float64(nb))
		if b >= nb {
			b = nb - 1
		}
		bins[b]++
		total++
	}
	if total > 0 {
		floats.Scale(1/total, bins)
	}
	return bins
}

// sphereMap projects the (equirectangular) input onto a sphere seen from
// outside, rendered at the scene size. Center pans the view, in units of a
// full turn; zoom shrinks the field of view.
func sphereMap(n *node, in *FloatImage) *FloatImage {
	size := vecProp(n, graph.PropSceneSize, emath.Vec2{float64(in.Rect.Dx()), float64(in.Rect.Dy())})
	center := vecProp(n, graph.PropCenter, emath.Vec2{})
	zoom := floatProp(n, graph.PropZoom, 1)
	if zoom <= 0 {
		zoom = 1
	}

	w, h := int(size[0]), int(size[1])
	out := NewFloatImage(w, h)
	if w == 0 || h == 0 || in.Rect.Empty() {
		return out
	}

	radius := math.Min(float64(w), float64(h)) / 2 * zoom
	yaw := center[0] * 2 * math.Pi
	pitch := (center[1] - 0.5) * math.Pi
	srcW, srcH := float64(in.Rect.Dx()), float64(in.Rect.Dy())

	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			u := (float64(px) + 0.5 - float64(w)/2) / radius
			v := (float64(py) + 0.5 - float64(h)/2) / radius
			d2 := u*u + v*v
			if d2 > 1 {
				continue
			}
			z := math.Sqrt(1 - d2)

			// Tilt about the x axis, then turn about the vertical
			y2 := v*math.Cos(pitch) - z*math.Sin(pitch)
			z2 := v*math.Sin(pitch) + z*math.Cos(pitch)
			lon := math.Atan2(u, z2) + yaw
			lat := math.Asin(emath.Clamp(y2, -1, 1))

			sx := int(math.Floor((lon/(2*math.Pi) + 0.5) * srcW))
			sy := int(math.Floor((lat/math.Pi + 0.5) * srcH))
			r, g, b, a := in.Sample(sx+in.Rect.Min.X, sy+in.Rect.Min.Y)
			out.SetRGBA(px, py, r, g, b, a)
		}
	}
	return out
}
