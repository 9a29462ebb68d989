package darkroom

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
)

// CurveLUTSize is the number of samples per channel in the tone-curve LUT.
const CurveLUTSize = 256

// sampleChannel evaluates one curve channel at n evenly spaced positions in
// [0, 1] and writes the mapped values into out.
//
// Interpolation is monotone cubic Hermite (Fritsch-Carlson): the
// reconstruction passes exactly through every control point and cannot
// overshoot between them, matching what an interactive curve editor shows.
// Raw linear interpolation would produce visible kinks at the control
// points; an unconstrained spline would oscillate on steep photographic
// curves.
func sampleChannel(pts []ms2.Vec, out []float32) {
	n := len(out)
	if channelIsIdentity(pts) {
		// Exact identity ramp. The render pipeline may skip LUT sampling
		// entirely for identity channels; emitting the exact ramp keeps the
		// two paths equivalent when it does not.
		for i := range out {
			out[i] = float32(i) / float32(n-1)
		}
		return
	}
	if len(pts) == 1 {
		for i := range out {
			out[i] = clamp01(pts[0].Y)
		}
		return
	}

	tangents := hermiteTangents(pts)

	seg := 0
	for i := range out {
		x := float32(i) / float32(n-1)
		for seg < len(pts)-2 && x > pts[seg+1].X {
			seg++
		}
		p0, p1 := pts[seg], pts[seg+1]
		h := p1.X - p0.X
		if h <= 0 {
			out[i] = clamp01(p0.Y)
			continue
		}
		t := clamp01((x - p0.X) / h)
		// Cubic Hermite basis.
		t2 := t * t
		t3 := t2 * t
		v := (2*t3-3*t2+1)*p0.Y +
			(t3-2*t2+t)*h*tangents[seg] +
			(-2*t3+3*t2)*p1.Y +
			(t3-t2)*h*tangents[seg+1]
		out[i] = clamp01(v)
	}
}

// hermiteTangents computes Fritsch-Carlson monotone tangents for the given
// ordered control points.
func hermiteTangents(pts []ms2.Vec) []float32 {
	n := len(pts)
	slopes := make([]float32, n-1)
	for i := 0; i < n-1; i++ {
		h := pts[i+1].X - pts[i].X
		if h > 0 {
			slopes[i] = (pts[i+1].Y - pts[i].Y) / h
		}
	}

	tangents := make([]float32, n)
	tangents[0] = slopes[0]
	tangents[n-1] = slopes[n-2]
	for i := 1; i < n-1; i++ {
		if slopes[i-1]*slopes[i] <= 0 {
			tangents[i] = 0 // local extremum, keep it flat
		} else {
			tangents[i] = (slopes[i-1] + slopes[i]) / 2
		}
	}

	// Limit tangent magnitude so each segment stays monotonic.
	for i := 0; i < n-1; i++ {
		if slopes[i] == 0 {
			tangents[i] = 0
			tangents[i+1] = 0
			continue
		}
		a := tangents[i] / slopes[i]
		b := tangents[i+1] / slopes[i]
		r := a*a + b*b
		if r > 9 {
			scale := 3 / math32.Sqrt(r)
			tangents[i] = scale * a * slopes[i]
			tangents[i+1] = scale * b * slopes[i]
		}
	}
	return tangents
}

// curveLUTBytes samples all four channels of tc into an RGBA8 pixel buffer
// laid out as a CurveLUTSize x 4 texture: row 0 is the luma curve, rows 1-3
// the red, green, and blue channel curves. Each texel stores the mapped
// value replicated across R, G, B with opaque alpha.
func curveLUTBytes(tc *ToneCurve) []byte {
	buf := make([]byte, CurveLUTSize*curveChannels*4)
	samples := make([]float32, CurveLUTSize)
	for ch := 0; ch < curveChannels; ch++ {
		sampleChannel(tc.Channel(ch), samples)
		row := buf[ch*CurveLUTSize*4:]
		for i, v := range samples {
			b := byte(math32.Round(v * 255))
			row[i*4+0] = b
			row[i*4+1] = b
			row[i*4+2] = b
			row[i*4+3] = 0xFF
		}
	}
	return buf
}

func clamp01(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
