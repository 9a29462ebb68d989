package darkroom

import "github.com/soypat/geometry/ms2"

// EditState is the complete set of user-adjustable values describing one
// edit: an immutable-per-frame snapshot of every adjustment the renderer
// understands. The zero value of every numeric field means "no adjustment";
// [DefaultEditState] returns a state whose render output is pixel-identical
// to the source image.
//
// Every field has a fixed valid range, documented per field. The renderer
// assumes the caller has already clamped values to range and does not
// re-validate; behavior on out-of-range input is unspecified.
//
// EditState is a value type. Assigning it copies everything except the
// tone-curve control-point slices, which are shared; use [EditState.Clone]
// when the copy must not alias the original.
type EditState struct {
	// Global tone.
	Exposure   float32 // [-5, 5], stops
	Contrast   float32 // [-100, 100]
	Highlights float32 // [-100, 100]
	Shadows    float32 // [-100, 100]
	Whites     float32 // [-100, 100]
	Blacks     float32 // [-100, 100]

	// White balance.
	Temperature float32 // [-100, 100], negative cools, positive warms
	Tint        float32 // [-100, 100], negative green, positive magenta

	// Presence.
	Clarity    float32 // [-100, 100]
	Texture    float32 // [-100, 100]
	Dehaze     float32 // [-100, 100]
	Vibrance   float32 // [-100, 100]
	Saturation float32 // [-100, 100]

	// HSL holds one adjustment triplet per hue band, ordered red, orange,
	// yellow, green, aqua, blue, purple, magenta.
	HSL [8]HSLBand

	// Curve is the four-channel tone curve.
	Curve ToneCurve

	// Split toning.
	SplitHighlight SplitTone // highlight tint
	SplitShadow    SplitTone // shadow tint
	SplitBalance   float32   // [-100, 100], shifts the highlight/shadow midpoint

	// Three-way color-grading wheels.
	WheelShadows    GradeWheel
	WheelMidtones   GradeWheel
	WheelHighlights GradeWheel
	GradeBlending   float32 // [0, 100], overlap between the three luminance zones
	GradeBalance    float32 // [-100, 100]

	// Effects.
	Grain    GrainSettings
	Vignette VignetteSettings
	Bloom    BloomSettings
	Halation HalationSettings
	Blur     BlurSettings
	Border   BorderSettings

	// Detail.
	Sharpen        SharpenSettings
	NoiseReduction NoiseReductionSettings

	// LUTIntensity is the blend amount for the imported color LUT, [0, 100].
	// It has no effect until a LUT has been loaded on the renderer.
	LUTIntensity float32

	// Geometry.
	Crop     CropRect // all-zero disables cropping
	Rotation int      // one of 0, 90, 180, 270 (degrees clockwise)
	FlipH    bool
	FlipV    bool
}

// HSLBand adjusts hue, saturation, and luminance of one hue range.
// All fields are in [-100, 100].
type HSLBand struct {
	Hue float32
	Sat float32
	Lum float32
}

// SplitTone tints one end of the tonal range.
type SplitTone struct {
	Hue float32 // [0, 360), degrees
	Sat float32 // [0, 100]
}

// GradeWheel is one three-way color-grading wheel.
type GradeWheel struct {
	Hue float32 // [0, 360), degrees
	Sat float32 // [0, 100]
	Lum float32 // [-100, 100]
}

// GrainSettings controls simulated film grain. The grain pattern is keyed on
// elapsed wall-clock time, so it animates across preview frames and is not
// reproducible between runs.
type GrainSettings struct {
	Amount    float32 // [0, 100]
	Size      float32 // [0, 100]
	Roughness float32 // [0, 100]
}

// VignetteSettings controls post-crop vignetting.
type VignetteSettings struct {
	Amount    float32 // [-100, 100], negative darkens, positive lightens
	Midpoint  float32 // [0, 100]
	Feather   float32 // [0, 100]
	Roundness float32 // [-100, 100]
}

// BloomSettings controls the multi-pass bloom effect. A non-zero Amount
// activates the bright-extract / blur / composite pass sequence.
type BloomSettings struct {
	Amount    float32 // [0, 100]
	Threshold float32 // [0, 100], brightness cutoff for the extract pass
	Radius    float32 // [0, 100], blur spread
}

// HalationSettings controls the film-halation effect, which shares the
// multi-pass bright-extract machinery with bloom but composites with a
// color tint.
type HalationSettings struct {
	Amount    float32 // [0, 100]
	Threshold float32 // [0, 100]
	TintHue   float32 // [0, 360), degrees; film halation is typically red-orange
}

// BlurSettings controls a uniform lens-style blur applied before grading.
type BlurSettings struct {
	Amount float32 // [0, 100]
}

// BorderSettings draws a solid border inset into the frame.
type BorderSettings struct {
	Size float32 // [0, 100], as a fraction of the short edge
	R    float32 // [0, 1]
	G    float32 // [0, 1]
	B    float32 // [0, 1]
	A    float32 // [0, 1]
}

// SharpenSettings controls unsharp-mask sharpening.
type SharpenSettings struct {
	Amount float32 // [0, 150]
	Radius float32 // [0.5, 3], pixels
}

// NoiseReductionSettings controls luminance and color noise smoothing.
type NoiseReductionSettings struct {
	Luminance float32 // [0, 100]
	Color     float32 // [0, 100]
}

// CropRect is a normalized crop window. X, Y locate the top-left corner and
// W, H the extent, all in [0, 1] relative to the source image. The zero
// value disables cropping.
type CropRect struct {
	X float32
	Y float32
	W float32
	H float32
}

// Enabled reports whether the crop window selects a sub-region.
func (c CropRect) Enabled() bool {
	return c.W > 0 && c.H > 0
}

// Curve channel indices for [ToneCurve].
const (
	CurveLuma = iota
	CurveRed
	CurveGreen
	CurveBlue
	curveChannels
)

// ToneCurve holds the control points of the four-channel tone curve.
// Each channel is an ordered, x-monotonic sequence of points in [0,1]².
// A nil channel means the two-point identity default.
type ToneCurve struct {
	Luma  []ms2.Vec
	Red   []ms2.Vec
	Green []ms2.Vec
	Blue  []ms2.Vec
}

// Channel returns the control points of channel i (one of CurveLuma,
// CurveRed, CurveGreen, CurveBlue).
func (tc *ToneCurve) Channel(i int) []ms2.Vec {
	switch i {
	case CurveLuma:
		return tc.Luma
	case CurveRed:
		return tc.Red
	case CurveGreen:
		return tc.Green
	case CurveBlue:
		return tc.Blue
	default:
		return nil
	}
}

// channelIsIdentity reports whether pts is structurally the two-point
// identity curve: exactly (0,0) and (1,1). A nil or empty channel counts as
// identity, matching the documented default.
func channelIsIdentity(pts []ms2.Vec) bool {
	if len(pts) == 0 {
		return true
	}
	if len(pts) != 2 {
		return false
	}
	return pts[0] == (ms2.Vec{X: 0, Y: 0}) && pts[1] == (ms2.Vec{X: 1, Y: 1})
}

// IsIdentity reports whether every channel is structurally the two-point
// identity default. The check is structural, not numeric: a curve that
// happens to evaluate to the identity function through other control points
// is not considered identity. Rendering treats a globally identity curve as
// a fast path that skips LUT sampling; the result is observably equivalent
// to sampling an actual identity LUT.
func (tc *ToneCurve) IsIdentity() bool {
	return channelIsIdentity(tc.Luma) &&
		channelIsIdentity(tc.Red) &&
		channelIsIdentity(tc.Green) &&
		channelIsIdentity(tc.Blue)
}

// Clone returns a deep copy of the curve's control-point slices.
func (tc ToneCurve) Clone() ToneCurve {
	clone := func(pts []ms2.Vec) []ms2.Vec {
		if pts == nil {
			return nil
		}
		out := make([]ms2.Vec, len(pts))
		copy(out, pts)
		return out
	}
	return ToneCurve{
		Luma:  clone(tc.Luma),
		Red:   clone(tc.Red),
		Green: clone(tc.Green),
		Blue:  clone(tc.Blue),
	}
}

// equal reports whether two curves have identical control points.
func (tc *ToneCurve) equal(other *ToneCurve) bool {
	eq := func(a, b []ms2.Vec) bool {
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	}
	return eq(tc.Luma, other.Luma) && eq(tc.Red, other.Red) &&
		eq(tc.Green, other.Green) && eq(tc.Blue, other.Blue)
}

// DefaultEditState returns an EditState with every field at its documented
// default: all adjustments zero, identity tone curve, LUT intensity 100.
// Rendering the default state reproduces the source image.
func DefaultEditState() EditState {
	return EditState{
		Curve: ToneCurve{
			Luma:  []ms2.Vec{{X: 0, Y: 0}, {X: 1, Y: 1}},
			Red:   []ms2.Vec{{X: 0, Y: 0}, {X: 1, Y: 1}},
			Green: []ms2.Vec{{X: 0, Y: 0}, {X: 1, Y: 1}},
			Blue:  []ms2.Vec{{X: 0, Y: 0}, {X: 1, Y: 1}},
		},
		LUTIntensity: 100,
		Sharpen:      SharpenSettings{Radius: 1},
	}
}

// Clone returns a copy of the state that shares no memory with the
// original. Use it when the snapshot must survive later mutation of the
// caller's curve slices.
func (s EditState) Clone() EditState {
	s.Curve = s.Curve.Clone()
	return s
}
