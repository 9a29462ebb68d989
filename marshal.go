package darkroom

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/darkroom/internal/gpu"
)

// passSetup carries the per-pass values that accompany the edit state into
// the uniform block: which stage behavior the grade shader runs in, the
// input dimensions for texel math, and the blur step for blur stages.
type passSetup struct {
	// applyGrade selects full grading (base/composite/fast path) versus
	// passthrough-plus-post (final stage).
	applyGrade bool
	// compositeTaps enables the additive bright-pass term.
	compositeTaps bool
	// flipY flips the frame vertically for destinations with an inverted
	// row convention. Only set on the stage writing to the destination.
	flipY bool
	// srcW, srcH are the dimensions of this pass's input texture.
	srcW, srcH int
	// outW, outH are the destination dimensions.
	outW, outH int
	// blurStep is the separable-blur step vector in UV units.
	blurStep [2]float32
	// elapsed is seconds since renderer creation, keying the grain
	// pattern.
	elapsed float32
	// curveIdentity is the structural identity flag for the current
	// curve, letting the shader skip LUT sampling.
	curveIdentity bool
}

// marshalUniforms packs the complete edit state plus per-pass setup into
// the shader parameter block. Every call fills every field: marshaling is
// stateless, so no uniform can ever go stale between frames or passes.
// Overridden effects are zeroed at the amount level, which suppresses the
// effect without branch flags in the shader.
func marshalUniforms(state *EditState, ov gpu.Overrides, ps passSetup) gpu.Uniforms {
	var u gpu.Uniforms

	u.Tone0 = [4]float32{state.Exposure, state.Contrast, state.Highlights, state.Shadows}
	u.Tone1 = [4]float32{state.Whites, state.Blacks, state.Temperature, state.Tint}
	u.Presence0 = [4]float32{state.Clarity, state.Texture, state.Dehaze, state.Vibrance}

	u.Presence1[0] = state.Saturation
	if ps.curveIdentity {
		u.Presence1[1] = 1
	}
	u.Presence1[2] = state.LUTIntensity

	for i, band := range state.HSL {
		u.HSL[i] = [4]float32{band.Hue, band.Sat, band.Lum, 0}
	}

	u.Split0 = [4]float32{
		state.SplitHighlight.Hue, state.SplitHighlight.Sat,
		state.SplitShadow.Hue, state.SplitShadow.Sat,
	}
	u.Split1[0] = state.SplitBalance
	u.Split1[1] = state.GradeBlending
	u.Split1[2] = state.GradeBalance

	u.WheelShadows = [4]float32{state.WheelShadows.Hue, state.WheelShadows.Sat, state.WheelShadows.Lum, 0}
	u.WheelMidtones = [4]float32{state.WheelMidtones.Hue, state.WheelMidtones.Sat, state.WheelMidtones.Lum, 0}
	u.WheelHighlights = [4]float32{state.WheelHighlights.Hue, state.WheelHighlights.Sat, state.WheelHighlights.Lum, 0}

	u.Fx0 = [4]float32{state.Grain.Amount, state.Grain.Size, state.Grain.Roughness, state.Vignette.Amount}
	u.Fx1 = [4]float32{state.Vignette.Midpoint, state.Vignette.Feather, state.Vignette.Roundness, state.Blur.Amount}
	u.Fx2 = [4]float32{state.Bloom.Amount, state.Halation.Amount, state.Halation.TintHue, state.Border.Size}
	u.BorderColor = [4]float32{state.Border.R, state.Border.G, state.Border.B, state.Border.A}
	u.Detail0 = [4]float32{state.Sharpen.Amount, state.Sharpen.Radius, state.NoiseReduction.Luminance, state.NoiseReduction.Color}

	u.Geom0 = geometryMatrix(state)
	u.Geom1 = cropWindow(state)

	u.Res = [4]float32{
		float32(ps.outW), float32(ps.outH),
		1 / float32(max(ps.srcW, 1)), 1 / float32(max(ps.srcH, 1)),
	}

	// Bright-extract parameters. The soft knee widens with the threshold
	// so the falloff never collapses to a hard edge.
	threshold := extractThreshold(state)
	u.Extract[0] = threshold
	u.Extract[1] = 0.1 + threshold*0.25
	if ps.compositeTaps {
		u.Extract[2] = state.Bloom.Amount
		u.Extract[3] = state.Halation.Amount
	}

	if ps.applyGrade {
		u.Stage[0] = 1
	}
	if ps.flipY {
		u.Stage[1] = 1
	}
	u.Stage[2] = ps.elapsed
	u.Stage[3] = 1

	u.BlurDir = [4]float32{ps.blurStep[0], ps.blurStep[1], 0, 0}

	// Effect suppression happens last so it wins over everything above.
	if ov.DisableVignette {
		u.Fx0[3] = 0
	}
	if ov.DisableGrain {
		u.Fx0[0] = 0
	}
	if ov.DisableBlur {
		u.Fx1[3] = 0
	}
	if ov.DisableBloom {
		u.Extract[2] = 0
	}
	if ov.DisableHalation {
		u.Extract[3] = 0
	}
	if ov.DisableBorder {
		u.Fx2[3] = 0
	}
	return u
}

// setTextureFlags fills the lanes that depend on loaded textures rather
// than the edit state.
func setTextureFlags(u *gpu.Uniforms, hasLUT bool, lutSize int) {
	if hasLUT {
		u.Presence1[3] = 1
		u.Split1[3] = float32(lutSize)
	}
}

// extractThreshold combines the bloom and halation thresholds into the
// shared bright-extract cutoff. When both effects are active the lower
// threshold wins, so neither effect loses the regions it would have
// extracted alone.
func extractThreshold(state *EditState) float32 {
	switch {
	case state.Bloom.Amount > 0 && state.Halation.Amount > 0:
		return math32.Min(state.Bloom.Threshold, state.Halation.Threshold) * 0.01
	case state.Bloom.Amount > 0:
		return state.Bloom.Threshold * 0.01
	case state.Halation.Amount > 0:
		return state.Halation.Threshold * 0.01
	default:
		return 0
	}
}

// geometryMatrix composes quarter-turn rotation and flips into the 2x2
// source-UV matrix, row major.
func geometryMatrix(state *EditState) [4]float32 {
	var m [4]float32
	switch state.Rotation {
	case 90:
		m = [4]float32{0, -1, 1, 0}
	case 180:
		m = [4]float32{-1, 0, 0, -1}
	case 270:
		m = [4]float32{0, 1, -1, 0}
	default:
		m = [4]float32{1, 0, 0, 1}
	}
	if state.FlipH {
		m[0], m[1] = -m[0], -m[1]
	}
	if state.FlipV {
		m[2], m[3] = -m[2], -m[3]
	}
	return m
}

// cropWindow returns the source-UV crop rectangle, defaulting to the full
// frame.
func cropWindow(state *EditState) [4]float32 {
	if !state.Crop.Enabled() {
		return [4]float32{0, 0, 1, 1}
	}
	return [4]float32{state.Crop.X, state.Crop.Y, state.Crop.W, state.Crop.H}
}

// blurStep computes the separable-blur step vector for one direction. The
// kernel spread grows linearly with the effect radius; the step is
// expressed in UV units of the pass input.
func blurStep(radius float32, horizontal bool, w, h int) [2]float32 {
	spread := 1 + radius*0.06
	if horizontal {
		return [2]float32{spread / float32(max(w, 1)), 0}
	}
	return [2]float32{0, spread / float32(max(h, 1))}
}
