package darkroom

import "github.com/gogpu/darkroom/internal/gpu"

// PassKind identifies one stage of the per-frame pass sequence.
type PassKind uint8

const (
	// PassBase is the base grade: tone, white balance, curves, HSL,
	// presence, split toning, and grading wheels.
	PassBase PassKind = iota

	// PassExtract thresholds bright regions with a soft knee for the
	// bloom/halation chain.
	PassExtract

	// PassBlurH and PassBlurV are the two halves of the separable
	// Gaussian blur over the extracted bright regions.
	PassBlurH
	PassBlurV

	// PassComposite additively blends the blurred bright-pass back onto
	// the graded image.
	PassComposite

	// PassFinal applies vignette, grain, and border and writes to the
	// destination.
	PassFinal
)

// String returns the stage name for logging.
func (k PassKind) String() string {
	switch k {
	case PassBase:
		return "base"
	case PassExtract:
		return "extract"
	case PassBlurH:
		return "blur-h"
	case PassBlurV:
		return "blur-v"
	case PassComposite:
		return "composite"
	case PassFinal:
		return "final"
	default:
		return "unknown"
	}
}

// PassPlan is the explicit per-frame pass sequence, computed once from the
// edit state before any GPU work is issued. Conditional stages appear in the
// plan or not at all; the orchestrator never branches on effect amounts
// mid-frame.
type PassPlan struct {
	Passes []PassKind
}

// MultiPass reports whether the plan uses the off-screen ping-pong targets.
func (p PassPlan) MultiPass() bool {
	return len(p.Passes) > 1
}

// PlanFrame computes the pass plan for one frame of the given state.
//
// When both bloom and halation amounts are zero the bright-extract, blur,
// and composite stages are skipped as a unit and the base grade writes
// directly to the destination with every effect applied in-shader. The
// single-pass output is identical to running the full sequence with a zero
// bright-pass contribution.
func PlanFrame(state *EditState) PassPlan {
	if state.Bloom.Amount == 0 && state.Halation.Amount == 0 {
		return PassPlan{Passes: []PassKind{PassBase}}
	}
	return PassPlan{Passes: []PassKind{
		PassBase,
		PassExtract,
		PassBlurH,
		PassBlurV,
		PassComposite,
		PassFinal,
	}}
}

// overridesFor returns the effect suppressions for one stage of a
// multi-pass plan. An effect handled by a dedicated downstream stage must
// not also be applied by the shared grade shader, or it would be applied
// twice; the single-pass fast path runs with no overrides at all.
func overridesFor(kind PassKind, multiPass bool) gpu.Overrides {
	if !multiPass {
		return gpu.Overrides{}
	}
	switch kind {
	case PassBase:
		// Tone-only input for the bright extract. Blur, like the final
		// effects, is deferred to the stages that own it.
		return gpu.Overrides{
			DisableBloom:    true,
			DisableHalation: true,
			DisableBlur:     true,
			DisableVignette: true,
			DisableGrain:    true,
			DisableBorder:   true,
		}
	case PassComposite:
		// The composite stage itself applies bloom and halation from the
		// blurred bright-pass texture; the final stage owns the rest.
		return gpu.Overrides{
			DisableVignette: true,
			DisableGrain:    true,
			DisableBorder:   true,
		}
	case PassFinal:
		// Everything upstream is already composited; only vignette,
		// grain, and border remain.
		return gpu.Overrides{
			DisableBloom:    true,
			DisableHalation: true,
			DisableBlur:     true,
		}
	default:
		return gpu.Overrides{}
	}
}
