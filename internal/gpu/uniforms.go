package gpu

import "unsafe"

// Overrides suppresses individual effects for one pass. The render
// orchestrator uses it to keep an effect out of the shared grade shader
// when a dedicated multi-pass stage applies that effect instead; applying
// it in both places would double it. Overrides are never set by callers of
// the public API.
type Overrides struct {
	DisableVignette bool
	DisableGrain    bool
	DisableBlur     bool
	DisableBloom    bool
	DisableHalation bool
	DisableBorder   bool
}

// Uniforms is the complete per-pass shader parameter block. Every pass of
// every frame rewrites the whole block: stateless re-marshaling costs a few
// hundred bytes per pass and rules out stale-uniform bugs entirely.
//
// The layout is vec4-packed to match the WGSL uniform struct in
// shaders/header.wgsl byte for byte; the two declarations must be kept in
// sync. Field comments give the meaning of each lane.
type Uniforms struct {
	// Tone0: exposure (stops), contrast, highlights, shadows.
	Tone0 [4]float32
	// Tone1: whites, blacks, temperature, tint.
	Tone1 [4]float32
	// Presence0: clarity, texture, dehaze, vibrance.
	Presence0 [4]float32
	// Presence1: saturation, curve-identity flag, LUT intensity, has-LUT flag.
	Presence1 [4]float32
	// HSL: hue shift, saturation, luminance per band; lane w unused.
	// Band order: red, orange, yellow, green, aqua, blue, purple, magenta.
	HSL [8][4]float32
	// Split0: highlight hue, highlight sat, shadow hue, shadow sat.
	Split0 [4]float32
	// Split1: split balance, grade blending, grade balance, LUT grid size.
	Split1 [4]float32
	// Wheel lanes: hue (degrees), sat, lum, unused.
	WheelShadows    [4]float32
	WheelMidtones   [4]float32
	WheelHighlights [4]float32
	// Fx0: grain amount, grain size, grain roughness, vignette amount.
	Fx0 [4]float32
	// Fx1: vignette midpoint, vignette feather, vignette roundness, blur amount.
	Fx1 [4]float32
	// Fx2: bloom amount, halation amount, halation tint hue, border size.
	Fx2 [4]float32
	// BorderColor: straight-alpha border RGBA.
	BorderColor [4]float32
	// Detail0: sharpen amount, sharpen radius, NR luminance, NR color.
	Detail0 [4]float32
	// Geom0: row-major 2x2 source-UV matrix (rotation and flips).
	Geom0 [4]float32
	// Geom1: crop window x, y, w, h in source UV space.
	Geom1 [4]float32
	// Res: output width, output height, texel width, texel height.
	Res [4]float32
	// Extract: threshold, soft knee, bloom weight, halation weight.
	Extract [4]float32
	// Stage: apply-grade flag, flip-y flag, elapsed seconds, blur radius scale.
	Stage [4]float32
	// BlurDir: blur step x, blur step y; lanes z, w unused.
	BlurDir [4]float32
}

// UniformsSize is the byte size of the packed uniform block.
const UniformsSize = int(unsafe.Sizeof(Uniforms{}))

// Bytes returns the raw bytes of the block for queue.WriteBuffer. The
// returned slice aliases u and is only valid while u is live.
func (u *Uniforms) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(u)), UniformsSize)
}
