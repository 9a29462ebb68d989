package darkroom

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gogpu/darkroom/internal/gpu"
)

// Target is a destination the renderer can draw a frame into.
//
// Two implementations are provided: [TextureTarget] for off-screen
// rendering with CPU readback, and [SurfaceTarget] for presenting to a
// host-configured window surface. A render call acquires the target's view
// with Begin, draws the full pass sequence, and calls End exactly once.
type Target interface {
	// Size returns the target dimensions in pixels.
	Size() (int, int)

	// Format returns the target's texture format.
	Format() wgpu.TextureFormat

	// Begin returns the texture view for the next frame.
	Begin() (*wgpu.TextureView, error)

	// End completes the frame: presenting for surfaces, a no-op for
	// textures. End is called even when the frame failed mid-sequence.
	End()

	// FlippedY reports whether the target presents with inverted rows
	// relative to sampled textures. The stage writing to such a target
	// flips the frame vertically so it presents upright.
	FlippedY() bool
}

// ErrTargetReleased is returned when rendering to a released target.
var ErrTargetReleased = errors.New("darkroom: target has been released")

// TextureTarget is an off-screen render destination backed by an RGBA8
// texture. Its contents can be read back to the CPU after a render.
type TextureTarget struct {
	renderer *Renderer
	rt       *gpu.RenderTarget
}

// NewTextureTarget allocates an off-screen target on the renderer's
// device.
func (r *Renderer) NewTextureTarget(width, height int) (*TextureTarget, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("darkroom: invalid target size %dx%d", width, height)
	}
	rt, err := gpu.NewRenderTarget(r.device, "darkroom.target", width, height)
	if err != nil {
		return nil, err
	}
	return &TextureTarget{renderer: r, rt: rt}, nil
}

// Size returns the target dimensions.
func (t *TextureTarget) Size() (int, int) {
	if t.rt == nil {
		return 0, 0
	}
	return t.rt.Width, t.rt.Height
}

// Format returns the fixed off-screen format.
func (t *TextureTarget) Format() wgpu.TextureFormat { return gpu.IntermediateFormat }

// Begin returns the backing texture view.
func (t *TextureTarget) Begin() (*wgpu.TextureView, error) {
	if t.rt == nil {
		return nil, ErrTargetReleased
	}
	return t.rt.View, nil
}

// End is a no-op for texture targets.
func (t *TextureTarget) End() {}

// FlippedY reports false: texture targets share the sampling orientation.
func (t *TextureTarget) FlippedY() bool { return false }

// ReadPixels blocks until the GPU is idle and returns the target's pixels
// as tightly packed RGBA rows, top row first.
func (t *TextureTarget) ReadPixels() ([]byte, error) {
	if t.rt == nil {
		return nil, ErrTargetReleased
	}
	return gpu.ReadTexture(t.renderer.device, t.rt.Texture, t.rt.Width, t.rt.Height)
}

// Release frees the backing texture.
func (t *TextureTarget) Release() {
	if t.rt != nil {
		t.rt.Release()
		t.rt = nil
	}
}

// SurfaceTarget presents frames to a host-owned window surface. The host
// creates and configures the surface (size, format, present mode) and
// reconfigures it on window resize; the renderer only acquires, draws, and
// presents. Configure the renderer with [WithOutputFormat] matching the
// surface format.
type SurfaceTarget struct {
	surface *wgpu.Surface
	format  wgpu.TextureFormat
	width   int
	height  int
	current *wgpu.Texture
	view    *wgpu.TextureView
}

// NewSurfaceTarget wraps a configured surface of the given size and
// format.
func NewSurfaceTarget(surface *wgpu.Surface, width, height int, format wgpu.TextureFormat) *SurfaceTarget {
	return &SurfaceTarget{surface: surface, width: width, height: height, format: format}
}

// Resize records a new surface size after the host reconfigures it.
func (t *SurfaceTarget) Resize(width, height int) {
	t.width = width
	t.height = height
}

// Size returns the configured surface dimensions.
func (t *SurfaceTarget) Size() (int, int) { return t.width, t.height }

// Format returns the configured surface format.
func (t *SurfaceTarget) Format() wgpu.TextureFormat { return t.format }

// Begin acquires the surface's next texture.
func (t *SurfaceTarget) Begin() (*wgpu.TextureView, error) {
	tex, err := t.surface.GetCurrentTexture()
	if err != nil {
		return nil, fmt.Errorf("darkroom: acquiring surface texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		return nil, fmt.Errorf("darkroom: creating surface view: %w", err)
	}
	t.current = tex
	t.view = view
	return view, nil
}

// End presents the acquired frame and drops the per-frame view.
func (t *SurfaceTarget) End() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.current != nil {
		t.surface.Present()
		t.current = nil
	}
}

// FlippedY reports false: WebGPU surfaces share the top-left origin of
// sampled textures.
func (t *SurfaceTarget) FlippedY() bool { return false }
