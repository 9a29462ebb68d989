package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// RenderTarget is one off-screen color target: a texture usable both as a
// render attachment and as a sampled input for the next pass, plus its
// view.
type RenderTarget struct {
	Texture *wgpu.Texture
	View    *wgpu.TextureView
	Width   int
	Height  int
}

// NewRenderTarget allocates an RGBA8 render target of the given size. The
// texture is also copyable so export can read it back.
func NewRenderTarget(device *Device, label string, w, h int) (*RenderTarget, error) {
	tex, err := device.Handle().CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage: wgpu.TextureUsageRenderAttachment |
			wgpu.TextureUsageTextureBinding |
			wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: creating render target %s: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("gpu: creating render target view %s: %w", label, err)
	}
	return &RenderTarget{Texture: tex, View: view, Width: w, Height: h}, nil
}

// Release frees the target's texture and view.
func (rt *RenderTarget) Release() {
	if rt == nil {
		return
	}
	if rt.View != nil {
		rt.View.Release()
		rt.View = nil
	}
	if rt.Texture != nil {
		rt.Texture.Release()
		rt.Texture = nil
	}
}

// Targets owns the pair of equally sized ping-pong render targets used by
// multi-pass effects. The pair is reallocated only when the requested
// output size changes and never mid-frame; the size check in Ensure is the
// invariant that keeps multi-pass rendering free of per-frame allocation
// churn.
type Targets struct {
	device *Device

	width  int
	height int
	a      *RenderTarget
	b      *RenderTarget

	// generation counts reallocations, for tests and diagnostics.
	generation int
}

// NewTargets creates an empty manager; targets are allocated by the first
// Ensure call.
func NewTargets(device *Device) *Targets {
	return &Targets{device: device}
}

// Ensure makes the pair match the requested dimensions. It is a no-op when
// the size already matches; otherwise the existing pair is released and a
// fresh one allocated.
func (t *Targets) Ensure(w, h int) error {
	if t.a != nil && t.width == w && t.height == h {
		return nil
	}
	t.releasePair()

	a, err := NewRenderTarget(t.device, "darkroom.pingpong.a", w, h)
	if err != nil {
		return err
	}
	b, err := NewRenderTarget(t.device, "darkroom.pingpong.b", w, h)
	if err != nil {
		a.Release()
		return err
	}
	t.a, t.b = a, b
	t.width, t.height = w, h
	t.generation++
	logger().Debug("ping-pong targets allocated", "width", w, "height", h, "generation", t.generation)
	return nil
}

// A returns the first target. Nil until Ensure has run.
func (t *Targets) A() *RenderTarget { return t.a }

// B returns the second target. Nil until Ensure has run.
func (t *Targets) B() *RenderTarget { return t.b }

// Size returns the current allocation size, or zeros.
func (t *Targets) Size() (int, int) { return t.width, t.height }

// Generation returns the number of allocations performed so far.
func (t *Targets) Generation() int { return t.generation }

func (t *Targets) releasePair() {
	t.a.Release()
	t.a = nil
	t.b.Release()
	t.b = nil
}

// Release frees the pair.
func (t *Targets) Release() {
	t.releasePair()
	t.width, t.height = 0, 0
}
