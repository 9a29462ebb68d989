// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/cogentcore/webgpu/wgpu"
	xdraw "golang.org/x/image/draw"
)

// ErrCurveLUTSize is returned when curve LUT data has the wrong length.
var ErrCurveLUTSize = errors.New("gpu: curve lut data has wrong length")

// CurveLUTWidth and CurveLUTRows fix the tone-curve LUT texture dimensions:
// 256 samples per channel, one row per channel (luma, red, green, blue).
const (
	CurveLUTWidth = 256
	CurveLUTRows  = 4
)

// texture bundles a wgpu texture with its sampled view.
type texture struct {
	tex  *wgpu.Texture
	view *wgpu.TextureView
}

func (t *texture) release() {
	if t == nil {
		return
	}
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.tex != nil {
		t.tex.Release()
		t.tex = nil
	}
}

// Textures owns the GPU textures behind one renderer: the source image, the
// tone-curve LUT, the optional imported color LUT, and a 1x1 placeholder
// bound wherever an optional texture is absent. No other component retains
// a texture handle beyond a render call.
type Textures struct {
	device *Device

	img    *texture
	imgW   int
	imgH   int
	maxDim int

	curve *texture

	lut     *texture
	lutSize int
	lutData []byte

	placeholder *texture
}

// NewTextures creates the texture set. The curve LUT starts as the identity
// mapping and the placeholder is allocated immediately so every bind group
// can be assembled before any image is set. maxDim caps the longer source
// edge; larger images are downsized before upload.
func NewTextures(device *Device, maxDim int) (*Textures, error) {
	t := &Textures{device: device, maxDim: maxDim}

	var err error
	t.placeholder, err = t.upload("darkroom.placeholder", 1, 1, []byte{255, 255, 255, 255})
	if err != nil {
		t.Release()
		return nil, err
	}

	identity := make([]byte, CurveLUTWidth*CurveLUTRows*4)
	for row := 0; row < CurveLUTRows; row++ {
		for i := 0; i < CurveLUTWidth; i++ {
			v := byte(i)
			o := (row*CurveLUTWidth + i) * 4
			identity[o], identity[o+1], identity[o+2], identity[o+3] = v, v, v, 0xFF
		}
	}
	if err := t.UpdateCurveLUT(identity); err != nil {
		t.Release()
		return nil, err
	}
	return t, nil
}

// upload creates an RGBA8 sampled texture and writes pix into it.
func (t *Textures) upload(label string, w, h int, pix []byte) (*texture, error) {
	dev := t.device.Handle()
	tex, err := dev.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: creating texture %s: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("gpu: creating view for %s: %w", label, err)
	}
	t.device.Queue().WriteTexture(
		tex.AsImageCopy(),
		pix,
		&wgpu.TextureDataLayout{Offset: 0, BytesPerRow: uint32(w * 4), RowsPerImage: uint32(h)},
		&wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
	)
	return &texture{tex: tex, view: view}, nil
}

// constrain returns the dimensions img will occupy after the max-dimension
// downsize, preserving aspect ratio. Images within the limit keep their
// size.
func constrain(w, h, maxDim int) (int, int) {
	if w <= maxDim && h <= maxDim {
		return w, h
	}
	if w >= h {
		return maxDim, max(h*maxDim/w, 1)
	}
	return max(w*maxDim/h, 1), maxDim
}

// SetImage replaces the source texture wholesale: the previous texture is
// destroyed first, then the new image is downsized to the dimension cap
// (aspect preserving, Catmull-Rom) and uploaded. It returns the
// post-constraint dimensions, which drive all subsequent sizing decisions.
func (t *Textures) SetImage(img image.Image) (int, int, error) {
	b := img.Bounds()
	w, h := constrain(b.Dx(), b.Dy(), t.maxDim)

	rgba, ok := img.(*image.RGBA)
	if !ok || b.Dx() != w || b.Dy() != h {
		scaled := image.NewRGBA(image.Rect(0, 0, w, h))
		if b.Dx() == w && b.Dy() == h {
			draw.Draw(scaled, scaled.Bounds(), img, b.Min, draw.Src)
		} else {
			xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, b, xdraw.Src, nil)
		}
		rgba = scaled
	}

	t.img.release()
	t.img = nil

	tex, err := t.upload("darkroom.source", w, h, rgba.Pix)
	if err != nil {
		return 0, 0, err
	}
	t.img = tex
	t.imgW, t.imgH = w, h
	logger().Info("source image set", "width", w, "height", h)
	return w, h, nil
}

// HasImage reports whether a source image has been uploaded.
func (t *Textures) HasImage() bool { return t.img != nil }

// ImageSize returns the post-constraint source dimensions.
func (t *Textures) ImageSize() (int, int) { return t.imgW, t.imgH }

// UpdateCurveLUT replaces the tone-curve LUT texels. data must be the
// RGBA8 bytes of a 256x4 texture (row per channel).
func (t *Textures) UpdateCurveLUT(data []byte) error {
	if len(data) != CurveLUTWidth*CurveLUTRows*4 {
		return fmt.Errorf("%w: %d", ErrCurveLUTSize, len(data))
	}
	// The fixed-size texture is written in place after first creation.
	if t.curve != nil {
		t.device.Queue().WriteTexture(
			t.curve.tex.AsImageCopy(),
			data,
			&wgpu.TextureDataLayout{Offset: 0, BytesPerRow: CurveLUTWidth * 4, RowsPerImage: CurveLUTRows},
			&wgpu.Extent3D{Width: CurveLUTWidth, Height: CurveLUTRows, DepthOrArrayLayers: 1},
		)
		return nil
	}
	tex, err := t.upload("darkroom.curvelut", CurveLUTWidth, CurveLUTRows, data)
	if err != nil {
		return err
	}
	t.curve = tex
	return nil
}

// SetLUT loads an imported color LUT: size is the cube grid resolution per
// axis and data the RGBA8 texels of the (size·size) x size strip texture.
// The raw bytes are retained for LUTData.
func (t *Textures) SetLUT(data []byte, size int) error {
	tex, err := t.upload("darkroom.colorlut", size*size, size, data)
	if err != nil {
		return err
	}
	t.lut.release()
	t.lut = tex
	t.lutSize = size
	t.lutData = append([]byte(nil), data...)
	return nil
}

// ClearLUT unloads the imported color LUT.
func (t *Textures) ClearLUT() {
	t.lut.release()
	t.lut = nil
	t.lutSize = 0
	t.lutData = nil
}

// HasLUT reports whether an imported LUT is loaded.
func (t *Textures) HasLUT() bool { return t.lut != nil }

// LUTSize returns the grid resolution of the loaded LUT, or 0.
func (t *Textures) LUTSize() int { return t.lutSize }

// LUTData returns a copy of the raw LUT bytes for reuse by another
// renderer instance, or nil when no LUT is loaded.
func (t *Textures) LUTData() []byte {
	if t.lutData == nil {
		return nil
	}
	return append([]byte(nil), t.lutData...)
}

// ImageView returns the source texture view, or nil before SetImage.
func (t *Textures) ImageView() *wgpu.TextureView {
	if t.img == nil {
		return nil
	}
	return t.img.view
}

// CurveView returns the tone-curve LUT view.
func (t *Textures) CurveView() *wgpu.TextureView { return t.curve.view }

// LUTView returns the imported LUT view, or the placeholder when absent so
// bind groups never carry a nil entry.
func (t *Textures) LUTView() *wgpu.TextureView {
	if t.lut == nil {
		return t.placeholder.view
	}
	return t.lut.view
}

// PlaceholderView returns the shared 1x1 placeholder view.
func (t *Textures) PlaceholderView() *wgpu.TextureView { return t.placeholder.view }

// Release frees every owned texture.
func (t *Textures) Release() {
	t.img.release()
	t.img = nil
	t.curve.release()
	t.curve = nil
	t.lut.release()
	t.lut = nil
	t.lutData = nil
	t.placeholder.release()
	t.placeholder = nil
}
