package darkroom

import (
	"bytes"
	"errors"
	"image"
	"image/draw"
	"image/png"
	"testing"

	"github.com/soypat/geometry/ms2"
)

// decodePNGPixels decodes a PNG into tightly packed RGBA bytes.
func decodePNGPixels(data []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba.Pix, nil
}

// testRenderer creates a renderer on a real GPU or skips the test.
func testRenderer(t *testing.T, opts ...Option) *Renderer {
	t.Helper()
	r, err := New(opts...)
	if err != nil {
		t.Skipf("no usable GPU: %v", err)
	}
	t.Cleanup(r.Close)
	return r
}

// gradientImage builds a deterministic RGBA test image.
func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := img.PixOffset(x, y)
			img.Pix[o] = byte(x * 255 / (w - 1))
			img.Pix[o+1] = byte(y * 255 / (h - 1))
			img.Pix[o+2] = byte((x + y) * 255 / (w + h - 2))
			img.Pix[o+3] = 255
		}
	}
	return img
}

func TestRender_NoImageIsNoop(t *testing.T) {
	r := testRenderer(t)
	target, err := r.NewTextureTarget(16, 16)
	if err != nil {
		t.Fatalf("NewTextureTarget: %v", err)
	}
	defer target.Release()

	s := DefaultEditState()
	if err := r.Render(&s, target); err != nil {
		t.Fatalf("Render before SetImage: %v", err)
	}
}

func TestRender_DefaultStateReproducesSource(t *testing.T) {
	r := testRenderer(t)
	src := gradientImage(32, 32)
	if err := r.SetImage(src); err != nil {
		t.Fatalf("SetImage: %v", err)
	}

	target, err := r.NewTextureTarget(32, 32)
	if err != nil {
		t.Fatalf("NewTextureTarget: %v", err)
	}
	defer target.Release()

	s := DefaultEditState()
	if err := r.Render(&s, target); err != nil {
		t.Fatalf("Render: %v", err)
	}
	pix, err := target.ReadPixels()
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	if len(pix) != 32*32*4 {
		t.Fatalf("len(pix) = %d, want %d", len(pix), 32*32*4)
	}

	// Bilinear sampling at matched size plus 8-bit quantization allows a
	// small per-channel error; anything larger means the identity state
	// altered the image.
	for i := range pix {
		d := int(pix[i]) - int(src.Pix[i])
		if d < -2 || d > 2 {
			t.Fatalf("pixel byte %d: got %d, want %d (±2)", i, pix[i], src.Pix[i])
		}
	}
}

func TestRender_IdentityCurveSkipMatchesSampledLUT(t *testing.T) {
	r := testRenderer(t)
	if err := r.SetImage(gradientImage(32, 32)); err != nil {
		t.Fatalf("SetImage: %v", err)
	}

	skipped, err := r.NewTextureTarget(32, 32)
	if err != nil {
		t.Fatal(err)
	}
	defer skipped.Release()
	s := DefaultEditState()
	if err := r.Render(&s, skipped); err != nil {
		t.Fatalf("render with structural identity curve: %v", err)
	}
	skippedPix, err := skipped.ReadPixels()
	if err != nil {
		t.Fatal(err)
	}

	// A redundant midpoint makes every channel evaluate to the identity
	// function while failing the structural check, so this render samples
	// the curve LUT instead of skipping it. Both paths must agree.
	sampled, err := r.NewTextureTarget(32, 32)
	if err != nil {
		t.Fatal(err)
	}
	defer sampled.Release()
	three := []ms2.Vec{{X: 0, Y: 0}, {X: 0.5, Y: 0.5}, {X: 1, Y: 1}}
	s.Curve = ToneCurve{
		Luma:  three,
		Red:   three,
		Green: three,
		Blue:  three,
	}
	if s.Curve.IsIdentity() {
		t.Fatal("three-point curve passed the structural identity check")
	}
	if err := r.Render(&s, sampled); err != nil {
		t.Fatalf("render with sampled identity curve: %v", err)
	}
	sampledPix, err := sampled.ReadPixels()
	if err != nil {
		t.Fatal(err)
	}

	for i := range skippedPix {
		d := int(skippedPix[i]) - int(sampledPix[i])
		if d < -2 || d > 2 {
			t.Fatalf("pixel byte %d: skipped %d vs sampled %d", i, skippedPix[i], sampledPix[i])
		}
	}
}

func TestRender_BloomPathKeepsOrientation(t *testing.T) {
	r := testRenderer(t)
	// Bright top half, dark bottom half: an orientation mistake between
	// the ping-pong passes would swap the halves.
	src := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			o := src.PixOffset(x, y)
			v := byte(230)
			if y >= 8 {
				v = 20
			}
			src.Pix[o], src.Pix[o+1], src.Pix[o+2], src.Pix[o+3] = v, v, v, 255
		}
	}
	if err := r.SetImage(src); err != nil {
		t.Fatalf("SetImage: %v", err)
	}

	target, err := r.NewTextureTarget(16, 16)
	if err != nil {
		t.Fatalf("NewTextureTarget: %v", err)
	}
	defer target.Release()

	s := DefaultEditState()
	s.Bloom.Amount = 40
	s.Bloom.Threshold = 60
	if err := r.Render(&s, target); err != nil {
		t.Fatalf("Render: %v", err)
	}
	pix, err := target.ReadPixels()
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}

	top := int(pix[(2*16+8)*4])     // row 2
	bottom := int(pix[(13*16+8)*4]) // row 13
	if top <= bottom {
		t.Fatalf("top row %d not brighter than bottom row %d; frame flipped?", top, bottom)
	}
}

func TestRender_SkippedStagesMatchFastPath(t *testing.T) {
	r := testRenderer(t)
	if err := r.SetImage(gradientImage(24, 24)); err != nil {
		t.Fatalf("SetImage: %v", err)
	}

	s := DefaultEditState()
	s.Exposure = 0.5
	s.Contrast = 20

	fast, err := r.NewTextureTarget(24, 24)
	if err != nil {
		t.Fatal(err)
	}
	defer fast.Release()
	if err := r.Render(&s, fast); err != nil {
		t.Fatalf("fast-path render: %v", err)
	}
	fastPix, err := fast.ReadPixels()
	if err != nil {
		t.Fatal(err)
	}

	// Zero-weight bloom forced through the multi-pass plan must land on
	// the same pixels the fast path produced.
	s.Bloom.Amount = 0.0001
	s.Bloom.Threshold = 100
	multi, err := r.NewTextureTarget(24, 24)
	if err != nil {
		t.Fatal(err)
	}
	defer multi.Release()
	if err := r.Render(&s, multi); err != nil {
		t.Fatalf("multi-pass render: %v", err)
	}
	multiPix, err := multi.ReadPixels()
	if err != nil {
		t.Fatal(err)
	}

	for i := range fastPix {
		d := int(fastPix[i]) - int(multiPix[i])
		if d < -2 || d > 2 {
			t.Fatalf("pixel byte %d: fast %d vs multi %d", i, fastPix[i], multiPix[i])
		}
	}
}

func TestExport_MatchesPreviewPixels(t *testing.T) {
	r := testRenderer(t)
	if err := r.SetImage(gradientImage(40, 30)); err != nil {
		t.Fatalf("SetImage: %v", err)
	}

	// No grain: its pattern is keyed on elapsed time, so it is the one
	// effect that legitimately differs between two renders.
	s := DefaultEditState()
	s.Exposure = 0.3
	s.Saturation = 25

	preview, err := r.NewTextureTarget(40, 30)
	if err != nil {
		t.Fatal(err)
	}
	defer preview.Release()
	if err := r.Render(&s, preview); err != nil {
		t.Fatalf("preview render: %v", err)
	}
	previewPix, err := preview.ReadPixels()
	if err != nil {
		t.Fatal(err)
	}

	res, err := r.Export(&s, ExportOptions{Format: FormatPNG})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Width != 40 || res.Height != 30 {
		t.Fatalf("export size = %dx%d, want 40x30", res.Width, res.Height)
	}
	if res.MIME != "image/png" {
		t.Errorf("MIME = %q, want image/png", res.MIME)
	}

	exported, err := decodePNGPixels(res.Data)
	if err != nil {
		t.Fatalf("decoding export: %v", err)
	}
	for i := range previewPix {
		d := int(previewPix[i]) - int(exported[i])
		if d < -2 || d > 2 {
			t.Fatalf("pixel byte %d: preview %d vs export %d", i, previewPix[i], exported[i])
		}
	}
}

func TestExport_ScaleAndCap(t *testing.T) {
	r := testRenderer(t)
	if err := r.SetImage(gradientImage(40, 20)); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	s := DefaultEditState()

	res, err := r.Export(&s, ExportOptions{Format: FormatJPEG, Scale: 0.5})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Width != 20 || res.Height != 10 {
		t.Errorf("scaled export = %dx%d, want 20x10", res.Width, res.Height)
	}

	res, err = r.Export(&s, ExportOptions{Format: FormatJPEG, MaxDimension: 10})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Width != 10 || res.Height != 5 {
		t.Errorf("capped export = %dx%d, want 10x5", res.Width, res.Height)
	}
}

func TestRequestRenderPending(t *testing.T) {
	r := testRenderer(t)
	if err := r.SetImage(gradientImage(16, 16)); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	target, err := r.NewTextureTarget(16, 16)
	if err != nil {
		t.Fatal(err)
	}
	defer target.Release()

	if drawn, err := r.RenderPending(target); err != nil || drawn {
		t.Fatalf("RenderPending with nothing pending = %v, %v", drawn, err)
	}

	// Two requests; only the newest renders.
	s := DefaultEditState()
	s.Exposure = -2
	r.Request(s)
	s.Exposure = 2
	r.Request(s)

	drawn, err := r.RenderPending(target)
	if err != nil || !drawn {
		t.Fatalf("RenderPending = %v, %v", drawn, err)
	}
	if drawn, _ := r.RenderPending(target); drawn {
		t.Error("second RenderPending drew a stale frame")
	}

	pix, err := target.ReadPixels()
	if err != nil {
		t.Fatal(err)
	}
	// +2 stops pushes the gradient bright; a mean this high is impossible
	// at -2 stops.
	var sum int
	for i := 0; i < len(pix); i += 4 {
		sum += int(pix[i])
	}
	if mean := sum * 4 / len(pix); mean < 100 {
		t.Errorf("mean red %d too dark; stale -2 stop frame rendered?", mean)
	}

	r.Request(s)
	r.CancelPending()
	if drawn, _ := r.RenderPending(target); drawn {
		t.Error("RenderPending drew a cancelled frame")
	}
}

func TestRenderer_Close(t *testing.T) {
	r := testRenderer(t)
	r.Close()
	r.Close() // idempotent

	s := DefaultEditState()
	if err := r.SetImage(gradientImage(8, 8)); !errors.Is(err, ErrRendererClosed) {
		t.Errorf("SetImage after Close = %v, want ErrRendererClosed", err)
	}
	if _, err := r.Export(&s, ExportOptions{}); !errors.Is(err, ErrRendererClosed) {
		t.Errorf("Export after Close = %v, want ErrRendererClosed", err)
	}
}
