package darkroom

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gogpu/darkroom/internal/gpu"
)

// ErrRendererClosed is returned by operations on a closed renderer.
var ErrRendererClosed = errors.New("darkroom: renderer is closed")

// Renderer turns an edit state and a source image into graded frames. One
// renderer owns one GPU device (or borrows the host's), the compiled pass
// pipelines, the source and LUT textures, and the ping-pong targets for
// multi-pass effects.
//
// All methods are safe for concurrent use; renders and exports serialize on
// an internal mutex, so an in-flight frame always runs to completion before
// the next one starts.
type Renderer struct {
	mu sync.Mutex

	device    *gpu.Device
	pipelines *gpu.PipelineSet
	textures  *gpu.Textures
	targets   *gpu.Targets
	opts      rendererOptions

	// epoch anchors the elapsed-time uniform that keys the grain pattern.
	epoch time.Time

	// lastCurve is the curve whose samples are currently uploaded; the
	// LUT is regenerated only when the control points change.
	lastCurve ToneCurve
	curveOK   bool

	// pending holds the latest requested preview state; see Request.
	pending atomic.Pointer[EditState]

	closed bool
}

// New creates a renderer. Without [WithDevice] it initializes its own
// WebGPU instance and picks a high-performance adapter; construction fails
// with [gpu.ErrNoWebGPU] or [gpu.ErrNoAdapter] when no usable GPU exists.
// Shader compilation happens here, so a broken shader or an incompatible
// device surfaces as a construction error, never mid-frame.
func New(opts ...Option) (*Renderer, error) {
	o := defaultRendererOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var (
		dev *gpu.Device
		err error
	)
	if o.device != nil {
		dev = gpu.WrapDevice(o.device, o.queue)
	} else {
		dev, err = gpu.NewDevice()
		if err != nil {
			return nil, err
		}
	}

	pipelines, err := gpu.NewPipelineSet(dev, o.outputFormat)
	if err != nil {
		dev.Release()
		return nil, err
	}
	textures, err := gpu.NewTextures(dev, o.maxImageDim)
	if err != nil {
		pipelines.Release()
		dev.Release()
		return nil, err
	}

	return &Renderer{
		device:    dev,
		pipelines: pipelines,
		textures:  textures,
		targets:   gpu.NewTargets(dev),
		opts:      o,
		epoch:     time.Now(),
	}, nil
}

// SetImage replaces the source image. Images longer than the configured
// dimension cap are downsized aspect-preserving before upload; ImageSize
// reports the resulting dimensions. The previous source texture is
// destroyed before the new one is created.
func (r *Renderer) SetImage(img image.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRendererClosed
	}
	_, _, err := r.textures.SetImage(img)
	return err
}

// ImageSize returns the dimensions of the loaded source image after the
// dimension cap, or zeros before SetImage.
func (r *Renderer) ImageSize() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.textures.ImageSize()
}

// LoadLUT uploads an imported color LUT. The LUT applies to subsequent
// renders, blended by the state's LUTIntensity.
func (r *Renderer) LoadLUT(lut *ColorLUT) error {
	if err := lut.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRendererClosed
	}
	if err := r.textures.SetLUT(lut.Data, lut.Size); err != nil {
		return err
	}
	Logger().Info("color lut loaded", "size", lut.Size)
	return nil
}

// ClearLUT unloads the imported color LUT.
func (r *Renderer) ClearLUT() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.textures.ClearLUT()
}

// HasLUT reports whether a color LUT is loaded.
func (r *Renderer) HasLUT() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.textures.HasLUT()
}

// LUTData returns a copy of the loaded LUT's strip texels and its grid
// size, for handing the same LUT to another renderer instance. Returns nil
// and 0 when no LUT is loaded.
func (r *Renderer) LUTData() ([]byte, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.textures.LUTData(), r.textures.LUTSize()
}

// Render draws one frame of the given state into the target. Before an
// image has been set the call is a no-op. The whole frame, fast path or
// full multi-pass sequence, is encoded into a single command submission.
func (r *Renderer) Render(state *EditState, target Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.renderLocked(state, target)
}

func (r *Renderer) renderLocked(state *EditState, target Target) error {
	if r.closed {
		return ErrRendererClosed
	}
	if !r.textures.HasImage() {
		Logger().Debug("render skipped, no source image")
		return nil
	}
	if err := r.syncCurve(state); err != nil {
		return err
	}

	w, h := target.Size()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("darkroom: invalid target size %dx%d", w, h)
	}

	plan := PlanFrame(state)
	if plan.MultiPass() {
		// The pair is sized to the destination and reallocated only when
		// that size changes, never mid-frame.
		if err := r.targets.Ensure(w, h); err != nil {
			return err
		}
	}

	dst, err := target.Begin()
	if err != nil {
		return err
	}
	defer target.End()

	return r.encodeFrame(state, plan, target, dst, w, h)
}

// syncCurve re-samples and uploads the tone-curve LUT when the control
// points changed since the last upload.
func (r *Renderer) syncCurve(state *EditState) error {
	if r.curveOK && state.Curve.equal(&r.lastCurve) {
		return nil
	}
	if err := r.textures.UpdateCurveLUT(curveLUTBytes(&state.Curve)); err != nil {
		return err
	}
	r.lastCurve = state.Curve.Clone()
	r.curveOK = true
	Logger().Debug("tone-curve lut regenerated")
	return nil
}

// frameStep is one fully resolved pass: pipeline, destination, and bound
// resources.
type frameStep struct {
	kind     PassKind
	pipeline gpu.PipelineKind
	dst      *wgpu.TextureView
	bind     *wgpu.BindGroup
}

// encodeFrame resolves every pass of the plan into concrete pipelines,
// targets, and bind groups, then encodes and submits them as one command
// buffer. Each pass has its own uniform slot, so no pass can observe a
// later pass's parameters.
func (r *Renderer) encodeFrame(state *EditState, plan PassPlan, target Target, dst *wgpu.TextureView, w, h int) error {
	srcW, srcH := r.textures.ImageSize()
	multi := plan.MultiPass()
	elapsed := float32(time.Since(r.epoch).Seconds())
	curveIdentity := state.Curve.IsIdentity()

	// Off-screen targets share the intermediate format and can reuse the
	// intermediate grade pipeline; only a destination in another format
	// (a BGRA swapchain, typically) needs the output variant.
	outputPipe := gpu.PipelineGradeOutput
	if target.Format() == gpu.IntermediateFormat {
		outputPipe = gpu.PipelineGrade
	}

	steps := make([]frameStep, 0, len(plan.Passes))
	releaseBinds := func() {
		for _, s := range steps {
			s.bind.Release()
		}
	}

	for slot, kind := range plan.Passes {
		ps := passSetup{
			outW: w, outH: h,
			elapsed:       elapsed,
			curveIdentity: curveIdentity,
		}
		var (
			pipeline gpu.PipelineKind
			dstView  *wgpu.TextureView
			srcView  *wgpu.TextureView
		)
		tapView := r.textures.PlaceholderView()

		switch kind {
		case PassBase:
			ps.applyGrade = true
			ps.srcW, ps.srcH = srcW, srcH
			srcView = r.textures.ImageView()
			if multi {
				pipeline, dstView = gpu.PipelineGrade, r.targets.A().View
			} else {
				pipeline, dstView = outputPipe, dst
				ps.flipY = target.FlippedY()
			}
		case PassExtract:
			pipeline = gpu.PipelineExtract
			srcView, dstView = r.targets.A().View, r.targets.B().View
			ps.srcW, ps.srcH = w, h
		case PassBlurH:
			pipeline = gpu.PipelineBlur
			srcView, dstView = r.targets.B().View, r.targets.A().View
			ps.srcW, ps.srcH = w, h
			ps.blurStep = blurStep(extractBlurRadius(state), true, w, h)
		case PassBlurV:
			pipeline = gpu.PipelineBlur
			srcView, dstView = r.targets.A().View, r.targets.B().View
			ps.srcW, ps.srcH = w, h
			ps.blurStep = blurStep(extractBlurRadius(state), false, w, h)
		case PassComposite:
			// Re-grades the source rather than reading the base target
			// back: the base grade's only consumer is the bright extract,
			// which freed target A for the blur by the time the composite
			// runs.
			pipeline = gpu.PipelineGrade
			ps.applyGrade = true
			ps.compositeTaps = true
			ps.srcW, ps.srcH = srcW, srcH
			srcView, dstView = r.textures.ImageView(), r.targets.A().View
			tapView = r.targets.B().View
		case PassFinal:
			pipeline = outputPipe
			srcView, dstView = r.targets.A().View, dst
			ps.srcW, ps.srcH = w, h
			ps.flipY = target.FlippedY()
		}

		u := marshalUniforms(state, overridesFor(kind, multi), ps)
		setTextureFlags(&u, r.textures.HasLUT(), r.textures.LUTSize())
		r.pipelines.WriteUniforms(slot, &u)

		bind, err := r.pipelines.BindGroup(slot, srcView, r.textures.CurveView(), r.textures.LUTView(), tapView)
		if err != nil {
			releaseBinds()
			return err
		}
		steps = append(steps, frameStep{kind: kind, pipeline: pipeline, dst: dstView, bind: bind})
	}

	encoder, err := r.device.Handle().CreateCommandEncoder(nil)
	if err != nil {
		releaseBinds()
		return fmt.Errorf("darkroom: creating command encoder: %w", err)
	}
	for _, s := range steps {
		pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			Label: "darkroom." + s.kind.String(),
			ColorAttachments: []wgpu.RenderPassColorAttachment{{
				View:       s.dst,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{A: 1},
			}},
		})
		pass.SetPipeline(r.pipelines.Pipeline(s.pipeline))
		pass.SetBindGroup(0, s.bind, nil)
		r.pipelines.SetQuad(pass)
		pass.Draw(4, 1, 0, 0)
		pass.End()
		pass.Release()
	}

	cmd, err := encoder.Finish(nil)
	encoder.Release()
	if err != nil {
		releaseBinds()
		return fmt.Errorf("darkroom: encoding frame: %w", err)
	}
	r.device.Queue().Submit(cmd)
	cmd.Release()
	releaseBinds()

	Logger().Debug("frame submitted",
		"passes", len(steps), "width", w, "height", h, "multipass", multi)
	return nil
}

// extractBlurRadius is the blur spread for the bright-pass chain. Bloom
// carries its own radius; halation without bloom uses a fixed wide spread
// matching the look of light scattering in the film base.
func extractBlurRadius(state *EditState) float32 {
	if state.Bloom.Amount > 0 {
		return state.Bloom.Radius
	}
	return 50
}

// Close releases every GPU resource the renderer owns. A device injected
// with [WithDevice] stays with the host. Close is idempotent; all other
// methods fail with [ErrRendererClosed] afterwards.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.targets.Release()
	r.textures.Release()
	r.pipelines.Release()
	r.device.Release()
	Logger().Info("renderer closed")
}
