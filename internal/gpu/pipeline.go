// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	_ "embed"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Embedded WGSL shader sources. header.wgsl declares the parameter block,
// the shared bind group, and the full-screen quad vertex stage; each pass
// module is compiled with the header prepended.

//go:embed shaders/header.wgsl
var headerShaderSource string

//go:embed shaders/grade.wgsl
var gradeShaderSource string

//go:embed shaders/extract.wgsl
var extractShaderSource string

//go:embed shaders/blur.wgsl
var blurShaderSource string

// PipelineKind selects one of the compiled render pipelines.
type PipelineKind uint8

const (
	// PipelineGrade is the shared parametric grade shader targeting an
	// intermediate ping-pong texture, used by the base and composite
	// stages.
	PipelineGrade PipelineKind = iota

	// PipelineGradeOutput is the same grade shader targeting the
	// destination surface format, used by the single-pass fast path and
	// the final post stage.
	PipelineGradeOutput

	// PipelineExtract is the soft-knee bright extract.
	PipelineExtract

	// PipelineBlur is one direction of the separable Gaussian blur.
	PipelineBlur

	pipelineCount
)

// String returns the pipeline name for diagnostics.
func (k PipelineKind) String() string {
	switch k {
	case PipelineGrade:
		return "grade"
	case PipelineGradeOutput:
		return "grade-out"
	case PipelineExtract:
		return "extract"
	case PipelineBlur:
		return "blur"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// IntermediateFormat is the fixed format of every off-screen target.
const IntermediateFormat = wgpu.TextureFormatRGBA8Unorm

// StageSlots is the number of per-frame uniform buffer slots, one per
// potential pass of the longest plan. Writing each stage's parameters into
// its own buffer lets a whole frame submit as one command encoder without
// any write-after-read hazard between passes.
const StageSlots = 6

// PipelineSet owns everything compiled or allocated once at renderer
// initialization: shader modules, the bind group layout (the uniform-wiring
// analogue of a location map), one render pipeline per pass kind, the
// shared full-screen quad vertex buffers, the sampler, and the per-stage
// uniform buffers. Built once, never mutated after.
type PipelineSet struct {
	device *Device

	layout     *wgpu.BindGroupLayout
	pipeLayout *wgpu.PipelineLayout
	pipelines  [pipelineCount]*wgpu.RenderPipeline

	// Shared unit-quad geometry: positions and texture coordinates in two
	// vertex buffers bound by every pass.
	quadPos *wgpu.Buffer
	quadUV  *wgpu.Buffer

	sampler  *wgpu.Sampler
	uniforms [StageSlots]*wgpu.Buffer
}

// quad vertex data, triangle strip. UV v=0 is the top edge so sampled
// images keep their top row at the top of the render target.
var (
	quadPositions = []float32{
		-1, -1,
		1, -1,
		-1, 1,
		1, 1,
	}
	quadTexCoords = []float32{
		0, 1,
		1, 1,
		0, 0,
		1, 0,
	}
)

// NewPipelineSet compiles all shaders and builds the render pipelines for
// the given color target format. Compilation is synchronous; any failure is
// fatal for the renderer being constructed and is returned as a
// *ShaderCompileError or *PipelineLinkError.
func NewPipelineSet(device *Device, format wgpu.TextureFormat) (*PipelineSet, error) {
	ps := &PipelineSet{device: device}
	if err := ps.init(format); err != nil {
		ps.Release()
		return nil, err
	}
	return ps, nil
}

func (ps *PipelineSet) init(format wgpu.TextureFormat) error {
	dev := ps.device.Handle()

	var err error
	ps.layout, err = dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "darkroom.pass",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    3,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    4,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    5,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: creating bind group layout: %w", err)
	}

	ps.pipeLayout, err = dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "darkroom.pass",
		BindGroupLayouts: []*wgpu.BindGroupLayout{ps.layout},
	})
	if err != nil {
		return fmt.Errorf("gpu: creating pipeline layout: %w", err)
	}

	builds := [pipelineCount]struct {
		source string
		format wgpu.TextureFormat
	}{
		PipelineGrade:       {gradeShaderSource, IntermediateFormat},
		PipelineGradeOutput: {gradeShaderSource, format},
		PipelineExtract:     {extractShaderSource, IntermediateFormat},
		PipelineBlur:        {blurShaderSource, IntermediateFormat},
	}
	for kind, b := range builds {
		k := PipelineKind(kind)
		module, err := compileShader(dev, k.String(), headerShaderSource+b.source)
		if err != nil {
			return err
		}
		ps.pipelines[kind], err = ps.buildPipeline(k, module, b.format)
		module.Release() // pipeline keeps its own reference
		if err != nil {
			return err
		}
	}

	ps.sampler, err = dev.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "darkroom.linear",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("gpu: creating sampler: %w", err)
	}

	ps.quadPos, err = dev.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "darkroom.quad.pos",
		Contents: wgpu.ToBytes(quadPositions),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return fmt.Errorf("gpu: creating quad position buffer: %w", err)
	}
	ps.quadUV, err = dev.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "darkroom.quad.uv",
		Contents: wgpu.ToBytes(quadTexCoords),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return fmt.Errorf("gpu: creating quad texcoord buffer: %w", err)
	}

	for i := range ps.uniforms {
		ps.uniforms[i], err = dev.CreateBuffer(&wgpu.BufferDescriptor{
			Label: fmt.Sprintf("darkroom.uniforms.%d", i),
			Size:  uint64(UniformsSize),
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("gpu: creating uniform buffer %d: %w", i, err)
		}
	}
	return nil
}

func (ps *PipelineSet) buildPipeline(kind PipelineKind, module *wgpu.ShaderModule, format wgpu.TextureFormat) (*wgpu.RenderPipeline, error) {
	pipeline, err := ps.device.Handle().CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "darkroom." + kind.String(),
		Layout: ps.pipeLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: 8,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					},
				},
				{
					ArrayStride: 8,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 1},
					},
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleStrip,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format: format,
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponentReplace,
						Alpha: wgpu.BlendComponentReplace,
					},
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
	})
	if err != nil {
		return nil, &PipelineLinkError{Label: kind.String(), Diagnostic: err.Error()}
	}
	return pipeline, nil
}

// Pipeline returns the compiled pipeline for kind.
func (ps *PipelineSet) Pipeline(kind PipelineKind) *wgpu.RenderPipeline {
	return ps.pipelines[kind]
}

// WriteUniforms uploads the packed parameter block into the uniform buffer
// for one stage slot.
func (ps *PipelineSet) WriteUniforms(slot int, u *Uniforms) {
	ps.device.Queue().WriteBuffer(ps.uniforms[slot], 0, u.Bytes())
}

// BindGroup assembles the resource bindings for one pass: the stage's
// uniform buffer, the shared sampler, and the four texture units. Absent
// textures must be passed as placeholder views, never nil. The caller
// releases the group after the frame's encoder is submitted.
func (ps *PipelineSet) BindGroup(slot int, src, curve, lut, tap *wgpu.TextureView) (*wgpu.BindGroup, error) {
	bg, err := ps.device.Handle().CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "darkroom.pass",
		Layout: ps.layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: ps.uniforms[slot], Size: wgpu.WholeSize},
			{Binding: 1, Sampler: ps.sampler},
			{Binding: 2, TextureView: src},
			{Binding: 3, TextureView: curve},
			{Binding: 4, TextureView: lut},
			{Binding: 5, TextureView: tap},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: creating bind group: %w", err)
	}
	return bg, nil
}

// SetQuad binds the shared quad geometry on a render pass. Every pass draws
// the same four vertices; no pass owns geometry of its own.
func (ps *PipelineSet) SetQuad(pass *wgpu.RenderPassEncoder) {
	pass.SetVertexBuffer(0, ps.quadPos, 0, wgpu.WholeSize)
	pass.SetVertexBuffer(1, ps.quadUV, 0, wgpu.WholeSize)
}

// Release frees all owned GPU objects. Safe on a partially constructed set.
func (ps *PipelineSet) Release() {
	for i, b := range ps.uniforms {
		if b != nil {
			b.Release()
			ps.uniforms[i] = nil
		}
	}
	if ps.quadUV != nil {
		ps.quadUV.Release()
		ps.quadUV = nil
	}
	if ps.quadPos != nil {
		ps.quadPos.Release()
		ps.quadPos = nil
	}
	if ps.sampler != nil {
		ps.sampler.Release()
		ps.sampler = nil
	}
	for i, p := range ps.pipelines {
		if p != nil {
			p.Release()
			ps.pipelines[i] = nil
		}
	}
	if ps.pipeLayout != nil {
		ps.pipeLayout.Release()
		ps.pipeLayout = nil
	}
	if ps.layout != nil {
		ps.layout.Release()
		ps.layout = nil
	}
}
