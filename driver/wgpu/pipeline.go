// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/c3d/attrib"
	"github.com/gogpu/c3d/buffer"
	"github.com/gogpu/c3d/internal/cache"
	"github.com/gogpu/c3d/shader"
)

// maxPipelines is the soft limit of the pipeline cache.
const maxPipelines = 64

// registerWGSL emulates a minimal PICA200 vertex program on the register
// file: v0 is transformed by the four float registers starting at b.y, and
// v1 (when present) is the vertex colour. Clip-space z is negated to map
// the PICA200 [-1, 0] depth range onto WebGPU's [0, 1].
const registerWGSL = `
struct Registers {
    f: array<vec4<f32>, 96>,
    i: array<vec4<i32>, 4>,
    b: vec4<u32>,
}

@group(0) @binding(0) var<uniform> regs: Registers;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
}

fn project(pos: vec3<f32>) -> vec4<f32> {
    let base = regs.b.y;
    let p = vec4<f32>(pos, 1.0);
    return vec4<f32>(
        dot(regs.f[base].wzyx, p),
        dot(regs.f[base + 1u].wzyx, p),
        -dot(regs.f[base + 2u].wzyx, p),
        dot(regs.f[base + 3u].wzyx, p)
    );
}

@vertex
fn vs_color(@location(0) pos: vec3<f32>, @location(1) color: vec4<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = project(pos);
    out.color = color;
    return out;
}

@vertex
fn vs_plain(@location(0) pos: vec3<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = project(pos);
    out.color = vec4<f32>(1.0, 1.0, 1.0, 1.0);
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return in.color;
}
`

// Entry points of SPIR-V programs.
const (
	programVertexEntry   = "vs_main"
	programFragmentEntry = "fs_main"
)

var (
	errUnsupportedFormat = errors.New("wgpu: attribute format has no vertex format")
	errUnsupportedPrim   = errors.New("wgpu: primitive not supported")
	errMissingPosition   = errors.New("wgpu: built-in pipeline needs a position in v0")
)

// vertexFormat maps a loaded attribute to a WebGPU vertex format.
// 8- and 16-bit integer attributes are normalized, as the PICA200 loader
// converts them to float.
func vertexFormat(a attrib.Attribute) (gputypes.VertexFormat, error) {
	switch a.Format {
	case attrib.Float:
		switch a.Count {
		case 1:
			return gputypes.VertexFormatFloat32, nil
		case 2:
			return gputypes.VertexFormatFloat32x2, nil
		case 3:
			return gputypes.VertexFormatFloat32x3, nil
		case 4:
			return gputypes.VertexFormatFloat32x4, nil
		}
	case attrib.Byte:
		switch a.Count {
		case 2:
			return gputypes.VertexFormatSnorm8x2, nil
		case 4:
			return gputypes.VertexFormatSnorm8x4, nil
		}
	case attrib.UnsignedByte:
		switch a.Count {
		case 2:
			return gputypes.VertexFormatUnorm8x2, nil
		case 4:
			return gputypes.VertexFormatUnorm8x4, nil
		}
	case attrib.Short:
		switch a.Count {
		case 2:
			return gputypes.VertexFormatSnorm16x2, nil
		case 4:
			return gputypes.VertexFormatSnorm16x4, nil
		}
	}
	return 0, fmt.Errorf("%w: %v x%d", errUnsupportedFormat, a.Format, a.Count)
}

// topology returns the WebGPU topology a primitive is drawn with. Fans are
// drawn as indexed triangle lists.
func topology(p buffer.Primitive) (gputypes.PrimitiveTopology, error) {
	switch p {
	case buffer.Triangles, buffer.TriangleFan:
		return gputypes.PrimitiveTopologyTriangleList, nil
	case buffer.TriangleStrip:
		return gputypes.PrimitiveTopologyTriangleStrip, nil
	default:
		return 0, fmt.Errorf("%w: %v", errUnsupportedPrim, p)
	}
}

// vertexLayouts builds one vertex buffer layout per buffer. Attributes
// use their input register as shader location.
func vertexLayouts(bufs []buffer.Buffer) ([]gputypes.VertexBufferLayout, map[attrib.Register]bool, error) {
	layouts := make([]gputypes.VertexBufferLayout, 0, len(bufs))
	regs := make(map[attrib.Register]bool)
	for _, b := range bufs {
		attrs := b.Attribs.Attributes()
		layout := gputypes.VertexBufferLayout{
			ArrayStride: uint64(b.Stride), //nolint:gosec // G115: stride validated positive by buffer.Info.Add
			StepMode:    gputypes.VertexStepModeVertex,
		}
		for k, a := range attrs {
			if a.Fixed {
				continue
			}
			format, err := vertexFormat(a)
			if err != nil {
				return nil, nil, err
			}
			layout.Attributes = append(layout.Attributes, gputypes.VertexAttribute{
				Format:         format,
				Offset:         uint64(b.Attribs.Offset(k)), //nolint:gosec // G115: offset < stride
				ShaderLocation: uint32(a.Register),
			})
			regs[a.Register] = true
		}
		layouts = append(layouts, layout)
	}
	return layouts, regs, nil
}

// layoutKey identifies one vertex buffer layout.
type layoutKey struct {
	stride  int
	attribs attrib.Info
}

// pipelineKey identifies a cached render pipeline.
type pipelineKey struct {
	program *shader.Program
	topo    gputypes.PrimitiveTopology
	format  gputypes.TextureFormat
	layouts [buffer.MaxBuffers]layoutKey
	n       int
}

func newPipelineKey(p *shader.Program, topo gputypes.PrimitiveTopology, format gputypes.TextureFormat, bufs []buffer.Buffer) pipelineKey {
	k := pipelineKey{program: p, topo: topo, format: format, n: len(bufs)}
	for i, b := range bufs {
		k.layouts[i] = layoutKey{stride: b.Stride, attribs: b.Attribs}
	}
	return k
}

// pipelineCache owns the shader modules, layouts and pipelines created
// for a device.
type pipelineCache struct {
	device hal.Device

	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout

	builtin   hal.ShaderModule
	modules   map[*shader.Program]hal.ShaderModule
	pipelines *cache.Cache[pipelineKey, hal.RenderPipeline]

	// retired pipelines were evicted while a frame may still use them.
	// They are destroyed once the device is idle.
	retired []hal.RenderPipeline
}

func newPipelineCache(device hal.Device) (*pipelineCache, error) {
	c := &pipelineCache{
		device:  device,
		modules: make(map[*shader.Program]hal.ShaderModule),
	}
	c.pipelines = cache.New(maxPipelines, func(_ pipelineKey, rp hal.RenderPipeline) {
		c.retired = append(c.retired, rp)
	})

	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "c3d_registers_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group layout: %w", err)
	}
	c.bindLayout = bindLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "c3d_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		device.DestroyBindGroupLayout(bindLayout)
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	c.pipeLayout = pipeLayout
	return c, nil
}

// module returns the shader module for p, compiling the built-in register
// program for SHBIN programs.
func (c *pipelineCache) module(p *shader.Program) (hal.ShaderModule, bool, error) {
	if p == nil || p.Format() != shader.FormatSPIRV {
		m, err := c.builtinModule()
		return m, true, err
	}
	if m, ok := c.modules[p]; ok {
		return m, false, nil
	}
	m, err := c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "c3d_program",
		Source: hal.ShaderSource{SPIRV: p.Vertex().Words()},
	})
	if err != nil {
		return nil, false, fmt.Errorf("create shader module: %w", err)
	}
	c.modules[p] = m
	return m, false, nil
}

func (c *pipelineCache) builtinModule() (hal.ShaderModule, error) {
	if c.builtin != nil {
		return c.builtin, nil
	}
	lib, err := shader.CompileWGSL(registerWGSL)
	if err != nil {
		return nil, err
	}
	m, err := c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "c3d_register_program",
		Source: hal.ShaderSource{SPIRV: lib.Get(0).Words()},
	})
	if err != nil {
		return nil, fmt.Errorf("create built-in shader module: %w", err)
	}
	c.builtin = m
	return m, nil
}

// pipeline returns a render pipeline for drawing bufs with p.
func (c *pipelineCache) pipeline(p *shader.Program, prim buffer.Primitive, format gputypes.TextureFormat, bufs []buffer.Buffer) (hal.RenderPipeline, error) {
	topo, err := topology(prim)
	if err != nil {
		return nil, err
	}
	key := newPipelineKey(p, topo, format, bufs)
	return c.pipelines.GetOrCreate(key, func() (hal.RenderPipeline, error) {
		return c.createPipeline(p, topo, format, bufs)
	})
}

func (c *pipelineCache) createPipeline(p *shader.Program, topo gputypes.PrimitiveTopology, format gputypes.TextureFormat, bufs []buffer.Buffer) (hal.RenderPipeline, error) {
	layouts, regs, err := vertexLayouts(bufs)
	if err != nil {
		return nil, err
	}
	module, builtin, err := c.module(p)
	if err != nil {
		return nil, err
	}
	entry := programVertexEntry
	if builtin {
		if !regs[0] {
			return nil, errMissingPosition
		}
		entry = "vs_plain"
		if regs[1] {
			entry = "vs_color"
		}
	}

	rp, err := c.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "c3d_pipeline",
		Layout: c.pipeLayout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: entry,
			Buffers:    layouts,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: topo,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: programFragmentEntry,
			Targets: []gputypes.ColorTargetState{{
				Format:    format,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create render pipeline: %w", err)
	}
	slogger().Debug("wgpu: pipeline created", "entry", entry, "topology", topo, "buffers", len(bufs))
	return rp, nil
}

// releaseRetired destroys evicted objects. The device must be idle.
func (c *pipelineCache) releaseRetired() {
	for _, rp := range c.retired {
		c.device.DestroyRenderPipeline(rp)
	}
	c.retired = c.retired[:0]
}

// destroy frees everything the cache created.
func (c *pipelineCache) destroy() {
	c.pipelines.Clear()
	c.releaseRetired()
	for k, m := range c.modules {
		c.device.DestroyShaderModule(m)
		delete(c.modules, k)
	}
	if c.builtin != nil {
		c.device.DestroyShaderModule(c.builtin)
		c.builtin = nil
	}
	if c.pipeLayout != nil {
		c.device.DestroyPipelineLayout(c.pipeLayout)
		c.pipeLayout = nil
	}
	if c.bindLayout != nil {
		c.device.DestroyBindGroupLayout(c.bindLayout)
		c.bindLayout = nil
	}
}
