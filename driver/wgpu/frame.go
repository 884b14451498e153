// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/c3d/buffer"
	"github.com/gogpu/c3d/render"
	"github.com/gogpu/c3d/shader"
)

type cmdKind uint8

const (
	cmdClear cmdKind = iota
	cmdDraw
)

// command is one recorded frame operation.
type command struct {
	kind   cmdKind
	target render.Handle

	// cmdClear
	color gputypes.Color

	// cmdDraw
	prim     buffer.Primitive
	first    int
	count    int
	bufs     buffer.Info
	program  *shader.Program
	uniforms []byte
}

// frameResources are the per-frame GPU objects freed once the frame's
// submission has completed.
type frameResources struct {
	vertex     map[*byte]hal.Buffer
	buffers    []hal.Buffer
	bindGroups []hal.BindGroup
}

func (d *Driver) release(res *frameResources) {
	for _, bg := range res.bindGroups {
		d.device.DestroyBindGroup(bg)
	}
	for _, b := range res.buffers {
		d.device.DestroyBuffer(b)
	}
	d.pipes.releaseRetired()
}

// submit encodes cmds into render passes, submits them and waits for the
// device. A clear starts a new pass on its target; a draw continues the
// current pass when it renders into the same target.
func (d *Driver) submit(cmds []command) error {
	if len(cmds) == 0 {
		return nil
	}
	res := &frameResources{vertex: make(map[*byte]hal.Buffer)}
	defer d.release(res)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "c3d_frame_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("c3d_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	var (
		pass       hal.RenderPassEncoder
		passTarget render.Handle
	)
	endPass := func() {
		if pass != nil {
			pass.End()
			pass = nil
		}
	}
	for i := range cmds {
		c := &cmds[i]
		t, ok := d.targets[c.target]
		if !ok {
			continue
		}
		switch c.kind {
		case cmdClear:
			endPass()
			pass = encoder.BeginRenderPass(passDescriptor(t, gputypes.LoadOpClear, c.color))
			passTarget = c.target
			d.stats.Passes++
		case cmdDraw:
			if pass == nil || passTarget != c.target {
				endPass()
				pass = encoder.BeginRenderPass(passDescriptor(t, gputypes.LoadOpLoad, gputypes.Color{}))
				passTarget = c.target
				d.stats.Passes++
			}
			if err := d.recordDraw(pass, t, c, res); err != nil {
				d.stats.SkippedDraws++
				slogger().Warn("wgpu: draw skipped", "primitive", c.prim, "err", err)
				continue
			}
			d.stats.Draws++
			d.stats.Vertices += c.count
		}
	}
	endPass()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	if _, err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if err := d.device.WaitIdle(); err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	return nil
}

func passDescriptor(t *target, load gputypes.LoadOp, clear gputypes.Color) *hal.RenderPassDescriptor {
	return &hal.RenderPassDescriptor{
		Label: "c3d_target_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       t.view,
			LoadOp:     load,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: clear,
		}},
	}
}

// recordDraw binds the pipeline, the draw's register snapshot and its
// vertex buffers, then issues the draw.
func (d *Driver) recordDraw(pass hal.RenderPassEncoder, t *target, c *command, res *frameResources) error {
	bufs := c.bufs.Buffers()
	if len(bufs) == 0 {
		return fmt.Errorf("no vertex buffers bound")
	}
	pipeline, err := d.pipes.pipeline(c.program, c.prim, t.format, bufs)
	if err != nil {
		return err
	}
	bindGroup, err := d.uniformGroup(c.uniforms, res)
	if err != nil {
		return err
	}

	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	for slot, b := range bufs {
		vb, err := d.vertexBuffer(b.Data, res)
		if err != nil {
			return err
		}
		pass.SetVertexBuffer(uint32(slot), vb, 0) //nolint:gosec // G115: slot < buffer.MaxBuffers
	}

	if c.prim == buffer.TriangleFan {
		ib, n, err := d.fanIndices(c.first, c.count, res)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		pass.SetIndexBuffer(ib, gputypes.IndexFormatUint32, 0)
		pass.DrawIndexed(n, 1, 0, 0, 0)
		return nil
	}
	pass.Draw(uint32(c.count), 1, uint32(c.first), 0) //nolint:gosec // G115: validated by buffer.Slice
	return nil
}

// uniformGroup uploads a register snapshot and binds it.
func (d *Driver) uniformGroup(data []byte, res *frameResources) (hal.BindGroup, error) {
	ub, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "c3d_registers",
		Size:  uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create uniform buffer: %w", err)
	}
	res.buffers = append(res.buffers, ub)
	if err := d.queue.WriteBuffer(ub, 0, data); err != nil {
		return nil, fmt.Errorf("write uniform buffer: %w", err)
	}
	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "c3d_registers_bind",
		Layout: d.pipes.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: ub.NativeHandle(), Offset: 0, Size: uniformSize}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group: %w", err)
	}
	res.bindGroups = append(res.bindGroups, bg)
	return bg, nil
}

// vertexBuffer uploads vertex memory once per frame. Buffers sharing the
// same backing memory share one GPU buffer.
func (d *Driver) vertexBuffer(data []byte, res *frameResources) (hal.Buffer, error) {
	key := unsafe.SliceData(data)
	if vb, ok := res.vertex[key]; ok {
		return vb, nil
	}
	padded := data
	if rem := len(data) % 4; rem != 0 {
		padded = make([]byte, len(data)+4-rem)
		copy(padded, data)
	}
	vb, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "c3d_vertices",
		Size:  uint64(len(padded)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create vertex buffer: %w", err)
	}
	res.buffers = append(res.buffers, vb)
	if err := d.queue.WriteBuffer(vb, 0, padded); err != nil {
		return nil, fmt.Errorf("write vertex buffer: %w", err)
	}
	res.vertex[key] = vb
	return vb, nil
}

// fanIndices builds a triangle list index buffer for a fan of count
// vertices starting at first.
func (d *Driver) fanIndices(first, count int, res *frameResources) (hal.Buffer, uint32, error) {
	idx := fanToList(first, count)
	if len(idx) == 0 {
		return nil, 0, nil
	}
	data := make([]byte, 4*len(idx))
	for i, v := range idx {
		binary.LittleEndian.PutUint32(data[4*i:], v)
	}
	ib, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "c3d_fan_indices",
		Size:  uint64(len(data)),
		Usage: gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("create index buffer: %w", err)
	}
	res.buffers = append(res.buffers, ib)
	if err := d.queue.WriteBuffer(ib, 0, data); err != nil {
		return nil, 0, fmt.Errorf("write index buffer: %w", err)
	}
	return ib, uint32(len(idx)), nil //nolint:gosec // G115: bounded by vertex count
}

// fanToList returns triangle list indices for a fan.
func fanToList(first, count int) []uint32 {
	if count < 3 {
		return nil
	}
	out := make([]uint32, 0, 3*(count-2))
	for i := 1; i < count-1; i++ {
		//nolint:gosec // G115: vertex indices fit uint32
		out = append(out, uint32(first), uint32(first+i), uint32(first+i+1))
	}
	return out
}
