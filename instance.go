// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package c3d

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/gogpu/c3d/attrib"
	"github.com/gogpu/c3d/buffer"
	"github.com/gogpu/c3d/driver"
	"github.com/gogpu/c3d/math3d"
	"github.com/gogpu/c3d/render"
	"github.com/gogpu/c3d/shader"
	"github.com/gogpu/c3d/uniform"
)

// live is set while an Instance exists. The hardware context is global,
// so at most one Instance may be live in a process.
var live atomic.Bool

// Instance is the graphics context. It owns the driver and is the only
// way to reach it: every hardware operation goes through an Instance
// method.
//
// An Instance is not safe for concurrent use. The hardware has a single
// set of uniform registers and a single command stream, so callers must
// serialize access, typically by using the Instance from one goroutine.
type Instance struct {
	drv        driver.Driver
	frameFlags driver.FrameFlags
	inFrame    bool
	closed     bool
	cleanup    runtime.Cleanup
}

// New initializes the hardware and returns the process's Instance.
//
// It fails with ErrInstanceExists while another Instance is live, and
// with an error wrapping ErrInitialization when no driver is usable or
// the driver's Init fails. No Instance is produced on failure.
//
// Close must be called to finalize the hardware and release the slot. An
// Instance that becomes unreachable without Close is finalized when the
// garbage collector reclaims it, and a warning is logged; until then New
// keeps failing with ErrInstanceExists.
func New(opts ...Option) (*Instance, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.cmdBufSize <= 0 {
		return nil, fmt.Errorf("%w: invalid command buffer size %d", ErrInitialization, o.cmdBufSize)
	}
	if !live.CompareAndSwap(false, true) {
		return nil, ErrInstanceExists
	}

	drv, err := o.resolveDriver()
	if err != nil {
		live.Store(false)
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	if o.logger != nil {
		SetLogger(o.logger)
	}
	propagateLogger(drv, Logger())
	if err := drv.Init(o.cmdBufSize); err != nil {
		live.Store(false)
		return nil, fmt.Errorf("%w: %s: %w", ErrInitialization, drv.Name(), err)
	}
	ref := &driverRef{d: drv}
	current.Store(ref)

	inst := &Instance{drv: drv, frameFlags: o.frameFlags}
	inst.cleanup = runtime.AddCleanup(inst, reclaim, ref)
	Logger().Info("c3d: instance created", "driver", drv.Name(), "cmdbuf", o.cmdBufSize)
	return inst, nil
}

// reclaim finalizes the driver of an Instance dropped without Close and
// frees the singleton slot.
func reclaim(ref *driverRef) {
	Logger().Warn("c3d: instance garbage collected without Close", "driver", ref.d.Name())
	ref.d.Fini()
	current.CompareAndSwap(ref, nil)
	live.Store(false)
}

// Driver returns the driver the Instance runs on.
func (i *Instance) Driver() driver.Driver { return i.drv }

// NewRenderTarget creates a render target owned by the Instance's driver.
func (i *Instance) NewRenderTarget(desc render.TargetDesc) (*render.Target, error) {
	if i.closed {
		return nil, ErrClosed
	}
	return i.drv.CreateTarget(desc)
}

// SelectRenderTarget makes t the target of subsequent draws. It fails
// with ErrInvalidRenderTarget if t was released, belongs to another
// driver, or is rejected by the hardware; the Instance stays usable.
func (i *Instance) SelectRenderTarget(t *render.Target) error {
	if i.closed {
		return ErrClosed
	}
	h := t.Handle()
	if h == 0 {
		return fmt.Errorf("%w: target released or nil", ErrInvalidRenderTarget)
	}
	if t.Backend() != render.Backend(i.drv) {
		return fmt.Errorf("%w: target belongs to another driver", ErrInvalidRenderTarget)
	}
	if !i.drv.FrameDrawOn(h) {
		return fmt.Errorf("%w: handle %d rejected", ErrInvalidRenderTarget, h)
	}
	return nil
}

// RenderFrameWith begins a frame, calls f and ends the frame. The frame
// is ended exactly once, also when f returns an error or panics; a panic
// continues after the frame has ended. f's error is returned.
//
// Calling RenderFrameWith from inside f returns ErrFrameInProgress.
func (i *Instance) RenderFrameWith(f func(*Instance) error) error {
	if i.closed {
		return ErrClosed
	}
	if i.inFrame {
		return ErrFrameInProgress
	}
	if err := i.drv.FrameBegin(i.frameFlags); err != nil {
		return fmt.Errorf("c3d: begin frame: %w", err)
	}
	i.inFrame = true
	defer i.endFrame()

	return f(i)
}

// endFrame ends the open frame, if any. Close inside f ends the frame
// itself.
func (i *Instance) endFrame() {
	if !i.inFrame {
		return
	}
	i.inFrame = false
	i.drv.FrameEnd(0)
}

// InFrame reports whether a frame is open.
func (i *Instance) InFrame() bool { return i.inFrame }

// BufferInfo returns a copy of the active buffer info, or false if none
// is bound.
func (i *Instance) BufferInfo() (buffer.Info, bool) {
	if i.closed {
		return buffer.Info{}, false
	}
	return i.drv.BufInfo()
}

// SetBufferInfo copies info into the active binding. A nil info clears it.
func (i *Instance) SetBufferInfo(info *buffer.Info) {
	if i.closed {
		return
	}
	i.drv.SetBufInfo(info)
}

// AttrInfo returns a copy of the active attribute info, or false if none
// is bound.
func (i *Instance) AttrInfo() (attrib.Info, bool) {
	if i.closed {
		return attrib.Info{}, false
	}
	return i.drv.AttrInfo()
}

// SetAttrInfo copies info into the active binding. A nil info clears it.
func (i *Instance) SetAttrInfo(info *attrib.Info) {
	if i.closed {
		return
	}
	i.drv.SetAttrInfo(info)
}

// DrawArrays binds the slice's buffer info and draws its vertices.
//
// A frame must be open and attribute info must be set.
func (i *Instance) DrawArrays(prim buffer.Primitive, s buffer.Slice) error {
	switch {
	case i.closed:
		return ErrClosed
	case !i.inFrame:
		return ErrFrameNotOpen
	case s.Info() == nil:
		return ErrNoBufferInfo
	}
	if _, ok := i.drv.AttrInfo(); !ok {
		return ErrNoAttrInfo
	}
	i.drv.SetBufInfo(s.Info())
	i.drv.DrawArrays(prim, s.Index(), s.Len())
	return nil
}

// BindProgram makes p the active shader program.
func (i *Instance) BindProgram(p *shader.Program) error {
	if i.closed {
		return ErrClosed
	}
	if err := i.drv.BindProgram(p); err != nil {
		return fmt.Errorf("c3d: bind program: %w", err)
	}
	return nil
}

// BindUniform writes u to the stage's uniform registers starting at index.
//
// It panics with a *uniform.RangeError if index is outside u's register
// bank and with a *uniform.OverflowError if u does not fit before the end
// of the bank. Nothing is written in either case. Binding on a closed
// Instance panics with ErrClosed.
func (i *Instance) BindUniform(stage shader.Type, index uniform.Index, u uniform.Uniform) {
	if i.closed {
		panic(ErrClosed)
	}
	uniform.Bind(i.drv, stage, index, u)
}

// BindVertexUniform is BindUniform for the vertex stage.
func (i *Instance) BindVertexUniform(index uniform.Index, u uniform.Uniform) {
	i.BindUniform(shader.Vertex, index, u)
}

// BindGeometryUniform is BindUniform for the geometry stage.
func (i *Instance) BindGeometryUniform(index uniform.Index, u uniform.Uniform) {
	i.BindUniform(shader.Geometry, index, u)
}

// UpdateVertexUniformMat4x4 writes m to four vertex float registers
// starting at index. It is validated like BindUniform.
func (i *Instance) UpdateVertexUniformMat4x4(index uniform.Index, m math3d.Matrix4) {
	i.BindVertexUniform(index, uniform.Float4(m))
}

// Close ends an open frame, finalizes the driver and frees the singleton
// slot so that a new Instance may be created. Further calls do nothing.
func (i *Instance) Close() {
	if i.closed {
		return
	}
	i.cleanup.Stop()
	i.endFrame()
	i.drv.Fini()
	i.closed = true
	current.Store(nil)
	live.Store(false)
	Logger().Info("c3d: instance closed", "driver", i.drv.Name())
}
