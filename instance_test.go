// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package c3d

import (
	"encoding/binary"
	"errors"
	"image/color"
	"runtime"
	"slices"
	"testing"
	"time"

	"github.com/gogpu/c3d/attrib"
	"github.com/gogpu/c3d/buffer"
	"github.com/gogpu/c3d/driver"
	"github.com/gogpu/c3d/driver/software"
	"github.com/gogpu/c3d/math3d"
	"github.com/gogpu/c3d/render"
	"github.com/gogpu/c3d/shader"
	"github.com/gogpu/c3d/uniform"
)

var offscreen = render.TargetDesc{Width: 32, Height: 16, DepthFormat: render.DepthNone}

func newTestInstance(t *testing.T, opts ...software.Option) (*Instance, *software.Driver) {
	t.Helper()
	d := software.New(opts...)
	inst, err := New(WithDriver(d))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(inst.Close)
	return inst, d
}

// triangle returns attribute info and a slice of three float3 vertices.
func triangle(t *testing.T) (*attrib.Info, buffer.Slice) {
	t.Helper()
	var ai attrib.Info
	if _, err := ai.AddLoader(0, attrib.Float, 3); err != nil {
		t.Fatalf("AddLoader() error = %v", err)
	}
	var bi buffer.Info
	s, err := bi.Add(make([]byte, 3*12), 12, &ai)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	return &ai, s
}

// spirvBlob returns the smallest buffer ParseLibrary accepts as SPIR-V.
func spirvBlob() []byte {
	data := make([]byte, 20)
	binary.LittleEndian.PutUint32(data, shader.SPIRVMagic)
	return data
}

func TestNewSingleton(t *testing.T) {
	inst, _ := newTestInstance(t)

	if _, err := New(WithDriver(software.New())); !errors.Is(err, ErrInstanceExists) {
		t.Fatalf("second New() error = %v, want %v", err, ErrInstanceExists)
	}

	inst.Close()
	again, err := New(WithDriver(software.New()))
	if err != nil {
		t.Fatalf("New() after Close error = %v", err)
	}
	again.Close()
}

func TestNewErrors(t *testing.T) {
	initErr := errors.New("gpu busy")
	tests := []struct {
		name string
		opts []Option
	}{
		{"init fails", []Option{WithDriver(software.New(software.WithInitError(initErr)))}},
		{"unknown driver", []Option{WithDriverName("voodoo")}},
		{"zero cmdbuf", []Option{WithDriver(software.New()), WithCmdBufSize(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, err := New(tt.opts...)
			if !errors.Is(err, ErrInitialization) {
				t.Fatalf("New() error = %v, want %v", err, ErrInitialization)
			}
			if inst != nil {
				t.Error("New() returned an instance on failure")
			}
			// A failed New must not hold the singleton slot.
			ok, err := New(WithDriver(software.New()))
			if err != nil {
				t.Fatalf("New() after failure error = %v", err)
			}
			ok.Close()
		})
	}

	_, err := New(WithDriver(software.New(software.WithInitError(initErr))))
	if !errors.Is(err, initErr) {
		t.Errorf("New() error = %v, want it to wrap %v", err, initErr)
	}
}

func TestNewPassesCmdBufSize(t *testing.T) {
	d := software.New()
	inst, err := New(WithDriver(d), WithCmdBufSize(0x1000))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer inst.Close()

	calls := d.Calls()
	if len(calls) == 0 || calls[0].Op != software.OpInit || calls[0].Count != 0x1000 {
		t.Errorf("first call = %v, want Init(0x1000)", calls)
	}
}

func TestRenderFrameWith(t *testing.T) {
	inst, d := newTestInstance(t)
	d.ResetCalls()

	sentinel := errors.New("draw failed")
	err := inst.RenderFrameWith(func(inst *Instance) error {
		if !inst.InFrame() {
			t.Error("InFrame() = false inside frame")
		}
		if err := inst.RenderFrameWith(func(*Instance) error { return nil }); !errors.Is(err, ErrFrameInProgress) {
			t.Errorf("nested RenderFrameWith() error = %v, want %v", err, ErrFrameInProgress)
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("RenderFrameWith() error = %v, want %v", err, sentinel)
	}
	if inst.InFrame() {
		t.Error("InFrame() = true after frame")
	}

	want := []software.Op{software.OpFrameBegin, software.OpFrameEnd}
	if got := d.Ops(); !slices.Equal(got, want) {
		t.Errorf("ops = %v, want %v", got, want)
	}
	if got := d.Calls()[0].Flags; got != driver.FrameSyncDraw {
		t.Errorf("FrameBegin flags = %v, want %v", got, driver.FrameSyncDraw)
	}
}

func TestRenderFrameWithPanic(t *testing.T) {
	inst, d := newTestInstance(t)
	d.ResetCalls()

	func() {
		defer func() {
			if r := recover(); r != "boom" {
				t.Errorf("recover() = %v, want boom", r)
			}
		}()
		_ = inst.RenderFrameWith(func(*Instance) error {
			panic("boom")
		})
	}()

	want := []software.Op{software.OpFrameBegin, software.OpFrameEnd}
	if got := d.Ops(); !slices.Equal(got, want) {
		t.Errorf("ops = %v, want %v", got, want)
	}
	if d.InFrame() {
		t.Error("driver still in frame after panic")
	}
	if got := d.Stats().Frames; got != 1 {
		t.Errorf("Frames = %d, want 1", got)
	}
}

func TestRenderFrameWithFlags(t *testing.T) {
	d := software.New()
	inst, err := New(WithDriver(d), WithFrameFlags(driver.FrameNonBlock))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer inst.Close()

	if err := inst.RenderFrameWith(func(*Instance) error { return nil }); err != nil {
		t.Fatalf("RenderFrameWith() error = %v", err)
	}
	for _, c := range d.Calls() {
		if c.Op == software.OpFrameBegin && c.Flags != driver.FrameNonBlock {
			t.Errorf("FrameBegin flags = %v, want %v", c.Flags, driver.FrameNonBlock)
		}
	}
}

func TestSelectRenderTarget(t *testing.T) {
	inst, d := newTestInstance(t)

	target, err := inst.NewRenderTarget(offscreen)
	if err != nil {
		t.Fatalf("NewRenderTarget() error = %v", err)
	}
	if err := inst.SelectRenderTarget(target); err != nil {
		t.Fatalf("SelectRenderTarget() error = %v", err)
	}
	if got := d.DrawTarget(); got != target.Handle() {
		t.Errorf("DrawTarget() = %d, want %d", got, target.Handle())
	}

	// A target from another driver has a handle this driver does not know.
	other := software.New()
	if err := other.Init(0x1000); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer other.Fini()
	foreign, err := other.CreateTarget(offscreen)
	if err != nil {
		t.Fatalf("CreateTarget() error = %v", err)
	}

	target.Release()
	tests := []struct {
		name   string
		target *render.Target
	}{
		{"nil", nil},
		{"released", target},
		{"foreign", foreign},
		{"unknown handle", render.NewTarget(offscreen, 99, d)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := inst.SelectRenderTarget(tt.target); !errors.Is(err, ErrInvalidRenderTarget) {
				t.Errorf("SelectRenderTarget() error = %v, want %v", err, ErrInvalidRenderTarget)
			}
		})
	}

	// The instance stays usable after a rejected target.
	fresh, err := inst.NewRenderTarget(offscreen)
	if err != nil {
		t.Fatalf("NewRenderTarget() error = %v", err)
	}
	if err := inst.SelectRenderTarget(fresh); err != nil {
		t.Errorf("SelectRenderTarget() error = %v", err)
	}
}

func TestRenderTargetClear(t *testing.T) {
	inst, _ := newTestInstance(t)

	target, err := inst.NewRenderTarget(offscreen)
	if err != nil {
		t.Fatalf("NewRenderTarget() error = %v", err)
	}
	defer target.Release()

	if err := target.Clear(render.ClearAll, 0x68B0D8FF, 0); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	img, err := target.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	want := color.RGBA{R: 0x68, G: 0xB0, B: 0xD8, A: 0xFF}
	if got := img.RGBAAt(5, 5); got != want {
		t.Errorf("pixel = %v, want %v", got, want)
	}
}

func TestInfoRoundTrip(t *testing.T) {
	inst, _ := newTestInstance(t)

	if _, ok := inst.AttrInfo(); ok {
		t.Error("AttrInfo() set before SetAttrInfo")
	}
	ai, s := triangle(t)
	inst.SetAttrInfo(ai)
	got, ok := inst.AttrInfo()
	if !ok || got != *ai {
		t.Errorf("AttrInfo() = %v, %t, want %v", got, ok, *ai)
	}

	inst.SetBufferInfo(s.Info())
	bi, ok := inst.BufferInfo()
	if !ok || !bi.Equal(s.Info()) {
		t.Errorf("BufferInfo() = %v, %t, want equal to bound info", bi, ok)
	}

	inst.SetAttrInfo(nil)
	inst.SetBufferInfo(nil)
	if _, ok := inst.AttrInfo(); ok {
		t.Error("AttrInfo() still set after clearing")
	}
	if _, ok := inst.BufferInfo(); ok {
		t.Error("BufferInfo() still set after clearing")
	}
}

func TestDrawArrays(t *testing.T) {
	inst, d := newTestInstance(t)
	ai, s := triangle(t)

	if err := inst.DrawArrays(buffer.Triangles, s); !errors.Is(err, ErrFrameNotOpen) {
		t.Errorf("DrawArrays() outside frame error = %v, want %v", err, ErrFrameNotOpen)
	}

	err := inst.RenderFrameWith(func(inst *Instance) error {
		if err := inst.DrawArrays(buffer.Triangles, s); !errors.Is(err, ErrNoAttrInfo) {
			t.Errorf("DrawArrays() without attributes error = %v, want %v", err, ErrNoAttrInfo)
		}
		if err := inst.DrawArrays(buffer.Triangles, buffer.Slice{}); !errors.Is(err, ErrNoBufferInfo) {
			t.Errorf("DrawArrays() zero slice error = %v, want %v", err, ErrNoBufferInfo)
		}
		inst.SetAttrInfo(ai)
		sub, err := s.Sub(1, 2)
		if err != nil {
			return err
		}
		return inst.DrawArrays(buffer.TriangleStrip, sub)
	})
	if err != nil {
		t.Fatalf("RenderFrameWith() error = %v", err)
	}

	var draws []software.Call
	for _, c := range d.Calls() {
		if c.Op == software.OpDrawArrays {
			draws = append(draws, c)
		}
	}
	if len(draws) != 1 {
		t.Fatalf("recorded %d draws, want 1", len(draws))
	}
	if c := draws[0]; c.Primitive != buffer.TriangleStrip || c.Index != 1 || c.Count != 2 {
		t.Errorf("draw = %v, want DrawArrays(TriangleStrip, 1, 2)", c)
	}
	if bi, ok := inst.BufferInfo(); !ok || !bi.Equal(s.Info()) {
		t.Error("DrawArrays() did not bind the slice's buffer info")
	}
}

func TestBindUniform(t *testing.T) {
	inst, d := newTestInstance(t)

	m := math3d.Translate(1, 2, 3)
	inst.UpdateVertexUniformMat4x4(0x10, m)
	inst.BindVertexUniform(0x63, uniform.Int(math3d.NewIVec(1, 2, 3, 4)))
	inst.BindGeometryUniform(0x70, uniform.Bool(true))
	inst.BindGeometryUniform(0x78, uniform.Bool(true))

	vs := d.Registers(shader.Vertex)
	for i := range 4 {
		if got, want := vs.FloatAt(uniform.Index(0x10+i)), m.Row(i); got != want {
			t.Errorf("FloatAt(%#x) = %v, want %v", 0x10+i, got, want)
		}
	}
	if got, want := vs.IntAt(0x63), [4]int32{1, 2, 3, 4}; got != want {
		t.Errorf("IntAt(0x63) = %v, want %v", got, want)
	}
	gs := d.Registers(shader.Geometry)
	if !gs.BoolAt(0x70) || !gs.BoolAt(0x78) {
		t.Error("geometry bool registers 0x70 and 0x78 not set")
	}
	if vs.BoolAt(0x70) {
		t.Error("vertex bool register 0x70 set by geometry bind")
	}
}

func TestBindUniformPanics(t *testing.T) {
	tests := []struct {
		name  string
		index uniform.Index
		u     uniform.Uniform
		want  any
	}{
		{"bool past bank", 0x79, uniform.Bool(true), (*uniform.RangeError)(nil)},
		{"int in float bank", 0x10, uniform.Int(math3d.IVec{}), (*uniform.RangeError)(nil)},
		{"matrix overflow", 0x5E, uniform.Float4(math3d.Identity()), (*uniform.OverflowError)(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, d := newTestInstance(t)
			d.ResetCalls()
			defer func() {
				r := recover()
				err, ok := r.(error)
				if !ok {
					t.Fatalf("recover() = %v, want an error", r)
				}
				var re *uniform.RangeError
				var oe *uniform.OverflowError
				switch tt.want.(type) {
				case *uniform.RangeError:
					if !errors.As(err, &re) {
						t.Errorf("panic = %v, want *RangeError", err)
					}
				case *uniform.OverflowError:
					if !errors.As(err, &oe) {
						t.Errorf("panic = %v, want *OverflowError", err)
					}
				}
				if ops := d.Ops(); len(ops) != 0 {
					t.Errorf("ops after rejected bind = %v, want none", ops)
				}
			}()
			inst.BindVertexUniform(tt.index, tt.u)
		})
	}
}

func TestBindProgram(t *testing.T) {
	inst, d := newTestInstance(t)

	lib, err := shader.ParseLibrary(spirvBlob())
	if err != nil {
		t.Fatalf("ParseLibrary() error = %v", err)
	}
	prog, err := shader.NewProgram(lib.Get(0))
	if err != nil {
		t.Fatalf("NewProgram() error = %v", err)
	}
	if err := inst.BindProgram(prog); err != nil {
		t.Fatalf("BindProgram() error = %v", err)
	}
	if d.Program() != prog {
		t.Error("driver program not bound")
	}
}

func TestClose(t *testing.T) {
	d := software.New()
	inst, err := New(WithDriver(d))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	d.ResetCalls()

	err = inst.RenderFrameWith(func(inst *Instance) error {
		inst.Close()
		return nil
	})
	if err != nil {
		t.Fatalf("RenderFrameWith() error = %v", err)
	}
	inst.Close()

	want := []software.Op{software.OpFrameBegin, software.OpFrameEnd, software.OpFini}
	if got := d.Ops(); !slices.Equal(got, want) {
		t.Errorf("ops = %v, want %v", got, want)
	}

	if err := inst.RenderFrameWith(func(*Instance) error { return nil }); !errors.Is(err, ErrClosed) {
		t.Errorf("RenderFrameWith() after Close error = %v, want %v", err, ErrClosed)
	}
	if _, err := inst.NewRenderTarget(offscreen); !errors.Is(err, ErrClosed) {
		t.Errorf("NewRenderTarget() after Close error = %v, want %v", err, ErrClosed)
	}
	if err := inst.SelectRenderTarget(nil); !errors.Is(err, ErrClosed) {
		t.Errorf("SelectRenderTarget() after Close error = %v, want %v", err, ErrClosed)
	}
	func() {
		defer func() {
			if r := recover(); r != ErrClosed {
				t.Errorf("recover() = %v, want %v", r, ErrClosed)
			}
		}()
		inst.BindVertexUniform(0, uniform.Bool(true))
	}()
}

// collect runs the garbage collector until done reports true or a second
// has passed.
func collect(done func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for !done() {
		if time.Now().After(deadline) {
			return false
		}
		runtime.GC()
		time.Sleep(5 * time.Millisecond)
	}
	return true
}

func TestDroppedInstanceIsReclaimed(t *testing.T) {
	d := software.New()
	func() {
		if _, err := New(WithDriver(d)); err != nil {
			t.Fatalf("New() error = %v", err)
		}
	}()

	if !collect(func() bool { return !live.Load() }) {
		t.Fatal("slot still taken after the Instance became unreachable")
	}
	if got := d.Ops(); len(got) == 0 || got[len(got)-1] != software.OpFini {
		t.Errorf("Ops() = %v, want a trailing %v", got, software.OpFini)
	}
	if current.Load() != nil {
		t.Error("reclaimed driver still receives logger updates")
	}

	inst, err := New(WithDriver(software.New()))
	if err != nil {
		t.Fatalf("New() after reclaim error = %v", err)
	}
	inst.Close()
}

func TestClosedInstanceIsNotReclaimed(t *testing.T) {
	d := software.New()
	func() {
		inst, err := New(WithDriver(d))
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		inst.Close()
	}()

	// The slot is free, so a second Instance is live while the first is
	// collected; its slot must survive.
	next, err := New(WithDriver(software.New()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer next.Close()

	collect(func() bool { return false })
	if !live.Load() {
		t.Error("collecting a closed Instance released the live slot")
	}
	fini := 0
	for _, op := range d.Ops() {
		if op == software.OpFini {
			fini++
		}
	}
	if fini != 1 {
		t.Errorf("Fini called %d times, want 1", fini)
	}
}
