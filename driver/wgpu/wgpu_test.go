// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/c3d/attrib"
	"github.com/gogpu/c3d/buffer"
	"github.com/gogpu/c3d/driver"
	"github.com/gogpu/c3d/math3d"
	"github.com/gogpu/c3d/render"
	"github.com/gogpu/c3d/shader"
)

func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

// newTestDriver returns an initialized driver on a noop device.
func newTestDriver(t *testing.T) *Driver {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	d := NewWithDevice(device, queue)
	if err := d.Init(0x40000); err != nil {
		cleanup()
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() {
		d.Fini()
		cleanup()
	})
	return d
}

// spirvProgram returns a program whose vertex entry is a minimal SPIR-V
// module. The noop device accepts any code.
func spirvProgram(t *testing.T) *shader.Program {
	t.Helper()
	data := make([]byte, 20)
	binary.LittleEndian.PutUint32(data, shader.SPIRVMagic)
	lib, err := shader.ParseLibrary(data)
	if err != nil {
		t.Fatalf("ParseLibrary() error = %v", err)
	}
	p, err := shader.NewProgram(lib.Get(0))
	if err != nil {
		t.Fatalf("NewProgram() error = %v", err)
	}
	return p
}

// bindTriangle binds a three vertex position/colour buffer.
func bindTriangle(t *testing.T, d *Driver) {
	t.Helper()
	var attrs attrib.Info
	if _, err := attrs.AddLoader(0, attrib.Float, 3); err != nil {
		t.Fatal(err)
	}
	if _, err := attrs.AddLoader(1, attrib.UnsignedByte, 4); err != nil {
		t.Fatal(err)
	}
	var bufs buffer.Info
	if _, err := bufs.Add(make([]byte, 3*attrs.Stride()), attrs.Stride(), &attrs); err != nil {
		t.Fatal(err)
	}
	d.SetAttrInfo(&attrs)
	d.SetBufInfo(&bufs)
}

func newTarget(t *testing.T, d *Driver) *render.Target {
	t.Helper()
	tgt, err := d.CreateTarget(render.TargetDesc{Width: 64, Height: 32, DepthFormat: render.Depth24Stencil8})
	if err != nil {
		t.Fatalf("CreateTarget() error = %v", err)
	}
	return tgt
}

func TestRegistered(t *testing.T) {
	if !driver.IsRegistered(driver.NameWGPU) {
		t.Errorf("IsRegistered(%q) = false", driver.NameWGPU)
	}
}

func TestInitOpensBackendDevice(t *testing.T) {
	d := New(WithBackend(gputypes.BackendEmpty))
	if err := d.Init(0x1000); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer d.Fini()
	if d.Device() == nil {
		t.Error("Device() = nil after Init")
	}
	if d.Name() != driver.NameWGPU {
		t.Errorf("Name() = %q, want %q", d.Name(), driver.NameWGPU)
	}
}

func TestInitErrors(t *testing.T) {
	d := newTestDriver(t)
	if err := d.Init(0x1000); err == nil {
		t.Error("second Init() should fail")
	}

	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()
	if err := NewWithDevice(device, queue).Init(0); err == nil {
		t.Error("Init(0) should fail")
	}
}

func TestFrameLifecycle(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()
	if err := NewWithDevice(device, queue).FrameBegin(driver.FrameSyncDraw); !errors.Is(err, driver.ErrNotInitialized) {
		t.Errorf("FrameBegin() before Init error = %v, want %v", err, driver.ErrNotInitialized)
	}

	d := newTestDriver(t)
	if err := d.FrameBegin(driver.FrameSyncDraw); err != nil {
		t.Fatalf("FrameBegin() error = %v", err)
	}
	if err := d.FrameBegin(driver.FrameSyncDraw); !errors.Is(err, ErrFrameBegun) {
		t.Errorf("nested FrameBegin() error = %v, want %v", err, ErrFrameBegun)
	}
	d.FrameEnd(0)
	d.FrameEnd(0)
	if got := d.Stats().Frames; got != 1 {
		t.Errorf("Frames = %d, want 1", got)
	}
}

func TestDrawBookkeeping(t *testing.T) {
	d := newTestDriver(t)
	if err := d.BindProgram(spirvProgram(t)); err != nil {
		t.Fatalf("BindProgram() error = %v", err)
	}
	bindTriangle(t, d)
	a, b := newTarget(t, d), newTarget(t, d)

	if err := d.FrameBegin(driver.FrameSyncDraw); err != nil {
		t.Fatal(err)
	}
	if err := a.Clear(render.ClearAll, 0x000000FF, 0); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if !d.FrameDrawOn(a.Handle()) {
		t.Fatal("FrameDrawOn(a) = false")
	}
	d.DrawArrays(buffer.Triangles, 0, 3)
	d.DrawArrays(buffer.TriangleFan, 0, 3)
	if !d.FrameDrawOn(b.Handle()) {
		t.Fatal("FrameDrawOn(b) = false")
	}
	d.DrawArrays(buffer.TriangleStrip, 0, 3)
	d.DrawArrays(buffer.GeometryPrim, 0, 3)
	d.FrameEnd(0)

	want := Stats{Frames: 1, Passes: 2, Draws: 3, SkippedDraws: 1, Vertices: 9}
	if got := d.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
	// Fans are drawn as triangle lists and share the list pipeline.
	if s := d.pipes.pipelines.Stats(); s.Len != 2 || s.Hits != 1 {
		t.Errorf("pipeline cache = %+v, want 2 pipelines and 1 hit", s)
	}
}

func TestDrawOutsideFrameDropped(t *testing.T) {
	d := newTestDriver(t)
	bindTriangle(t, d)
	tgt := newTarget(t, d)
	d.FrameDrawOn(tgt.Handle())

	d.DrawArrays(buffer.Triangles, 0, 3)
	if got := d.Stats(); got.SkippedDraws != 1 || got.Draws != 0 {
		t.Errorf("Stats() = %+v, want one skipped draw", got)
	}
}

func TestDrawCapturesRegisters(t *testing.T) {
	d := newTestDriver(t)
	bindTriangle(t, d)
	tgt := newTarget(t, d)
	d.FrameDrawOn(tgt.Handle())

	if err := d.FrameBegin(driver.FrameSyncDraw); err != nil {
		t.Fatal(err)
	}
	d.FVUnifSet(shader.Vertex, 4, 1, 2, 3, 4)
	d.BoolUnifSet(shader.Vertex, 0x70, true)
	d.DrawArrays(buffer.Triangles, 0, 3)
	d.FVUnifSet(shader.Vertex, 4, 9, 9, 9, 9)

	snap := d.cmds[0].uniforms
	d.FrameEnd(0)

	if len(snap) != uniformSize {
		t.Fatalf("snapshot size = %d, want %d", len(snap), uniformSize)
	}
	// Lanes are stored W, Z, Y, X.
	var lanes [4]float32
	for lane, want := range []float32{4, 3, 2, 1} {
		lanes[lane] = math.Float32frombits(binary.LittleEndian.Uint32(snap[4*16+4*lane:]))
		if lanes[lane] != want {
			t.Errorf("f[4] lane %d = %v, want %v", lane, lanes[lane], want)
		}
	}
	if got, want := math3d.FromWZYX(lanes), math3d.V4(1, 2, 3, 4); got != want {
		t.Errorf("FromWZYX(f[4]) = %v, want %v", got, want)
	}
	if got := binary.LittleEndian.Uint32(snap[uniformSize-16:]); got != 1<<8 {
		t.Errorf("bool mask = %#x, want %#x", got, 1<<8)
	}
}

func TestUniformWritesOutsideFile(t *testing.T) {
	d := newTestDriver(t)
	d.FVUnifSet(shader.Vertex, 0x5F, 0, 0, 0, 0)
	d.FVUnifSet(shader.Vertex, 0x60, 0, 0, 0, 0)
	d.IVUnifSet(shader.Geometry, 0x63, 1, 2, 3, 4)
	d.IVUnifSet(shader.Geometry, 0x64, 1, 2, 3, 4)
	d.BoolUnifSet(shader.Vertex, 0x78, true)
	d.BoolUnifSet(shader.Vertex, 0x79, true)

	got := d.Stats()
	if got.UniformWrites != 3 || got.DroppedWrites != 3 {
		t.Errorf("writes = %d, dropped = %d, want 3 and 3", got.UniformWrites, got.DroppedWrites)
	}
	if d.regs[1].ints[3] != [4]int32{1, 2, 3, 4} {
		t.Errorf("geometry i[3] = %v", d.regs[1].ints[3])
	}
}

func TestUniformBase(t *testing.T) {
	p := spirvProgram(t)
	if base, ok := uniformBase(p); ok || base != 0 {
		t.Errorf("uniformBase() = (%d, %v), want (0, false)", base, ok)
	}
	if err := p.Vertex().DeclareUniform(ProjectionUniform, 0x08, 0x0B); err != nil {
		t.Fatal(err)
	}
	if base, ok := uniformBase(p); !ok || base != 0x08 {
		t.Errorf("uniformBase() = (%d, %v), want (8, true)", base, ok)
	}
}

func TestReadTarget(t *testing.T) {
	d := newTestDriver(t)
	tgt := newTarget(t, d)
	if err := tgt.Clear(render.ClearColor, 0xFF0000FF, 0); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	img, err := tgt.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 32 {
		t.Errorf("Snapshot() bounds = %v, want 64x32", img.Bounds())
	}

	tgt.Release()
	if _, err := d.ReadTarget(1); !errors.Is(err, driver.ErrUnknownTarget) {
		t.Errorf("ReadTarget() after release error = %v, want %v", err, driver.ErrUnknownTarget)
	}
	if d.FrameDrawOn(1) {
		t.Error("FrameDrawOn() on released target = true")
	}
}

func TestCreateTargetErrors(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()
	if _, err := NewWithDevice(device, queue).CreateTarget(render.TargetDesc{Width: 8, Height: 8}); !errors.Is(err, driver.ErrNotInitialized) {
		t.Errorf("CreateTarget() before Init error = %v, want %v", err, driver.ErrNotInitialized)
	}

	d := newTestDriver(t)
	if _, err := d.CreateTarget(render.TargetDesc{Width: 10, Height: 8}); !errors.Is(err, render.ErrInvalidDesc) {
		t.Errorf("CreateTarget() error = %v, want %v", err, render.ErrInvalidDesc)
	}
}

func TestBindProgram(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()
	if err := NewWithDevice(device, queue).BindProgram(nil); !errors.Is(err, driver.ErrNotInitialized) {
		t.Errorf("BindProgram() before Init error = %v, want %v", err, driver.ErrNotInitialized)
	}

	d := newTestDriver(t)
	if err := d.BindProgram(spirvProgram(t)); err != nil {
		t.Fatalf("BindProgram() error = %v", err)
	}
	if err := d.BindProgram(nil); err != nil {
		t.Errorf("BindProgram(nil) error = %v", err)
	}
}

func TestFanToList(t *testing.T) {
	tests := []struct {
		first, count int
		want         []uint32
	}{
		{0, 2, nil},
		{0, 3, []uint32{0, 1, 2}},
		{2, 5, []uint32{2, 3, 4, 2, 4, 5, 2, 5, 6}},
	}
	for _, tt := range tests {
		got := fanToList(tt.first, tt.count)
		if len(got) != len(tt.want) {
			t.Errorf("fanToList(%d, %d) = %v, want %v", tt.first, tt.count, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("fanToList(%d, %d) = %v, want %v", tt.first, tt.count, got, tt.want)
				break
			}
		}
	}
}

func TestVertexFormat(t *testing.T) {
	tests := []struct {
		attr    attrib.Attribute
		want    gputypes.VertexFormat
		wantErr bool
	}{
		{attrib.Attribute{Format: attrib.Float, Count: 3}, gputypes.VertexFormatFloat32x3, false},
		{attrib.Attribute{Format: attrib.UnsignedByte, Count: 4}, gputypes.VertexFormatUnorm8x4, false},
		{attrib.Attribute{Format: attrib.Byte, Count: 2}, gputypes.VertexFormatSnorm8x2, false},
		{attrib.Attribute{Format: attrib.Short, Count: 4}, gputypes.VertexFormatSnorm16x4, false},
		{attrib.Attribute{Format: attrib.UnsignedByte, Count: 3}, 0, true},
		{attrib.Attribute{Format: attrib.Short, Count: 1}, 0, true},
	}
	for _, tt := range tests {
		got, err := vertexFormat(tt.attr)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("vertexFormat(%v x%d) = (%v, %v), want %v", tt.attr.Format, tt.attr.Count, got, err, tt.want)
		}
	}
}

func TestBuiltinShaderCompiles(t *testing.T) {
	lib, err := shader.CompileWGSL(registerWGSL)
	if err != nil {
		t.Fatalf("CompileWGSL() error = %v", err)
	}
	if words := lib.Get(0).Words(); len(words) == 0 || words[0] != shader.SPIRVMagic {
		t.Error("built-in shader did not compile to SPIR-V")
	}
}

type fakeProvider struct {
	gpucontext.DeviceProvider
	device hal.Device
	queue  hal.Queue
}

func (p fakeProvider) HalDevice() any { return p.device }
func (p fakeProvider) HalQueue() any  { return p.queue }

func TestNewFromProvider(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	d, err := NewFromProvider(fakeProvider{device: device, queue: queue})
	if err != nil {
		t.Fatalf("NewFromProvider() error = %v", err)
	}
	if err := d.Init(0x1000); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	d.Fini()
	if d.Device() != device {
		t.Error("Fini() should leave a shared device in place")
	}

	if _, err := NewFromProvider(fakeProvider{}); err == nil {
		t.Error("NewFromProvider() without a device should fail")
	}

	type plain struct{ gpucontext.DeviceProvider }
	if _, err := NewFromProvider(plain{}); err == nil {
		t.Error("NewFromProvider() without HAL accessors should fail")
	}
}
