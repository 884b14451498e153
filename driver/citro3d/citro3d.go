// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build citro3d

package citro3d

/*
#cgo LDFLAGS: -lcitro3d -lctru -lm

#include <stdlib.h>
#include <string.h>
#include <3ds.h>
#include <citro3d.h>

#define C3D_DISPLAY_TRANSFER_FLAGS \
	(GX_TRANSFER_FLIP_VERT(0) | GX_TRANSFER_OUT_TILED(0) | GX_TRANSFER_RAW_COPY(0) | \
	GX_TRANSFER_IN_FORMAT(GX_TRANSFER_FMT_RGBA8) | GX_TRANSFER_OUT_FORMAT(GX_TRANSFER_FMT_RGB8) | \
	GX_TRANSFER_SCALING(GX_TRANSFER_SCALE_NO))

static C3D_RenderTarget* c3d_target_create(int w, int h, int color, int depth) {
	C3D_DEPTHTYPE d;
	d.__i = depth;
	return C3D_RenderTargetCreate(w, h, (GPU_COLORBUF)color, d);
}

static void c3d_target_output(C3D_RenderTarget* t, int screen, int side) {
	C3D_RenderTargetSetOutput(t, (gfxScreen_t)screen, (gfx3dSide_t)side, C3D_DISPLAY_TRANSFER_FLAGS);
}

static void* c3d_linear_copy(const void* src, size_t n) {
	void* dst = linearAlloc(n);
	if (dst) {
		memcpy(dst, src, n);
		GSPGPU_FlushDataCache(dst, n);
	}
	return dst;
}

static DVLE_s* c3d_dvle(DVLB_s* dvlb, int i) {
	return &dvlb->DVLE[i];
}
*/
import "C"

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"unsafe"

	"github.com/gogpu/c3d/attrib"
	"github.com/gogpu/c3d/buffer"
	"github.com/gogpu/c3d/driver"
	"github.com/gogpu/c3d/render"
	"github.com/gogpu/c3d/shader"
)

// init registers the citro3d driver on package import.
func init() {
	driver.Register(driver.NameCitro3D, func() driver.Driver {
		return New()
	})
}

// program is a shader program parsed into C memory. The code blob and the
// shaderProgram_s must stay put while the program may be bound.
type program struct {
	blob unsafe.Pointer
	dvlb *C.DVLB_s
	prog *C.shaderProgram_s
}

// Driver drives the PICA200 through citro3d. citro3d keeps its state in
// globals, so only one Driver may be initialized at a time.
type Driver struct {
	mu sync.Mutex

	initialized bool
	bufInfo     buffer.Info
	hasBuf      bool
	attrInfo    attrib.Info
	hasAttr     bool

	targets map[render.Handle]*C.C3D_RenderTarget
	next    render.Handle

	programs map[*shader.Program]*program
	linear   []unsafe.Pointer
	retired  []unsafe.Pointer
}

// New creates a citro3d driver. Init must be called before use.
func New() *Driver {
	return &Driver{
		targets:  make(map[render.Handle]*C.C3D_RenderTarget),
		programs: make(map[*shader.Program]*program),
	}
}

// SetLogger sets the logger for the citro3d package.
func (d *Driver) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// Name returns the driver identifier.
func (d *Driver) Name() string { return driver.NameCitro3D }

// Init calls C3D_Init.
func (d *Driver) Init(cmdBufSize int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		return errors.New("citro3d: already initialized")
	}
	if cmdBufSize <= 0 {
		return fmt.Errorf("citro3d: invalid command buffer size %d", cmdBufSize)
	}
	if !C.C3D_Init(C.size_t(cmdBufSize)) {
		return fmt.Errorf("citro3d: C3D_Init(%#x) failed", cmdBufSize)
	}
	d.initialized = true
	slogger().Info("citro3d: initialized", "cmdbuf", cmdBufSize)
	return nil
}

// Fini deletes remaining targets and programs and calls C3D_Fini.
func (d *Driver) Fini() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return
	}
	for h, t := range d.targets {
		C.C3D_RenderTargetDelete(t)
		delete(d.targets, h)
	}
	C.C3D_Fini()
	for p, prog := range d.programs {
		freeProgram(prog)
		delete(d.programs, p)
	}
	d.freeLinear(d.retired)
	d.freeLinear(d.linear)
	d.retired, d.linear = nil, nil
	d.hasBuf, d.hasAttr = false, false
	d.bufInfo, d.attrInfo = buffer.Info{}, attrib.Info{}
	d.initialized = false
	slogger().Info("citro3d: finalized")
}

func (d *Driver) freeLinear(ptrs []unsafe.Pointer) {
	for _, p := range ptrs {
		C.linearFree(p)
	}
}

// FrameBegin calls C3D_FrameBegin. Vertex memory replaced during the
// previous frame is freed once the GPU is synchronized.
func (d *Driver) FrameBegin(flags driver.FrameFlags) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return driver.ErrNotInitialized
	}
	if !C.C3D_FrameBegin(C.u8(flags)) {
		return errors.New("citro3d: C3D_FrameBegin failed")
	}
	if flags&driver.FrameSyncDraw != 0 {
		d.freeLinear(d.retired)
		d.retired = d.retired[:0]
	}
	return nil
}

// FrameEnd calls C3D_FrameEnd.
func (d *Driver) FrameEnd(flags driver.FrameFlags) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return
	}
	C.C3D_FrameEnd(C.u8(flags))
}

// FrameDrawOn calls C3D_FrameDrawOn.
func (d *Driver) FrameDrawOn(h render.Handle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.targets[h]
	if !ok {
		return false
	}
	return bool(C.C3D_FrameDrawOn(t))
}

// BufInfo returns a copy of the buffer info last set.
func (d *Driver) BufInfo() (buffer.Info, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bufInfo, d.hasBuf
}

// SetBufInfo copies every buffer into linear memory and writes the
// result into citro3d's active buffer info.
func (d *Driver) SetBufInfo(info *buffer.Info) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.retired = append(d.retired, d.linear...)
	d.linear = d.linear[:0]

	ci := C.C3D_GetBufInfo()
	C.BufInfo_Init(ci)
	if info == nil {
		d.bufInfo, d.hasBuf = buffer.Info{}, false
		return
	}
	for _, b := range info.Buffers() {
		mem := C.c3d_linear_copy(unsafe.Pointer(unsafe.SliceData(b.Data)), C.size_t(len(b.Data)))
		if mem == nil {
			slogger().Warn("citro3d: linear memory exhausted", "bytes", len(b.Data))
			continue
		}
		d.linear = append(d.linear, mem)
		C.BufInfo_Add(ci, mem, C.ptrdiff_t(b.Stride), C.int(b.AttribCount), C.u64(b.Permutation))
	}
	d.bufInfo, d.hasBuf = *info, true
}

// AttrInfo returns a copy of the attribute info last set.
func (d *Driver) AttrInfo() (attrib.Info, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attrInfo, d.hasAttr
}

// SetAttrInfo writes info into citro3d's active attribute info.
func (d *Driver) SetAttrInfo(info *attrib.Info) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ci := C.C3D_GetAttrInfo()
	C.AttrInfo_Init(ci)
	if info == nil {
		d.attrInfo, d.hasAttr = attrib.Info{}, false
		return
	}
	for _, a := range info.Attributes() {
		if a.Fixed {
			C.AttrInfo_AddFixed(ci, C.int(a.Register))
			continue
		}
		C.AttrInfo_AddLoader(ci, C.int(a.Register), C.GPU_FORMATS(a.Format), C.int(a.Count))
	}
	d.attrInfo, d.hasAttr = *info, true
}

// primitives maps buffer.Primitive to GPU_Primitive_t.
var primitives = [...]C.GPU_Primitive_t{
	buffer.Triangles:     C.GPU_TRIANGLES,
	buffer.TriangleStrip: C.GPU_TRIANGLE_STRIP,
	buffer.TriangleFan:   C.GPU_TRIANGLE_FAN,
	buffer.GeometryPrim:  C.GPU_GEOMETRY_PRIM,
}

// DrawArrays calls C3D_DrawArrays.
func (d *Driver) DrawArrays(prim buffer.Primitive, first, count int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if int(prim) >= len(primitives) {
		slogger().Warn("citro3d: unknown primitive", "primitive", prim)
		return
	}
	C.C3D_DrawArrays(primitives[prim], C.int(first), C.int(count))
}

// BindProgram parses the program's SHBIN and binds it. Parsed programs
// are cached until Fini.
func (d *Driver) BindProgram(p *shader.Program) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return driver.ErrNotInitialized
	}
	if p == nil {
		return fmt.Errorf("%w: nil program", driver.ErrUnsupportedProgram)
	}
	if p.Format() != shader.FormatSHBIN {
		return fmt.Errorf("%w: %v code needs a WebGPU device", driver.ErrUnsupportedProgram, p.Format())
	}
	prog, ok := d.programs[p]
	if !ok {
		var err error
		if prog, err = newProgram(p); err != nil {
			return err
		}
		d.programs[p] = prog
	}
	C.C3D_BindProgram(prog.prog)
	return nil
}

func newProgram(p *shader.Program) (*program, error) {
	code := p.Vertex().Code()
	// DVLB_ParseFile reads the blob as 32-bit words.
	size := (len(code) + 3) &^ 3
	blob := C.calloc(1, C.size_t(size))
	C.memcpy(blob, unsafe.Pointer(unsafe.SliceData(code)), C.size_t(len(code)))

	dvlb := C.DVLB_ParseFile((*C.u32)(blob), C.u32(size))
	if dvlb == nil {
		C.free(blob)
		return nil, fmt.Errorf("%w: DVLB_ParseFile failed", driver.ErrUnsupportedProgram)
	}
	prog := (*C.shaderProgram_s)(C.calloc(1, C.size_t(unsafe.Sizeof(C.shaderProgram_s{}))))
	C.shaderProgramInit(prog)
	C.shaderProgramSetVsh(prog, C.c3d_dvle(dvlb, C.int(p.Vertex().Index())))
	if g, stride := p.Geometry(); g != nil {
		C.shaderProgramSetGsh(prog, C.c3d_dvle(dvlb, C.int(g.Index())), C.u8(stride))
	}
	return &program{blob: blob, dvlb: dvlb, prog: prog}, nil
}

func freeProgram(p *program) {
	C.shaderProgramFree(p.prog)
	C.free(unsafe.Pointer(p.prog))
	C.DVLB_Free(p.dvlb)
	C.free(p.blob)
}

// FVUnifSet calls C3D_FVUnifSet.
func (d *Driver) FVUnifSet(stage shader.Type, index int, x, y, z, w float32) {
	C.C3D_FVUnifSet(C.GPU_SHADER_TYPE(stage), C.int(index), C.float(x), C.float(y), C.float(z), C.float(w))
}

// IVUnifSet calls C3D_IVUnifSet.
func (d *Driver) IVUnifSet(stage shader.Type, index int, x, y, z, w int32) {
	C.C3D_IVUnifSet(C.GPU_SHADER_TYPE(stage), C.int(index), C.int(x), C.int(y), C.int(z), C.int(w))
}

// BoolUnifSet calls C3D_BoolUnifSet.
func (d *Driver) BoolUnifSet(stage shader.Type, index int, value bool) {
	C.C3D_BoolUnifSet(C.GPU_SHADER_TYPE(stage), C.int(index), C.bool(value))
}

// CreateTarget calls C3D_RenderTargetCreate and, for screen targets,
// links the target to the screen's framebuffer.
func (d *Driver) CreateTarget(desc render.TargetDesc) (*render.Target, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return nil, driver.ErrNotInitialized
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	t := C.c3d_target_create(C.int(desc.Width), C.int(desc.Height), C.int(desc.ColorFormat), C.int(desc.DepthFormat))
	if t == nil {
		return nil, errors.New("citro3d: C3D_RenderTargetCreate failed")
	}
	switch desc.Screen {
	case render.TopLeft:
		C.c3d_target_output(t, C.GFX_TOP, C.GFX_LEFT)
	case render.TopRight:
		C.c3d_target_output(t, C.GFX_TOP, C.GFX_RIGHT)
	case render.Bottom:
		C.c3d_target_output(t, C.GFX_BOTTOM, C.GFX_LEFT)
	}

	d.next++
	h := d.next
	d.targets[h] = t
	slogger().Debug("citro3d: target created", "handle", h, "screen", desc.Screen)
	return render.NewTarget(desc, h, d), nil
}

// ClearTarget calls C3D_RenderTargetClear.
func (d *Driver) ClearTarget(h render.Handle, flags render.ClearFlags, rgba, depth uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.targets[h]
	if !ok {
		return fmt.Errorf("%w: %d", driver.ErrUnknownTarget, h)
	}
	C.C3D_RenderTargetClear(t, C.C3D_ClearBits(flags), C.u32(rgba), C.u32(depth))
	return nil
}

// ReadTarget is not supported: target memory is tiled VRAM.
func (d *Driver) ReadTarget(h render.Handle) (*image.RGBA, error) {
	return nil, fmt.Errorf("citro3d: read target %d: %w", h, errors.ErrUnsupported)
}

// DestroyTarget calls C3D_RenderTargetDelete.
func (d *Driver) DestroyTarget(h render.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.targets[h]
	if !ok {
		return
	}
	C.C3D_RenderTargetDelete(t)
	delete(d.targets, h)
}
