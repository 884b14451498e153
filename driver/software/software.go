// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/c3d/attrib"
	"github.com/gogpu/c3d/buffer"
	"github.com/gogpu/c3d/driver"
	"github.com/gogpu/c3d/render"
	"github.com/gogpu/c3d/shader"
)

// ErrFrameBegun is returned by FrameBegin while a frame is already open.
var ErrFrameBegun = errors.New("software: frame already begun")

// init registers the software driver on package import.
func init() {
	driver.Register(driver.NameSoftware, func() driver.Driver {
		return New()
	})
}

// Option configures a Driver.
type Option func(*Driver)

// WithInitError makes Init fail with err.
func WithInitError(err error) Option {
	return func(d *Driver) {
		d.initErr = err
	}
}

// WithMaxTargets limits how many targets may be live at once.
// CreateTarget fails beyond the limit. Zero means no limit.
func WithMaxTargets(n int) Option {
	return func(d *Driver) {
		d.maxTargets = n
	}
}

// Stats counts work done by the driver since Init.
type Stats struct {
	Frames        int
	Draws         int
	Vertices      int
	UniformWrites int
	DroppedWrites int
}

type target struct {
	desc  render.TargetDesc
	color *image.RGBA
	depth uint32
}

// Driver is a CPU reference implementation of driver.Driver.
//
// It keeps the state a real GPU would: uniform register files per stage,
// the bound buffer and attribute info, and colour buffers for targets.
// It does not rasterize; draws are recorded and counted.
type Driver struct {
	mu  sync.Mutex
	log atomic.Pointer[slog.Logger]

	initErr    error
	maxTargets int

	initialized bool
	cmdBufSize  int
	inFrame     bool
	drawOn      render.Handle

	bufInfo  buffer.Info
	hasBuf   bool
	attrInfo attrib.Info
	hasAttr  bool
	program  *shader.Program

	regs    [2]RegisterFile
	targets map[render.Handle]*target
	next    render.Handle

	stats Stats
	calls []Call
}

// New creates a software driver. Init must be called before use.
func New(opts ...Option) *Driver {
	d := &Driver{targets: make(map[render.Handle]*target)}
	d.log.Store(driver.NopLogger())
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetLogger sets the logger for the driver.
func (d *Driver) SetLogger(l *slog.Logger) {
	if l == nil {
		l = driver.NopLogger()
	}
	d.log.Store(l)
}

func (d *Driver) logger() *slog.Logger { return d.log.Load() }

// Name returns the driver identifier.
func (d *Driver) Name() string { return driver.NameSoftware }

// Init initializes the driver.
func (d *Driver) Init(cmdBufSize int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.record(Call{Op: OpInit, Count: cmdBufSize})
	if d.initErr != nil {
		return d.initErr
	}
	if d.initialized {
		return errors.New("software: already initialized")
	}
	if cmdBufSize <= 0 {
		return fmt.Errorf("software: invalid command buffer size %d", cmdBufSize)
	}
	d.initialized = true
	d.cmdBufSize = cmdBufSize
	d.stats = Stats{}
	d.logger().Info("software: initialized", "cmdbuf", cmdBufSize)
	return nil
}

// Fini releases all driver state. Targets still alive become invalid.
func (d *Driver) Fini() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.record(Call{Op: OpFini})
	if !d.initialized {
		return
	}
	d.initialized = false
	d.inFrame = false
	d.drawOn = 0
	d.hasBuf, d.hasAttr = false, false
	d.bufInfo, d.attrInfo = buffer.Info{}, attrib.Info{}
	d.program = nil
	d.regs = [2]RegisterFile{}
	clear(d.targets)
	d.logger().Info("software: finalized", "frames", d.stats.Frames)
}

// FrameBegin opens a frame.
func (d *Driver) FrameBegin(flags driver.FrameFlags) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.record(Call{Op: OpFrameBegin, Flags: flags})
	if !d.initialized {
		return driver.ErrNotInitialized
	}
	if d.inFrame {
		return ErrFrameBegun
	}
	d.inFrame = true
	return nil
}

// FrameEnd closes the frame. It does nothing outside a frame.
func (d *Driver) FrameEnd(flags driver.FrameFlags) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.record(Call{Op: OpFrameEnd, Flags: flags})
	if !d.inFrame {
		return
	}
	d.inFrame = false
	d.stats.Frames++
}

// FrameDrawOn selects the target for following draws. The selection
// persists across frames until another target is selected.
func (d *Driver) FrameDrawOn(h render.Handle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.record(Call{Op: OpFrameDrawOn, Target: h})
	if !d.initialized {
		return false
	}
	if _, ok := d.targets[h]; !ok {
		return false
	}
	d.drawOn = h
	return true
}

// BufInfo returns a copy of the bound buffer info.
func (d *Driver) BufInfo() (buffer.Info, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bufInfo, d.hasBuf
}

// SetBufInfo copies info into the active binding.
func (d *Driver) SetBufInfo(info *buffer.Info) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.record(Call{Op: OpSetBufInfo})
	if info == nil {
		d.bufInfo, d.hasBuf = buffer.Info{}, false
		return
	}
	d.bufInfo, d.hasBuf = *info, true
}

// AttrInfo returns a copy of the bound attribute info.
func (d *Driver) AttrInfo() (attrib.Info, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attrInfo, d.hasAttr
}

// SetAttrInfo copies info into the active binding.
func (d *Driver) SetAttrInfo(info *attrib.Info) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.record(Call{Op: OpSetAttrInfo})
	if info == nil {
		d.attrInfo, d.hasAttr = attrib.Info{}, false
		return
	}
	d.attrInfo, d.hasAttr = *info, true
}

// DrawArrays records a draw.
func (d *Driver) DrawArrays(prim buffer.Primitive, first, count int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.record(Call{Op: OpDrawArrays, Primitive: prim, Index: first, Count: count})
	d.stats.Draws++
	d.stats.Vertices += count
	d.logger().Debug("software: draw",
		"primitive", prim, "first", first, "count", count, "target", d.drawOn)
}

// BindProgram makes p the active program.
func (d *Driver) BindProgram(p *shader.Program) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.record(Call{Op: OpBindProgram})
	if !d.initialized {
		return driver.ErrNotInitialized
	}
	d.program = p
	return nil
}

// Program returns the bound program.
func (d *Driver) Program() *shader.Program {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.program
}

// FVUnifSet writes a float uniform register.
func (d *Driver) FVUnifSet(stage shader.Type, index int, x, y, z, w float32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.record(Call{Op: OpFVUnifSet, Stage: stage, Index: index, Float: [4]float32{x, y, z, w}})
	d.countWrite(d.file(stage).setFloat(index, x, y, z, w), stage, index)
}

// IVUnifSet writes an integer uniform register.
func (d *Driver) IVUnifSet(stage shader.Type, index int, x, y, z, w int32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.record(Call{Op: OpIVUnifSet, Stage: stage, Index: index, Int: [4]int32{x, y, z, w}})
	d.countWrite(d.file(stage).setInt(index, x, y, z, w), stage, index)
}

// BoolUnifSet writes a boolean uniform register.
func (d *Driver) BoolUnifSet(stage shader.Type, index int, value bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.record(Call{Op: OpBoolUnifSet, Stage: stage, Index: index, Bool: value})
	d.countWrite(d.file(stage).setBool(index, value), stage, index)
}

func (d *Driver) file(stage shader.Type) *RegisterFile {
	if stage == shader.Geometry {
		return &d.regs[1]
	}
	return &d.regs[0]
}

func (d *Driver) countWrite(ok bool, stage shader.Type, index int) {
	if ok {
		d.stats.UniformWrites++
		return
	}
	d.stats.DroppedWrites++
	d.logger().Warn("software: uniform write outside register file", "stage", stage, "index", index)
}

// Registers returns a copy of the stage's register file.
func (d *Driver) Registers(stage shader.Type) RegisterFile {
	d.mu.Lock()
	defer d.mu.Unlock()
	return *d.file(stage)
}

// CreateTarget allocates a target with a CPU colour buffer.
func (d *Driver) CreateTarget(desc render.TargetDesc) (*render.Target, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return nil, driver.ErrNotInitialized
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if d.maxTargets > 0 && len(d.targets) >= d.maxTargets {
		return nil, fmt.Errorf("software: target limit %d reached", d.maxTargets)
	}

	d.next++
	h := d.next
	d.targets[h] = &target{
		desc:  desc,
		color: image.NewRGBA(image.Rect(0, 0, desc.Width, desc.Height)),
	}
	d.record(Call{Op: OpCreateTarget, Target: h})
	return render.NewTarget(desc, h, d), nil
}

// ClearTarget fills the selected buffers.
func (d *Driver) ClearTarget(h render.Handle, flags render.ClearFlags, rgba, depth uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.record(Call{Op: OpClearTarget, Target: h})
	t, ok := d.targets[h]
	if !ok {
		return fmt.Errorf("%w: %d", driver.ErrUnknownTarget, h)
	}
	if flags&render.ClearColor != 0 {
		c := render.UnpackRGBA(rgba)
		pix := t.color.Pix
		for i := 0; i < len(pix); i += 4 {
			pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
		}
	}
	if flags&render.ClearDepth != 0 {
		t.depth = depth
	}
	return nil
}

// ReadTarget copies the target's colour buffer.
func (d *Driver) ReadTarget(h render.Handle) (*image.RGBA, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.targets[h]
	if !ok {
		return nil, fmt.Errorf("%w: %d", driver.ErrUnknownTarget, h)
	}
	out := image.NewRGBA(t.color.Rect)
	copy(out.Pix, t.color.Pix)
	return out, nil
}

// DestroyTarget frees the target.
func (d *Driver) DestroyTarget(h render.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.record(Call{Op: OpDestroyTarget, Target: h})
	delete(d.targets, h)
	if d.drawOn == h {
		d.drawOn = 0
	}
}

// DrawTarget returns the selected target, or zero if none is selected.
func (d *Driver) DrawTarget() render.Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.drawOn
}

// InFrame reports whether a frame is open.
func (d *Driver) InFrame() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inFrame
}

// Stats returns the work counters.
func (d *Driver) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

var _ driver.Driver = (*Driver)(nil)
