// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan" // register the Vulkan HAL backend

	"github.com/gogpu/c3d/attrib"
	"github.com/gogpu/c3d/buffer"
	"github.com/gogpu/c3d/driver"
	"github.com/gogpu/c3d/math3d"
	"github.com/gogpu/c3d/render"
	"github.com/gogpu/c3d/shader"
)

// ErrFrameBegun is returned by FrameBegin while a frame is already open.
var ErrFrameBegun = errors.New("wgpu: frame already begun")

// init registers the wgpu driver on package import.
func init() {
	driver.Register(driver.NameWGPU, func() driver.Driver {
		return New()
	})
}

// Option configures a Driver.
type Option func(*Driver)

// WithBackend selects the HAL backend Init opens a device on.
// The default is Vulkan.
func WithBackend(b gputypes.Backend) Option {
	return func(d *Driver) {
		d.backend = b
	}
}

// Stats counts work done by the driver since Init.
type Stats struct {
	Frames        int
	Passes        int
	Draws         int
	SkippedDraws  int
	Vertices      int
	UniformWrites int
	DroppedWrites int
}

type target struct {
	desc    render.TargetDesc
	format  gputypes.TextureFormat
	texture hal.Texture
	view    hal.TextureView
}

// Driver runs the PICA200 command model on a hal.Device.
type Driver struct {
	mu sync.Mutex

	backend  gputypes.Backend
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	external bool

	initialized bool
	inFrame     bool
	drawOn      render.Handle

	bufInfo  buffer.Info
	hasBuf   bool
	attrInfo attrib.Info
	hasAttr  bool
	program  *shader.Program

	regs    [2]registerFile
	targets map[render.Handle]*target
	next    render.Handle

	pipes *pipelineCache
	cmds  []command
	stats Stats
}

// New creates a driver that opens its own device during Init.
func New(opts ...Option) *Driver {
	d := &Driver{
		backend: gputypes.BackendVulkan,
		targets: make(map[render.Handle]*target),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewWithDevice creates a driver on a device owned by the caller.
// Fini releases the driver's resources but leaves the device open.
func NewWithDevice(device hal.Device, queue hal.Queue) *Driver {
	d := New()
	d.device = device
	d.queue = queue
	d.external = true
	return d
}

// NewFromProvider creates a driver sharing the device of a host
// application. The provider must also expose HalDevice() and HalQueue()
// returning hal.Device and hal.Queue.
func NewFromProvider(provider gpucontext.DeviceProvider) (*Driver, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("wgpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("wgpu: provider HalQueue is not hal.Queue")
	}
	return NewWithDevice(device, queue), nil
}

// SetLogger sets the logger for the wgpu package.
func (d *Driver) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// Name returns the driver identifier.
func (d *Driver) Name() string { return driver.NameWGPU }

// Init opens the device if the driver does not share one and creates the
// pipeline layout. cmdBufSize must be positive; the device sizes its own
// command buffers.
func (d *Driver) Init(cmdBufSize int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		return errors.New("wgpu: already initialized")
	}
	if cmdBufSize <= 0 {
		return fmt.Errorf("wgpu: invalid command buffer size %d", cmdBufSize)
	}
	if d.device == nil {
		if err := d.openDevice(); err != nil {
			return err
		}
	}
	pipes, err := newPipelineCache(d.device)
	if err != nil {
		d.closeDevice()
		return err
	}
	d.pipes = pipes
	d.initialized = true
	d.stats = Stats{}
	slogger().Info("wgpu: initialized", "backend", d.backend, "external", d.external)
	return nil
}

func (d *Driver) openDevice() error {
	backend, ok := hal.GetBackend(d.backend)
	if !ok {
		return fmt.Errorf("%w: %v backend not registered", driver.ErrNotAvailable, d.backend)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("%w: create instance: %w", driver.ErrNotAvailable, err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return fmt.Errorf("%w: no GPU adapters found", driver.ErrNotAvailable)
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("%w: open device: %w", driver.ErrNotAvailable, err)
	}
	d.instance = instance
	d.device = openDev.Device
	d.queue = openDev.Queue
	slogger().Info("wgpu: device opened", "adapter", selected.Info.Name)
	return nil
}

func (d *Driver) closeDevice() {
	if d.external {
		return
	}
	if d.device != nil {
		d.device.Destroy()
		d.device, d.queue = nil, nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}

// Fini releases every target, pipeline and, unless shared, the device.
// Commands of an unfinished frame are discarded.
func (d *Driver) Fini() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return
	}
	if err := d.device.WaitIdle(); err != nil {
		slogger().Warn("wgpu: wait idle", "err", err)
	}
	for h, t := range d.targets {
		d.destroyTarget(t)
		delete(d.targets, h)
	}
	d.pipes.destroy()
	d.pipes = nil
	d.closeDevice()

	d.initialized = false
	d.inFrame = false
	d.cmds = nil
	d.drawOn = 0
	d.hasBuf, d.hasAttr = false, false
	d.bufInfo, d.attrInfo = buffer.Info{}, attrib.Info{}
	d.program = nil
	d.regs = [2]registerFile{}
	slogger().Info("wgpu: finalized", "frames", d.stats.Frames)
}

// FrameBegin opens a frame. Commands are recorded until FrameEnd.
func (d *Driver) FrameBegin(flags driver.FrameFlags) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return driver.ErrNotInitialized
	}
	if d.inFrame {
		return ErrFrameBegun
	}
	d.inFrame = true
	d.cmds = d.cmds[:0]
	return nil
}

// FrameEnd encodes and submits the frame's commands and waits for the
// device to finish them. It does nothing outside a frame.
func (d *Driver) FrameEnd(flags driver.FrameFlags) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.inFrame {
		return
	}
	d.inFrame = false
	if err := d.submit(d.cmds); err != nil {
		slogger().Warn("wgpu: frame submit failed", "err", err)
	}
	d.cmds = d.cmds[:0]
	d.stats.Frames++
}

// FrameDrawOn selects the target for following draws. The selection
// persists across frames until another target is selected.
func (d *Driver) FrameDrawOn(h render.Handle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

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

	if info == nil {
		d.attrInfo, d.hasAttr = attrib.Info{}, false
		return
	}
	d.attrInfo, d.hasAttr = *info, true
}

// DrawArrays records a draw into the selected target. The vertex register
// file, buffer info and program are captured as they are now.
func (d *Driver) DrawArrays(prim buffer.Primitive, first, count int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.inFrame || d.drawOn == 0 || !d.hasBuf {
		d.stats.SkippedDraws++
		slogger().Warn("wgpu: draw dropped",
			"in_frame", d.inFrame, "target", d.drawOn, "has_buffers", d.hasBuf)
		return
	}
	base, _ := uniformBase(d.program)
	d.cmds = append(d.cmds, command{
		kind:     cmdDraw,
		target:   d.drawOn,
		prim:     prim,
		first:    first,
		count:    count,
		bufs:     d.bufInfo,
		program:  d.program,
		uniforms: d.regs[0].snapshot(base),
	})
	slogger().Debug("wgpu: draw",
		"primitive", prim, "first", first, "count", count, "target", d.drawOn)
}

// ProjectionUniform names the uniform holding the 4x4 matrix the built-in
// pipeline transforms v0 by. Its start register is passed to the shader
// in the register snapshot; without it the matrix is read from register 0.
const ProjectionUniform = "projection"

// uniformBase returns the first register of the program's projection
// matrix.
func uniformBase(p *shader.Program) (uint8, bool) {
	if p == nil {
		return 0, false
	}
	return p.Uniform(ProjectionUniform)
}

// BindProgram makes p the active program. Programs with a geometry stage
// are not supported.
func (d *Driver) BindProgram(p *shader.Program) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return driver.ErrNotInitialized
	}
	if p != nil {
		if g, _ := p.Geometry(); g != nil {
			return fmt.Errorf("%w: geometry shaders need a PICA200", driver.ErrUnsupportedProgram)
		}
		if p.Format() != shader.FormatSPIRV {
			slogger().Info("wgpu: SHBIN program runs on the built-in register pipeline")
		}
	}
	d.program = p
	return nil
}

// FVUnifSet writes a float uniform register.
func (d *Driver) FVUnifSet(stage shader.Type, index int, x, y, z, w float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.countWrite(d.file(stage).setFloat(index, math3d.V4(x, y, z, w)), stage, index)
}

// IVUnifSet writes an integer uniform register.
func (d *Driver) IVUnifSet(stage shader.Type, index int, x, y, z, w int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.countWrite(d.file(stage).setInt(index, [4]int32{x, y, z, w}), stage, index)
}

// BoolUnifSet writes a boolean uniform register.
func (d *Driver) BoolUnifSet(stage shader.Type, index int, value bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.countWrite(d.file(stage).setBool(index, value), stage, index)
}

func (d *Driver) file(stage shader.Type) *registerFile {
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
	slogger().Warn("wgpu: uniform write outside register file", "stage", stage, "index", index)
}

// Stats returns the work counters.
func (d *Driver) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Device returns the device the driver renders with, or nil before Init.
func (d *Driver) Device() hal.Device {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.device
}

// CreateTarget allocates an RGBA8 texture the size of the target.
func (d *Driver) CreateTarget(desc render.TargetDesc) (*render.Target, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return nil, driver.ErrNotInitialized
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	format := desc.ColorFormat.TextureFormat()
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label: "c3d_target",
		Size: hal.Extent3D{
			Width:              uint32(desc.Width),  //nolint:gosec // G115: validated <= MaxTargetSize
			Height:             uint32(desc.Height), //nolint:gosec // G115: validated <= MaxTargetSize
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create target texture: %w", err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: "c3d_target_view"})
	if err != nil {
		d.device.DestroyTexture(tex)
		return nil, fmt.Errorf("wgpu: create target view: %w", err)
	}

	d.next++
	h := d.next
	d.targets[h] = &target{desc: desc, format: format, texture: tex, view: view}
	slogger().Debug("wgpu: target created", "handle", h, "width", desc.Width, "height", desc.Height)
	return render.NewTarget(desc, h, d), nil
}

// ClearTarget clears the target's colour buffer. Inside a frame the clear
// is ordered with the frame's draws; outside a frame it is submitted
// immediately. Targets carry no depth buffer, so depth clears are no-ops.
func (d *Driver) ClearTarget(h render.Handle, flags render.ClearFlags, rgba, depth uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.targets[h]; !ok {
		return fmt.Errorf("%w: %d", driver.ErrUnknownTarget, h)
	}
	if flags&render.ClearColor == 0 {
		return nil
	}
	c := command{kind: cmdClear, target: h, color: clearColor(rgba)}
	if d.inFrame {
		d.cmds = append(d.cmds, c)
		return nil
	}
	return d.submit([]command{c})
}

// clearColor converts 0xRRGGBBAA to a normalized colour.
func clearColor(rgba uint32) gputypes.Color {
	c := render.UnpackRGBA(rgba)
	return gputypes.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
		A: float64(c.A) / 255,
	}
}

// DestroyTarget frees the target's texture.
func (d *Driver) DestroyTarget(h render.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.targets[h]
	if !ok {
		return
	}
	if d.inFrame {
		// Drop recorded commands that reference the texture.
		kept := d.cmds[:0]
		for _, c := range d.cmds {
			if c.target != h {
				kept = append(kept, c)
			}
		}
		d.cmds = kept
	}
	d.destroyTarget(t)
	delete(d.targets, h)
	if d.drawOn == h {
		d.drawOn = 0
	}
}

func (d *Driver) destroyTarget(t *target) {
	d.device.DestroyTextureView(t.view)
	d.device.DestroyTexture(t.texture)
}
