// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"errors"
	"log/slog"

	"github.com/gogpu/c3d/attrib"
	"github.com/gogpu/c3d/buffer"
	"github.com/gogpu/c3d/render"
	"github.com/gogpu/c3d/shader"
	"github.com/gogpu/c3d/uniform"
)

// Common driver errors.
var (
	// ErrNotAvailable is returned when a requested driver is not registered
	// or cannot run on this host.
	ErrNotAvailable = errors.New("driver: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("driver: not initialized")

	// ErrUnknownTarget is returned for a handle the driver did not create.
	ErrUnknownTarget = errors.New("driver: unknown render target")

	// ErrUnsupportedProgram is returned by BindProgram for a program the
	// driver cannot run.
	ErrUnsupportedProgram = errors.New("driver: unsupported shader program")
)

// FrameFlags control frame begin and end.
type FrameFlags uint8

const (
	// FrameSyncDraw waits for the previous frame's drawing to finish.
	FrameSyncDraw FrameFlags = 1 << iota
	// FrameNonBlock returns immediately instead of waiting for the GPU.
	FrameNonBlock
)

// Driver is the set of primitive GPU operations an Instance is built on.
//
// A Driver is a global hardware context: Init and Fini bracket its use,
// and every other method is only valid between them. Drivers do no
// validation beyond what the hardware does; callers go through Instance.
type Driver interface {
	render.Backend
	uniform.RegisterWriter

	// Name returns the driver identifier (e.g., "software", "wgpu").
	Name() string

	// Init initializes the hardware context with a command buffer of the
	// given size in bytes.
	Init(cmdBufSize int) error

	// Fini releases the hardware context. It never fails.
	Fini()

	// FrameBegin starts a frame.
	FrameBegin(flags FrameFlags) error

	// FrameEnd submits the frame.
	FrameEnd(flags FrameFlags)

	// FrameDrawOn selects the target the following draws render into.
	// It reports false if the target cannot be drawn on.
	FrameDrawOn(h render.Handle) bool

	// BufInfo returns a copy of the bound buffer info.
	BufInfo() (buffer.Info, bool)

	// SetBufInfo copies info into the active binding.
	SetBufInfo(info *buffer.Info)

	// AttrInfo returns a copy of the bound attribute info.
	AttrInfo() (attrib.Info, bool)

	// SetAttrInfo copies info into the active binding.
	SetAttrInfo(info *attrib.Info)

	// DrawArrays draws count vertices starting at first.
	DrawArrays(prim buffer.Primitive, first, count int)

	// BindProgram makes p the active shader program.
	BindProgram(p *shader.Program) error

	// CreateTarget allocates a render target.
	CreateTarget(desc render.TargetDesc) (*render.Target, error)
}

// LoggerSetter is implemented by drivers that accept a logger.
type LoggerSetter interface {
	SetLogger(*slog.Logger)
}
