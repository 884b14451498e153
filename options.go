// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package c3d

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/c3d/driver"
)

// DefaultCmdBufSize is the command buffer size New uses unless
// WithCmdBufSize is given.
const DefaultCmdBufSize = 0x40000

// Option configures an Instance during creation.
//
// Example:
//
//	// Default driver, default command buffer
//	inst, err := c3d.New()
//
//	// Explicit driver and a larger command buffer
//	inst, err := c3d.New(c3d.WithDriverName("wgpu"), c3d.WithCmdBufSize(0x80000))
type Option func(*options)

// options holds optional configuration for Instance creation.
type options struct {
	cmdBufSize int
	driver     driver.Driver
	driverName string
	frameFlags driver.FrameFlags
	logger     *slog.Logger
}

// defaultOptions returns the default instance options.
func defaultOptions() options {
	return options{
		cmdBufSize: DefaultCmdBufSize,
		frameFlags: driver.FrameSyncDraw,
	}
}

// WithCmdBufSize sets the size in bytes of the GPU command buffer.
func WithCmdBufSize(n int) Option {
	return func(o *options) {
		o.cmdBufSize = n
	}
}

// WithDriver uses d instead of a registered driver. d must not be
// initialized; the Instance initializes and finalizes it.
func WithDriver(d driver.Driver) Option {
	return func(o *options) {
		o.driver = d
	}
}

// WithDriverName selects a registered driver by name.
// The driver's package must be imported for it to be registered.
func WithDriverName(name string) Option {
	return func(o *options) {
		o.driverName = name
	}
}

// WithFrameFlags sets the flags RenderFrameWith begins frames with.
// The default is driver.FrameSyncDraw.
func WithFrameFlags(flags driver.FrameFlags) Option {
	return func(o *options) {
		o.frameFlags = flags
	}
}

// WithLogger is SetLogger applied when the Instance is created.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// resolveDriver returns the configured driver, the named driver, or the
// registry default.
func (o *options) resolveDriver() (driver.Driver, error) {
	switch {
	case o.driver != nil:
		return o.driver, nil
	case o.driverName != "":
		if d := driver.Get(o.driverName); d != nil {
			return d, nil
		}
		return nil, fmt.Errorf("%w: %q", driver.ErrNotAvailable, o.driverName)
	default:
		if d := driver.Default(); d != nil {
			return d, nil
		}
		return nil, fmt.Errorf("%w: no driver registered", driver.ErrNotAvailable)
	}
}
