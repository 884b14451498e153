// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
)

// MaxTargetSize is the largest colour buffer edge the rasterizer supports.
const MaxTargetSize = 1024

// Errors returned by targets.
var (
	// ErrInvalidDesc is returned by TargetDesc.Validate.
	ErrInvalidDesc = errors.New("render: invalid target description")

	// ErrReleased is returned when a released target is used.
	ErrReleased = errors.New("render: target released")
)

// Handle identifies a target inside the driver that created it.
// The zero Handle never refers to a live target.
type Handle uint32

// ClearFlags selects the buffers Clear writes.
type ClearFlags uint8

const (
	// ClearColor clears the colour buffer.
	ClearColor ClearFlags = 1 << iota
	// ClearDepth clears the depth (and stencil) buffer.
	ClearDepth

	// ClearAll clears every buffer.
	ClearAll = ClearColor | ClearDepth
)

// TargetDesc describes a render target.
type TargetDesc struct {
	Width       int
	Height      int
	Screen      Screen
	ColorFormat ColorFormat
	DepthFormat DepthFormat
}

// Validate checks that the description can be created.
// Edges must be positive multiples of 8 no larger than MaxTargetSize, and
// a target linked to a screen must match the screen's framebuffer size.
func (d TargetDesc) Validate() error {
	if d.Width <= 0 || d.Height <= 0 || d.Width > MaxTargetSize || d.Height > MaxTargetSize {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidDesc, d.Width, d.Height)
	}
	if d.Width%8 != 0 || d.Height%8 != 0 {
		return fmt.Errorf("%w: size %dx%d is not a multiple of 8", ErrInvalidDesc, d.Width, d.Height)
	}
	if d.ColorFormat > ColorRGBA4 {
		return fmt.Errorf("%w: %v", ErrInvalidDesc, d.ColorFormat)
	}
	if !d.DepthFormat.valid() {
		return fmt.Errorf("%w: %v", ErrInvalidDesc, d.DepthFormat)
	}
	if d.Screen > Bottom {
		return fmt.Errorf("%w: %v", ErrInvalidDesc, d.Screen)
	}
	if d.Screen != Offscreen {
		w, h := d.Screen.Size()
		if d.Width != w || d.Height != h {
			return fmt.Errorf("%w: %v needs %dx%d, got %dx%d", ErrInvalidDesc, d.Screen, w, h, d.Width, d.Height)
		}
	}
	return nil
}

// Backend performs target operations for the driver that owns the target.
type Backend interface {
	// ClearTarget clears the selected buffers. rgba is 0xRRGGBBAA.
	ClearTarget(h Handle, flags ClearFlags, rgba, depth uint32) error

	// ReadTarget copies the colour buffer into a new image.
	ReadTarget(h Handle) (*image.RGBA, error)

	// DestroyTarget frees the target. It is called at most once per handle.
	DestroyTarget(h Handle)
}

// Target is a render target created by a driver.
// Targets are selected for drawing with Instance.SelectRenderTarget.
type Target struct {
	desc    TargetDesc
	handle  Handle
	backend Backend

	mu       sync.Mutex
	released bool
}

// NewTarget wraps a driver handle. Drivers call it from CreateTarget.
func NewTarget(desc TargetDesc, h Handle, backend Backend) *Target {
	return &Target{desc: desc, handle: h, backend: backend}
}

// Desc returns the description the target was created with.
func (t *Target) Desc() TargetDesc { return t.desc }

// Backend returns the driver that owns the target.
func (t *Target) Backend() Backend { return t.backend }

// Width returns the target width in pixels.
func (t *Target) Width() int { return t.desc.Width }

// Height returns the target height in pixels.
func (t *Target) Height() int { return t.desc.Height }

// Handle returns the driver handle, or the zero Handle once released.
func (t *Target) Handle() Handle {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return 0
	}
	return t.handle
}

// Clear clears the selected buffers of the target. rgba is 0xRRGGBBAA.
func (t *Target) Clear(flags ClearFlags, rgba, depth uint32) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return ErrReleased
	}
	return t.backend.ClearTarget(t.handle, flags, rgba, depth)
}

// Snapshot reads the colour buffer back into an image.
func (t *Target) Snapshot() (*image.RGBA, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return nil, ErrReleased
	}
	return t.backend.ReadTarget(t.handle)
}

// Release frees the target. Further calls are no-ops.
func (t *Target) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return
	}
	t.released = true
	t.backend.DestroyTarget(t.handle)
}

// PackRGBA converts c to the 0xRRGGBBAA form used by Clear.
func PackRGBA(c color.Color) uint32 {
	n := color.RGBAModel.Convert(c).(color.RGBA)
	return uint32(n.R)<<24 | uint32(n.G)<<16 | uint32(n.B)<<8 | uint32(n.A)
}

// UnpackRGBA converts a 0xRRGGBBAA value to a colour.
func UnpackRGBA(rgba uint32) color.RGBA {
	//nolint:gosec // G115: each channel is masked to 8 bits
	return color.RGBA{
		R: uint8(rgba >> 24),
		G: uint8(rgba >> 16),
		B: uint8(rgba >> 8),
		A: uint8(rgba),
	}
}
