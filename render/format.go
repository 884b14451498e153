// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// ColorFormat is the pixel format of a target's colour buffer.
type ColorFormat uint8

const (
	// ColorRGBA8 is 8 bits per channel with alpha.
	ColorRGBA8 ColorFormat = iota
	// ColorRGB8 is 8 bits per channel without alpha.
	ColorRGB8
	// ColorRGBA5551 is 5 bits per colour channel and a 1 bit alpha.
	ColorRGBA5551
	// ColorRGB565 is 5-6-5 bits without alpha.
	ColorRGB565
	// ColorRGBA4 is 4 bits per channel.
	ColorRGBA4
)

// BytesPerPixel returns the size of one colour buffer pixel.
func (f ColorFormat) BytesPerPixel() int {
	switch f {
	case ColorRGBA8:
		return 4
	case ColorRGB8:
		return 3
	default:
		return 2
	}
}

// TextureFormat returns the closest format a desktop GPU can render to.
// Every colour format is rendered as RGBA8 there and narrowed on readback.
func (f ColorFormat) TextureFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// String returns the format name.
func (f ColorFormat) String() string {
	switch f {
	case ColorRGBA8:
		return "RGBA8"
	case ColorRGB8:
		return "RGB8"
	case ColorRGBA5551:
		return "RGBA5551"
	case ColorRGB565:
		return "RGB565"
	case ColorRGBA4:
		return "RGBA4"
	default:
		return fmt.Sprintf("ColorFormat(%d)", uint8(f))
	}
}

// DepthFormat is the format of a target's depth buffer.
type DepthFormat int8

const (
	// DepthNone creates the target without a depth buffer.
	DepthNone DepthFormat = -1
	// Depth16 is a 16 bit depth buffer.
	Depth16 DepthFormat = 0
	// Depth24 is a 24 bit depth buffer.
	Depth24 DepthFormat = 2
	// Depth24Stencil8 is a 24 bit depth buffer with an 8 bit stencil.
	Depth24Stencil8 DepthFormat = 3
)

// String returns the format name.
func (f DepthFormat) String() string {
	switch f {
	case DepthNone:
		return "none"
	case Depth16:
		return "Depth16"
	case Depth24:
		return "Depth24"
	case Depth24Stencil8:
		return "Depth24Stencil8"
	default:
		return fmt.Sprintf("DepthFormat(%d)", int8(f))
	}
}

func (f DepthFormat) valid() bool {
	switch f {
	case DepthNone, Depth16, Depth24, Depth24Stencil8:
		return true
	}
	return false
}

// Screen is the display a target is linked to for output.
type Screen uint8

const (
	// Offscreen targets are not shown on any display.
	Offscreen Screen = iota
	// TopLeft is the top screen, left eye.
	TopLeft
	// TopRight is the top screen, right eye.
	TopRight
	// Bottom is the bottom screen.
	Bottom
)

// Size returns the framebuffer dimensions of the screen. Framebuffers are
// stored rotated, so the width is the short edge. Offscreen returns 0, 0.
func (s Screen) Size() (width, height int) {
	switch s {
	case TopLeft, TopRight:
		return 240, 400
	case Bottom:
		return 240, 320
	default:
		return 0, 0
	}
}

// String returns the screen name.
func (s Screen) String() string {
	switch s {
	case Offscreen:
		return "offscreen"
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case Bottom:
		return "bottom"
	default:
		return fmt.Sprintf("Screen(%d)", uint8(s))
	}
}
