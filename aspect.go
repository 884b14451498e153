// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package c3d

import (
	"strconv"

	"github.com/gogpu/c3d/math3d"
)

// AspectRatio is a screen width divided by its height.
type AspectRatio float32

// Screen aspect ratios.
const (
	// TopScreen is the 400x240 upper screen.
	TopScreen AspectRatio = 400.0 / 240.0
	// BottomScreen is the 320x240 lower screen.
	BottomScreen AspectRatio = 320.0 / 240.0
)

// Other returns an arbitrary aspect ratio, for offscreen targets.
func Other(ratio float32) AspectRatio { return AspectRatio(ratio) }

// Float32 returns the ratio as a float32.
func (a AspectRatio) Float32() float32 { return float32(a) }

func (a AspectRatio) String() string {
	switch a {
	case TopScreen:
		return "top"
	case BottomScreen:
		return "bottom"
	}
	return strconv.FormatFloat(float64(a), 'g', 4, 32)
}

// Perspective returns a projection for a framebuffer displayed on a screen
// with this aspect ratio. The screens are rotated 90 degrees relative to
// their framebuffers, so the tilted projection is used. fov is in
// radians, as for math3d.PerspectiveTilt.
func (a AspectRatio) Perspective(fov, near, far float32) math3d.Matrix4 {
	return math3d.PerspectiveTilt(fov, float32(a), near, far, false)
}
