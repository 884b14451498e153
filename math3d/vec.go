// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package math3d

import "github.com/chewxy/math32"

// FVec4 is a four component float vector, the payload of one float uniform register.
type FVec4 struct {
	X, Y, Z, W float32
}

// V4 is a convenience function to create an FVec4.
func V4(x, y, z, w float32) FVec4 {
	return FVec4{X: x, Y: y, Z: z, W: w}
}

// V3 creates an FVec4 from a 3D point with W set to 1.
func V3(x, y, z float32) FVec4 {
	return FVec4{X: x, Y: y, Z: z, W: 1}
}

// Splat returns a vector with every component set to v.
func Splat(v float32) FVec4 {
	return FVec4{X: v, Y: v, Z: v, W: v}
}

// Add returns the component-wise sum of two vectors.
func (v FVec4) Add(w FVec4) FVec4 {
	return FVec4{X: v.X + w.X, Y: v.Y + w.Y, Z: v.Z + w.Z, W: v.W + w.W}
}

// Sub returns the component-wise difference of two vectors.
func (v FVec4) Sub(w FVec4) FVec4 {
	return FVec4{X: v.X - w.X, Y: v.Y - w.Y, Z: v.Z - w.Z, W: v.W - w.W}
}

// Scale returns the vector scaled by s.
func (v FVec4) Scale(s float32) FVec4 {
	return FVec4{X: v.X * s, Y: v.Y * s, Z: v.Z * s, W: v.W * s}
}

// Dot returns the four component dot product.
func (v FVec4) Dot(w FVec4) float32 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z + v.W*w.W
}

// Dot3 returns the dot product of the XYZ components.
func (v FVec4) Dot3(w FVec4) float32 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross3 returns the cross product of the XYZ components. W is zero.
func (v FVec4) Cross3(w FVec4) FVec4 {
	return FVec4{
		X: v.Y*w.Z - v.Z*w.Y,
		Y: v.Z*w.X - v.X*w.Z,
		Z: v.X*w.Y - v.Y*w.X,
	}
}

// Length3 returns the length of the XYZ components.
func (v FVec4) Length3() float32 {
	return math32.Sqrt(v.Dot3(v))
}

// Normalize3 returns the vector with its XYZ components scaled to unit
// length. W is zero. A zero vector is returned unchanged.
func (v FVec4) Normalize3() FVec4 {
	l := v.Length3()
	if l == 0 {
		return v
	}
	return FVec4{X: v.X / l, Y: v.Y / l, Z: v.Z / l}
}

// Array returns the components in X, Y, Z, W order.
func (v FVec4) Array() [4]float32 {
	return [4]float32{v.X, v.Y, v.Z, v.W}
}

// WZYX returns the components in the order the hardware stores them in a
// float register: W in lane 0, X in lane 3.
func (v FVec4) WZYX() [4]float32 {
	return [4]float32{v.W, v.Z, v.Y, v.X}
}

// FromWZYX decodes a raw float register.
func FromWZYX(lanes [4]float32) FVec4 {
	return FVec4{X: lanes[3], Y: lanes[2], Z: lanes[1], W: lanes[0]}
}

// IVec is the payload of one integer uniform register. Each component is
// eight bits wide on the hardware.
type IVec struct {
	X, Y, Z, W uint8
}

// NewIVec creates an IVec.
func NewIVec(x, y, z, w uint8) IVec {
	return IVec{X: x, Y: y, Z: z, W: w}
}

// Pack returns the register encoding with X in the low byte.
func (v IVec) Pack() uint32 {
	return uint32(v.X) | uint32(v.Y)<<8 | uint32(v.Z)<<16 | uint32(v.W)<<24
}

// UnpackIVec decodes a packed integer register.
func UnpackIVec(p uint32) IVec {
	return IVec{X: uint8(p), Y: uint8(p >> 8), Z: uint8(p >> 16), W: uint8(p >> 24)}
}
