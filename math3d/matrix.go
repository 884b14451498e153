// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package math3d

import "github.com/chewxy/math32"

// Matrix4 is a 4x4 float matrix stored row-major. Row i is uploaded to
// float register index+i when the matrix is bound as a uniform.
type Matrix4 struct {
	rows [4]FVec4
}

// Identity returns the identity matrix.
func Identity() Matrix4 {
	return Matrix4{rows: [4]FVec4{
		{X: 1},
		{Y: 1},
		{Z: 1},
		{W: 1},
	}}
}

// FromRows builds a matrix from four rows.
func FromRows(r0, r1, r2, r3 FVec4) Matrix4 {
	return Matrix4{rows: [4]FVec4{r0, r1, r2, r3}}
}

// Translate creates a translation matrix.
func Translate(x, y, z float32) Matrix4 {
	m := Identity()
	m.rows[0].W = x
	m.rows[1].W = y
	m.rows[2].W = z
	return m
}

// Scale creates a scaling matrix.
func Scale(x, y, z float32) Matrix4 {
	m := Identity()
	m.rows[0].X = x
	m.rows[1].Y = y
	m.rows[2].Z = z
	return m
}

// RotateX creates a rotation about the X axis (angle in radians).
func RotateX(angle float32) Matrix4 {
	s, c := math32.Sincos(angle)
	return FromRows(
		FVec4{X: 1},
		FVec4{Y: c, Z: -s},
		FVec4{Y: s, Z: c},
		FVec4{W: 1},
	)
}

// RotateY creates a rotation about the Y axis (angle in radians).
func RotateY(angle float32) Matrix4 {
	s, c := math32.Sincos(angle)
	return FromRows(
		FVec4{X: c, Z: s},
		FVec4{Y: 1},
		FVec4{X: -s, Z: c},
		FVec4{W: 1},
	)
}

// RotateZ creates a rotation about the Z axis (angle in radians).
func RotateZ(angle float32) Matrix4 {
	s, c := math32.Sincos(angle)
	return FromRows(
		FVec4{X: c, Y: -s},
		FVec4{X: s, Y: c},
		FVec4{Z: 1},
		FVec4{W: 1},
	)
}

// Row returns row i.
func (m Matrix4) Row(i int) FVec4 {
	return m.rows[i]
}

// Col returns column i.
func (m Matrix4) Col(i int) FVec4 {
	a := [4][4]float32{m.rows[0].Array(), m.rows[1].Array(), m.rows[2].Array(), m.rows[3].Array()}
	return FVec4{X: a[0][i], Y: a[1][i], Z: a[2][i], W: a[3][i]}
}

// Rows returns the four rows in natural order.
func (m Matrix4) Rows() [4]FVec4 {
	return m.rows
}

// RowsWZYX returns the rows as raw register lanes: row i in element i, each
// with its components stored W first, which is how a float register holds
// them on the hardware.
func (m Matrix4) RowsWZYX() [4][4]float32 {
	return [4][4]float32{
		m.rows[0].WZYX(),
		m.rows[1].WZYX(),
		m.rows[2].WZYX(),
		m.rows[3].WZYX(),
	}
}

// Transpose returns the transposed matrix.
func (m Matrix4) Transpose() Matrix4 {
	return FromRows(m.Col(0), m.Col(1), m.Col(2), m.Col(3))
}

// Mul returns m * n.
func (m Matrix4) Mul(n Matrix4) Matrix4 {
	var r Matrix4
	for i := range 4 {
		row := m.rows[i]
		r.rows[i] = FVec4{
			X: row.Dot(n.Col(0)),
			Y: row.Dot(n.Col(1)),
			Z: row.Dot(n.Col(2)),
			W: row.Dot(n.Col(3)),
		}
	}
	return r
}

// MulVec returns m * v.
func (m Matrix4) MulVec(v FVec4) FVec4 {
	return FVec4{
		X: m.rows[0].Dot(v),
		Y: m.rows[1].Dot(v),
		Z: m.rows[2].Dot(v),
		W: m.rows[3].Dot(v),
	}
}

// Perspective creates a perspective projection with the PICA200 depth range
// of [-1, 0]. fovy is in radians.
func Perspective(fovy, aspect, near, far float32, leftHanded bool) Matrix4 {
	t := math32.Tan(fovy / 2)
	var m Matrix4
	m.rows[0].X = 1 / (aspect * t)
	m.rows[1].Y = 1 / t
	m.rows[2].W = far * near / (near - far)
	m.rows[3].Z = handedness(leftHanded)
	m.rows[2].Z = -m.rows[3].Z * near / (near - far)
	return m
}

// PerspectiveTilt is Perspective for a framebuffer that is rotated 90
// degrees relative to the screen, as on the 3DS. fovx is the horizontal
// field of view in radians.
func PerspectiveTilt(fovx, aspect, near, far float32, leftHanded bool) Matrix4 {
	t := math32.Tan(fovx / 2)
	var m Matrix4
	m.rows[0].Y = 1 / t
	m.rows[1].X = -aspect / t
	m.rows[2].W = far * near / (near - far)
	m.rows[3].Z = handedness(leftHanded)
	m.rows[2].Z = -m.rows[3].Z * near / (near - far)
	return m
}

// Ortho creates an orthographic projection with the PICA200 depth range of [-1, 0].
func Ortho(left, right, bottom, top, near, far float32, leftHanded bool) Matrix4 {
	var m Matrix4
	m.rows[0].X = 2 / (right - left)
	m.rows[0].W = (left + right) / (left - right)
	m.rows[1].Y = 2 / (top - bottom)
	m.rows[1].W = (bottom + top) / (bottom - top)
	if leftHanded {
		m.rows[2].Z = 1 / (far - near)
	} else {
		m.rows[2].Z = 1 / (near - far)
	}
	m.rows[2].W = 0.5*(near+far)/(near-far) - 0.5
	m.rows[3].W = 1
	return m
}

// OrthoTilt is Ortho for a framebuffer rotated 90 degrees relative to the screen.
func OrthoTilt(left, right, bottom, top, near, far float32, leftHanded bool) Matrix4 {
	return RotateZ(-math32.Pi / 2).Mul(Ortho(left, right, bottom, top, near, far, leftHanded))
}

func handedness(leftHanded bool) float32 {
	if leftHanded {
		return 1
	}
	return -1
}
