// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"encoding/binary"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/gogpu/c3d"
	"github.com/gogpu/c3d/attrib"
	"github.com/gogpu/c3d/buffer"
	"github.com/gogpu/c3d/math3d"
)

// vertexStride is a float3 position followed by an RGBA8 colour.
const vertexStride = 3*4 + 4

type vertex struct {
	x, y, z    float32
	r, g, b, a uint8
}

type triangle struct {
	attrs attrib.Info
	bufs  buffer.Info
	slice buffer.Slice
}

func newTriangle() (*triangle, error) {
	t := &triangle{}
	if _, err := t.attrs.AddLoader(0, attrib.Float, 3); err != nil {
		return nil, err
	}
	if _, err := t.attrs.AddLoader(1, attrib.UnsignedByte, 4); err != nil {
		return nil, err
	}

	// An equilateral triangle centred on the origin.
	verts := make([]vertex, 3)
	colors := [3][4]uint8{{0xFF, 0x40, 0x40, 0xFF}, {0x40, 0xFF, 0x40, 0xFF}, {0x40, 0x40, 0xFF, 0xFF}}
	for i := range verts {
		angle := math32.Pi/2 + float32(i)*2*math32.Pi/3
		c := colors[i]
		verts[i] = vertex{x: 0.8 * math32.Cos(angle), y: 0.8 * math32.Sin(angle), r: c[0], g: c[1], b: c[2], a: c[3]}
	}

	s, err := t.bufs.Add(encodeVertices(verts), vertexStride, &t.attrs)
	if err != nil {
		return nil, fmt.Errorf("vertex buffer: %w", err)
	}
	t.slice = s
	return t, nil
}

func encodeVertices(verts []vertex) []byte {
	out := make([]byte, 0, len(verts)*vertexStride)
	for _, v := range verts {
		out = binary.LittleEndian.AppendUint32(out, math32.Float32bits(v.x))
		out = binary.LittleEndian.AppendUint32(out, math32.Float32bits(v.y))
		out = binary.LittleEndian.AppendUint32(out, math32.Float32bits(v.z))
		out = append(out, v.r, v.g, v.b, v.a)
	}
	return out
}

func (t *triangle) draw(inst *c3d.Instance, aspect c3d.AspectRatio) error {
	a := aspect.Float32()
	inst.UpdateVertexUniformMat4x4(projectionReg, math3d.Ortho(-a, a, -1, 1, -1, 1, false))
	inst.SetAttrInfo(&t.attrs)
	return inst.DrawArrays(buffer.Triangles, t.slice)
}
