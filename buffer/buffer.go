// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package buffer describes the vertex buffers a draw reads from.
package buffer

import (
	"errors"
	"fmt"

	"github.com/gogpu/c3d/attrib"
)

// MaxBuffers is the number of vertex buffers an Info can hold.
const MaxBuffers = 12

// Package errors.
var (
	// ErrTooManyBuffers is returned when an Info already holds MaxBuffers buffers.
	ErrTooManyBuffers = errors.New("buffer: too many buffers")

	// ErrInvalidMemoryLocation is returned for buffer memory the GPU cannot read.
	ErrInvalidMemoryLocation = errors.New("buffer: invalid memory location")

	// ErrInvalidStride is returned for a stride that is zero, negative or
	// smaller than the attribute layout.
	ErrInvalidStride = errors.New("buffer: invalid stride")

	// ErrOutOfRange is returned by Slice.Sub for a range outside the slice.
	ErrOutOfRange = errors.New("buffer: slice range out of bounds")
)

// Primitive is the topology a draw assembles vertices into.
type Primitive uint8

const (
	// Triangles draws independent triangles.
	Triangles Primitive = iota
	// TriangleStrip draws a strip sharing two vertices between neighbours.
	TriangleStrip
	// TriangleFan draws a fan around the first vertex.
	TriangleFan
	// GeometryPrim hands vertices to the geometry shader unassembled.
	GeometryPrim
)

// String returns the primitive name.
func (p Primitive) String() string {
	switch p {
	case Triangles:
		return "Triangles"
	case TriangleStrip:
		return "TriangleStrip"
	case TriangleFan:
		return "TriangleFan"
	case GeometryPrim:
		return "GeometryPrim"
	default:
		return fmt.Sprintf("Primitive(%d)", uint8(p))
	}
}

// Buffer is one vertex buffer binding.
type Buffer struct {
	Data        []byte
	Stride      int
	AttribCount int
	Permutation uint64
	Attribs     attrib.Info
}

// Vertices returns how many whole vertices the buffer holds.
func (b Buffer) Vertices() int {
	if b.Stride <= 0 {
		return 0
	}
	return len(b.Data) / b.Stride
}

// Info is a vertex buffer configuration. Infos hold buffer memory by
// reference, so two Infos are equal when they bind the same memory with the
// same layout; use Equal, not ==.
type Info struct {
	bufs [MaxBuffers]Buffer
	n    int
}

// Add appends a buffer and returns a Slice covering all of its vertices.
// The attribute layout describes how each vertex in data is loaded; it is
// copied, so later changes to attribs do not affect the Info.
func (i *Info) Add(data []byte, stride int, attribs *attrib.Info) (Slice, error) {
	if len(data) == 0 {
		return Slice{}, ErrInvalidMemoryLocation
	}
	if stride <= 0 || (attribs != nil && stride < attribs.Stride()) {
		return Slice{}, fmt.Errorf("%w: %d", ErrInvalidStride, stride)
	}
	if i.n == MaxBuffers {
		return Slice{}, ErrTooManyBuffers
	}

	b := Buffer{Data: data, Stride: stride}
	if attribs != nil {
		b.Attribs = *attribs
		b.AttribCount = attribs.LoaderCount()
		b.Permutation = attribs.Permutation()
	}
	i.bufs[i.n] = b
	i.n++

	return Slice{info: i, first: 0, count: b.Vertices()}, nil
}

// Len returns the number of buffers.
func (i *Info) Len() int { return i.n }

// Buffers returns the buffers in the order they were added.
func (i *Info) Buffers() []Buffer {
	return append([]Buffer(nil), i.bufs[:i.n]...)
}

// Equal reports whether i and o bind the same memory with the same layout.
func (i *Info) Equal(o *Info) bool {
	if i == nil || o == nil {
		return i == o
	}
	if i.n != o.n {
		return false
	}
	for k := range i.n {
		a, b := i.bufs[k], o.bufs[k]
		if !sameMemory(a.Data, b.Data) || a.Stride != b.Stride ||
			a.AttribCount != b.AttribCount || a.Permutation != b.Permutation ||
			a.Attribs != b.Attribs {
			return false
		}
	}
	return true
}

func sameMemory(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

// Slice is a range of vertices drawn from an Info.
type Slice struct {
	info  *Info
	first int
	count int
}

// Info returns the buffer configuration the slice draws from.
func (s Slice) Info() *Info { return s.info }

// Index returns the first vertex of the slice.
func (s Slice) Index() int { return s.first }

// Len returns the number of vertices in the slice.
func (s Slice) Len() int { return s.count }

// Sub returns the count vertices starting at first, relative to s.
func (s Slice) Sub(first, count int) (Slice, error) {
	if first < 0 || count < 0 || first+count > s.count {
		return Slice{}, fmt.Errorf("%w: [%d, %d) of %d", ErrOutOfRange, first, first+count, s.count)
	}
	return Slice{info: s.info, first: s.first + first, count: count}, nil
}
