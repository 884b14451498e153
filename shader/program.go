// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import "fmt"

// Program is a linked shader program: a vertex entry and an optional
// geometry entry.
type Program struct {
	vertex         *Entry
	geometry       *Entry
	geometryStride uint8
}

// NewProgram creates a program from a vertex entry.
func NewProgram(vertex *Entry) (*Program, error) {
	if vertex == nil {
		return nil, fmt.Errorf("shader: nil vertex entry")
	}
	if vertex.typ != Vertex {
		return nil, fmt.Errorf("%w: want %s, got %s", ErrWrongStage, Vertex, vertex.typ)
	}
	return &Program{vertex: vertex}, nil
}

// SetGeometryShader attaches a geometry entry. stride is the number of
// vertex output attributes consumed per geometry invocation.
func (p *Program) SetGeometryShader(geometry *Entry, stride uint8) error {
	if geometry == nil {
		return fmt.Errorf("shader: nil geometry entry")
	}
	if geometry.typ != Geometry {
		return fmt.Errorf("%w: want %s, got %s", ErrWrongStage, Geometry, geometry.typ)
	}
	if stride == 0 {
		return ErrInvalidStride
	}
	p.geometry = geometry
	p.geometryStride = stride
	return nil
}

// Vertex returns the vertex entry.
func (p *Program) Vertex() *Entry { return p.vertex }

// Geometry returns the geometry entry and its stride, or nil.
func (p *Program) Geometry() (*Entry, uint8) { return p.geometry, p.geometryStride }

// Format returns the vertex entry's code format.
func (p *Program) Format() Format { return p.vertex.format }

// Uniform returns the start register of a named uniform, searching the
// vertex entry first.
func (p *Program) Uniform(name string) (uint8, bool) {
	if r, ok := p.vertex.lookup(name); ok {
		return r, true
	}
	if p.geometry != nil {
		return p.geometry.lookup(name)
	}
	return 0, false
}
