// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"errors"
	"fmt"
)

// Type selects a programmable shader stage.
type Type uint8

const (
	// Vertex is the vertex shader stage.
	Vertex Type = iota
	// Geometry is the geometry shader stage.
	Geometry
)

// String returns the stage name.
func (t Type) String() string {
	switch t {
	case Vertex:
		return "vertex"
	case Geometry:
		return "geometry"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Format identifies how an entry's code is encoded.
type Format uint8

const (
	// FormatSHBIN is PICA200 shader bytecode from a DVLB container.
	FormatSHBIN Format = iota
	// FormatSPIRV is a SPIR-V module.
	FormatSPIRV
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatSHBIN:
		return "shbin"
	case FormatSPIRV:
		return "spirv"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// Package errors.
var (
	// ErrInvalidShader is returned when a binary is neither a DVLB container nor SPIR-V.
	ErrInvalidShader = errors.New("shader: invalid shader binary")

	// ErrTruncated is returned when a DVLB container ends before a table it references.
	ErrTruncated = errors.New("shader: truncated shader binary")

	// ErrWrongStage is returned when an entry is used for a stage it was not compiled for.
	ErrWrongStage = errors.New("shader: entry has the wrong stage")

	// ErrInvalidStride is returned for a geometry shader stride of zero.
	ErrInvalidStride = errors.New("shader: invalid geometry shader stride")

	// ErrEmptyLibrary is returned when a library contains no entries.
	ErrEmptyLibrary = errors.New("shader: library has no entries")
)
