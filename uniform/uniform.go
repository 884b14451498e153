// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package uniform

import (
	"errors"
	"fmt"

	"github.com/gogpu/c3d/math3d"
	"github.com/gogpu/c3d/shader"
)

// ErrNotFound is returned by Lookup when a program has no uniform with the given name.
var ErrNotFound = errors.New("uniform: not found")

// Kind identifies a Uniform variant.
type Kind uint8

const (
	// KindFloat is a single float vector (.fvec name).
	KindFloat Kind = iota
	// KindFloat2 is a two element float vector array (.fvec name[2]).
	KindFloat2
	// KindFloat3 is a three element float vector array (.fvec name[3]).
	KindFloat3
	// KindFloat4 is a matrix or four element float vector array (.fvec name[4]).
	KindFloat4
	// KindBool is a boolean (.bool name).
	KindBool
	// KindInt is an integer vector (.ivec name).
	KindInt
)

var kindNames = [...]string{
	KindFloat:  "Float",
	KindFloat2: "Float2",
	KindFloat3: "Float3",
	KindFloat4: "Float4",
	KindBool:   "Bool",
	KindInt:    "Int",
}

// String returns the variant name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Bank returns the register bank the variant is written to.
func (k Kind) Bank() Bank {
	switch k {
	case KindBool:
		return BankBool
	case KindInt:
		return BankInt
	default:
		return BankFloat
	}
}

// Len returns how many consecutive registers the variant occupies.
func (k Kind) Len() int {
	switch k {
	case KindFloat2:
		return 2
	case KindFloat3:
		return 3
	case KindFloat4:
		return 4
	default:
		return 1
	}
}

// Uniform is a value that can be bound as input to a shader program.
// The zero value is a Float uniform holding the zero vector.
type Uniform struct {
	kind   Kind
	floats [4]math3d.FVec4
	ivec   math3d.IVec
	b      bool
}

// Float creates a single float vector uniform.
func Float(v math3d.FVec4) Uniform {
	return Uniform{kind: KindFloat, floats: [4]math3d.FVec4{v}}
}

// Float2 creates a two element float vector array uniform.
func Float2(v [2]math3d.FVec4) Uniform {
	return Uniform{kind: KindFloat2, floats: [4]math3d.FVec4{v[0], v[1]}}
}

// Float3 creates a three element float vector array uniform.
func Float3(v [3]math3d.FVec4) Uniform {
	return Uniform{kind: KindFloat3, floats: [4]math3d.FVec4{v[0], v[1], v[2]}}
}

// Float4 creates a matrix uniform occupying four float registers.
func Float4(m math3d.Matrix4) Uniform {
	return Uniform{kind: KindFloat4, floats: m.Rows()}
}

// Matrix is an alias of Float4.
func Matrix(m math3d.Matrix4) Uniform {
	return Float4(m)
}

// Bool creates a boolean uniform.
func Bool(b bool) Uniform {
	return Uniform{kind: KindBool, b: b}
}

// Int creates an integer vector uniform.
func Int(v math3d.IVec) Uniform {
	return Uniform{kind: KindInt, ivec: v}
}

// Kind returns the variant.
func (u Uniform) Kind() Kind { return u.kind }

// Len returns the number of registers the uniform writes.
func (u Uniform) Len() int { return u.kind.Len() }

// IndexRange returns the register addresses the uniform may be bound to.
func (u Uniform) IndexRange() Range { return u.kind.Bank().Range() }

// Floats returns the float vectors of a float variant, one per register.
func (u Uniform) Floats() []math3d.FVec4 {
	if u.kind.Bank() != BankFloat {
		return nil
	}
	return u.floats[:u.kind.Len()]
}

// String describes the uniform.
func (u Uniform) String() string {
	switch u.kind {
	case KindBool:
		return fmt.Sprintf("Bool(%t)", u.b)
	case KindInt:
		return fmt.Sprintf("Int(%d, %d, %d, %d)", u.ivec.X, u.ivec.Y, u.ivec.Z, u.ivec.W)
	default:
		return fmt.Sprintf("%s%v", u.kind, u.Floats())
	}
}

// Write is a single register write produced by binding a uniform.
type Write struct {
	Bank  Bank
	Index Index
	Float math3d.FVec4
	Int   math3d.IVec
	Bool  bool
}

// Writes returns the register writes that binding u at index performs, in
// issue order. It does not validate index; see Validate.
//
// Float variants write one register per element at consecutive addresses.
// A Float4 writes its rows in order, row i at index+i; drivers store each
// register W lane first.
func (u Uniform) Writes(index Index) []Write {
	switch u.kind {
	case KindBool:
		return []Write{{Bank: BankBool, Index: index, Bool: u.b}}
	case KindInt:
		return []Write{{Bank: BankInt, Index: index, Int: u.ivec}}
	default:
		fs := u.Floats()
		out := make([]Write, len(fs))
		for off, f := range fs {
			out[off] = Write{Bank: BankFloat, Index: index + Index(off), Float: f}
		}
		return out
	}
}

// Validate reports whether u may be bound at index. The returned error is a
// *RangeError or an *OverflowError.
func (u Uniform) Validate(index Index) error {
	return validate(u.kind, u.IndexRange(), u.Len(), index)
}

func validate(kind Kind, r Range, n int, index Index) error {
	if !r.Contains(index) {
		return &RangeError{Kind: kind, Index: index, Range: r}
	}
	if int(index)+n > int(r.End) {
		return &OverflowError{Kind: kind, Index: index, Len: n, End: r.End}
	}
	return nil
}

// RegisterWriter is the set of hardware primitives the binder drives.
type RegisterWriter interface {
	FVUnifSet(stage shader.Type, index int, x, y, z, w float32)
	IVUnifSet(stage shader.Type, index int, x, y, z, w int32)
	BoolUnifSet(stage shader.Type, index int, value bool)
}

// Bind validates index against u's register bank and writes u to the
// uniform registers of the given stage.
//
// Binding outside the bank, or past its end, is a programming error: Bind
// panics with a *RangeError or *OverflowError and writes nothing.
func Bind(w RegisterWriter, stage shader.Type, index Index, u Uniform) {
	if err := u.Validate(index); err != nil {
		panic(err)
	}
	for _, wr := range u.Writes(index) {
		switch wr.Bank {
		case BankBool:
			w.BoolUnifSet(stage, int(wr.Index), wr.Bool)
		case BankInt:
			w.IVUnifSet(stage, int(wr.Index),
				int32(wr.Int.X), int32(wr.Int.Y), int32(wr.Int.Z), int32(wr.Int.W))
		default:
			w.FVUnifSet(stage, int(wr.Index), wr.Float.X, wr.Float.Y, wr.Float.Z, wr.Float.W)
		}
	}
}

// Lookup resolves a named uniform in p's uniform tables.
func Lookup(p *shader.Program, name string) (Index, error) {
	r, ok := p.Uniform(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return Index(r), nil
}
