// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package attrib describes how vertex buffer memory is loaded into the
// vertex shader's input registers.
package attrib

import (
	"errors"
	"fmt"
)

// MaxAttributes is the number of attribute slots an Info can hold.
const MaxAttributes = 12

// MaxRegister is the highest vertex input register (v15).
const MaxRegister = 15

// Package errors.
var (
	// ErrInvalidRegister is returned for an input register above MaxRegister.
	ErrInvalidRegister = errors.New("attrib: invalid input register")

	// ErrTooManyAttributes is returned when an Info already holds MaxAttributes attributes.
	ErrTooManyAttributes = errors.New("attrib: too many attributes")

	// ErrInvalidCount is returned for a component count outside 1..4.
	ErrInvalidCount = errors.New("attrib: component count must be 1 to 4")

	// ErrRegisterInUse is returned when two attributes target the same register.
	ErrRegisterInUse = errors.New("attrib: register already in use")
)

// Register is a vertex shader input register, v0 through v15.
type Register uint8

// NewRegister validates n as an input register number.
func NewRegister(n uint8) (Register, error) {
	if n > MaxRegister {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRegister, n)
	}
	return Register(n), nil
}

// String returns the register in shader assembly notation.
func (r Register) String() string {
	return fmt.Sprintf("v%d", uint8(r))
}

// Format is the component type of a loaded attribute.
type Format uint8

const (
	// Byte is a signed 8-bit integer.
	Byte Format = iota
	// UnsignedByte is an unsigned 8-bit integer.
	UnsignedByte
	// Short is a signed 16-bit integer.
	Short
	// Float is a 32-bit float.
	Float
)

// Size returns the size of one component in bytes.
func (f Format) Size() int {
	switch f {
	case Byte, UnsignedByte:
		return 1
	case Short:
		return 2
	default:
		return 4
	}
}

// String returns the format name.
func (f Format) String() string {
	switch f {
	case Byte:
		return "byte"
	case UnsignedByte:
		return "ubyte"
	case Short:
		return "short"
	case Float:
		return "float"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// Attribute is one slot of an Info.
type Attribute struct {
	Register Register
	Format   Format
	Count    uint8 // components, 1..4; 0 for a fixed attribute
	Fixed    bool  // value supplied by a fixed attribute register, not loaded from a buffer
}

// Size returns the number of bytes the attribute occupies in a vertex.
func (a Attribute) Size() int {
	if a.Fixed {
		return 0
	}
	return a.Format.Size() * int(a.Count)
}

// Info is an attribute layout. It is a plain value: copying an Info copies
// the whole layout, and two Infos compare equal with == when they describe
// the same layout.
type Info struct {
	attrs [MaxAttributes]Attribute
	count int
}

// AddLoader appends an attribute loaded from vertex buffer memory and
// returns its slot.
func (i *Info) AddLoader(reg Register, format Format, count uint8) (int, error) {
	if count < 1 || count > 4 {
		return -1, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	return i.add(Attribute{Register: reg, Format: format, Count: count})
}

// AddFixed appends an attribute whose value comes from a fixed attribute
// register instead of buffer memory, and returns its slot.
func (i *Info) AddFixed(reg Register) (int, error) {
	return i.add(Attribute{Register: reg, Format: Float, Fixed: true})
}

func (i *Info) add(a Attribute) (int, error) {
	if a.Register > MaxRegister {
		return -1, fmt.Errorf("%w: %d", ErrInvalidRegister, uint8(a.Register))
	}
	if i.count == MaxAttributes {
		return -1, ErrTooManyAttributes
	}
	for _, existing := range i.Attributes() {
		if existing.Register == a.Register {
			return -1, fmt.Errorf("%w: %v", ErrRegisterInUse, a.Register)
		}
	}
	id := i.count
	i.attrs[id] = a
	i.count++
	return id, nil
}

// Len returns the number of attributes.
func (i *Info) Len() int { return i.count }

// Attributes returns the attributes in slot order.
func (i *Info) Attributes() []Attribute {
	return append([]Attribute(nil), i.attrs[:i.count]...)
}

// Stride returns the size of one vertex in bytes, counting loaded
// attributes only.
func (i *Info) Stride() int {
	n := 0
	for _, a := range i.attrs[:i.count] {
		n += a.Size()
	}
	return n
}

// LoaderCount returns the number of attributes loaded from buffer memory.
func (i *Info) LoaderCount() int {
	n := 0
	for _, a := range i.attrs[:i.count] {
		if !a.Fixed {
			n++
		}
	}
	return n
}

// Permutation returns the register permutation: slot k's register in bits
// 4k..4k+3.
func (i *Info) Permutation() uint64 {
	var p uint64
	for k, a := range i.attrs[:i.count] {
		p |= uint64(a.Register) << (4 * k)
	}
	return p
}

// Offset returns the byte offset of slot k within a vertex.
func (i *Info) Offset(k int) int {
	n := 0
	for _, a := range i.attrs[:k] {
		n += a.Size()
	}
	return n
}
