// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"
)

// SPIRVMagic is the first word of every SPIR-V module.
const SPIRVMagic = 0x07230203

// inputRegisters is the number of vertex input registers (v0-v15) that
// precede the uniform registers in the SHBIN register numbering.
const inputRegisters = 0x10

// DVLE header offsets.
const (
	dvleHeaderSize     = 0x40
	dvleTypeOffset     = 0x06
	dvleUniformTable   = 0x30
	dvleUniformCount   = 0x34
	dvleSymbolTable    = 0x38
	dvleSymbolSize     = 0x3C
	uniformEntrySize   = 8
	dvlbHeaderMinSize  = 8
	dvlbEntryTableBase = 8
)

var (
	magicDVLB = []byte("DVLB")
	magicDVLE = []byte("DVLE")
)

// UniformEntry is one row of an entry's uniform table. Registers use the
// uniform numbering (float registers start at 0x00), not the raw SHBIN
// numbering that counts the input registers.
type UniformEntry struct {
	Name  string `toml:"name"`
	Start uint8  `toml:"start"`
	End   uint8  `toml:"end"` // inclusive
}

// Entry is a single shader entry point.
type Entry struct {
	typ      Type
	format   Format
	index    int
	code     []byte
	uniforms []UniformEntry
}

// Type returns the stage the entry was compiled for.
func (e *Entry) Type() Type { return e.typ }

// Format returns the code encoding.
func (e *Entry) Format() Format { return e.format }

// Index returns the entry's position within its library.
func (e *Entry) Index() int { return e.index }

// Code returns the encoded module. For SHBIN entries this is the whole DVLB
// container, because entries share the DVLP code blob.
func (e *Entry) Code() []byte { return e.code }

// Words returns a SPIR-V entry's code as little-endian 32-bit words, or nil
// for SHBIN entries.
func (e *Entry) Words() []uint32 {
	if e.format != FormatSPIRV {
		return nil
	}
	words := make([]uint32, len(e.code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(e.code[4*i:])
	}
	return words
}

// Uniforms returns a copy of the entry's uniform table.
func (e *Entry) Uniforms() []UniformEntry {
	out := make([]UniformEntry, len(e.uniforms))
	copy(out, e.uniforms)
	return out
}

// DeclareUniform adds a named uniform to the entry's table. SPIR-V modules
// carry no PICA200 register assignments, so callers declare them here.
func (e *Entry) DeclareUniform(name string, start, end uint8) error {
	if end < start {
		return fmt.Errorf("shader: uniform %q: end register %#x before start %#x", name, end, start)
	}
	for _, u := range e.uniforms {
		if u.Name == name {
			return fmt.Errorf("shader: uniform %q already declared", name)
		}
	}
	e.uniforms = append(e.uniforms, UniformEntry{Name: name, Start: start, End: end})
	return nil
}

// lookup returns the start register of the named uniform.
func (e *Entry) lookup(name string) (uint8, bool) {
	for _, u := range e.uniforms {
		if u.Name == name {
			return u.Start, true
		}
	}
	return 0, false
}

// Library is a parsed shader binary holding one or more entries.
type Library struct {
	format  Format
	entries []*Entry
}

// Len returns the number of entries.
func (l *Library) Len() int { return len(l.entries) }

// Format returns the container format.
func (l *Library) Format() Format { return l.format }

// Get returns entry i, or nil if i is out of range.
func (l *Library) Get(i int) *Entry {
	if i < 0 || i >= len(l.entries) {
		return nil
	}
	return l.entries[i]
}

// ParseLibrary parses a DVLB container or a raw SPIR-V module.
func ParseLibrary(data []byte) (*Library, error) {
	switch {
	case bytes.HasPrefix(data, magicDVLB):
		return parseDVLB(data)
	case len(data) >= 4 && len(data)%4 == 0 && binary.LittleEndian.Uint32(data) == SPIRVMagic:
		return &Library{
			format: FormatSPIRV,
			entries: []*Entry{{
				typ:    Vertex,
				format: FormatSPIRV,
				code:   data,
			}},
		}, nil
	default:
		return nil, ErrInvalidShader
	}
}

// CompileWGSL compiles WGSL source to SPIR-V with naga and returns it as a
// single-entry library.
func CompileWGSL(source string) (*Library, error) {
	spirv, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("shader: compile WGSL: %w", err)
	}
	return ParseLibrary(spirv)
}

func parseDVLB(data []byte) (*Library, error) {
	if len(data) < dvlbHeaderMinSize {
		return nil, ErrTruncated
	}
	count := int(binary.LittleEndian.Uint32(data[4:]))
	if count == 0 {
		return nil, ErrEmptyLibrary
	}
	if dvlbEntryTableBase+4*count > len(data) {
		return nil, ErrTruncated
	}

	lib := &Library{format: FormatSHBIN, entries: make([]*Entry, 0, count)}
	for i := range count {
		off := int(binary.LittleEndian.Uint32(data[dvlbEntryTableBase+4*i:]))
		e, err := parseDVLE(data, off)
		if err != nil {
			return nil, fmt.Errorf("shader: entry %d: %w", i, err)
		}
		e.index = i
		lib.entries = append(lib.entries, e)
	}
	return lib, nil
}

func parseDVLE(data []byte, off int) (*Entry, error) {
	if off < 0 || off+dvleHeaderSize > len(data) {
		return nil, ErrTruncated
	}
	hdr := data[off:]
	if !bytes.HasPrefix(hdr, magicDVLE) {
		return nil, ErrInvalidShader
	}

	e := &Entry{
		typ:    Type(hdr[dvleTypeOffset] & 1),
		format: FormatSHBIN,
		code:   data,
	}

	tableOff := off + int(binary.LittleEndian.Uint32(hdr[dvleUniformTable:]))
	tableLen := int(binary.LittleEndian.Uint32(hdr[dvleUniformCount:]))
	symOff := off + int(binary.LittleEndian.Uint32(hdr[dvleSymbolTable:]))
	symLen := int(binary.LittleEndian.Uint32(hdr[dvleSymbolSize:]))
	if tableOff+tableLen*uniformEntrySize > len(data) || symOff+symLen > len(data) {
		return nil, ErrTruncated
	}
	symbols := data[symOff : symOff+symLen]

	for j := range tableLen {
		row := data[tableOff+j*uniformEntrySize:]
		nameOff := int(binary.LittleEndian.Uint32(row))
		start := binary.LittleEndian.Uint16(row[4:])
		end := binary.LittleEndian.Uint16(row[6:])
		if nameOff >= len(symbols) {
			return nil, ErrTruncated
		}
		name := symbols[nameOff:]
		if n := bytes.IndexByte(name, 0); n >= 0 {
			name = name[:n]
		}
		// Input registers are not addressable as uniforms.
		if start < inputRegisters || end < start {
			continue
		}
		e.uniforms = append(e.uniforms, UniformEntry{
			Name:  string(name),
			Start: uint8(start - inputRegisters),
			End:   uint8(end - inputRegisters),
		})
	}
	return e, nil
}
