// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package uniform

import (
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"github.com/gogpu/c3d/math3d"
	"github.com/gogpu/c3d/shader"
)

// call is one primitive invocation seen by recorder.
type call struct {
	op    string
	stage shader.Type
	index int
	f     [4]float32
	i     [4]int32
	b     bool
}

type recorder struct {
	calls []call
}

func (r *recorder) FVUnifSet(stage shader.Type, index int, x, y, z, w float32) {
	r.calls = append(r.calls, call{op: "float", stage: stage, index: index, f: [4]float32{x, y, z, w}})
}

func (r *recorder) IVUnifSet(stage shader.Type, index int, x, y, z, w int32) {
	r.calls = append(r.calls, call{op: "int", stage: stage, index: index, i: [4]int32{x, y, z, w}})
}

func (r *recorder) BoolUnifSet(stage shader.Type, index int, value bool) {
	r.calls = append(r.calls, call{op: "bool", stage: stage, index: index, b: value})
}

// bindPanics reports the value Bind panicked with, or nil.
func bindPanics(w RegisterWriter, stage shader.Type, index Index, u Uniform) (v any) {
	defer func() { v = recover() }()
	Bind(w, stage, index, u)
	return nil
}

func testMatrix() math3d.Matrix4 {
	return math3d.FromRows(
		math3d.V4(1, 2, 3, 4),
		math3d.V4(5, 6, 7, 8),
		math3d.V4(9, 10, 11, 12),
		math3d.V4(13, 14, 15, 16),
	)
}

func allVariants() []Uniform {
	v := math3d.V4(1, 2, 3, 4)
	return []Uniform{
		Float(v),
		Float2([2]math3d.FVec4{v, v}),
		Float3([3]math3d.FVec4{v, v, v}),
		Float4(testMatrix()),
		Bool(true),
		Int(math3d.NewIVec(1, 2, 3, 4)),
	}
}

func TestIndexRangeMatchesBanks(t *testing.T) {
	tests := []struct {
		u    Uniform
		want Range
	}{
		{Float(math3d.FVec4{}), Range{0x00, 0x60}},
		{Float2([2]math3d.FVec4{}), Range{0x00, 0x60}},
		{Float3([3]math3d.FVec4{}), Range{0x00, 0x60}},
		{Float4(math3d.Identity()), Range{0x00, 0x60}},
		{Int(math3d.IVec{}), Range{0x60, 0x64}},
		{Bool(false), Range{0x68, 0x79}},
	}
	for _, tt := range tests {
		t.Run(tt.u.Kind().String(), func(t *testing.T) {
			if got := tt.u.IndexRange(); got != tt.want {
				t.Errorf("IndexRange() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBanksDisjoint(t *testing.T) {
	banks := []Bank{BankFloat, BankInt, BankBool}
	for i, a := range banks {
		for _, b := range banks[i+1:] {
			if a.Range().Overlaps(b.Range()) {
				t.Errorf("%v range %v overlaps %v range %v", a, a.Range(), b, b.Range())
			}
		}
	}
	for i := Index(0x64); i < 0x68; i++ {
		if b, ok := BankOf(i); ok {
			t.Errorf("BankOf(%v) = %v, want gap", i, b)
		}
	}
}

func TestLen(t *testing.T) {
	want := map[Kind]int{
		KindFloat: 1, KindFloat2: 2, KindFloat3: 3, KindFloat4: 4, KindBool: 1, KindInt: 1,
	}
	for _, u := range allVariants() {
		if got := u.Len(); got != want[u.Kind()] {
			t.Errorf("%v.Len() = %d, want %d", u.Kind(), got, want[u.Kind()])
		}
	}
}

// TestBindEveryIndex sweeps the whole address space for every variant:
// binds succeed exactly when the uniform fits inside its bank.
func TestBindEveryIndex(t *testing.T) {
	for _, u := range allVariants() {
		r := u.IndexRange()
		for i := 0; i <= 0xFF; i++ {
			idx := Index(i)
			fits := idx >= r.Start && i+u.Len() <= int(r.End)

			rec := &recorder{}
			v := bindPanics(rec, shader.Vertex, idx, u)
			switch {
			case fits && v != nil:
				t.Errorf("%v at %v: unexpected panic %v", u.Kind(), idx, v)
			case !fits && v == nil:
				t.Errorf("%v at %v: expected panic", u.Kind(), idx)
			case !fits && len(rec.calls) != 0:
				t.Errorf("%v at %v: %d writes issued before failing", u.Kind(), idx, len(rec.calls))
			}
		}
	}
}

func TestBindPanicValues(t *testing.T) {
	rec := &recorder{}

	v := bindPanics(rec, shader.Vertex, 0x79, Bool(true))
	err, ok := v.(error)
	if !ok {
		t.Fatalf("panic value = %v, want error", v)
	}
	var rangeErr *RangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("panic = %T, want *RangeError", err)
	}
	if rangeErr.Index != 0x79 || rangeErr.Range != (Range{0x68, 0x79}) {
		t.Errorf("RangeError = %+v", rangeErr)
	}

	v = bindPanics(rec, shader.Vertex, 0x5E, Float4(math3d.Identity()))
	var overflow *OverflowError
	if err, _ := v.(error); !errors.As(err, &overflow) {
		t.Fatalf("panic = %v, want *OverflowError", v)
	}
	if overflow.Len != 4 || overflow.End != 0x60 {
		t.Errorf("OverflowError = %+v", overflow)
	}
}

func TestBindBool(t *testing.T) {
	rec := &recorder{}
	Bind(rec, shader.Geometry, 0x70, Bool(true))

	want := []call{{op: "bool", stage: shader.Geometry, index: 0x70, b: true}}
	if fmt.Sprint(rec.calls) != fmt.Sprint(want) {
		t.Errorf("calls = %v, want %v", rec.calls, want)
	}
}

func TestBindInt(t *testing.T) {
	rec := &recorder{}
	Bind(rec, shader.Vertex, 0x63, Int(math3d.NewIVec(1, 2, 3, 4)))

	want := []call{{op: "int", stage: shader.Vertex, index: 0x63, i: [4]int32{1, 2, 3, 4}}}
	if fmt.Sprint(rec.calls) != fmt.Sprint(want) {
		t.Errorf("calls = %v, want %v", rec.calls, want)
	}
}

func TestOverflowForLongerVariant(t *testing.T) {
	// 0x63 is the last integer register, so a two register integer value
	// cannot start there.
	err := validate(KindInt, BankInt.Range(), 2, 0x63)
	var overflow *OverflowError
	if !errors.As(err, &overflow) {
		t.Fatalf("validate() = %v, want *OverflowError", err)
	}
	if err := validate(KindInt, BankInt.Range(), 1, 0x63); err != nil {
		t.Errorf("validate() length 1 = %v, want nil", err)
	}
}

func TestBindFloatArrays(t *testing.T) {
	a, b, c := math3d.V4(1, 0, 0, 0), math3d.V4(0, 1, 0, 0), math3d.V4(0, 0, 1, 0)
	tests := []struct {
		u    Uniform
		want []math3d.FVec4
	}{
		{Float(a), []math3d.FVec4{a}},
		{Float2([2]math3d.FVec4{a, b}), []math3d.FVec4{a, b}},
		{Float3([3]math3d.FVec4{a, b, c}), []math3d.FVec4{a, b, c}},
	}
	for _, tt := range tests {
		t.Run(tt.u.Kind().String(), func(t *testing.T) {
			rec := &recorder{}
			Bind(rec, shader.Vertex, 0x10, tt.u)
			if len(rec.calls) != len(tt.want) {
				t.Fatalf("got %d writes, want %d", len(rec.calls), len(tt.want))
			}
			for off, c := range rec.calls {
				if c.op != "float" || c.index != 0x10+off || c.f != tt.want[off].Array() {
					t.Errorf("write %d = %+v, want float at %#x with %v", off, c, 0x10+off, tt.want[off])
				}
			}
		})
	}
}

func TestBindMatrixRows(t *testing.T) {
	m := testMatrix()
	rec := &recorder{}
	Bind(rec, shader.Vertex, 0x04, Matrix(m))

	if len(rec.calls) != 4 {
		t.Fatalf("got %d writes, want 4", len(rec.calls))
	}
	for i, c := range rec.calls {
		if c.index != 0x04+i {
			t.Errorf("write %d index = %#x, want %#x", i, c.index, 0x04+i)
		}
		if c.f != m.Row(i).Array() {
			t.Errorf("write %d = %v, want row %d %v", i, c.f, i, m.Row(i))
		}
	}
}

func TestWritesMatchBind(t *testing.T) {
	for _, u := range allVariants() {
		idx := u.IndexRange().Start
		rec := &recorder{}
		Bind(rec, shader.Vertex, idx, u)
		if got := len(u.Writes(idx)); got != len(rec.calls) {
			t.Errorf("%v: len(Writes()) = %d, Bind issued %d", u.Kind(), got, len(rec.calls))
		}
	}
}

func TestLookup(t *testing.T) {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data, shader.SPIRVMagic)
	lib, err := shader.ParseLibrary(data)
	if err != nil {
		t.Fatalf("ParseLibrary() error = %v", err)
	}
	if err := lib.Get(0).DeclareUniform("projection", 0x08, 0x0B); err != nil {
		t.Fatalf("DeclareUniform() error = %v", err)
	}
	p, err := shader.NewProgram(lib.Get(0))
	if err != nil {
		t.Fatalf("NewProgram() error = %v", err)
	}

	idx, err := Lookup(p, "projection")
	if err != nil || idx != 0x08 {
		t.Errorf("Lookup(projection) = (%v, %v), want (0x08, nil)", idx, err)
	}
	if _, err := Lookup(p, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(missing) error = %v, want %v", err, ErrNotFound)
	}
}
