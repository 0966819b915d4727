// Copyright (C) 2026 The imfilter authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package pix

import (
	"testing"
)

func TestParseType(t *testing.T) {
	for _, typ := range []Type{Int32, Float32, Float64} {
		got, ok := ParseType(typ.String())
		if !ok || got != typ {
			t.Errorf("ParseType(%s)=%v,%v; want %v,true", typ, got, ok, typ)
		}
	}
	if _, ok := ParseType("int16"); ok {
		t.Errorf("ParseType(int16) ok; want failure")
	}
	if Type(0).Valid() || Type(4).Valid() {
		t.Errorf("invalid type tags report Valid")
	}
}

func TestNewBuffer(t *testing.T) {
	b, err := NewBuffer(Float32, 4, 3)
	if err != nil {
		t.Fatalf("NewBuffer: %s", err)
	}
	if b.Width() != 4 || b.Height() != 3 || b.Pixels() != 12 {
		t.Errorf("size=%dx%d pixels=%d; want 4x3 12", b.Width(), b.Height(), b.Pixels())
	}
	if len(b.Float32s()) != 12 || b.Int32s() != nil || b.Float64s() != nil {
		t.Errorf("backing slices inconsistent with element type")
	}
	if _, err := NewBuffer(Type(0), 4, 3); err == nil {
		t.Errorf("NewBuffer with invalid type succeeded")
	}
	if _, err := NewBuffer(Int32, -1, 3); err == nil {
		t.Errorf("NewBuffer with negative width succeeded")
	}
}

func TestFromData(t *testing.T) {
	data := []int32{1, 2, 3, 4, 5, 6}
	b, err := FromInt32(3, 2, data)
	if err != nil {
		t.Fatalf("FromInt32: %s", err)
	}
	// data is wrapped, not copied
	data[0] = 42
	if b.Int32s()[0] != 42 {
		t.Errorf("buffer does not share caller data")
	}
	if _, err := FromInt32(3, 3, data); err == nil {
		t.Errorf("FromInt32 with short data succeeded")
	}
	b, err = FromFloat64(3, 2, nil)
	if err != nil {
		t.Fatalf("FromFloat64: %s", err)
	}
	if len(b.Float64s()) != 6 {
		t.Errorf("nil data not allocated, len=%d; want 6", len(b.Float64s()))
	}
}

func TestSamples(t *testing.T) {
	b, _ := FromFloat32(2, 2, []float32{1, 2, 3, 4})
	s := Samples[float32](b)
	if len(s) != 4 || s[2] != 3 {
		t.Fatalf("Samples[float32]=%v; want [1 2 3 4]", s)
	}
	s[3] = 9
	if b.Float32s()[3] != 9 {
		t.Errorf("Samples result does not alias buffer storage")
	}
	if Samples[int32](b) != nil || Samples[float64](b) != nil {
		t.Errorf("Samples with mismatched type is not nil")
	}
}

func TestMask(t *testing.T) {
	m, err := NewMask(3, 2)
	if err != nil {
		t.Fatalf("NewMask: %s", err)
	}
	if !m.AllValid() || m.CountRejected() != 0 {
		t.Errorf("fresh mask is not all-valid")
	}
	m.Reject(1, 1)
	if m.AllValid() || !m.IsRejected(1, 1) || m.CountRejected() != 1 {
		t.Errorf("rejection not recorded")
	}
	m.Reset()
	if !m.AllValid() {
		t.Errorf("reset mask is not all-valid")
	}

	if _, err := WrapMask(3, 2, make([]bool, 5)); err == nil {
		t.Errorf("WrapMask with short data succeeded")
	}

	b, _ := NewBuffer(Int32, 3, 2)
	if err := b.SetMask(m); err != nil {
		t.Errorf("SetMask: %s", err)
	}
	if b.Mask() != m {
		t.Errorf("mask not attached")
	}
	other, _ := NewMask(2, 2)
	if err := b.SetMask(other); err == nil {
		t.Errorf("SetMask with mismatched size succeeded")
	}
	b.ClearMask()
	if b.Mask() != nil {
		t.Errorf("mask not detached")
	}
}

func TestSameArray(t *testing.T) {
	base := make([]float32, 20)
	a, b := base[0:10], base[5:15]
	if off, shared := SameArray(a, b); !shared || off != 5 {
		t.Errorf("SameArray(a,b)=%d,%v; want 5,true", off, shared)
	}
	if off, shared := SameArray(b, a); !shared || off != -5 {
		t.Errorf("SameArray(b,a)=%d,%v; want -5,true", off, shared)
	}
	if off, shared := SameArray(a, a); !shared || off != 0 {
		t.Errorf("SameArray(a,a)=%d,%v; want 0,true", off, shared)
	}
	c := make([]float32, 10)
	if _, shared := SameArray(a, c); shared {
		t.Errorf("distinct allocations report as shared")
	}
	if _, shared := SameArray(a, nil); shared {
		t.Errorf("nil slice reports as shared")
	}
}
