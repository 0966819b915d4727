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

// Package pix provides the typed 2D pixel buffers and rejection masks
// which the filtering engine operates on. A buffer stores width x height
// samples of one element type in row-major order, optionally paired with
// a rejection mask marking samples to exclude from computation.
package pix

import (
	"fmt"
)

// Real constrains the element types a pixel buffer can hold.
type Real interface {
	~int32 | ~float32 | ~float64
}

// Type tags the element type of a buffer at runtime.
type Type int32

const (
	Int32 Type = iota + 1
	Float32
	Float64
)

func (t Type) String() string {
	switch t {
	case Int32:
		return "int32"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "invalid"
	}
}

// Valid reports whether t is one of the supported element types.
func (t Type) Valid() bool {
	return t == Int32 || t == Float32 || t == Float64
}

// ParseType maps an element type name to its Type.
func ParseType(s string) (Type, bool) {
	for t := Int32; t <= Float64; t++ {
		if t.String() == s {
			return t, true
		}
	}
	return 0, false
}

// A Buffer is a rectangular 2D grid of numeric samples of a fixed element
// type, stored row-major. The optional mask marks rejected samples.
// Sample (x,y) lives at index y*width+x.
type Buffer struct {
	width, height int
	typ           Type
	i32           []int32
	f32           []float32
	f64           []float64
	mask          *Mask
}

// NewBuffer allocates a zero-filled buffer of the given type and size.
func NewBuffer(t Type, width, height int) (*Buffer, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unsupported element type %d", int(t))
	}
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("negative buffer size %dx%d", width, height)
	}
	b := &Buffer{width: width, height: height, typ: t}
	switch t {
	case Int32:
		b.i32 = make([]int32, width*height)
	case Float32:
		b.f32 = make([]float32, width*height)
	case Float64:
		b.f64 = make([]float64, width*height)
	}
	return b, nil
}

// FromInt32 wraps existing int32 samples as a buffer. Data is not copied,
// and allocated if nil. len(data) must be width*height when given.
func FromInt32(width, height int, data []int32) (*Buffer, error) {
	if err := checkDims(width, height, len(data), data == nil); err != nil {
		return nil, err
	}
	if data == nil {
		data = make([]int32, width*height)
	}
	return &Buffer{width: width, height: height, typ: Int32, i32: data}, nil
}

// FromFloat32 wraps existing float32 samples as a buffer. Data is not
// copied, and allocated if nil. len(data) must be width*height when given.
func FromFloat32(width, height int, data []float32) (*Buffer, error) {
	if err := checkDims(width, height, len(data), data == nil); err != nil {
		return nil, err
	}
	if data == nil {
		data = make([]float32, width*height)
	}
	return &Buffer{width: width, height: height, typ: Float32, f32: data}, nil
}

// FromFloat64 wraps existing float64 samples as a buffer. Data is not
// copied, and allocated if nil. len(data) must be width*height when given.
func FromFloat64(width, height int, data []float64) (*Buffer, error) {
	if err := checkDims(width, height, len(data), data == nil); err != nil {
		return nil, err
	}
	if data == nil {
		data = make([]float64, width*height)
	}
	return &Buffer{width: width, height: height, typ: Float64, f64: data}, nil
}

func checkDims(width, height, n int, nilData bool) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("negative buffer size %dx%d", width, height)
	}
	if !nilData && n != width*height {
		return fmt.Errorf("data length %d does not match %dx%d buffer", n, width, height)
	}
	return nil
}

func (b *Buffer) Width() int  { return b.width }
func (b *Buffer) Height() int { return b.height }
func (b *Buffer) Type() Type  { return b.typ }

// Pixels returns the total sample count.
func (b *Buffer) Pixels() int { return b.width * b.height }

// Int32s returns the raw samples, or nil if the buffer is not of type Int32.
func (b *Buffer) Int32s() []int32 { return b.i32 }

// Float32s returns the raw samples, or nil if the buffer is not of type Float32.
func (b *Buffer) Float32s() []float32 { return b.f32 }

// Float64s returns the raw samples, or nil if the buffer is not of type Float64.
func (b *Buffer) Float64s() []float64 { return b.f64 }

// Samples returns the raw row-major samples of a buffer whose element
// type matches T, or nil for a type mismatch.
func Samples[T Real](b *Buffer) []T {
	var zero T
	switch any(zero).(type) {
	case int32:
		if b.typ == Int32 {
			return any(b.i32).([]T)
		}
	case float32:
		if b.typ == Float32 {
			return any(b.f32).([]T)
		}
	case float64:
		if b.typ == Float64 {
			return any(b.f64).([]T)
		}
	}
	return nil
}

// Mask returns the attached rejection mask, or nil if none is attached.
func (b *Buffer) Mask() *Mask { return b.mask }

// SetMask attaches a rejection mask, replacing any previous one.
// The mask dimensions must match the buffer.
func (b *Buffer) SetMask(m *Mask) error {
	if m != nil && (m.width != b.width || m.height != b.height) {
		return fmt.Errorf("mask size %dx%d does not match buffer size %dx%d",
			m.width, m.height, b.width, b.height)
	}
	b.mask = m
	return nil
}

// ClearMask detaches the rejection mask, if any.
func (b *Buffer) ClearMask() { b.mask = nil }

// SameArray reports whether a and b share a backing array, and if so the
// element offset of b's first element relative to a's. Two non-empty
// slices alias the same array exactly when the last element of their full
// capacity extension is the same object; the relative offset then follows
// from the capacity difference. This replaces raw address arithmetic.
func SameArray[T Real](a, b []T) (offset int, shared bool) {
	if len(a) == 0 || len(b) == 0 {
		return 0, false
	}
	last := &a[:cap(a)][cap(a)-1]
	if last != &b[:cap(b)][cap(b)-1] {
		return 0, false
	}
	return cap(a) - cap(b), true
}
