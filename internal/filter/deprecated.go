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

package filter

import (
	"github.com/obsframe/imfilter/internal/kernel"
	"github.com/obsframe/imfilter/internal/pix"
)

// Convenience entry points that allocate the output buffer matching the
// input's shape and type. The engine otherwise never allocates buffers;
// prefer the Apply functions with a caller-provided output.

// NewMedian median-filters src into a freshly allocated buffer.
//
// Deprecated: use ApplyMask with a caller-allocated output buffer.
func NewMedian(src *pix.Buffer, kern *kernel.Mask, border Border) (*pix.Buffer, error) {
	return newFiltered(src, kern, Median, border)
}

// NewAverage average-filters src into a freshly allocated buffer.
//
// Deprecated: use ApplyMask with a caller-allocated output buffer.
func NewAverage(src *pix.Buffer, kern *kernel.Mask, border Border) (*pix.Buffer, error) {
	return newFiltered(src, kern, Average, border)
}

// NewStdDev stdev-filters src into a freshly allocated buffer.
//
// Deprecated: use ApplyMask with a caller-allocated output buffer.
func NewStdDev(src *pix.Buffer, kern *kernel.Mask, border Border) (*pix.Buffer, error) {
	return newFiltered(src, kern, StdDev, border)
}

func newFiltered(src *pix.Buffer, kern *kernel.Mask, kind Kind, border Border) (*pix.Buffer, error) {
	if src == nil || kern == nil {
		return nil, ErrNullInput
	}
	w, h := src.Width(), src.Height()
	if border == BorderCrop {
		w, h = w-2*kern.HalfX(), h-2*kern.HalfY()
	}
	dst, err := pix.NewBuffer(src.Type(), w, h)
	if err != nil {
		return nil, err
	}
	if err := ApplyMask(dst, src, kern, kind, border); err != nil {
		return nil, err
	}
	return dst, nil
}

// NewLinear convolves src into a freshly allocated buffer.
//
// Deprecated: use ApplyWeights with a caller-allocated output buffer.
func NewLinear(src *pix.Buffer, kern *kernel.Weights) (*pix.Buffer, error) {
	return newWeighted(src, kern, Linear)
}

// NewMorpho rank-filters src into a freshly allocated buffer.
//
// Deprecated: use ApplyWeights with a caller-allocated output buffer.
func NewMorpho(src *pix.Buffer, kern *kernel.Weights) (*pix.Buffer, error) {
	return newWeighted(src, kern, Morpho)
}

func newWeighted(src *pix.Buffer, kern *kernel.Weights, kind Kind) (*pix.Buffer, error) {
	if src == nil || kern == nil {
		return nil, ErrNullInput
	}
	dst, err := pix.NewBuffer(src.Type(), src.Width(), src.Height())
	if err != nil {
		return nil, err
	}
	if err := ApplyWeights(dst, src, kern, kind, BorderFilter); err != nil {
		return nil, err
	}
	return dst, nil
}
