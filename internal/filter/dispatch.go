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
	"fmt"

	"github.com/obsframe/imfilter/internal/kernel"
	"github.com/obsframe/imfilter/internal/pix"
)

// ApplyMask filters src through a boolean stencil kernel into the
// caller-provided dst. Supported kinds are Median, Average and StdDev.
// All preconditions are checked before any sample is written; on success
// a pre-existing mask on dst is reset, and a mask is attached to dst if
// any output position had too few valid samples.
func ApplyMask(dst, src *pix.Buffer, kern *kernel.Mask, kind Kind, border Border) error {
	return ApplyMaskOpt(dst, src, kern, kind, border, nil)
}

// ApplyMaskOpt is ApplyMask with explicit engine options.
func ApplyMaskOpt(dst, src *pix.Buffer, kern *kernel.Mask, kind Kind, border Border, opt *Options) error {
	if dst == nil || src == nil || kern == nil {
		return fmt.Errorf("buffer or kernel argument missing: %w", ErrNullInput)
	}
	if !kind.maskKind() {
		if kind.weightKind() {
			return fmt.Errorf("filter %v needs a weight kernel: %w", kind, ErrIllegalInput)
		}
		return fmt.Errorf("unknown filter %d: %w", int(kind), ErrIllegalInput)
	}
	if kern.Width()&1 == 0 || kern.Height()&1 == 0 || kern.Width() <= 0 || kern.Height() <= 0 {
		return fmt.Errorf("kernel size %dx%d must be odd: %w", kern.Width(), kern.Height(), ErrIllegalInput)
	}
	if n, need := kern.Count(), minCells(kind); n < need {
		return fmt.Errorf("%v filter needs at least %d active kernel cells, have %d: %w",
			kind, need, n, ErrDataNotFound)
	}
	if kern.Width() > src.Width() || kern.Height() > src.Height() {
		return fmt.Errorf("kernel size %dx%d exceeds input size %dx%d: %w",
			kern.Width(), kern.Height(), src.Width(), src.Height(), ErrAccessOutOfRange)
	}
	if !src.Type().Valid() || !dst.Type().Valid() {
		return fmt.Errorf("element types in %v, out %v: %w", src.Type(), dst.Type(), ErrInvalidType)
	}
	if kind == Median && dst.Type() != src.Type() {
		return fmt.Errorf("median filter in %v, out %v: %w", src.Type(), dst.Type(), ErrTypeMismatch)
	}
	if err := checkBorder(kind, border); err != nil {
		return err
	}
	hx, hy := kern.HalfX(), kern.HalfY()
	if err := checkShape(dst, src, hx, hy, border); err != nil {
		return err
	}
	if err := checkAliasing(dst, src, hy); err != nil {
		return err
	}

	hasBPM := src.Mask() != nil && !src.Mask().AllValid()
	rej := prepare(dst)

	var err error
	switch kind {
	case Median:
		switch src.Type() {
		case pix.Int32:
			err = medianDispatch[int32](dst, src, kern, hasBPM, border, rej)
		case pix.Float32:
			err = medianDispatch[float32](dst, src, kern, hasBPM, border, rej)
		case pix.Float64:
			err = medianDispatch[float64](dst, src, kern, hasBPM, border, rej)
		}
	case Average, StdDev:
		err = statDispatch(dst, src, kern, kind, hasBPM, opt, rej)
	}
	if err != nil {
		return err
	}
	return finish(dst, rej)
}

// ApplyWeights filters src through a real-valued weight kernel into the
// caller-provided dst. Supported kinds are Linear, LinearScale, Morpho
// and MorphoScale, all under BorderFilter only.
func ApplyWeights(dst, src *pix.Buffer, kern *kernel.Weights, kind Kind, border Border) error {
	if dst == nil || src == nil || kern == nil {
		return fmt.Errorf("buffer or kernel argument missing: %w", ErrNullInput)
	}
	if !kind.weightKind() {
		if kind.maskKind() {
			return fmt.Errorf("filter %v needs a stencil kernel: %w", kind, ErrIllegalInput)
		}
		return fmt.Errorf("unknown filter %d: %w", int(kind), ErrIllegalInput)
	}
	if kern.Width()&1 == 0 || kern.Height()&1 == 0 || kern.Width() <= 0 || kern.Height() <= 0 {
		return fmt.Errorf("kernel size %dx%d must be odd: %w", kern.Width(), kern.Height(), ErrIllegalInput)
	}
	if kern.Empty() {
		return fmt.Errorf("all-zero weight kernel divides by zero: %w", ErrUnsupportedMode)
	}
	if kern.Width() > src.Width() || kern.Height() > src.Height() {
		return fmt.Errorf("kernel size %dx%d exceeds input size %dx%d: %w",
			kern.Width(), kern.Height(), src.Width(), src.Height(), ErrAccessOutOfRange)
	}
	if !src.Type().Valid() || !dst.Type().Valid() {
		return fmt.Errorf("element types in %v, out %v: %w", src.Type(), dst.Type(), ErrInvalidType)
	}
	if border != BorderFilter {
		return fmt.Errorf("%v filter does not support border mode %v: %w", kind, border, ErrUnsupportedMode)
	}
	hx, hy := kern.HalfX(), kern.HalfY()
	if err := checkShape(dst, src, hx, hy, border); err != nil {
		return err
	}
	if err := checkAliasing(dst, src, hy); err != nil {
		return err
	}
	if dst.Type() == pix.Float64 {
		if _, shared := pix.SameArray(dst.Float64s(), kern.Values()); shared {
			return fmt.Errorf("weight kernel aliases the output buffer: %w", ErrUnsupportedMode)
		}
	}

	hasBPM := src.Mask() != nil && !src.Mask().AllValid()
	rej := prepare(dst)
	if err := weightDispatch(dst, src, kern, kind, hasBPM, rej); err != nil {
		return err
	}
	return finish(dst, rej)
}

// minCells is the number of active stencil cells a filter requires.
// Sample variance needs two, everything else one.
func minCells(kind Kind) int {
	if kind == StdDev {
		return 2
	}
	return 1
}

func checkBorder(kind Kind, border Border) error {
	switch border {
	case BorderFilter:
		return nil
	case BorderCopy, BorderNop, BorderCrop:
		if kind == Median {
			return nil
		}
	}
	return fmt.Errorf("%v filter does not support border mode %v: %w", kind, border, ErrUnsupportedMode)
}

func checkShape(dst, src *pix.Buffer, hx, hy int, border Border) error {
	wantW, wantH := src.Width(), src.Height()
	if border == BorderCrop {
		wantW, wantH = src.Width()-2*hx, src.Height()-2*hy
	}
	if dst.Width() != wantW || dst.Height() != wantH {
		return fmt.Errorf("output size %dx%d, want %dx%d for border mode %v: %w",
			dst.Width(), dst.Height(), wantW, wantH, border, ErrIncompatibleInput)
	}
	return nil
}

// checkAliasing enforces the overlap contract between output and input
// sample storage. Same-typed buffers may share a backing array only if
// the output lies entirely after the input, or the input starts at least
// halfY+1 output rows after the output. Buffers of differing element
// types cannot share a backing array in safe Go at all.
func checkAliasing(dst, src *pix.Buffer, hy int) error {
	if dst.Type() != src.Type() {
		return nil
	}
	var off int
	var shared bool
	switch dst.Type() {
	case pix.Int32:
		off, shared = pix.SameArray(dst.Int32s(), src.Int32s())
	case pix.Float32:
		off, shared = pix.SameArray(dst.Float32s(), src.Float32s())
	case pix.Float64:
		off, shared = pix.SameArray(dst.Float64s(), src.Float64s())
	}
	if !shared {
		return nil
	}
	// off is the element offset of the input start relative to the output start.
	if off+src.Pixels() <= 0 {
		return nil // output entirely after the input
	}
	if off >= (hy+1)*dst.Width() {
		return nil // input beyond the sliding window's write horizon
	}
	return fmt.Errorf("output and input buffers overlap: %w", ErrUnsupportedMode)
}

// prepare resets a pre-existing output mask to all-valid and hands its
// rejection map to the reject accumulator for in-place reuse.
func prepare(dst *pix.Buffer) *reject {
	r := &reject{width: dst.Width(), height: dst.Height()}
	if m := dst.Mask(); m != nil {
		m.Reset()
		r.bad = m.Rejected()
	}
	return r
}

// finish attaches a freshly built mask to the output buffer if any
// position was flagged and no mask was attached before.
func finish(dst *pix.Buffer, rej *reject) error {
	if !rej.flagged || dst.Mask() != nil {
		return nil
	}
	m, err := pix.WrapMask(dst.Width(), dst.Height(), rej.bad)
	if err != nil {
		return err
	}
	return dst.SetMask(m)
}

func medianDispatch[T pix.Real](dst, src *pix.Buffer, kern *kernel.Mask, hasBPM bool, border Border, rej *reject) error {
	d, s := pix.Samples[T](dst), pix.Samples[T](src)
	if kern.Full() && !hasBPM {
		medianFast(d, s, src.Width(), src.Height(), kern.HalfX(), kern.HalfY(), border)
		return nil
	}
	var srcRej []bool
	if hasBPM {
		srcRej = src.Mask().Rejected()
	}
	return medianWindow(d, s, src.Width(), src.Height(), kern, srcRej, border, rej)
}

func statDispatch(dst, src *pix.Buffer, kern *kernel.Mask, kind Kind, hasBPM bool, opt *Options, rej *reject) error {
	switch src.Type() {
	case pix.Int32:
		return statDispatchSrc[int32](dst, src, kern, kind, hasBPM, opt, rej)
	case pix.Float32:
		return statDispatchSrc[float32](dst, src, kern, kind, hasBPM, opt, rej)
	case pix.Float64:
		return statDispatchSrc[float64](dst, src, kern, kind, hasBPM, opt, rej)
	}
	return fmt.Errorf("input type %v: %w", src.Type(), ErrInvalidType)
}

func statDispatchSrc[S pix.Real](dst, src *pix.Buffer, kern *kernel.Mask, kind Kind, hasBPM bool, opt *Options, rej *reject) error {
	switch dst.Type() {
	case pix.Int32:
		return statRun[int32, S](dst, src, kern, kind, hasBPM, opt, rej)
	case pix.Float32:
		return statRun[float32, S](dst, src, kern, kind, hasBPM, opt, rej)
	case pix.Float64:
		return statRun[float64, S](dst, src, kern, kind, hasBPM, opt, rej)
	}
	return fmt.Errorf("output type %v: %w", dst.Type(), ErrInvalidType)
}

func statRun[D, S pix.Real](dst, src *pix.Buffer, kern *kernel.Mask, kind Kind, hasBPM bool, opt *Options, rej *reject) error {
	d, s := pix.Samples[D](dst), pix.Samples[S](src)
	w, h := src.Width(), src.Height()
	hx, hy := kern.HalfX(), kern.HalfY()
	var srcRej []bool
	if hasBPM {
		srcRej = src.Mask().Rejected()
	}
	switch kind {
	case Average:
		switch {
		case kern.Full() && !hasBPM:
			if dst.Type() == pix.Int32 && src.Type() == pix.Int32 {
				// integer accumulation, reciprocal optimization disabled
				avgFastInt(pix.Samples[int32](dst), pix.Samples[int32](src), w, h, hx, hy)
			} else {
				avgFast(d, s, w, h, hx, hy, opt != nil && opt.UseReciprocal)
			}
		case kern.Full():
			avgFastBPM(d, s, w, h, hx, hy, srcRej, rej)
		default:
			avgWindow(d, s, w, h, kern, srcRej, rej)
		}
	case StdDev:
		if kern.Full() && !hasBPM {
			stdevFast(d, s, w, h, hx, hy, rej)
		} else {
			stdevWindow(d, s, w, h, kern, srcRej, rej)
		}
	}
	return nil
}

func weightDispatch(dst, src *pix.Buffer, kern *kernel.Weights, kind Kind, hasBPM bool, rej *reject) error {
	switch src.Type() {
	case pix.Int32:
		return weightDispatchSrc[int32](dst, src, kern, kind, hasBPM, rej)
	case pix.Float32:
		return weightDispatchSrc[float32](dst, src, kern, kind, hasBPM, rej)
	case pix.Float64:
		return weightDispatchSrc[float64](dst, src, kern, kind, hasBPM, rej)
	}
	return fmt.Errorf("input type %v: %w", src.Type(), ErrInvalidType)
}

func weightDispatchSrc[S pix.Real](dst, src *pix.Buffer, kern *kernel.Weights, kind Kind, hasBPM bool, rej *reject) error {
	switch dst.Type() {
	case pix.Int32:
		return weightRun[int32, S](dst, src, kern, kind, hasBPM, rej)
	case pix.Float32:
		return weightRun[float32, S](dst, src, kern, kind, hasBPM, rej)
	case pix.Float64:
		return weightRun[float64, S](dst, src, kern, kind, hasBPM, rej)
	}
	return fmt.Errorf("output type %v: %w", dst.Type(), ErrInvalidType)
}

func weightRun[D, S pix.Real](dst, src *pix.Buffer, kern *kernel.Weights, kind Kind, hasBPM bool, rej *reject) error {
	d, s := pix.Samples[D](dst), pix.Samples[S](src)
	w, h := src.Width(), src.Height()
	var srcRej []bool
	if hasBPM {
		srcRej = src.Mask().Rejected()
	}
	switch kind {
	case Linear, LinearScale:
		linearFilter(d, s, w, h, kern, kind == LinearScale, srcRej, rej)
	case Morpho, MorphoScale:
		morphoFilter(d, s, w, h, kern, kind == MorphoScale, srcRej, rej)
	}
	return nil
}
