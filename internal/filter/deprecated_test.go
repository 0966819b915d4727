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
	"errors"
	"testing"

	"github.com/valyala/fastrand"

	"github.com/obsframe/imfilter/internal/kernel"
	"github.com/obsframe/imfilter/internal/pix"
)

func TestNewMedian(t *testing.T) {
	rng := fastrand.RNG{}
	src := randBuffer32(&rng, 9, 7)
	kern := kernel.FullMask(2, 1)

	dst, err := NewMedian(src, kern, BorderCrop)
	if err != nil {
		t.Fatalf("NewMedian: %s", err)
	}
	if dst.Width() != 5 || dst.Height() != 5 || dst.Type() != pix.Float32 {
		t.Errorf("crop output %dx%d %v; want 5x5 float32", dst.Width(), dst.Height(), dst.Type())
	}

	want, _ := pix.NewBuffer(pix.Float32, 5, 5)
	if err := ApplyMask(want, src, kern, Median, BorderCrop); err != nil {
		t.Fatalf("ApplyMask: %s", err)
	}
	for i, v := range dst.Float32s() {
		if v != want.Float32s()[i] {
			t.Errorf("dst[%d]=%f; want %f", i, v, want.Float32s()[i])
			break
		}
	}

	if _, err := NewMedian(nil, kern, BorderFilter); !errors.Is(err, ErrNullInput) {
		t.Errorf("nil src: err=%v; want %v", err, ErrNullInput)
	}
}

func TestNewAverageAndStdDev(t *testing.T) {
	rng := fastrand.RNG{}
	src := randBuffer64(&rng, 6, 6)
	kern := kernel.FullMask(1, 1)

	avg, err := NewAverage(src, kern, BorderFilter)
	if err != nil {
		t.Fatalf("NewAverage: %s", err)
	}
	sd, err := NewStdDev(src, kern, BorderFilter)
	if err != nil {
		t.Fatalf("NewStdDev: %s", err)
	}
	if avg.Type() != pix.Float64 || sd.Type() != pix.Float64 {
		t.Errorf("output types %v,%v; want float64,float64", avg.Type(), sd.Type())
	}
	if _, err := NewAverage(src, kern, BorderNop); !errors.Is(err, ErrUnsupportedMode) {
		t.Errorf("average nop border: err=%v; want %v", err, ErrUnsupportedMode)
	}
}

func TestNewLinearAndMorpho(t *testing.T) {
	rng := fastrand.RNG{}
	src := randBuffer32(&rng, 5, 4)

	dst, err := NewLinear(src, kernel.Identity())
	if err != nil {
		t.Fatalf("NewLinear: %s", err)
	}
	for i, v := range dst.Float32s() {
		if v != src.Float32s()[i] {
			t.Errorf("identity dst[%d]=%f; want %f", i, v, src.Float32s()[i])
			break
		}
	}

	if _, err := NewMorpho(src, nil); !errors.Is(err, ErrNullInput) {
		t.Errorf("nil kernel: err=%v; want %v", err, ErrNullInput)
	}
	empty, _ := kernel.NewWeights(3, 3)
	if _, err := NewMorpho(src, empty); !errors.Is(err, ErrUnsupportedMode) {
		t.Errorf("empty kernel: err=%v; want %v", err, ErrUnsupportedMode)
	}
}
