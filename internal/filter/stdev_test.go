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
	"math"
	"testing"

	"github.com/valyala/fastrand"
	"gonum.org/v1/gonum/stat"

	"github.com/obsframe/imfilter/internal/kernel"
	"github.com/obsframe/imfilter/internal/pix"
)

func TestStdDevConstant(t *testing.T) {
	data := make([]float64, 36)
	for i := range data {
		data[i] = 123.456
	}
	src, _ := pix.FromFloat64(6, 6, data)
	dst, _ := pix.NewBuffer(pix.Float64, 6, 6)
	if err := ApplyMask(dst, src, kernel.FullMask(1, 1), StdDev, BorderFilter); err != nil {
		t.Fatalf("ApplyMask: %s", err)
	}
	for i, v := range dst.Float64s() {
		if v != 0 {
			t.Errorf("dst[%d]=%g; want 0", i, v)
		}
	}
	if dst.Mask() != nil {
		t.Errorf("mask attached though every window has two samples")
	}
}

func TestStdDevGonumOracle(t *testing.T) {
	rng := fastrand.RNG{}
	w, h := 10, 8
	src := randBuffer64(&rng, w, h)
	kern := kernel.FullMask(1, 1)
	dst, _ := pix.NewBuffer(pix.Float64, w, h)
	if err := ApplyMask(dst, src, kern, StdDev, BorderFilter); err != nil {
		t.Fatalf("ApplyMask: %s", err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			win := gatherWindow(src.Float64s(), w, h, kern, nil, x, y)
			want := stat.StdDev(win, nil)
			got := dst.Float64s()[y*w+x]
			if math.Abs(got-want) > 1e-8*(math.Abs(want)+1) {
				t.Errorf("(%d,%d)=%g; want %g", x, y, got, want)
			}
		}
	}
}

func TestStdDevFastMatchesWindow(t *testing.T) {
	rng := fastrand.RNG{}
	w, h := 60, 50
	src := randBuffer64(&rng, w, h)
	for r := 1; r <= 5; r++ {
		kern := kernel.FullMask(r, r)
		fast, _ := pix.NewBuffer(pix.Float64, w, h)
		if err := ApplyMask(fast, src, kern, StdDev, BorderFilter); err != nil {
			t.Fatalf("r=%d: %s", r, err)
		}
		slow := make([]float64, w*h)
		rej := &reject{width: w, height: h}
		stdevWindow(slow, src.Float64s(), w, h, kern, nil, rej)
		for i := range slow {
			f, s := fast.Float64s()[i], slow[i]
			if math.Abs(f-s) > 1e-7*(math.Abs(s)+1) {
				t.Errorf("r=%d: fast[%d]=%g window[%d]=%g", r, i, f, i, s)
				break
			}
		}
	}
}

func TestStdDevStencilWithRejections(t *testing.T) {
	rng := fastrand.RNG{}
	w, h := 13, 11
	src := randBuffer64(&rng, w, h)
	m, _ := pix.NewMask(w, h)
	for i := 0; i < w*h/4; i++ {
		m.Reject(int(rng.Uint32n(uint32(w))), int(rng.Uint32n(uint32(h))))
	}
	if err := src.SetMask(m); err != nil {
		t.Fatalf("SetMask: %s", err)
	}

	kern := kernel.FullMask(1, 1)
	kern.Set(1, 1, false) // ring stencil
	dst, _ := pix.NewBuffer(pix.Float64, w, h)
	if err := ApplyMask(dst, src, kern, StdDev, BorderFilter); err != nil {
		t.Fatalf("ApplyMask: %s", err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			win := gatherWindow(src.Float64s(), w, h, kern, m.Rejected(), x, y)
			got := dst.Float64s()[y*w+x]
			if len(win) < 2 {
				if got != 0 || dst.Mask() == nil || !dst.Mask().IsRejected(x, y) {
					t.Errorf("(%d,%d)=%g; want 0 flagged for %d samples", x, y, got, len(win))
				}
				continue
			}
			want := stat.StdDev(win, nil)
			if math.Abs(got-want) > 1e-8*(math.Abs(want)+1) {
				t.Errorf("(%d,%d)=%g; want %g", x, y, got, want)
			}
		}
	}
}

func TestStdDevTooFewSamples(t *testing.T) {
	rng := fastrand.RNG{}
	src := randBuffer32(&rng, 5, 5)

	// two active cells at opposite kernel corners: at image corner (0,0)
	// only one falls inside the image
	kern, _ := kernel.NewMask(3, 3)
	kern.Set(0, 0, true)
	kern.Set(2, 2, true)
	dst, _ := pix.NewBuffer(pix.Float32, 5, 5)
	if err := ApplyMask(dst, src, kern, StdDev, BorderFilter); err != nil {
		t.Fatalf("ApplyMask: %s", err)
	}
	if dst.Mask() == nil {
		t.Fatalf("no output mask despite underpopulated windows")
	}
	if !dst.Mask().IsRejected(0, 0) || dst.Float32s()[0] != 0 {
		t.Errorf("corner=%f rejected=%v; want 0 flagged", dst.Float32s()[0], dst.Mask().IsRejected(0, 0))
	}
	if dst.Mask().IsRejected(2, 2) {
		t.Errorf("interior flagged despite full window")
	}
}

func TestStdDevInt32Truncates(t *testing.T) {
	// edge windows hold {0,2} and {2,4}: stdev sqrt(2) ~ 1.414 truncates
	// to 1; the center window {0,2,4} has stdev exactly 2
	data := []int32{0, 2, 4}
	src, _ := pix.FromInt32(3, 1, data)
	kern := kernel.FullMask(1, 0)
	dst, _ := pix.NewBuffer(pix.Int32, 3, 1)
	if err := ApplyMask(dst, src, kern, StdDev, BorderFilter); err != nil {
		t.Fatalf("ApplyMask: %s", err)
	}
	want := []int32{1, 2, 1}
	for i, v := range dst.Int32s() {
		if v != want[i] {
			t.Errorf("dst[%d]=%d; want %d", i, v, want[i])
		}
	}
}
