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

// gatherWindow collects the valid samples under the stencil at (x,y).
func gatherWindow(src []float64, w, h int, kern *kernel.Mask, srcRej []bool, x, y int) []float64 {
	hx, hy := kern.HalfX(), kern.HalfY()
	var win []float64
	for ky := 0; ky < kern.Height(); ky++ {
		yy := y + ky - hy
		if yy < 0 || yy >= h {
			continue
		}
		for kx := 0; kx < kern.Width(); kx++ {
			if !kern.Get(kx, ky) {
				continue
			}
			xx := x + kx - hx
			if xx < 0 || xx >= w {
				continue
			}
			idx := yy*w + xx
			if srcRej != nil && srcRej[idx] {
				continue
			}
			win = append(win, src[idx])
		}
	}
	return win
}

func TestAverageConstant(t *testing.T) {
	data := make([]int32, 25)
	for i := range data {
		data[i] = 10
	}
	src, _ := pix.FromInt32(5, 5, data)
	dst, _ := pix.NewBuffer(pix.Int32, 5, 5)
	if err := ApplyMask(dst, src, kernel.FullMask(1, 1), Average, BorderFilter); err != nil {
		t.Fatalf("ApplyMask: %s", err)
	}
	for i, v := range dst.Int32s() {
		if v != 10 {
			t.Errorf("dst[%d]=%d; want 10", i, v)
		}
	}
	if dst.Mask() != nil {
		t.Errorf("mask attached on fully valid input")
	}
}

func TestAverageIdentity(t *testing.T) {
	rng := fastrand.RNG{}
	src := randBuffer32(&rng, 7, 4)
	center, _ := kernel.NewMask(3, 3)
	center.Set(1, 1, true)
	for _, kern := range []*kernel.Mask{kernel.FullMask(0, 0), center} {
		dst, _ := pix.NewBuffer(pix.Float32, 7, 4)
		if err := ApplyMask(dst, src, kern, Average, BorderFilter); err != nil {
			t.Fatalf("cells=%d: %s", kern.Count(), err)
		}
		for i, v := range dst.Float32s() {
			if v != src.Float32s()[i] {
				t.Errorf("cells=%d: dst[%d]=%f; want %f", kern.Count(), i, v, src.Float32s()[i])
				break
			}
		}
	}
}

func TestAverageExcludesRejected(t *testing.T) {
	data := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}
	src, _ := pix.FromFloat32(3, 3, data)
	m, _ := pix.NewMask(3, 3)
	m.Reject(0, 0)
	if err := src.SetMask(m); err != nil {
		t.Fatalf("SetMask: %s", err)
	}
	dst, _ := pix.NewBuffer(pix.Float32, 3, 3)
	if err := ApplyMask(dst, src, kernel.FullMask(1, 1), Average, BorderFilter); err != nil {
		t.Fatalf("ApplyMask: %s", err)
	}
	// center window holds 2..9, the rejected 1 is excluded
	if got := dst.Float32s()[4]; got != 5.5 {
		t.Errorf("center=%f; want 5.5", got)
	}
	// the rejected sample's own window still averages its valid neighbors
	if got := dst.Float32s()[0]; got != (2+4+5)/3.0 {
		t.Errorf("corner=%f; want %f", got, (2+4+5)/3.0)
	}
	if dst.Mask() != nil {
		t.Errorf("mask attached though every window has valid samples")
	}
}

func TestAverageIntTruncates(t *testing.T) {
	// corner window of a full 3x3 kernel covers 4 samples summing to 7
	data := []int32{1, 2, 0, 2, 2, 0, 0, 0, 0}
	src, _ := pix.FromInt32(3, 3, data)
	dst, _ := pix.NewBuffer(pix.Int32, 3, 3)
	if err := ApplyMask(dst, src, kernel.FullMask(1, 1), Average, BorderFilter); err != nil {
		t.Fatalf("ApplyMask: %s", err)
	}
	if got := dst.Int32s()[0]; got != 1 {
		t.Errorf("int corner=%d; want 1", got)
	}

	// a float output of the same input keeps the fraction
	df, _ := pix.NewBuffer(pix.Float32, 3, 3)
	if err := ApplyMask(df, src, kernel.FullMask(1, 1), Average, BorderFilter); err != nil {
		t.Fatalf("ApplyMask: %s", err)
	}
	if got := df.Float32s()[0]; got != 1.75 {
		t.Errorf("float corner=%f; want 1.75", got)
	}
}

func TestAverageGonumOracle(t *testing.T) {
	rng := fastrand.RNG{}
	w, h := 12, 10
	src := randBuffer64(&rng, w, h)
	kern := kernel.FullMask(2, 1)
	dst, _ := pix.NewBuffer(pix.Float64, w, h)
	if err := ApplyMask(dst, src, kern, Average, BorderFilter); err != nil {
		t.Fatalf("ApplyMask: %s", err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			win := gatherWindow(src.Float64s(), w, h, kern, nil, x, y)
			want := stat.Mean(win, nil)
			got := dst.Float64s()[y*w+x]
			if math.Abs(got-want) > 1e-9*math.Abs(want) {
				t.Errorf("(%d,%d)=%g; want %g", x, y, got, want)
			}
		}
	}
}

func TestAverageReciprocal(t *testing.T) {
	rng := fastrand.RNG{}
	w, h := 30, 20
	src := randBuffer64(&rng, w, h)
	kern := kernel.FullMask(2, 2)

	plain, _ := pix.NewBuffer(pix.Float64, w, h)
	if err := ApplyMaskOpt(plain, src, kern, Average, BorderFilter, nil); err != nil {
		t.Fatalf("plain: %s", err)
	}
	recip, _ := pix.NewBuffer(pix.Float64, w, h)
	if err := ApplyMaskOpt(recip, src, kern, Average, BorderFilter, &Options{UseReciprocal: true}); err != nil {
		t.Fatalf("reciprocal: %s", err)
	}
	for i := range plain.Float64s() {
		p, r := plain.Float64s()[i], recip.Float64s()[i]
		if math.Abs(p-r) > 1e-9*math.Abs(p) {
			t.Errorf("dst[%d] plain=%g reciprocal=%g", i, p, r)
			break
		}
	}
}

func TestAverageFastBPMMatchesWindow(t *testing.T) {
	rng := fastrand.RNG{}
	w, h := 25, 19
	src := randBuffer64(&rng, w, h)
	m, _ := pix.NewMask(w, h)
	for i := 0; i < w*h/5; i++ {
		m.Reject(int(rng.Uint32n(uint32(w))), int(rng.Uint32n(uint32(h))))
	}
	if err := src.SetMask(m); err != nil {
		t.Fatalf("SetMask: %s", err)
	}

	for _, r := range [][2]int{{1, 1}, {3, 2}} {
		kern := kernel.FullMask(r[0], r[1])
		fast, _ := pix.NewBuffer(pix.Float64, w, h)
		if err := ApplyMask(fast, src, kern, Average, BorderFilter); err != nil {
			t.Fatalf("r=%v: %s", r, err)
		}
		slow := make([]float64, w*h)
		rej := &reject{width: w, height: h}
		avgWindow(slow, src.Float64s(), w, h, kern, m.Rejected(), rej)
		for i := range slow {
			f, s := fast.Float64s()[i], slow[i]
			if math.Abs(f-s) > 1e-9*(math.Abs(s)+1) {
				t.Errorf("r=%v: fast[%d]=%g window[%d]=%g", r, i, f, i, s)
				break
			}
		}
	}
}
