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

	"github.com/obsframe/imfilter/internal/kernel"
	"github.com/obsframe/imfilter/internal/pix"
	"github.com/obsframe/imfilter/internal/qsel"
)

// linearFilter convolves the valid window samples with the weight
// kernel. Kernel rows are applied in reversed order, so row 0 maps to
// image row offset +halfY; this keeps convolution pixel-shift semantics
// rather than correlation. Weights of rejected or out-of-bounds samples
// are excluded from both the weighted sum and, for the flux-preserving
// variant, the normalization term. scale selects flux-scaling
// normalization by the absolute weight sum of the whole kernel.
func linearFilter[D, S pix.Real](dst []D, src []S, w, h int, kern *kernel.Weights, scale bool, srcRej []bool, rej *reject) {
	hx, hy := kern.HalfX(), kern.HalfY()
	total := kern.AbsSum()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum, wsum := 0.0, 0.0
			n := 0
			for ky := 0; ky < kern.Height(); ky++ {
				yy := y + hy - ky // reversed row order
				if yy < 0 || yy >= h {
					continue
				}
				for kx := 0; kx < kern.Width(); kx++ {
					xx := x + kx - hx
					if xx < 0 || xx >= w {
						continue
					}
					idx := yy*w + xx
					if srcRej != nil && srcRej[idx] {
						continue
					}
					wt := kern.At(kx, ky)
					sum += wt * float64(src[idx])
					wsum += math.Abs(wt)
					n++
				}
			}
			den := wsum
			if scale {
				den = total
			}
			di := y*w + x
			if n == 0 || den == 0 {
				dst[di] = 0
				rej.flag(di)
				continue
			}
			dst[di] = D(sum / den)
		}
	}
}

// morphoFilter realizes generalized order-statistic filters: the valid
// window samples are sorted ascending and combined with the kernel
// weights by rank, weight k multiplying the k-th smallest sample. A zero
// weight contributes nothing but still consumes window capacity, since
// the window population is determined by validity alone. Normalization
// follows the linear filter: absolute weights actually used, or the
// whole kernel when scale is set.
func morphoFilter[D, S pix.Real](dst []D, src []S, w, h int, kern *kernel.Weights, scale bool, srcRej []bool, rej *reject) {
	hx, hy := kern.HalfX(), kern.HalfY()
	kw, kh := kern.Width(), kern.Height()

	// rank weights flattened with rows reversed, matching linearFilter
	rw := make([]float64, 0, kw*kh)
	for ky := kh - 1; ky >= 0; ky-- {
		for kx := 0; kx < kw; kx++ {
			rw = append(rw, kern.At(kx, ky))
		}
	}
	total := kern.AbsSum()

	window := make([]float64, 0, kw*kh)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			window = window[:0]
			for ky := 0; ky < kh; ky++ {
				yy := y + ky - hy
				if yy < 0 || yy >= h {
					continue
				}
				for kx := 0; kx < kw; kx++ {
					xx := x + kx - hx
					if xx < 0 || xx >= w {
						continue
					}
					idx := yy*w + xx
					if srcRej != nil && srcRej[idx] {
						continue
					}
					window = append(window, float64(src[idx]))
				}
			}
			di := y*w + x
			if len(window) == 0 {
				dst[di] = 0
				rej.flag(di)
				continue
			}
			qsel.Sort(window)
			sum, wsum := 0.0, 0.0
			for k, v := range window {
				sum += rw[k] * v
				wsum += math.Abs(rw[k])
			}
			den := wsum
			if scale {
				den = total
			}
			if den == 0 {
				dst[di] = 0
				rej.flag(di)
				continue
			}
			dst[di] = D(sum / den)
		}
	}
}
