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
)

// The stdev family computes the bias-corrected sample standard
// deviation sqrt(vsum/(n-1)) of the valid window samples, where vsum is
// the running scaled variance (sum of squared deviations, not
// normalized). All aggregates are kept in float64. Invariant throughout:
// vsum/(n-1) equals the unbiased sample variance of exactly the samples
// currently in the aggregate.

// stdevWindow is the general path: arbitrary stencils with optional
// input rejections, border mode FILTER. Welford's single-pass recurrence
// over the window samples in raster order.
func stdevWindow[D, S pix.Real](dst []D, src []S, w, h int, kern *kernel.Mask, srcRej []bool, rej *reject) {
	hx, hy := kern.HalfX(), kern.HalfY()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mean, vsum := 0.0, 0.0
			k := 0
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
					delta := float64(src[idx]) - mean
					vsum += delta * delta * float64(k) / float64(k+1)
					mean += delta / float64(k+1)
					k++
				}
			}
			emitStdev(dst, y*w+x, vsum, k, rej)
		}
	}
}

// stdevFast is the running sliding-window path: full stencil, border
// mode FILTER, no input rejections. Each column carries a running
// (mean, scaled variance) over the vertical window, updated by the
// single-sample add/remove recurrences as rows enter and leave. A second
// running aggregate merges column statistics horizontally, with the
// pairwise combination identity for pushing and popping a whole column.
// Populations differ between the ramp-up rows/columns, the steady-state
// interior, and the ramp-down near the far edge; every step passes the
// population valid before the update.
func stdevFast[D, S pix.Real](dst []D, src []S, w, h, hx, hy int, rej *reject) {
	colMean := make([]float64, w)
	colVar := make([]float64, w)

	// n is the per-column population before the update
	addRow := func(yy, n int) {
		base := yy * w
		for x := 0; x < w; x++ {
			d := float64(src[base+x]) - colMean[x]
			colVar[x] += d * d * float64(n) / float64(n+1)
			colMean[x] += d / float64(n+1)
		}
	}
	subRow := func(yy, n int) {
		base := yy * w
		for x := 0; x < w; x++ {
			d := float64(src[base+x]) - colMean[x]
			colMean[x] -= d / float64(n-1)
			colVar[x] -= d * d * float64(n) / float64(n-1)
		}
	}

	ny := hy + 1
	if ny > h {
		ny = h
	}
	for yy := 0; yy < ny; yy++ {
		addRow(yy, yy)
	}

	for y := 0; ; {
		mean, vsum := 0.0, 0.0
		n := 0
		merge := func(x int) {
			d := colMean[x] - mean
			nn := n + ny
			vsum += colVar[x] + d*d*float64(n)*float64(ny)/float64(nn)
			mean += d * float64(ny) / float64(nn)
			n = nn
		}
		unmerge := func(x int) {
			nn := n - ny
			dm := colMean[x] - mean
			rest := mean - dm*float64(ny)/float64(nn)
			d := colMean[x] - rest
			vsum -= colVar[x] + d*d*float64(nn)*float64(ny)/float64(n)
			mean = rest
			n = nn
		}

		nx := hx + 1
		if nx > w {
			nx = w
		}
		for x := 0; x < nx; x++ {
			merge(x)
		}
		di := y * w
		emitStdev(dst, di, vsum, n, rej)
		for x := 1; x < w; x++ {
			if xa := x + hx; xa < w {
				merge(xa)
			}
			if xr := x - hx - 1; xr >= 0 {
				unmerge(xr)
			}
			emitStdev(dst, di+x, vsum, n, rej)
		}

		y++
		if y >= h {
			break
		}
		if ya := y + hy; ya < h {
			addRow(ya, ny)
			ny++
		}
		if yr := y - hy - 1; yr >= 0 {
			subRow(yr, ny)
			ny--
		}
	}
}

func emitStdev[D pix.Real](dst []D, i int, vsum float64, n int, rej *reject) {
	if n < 2 {
		dst[i] = 0
		rej.flag(i)
		return
	}
	if vsum < 0 {
		vsum = 0 // guard against floating-point drift in the running path
	}
	dst[i] = D(math.Sqrt(vsum / float64(n-1)))
}
