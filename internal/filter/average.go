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

// avgFast is the running column-sum average: full stencil, border mode
// FILTER, no input rejections. Per-column sums spanning the kernel
// height are updated incrementally as the vertical window slides, and a
// horizontal running sum of column sums as the output column advances.
// Accumulation is in float64; useRecip trades one extra rounding for a
// multiplication instead of a division per pixel.
func avgFast[D, S pix.Real](dst []D, src []S, w, h, hx, hy int, useRecip bool) {
	colSum := make([]float64, w)
	ny := hy + 1
	if ny > h {
		ny = h
	}
	for yy := 0; yy < ny; yy++ {
		row := src[yy*w : (yy+1)*w]
		for x, v := range row {
			colSum[x] += float64(v)
		}
	}

	recip, lastN := 0.0, 0
	emit := func(i int, run float64, n int) {
		if useRecip {
			if n != lastN {
				recip = 1 / float64(n)
				lastN = n
			}
			dst[i] = D(run * recip)
		} else {
			dst[i] = D(run / float64(n))
		}
	}

	for y := 0; ; {
		run := 0.0
		nx := hx + 1
		if nx > w {
			nx = w
		}
		for x := 0; x < nx; x++ {
			run += colSum[x]
		}
		di := y * w
		emit(di, run, nx*ny)
		for x := 1; x < w; x++ {
			if xa := x + hx; xa < w {
				run += colSum[xa]
				nx++
			}
			if xr := x - hx - 1; xr >= 0 {
				run -= colSum[xr]
				nx--
			}
			emit(di+x, run, nx*ny)
		}

		y++
		if y >= h {
			break
		}
		if ya := y + hy; ya < h {
			row := src[ya*w : (ya+1)*w]
			for x, v := range row {
				colSum[x] += float64(v)
			}
			ny++
		}
		if yr := y - hy - 1; yr >= 0 {
			row := src[yr*w : (yr+1)*w]
			for x, v := range row {
				colSum[x] -= float64(v)
			}
			ny--
		}
	}
}

// avgFastInt is avgFast for int32 in and out, accumulating exactly in
// int64. The reciprocal optimization does not apply here.
func avgFastInt(dst, src []int32, w, h, hx, hy int) {
	colSum := make([]int64, w)
	ny := hy + 1
	if ny > h {
		ny = h
	}
	for yy := 0; yy < ny; yy++ {
		row := src[yy*w : (yy+1)*w]
		for x, v := range row {
			colSum[x] += int64(v)
		}
	}

	for y := 0; ; {
		run := int64(0)
		nx := hx + 1
		if nx > w {
			nx = w
		}
		for x := 0; x < nx; x++ {
			run += colSum[x]
		}
		di := y * w
		dst[di] = int32(run / int64(nx*ny))
		for x := 1; x < w; x++ {
			if xa := x + hx; xa < w {
				run += colSum[xa]
				nx++
			}
			if xr := x - hx - 1; xr >= 0 {
				run -= colSum[xr]
				nx--
			}
			dst[di+x] = int32(run / int64(nx*ny))
		}

		y++
		if y >= h {
			break
		}
		if ya := y + hy; ya < h {
			row := src[ya*w : (ya+1)*w]
			for x, v := range row {
				colSum[x] += int64(v)
			}
			ny++
		}
		if yr := y - hy - 1; yr >= 0 {
			row := src[yr*w : (yr+1)*w]
			for x, v := range row {
				colSum[x] -= int64(v)
			}
			ny--
		}
	}
}

// avgFastBPM is the running column-sum average with a bad-pixel map:
// full stencil, border mode FILTER. Parallel running per-column sample
// counts track how many valid samples each column contributes; a window
// without any valid sample becomes zero and is flagged.
func avgFastBPM[D, S pix.Real](dst []D, src []S, w, h, hx, hy int, srcRej []bool, rej *reject) {
	colSum := make([]float64, w)
	colCnt := make([]int, w)
	addRow := func(yy int) {
		base := yy * w
		for x := 0; x < w; x++ {
			if srcRej[base+x] {
				continue
			}
			colSum[x] += float64(src[base+x])
			colCnt[x]++
		}
	}
	subRow := func(yy int) {
		base := yy * w
		for x := 0; x < w; x++ {
			if srcRej[base+x] {
				continue
			}
			colSum[x] -= float64(src[base+x])
			colCnt[x]--
		}
	}

	ny := hy + 1
	if ny > h {
		ny = h
	}
	for yy := 0; yy < ny; yy++ {
		addRow(yy)
	}

	for y := 0; ; {
		run, cnt := 0.0, 0
		nx := hx + 1
		if nx > w {
			nx = w
		}
		for x := 0; x < nx; x++ {
			run += colSum[x]
			cnt += colCnt[x]
		}
		di := y * w
		emitAvg(dst, di, run, cnt, rej)
		for x := 1; x < w; x++ {
			if xa := x + hx; xa < w {
				run += colSum[xa]
				cnt += colCnt[xa]
			}
			if xr := x - hx - 1; xr >= 0 {
				run -= colSum[xr]
				cnt -= colCnt[xr]
			}
			emitAvg(dst, di+x, run, cnt, rej)
		}

		y++
		if y >= h {
			break
		}
		if ya := y + hy; ya < h {
			addRow(ya)
		}
		if yr := y - hy - 1; yr >= 0 {
			subRow(yr)
		}
	}
}

func emitAvg[D pix.Real](dst []D, i int, sum float64, n int, rej *reject) {
	if n == 0 {
		dst[i] = 0
		rej.flag(i)
		return
	}
	dst[i] = D(sum / float64(n))
}

// avgWindow is the general average path: arbitrary stencils with
// optional input rejections, border mode FILTER. Each output position
// explicitly sums the valid samples under the active cells.
func avgWindow[D, S pix.Real](dst []D, src []S, w, h int, kern *kernel.Mask, srcRej []bool, rej *reject) {
	hx, hy := kern.HalfX(), kern.HalfY()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum, n := 0.0, 0
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
					sum += float64(src[idx])
					n++
				}
			}
			emitAvg(dst, y*w+x, sum, n, rej)
		}
	}
}
