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
	"sort"

	"github.com/obsframe/imfilter/internal/kernel"
	"github.com/obsframe/imfilter/internal/pix"
	"github.com/obsframe/imfilter/internal/qsel"
)

// medianFast filters with a full stencil and no input rejections. It
// maintains an explicitly sorted sliding window per output row, so even
// window populations near the image edge yield the mean of the two
// central order statistics without a second pass.
func medianFast[T pix.Real](dst, src []T, w, h, hx, hy int, border Border) {
	switch border {
	case BorderFilter:
		medianSlide(dst, src, w, h, hx, hy, 0, h-1, 0, w-1, w, 0, 0)
	case BorderCrop:
		medianSlide(dst, src, w, h, hx, hy, hy, h-1-hy, hx, w-1-hx, w-2*hx, hx, hy)
	case BorderCopy:
		copyRows(dst, src, w, 0, hy)
		for y := hy; y <= h-1-hy; y++ {
			copy(dst[y*w:y*w+hx], src[y*w:y*w+hx])
			medianSlide(dst, src, w, h, hx, hy, y, y, hx, w-1-hx, w, 0, 0)
			copy(dst[(y+1)*w-hx:(y+1)*w], src[(y+1)*w-hx:(y+1)*w])
		}
		copyRows(dst, src, w, h-hy, h)
	case BorderNop:
		medianSlide(dst, src, w, h, hx, hy, hy, h-1-hy, hx, w-1-hx, w, 0, 0)
	}
}

// medianSlide computes window medians for output centers in
// [xFrom..xTo]x[yFrom..yTo] of the input grid, writing sample (x,y) to
// dst[(y-dstYOff)*dstW+(x-dstXOff)]. Windows are clipped to the image
// bounds; clipping only takes effect under border mode FILTER. The
// sorted window is rebuilt per row and updated per column step.
func medianSlide[T pix.Real](dst, src []T, w, h, hx, hy, yFrom, yTo, xFrom, xTo, dstW, dstXOff, dstYOff int) {
	if yTo < yFrom || xTo < xFrom {
		return
	}
	win := make([]T, 0, (2*hx+1)*(2*hy+1))
	for y := yFrom; y <= yTo; y++ {
		wy0, wy1 := y-hy, y+hy
		if wy0 < 0 {
			wy0 = 0
		}
		if wy1 > h-1 {
			wy1 = h - 1
		}
		x := xFrom
		wx0, wx1 := x-hx, x+hx
		if wx0 < 0 {
			wx0 = 0
		}
		if wx1 > w-1 {
			wx1 = w - 1
		}
		win = win[:0]
		for xx := wx0; xx <= wx1; xx++ {
			for yy := wy0; yy <= wy1; yy++ {
				win = append(win, src[yy*w+xx])
			}
		}
		qsel.Sort(win)
		dst[(y-dstYOff)*dstW+(x-dstXOff)] = sortedMedian(win)

		for x = xFrom + 1; x <= xTo; x++ {
			nx0, nx1 := x-hx, x+hx
			if nx0 < 0 {
				nx0 = 0
			}
			if nx1 > w-1 {
				nx1 = w - 1
			}
			for xx := wx0; xx < nx0; xx++ { // columns leaving the window
				for yy := wy0; yy <= wy1; yy++ {
					win = sortedRemove(win, src[yy*w+xx])
				}
			}
			for xx := wx1 + 1; xx <= nx1; xx++ { // columns entering the window
				for yy := wy0; yy <= wy1; yy++ {
					win = sortedInsert(win, src[yy*w+xx])
				}
			}
			wx0, wx1 = nx0, nx1
			dst[(y-dstYOff)*dstW+(x-dstXOff)] = sortedMedian(win)
		}
	}
}

// sortedMedian returns the median of an ascending window: central order
// statistic for odd populations, mean of the two central ones for even.
func sortedMedian[T pix.Real](win []T) T {
	n := len(win)
	if n&1 == 1 {
		return win[n>>1]
	}
	lo, hi := win[n>>1-1], win[n>>1]
	return lo + (hi-lo)/2
}

func sortedInsert[T pix.Real](win []T, v T) []T {
	n := len(win)
	i := sort.Search(n, func(j int) bool { return win[j] >= v })
	win = append(win, v)
	copy(win[i+1:], win[i:n])
	win[i] = v
	return win
}

func sortedRemove[T pix.Real](win []T, v T) []T {
	i := sort.Search(len(win), func(j int) bool { return win[j] >= v })
	return append(win[:i], win[i+1:]...)
}

// medianWindow is the general median path: arbitrary stencils, input
// rejections, all border modes. Each output position gathers the valid
// samples under the active cells into a scratch window and selects the
// median; a position with no valid samples becomes zero and is flagged.
func medianWindow[T pix.Real](dst, src []T, w, h int, kern *kernel.Mask, srcRej []bool, border Border, rej *reject) error {
	hx, hy := kern.HalfX(), kern.HalfY()
	window := make([]T, 0, kern.Width()*kern.Height())
	filterAt := func(x, y, di int) {
		window = window[:0]
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
				window = append(window, src[idx])
			}
		}
		if len(window) == 0 {
			dst[di] = 0
			rej.flag(di)
			return
		}
		dst[di] = qsel.Median(window)
	}

	switch border {
	case BorderFilter:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				filterAt(x, y, y*w+x)
			}
		}
	case BorderCrop:
		outW := w - 2*hx
		for y := hy; y < h-hy; y++ {
			for x := hx; x < w-hx; x++ {
				filterAt(x, y, (y-hy)*outW+(x-hx))
			}
		}
	case BorderCopy:
		copyRows(dst, src, w, 0, hy)
		for y := hy; y < h-hy; y++ {
			copy(dst[y*w:y*w+hx], src[y*w:y*w+hx])
			for x := hx; x < w-hx; x++ {
				filterAt(x, y, y*w+x)
			}
			copy(dst[(y+1)*w-hx:(y+1)*w], src[(y+1)*w-hx:(y+1)*w])
		}
		copyRows(dst, src, w, h-hy, h)
	case BorderNop:
		for y := hy; y < h-hy; y++ {
			for x := hx; x < w-hx; x++ {
				filterAt(x, y, y*w+x)
			}
		}
	default:
		// unreachable after dispatch validation
		return fmt.Errorf("border mode %d: %w", int(border), ErrUnsupportedMode)
	}
	return nil
}

// copyRows replicates rows [yFrom,yTo) verbatim from input to output.
// Border replication under mode COPY proceeds strictly in row order,
// interleaved with the interior pass, so that no write ever lands ahead
// of a pending read when the two buffers share a backing array.
func copyRows[T pix.Real](dst, src []T, w, yFrom, yTo int) {
	copy(dst[yFrom*w:yTo*w], src[yFrom*w:yTo*w])
}
