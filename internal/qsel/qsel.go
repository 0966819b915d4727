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

// Package qsel provides in-place quickselect and quicksort over the
// numeric element types of the filtering engine. sort.Slice is too slow
// for per-window order statistics, hence the hand-rolled routines.
package qsel

import (
	"github.com/obsframe/imfilter/internal/pix"
)

// Sort an array in ascending order.
// Array must not contain IEEE NaN
func Sort[T pix.Real](a []T) {
	if len(a) > 1 {
		index := partition(a)
		Sort(a[:index+1])
		Sort(a[index+1:])
	}
}

// Partitions an array with the middle pivot element, and returns the pivot index.
// Values less than the pivot are moved left of the pivot, those greater are moved right.
// Array must not contain IEEE NaN
func partition[T pix.Real](a []T) int {
	left, right := 0, len(a)-1
	mid := (left + right) >> 1
	pivot := a[mid]
	l := left - 1
	r := right + 1
	for {
		for {
			l++
			if a[l] >= pivot {
				break
			}
		}
		for {
			r--
			if a[r] <= pivot {
				break
			}
		}
		if l >= r {
			return r
		}
		a[l], a[r] = a[r], a[l]
	}
}

// Select the kth lowest element from an array, with k counted from one.
// Partially reorders the array.
// Array must not contain IEEE NaN
func Select[T pix.Real](a []T, k int) T {
	left, right := 0, len(a)-1
	for left < right {
		// partition
		mid := (left + right) >> 1
		pivot := a[mid]
		l, r := left-1, right+1
		for {
			for {
				l++
				if a[l] >= pivot {
					break
				}
			}
			for {
				r--
				if a[r] <= pivot {
					break
				}
			}
			if l >= r {
				break // index in r
			}
			a[l], a[r] = a[r], a[l]
		}
		index := r

		offset := index - left + 1
		if k <= offset {
			right = index
		} else {
			left = index + 1
			k = k - offset
		}
	}
	return a[left]
}

// Median of an array. Partially reorders the array. For an odd number of
// elements this is the central order statistic; for an even number, the
// mean of the two central order statistics, computed as lo+(hi-lo)/2 to
// avoid int32 overflow (integer medians truncate like a C cast).
// Array must not contain IEEE NaN
func Median[T pix.Real](a []T) T {
	n := len(a)
	if n == 0 {
		return 0
	}
	if n == 9 {
		return Median9(a)
	}
	if n&1 == 1 {
		return Select(a, (n>>1)+1)
	}
	hi := Select(a, (n>>1)+1)
	lo := Select(a, n>>1)
	return lo + (hi-lo)/2
}

// Median9 calculates the median of a slice of length nine, the full 3x3
// window case. Modifies the elements in place.
// From https://stackoverflow.com/questions/45453537/optimal-9-element-sorting-network-that-reduces-to-an-optimal-median-of-9-network
// See also http://ndevilla.free.fr/median/median/src/optmed.c for other sizes
// Array must not contain IEEE NaN
func Median9[T pix.Real](a []T) T { // 30x min/max
	if a[0] > a[1] {
		a[0], a[1] = a[1], a[0]
	}
	if a[3] > a[4] {
		a[3], a[4] = a[4], a[3]
	}
	if a[6] > a[7] {
		a[6], a[7] = a[7], a[6]
	}
	if a[1] > a[2] {
		a[1], a[2] = a[2], a[1]
	}
	if a[4] > a[5] {
		a[4], a[5] = a[5], a[4]
	}
	if a[7] > a[8] {
		a[7], a[8] = a[8], a[7]
	}
	if a[0] > a[1] {
		a[0], a[1] = a[1], a[0]
	}
	if a[3] > a[4] {
		a[3], a[4] = a[4], a[3]
	}
	if a[6] > a[7] {
		a[6], a[7] = a[7], a[6]
	}
	if a[0] > a[3] {
		a[3] = a[0]
	}
	if a[3] > a[6] {
		a[6] = a[3]
	}
	if a[1] > a[4] {
		a[1], a[4] = a[4], a[1]
	}
	if a[4] > a[7] {
		a[4] = a[7]
	}
	if a[1] > a[4] {
		a[4] = a[1]
	}
	if a[5] > a[8] {
		a[5] = a[8]
	}
	if a[2] > a[5] {
		a[2] = a[5]
	}
	if a[2] > a[4] {
		a[2], a[4] = a[4], a[2]
	}
	if a[4] > a[6] {
		a[4] = a[6]
	}
	if a[2] > a[4] {
		a[4] = a[2]
	}
	return a[4]
}
