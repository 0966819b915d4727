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

// Package kernel provides the two kernel forms of the filtering engine:
// boolean stencils selecting neighbor offsets for median/average/stdev
// filters, and real-valued weight matrices for linear and morphological
// filters. Both forms must have odd dimensions.
package kernel

import (
	"fmt"
	"math"
)

// A Mask is a boolean 2D stencil of odd dimensions. An active cell (i,j)
// includes the input sample at offset (j-HalfX, i-HalfY) from the output
// position in the window.
type Mask struct {
	width, height int
	cells         []bool
}

// NewMask creates an all-inactive stencil. Both dimensions must be odd
// and positive.
func NewMask(width, height int) (*Mask, error) {
	if err := checkOdd(width, height); err != nil {
		return nil, err
	}
	return &Mask{width: width, height: height, cells: make([]bool, width*height)}, nil
}

// FullMask creates a stencil of half-sizes (rx,ry) with every cell active.
func FullMask(rx, ry int) *Mask {
	if rx < 0 || ry < 0 {
		return nil
	}
	w, h := 2*rx+1, 2*ry+1
	cells := make([]bool, w*h)
	for i := range cells {
		cells[i] = true
	}
	return &Mask{width: w, height: h, cells: cells}
}

func (k *Mask) Width() int  { return k.width }
func (k *Mask) Height() int { return k.height }
func (k *Mask) HalfX() int  { return (k.width - 1) / 2 }
func (k *Mask) HalfY() int  { return (k.height - 1) / 2 }

// Get reports whether cell (x,y) is active.
func (k *Mask) Get(x, y int) bool { return k.cells[y*k.width+x] }

// Set activates or deactivates cell (x,y).
func (k *Mask) Set(x, y int, active bool) { k.cells[y*k.width+x] = active }

// Cells returns the raw row-major cell flags.
func (k *Mask) Cells() []bool { return k.cells }

// Count returns the number of active cells.
func (k *Mask) Count() int {
	n := 0
	for _, c := range k.cells {
		if c {
			n++
		}
	}
	return n
}

// Full reports whether every cell is active.
func (k *Mask) Full() bool {
	for _, c := range k.cells {
		if !c {
			return false
		}
	}
	return true
}

// Weights is a real-valued 2D kernel of odd dimensions for linear and
// morphological filters. Its row order is reversed relative to the Mask
// convention: row 0 maps to image row offset +HalfY. This realizes
// convolution rather than correlation and must be preserved to keep the
// documented pixel-shift semantics.
type Weights struct {
	width, height int
	w             []float64
}

// NewWeights creates an all-zero weight kernel. Both dimensions must be
// odd and positive.
func NewWeights(width, height int) (*Weights, error) {
	if err := checkOdd(width, height); err != nil {
		return nil, err
	}
	return &Weights{width: width, height: height, w: make([]float64, width*height)}, nil
}

// Identity returns the 1x1 kernel with unit weight. Filtering with it
// leaves an image unchanged.
func Identity() *Weights {
	return &Weights{width: 1, height: 1, w: []float64{1}}
}

func (k *Weights) Width() int  { return k.width }
func (k *Weights) Height() int { return k.height }
func (k *Weights) HalfX() int  { return (k.width - 1) / 2 }
func (k *Weights) HalfY() int  { return (k.height - 1) / 2 }

// At returns the weight of cell (x,y).
func (k *Weights) At(x, y int) float64 { return k.w[y*k.width+x] }

// Set assigns the weight of cell (x,y).
func (k *Weights) Set(x, y int, weight float64) { k.w[y*k.width+x] = weight }

// Values returns the raw row-major weights.
func (k *Weights) Values() []float64 { return k.w }

// AbsSum returns the sum of absolute weights over the whole kernel,
// the flux-scaling normalization term.
func (k *Weights) AbsSum() float64 {
	sum := 0.0
	for _, v := range k.w {
		sum += math.Abs(v)
	}
	return sum
}

// Empty reports whether every weight is zero.
func (k *Weights) Empty() bool {
	for _, v := range k.w {
		if v != 0 {
			return false
		}
	}
	return true
}

func checkOdd(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("non-positive kernel size %dx%d", width, height)
	}
	if width&1 == 0 || height&1 == 0 {
		return fmt.Errorf("even kernel size %dx%d, must be odd", width, height)
	}
	return nil
}
