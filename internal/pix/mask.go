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

package pix

import (
	"fmt"
)

// A Mask is a row-major rejection map paired with a pixel buffer.
// An entry of true marks the corresponding sample as rejected.
type Mask struct {
	width, height int
	rejected      []bool
}

// NewMask allocates an all-valid mask of the given size.
func NewMask(width, height int) (*Mask, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("negative mask size %dx%d", width, height)
	}
	return &Mask{width: width, height: height, rejected: make([]bool, width*height)}, nil
}

// WrapMask wraps an existing rejection map as a mask. Data is not copied.
func WrapMask(width, height int, rejected []bool) (*Mask, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("negative mask size %dx%d", width, height)
	}
	if len(rejected) != width*height {
		return nil, fmt.Errorf("rejection map length %d does not match %dx%d mask", len(rejected), width, height)
	}
	return &Mask{width: width, height: height, rejected: rejected}, nil
}

func (m *Mask) Width() int  { return m.width }
func (m *Mask) Height() int { return m.height }

// Rejected returns the raw row-major rejection map.
func (m *Mask) Rejected() []bool { return m.rejected }

// IsRejected reports whether sample (x,y) is rejected.
func (m *Mask) IsRejected(x, y int) bool { return m.rejected[y*m.width+x] }

// Reject marks sample (x,y) as rejected.
func (m *Mask) Reject(x, y int) { m.rejected[y*m.width+x] = true }

// Reset marks every sample as valid.
func (m *Mask) Reset() {
	for i := range m.rejected {
		m.rejected[i] = false
	}
}

// AllValid reports whether no sample is rejected. Cheap to query, and
// used to skip the bad-pixel code paths entirely.
func (m *Mask) AllValid() bool {
	for _, r := range m.rejected {
		if r {
			return false
		}
	}
	return true
}

// CountRejected returns the number of rejected samples.
func (m *Mask) CountRejected() int {
	n := 0
	for _, r := range m.rejected {
		if r {
			n++
		}
	}
	return n
}
