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
)

// Sentinel errors of the dispatch layer. All are detected before any
// output sample is written; callers test with errors.Is.
var (
	// ErrNullInput: a required buffer or kernel argument is absent.
	ErrNullInput = errors.New("null input")
	// ErrIllegalInput: malformed arguments, e.g. an even kernel dimension.
	ErrIllegalInput = errors.New("illegal input")
	// ErrDataNotFound: the kernel selects too few cells for the filter.
	ErrDataNotFound = errors.New("data not found")
	// ErrAccessOutOfRange: the kernel exceeds the input along an axis.
	ErrAccessOutOfRange = errors.New("access beyond boundaries")
	// ErrInvalidType: element type unsupported by the routine matrix.
	ErrInvalidType = errors.New("invalid type")
	// ErrTypeMismatch: median filtering across differing element types.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrIncompatibleInput: output/input sizes inconsistent with the border mode.
	ErrIncompatibleInput = errors.New("incompatible input")
	// ErrUnsupportedMode: disallowed aliasing, an unsupported border mode
	// for the filter, or a degenerate zero-weight kernel.
	ErrUnsupportedMode = errors.New("unsupported mode")
)
