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

// Package filter implements 2D spatial filtering over typed pixel
// buffers: median, average and standard-deviation filters driven by a
// boolean stencil, and linear and morphological filters driven by a
// weight kernel. All routines honor rejection masks on the input and
// flag output positions with insufficient valid samples.
//
// The engine only mutates the output buffer's samples and mask. It keeps
// no state across calls and is safe to invoke concurrently on
// independent buffers.
package filter

// Kind selects the filter to apply.
type Kind int

const (
	// Median writes the window median. Stencil kernels, all border modes.
	Median Kind = iota + 1
	// Average writes the window mean. Stencil kernels, BorderFilter only.
	Average
	// StdDev writes the bias-corrected sample standard deviation of the
	// window. Stencil kernels with at least two active cells, BorderFilter only.
	StdDev
	// Linear convolves with a weight kernel, normalizing by the absolute
	// weights of the cells actually used. Flux-preserving under rejected samples.
	Linear
	// LinearScale convolves with a weight kernel, always normalizing by
	// the absolute weight sum of the whole kernel. Flux-scaling.
	LinearScale
	// Morpho sorts the valid window samples and combines them with the
	// kernel weights by rank, normalizing by the absolute weights used.
	Morpho
	// MorphoScale is Morpho with normalization by the whole kernel.
	MorphoScale
)

func (k Kind) String() string {
	switch k {
	case Median:
		return "median"
	case Average:
		return "average"
	case StdDev:
		return "stdev"
	case Linear:
		return "linear"
	case LinearScale:
		return "linear-scale"
	case Morpho:
		return "morpho"
	case MorphoScale:
		return "morpho-scale"
	default:
		return "invalid"
	}
}

// ParseKind maps a filter name to its Kind.
func ParseKind(s string) (Kind, bool) {
	for k := Median; k <= MorphoScale; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// maskKind reports whether the kind is driven by a stencil kernel.
func (k Kind) maskKind() bool { return k == Median || k == Average || k == StdDev }

// weightKind reports whether the kind is driven by a weight kernel.
func (k Kind) weightKind() bool {
	return k == Linear || k == LinearScale || k == Morpho || k == MorphoScale
}

// Border selects how output pixels whose kernel footprint overruns the
// input edge are handled.
type Border int

const (
	// BorderFilter computes every output pixel, shrinking the window near edges.
	BorderFilter Border = iota
	// BorderCopy copies edge pixels verbatim from the input.
	BorderCopy
	// BorderNop leaves edge pixels untouched.
	BorderNop
	// BorderCrop shrinks the output by the kernel half-size on each side,
	// so every output pixel has a full window.
	BorderCrop
)

func (b Border) String() string {
	switch b {
	case BorderFilter:
		return "filter"
	case BorderCopy:
		return "copy"
	case BorderNop:
		return "nop"
	case BorderCrop:
		return "crop"
	default:
		return "invalid"
	}
}

// ParseBorder maps a border mode name to its Border.
func ParseBorder(s string) (Border, bool) {
	for b := BorderFilter; b <= BorderCrop; b++ {
		if b.String() == s {
			return b, true
		}
	}
	return 0, false
}

// Options carries explicit precision/performance tradeoffs.
type Options struct {
	// UseReciprocal replaces the per-pixel division in the running
	// average fast path with multiplication by a precomputed reciprocal.
	// Saves a division per pixel at the cost of one extra rounding.
	// Ignored when the accumulator is integral (int32 in, int32 out).
	UseReciprocal bool
}

// reject accumulates per-pixel rejection flags for the output buffer.
// The map is taken from a pre-existing output mask, or allocated on the
// first flag; the engine owns it for the duration of the call and
// attaches it afterwards if any position was flagged.
type reject struct {
	width, height int
	bad           []bool
	flagged       bool
}

func (r *reject) flag(i int) {
	if r.bad == nil {
		r.bad = make([]bool, r.width*r.height)
	}
	r.bad[i] = true
	r.flagged = true
}
