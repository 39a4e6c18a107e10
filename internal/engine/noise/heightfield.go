// Package noise synthesizes seam-consistent fractal height fields for terrain chunks.
package noise

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch is returned when two fields or a value slice do not agree in size.
var ErrDimensionMismatch = errors.New("height field dimension mismatch")

// HeightField is an immutable row-major grid of normalized heights.
// Index (x, y) addresses column x of row y.
type HeightField struct {
	width  int
	height int
	values []float32
}

// NewHeightField copies values into a new field of the given size.
func NewHeightField(width, height int, values []float32) (*HeightField, error) {
	if width < 0 || height < 0 || len(values) != width*height {
		return nil, fmt.Errorf("%w: %dx%d with %d values", ErrDimensionMismatch, width, height, len(values))
	}
	v := make([]float32, len(values))
	copy(v, values)
	return &HeightField{width: width, height: height, values: v}, nil
}

// Width returns the number of columns.
func (f *HeightField) Width() int { return f.width }

// Height returns the number of rows.
func (f *HeightField) Height() int { return f.height }

// At returns the value at column x, row y.
func (f *HeightField) At(x, y int) float32 {
	return f.values[y*f.width+x]
}

// Values returns a copy of the row-major samples.
func (f *HeightField) Values() []float32 {
	v := make([]float32, len(f.values))
	copy(v, f.values)
	return v
}

// Range returns the smallest and largest sample. An empty field returns (0, 0).
func (f *HeightField) Range() (lo, hi float32) {
	if len(f.values) == 0 {
		return 0, 0
	}
	lo, hi = f.values[0], f.values[0]
	for _, v := range f.values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Subtract returns a new field holding clamp01(f - mask) per sample.
func (f *HeightField) Subtract(mask *HeightField) (*HeightField, error) {
	if mask.width != f.width || mask.height != f.height {
		return nil, fmt.Errorf("%w: %dx%d minus %dx%d", ErrDimensionMismatch, f.width, f.height, mask.width, mask.height)
	}
	out := make([]float32, len(f.values))
	for i, v := range f.values {
		out[i] = clamp01(v - mask.values[i])
	}
	return &HeightField{width: f.width, height: f.height, values: out}, nil
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
