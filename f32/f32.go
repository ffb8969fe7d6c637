package f32

import (
	"gioui.org/f32"
	"golang.org/x/exp/constraints"
)

type Point = f32.Point

var Pt = f32.Pt

// Chebyshev treats p as a vector and returns its largest absolute component.
func Chebyshev(p f32.Point) float32 {
	return max(Abs(p.X), Abs(p.Y))
}

func Abs[T constraints.Signed | constraints.Float](v T) T {
	if v < 0 {
		return -v
	}
	return v
}
