package zone

import (
	"fmt"
	"math"
)

// Position is a point in either map space (Vec3) or a flat projection (Vec2).
// It is a closed set: only Vec3 and Vec2 implement it.
//
// Whenever a Vec3 meets a Vec2 (distance, ordering, min/max) the Vec3 is
// degraded by dropping its vertical axis Z.
type Position interface {
	// Dims returns the number of components (2 or 3).
	Dims() int
	isPosition()
}

// Vec3 is a full map-space coordinate.
type Vec3 struct {
	X, Y, Z float64
}

// Vec2 is a flat coordinate without the vertical axis.
type Vec2 struct {
	X, Y float64
}

func (Vec3) Dims() int   { return 3 }
func (Vec3) isPosition() {}
func (Vec2) Dims() int   { return 2 }
func (Vec2) isPosition() {}

// Flat drops the vertical axis.
func (v Vec3) Flat() Vec2 { return Vec2{X: v.X, Y: v.Y} }

func (v Vec3) String() string { return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z) }
func (v Vec2) String() string { return fmt.Sprintf("(%g, %g)", v.X, v.Y) }

// ParsePosition builds a Position from a 2- or 3-component list.
func ParsePosition(c []float64) (Position, error) {
	switch len(c) {
	case 3:
		return Vec3{X: c[0], Y: c[1], Z: c[2]}, nil
	case 2:
		return Vec2{X: c[0], Y: c[1]}, nil
	default:
		return nil, fmt.Errorf("%w: got %d components", ErrBadDimensions, len(c))
	}
}

// axes returns the components of a and b on the common dimensionality.
func axes(a, b Position) ([]float64, []float64) {
	av, bv := components(a), components(b)
	if len(av) != len(bv) {
		av, bv = av[:2], bv[:2]
	}
	return av, bv
}

func components(p Position) []float64 {
	switch v := p.(type) {
	case Vec3:
		return []float64{v.X, v.Y, v.Z}
	case Vec2:
		return []float64{v.X, v.Y}
	default:
		return []float64{0, 0}
	}
}

func fromComponents(c []float64) Position {
	if len(c) == 3 {
		return Vec3{X: c[0], Y: c[1], Z: c[2]}
	}
	return Vec2{X: c[0], Y: c[1]}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Position) float64 {
	av, bv := axes(a, b)
	var sum float64
	for i := range av {
		d := av[i] - bv[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Min returns the component-wise minimum of a and b.
func Min(a, b Position) Position {
	av, bv := axes(a, b)
	out := make([]float64, len(av))
	for i := range av {
		out[i] = math.Min(av[i], bv[i])
	}
	return fromComponents(out)
}

// Max returns the component-wise maximum of a and b.
func Max(a, b Position) Position {
	av, bv := axes(a, b)
	out := make([]float64, len(av))
	for i := range av {
		out[i] = math.Max(av[i], bv[i])
	}
	return fromComponents(out)
}
