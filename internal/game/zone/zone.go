// Package zone implements encounter trigger geometry: map positions,
// their partial ordering and the spherical / axis-aligned regions used
// as containment predicates.
package zone

import "errors"

// Shape names as they appear in logs and diagnostics.
const (
	ShapeSphere = "NSphere"
	ShapeCuboid = "NCuboid"
)

// ErrBadDimensions is returned for coordinate lists that are neither 2D nor 3D.
var ErrBadDimensions = errors.New("position must have 2 or 3 components")

// Polytope is a region with a point containment predicate.
type Polytope interface {
	Shape() string
	Contains(p Position) bool
}
