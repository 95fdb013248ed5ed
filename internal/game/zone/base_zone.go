package zone

// Sphere is an n-sphere (circle for Vec2 centers) around Center.
type Sphere struct {
	Center Position
	Radius float64
}

// Shape returns ShapeSphere.
func (s Sphere) Shape() string { return ShapeSphere }

// Contains reports whether p lies strictly inside the sphere.
// A point at exactly Radius from the center is outside.
func (s Sphere) Contains(p Position) bool {
	if s.Center == nil || p == nil {
		return false
	}
	return Distance(s.Center, p) < s.Radius
}

// Cuboid is an axis-aligned box spanned by two opposite corners.
// Corner order does not matter.
type Cuboid struct {
	Pode     Position
	Antipode Position
}

// Shape returns ShapeCuboid.
func (c Cuboid) Shape() string { return ShapeCuboid }

// Contains reports whether p is bounded by the box corners.
//
// Bounds are checked with the partial order of Compare, so p must dominate
// the low corner (or equal it) and be dominated by the high corner (or equal
// it) on every axis at once. A point that touches a face on one axis while
// lying strictly inside on another is incomparable with that corner and
// therefore outside.
func (c Cuboid) Contains(p Position) bool {
	if c.Pode == nil || c.Antipode == nil || p == nil {
		return false
	}
	lo := Min(c.Pode, c.Antipode)
	hi := Max(c.Pode, c.Antipode)
	return AtLeast(p, lo) && AtMost(p, hi)
}
