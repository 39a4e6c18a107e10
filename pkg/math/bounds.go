package math

// Rect is an axis-aligned rectangle on the ground plane.
type Rect struct {
	Min, Max Vec2
}

// RectFromCenter returns a rectangle of the given size centered on c.
func RectFromCenter(c Vec2, size Vec2) Rect {
	half := size.Scale(0.5)
	return Rect{Min: c.Sub(half), Max: c.Add(half)}
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Vec2 {
	return r.Min.Add(r.Max).Scale(0.5)
}

// Contains reports whether p lies inside or on the edge of r.
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// SqrDistance returns the squared distance from p to the nearest point of r.
// Points inside r are at distance zero.
func (r Rect) SqrDistance(p Vec2) float32 {
	var dx, dy float32
	switch {
	case p.X < r.Min.X:
		dx = r.Min.X - p.X
	case p.X > r.Max.X:
		dx = p.X - r.Max.X
	}
	switch {
	case p.Y < r.Min.Y:
		dy = r.Min.Y - p.Y
	case p.Y > r.Max.Y:
		dy = p.Y - r.Max.Y
	}
	return dx*dx + dy*dy
}
