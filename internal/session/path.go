package session

import (
	"fmt"
	stdmath "math"

	"github.com/Faultbox/terrastream/pkg/math"
)

// Path gives the viewer's world position after t seconds.
type Path func(t float64) math.Vec2

// Line moves the viewer from the origin at speed units/s along heading
// degrees, measured counter-clockwise from +X.
func Line(speed, heading float64) Path {
	rad := heading * stdmath.Pi / 180
	dx, dy := stdmath.Cos(rad), stdmath.Sin(rad)
	return func(t float64) math.Vec2 {
		d := speed * t
		return math.Vec2{X: float32(dx * d), Y: float32(dy * d)}
	}
}

// Orbit circles the origin at radius, moving at speed units/s.
func Orbit(radius, speed float64) Path {
	return func(t float64) math.Vec2 {
		if radius <= 0 {
			return math.Vec2{}
		}
		a := speed * t / radius
		return math.Vec2{X: float32(radius * stdmath.Cos(a)), Y: float32(radius * stdmath.Sin(a))}
	}
}

// ParsePath builds a named path: "line", "orbit" or "still".
func ParsePath(name string, speed, heading, radius float64) (Path, error) {
	switch name {
	case "line", "":
		return Line(speed, heading), nil
	case "orbit":
		return Orbit(radius, speed), nil
	case "still":
		return func(float64) math.Vec2 { return math.Vec2{} }, nil
	default:
		return nil, fmt.Errorf("unknown path %q", name)
	}
}
