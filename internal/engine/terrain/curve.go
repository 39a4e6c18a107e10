package terrain

import "sort"

// Keyframe is one control point of a Curve with Hermite tangents.
type Keyframe struct {
	Time       float32
	Value      float32
	InTangent  float32
	OutTangent float32
}

// Curve remaps normalized heights through cubic Hermite segments.
// Inputs outside the key range clamp to the first or last value.
//
// Evaluate caches the last segment it used, so a Curve must not be
// shared between goroutines. Use Clone to get an independent copy.
type Curve struct {
	keys    []Keyframe
	segment int
}

// NewCurve returns a curve through the given keys, sorted by time.
// No keys yields the identity curve.
func NewCurve(keys ...Keyframe) *Curve {
	k := make([]Keyframe, len(keys))
	copy(k, keys)
	sort.SliceStable(k, func(i, j int) bool { return k[i].Time < k[j].Time })
	return &Curve{keys: k}
}

// Clone returns a copy with its own segment cache.
func (c *Curve) Clone() *Curve {
	if c == nil {
		return nil
	}
	return &Curve{keys: c.keys}
}

// Keys returns a copy of the keyframes.
func (c *Curve) Keys() []Keyframe {
	if c == nil {
		return nil
	}
	k := make([]Keyframe, len(c.keys))
	copy(k, c.keys)
	return k
}

// Evaluate returns the curve value at t.
func (c *Curve) Evaluate(t float32) float32 {
	if c == nil || len(c.keys) == 0 {
		return t
	}
	n := len(c.keys)
	if n == 1 || t <= c.keys[0].Time {
		return c.keys[0].Value
	}
	if t >= c.keys[n-1].Time {
		return c.keys[n-1].Value
	}

	i := c.segment
	if i >= n-1 || t < c.keys[i].Time || t > c.keys[i+1].Time {
		i = sort.Search(n-1, func(j int) bool { return c.keys[j+1].Time >= t })
		c.segment = i
	}
	return hermite(c.keys[i], c.keys[i+1], t)
}

func hermite(k0, k1 Keyframe, t float32) float32 {
	dt := k1.Time - k0.Time
	if dt <= 0 {
		return k1.Value
	}
	s := (t - k0.Time) / dt
	s2 := s * s
	s3 := s2 * s

	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2

	return h00*k0.Value + h10*dt*k0.OutTangent + h01*k1.Value + h11*dt*k1.InTangent
}
