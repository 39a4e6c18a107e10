package terrain

import (
	"math"
	"sync"
	"testing"
)

func TestCurveIdentity(t *testing.T) {
	var nilCurve *Curve
	for _, c := range []*Curve{nilCurve, NewCurve()} {
		for _, v := range []float32{0, 0.3, 1} {
			if got := c.Evaluate(v); got != v {
				t.Errorf("Evaluate(%v) = %v, want identity", v, got)
			}
		}
	}
}

func TestCurveLinear(t *testing.T) {
	c := NewCurve(
		Keyframe{Time: 0, Value: 0, OutTangent: 1},
		Keyframe{Time: 1, Value: 1, InTangent: 1},
	)
	for _, v := range []float32{0, 0.25, 0.5, 0.9, 1} {
		if got := c.Evaluate(v); math.Abs(float64(got-v)) > 1e-6 {
			t.Errorf("Evaluate(%v) = %v, want %v", v, got, v)
		}
	}
}

func TestCurveClamps(t *testing.T) {
	c := NewCurve(
		Keyframe{Time: 1, Value: 3},
		Keyframe{Time: 0.2, Value: -1},
	)
	if got := c.Evaluate(-5); got != -1 {
		t.Errorf("below range: got %v, want -1", got)
	}
	if got := c.Evaluate(2); got != 3 {
		t.Errorf("above range: got %v, want 3", got)
	}
	if got := NewCurve(Keyframe{Time: 0.5, Value: 0.7}).Evaluate(0.1); got != 0.7 {
		t.Errorf("single key: got %v, want 0.7", got)
	}
}

func TestCurveSegments(t *testing.T) {
	c := NewCurve(
		Keyframe{Time: 0, Value: 0},
		Keyframe{Time: 0.5, Value: 1},
		Keyframe{Time: 1, Value: 0},
	)
	// Key values are hit exactly, whichever segment was cached before.
	for _, tc := range []struct{ t, want float32 }{{0.5, 1}, {1, 0}, {0, 0}, {0.5, 1}} {
		if got := c.Evaluate(tc.t); got != tc.want {
			t.Errorf("Evaluate(%v) = %v, want %v", tc.t, got, tc.want)
		}
	}
	if a, b := c.Evaluate(0.25), c.Evaluate(0.75); math.Abs(float64(a-b)) > 1e-6 {
		t.Errorf("symmetric curve gave %v and %v", a, b)
	}
}

func TestCurveCloneConcurrent(t *testing.T) {
	base := NewCurve(
		Keyframe{Time: 0, Value: 0},
		Keyframe{Time: 0.4, Value: 0.05, InTangent: 0.4, OutTangent: 0.4},
		Keyframe{Time: 1, Value: 1, InTangent: 2, OutTangent: 2},
	)
	want := make([]float32, 101)
	for i := range want {
		want[i] = base.Clone().Evaluate(float32(i) / 100)
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := base.Clone()
			for i := len(want) - 1; i >= 0; i-- {
				if got := c.Evaluate(float32(i) / 100); got != want[i] {
					t.Errorf("Evaluate(%v) = %v, want %v", float32(i)/100, got, want[i])
					return
				}
			}
		}()
	}
	wg.Wait()
}
