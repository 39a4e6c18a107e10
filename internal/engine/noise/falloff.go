package noise

import "math"

// Falloff shape constants. The mask is near zero in the middle and
// rises steeply towards the edges.
const (
	falloffA = 3.0
	falloffB = 2.2
)

// Falloff builds a size x size mask for island-like terrain. Subtracting it
// from a height field pulls the borders down to zero.
func Falloff(size int) *HeightField {
	if size <= 0 {
		return &HeightField{}
	}
	values := make([]float32, size*size)
	for i := range size {
		for j := range size {
			x := float64(i)/float64(size)*2 - 1
			y := float64(j)/float64(size)*2 - 1
			v := math.Max(math.Abs(x), math.Abs(y))
			values[j*size+i] = float32(falloffCurve(v))
		}
	}
	return &HeightField{width: size, height: size, values: values}
}

func falloffCurve(v float64) float64 {
	p := math.Pow(v, falloffA)
	return p / (p + math.Pow(falloffB-falloffB*v, falloffA))
}
