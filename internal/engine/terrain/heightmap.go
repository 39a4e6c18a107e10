package terrain

import (
	"fmt"

	"github.com/Faultbox/terrastream/internal/engine/noise"
)

// Heightmap provides terrain height lookup for one chunk in mesh-local units.
type Heightmap struct {
	Altitudes []float32 // row-major [z*Size+x] interior heights
	Size      int       // interior samples per edge
	Origin    float32   // local coordinate of the first sample on both axes
}

// BuildHeightmap shapes the interior of a bordered height field the same
// way BuildMesh does at LOD 0.
func BuildHeightmap(hf *noise.HeightField, heightMultiplier float32, curve *Curve) (*Heightmap, error) {
	size := hf.Width()
	if hf.Height() != size || size < 3 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidField, hf.Width(), hf.Height())
	}
	curve = curve.Clone()

	interior := size - 2
	altitudes := make([]float32, interior*interior)
	for z := range interior {
		for x := range interior {
			altitudes[z*interior+x] = curve.Evaluate(hf.At(x+1, z+1)) * heightMultiplier
		}
	}

	return &Heightmap{
		Altitudes: altitudes,
		Size:      interior,
		Origin:    float32(interior-1) / 2,
	}, nil
}

// HeightAt returns the bilinearly interpolated height at a mesh-local position.
// Positions outside the chunk clamp to its edge.
func (h *Heightmap) HeightAt(localX, localZ float32) float32 {
	if h == nil || h.Size == 0 {
		return 0
	}
	if h.Size == 1 {
		return h.Altitudes[0]
	}

	// Columns run along +X, rows along -Z.
	cellFX := localX + h.Origin
	cellFZ := h.Origin - localZ

	cellX := int(clampf(cellFX, 0, float32(h.Size-1)))
	cellZ := int(clampf(cellFZ, 0, float32(h.Size-1)))
	if cellX >= h.Size-1 {
		cellX = h.Size - 2
	}
	if cellZ >= h.Size-1 {
		cellZ = h.Size - 2
	}

	fracX := clampf(cellFX-float32(cellX), 0, 1)
	fracZ := clampf(cellFZ-float32(cellZ), 0, 1)

	at := func(x, z int) float32 { return h.Altitudes[z*h.Size+x] }

	top := at(cellX, cellZ)*(1-fracX) + at(cellX+1, cellZ)*fracX
	bottom := at(cellX, cellZ+1)*(1-fracX) + at(cellX+1, cellZ+1)*fracX
	return top*(1-fracZ) + bottom*fracZ
}

func clampf(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
