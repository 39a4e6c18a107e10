package terrain

import (
	"math"
	"testing"

	"github.com/Faultbox/terrastream/internal/engine/noise"
)

func TestHeightAtMatchesVertices(t *testing.T) {
	hf := noiseField(15)
	hm, err := BuildHeightmap(hf, 10, nil)
	if err != nil {
		t.Fatalf("BuildHeightmap: %v", err)
	}
	payload, err := BuildMesh(hf, BuildParams{HeightMultiplier: 10})
	if err != nil {
		t.Fatalf("BuildMesh: %v", err)
	}
	for i, v := range payload.Vertices {
		if got := hm.HeightAt(v.X, v.Z); math.Abs(float64(got-v.Y)) > 1e-4 {
			t.Errorf("vertex %d at (%v,%v): HeightAt = %v, want %v", i, v.X, v.Z, got, v.Y)
		}
	}
}

func TestHeightAtInterpolates(t *testing.T) {
	// 4x4 bordered field with a 2x2 interior: 0 1 / 2 3
	values := []float32{
		0, 0, 0, 0,
		0, 0, 1, 0,
		0, 2, 3, 0,
		0, 0, 0, 0,
	}
	hf, err := noise.NewHeightField(4, 4, values)
	if err != nil {
		t.Fatalf("NewHeightField: %v", err)
	}
	hm, err := BuildHeightmap(hf, 1, nil)
	if err != nil {
		t.Fatalf("BuildHeightmap: %v", err)
	}

	tests := []struct {
		name string
		x, z float32
		want float32
	}{
		{"top left", -0.5, 0.5, 0},
		{"top right", 0.5, 0.5, 1},
		{"bottom left", -0.5, -0.5, 2},
		{"centre", 0, 0, 1.5},
		{"clamped", 10, -10, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hm.HeightAt(tt.x, tt.z); math.Abs(float64(got-tt.want)) > 1e-6 {
				t.Errorf("HeightAt(%v, %v) = %v, want %v", tt.x, tt.z, got, tt.want)
			}
		})
	}
}
