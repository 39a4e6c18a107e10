package math

import (
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	// Diagonal should be 1
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	// Off-diagonal should be 0
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestChunkTransform(t *testing.T) {
	// Chunk placed at (238, 0, -476) in terrain space, world scale 3.
	m := Scale(3, 3, 3).Mul(Translate(238, 0, -476))
	got := m.TransformPoint([3]float32{1, 2, 3})
	want := [3]float32{717, 6, -1419}
	if got != want {
		t.Errorf("TransformPoint: got %v, want %v", got, want)
	}
}

func TestInverseTRS(t *testing.T) {
	m := Scale(2, 4, 2).Mul(Translate(10, 0, -5))
	inv := m.InverseTRS()

	p := Vec3{3, 7, -1}
	back := inv.TransformVec3(m.TransformVec3(p))
	if abs(back.X-p.X) > 1e-4 || abs(back.Y-p.Y) > 1e-4 || abs(back.Z-p.Z) > 1e-4 {
		t.Errorf("InverseTRS round trip: got %v, want %v", back, p)
	}

	if Scale(0, 1, 1).InverseTRS() != Identity() {
		t.Error("InverseTRS of singular scale should be identity")
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
