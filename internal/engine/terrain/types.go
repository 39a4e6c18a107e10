// Package terrain builds LOD-decimated chunk meshes from noise height fields.
package terrain

import "github.com/Faultbox/terrastream/pkg/math"

// Vertex represents a terrain mesh vertex with all attributes.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// Mesh holds renderable or collidable mesh data.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Bounds   Bounds
}

// Bounds holds the axis-aligned bounding box of a mesh.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// BuildParams controls how a height field becomes a mesh.
type BuildParams struct {
	HeightMultiplier float32
	HeightCurve      *Curve // nil maps heights unchanged
	LOD              int
	FlatShading      bool
}

// MeshPayload is the output of a mesh build. Border geometry used for
// seam-correct normals is not part of it.
type MeshPayload struct {
	LOD         int
	Vertices    []math.Vec3
	UVs         []math.Vec2
	Triangles   []int32
	Normals     []math.Vec3 // baked per vertex; nil with flat shading
	FlatShading bool
}

// VertexCount returns the number of emitted vertices.
func (p *MeshPayload) VertexCount() int { return len(p.Vertices) }

// TriangleCount returns the number of emitted triangles.
func (p *MeshPayload) TriangleCount() int { return len(p.Triangles) / 3 }
