package terrain

import (
	"errors"
	"fmt"

	"github.com/Faultbox/terrastream/internal/engine/noise"
	"github.com/Faultbox/terrastream/pkg/math"
)

var (
	// ErrUnsupportedLOD is returned when a LOD cannot decimate the field evenly.
	ErrUnsupportedLOD = errors.New("unsupported level of detail")
	// ErrInvalidField is returned for fields that are not square or lack a border ring.
	ErrInvalidField = errors.New("invalid height field")
)

// Step returns the sample stride for a LOD: 1 at LOD 0, otherwise 2*lod.
func Step(lod int) int {
	if lod == 0 {
		return 1
	}
	return lod * 2
}

// CheckLOD reports whether a bordered grid of edge size can be decimated at lod.
func CheckLOD(size, lod int) error {
	if lod < 0 {
		return fmt.Errorf("%w: lod %d is negative", ErrUnsupportedLOD, lod)
	}
	step := Step(lod)
	if (size-1)%step != 0 {
		return fmt.Errorf("%w: step %d does not divide bordered edge %d", ErrUnsupportedLOD, step, size)
	}
	if size-2*step < 1 {
		return fmt.Errorf("%w: step %d leaves no interior on edge %d", ErrUnsupportedLOD, step, size)
	}
	return nil
}

// InteriorVertices returns the emitted vertex count per edge for a bordered
// edge size and step.
func InteriorVertices(size, step int) int {
	return (size-2*step-1)/step + 1
}

// builder accumulates interior and border geometry during one build.
type builder struct {
	vertices  []math.Vec3
	uvs       []math.Vec2
	triangles []int32

	borderVertices  []math.Vec3
	borderTriangles []int32
}

func (b *builder) vertex(idx int32) math.Vec3 {
	if idx < 0 {
		return b.borderVertices[-idx-1]
	}
	return b.vertices[idx]
}

func (b *builder) addTriangle(a, c, d int32) {
	if a < 0 || c < 0 || d < 0 {
		b.borderTriangles = append(b.borderTriangles, a, c, d)
		return
	}
	b.triangles = append(b.triangles, a, c, d)
}

func (b *builder) faceNormal(ia, ib, ic int32) math.Vec3 {
	pa, pb, pc := b.vertex(ia), b.vertex(ib), b.vertex(ic)
	return pb.Sub(pa).Cross(pc.Sub(pa)).Normalize()
}

// bakeNormals averages face normals of every triangle touching a vertex,
// including border triangles, so edge normals agree with the neighbour chunk.
func (b *builder) bakeNormals() []math.Vec3 {
	normals := make([]math.Vec3, len(b.vertices))
	accumulate := func(tris []int32) {
		for i := 0; i+2 < len(tris); i += 3 {
			n := b.faceNormal(tris[i], tris[i+1], tris[i+2])
			for _, idx := range tris[i : i+3] {
				if idx >= 0 {
					normals[idx] = normals[idx].Add(n)
				}
			}
		}
	}
	accumulate(b.triangles)
	accumulate(b.borderTriangles)
	for i := range normals {
		normals[i] = normals[i].Normalize()
	}
	return normals
}

// BuildMesh turns a bordered height field into a chunk mesh at p.LOD.
// The outer ring of samples only contributes to normals.
func BuildMesh(hf *noise.HeightField, p BuildParams) (*MeshPayload, error) {
	size := hf.Width()
	if hf.Height() != size {
		return nil, fmt.Errorf("%w: %dx%d is not square", ErrInvalidField, hf.Width(), hf.Height())
	}
	if size < 3 {
		return nil, fmt.Errorf("%w: edge %d has no interior", ErrInvalidField, size)
	}
	if err := CheckLOD(size, p.LOD); err != nil {
		return nil, err
	}

	curve := p.HeightCurve.Clone()
	step := Step(p.LOD)
	unsimplified := float32(size - 3)
	span := float32(size - 1 - 2*step)
	topLeftX := unsimplified / -2
	topLeftZ := unsimplified / 2

	perLine := InteriorVertices(size, step)
	b := &builder{
		vertices:  make([]math.Vec3, 0, perLine*perLine),
		uvs:       make([]math.Vec2, 0, perLine*perLine),
		triangles: make([]int32, 0, (perLine-1)*(perLine-1)*6),
	}

	// Interior samples get 0, 1, 2... and border samples -1, -2... in scan order.
	samples := (size-1)/step + 1
	indices := make([]int32, samples*samples)
	next, nextBorder := int32(0), int32(-1)
	for sy := range samples {
		for sx := range samples {
			x, y := sx*step, sy*step
			if x == 0 || y == 0 || x == size-1 || y == size-1 {
				indices[sy*samples+sx] = nextBorder
				nextBorder--
			} else {
				indices[sy*samples+sx] = next
				next++
			}
		}
	}

	for sy := range samples {
		for sx := range samples {
			x, y := sx*step, sy*step
			idx := indices[sy*samples+sx]

			var percent math.Vec2
			if span > 0 {
				percent = math.Vec2{X: float32(x-step) / span, Y: float32(y-step) / span}
			}
			pos := math.Vec3{
				X: topLeftX + percent.X*unsimplified,
				Y: curve.Evaluate(hf.At(x, y)) * p.HeightMultiplier,
				Z: topLeftZ - percent.Y*unsimplified,
			}
			if idx < 0 {
				b.borderVertices = append(b.borderVertices, pos)
			} else {
				b.vertices = append(b.vertices, pos)
				b.uvs = append(b.uvs, percent)
			}

			if sx < samples-1 && sy < samples-1 {
				a := idx
				right := indices[sy*samples+sx+1]
				below := indices[(sy+1)*samples+sx]
				diag := indices[(sy+1)*samples+sx+1]
				b.addTriangle(a, diag, below)
				b.addTriangle(diag, a, right)
			}
		}
	}

	payload := &MeshPayload{
		LOD:         p.LOD,
		FlatShading: p.FlatShading,
	}
	if p.FlatShading {
		payload.Vertices = make([]math.Vec3, len(b.triangles))
		payload.UVs = make([]math.Vec2, len(b.triangles))
		payload.Triangles = make([]int32, len(b.triangles))
		for i, idx := range b.triangles {
			payload.Vertices[i] = b.vertices[idx]
			payload.UVs[i] = b.uvs[idx]
			payload.Triangles[i] = int32(i)
		}
		return payload, nil
	}

	payload.Vertices = b.vertices
	payload.UVs = b.uvs
	payload.Triangles = b.triangles
	payload.Normals = b.bakeNormals()
	return payload, nil
}

// CreateMesh converts the payload into an indexed vertex mesh. Flat-shaded
// payloads get one face normal per triangle corner.
func (p *MeshPayload) CreateMesh() *Mesh {
	normals := p.Normals
	if p.FlatShading || len(normals) != len(p.Vertices) {
		normals = faceNormals(p.Vertices, p.Triangles)
	}

	vertices := make([]Vertex, len(p.Vertices))
	bounds := Bounds{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}
	for i, v := range p.Vertices {
		vertices[i] = Vertex{
			Position: v.Array(),
			Normal:   normals[i].Array(),
			TexCoord: [2]float32{p.UVs[i].X, p.UVs[i].Y},
		}
		updateBounds(&bounds, vertices[i].Position)
	}
	if len(vertices) == 0 {
		bounds = Bounds{}
	}

	indices := make([]uint32, len(p.Triangles))
	for i, idx := range p.Triangles {
		indices[i] = uint32(idx)
	}

	return &Mesh{
		Vertices: vertices,
		Indices:  indices,
		Bounds:   bounds,
	}
}

// faceNormals assigns each triangle's normal to its corners. Vertices shared
// between triangles keep the normal of the last one.
func faceNormals(vertices []math.Vec3, triangles []int32) []math.Vec3 {
	normals := make([]math.Vec3, len(vertices))
	for i := 0; i+2 < len(triangles); i += 3 {
		a, b, c := vertices[triangles[i]], vertices[triangles[i+1]], vertices[triangles[i+2]]
		n := b.Sub(a).Cross(c.Sub(a)).Normalize()
		normals[triangles[i]] = n
		normals[triangles[i+1]] = n
		normals[triangles[i+2]] = n
	}
	return normals
}

func updateBounds(b *Bounds, p [3]float32) {
	for i := range 3 {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}
