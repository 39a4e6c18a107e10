package streamer

import (
	"fmt"

	"github.com/Faultbox/terrastream/internal/engine/noise"
	"github.com/Faultbox/terrastream/internal/engine/terrain"
	"github.com/Faultbox/terrastream/pkg/math"
)

// Coord is a chunk index on the ground-plane grid.
type Coord struct {
	X, Y int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// chebyshev returns the grid distance between two coordinates.
func (c Coord) chebyshev(o Coord) int {
	return max(abs(c.X-o.X), abs(c.Y-o.Y))
}

// lodMesh caches one LOD's mesh for a chunk.
type lodMesh struct {
	lod       int
	mesh      *terrain.Mesh
	requested bool
}

// Chunk is the streaming record of one grid cell.
type Chunk struct {
	coord    Coord
	position math.Vec2 // centre in terrain units
	bounds   math.Rect

	heights         *noise.HeightField
	heightRequested bool

	lods            []lodMesh
	prevLOD         int // applied render LOD index, -1 if none
	colliderApplied bool

	visible bool // wanted by the last evaluation
	shown   bool // last state sent to the sink
	listed  bool // in the streamer's visible set
	evicted bool
}

func newChunk(coord Coord, size int, table []int) *Chunk {
	pos := math.Vec2{X: float32(coord.X * size), Y: float32(coord.Y * size)}
	c := &Chunk{
		coord:    coord,
		position: pos,
		bounds:   math.RectFromCenter(pos, math.Vec2{X: float32(size), Y: float32(size)}),
		lods:     make([]lodMesh, len(table)),
		prevLOD:  -1,
	}
	for i, lod := range table {
		c.lods[i].lod = lod
	}
	return c
}

// Coord returns the chunk's grid coordinate.
func (c *Chunk) Coord() Coord { return c.coord }

// Position returns the chunk centre in terrain units.
func (c *Chunk) Position() math.Vec2 { return c.position }

// Bounds returns the chunk's ground-plane extent in terrain units.
func (c *Chunk) Bounds() math.Rect { return c.bounds }

// Heights returns the chunk's height field, or nil before it arrives.
func (c *Chunk) Heights() *noise.HeightField { return c.heights }

// Visible reports whether the chunk is currently shown.
func (c *Chunk) Visible() bool { return c.shown }

// LODIndex returns the applied LOD table index, or -1 if no mesh is applied.
func (c *Chunk) LODIndex() int { return c.prevLOD }

// HasMesh reports whether the mesh for LOD table index i is cached.
func (c *Chunk) HasMesh(i int) bool {
	return i >= 0 && i < len(c.lods) && c.lods[i].mesh != nil
}

// Transform returns the world matrix for the chunk's meshes: the chunk is
// placed at its position and the whole terrain is scaled uniformly.
func (c *Chunk) Transform(uniformScale float32) math.Mat4 {
	return math.Scale(uniformScale, uniformScale, uniformScale).
		Mul(math.Translate(c.position.X, 0, c.position.Y))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
