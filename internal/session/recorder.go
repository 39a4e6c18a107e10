package session

import (
	"github.com/Faultbox/terrastream/internal/engine/streamer"
	"github.com/Faultbox/terrastream/internal/engine/terrain"
)

// Approximate GPU-side sizes of one vertex and one index.
const (
	vertexBytes = 8 * 4
	indexBytes  = 4
)

// Recorder is a streamer.Sink that keeps what a renderer would hold and
// counts what it was sent.
type Recorder struct {
	visible   map[streamer.Coord]bool
	meshes    map[streamer.Coord]*terrain.Mesh
	colliders map[streamer.Coord]*terrain.Mesh

	meshApplies     int
	colliderApplies int
	releases        int
	lodApplies      map[int]int

	onVisible func(streamer.Coord)
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		visible:    make(map[streamer.Coord]bool),
		meshes:     make(map[streamer.Coord]*terrain.Mesh),
		colliders:  make(map[streamer.Coord]*terrain.Mesh),
		lodApplies: make(map[int]int),
	}
}

// OnVisible registers fn to run whenever a chunk becomes visible.
func (r *Recorder) OnVisible(fn func(streamer.Coord)) {
	r.onVisible = fn
}

func (r *Recorder) SetVisible(c streamer.Coord, visible bool) {
	if visible {
		r.visible[c] = true
		if r.onVisible != nil {
			r.onVisible(c)
		}
		return
	}
	delete(r.visible, c)
}

func (r *Recorder) ApplyMesh(c streamer.Coord, lod int, mesh *terrain.Mesh) {
	r.meshes[c] = mesh
	r.meshApplies++
	r.lodApplies[lod]++
}

func (r *Recorder) ApplyCollider(c streamer.Coord, mesh *terrain.Mesh) {
	r.colliders[c] = mesh
	r.colliderApplies++
}

func (r *Recorder) Release(c streamer.Coord) {
	delete(r.visible, c)
	delete(r.meshes, c)
	delete(r.colliders, c)
	r.releases++
}

// Reset drops all held state and counters.
func (r *Recorder) Reset() {
	onVisible := r.onVisible
	*r = *NewRecorder()
	r.onVisible = onVisible
}

// Visible returns the number of visible chunks.
func (r *Recorder) Visible() int { return len(r.visible) }

// residentBytes estimates the memory of meshes on visible chunks.
func (r *Recorder) residentBytes() (vertices, bytes uint64) {
	for c, m := range r.meshes {
		if !r.visible[c] {
			continue
		}
		vertices += uint64(len(m.Vertices))
		bytes += uint64(len(m.Vertices)*vertexBytes + len(m.Indices)*indexBytes)
	}
	return vertices, bytes
}
