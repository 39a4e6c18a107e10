// Package streamer keeps the chunks around a moving viewer generated, meshed
// at a distance-dependent LOD, and visible.
package streamer

import (
	stdmath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/terrastream/internal/engine/noise"
	"github.com/Faultbox/terrastream/internal/engine/scheduler"
	"github.com/Faultbox/terrastream/internal/engine/terrain"
	"github.com/Faultbox/terrastream/internal/logger"
	"github.com/Faultbox/terrastream/pkg/math"
)

// Submitter runs height and mesh builds in the background. Callbacks must
// be delivered on the goroutine that calls Update.
type Submitter interface {
	SubmitHeightTask(req scheduler.HeightRequest, callback func(*noise.HeightField)) error
	SubmitMeshTask(hf *noise.HeightField, params terrain.BuildParams, callback func(*terrain.MeshPayload)) error
}

// Sink receives the streamer's output.
type Sink interface {
	SetVisible(c Coord, visible bool)
	ApplyMesh(c Coord, lod int, mesh *terrain.Mesh)
	ApplyCollider(c Coord, mesh *terrain.Mesh)
	Release(c Coord)
}

// Streamer owns the chunk map and visible set of one session.
// It is not safe for concurrent use.
type Streamer struct {
	cfg   Settings
	sched Submitter
	sink  Sink
	log   *zap.Logger

	chunkSize     int
	maxView       float32
	radius        int
	colliderIndex int
	lodLevels     []int
	falloff       *noise.HeightField

	chunks  map[Coord]*Chunk
	visible []*Chunk

	viewer        math.Vec2 // latest position in terrain units
	lastRecompute math.Vec2
	started       bool
	rebuild       bool
}

// New creates a streamer. An empty LOD table is config.ErrEmptyLODTable.
func New(cfg Settings, sched Submitter, sink Sink) (*Streamer, error) {
	s := &Streamer{
		sched:  sched,
		sink:   sink,
		log:    logger.Named("streamer"),
		chunks: make(map[Coord]*Chunk),
	}
	if err := s.configure(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Streamer) configure(cfg Settings) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	s.cfg = cfg
	s.chunkSize = cfg.ChunkSize()
	s.maxView = cfg.LOD.MaxViewDistance()
	s.radius = int(stdmath.RoundToEven(float64(s.maxView) / float64(s.chunkSize)))
	s.colliderIndex = cfg.LOD.ColliderIndex()
	s.lodLevels = make([]int, len(cfg.LOD))
	for i, info := range cfg.LOD {
		s.lodLevels[i] = info.LOD
	}
	s.falloff = nil
	if cfg.UseFalloff {
		s.falloff = noise.Falloff(cfg.ChunkVertices + 2)
	}
	s.log.Info("streamer configured",
		zap.Int("chunk_size", s.chunkSize),
		zap.Float32("max_view", s.maxView),
		zap.Int("radius", s.radius),
		zap.Int("lod_levels", len(s.lodLevels)),
		zap.Int("collider_index", s.colliderIndex))
	return nil
}

// Update records the viewer position in world units and recomputes the
// visible set when the viewer moved far enough, or a rebuild was requested.
func (s *Streamer) Update(viewerWorld math.Vec2) {
	s.viewer = viewerWorld.Scale(1 / s.cfg.UniformScale)

	threshold := s.cfg.UpdateThreshold * s.cfg.UpdateThreshold
	if !s.started || s.rebuild || s.lastRecompute.Sub(s.viewer).LengthSquared() > threshold {
		s.started = true
		s.rebuild = false
		s.lastRecompute = s.viewer
		s.recompute()
	}
}

// RequestRebuild forces the next Update to recompute the visible set.
func (s *Streamer) RequestRebuild() {
	s.rebuild = true
}

// Reconfigure swaps in new settings. Every chunk is released and the next
// Update regenerates the view with the new parameters.
func (s *Streamer) Reconfigure(cfg Settings) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	for _, c := range s.chunks {
		s.release(c)
	}
	s.visible = nil
	if err := s.configure(cfg); err != nil {
		return err
	}
	s.RequestRebuild()
	return nil
}

// Chunk returns the record at coord, if one exists.
func (s *Streamer) Chunk(coord Coord) (*Chunk, bool) {
	c, ok := s.chunks[coord]
	return c, ok
}

// ChunkCount returns the number of records held.
func (s *Streamer) ChunkCount() int { return len(s.chunks) }

// VisibleCount returns the number of chunks in the visible set.
func (s *Streamer) VisibleCount() int { return len(s.visible) }

// ViewerChunk returns the coordinate of the chunk under the viewer.
func (s *Streamer) ViewerChunk() Coord {
	size := float64(s.chunkSize)
	return Coord{
		X: int(stdmath.RoundToEven(float64(s.viewer.X) / size)),
		Y: int(stdmath.RoundToEven(float64(s.viewer.Y) / size)),
	}
}

func (s *Streamer) recompute() {
	previous := s.visible
	s.visible = nil
	for _, c := range previous {
		c.visible = false
		c.listed = false
	}

	centre := s.ViewerChunk()
	created := 0
	for dy := -s.radius; dy <= s.radius; dy++ {
		for dx := -s.radius; dx <= s.radius; dx++ {
			coord := Coord{X: centre.X + dx, Y: centre.Y + dy}
			if c, ok := s.chunks[coord]; ok {
				s.evaluate(c)
			} else {
				s.create(coord)
				created++
			}
		}
	}

	for _, c := range previous {
		s.flush(c)
	}
	for _, c := range s.visible {
		s.flush(c)
	}

	evicted := 0
	if s.cfg.EvictMargin > 0 {
		evicted = s.evict(centre)
	}

	s.log.Debug("visible set recomputed",
		zap.Stringer("centre", centre),
		zap.Int("visible", len(s.visible)),
		zap.Int("created", created),
		zap.Int("evicted", evicted),
		zap.Int("chunks", len(s.chunks)))
}

func (s *Streamer) create(coord Coord) {
	c := newChunk(coord, s.chunkSize, s.lodLevels)
	s.chunks[coord] = c

	req := scheduler.HeightRequest{
		ChunkX:  coord.X,
		ChunkY:  coord.Y,
		Size:    s.cfg.ChunkVertices + 2,
		Center:  noise.Offset{X: float64(c.position.X), Y: float64(c.position.Y)},
		Noise:   s.cfg.Noise,
		Falloff: s.falloff,
	}
	c.heightRequested = true
	err := s.sched.SubmitHeightTask(req, func(hf *noise.HeightField) {
		s.onHeights(c, hf)
	})
	if err != nil {
		c.heightRequested = false
		s.log.Warn("height request rejected", zap.Stringer("chunk", coord), zap.Error(err))
	}
}

func (s *Streamer) onHeights(c *Chunk, hf *noise.HeightField) {
	if c.evicted {
		return
	}
	c.heights = hf
	s.evaluate(c)
	s.flush(c)
}

func (s *Streamer) requestMesh(c *Chunk, index int) {
	lm := &c.lods[index]
	lm.requested = true
	params := terrain.BuildParams{
		HeightMultiplier: s.cfg.HeightMultiplier,
		HeightCurve:      s.cfg.HeightCurve,
		LOD:              lm.lod,
		FlatShading:      s.cfg.FlatShading,
	}
	err := s.sched.SubmitMeshTask(c.heights, params, func(p *terrain.MeshPayload) {
		s.onMesh(c, index, p)
	})
	if err != nil {
		lm.requested = false
		s.log.Warn("mesh request rejected", zap.Stringer("chunk", c.coord), zap.Int("lod", lm.lod), zap.Error(err))
	}
}

func (s *Streamer) onMesh(c *Chunk, index int, p *terrain.MeshPayload) {
	if c.evicted {
		return
	}
	c.lods[index].mesh = p.CreateMesh()
	s.evaluate(c)
	s.flush(c)
}

// evaluate picks visibility and LOD for a chunk whose heights have arrived,
// applying cached meshes and requesting missing ones.
func (s *Streamer) evaluate(c *Chunk) {
	if c.heights == nil {
		return
	}

	dist := float32(stdmath.Sqrt(float64(c.bounds.SqrDistance(s.viewer))))
	visible := dist <= s.maxView

	if visible {
		index := s.cfg.LOD.Select(dist)
		if index != c.prevLOD {
			lm := &c.lods[index]
			if lm.mesh != nil {
				c.prevLOD = index
				s.sink.ApplyMesh(c.coord, lm.lod, lm.mesh)
			} else if !lm.requested {
				s.requestMesh(c, index)
			}
		}

		if index == 0 && s.colliderIndex >= 0 {
			lm := &c.lods[s.colliderIndex]
			if lm.mesh != nil {
				if !c.colliderApplied {
					c.colliderApplied = true
					s.sink.ApplyCollider(c.coord, lm.mesh)
				}
			} else if !lm.requested {
				s.requestMesh(c, s.colliderIndex)
			}
		}

		if !c.listed {
			c.listed = true
			s.visible = append(s.visible, c)
		}
	}
	c.visible = visible
}

// flush sends a visibility change to the sink.
func (s *Streamer) flush(c *Chunk) {
	if c.visible != c.shown {
		c.shown = c.visible
		s.sink.SetVisible(c.coord, c.shown)
	}
}

func (s *Streamer) evict(centre Coord) int {
	limit := s.radius + s.cfg.EvictMargin
	n := 0
	for coord, c := range s.chunks {
		if c.visible || coord.chebyshev(centre) <= limit {
			continue
		}
		s.release(c)
		n++
	}
	return n
}

func (s *Streamer) release(c *Chunk) {
	if c.shown {
		c.shown = false
		s.sink.SetVisible(c.coord, false)
	}
	c.evicted = true
	delete(s.chunks, c.coord)
	s.sink.Release(c.coord)
}
