// Package session drives a terrain streaming session: it moves a viewer
// along a path, ticks the streamer and drains finished work.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Faultbox/terrastream/internal/config"
	"github.com/Faultbox/terrastream/internal/engine/debug"
	"github.com/Faultbox/terrastream/internal/engine/scheduler"
	"github.com/Faultbox/terrastream/internal/engine/streamer"
	"github.com/Faultbox/terrastream/internal/logger"
	"github.com/Faultbox/terrastream/pkg/math"
)

// Options control how a session runs.
type Options struct {
	Path       Path
	Ticks      int     // stop after this many ticks; 0 runs until the context ends
	FixedStep  float64 // simulated seconds per tick; 0 uses wall-clock time
	CaptureDir string  // write each chunk's height field here on first show

	CaptureFormat debug.Format

	// Reload delivers configurations applied between ticks.
	Reload <-chan *config.Config
}

// Stats is a snapshot of a running session.
type Stats struct {
	Ticks           int             `json:"ticks"`
	Elapsed         float64         `json:"elapsed_seconds"`
	Viewer          [2]float32      `json:"viewer"`
	ViewerChunk     streamer.Coord  `json:"viewer_chunk"`
	Chunks          int             `json:"chunks"`
	Visible         int             `json:"visible"`
	MeshApplies     int             `json:"mesh_applies"`
	ColliderApplies int             `json:"collider_applies"`
	Releases        int             `json:"releases"`
	LODApplies      map[int]int     `json:"lod_applies"`
	Vertices        uint64          `json:"resident_vertices"`
	MeshBytes       uint64          `json:"resident_mesh_bytes"`
	Captures        int             `json:"captures"`
	Scheduler       scheduler.Stats `json:"scheduler"`
}

// Session is the main streaming instance.
type Session struct {
	cfg      *config.Config
	opts     Options
	log      *zap.Logger
	sched    *scheduler.Scheduler
	streamer *streamer.Streamer
	sink     *Recorder
	capture  *debug.HeightmapCapture
	captured map[streamer.Coord]bool
	limiter  *rate.Limiter

	ticks   int
	elapsed float64
	viewer  math.Vec2
}

// New creates a session from a validated configuration.
func New(cfg *config.Config, opts Options) (*Session, error) {
	if opts.Path == nil {
		opts.Path = Line(0, 0)
	}

	s := &Session{
		cfg:      cfg,
		opts:     opts,
		log:      logger.Named("session"),
		sink:     NewRecorder(),
		captured: make(map[streamer.Coord]bool),
		limiter:  newLimiter(cfg.Streaming.TickRate),
	}

	s.sched = scheduler.New(cfg.Scheduler)

	var err error
	s.streamer, err = streamer.New(streamer.SettingsFromConfig(cfg), s.sched, s.sink)
	if err != nil {
		s.sched.Close()
		return nil, fmt.Errorf("failed to create streamer: %w", err)
	}

	if opts.CaptureDir != "" {
		s.capture = debug.NewHeightmapCapture(opts.CaptureDir, "chunk")
		s.capture.SetFormat(opts.CaptureFormat)
		s.sink.OnVisible(s.captureChunk)
	}

	s.log.Info("session initialized",
		zap.Int64("seed", cfg.Noise.Seed),
		zap.Int("chunk_size", cfg.Terrain.ChunkSize()),
		zap.Float32("max_view", cfg.LOD.MaxViewDistance()),
		zap.Bool("flat_shading", cfg.Terrain.UseFlatShading))
	return s, nil
}

func newLimiter(tickRate float64) *rate.Limiter {
	if tickRate <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(tickRate), 1)
}

// Run ticks the session until the tick budget is spent or ctx ends.
func (s *Session) Run(ctx context.Context) error {
	lastTime := time.Now()
	statsTimer := time.Now()

	s.log.Info("starting session loop", zap.Int("ticks", s.opts.Ticks))

	for s.opts.Ticks == 0 || s.ticks < s.opts.Ticks {
		if err := s.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("tick limiter: %w", err)
		}

		select {
		case next := <-s.opts.Reload:
			if err := s.Reload(next); err != nil {
				s.log.Error("reload rejected", zap.Error(err))
			}
		default:
		}

		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now
		if s.opts.FixedStep > 0 {
			dt = s.opts.FixedStep
		}

		s.Tick(dt)

		if time.Since(statsTimer) >= time.Second {
			st := s.Stats()
			s.log.Debug("tick",
				zap.Int("ticks", st.Ticks),
				zap.Int("visible", st.Visible),
				zap.Int("chunks", st.Chunks),
				zap.Stringer("scheduler", st.Scheduler))
			statsTimer = time.Now()
		}
	}
	return nil
}

// Tick drains finished work, then advances the viewer by dt seconds and
// updates the streamer.
func (s *Session) Tick(dt float64) {
	s.sched.Drain()

	s.ticks++
	s.elapsed += dt
	s.viewer = s.opts.Path(s.elapsed)
	s.streamer.Update(s.viewer)
}

// Settle keeps draining until no work is pending or the timeout passes.
func (s *Session) Settle(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		s.sched.Drain()
		st := s.sched.Stats()
		if st.Pending == 0 && st.Ready == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.New("work still pending after settle timeout")
		}
		time.Sleep(time.Millisecond)
	}
}

// Reload applies a new configuration. Chunks are regenerated on the next
// tick. Scheduler settings are kept.
func (s *Session) Reload(cfg *config.Config) error {
	if err := s.streamer.Reconfigure(streamer.SettingsFromConfig(cfg)); err != nil {
		return fmt.Errorf("reconfigure streamer: %w", err)
	}
	s.cfg = cfg
	s.sink.Reset()
	s.captured = make(map[streamer.Coord]bool)
	s.limiter.SetLimit(newLimiter(cfg.Streaming.TickRate).Limit())
	s.log.Info("configuration reloaded", zap.Int64("seed", cfg.Noise.Seed))
	return nil
}

// Stats returns a snapshot of the session.
func (s *Session) Stats() Stats {
	vertices, bytes := s.sink.residentBytes()
	lods := make(map[int]int, len(s.sink.lodApplies))
	for k, v := range s.sink.lodApplies {
		lods[k] = v
	}
	return Stats{
		Ticks:           s.ticks,
		Elapsed:         s.elapsed,
		Viewer:          [2]float32{s.viewer.X, s.viewer.Y},
		ViewerChunk:     s.streamer.ViewerChunk(),
		Chunks:          s.streamer.ChunkCount(),
		Visible:         s.sink.Visible(),
		MeshApplies:     s.sink.meshApplies,
		ColliderApplies: s.sink.colliderApplies,
		Releases:        s.sink.releases,
		LODApplies:      lods,
		Vertices:        vertices,
		MeshBytes:       bytes,
		Captures:        len(s.captured),
		Scheduler:       s.sched.Stats(),
	}
}

// Close stops background work.
func (s *Session) Close() {
	s.log.Info("closing session")
	s.sched.Close()
}

func (s *Session) captureChunk(c streamer.Coord) {
	if s.captured[c] {
		return
	}
	chunk, ok := s.streamer.Chunk(c)
	if !ok || chunk.Heights() == nil {
		return
	}
	s.captured[c] = true
	path, err := s.capture.CaptureNamed(chunk.Heights(), fmt.Sprintf("%d_%d", c.X, c.Y))
	if err != nil {
		s.log.Warn("height capture failed", zap.Stringer("chunk", c), zap.Error(err))
		return
	}
	s.log.Debug("height field captured", zap.String("path", path))
}
