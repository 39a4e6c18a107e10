// Package scheduler runs height and mesh builds on a bounded worker pool and
// hands results back to a single consuming goroutine.
package scheduler

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/Faultbox/terrastream/internal/config"
	"github.com/Faultbox/terrastream/internal/engine/noise"
	"github.com/Faultbox/terrastream/internal/engine/terrain"
	"github.com/Faultbox/terrastream/internal/logger"
)

// ErrClosed is returned by submissions after Close.
var ErrClosed = errors.New("scheduler closed")

// HeightRequest describes one chunk's height field.
type HeightRequest struct {
	ChunkX, ChunkY int          // chunk coordinate, for logging
	Size           int          // bordered edge length in samples
	Center         noise.Offset // chunk centre in terrain units
	Noise          noise.Params
	Falloff        *noise.HeightField // optional mask subtracted from the result
}

// Stats is a snapshot of scheduler counters.
type Stats struct {
	Submitted uint64
	Completed uint64 // results queued or delivered
	Failed    uint64 // errored or panicked; callback never runs
	Pending   uint64 // submitted but not finished
	Ready     int    // results waiting for Drain
	Running   int64  // busy pool workers
	Waiting   uint64 // tasks queued in the pool
}

// Scheduler executes builds off the consuming goroutine.
// Results are delivered only from Drain.
type Scheduler struct {
	pool pond.Pool
	log  *zap.Logger

	heights completionQueue[*noise.HeightField]
	meshes  completionQueue[*terrain.MeshPayload]

	mu     sync.RWMutex // guards closed against concurrent submits
	closed bool
	once   sync.Once

	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
}

// New creates a scheduler with cfg.Workers workers (0 = one per CPU).
// A positive cfg.QueueSize bounds the pool queue; submissions block when full.
func New(cfg config.SchedulerConfig) *Scheduler {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var opts []pond.Option
	if cfg.QueueSize > 0 {
		opts = append(opts, pond.WithQueueSize(cfg.QueueSize))
	}

	s := &Scheduler{
		pool: pond.NewPool(workers, opts...),
		log:  logger.Named("scheduler"),
	}
	s.log.Debug("scheduler started", zap.Int("workers", workers), zap.Int("queue_size", cfg.QueueSize))
	return s
}

// SubmitHeightTask generates a height field on a worker. The callback runs
// on the goroutine that calls Drain.
func (s *Scheduler) SubmitHeightTask(req HeightRequest, callback func(*noise.HeightField)) error {
	return submit(s, "height", &s.heights, func() (*noise.HeightField, error) {
		params := req.Noise
		params.Offset = params.Offset.Add(req.Center.X, req.Center.Y)
		hf := noise.Generate(req.Size, req.Size, params)
		if req.Falloff == nil {
			return hf, nil
		}
		return hf.Subtract(req.Falloff)
	}, callback, zap.Int("chunk_x", req.ChunkX), zap.Int("chunk_y", req.ChunkY))
}

// SubmitMeshTask builds a mesh on a worker. The callback runs on the
// goroutine that calls Drain.
func (s *Scheduler) SubmitMeshTask(hf *noise.HeightField, params terrain.BuildParams, callback func(*terrain.MeshPayload)) error {
	return submit(s, "mesh", &s.meshes, func() (*terrain.MeshPayload, error) {
		return terrain.BuildMesh(hf, params)
	}, callback, zap.Int("lod", params.LOD))
}

func submit[T any](s *Scheduler, kind string, q *completionQueue[T], work func() (T, error), callback func(T), fields ...zap.Field) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	s.submitted.Add(1)
	s.pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				s.failed.Add(1)
				s.log.Error("task panicked",
					append(fields, zap.String("kind", kind), zap.Any("panic", r))...)
			}
		}()

		result, err := work()
		if err != nil {
			s.failed.Add(1)
			s.log.Error("task failed", append(fields, zap.String("kind", kind), zap.Error(err))...)
			return
		}
		q.push(completion[T]{callback: callback, result: result})
		s.completed.Add(1)
	})
	return nil
}

// Drain runs all queued height callbacks, then all queued mesh callbacks,
// and returns how many ran. It never waits for in-flight work.
func (s *Scheduler) Drain() int {
	n := run(s.heights.swap())
	n += run(s.meshes.swap())
	return n
}

// Close stops accepting work and waits for in-flight tasks. Results that
// finish during Close remain available to Drain.
func (s *Scheduler) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.pool.StopAndWait()
		s.log.Debug("scheduler stopped", zap.Uint64("submitted", s.submitted.Load()), zap.Uint64("failed", s.failed.Load()))
	})
}

// Stats returns current counters.
func (s *Scheduler) Stats() Stats {
	submitted := s.submitted.Load()
	completed := s.completed.Load()
	failed := s.failed.Load()

	var pending uint64
	if done := completed + failed; submitted > done {
		pending = submitted - done
	}

	return Stats{
		Submitted: submitted,
		Completed: completed,
		Failed:    failed,
		Pending:   pending,
		Ready:     s.heights.len() + s.meshes.len(),
		Running:   s.pool.RunningWorkers(),
		Waiting:   s.pool.WaitingTasks(),
	}
}

func (st Stats) String() string {
	return fmt.Sprintf("submitted=%d completed=%d failed=%d pending=%d ready=%d",
		st.Submitted, st.Completed, st.Failed, st.Pending, st.Ready)
}
