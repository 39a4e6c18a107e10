package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Faultbox/terrastream/internal/config"
	"github.com/Faultbox/terrastream/internal/engine/streamer"
)

// smallConfig streams flat-shaded 94-unit chunks out to 150 units,
// a 5x5 block around the viewer chunk.
func smallConfig() *config.Config {
	cfg := config.Default()
	cfg.Terrain.UseFlatShading = true
	cfg.Terrain.UniformScale = 1
	cfg.LOD = config.LODTable{
		{LOD: 0, VisibleDistance: 100, UseForCollider: true},
		{LOD: 1, VisibleDistance: 150},
	}
	cfg.Streaming.TickRate = 0
	cfg.Scheduler.Workers = 2
	return cfg
}

func newTestSession(t *testing.T, opts Options) *Session {
	t.Helper()
	s, err := New(smallConfig(), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestSessionStreamsAroundViewer(t *testing.T) {
	s := newTestSession(t, Options{FixedStep: 0.1})

	s.Tick(0.1)
	if err := s.Settle(10 * time.Second); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	s.Tick(0.1)

	st := s.Stats()
	if st.Chunks != 25 {
		t.Errorf("expected 25 chunk records, got %d", st.Chunks)
	}
	if st.Visible == 0 || st.MeshApplies == 0 {
		t.Errorf("nothing shown: %+v", st)
	}
	if st.ColliderApplies == 0 {
		t.Error("viewer chunk got no collider")
	}
	if st.LODApplies[0] == 0 {
		t.Errorf("no lod 0 meshes applied: %v", st.LODApplies)
	}
	if st.Vertices == 0 || st.MeshBytes == 0 {
		t.Errorf("no resident mesh data: %d vertices, %d bytes", st.Vertices, st.MeshBytes)
	}
	if st.Scheduler.Failed != 0 {
		t.Errorf("%d tasks failed", st.Scheduler.Failed)
	}
}

func TestSessionCapturesHeightFields(t *testing.T) {
	dir := t.TempDir()
	s := newTestSession(t, Options{CaptureDir: dir})

	s.Tick(0)
	if err := s.Settle(10 * time.Second); err != nil {
		t.Fatalf("Settle: %v", err)
	}

	st := s.Stats()
	if st.Captures == 0 || st.Captures != st.Visible {
		t.Errorf("captured %d fields for %d visible chunks", st.Captures, st.Visible)
	}
	if _, err := os.Stat(filepath.Join(dir, "chunk_0_0.png")); err != nil {
		t.Errorf("origin chunk not captured: %v", err)
	}
}

func TestSessionRunTickBudget(t *testing.T) {
	s := newTestSession(t, Options{Ticks: 3, FixedStep: 0.5, Path: Line(10, 0)})

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	st := s.Stats()
	if st.Ticks != 3 {
		t.Errorf("ran %d ticks, want 3", st.Ticks)
	}
	if st.Elapsed != 1.5 || st.Viewer[0] != 15 {
		t.Errorf("elapsed %v viewer %v, want 1.5s at x=15", st.Elapsed, st.Viewer)
	}
}

func TestSessionRunStopsOnCancel(t *testing.T) {
	s := newTestSession(t, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx); err != nil {
		t.Errorf("Run after cancel: %v", err)
	}
}

func TestSessionReload(t *testing.T) {
	s := newTestSession(t, Options{})
	s.Tick(0)
	if err := s.Settle(10 * time.Second); err != nil {
		t.Fatalf("Settle: %v", err)
	}

	next := smallConfig()
	next.Noise.Seed = 7
	next.LOD = config.LODTable{{LOD: 0, VisibleDistance: 50, UseForCollider: true}}
	if err := s.Reload(next); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if st := s.Stats(); st.Chunks != 0 || st.Visible != 0 {
		t.Errorf("reload kept %d chunks, %d visible", st.Chunks, st.Visible)
	}

	s.Tick(0)
	// round(50/94) = 1
	if st := s.Stats(); st.Chunks != 9 {
		t.Errorf("expected 9 chunks after reload, got %d", st.Chunks)
	}

	bad := smallConfig()
	bad.LOD = nil
	if err := s.Reload(bad); err == nil {
		t.Error("expected error reloading an empty lod table")
	}
}

func TestNewRejectsEmptyLODTable(t *testing.T) {
	cfg := smallConfig()
	cfg.LOD = nil
	if _, err := New(cfg, Options{}); err == nil {
		t.Error("expected error for empty lod table")
	}
}

func TestPaths(t *testing.T) {
	line := Line(2, 90)
	if p := line(5); p.X > 1e-5 || p.X < -1e-5 || p.Y != 10 {
		t.Errorf("line at 5s = %v, want (0,10)", p)
	}

	orbit := Orbit(100, 0)
	if p := orbit(3); p.X != 100 || p.Y != 0 {
		t.Errorf("stationary orbit = %v, want (100,0)", p)
	}

	if _, err := ParsePath("spiral", 1, 0, 0); err == nil {
		t.Error("expected error for unknown path")
	}
	still, err := ParsePath("still", 5, 0, 0)
	if err != nil || still(10) != (Orbit(0, 0)(0)) {
		t.Errorf("still path moved: %v %v", still(10), err)
	}
}

func TestRecorderRelease(t *testing.T) {
	r := NewRecorder()
	c := streamer.Coord{X: 1, Y: 2}
	r.SetVisible(c, true)
	r.ApplyMesh(c, 0, nil)
	r.Release(c)
	if r.Visible() != 0 || len(r.meshes) != 0 || r.releases != 1 {
		t.Errorf("release left state: visible=%d meshes=%d releases=%d", r.Visible(), len(r.meshes), r.releases)
	}
}

func TestSessionRunAppliesReload(t *testing.T) {
	reload := make(chan *config.Config, 1)
	next := smallConfig()
	next.LOD = config.LODTable{{LOD: 0, VisibleDistance: 50, UseForCollider: true}}
	reload <- next

	s := newTestSession(t, Options{Ticks: 1, Reload: reload})
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st := s.Stats(); st.Chunks != 9 {
		t.Errorf("expected reloaded 3x3 view, got %d chunks", st.Chunks)
	}
}
