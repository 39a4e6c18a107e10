package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/Faultbox/terrastream/internal/config"
	"github.com/Faultbox/terrastream/internal/engine/noise"
	"github.com/Faultbox/terrastream/internal/engine/terrain"
)

func testNoise() noise.Params {
	return noise.Params{Seed: 4, Scale: 30, Octaves: 3, Persistence: 0.5, Lacunarity: 2, Normalize: noise.Global}
}

// drainUntil drains until want callbacks ran or the deadline passes.
func drainUntil(t *testing.T, s *Scheduler, want int) int {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	got := 0
	for got < want && time.Now().Before(deadline) {
		got += s.Drain()
		if got < want {
			time.Sleep(time.Millisecond)
		}
	}
	return got
}

// waitIdle waits until every submitted task has finished.
func waitIdle(t *testing.T, s *Scheduler) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for s.Stats().Pending > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("tasks still pending: %v", s.Stats())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHeightTaskMatchesDirectGeneration(t *testing.T) {
	s := New(config.SchedulerConfig{Workers: 2})
	defer s.Close()

	req := HeightRequest{Size: 19, Center: noise.Offset{X: 36, Y: -18}, Noise: testNoise()}
	var got *noise.HeightField
	if err := s.SubmitHeightTask(req, func(hf *noise.HeightField) { got = hf }); err != nil {
		t.Fatalf("SubmitHeightTask: %v", err)
	}
	if n := drainUntil(t, s, 1); n != 1 {
		t.Fatalf("expected 1 callback, got %d", n)
	}

	p := testNoise()
	p.Offset = noise.Offset{X: 36, Y: -18}
	want := noise.Generate(19, 19, p).Values()
	for i, v := range got.Values() {
		if v != want[i] {
			t.Fatalf("sample %d = %v, want %v", i, v, want[i])
		}
	}
}

func TestHeightTaskFalloff(t *testing.T) {
	s := New(config.SchedulerConfig{Workers: 1})
	defer s.Close()

	req := HeightRequest{Size: 9, Noise: testNoise(), Falloff: noise.Falloff(9)}
	var got *noise.HeightField
	s.SubmitHeightTask(req, func(hf *noise.HeightField) { got = hf })
	drainUntil(t, s, 1)
	if got == nil {
		t.Fatal("no height field delivered")
	}
	// The mask is ~1 at the corner, so the corner height is pulled to 0.
	if v := got.At(0, 0); v > 0.01 {
		t.Errorf("corner height %v, want ~0", v)
	}
}

func TestCallbacksOnlyRunInDrain(t *testing.T) {
	s := New(config.SchedulerConfig{Workers: 4})
	defer s.Close()

	calls := 0
	for i := range 8 {
		req := HeightRequest{ChunkX: i, Size: 5, Noise: testNoise()}
		if err := s.SubmitHeightTask(req, func(*noise.HeightField) { calls++ }); err != nil {
			t.Fatalf("SubmitHeightTask: %v", err)
		}
	}
	waitIdle(t, s)

	if calls != 0 {
		t.Fatalf("callbacks ran before Drain: %d", calls)
	}
	if st := s.Stats(); st.Ready != 8 {
		t.Errorf("expected 8 ready results, got %d", st.Ready)
	}
	if n := s.Drain(); n != 8 || calls != 8 {
		t.Errorf("Drain ran %d callbacks (%d calls), want 8", n, calls)
	}
	if n := s.Drain(); n != 0 {
		t.Errorf("second Drain ran %d callbacks, want 0", n)
	}
}

func TestDrainOrdersHeightsBeforeMeshes(t *testing.T) {
	s := New(config.SchedulerConfig{Workers: 1})
	defer s.Close()

	hf := noise.Generate(9, 9, testNoise())
	var order []string
	s.SubmitMeshTask(hf, terrain.BuildParams{HeightMultiplier: 1}, func(*terrain.MeshPayload) { order = append(order, "mesh") })
	s.SubmitHeightTask(HeightRequest{Size: 9, Noise: testNoise()}, func(*noise.HeightField) { order = append(order, "height") })
	waitIdle(t, s)

	s.Drain()
	if len(order) != 2 || order[0] != "height" || order[1] != "mesh" {
		t.Errorf("drain order %v, want [height mesh]", order)
	}
}

func TestMeshTask(t *testing.T) {
	s := New(config.SchedulerConfig{Workers: 2, QueueSize: 4})
	defer s.Close()

	hf := noise.Generate(13, 13, testNoise())
	var got *terrain.MeshPayload
	err := s.SubmitMeshTask(hf, terrain.BuildParams{HeightMultiplier: 5, LOD: 1}, func(p *terrain.MeshPayload) { got = p })
	if err != nil {
		t.Fatalf("SubmitMeshTask: %v", err)
	}
	drainUntil(t, s, 1)
	if got == nil {
		t.Fatal("no mesh delivered")
	}
	if got.LOD != 1 || got.VertexCount() != 25 {
		t.Errorf("got lod %d with %d vertices, want lod 1 with 25", got.LOD, got.VertexCount())
	}
}

func TestFailedTasksSkipCallback(t *testing.T) {
	s := New(config.SchedulerConfig{Workers: 2})
	defer s.Close()

	called := false
	cb := func(*terrain.MeshPayload) { called = true }

	// Build error: step 10 does not divide the field.
	s.SubmitMeshTask(noise.Generate(9, 9, testNoise()), terrain.BuildParams{LOD: 5}, cb)
	// Panic: nil field.
	s.SubmitMeshTask(nil, terrain.BuildParams{}, cb)
	waitIdle(t, s)

	if n := s.Drain(); n != 0 || called {
		t.Errorf("failed tasks delivered %d callbacks", n)
	}
	if st := s.Stats(); st.Failed != 2 || st.Completed != 0 {
		t.Errorf("stats %v, want 2 failed and 0 completed", st)
	}
}

func TestSubmitAfterClose(t *testing.T) {
	s := New(config.SchedulerConfig{Workers: 1})
	s.Close()
	s.Close()

	err := s.SubmitHeightTask(HeightRequest{Size: 3}, func(*noise.HeightField) {})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	err = s.SubmitMeshTask(nil, terrain.BuildParams{}, func(*terrain.MeshPayload) {})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestCloseKeepsFinishedResults(t *testing.T) {
	s := New(config.SchedulerConfig{Workers: 2})
	for range 4 {
		s.SubmitHeightTask(HeightRequest{Size: 7, Noise: testNoise()}, func(*noise.HeightField) {})
	}
	s.Close()

	if n := s.Drain(); n != 4 {
		t.Errorf("expected 4 results after Close, got %d", n)
	}
	if st := s.Stats(); st.Submitted != 4 || st.Pending != 0 {
		t.Errorf("stats %v, want 4 submitted and none pending", st)
	}
}

// waitCompleted waits until n tasks have finished successfully.
func waitCompleted(t *testing.T, s *Scheduler, n uint64) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for s.Stats().Completed < n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d completed tasks: %v", n, s.Stats())
		}
		time.Sleep(time.Millisecond)
	}
}

// gatedHeights returns work that blocks until gate is closed, signalling
// started once it runs.
func gatedHeights(started chan<- struct{}, gate <-chan struct{}) func() (*noise.HeightField, error) {
	return func() (*noise.HeightField, error) {
		if started != nil {
			started <- struct{}{}
		}
		<-gate
		return noise.Generate(3, 3, testNoise()), nil
	}
}

func TestFullQueueBlocksSubmit(t *testing.T) {
	s := New(config.SchedulerConfig{Workers: 1, QueueSize: 1})
	defer s.Close()

	var order []int
	record := func(i int) func(*noise.HeightField) {
		return func(*noise.HeightField) { order = append(order, i) }
	}

	started := make(chan struct{}, 1)
	gate := make(chan struct{})

	// First task occupies the only worker, second fills the queue.
	if err := submit(s, "height", &s.heights, gatedHeights(started, gate), record(0)); err != nil {
		t.Fatalf("submit 0: %v", err)
	}
	<-started
	if err := submit(s, "height", &s.heights, gatedHeights(nil, gate), record(1)); err != nil {
		t.Fatalf("submit 1: %v", err)
	}

	submitted := make(chan error, 1)
	go func() {
		submitted <- s.SubmitHeightTask(HeightRequest{Size: 5, Noise: testNoise()}, record(2))
	}()

	select {
	case err := <-submitted:
		t.Fatalf("submit returned while the queue was full: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(gate)
	select {
	case err := <-submitted:
		if err != nil {
			t.Fatalf("blocked submit: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("submit still blocked after the worker freed a slot")
	}

	if n := drainUntil(t, s, 3); n != 3 {
		t.Fatalf("expected 3 callbacks, got %d", n)
	}
	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Errorf("callback order %v, want [0 1 2]", order)
	}
}

func TestDrainRunsInCompletionOrder(t *testing.T) {
	s := New(config.SchedulerConfig{Workers: 3})
	defer s.Close()

	var order []int
	gates := make([]chan struct{}, 3)
	for i := range gates {
		gates[i] = make(chan struct{})
		cb := func(*noise.HeightField) { order = append(order, i) }
		if err := submit(s, "height", &s.heights, gatedHeights(nil, gates[i]), cb); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	// Finish out of submission order: 2, 0, 1.
	for n, i := range []int{2, 0, 1} {
		close(gates[i])
		waitCompleted(t, s, uint64(n+1))
	}

	if n := s.Drain(); n != 3 {
		t.Fatalf("Drain ran %d callbacks, want 3", n)
	}
	if order[0] != 2 || order[1] != 0 || order[2] != 1 {
		t.Errorf("callback order %v, want [2 0 1]", order)
	}
}

func TestSingleWorkerHeightsDrainFIFO(t *testing.T) {
	s := New(config.SchedulerConfig{Workers: 1})
	defer s.Close()

	var order []int
	for i := range 3 {
		req := HeightRequest{ChunkX: i, Size: 7, Noise: testNoise()}
		if err := s.SubmitHeightTask(req, func(*noise.HeightField) { order = append(order, req.ChunkX) }); err != nil {
			t.Fatalf("SubmitHeightTask %d: %v", i, err)
		}
	}
	waitIdle(t, s)

	s.Drain()
	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Errorf("callback order %v, want [0 1 2]", order)
	}
}
