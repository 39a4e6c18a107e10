package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/terrastream/internal/engine/noise"
	"github.com/Faultbox/terrastream/internal/engine/terrain"
)

// ErrEmptyLODTable is returned when no LOD rows are configured.
// Visibility and LOD selection are undefined without at least one threshold.
var ErrEmptyLODTable = errors.New("lod table is empty")

// Validate checks structural settings that cannot be clamped.
// Noise parameters are clamped at generation time and are not errors.
func (c *Config) Validate() error {
	if _, err := noise.ParseNormalizeMode(c.Noise.NormalizeMode); err != nil {
		return fmt.Errorf("noise: %w", err)
	}
	if _, err := noise.ParseSourceKind(c.Noise.Source); err != nil {
		return fmt.Errorf("noise: %w", err)
	}
	if c.Terrain.UniformScale <= 0 {
		return fmt.Errorf("terrain: uniform_scale must be positive, got %v", c.Terrain.UniformScale)
	}
	if err := c.LOD.validate(c.Terrain.ChunkVertices() + 2); err != nil {
		return fmt.Errorf("lod: %w", err)
	}
	if c.Streaming.UpdateThreshold < 0 {
		return fmt.Errorf("streaming: update_threshold must not be negative, got %v", c.Streaming.UpdateThreshold)
	}
	if c.Streaming.EvictMargin < 0 {
		return fmt.Errorf("streaming: evict_margin must not be negative, got %d", c.Streaming.EvictMargin)
	}
	if c.Scheduler.Workers < 0 || c.Scheduler.QueueSize < 0 {
		return fmt.Errorf("scheduler: workers and queue_size must not be negative")
	}
	return nil
}

// validate checks ordering and that every level decimates a bordered grid
// of edge borderedSize without a partial row.
func (t LODTable) validate(borderedSize int) error {
	if len(t) == 0 {
		return ErrEmptyLODTable
	}
	for i, info := range t {
		if err := terrain.CheckLOD(borderedSize, info.LOD); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		if info.VisibleDistance <= 0 {
			return fmt.Errorf("row %d: visible_distance must be positive, got %v", i, info.VisibleDistance)
		}
		if i > 0 && info.VisibleDistance <= t[i-1].VisibleDistance {
			return fmt.Errorf("row %d: visible_distance %v is not above previous %v", i, info.VisibleDistance, t[i-1].VisibleDistance)
		}
	}
	return nil
}
