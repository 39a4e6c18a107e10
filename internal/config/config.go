// Package config handles terrain streaming configuration loading and management.
package config

import (
	"github.com/Faultbox/terrastream/internal/engine/noise"
	"github.com/Faultbox/terrastream/internal/engine/terrain"
)

// Config holds all terrain streaming settings.
type Config struct {
	Noise     NoiseConfig     `yaml:"noise"`
	Terrain   TerrainConfig   `yaml:"terrain"`
	LOD       LODTable        `yaml:"lod"`
	Streaming StreamingConfig `yaml:"streaming"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// NoiseConfig holds fractal noise parameters.
type NoiseConfig struct {
	NormalizeMode string  `yaml:"normalize_mode"` // "local" or "global"
	Source        string  `yaml:"source"`         // "perlin" or "simplex"
	Seed          int64   `yaml:"seed"`
	Scale         float64 `yaml:"scale"`
	Octaves       int     `yaml:"octaves"`
	Persistence   float64 `yaml:"persistence"`
	Lacunarity    float64 `yaml:"lacunarity"`
	OffsetX       float64 `yaml:"offset_x"`
	OffsetY       float64 `yaml:"offset_y"`
}

// CurveKey is one keyframe of the height curve.
type CurveKey struct {
	Time       float32 `yaml:"time"`
	Value      float32 `yaml:"value"`
	InTangent  float32 `yaml:"in_tangent"`
	OutTangent float32 `yaml:"out_tangent"`
}

// TerrainConfig holds mesh shaping settings.
type TerrainConfig struct {
	UniformScale     float32    `yaml:"uniform_scale"`
	HeightMultiplier float32    `yaml:"height_multiplier"`
	HeightCurve      []CurveKey `yaml:"height_curve"`
	UseFlatShading   bool       `yaml:"use_flat_shading"`
	UseFalloff       bool       `yaml:"use_falloff"`
}

// LODInfo is one row of the LOD table.
type LODInfo struct {
	LOD             int     `yaml:"lod"`
	VisibleDistance float32 `yaml:"visible_distance"`
	UseForCollider  bool    `yaml:"use_for_collider"`
}

// LODTable is ordered by ascending visible distance.
type LODTable []LODInfo

// StreamingConfig holds chunk streaming settings.
type StreamingConfig struct {
	UpdateThreshold float32 `yaml:"update_threshold"` // viewer movement before the visible set is recomputed
	EvictMargin     int     `yaml:"evict_margin"`     // chunks beyond the view radius kept cached; 0 keeps everything
	TickRate        float64 `yaml:"tick_rate"`        // consumer ticks per second
}

// SchedulerConfig holds background worker settings.
type SchedulerConfig struct {
	Workers   int `yaml:"workers"`    // 0 = one per CPU
	QueueSize int `yaml:"queue_size"` // 0 = unbounded
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Chunk vertex counts per axis. (n+1) is divisible by every step the
// default LOD tables use.
const (
	smoothChunkVertices = 239
	flatChunkVertices   = 95
)

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Noise: NoiseConfig{
			NormalizeMode: "global",
			Source:        "perlin",
			Seed:          0,
			Scale:         50,
			Octaves:       4,
			Persistence:   0.5,
			Lacunarity:    2,
		},
		Terrain: TerrainConfig{
			UniformScale:     3,
			HeightMultiplier: 30,
			HeightCurve: []CurveKey{
				{Time: 0, Value: 0, InTangent: 0, OutTangent: 0},
				{Time: 0.4, Value: 0.05, InTangent: 0.4, OutTangent: 0.4},
				{Time: 1, Value: 1, InTangent: 2, OutTangent: 2},
			},
		},
		LOD: LODTable{
			{LOD: 0, VisibleDistance: 200, UseForCollider: true},
			{LOD: 1, VisibleDistance: 400},
			{LOD: 3, VisibleDistance: 600},
		},
		Streaming: StreamingConfig{
			UpdateThreshold: 25,
			EvictMargin:     0,
			TickRate:        60,
		},
		Scheduler: SchedulerConfig{
			Workers:   0,
			QueueSize: 256,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// NoiseParams converts the noise section into generator parameters.
// Unknown mode or source names fall back to the defaults; Validate reports them.
func (c NoiseConfig) NoiseParams() noise.Params {
	mode, _ := noise.ParseNormalizeMode(c.NormalizeMode)
	source, _ := noise.ParseSourceKind(c.Source)
	return noise.Params{
		Seed:        c.Seed,
		Scale:       c.Scale,
		Octaves:     c.Octaves,
		Persistence: c.Persistence,
		Lacunarity:  c.Lacunarity,
		Offset:      noise.Offset{X: c.OffsetX, Y: c.OffsetY},
		Normalize:   mode,
		Source:      source,
	}
}

// ChunkVertices returns the rendered vertex count per chunk edge.
// Flat shading triples the vertex count, so flat chunks are smaller.
func (t TerrainConfig) ChunkVertices() int {
	if t.UseFlatShading {
		return flatChunkVertices
	}
	return smoothChunkVertices
}

// ChunkSize returns the chunk edge length in terrain units.
func (t TerrainConfig) ChunkSize() int {
	return t.ChunkVertices() - 1
}

// Curve builds the height curve. An empty key list yields the identity curve.
func (t TerrainConfig) Curve() *terrain.Curve {
	keys := make([]terrain.Keyframe, len(t.HeightCurve))
	for i, k := range t.HeightCurve {
		keys[i] = terrain.Keyframe{Time: k.Time, Value: k.Value, InTangent: k.InTangent, OutTangent: k.OutTangent}
	}
	return terrain.NewCurve(keys...)
}

// MinHeight returns the lowest world-space terrain height.
func (t TerrainConfig) MinHeight() float32 {
	return t.UniformScale * t.HeightMultiplier * t.Curve().Evaluate(0)
}

// MaxHeight returns the highest world-space terrain height.
func (t TerrainConfig) MaxHeight() float32 {
	return t.UniformScale * t.HeightMultiplier * t.Curve().Evaluate(1)
}

// MaxViewDistance returns the last threshold of the table, or 0 if empty.
func (t LODTable) MaxViewDistance() float32 {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1].VisibleDistance
}

// ColliderIndex returns the index of the row used for collision meshes,
// or -1 if no row is flagged. The last flagged row wins.
func (t LODTable) ColliderIndex() int {
	idx := -1
	for i, info := range t {
		if info.UseForCollider {
			idx = i
		}
	}
	return idx
}

// Select returns the table index for a viewer at the given distance from
// a chunk's nearest edge. The scan stops at the first threshold that is
// not exceeded; distances beyond every threshold map to the last row.
func (t LODTable) Select(distance float32) int {
	idx := 0
	for i := 0; i < len(t)-1; i++ {
		if distance > t[i].VisibleDistance {
			idx = i + 1
		} else {
			break
		}
	}
	return idx
}
