package streamer

import (
	"fmt"

	"github.com/Faultbox/terrastream/internal/config"
	"github.com/Faultbox/terrastream/internal/engine/noise"
	"github.com/Faultbox/terrastream/internal/engine/terrain"
)

// Settings are the explicit inputs of a streaming session.
type Settings struct {
	ChunkVertices    int // rendered vertices per chunk edge
	UniformScale     float32
	LOD              config.LODTable
	Noise            noise.Params
	HeightMultiplier float32
	HeightCurve      *terrain.Curve
	FlatShading      bool
	UseFalloff       bool
	UpdateThreshold  float32 // viewer movement, in terrain units, before a recompute
	EvictMargin      int     // extra chunk rings kept beyond the view radius; 0 keeps all
}

// SettingsFromConfig maps a loaded configuration onto session settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		ChunkVertices:    cfg.Terrain.ChunkVertices(),
		UniformScale:     cfg.Terrain.UniformScale,
		LOD:              cfg.LOD,
		Noise:            cfg.Noise.NoiseParams(),
		HeightMultiplier: cfg.Terrain.HeightMultiplier,
		HeightCurve:      cfg.Terrain.Curve(),
		FlatShading:      cfg.Terrain.UseFlatShading,
		UseFalloff:       cfg.Terrain.UseFalloff,
		UpdateThreshold:  cfg.Streaming.UpdateThreshold,
		EvictMargin:      cfg.Streaming.EvictMargin,
	}
}

// ChunkSize returns the chunk edge length in terrain units.
func (s Settings) ChunkSize() int {
	return s.ChunkVertices - 1
}

func (s Settings) validate() error {
	if len(s.LOD) == 0 {
		return config.ErrEmptyLODTable
	}
	if s.ChunkVertices < 2 {
		return fmt.Errorf("chunk vertices must be at least 2, got %d", s.ChunkVertices)
	}
	if s.UniformScale <= 0 {
		return fmt.Errorf("uniform scale must be positive, got %v", s.UniformScale)
	}
	for i, info := range s.LOD {
		if err := terrain.CheckLOD(s.ChunkVertices+2, info.LOD); err != nil {
			return fmt.Errorf("lod row %d: %w", i, err)
		}
	}
	return nil
}
