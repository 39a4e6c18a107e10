package noise

import (
	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// source is a seeded 2D coherent noise function returning values in [-1, 1].
type source interface {
	Eval2(x, y float64) float64
}

// Perlin tuning for a single band; octave layering happens in Generate.
const (
	perlinAlpha = 2
	perlinBeta  = 2
	perlinBands = 1
)

type perlinSource struct {
	p *perlin.Perlin
}

func (s perlinSource) Eval2(x, y float64) float64 {
	return clampUnit(s.p.Noise2D(x, y))
}

type simplexSource struct {
	n opensimplex.Noise
}

func (s simplexSource) Eval2(x, y float64) float64 {
	return clampUnit(s.n.Eval2(x, y))
}

func newSource(kind SourceKind, seed int64) source {
	switch kind {
	case Simplex:
		return simplexSource{n: opensimplex.New(seed)}
	default:
		return perlinSource{p: perlin.NewPerlin(perlinAlpha, perlinBeta, perlinBands, seed)}
	}
}

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
