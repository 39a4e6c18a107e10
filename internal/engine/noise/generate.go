package noise

import (
	"math"
	"math/rand"
)

// octaveSpread bounds the per-octave random offset drawn from the seed.
const octaveSpread = 100000

// Generate samples a width x height fractal height field.
//
// Each octave is shifted by an offset drawn from a PRNG seeded with p.Seed,
// plus p.Offset (X added, Y subtracted). Sampling is centred on the field,
// so two fields whose offsets differ by their edge length share an edge
// exactly when normalized globally.
func Generate(width, height int, p Params) *HeightField {
	p = p.Sanitize()
	if width <= 0 || height <= 0 {
		return &HeightField{}
	}

	values := make([]float32, width*height)
	if p.Octaves == 0 {
		return &HeightField{width: width, height: height, values: values}
	}

	rng := rand.New(rand.NewSource(p.Seed))
	offsets := make([]Offset, p.Octaves)
	for i := range offsets {
		offsets[i].X = float64(rng.Intn(2*octaveSpread)-octaveSpread) + p.Offset.X
		offsets[i].Y = float64(rng.Intn(2*octaveSpread)-octaveSpread) - p.Offset.Y
	}

	src := newSource(p.Source, p.Seed)
	halfW := float64(width) / 2
	halfH := float64(height) / 2

	raw := make([]float64, width*height)
	lo, hi := math.Inf(1), math.Inf(-1)

	for y := range height {
		for x := range width {
			amplitude, frequency, h := 1.0, 1.0, 0.0
			for _, off := range offsets {
				sx := (float64(x) - halfW + off.X) / p.Scale * frequency
				sy := (float64(y) - halfH + off.Y) / p.Scale * frequency
				h += src.Eval2(sx, sy) * amplitude

				amplitude *= p.Persistence
				frequency *= p.Lacunarity
			}
			raw[y*width+x] = h
			lo = math.Min(lo, h)
			hi = math.Max(hi, h)
		}
	}

	switch p.Normalize {
	case Local:
		span := hi - lo
		for i, h := range raw {
			if span > 0 {
				values[i] = float32((h - lo) / span)
			}
		}
	default:
		maxAmp := p.MaxAmplitude()
		for i, h := range raw {
			values[i] = clamp01(float32((h + maxAmp) / (2 * maxAmp)))
		}
	}

	return &HeightField{width: width, height: height, values: values}
}
