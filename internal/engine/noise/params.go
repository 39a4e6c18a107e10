package noise

import "fmt"

// NormalizeMode selects how raw fractal sums are mapped into [0, 1].
type NormalizeMode int

const (
	// Local rescales each field by its own min/max. Adjacent chunks
	// do not line up at their edges in this mode.
	Local NormalizeMode = iota
	// Global rescales by the theoretical amplitude bound, so every
	// chunk shares the same mapping and edges match exactly.
	Global
)

func (m NormalizeMode) String() string {
	switch m {
	case Local:
		return "local"
	case Global:
		return "global"
	default:
		return fmt.Sprintf("NormalizeMode(%d)", int(m))
	}
}

// ParseNormalizeMode parses "local" or "global". Empty selects Global.
func ParseNormalizeMode(s string) (NormalizeMode, error) {
	switch s {
	case "local":
		return Local, nil
	case "global", "":
		return Global, nil
	default:
		return Global, fmt.Errorf("unknown normalize mode %q", s)
	}
}

// SourceKind selects the coherent noise function sampled per octave.
type SourceKind int

const (
	Perlin SourceKind = iota
	Simplex
)

func (k SourceKind) String() string {
	switch k {
	case Perlin:
		return "perlin"
	case Simplex:
		return "simplex"
	default:
		return fmt.Sprintf("SourceKind(%d)", int(k))
	}
}

// ParseSourceKind parses "perlin" or "simplex". Empty selects Perlin.
func ParseSourceKind(s string) (SourceKind, error) {
	switch s {
	case "perlin", "":
		return Perlin, nil
	case "simplex":
		return Simplex, nil
	default:
		return Perlin, fmt.Errorf("unknown noise source %q", s)
	}
}

// Offset shifts the sampled region in noise space.
type Offset struct {
	X, Y float64
}

// Add returns o shifted by (x, y).
func (o Offset) Add(x, y float64) Offset {
	return Offset{X: o.X + x, Y: o.Y + y}
}

// Params configures fractal noise synthesis.
type Params struct {
	Seed        int64
	Scale       float64
	Octaves     int
	Persistence float64
	Lacunarity  float64
	Offset      Offset
	Normalize   NormalizeMode
	Source      SourceKind
}

// minScale replaces non-positive scales to avoid dividing by zero.
const minScale = 0.0001

// Sanitize returns a copy of p with out-of-range values clamped.
func (p Params) Sanitize() Params {
	if p.Scale <= 0 {
		p.Scale = minScale
	}
	if p.Octaves < 0 {
		p.Octaves = 0
	}
	if p.Lacunarity < 1 {
		p.Lacunarity = 1
	}
	if p.Persistence < 0 {
		p.Persistence = 0
	}
	if p.Persistence > 1 {
		p.Persistence = 1
	}
	return p
}

// MaxAmplitude returns the bound on the absolute fractal sum, the sum of
// persistence^i over all octaves.
func (p Params) MaxAmplitude() float64 {
	total, amp := 0.0, 1.0
	for range p.Octaves {
		total += amp
		amp *= p.Persistence
	}
	return total
}
