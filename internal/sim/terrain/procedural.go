package terrain

import (
	"math"

	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/mathx"
)

// Field is a total elevation function over horizontal world coordinates.
// Implementations never fail; on any internal error they return a safe
// fallback instead.
type Field interface {
	ElevationAt(x, z float64) float32
}

// Procedural generates Mars-like terrain from a seed: four frequency bands
// of value noise, ridge features, a radial falloff toward a notional crater
// bowl at the origin, then ordered crater stamping. Bit-identical for the
// same seed and coordinate across calls and restarts.
type Procedural struct {
	Seed      int64
	MaxHeight float64
}

func NewProcedural(seed int64, maxHeight float64) *Procedural {
	if maxHeight <= 0 {
		maxHeight = 30
	}
	return &Procedural{Seed: seed, MaxHeight: maxHeight}
}

func (p *Procedural) ElevationAt(x, z float64) float32 {
	// Four bands, coarse to fine.
	h := 0.55 * valueNoise(p.Seed, x*0.008, z*0.008)
	h += 0.25 * valueNoise(p.Seed+131, x*0.025, z*0.025)
	h += 0.13 * valueNoise(p.Seed+262, x*0.07, z*0.07)
	h += 0.07 * valueNoise(p.Seed+393, x*0.21, z*0.21)

	// Ridge crests, weighted by the coarse band so crests follow uplands.
	h += 0.12 * ridge(p.Seed+524, x, z, 0.015) * h

	// Radial falloff: the spawn sits inside a shallow bowl.
	d := math.Sqrt(x*x+z*z) / 900
	bowl := 1 - 0.35*math.Exp(-d*d)
	h *= bowl

	elev := h*p.MaxHeight + craterDeltaAt(p.Seed, x, z)
	return mathx.Finite(float32(elev), float32(p.MaxHeight)/2)
}
