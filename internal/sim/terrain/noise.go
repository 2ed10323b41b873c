package terrain

import (
	"math"

	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/mathx"
)

// Deterministic 2D value noise on an integer lattice. The same hashing
// scheme is used for lattice values, crater placement, and jitter, so two
// calls with identical inputs always return identical output.

func latticeValue(seed int64, x, z int) float64 {
	return mathx.Unit(mathx.Hash2(seed, x, z))
}

func valueNoise(seed int64, x, z float64) float64 {
	x0 := math.Floor(x)
	z0 := math.Floor(z)
	ix := int(x0)
	iz := int(z0)

	fx := mathx.Fade(x - x0)
	fz := mathx.Fade(z - z0)

	v00 := latticeValue(seed, ix, iz)
	v10 := latticeValue(seed, ix+1, iz)
	v01 := latticeValue(seed, ix, iz+1)
	v11 := latticeValue(seed, ix+1, iz+1)

	s := mathx.Lerp(v00, v10, fx)
	n := mathx.Lerp(v01, v11, fx)
	return mathx.Lerp(s, n, fz) // [0,1)
}

// octaveNoise accumulates octaves with per-octave seed offsets so bands are
// decorrelated.
func octaveNoise(seed int64, x, z float64, octaves int, persistence, lacunarity float64) float64 {
	amp := 1.0
	freq := 1.0
	sum := 0.0
	norm := 0.0
	for i := 0; i < octaves; i++ {
		sum += valueNoise(seed+int64(i)*131, x*freq, z*freq) * amp
		norm += amp
		amp *= persistence
		freq *= lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

// ridge folds noise through an absolute sine, producing sharp crest lines.
func ridge(seed int64, x, z float64, freq float64) float64 {
	n := valueNoise(seed, x*freq, z*freq)
	return math.Abs(math.Sin(n * math.Pi * 2))
}
