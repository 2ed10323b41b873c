package terrain

import (
	"math"

	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/mathx"
)

// Crater stamping. Craters are placed on a coarse deterministic cell grid
// and applied in a fixed order (cell row-major, then index, then the
// parent's secondaries), so later craters overwrite earlier ones the same
// way on every run.

const (
	craterCellSize   = 160.0
	craterSeedOffset = 7001 // keeps crater placement decorrelated from base noise
	rimWidthFrac     = 0.35
	floorWidthFrac   = 0.45
	secondaryMinR    = 24.0
)

type crater struct {
	cx, cz    float64
	radius    float64
	depth     float64
	rimHeight float64
}

// deltaAt returns this crater's height modification at a point and whether
// the point is inside its influence.
func (c crater) deltaAt(seed int64, x, z float64) (float64, bool) {
	dx := x - c.cx
	dz := z - c.cz
	d := math.Sqrt(dx*dx + dz*dz)
	rimW := c.radius * rimWidthFrac
	if d > c.radius+rimW {
		return 0, false
	}

	floorR := c.radius * (1 - floorWidthFrac)
	switch {
	case d <= floorR:
		// Flat depressed floor with small deterministic jitter.
		j := mathx.Unit(mathx.Hash2(seed+craterSeedOffset+3, int(math.Floor(x*4)), int(math.Floor(z*4))))
		return -c.depth + (j-0.5)*0.08*c.depth, true
	case d <= c.radius:
		// Quadratic ramp from -depth at the floor edge to 0 at the radius.
		t := (d - floorR) / (c.radius - floorR)
		return -c.depth * (1 - t*t), true
	default:
		// Rim band: half-cosine bump peaking at +rimHeight mid band.
		t := (d - c.radius) / rimW
		return c.rimHeight * math.Sin(math.Pi*t), true
	}
}

// cratersInCell derives zero to two craters for a grid cell.
func cratersInCell(seed int64, gx, gz int) []crater {
	h := mathx.Hash2(seed+craterSeedOffset, gx, gz)
	n := int(h % 3) // 0..2 craters per cell
	if n == 0 {
		return nil
	}
	out := make([]crater, 0, n)
	base := float64(gx)*craterCellSize - craterCellSize/2
	baseZ := float64(gz)*craterCellSize - craterCellSize/2
	for k := 0; k < n; k++ {
		hk := mathx.Hash2(seed+craterSeedOffset+int64(k+1)*17, gx, gz)
		ox := mathx.Unit(hk) * craterCellSize
		oz := mathx.Unit(mix(hk, 1)) * craterCellSize
		r := 6 + mathx.Unit(mix(hk, 2))*34 // 6..40
		out = append(out, crater{
			cx:        base + ox,
			cz:        baseZ + oz,
			radius:    r,
			depth:     r * (0.12 + mathx.Unit(mix(hk, 3))*0.1),
			rimHeight: r * (0.04 + mathx.Unit(mix(hk, 4))*0.04),
		})
	}
	return out
}

// secondaries returns the smaller craters a large impact stamps near its
// rim, in a fixed order.
func (c crater) secondaries(seed int64) []crater {
	if c.radius < secondaryMinR {
		return nil
	}
	h := mathx.Hash2(seed+craterSeedOffset+5, int(c.cx), int(c.cz))
	n := 2 + int(h%3) // 2..4
	out := make([]crater, 0, n)
	for k := 0; k < n; k++ {
		hk := mix(h, uint64(k+1))
		ang := mathx.Unit(hk) * 2 * math.Pi
		dist := c.radius * (1.1 + mathx.Unit(mix(hk, 9))*0.3)
		r := c.radius * (0.18 + mathx.Unit(mix(hk, 10))*0.12)
		out = append(out, crater{
			cx:        c.cx + math.Cos(ang)*dist,
			cz:        c.cz + math.Sin(ang)*dist,
			radius:    r,
			depth:     r * 0.15,
			rimHeight: r * 0.05,
		})
	}
	return out
}

// craterDeltaAt applies every crater whose influence covers (x,z), in
// deterministic stamp order; the last one wins.
func craterDeltaAt(seed int64, x, z float64) float64 {
	gx := int(math.Floor(x / craterCellSize))
	gz := int(math.Floor(z / craterCellSize))

	delta := 0.0
	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			for _, c := range cratersInCell(seed, gx+dx, gz+dz) {
				if d, ok := c.deltaAt(seed, x, z); ok {
					delta = d
				}
				for _, s := range c.secondaries(seed) {
					if d, ok := s.deltaAt(seed, x, z); ok {
						delta = d
					}
				}
			}
		}
	}
	return delta
}

func mix(h uint64, salt uint64) uint64 {
	v := h ^ (salt * 0x9e3779b97f4a7c15)
	v ^= v >> 33
	v *= 0xff51afd7ed558ccd
	v ^= v >> 33
	return v
}
