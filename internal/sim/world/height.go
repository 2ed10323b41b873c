package world

import (
	"math"

	"go.uber.org/zap"

	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/mathx"
	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/terrain"
)

func visualGrid(ch *Chunk) *terrain.HeightGrid  { return ch.Visual }
func physicsGrid(ch *Chunk) *terrain.HeightGrid { return ch.Physics }

// physicsField adapts the manager's coarse-grid query to the simulator's
// height interface.
type physicsField struct {
	m *Manager
}

func (f physicsField) HeightAt(x, z float64) float32 { return f.m.PhysicsHeightAt(x, z) }

// HeightAt returns the ground elevation under a world position from the
// full-resolution visual grid. It never fails: a query against a missing
// chunk generates that chunk's height grid on demand (no mesh), and any
// internal trouble falls back to the last known-good height.
func (m *Manager) HeightAt(x, z float64) float32 {
	return m.heightFrom(x, z, visualGrid)
}

// PhysicsHeightAt is the collision-query entry: same resolution rules as
// HeightAt, but sampled from the block-averaged physics grid.
func (m *Manager) PhysicsHeightAt(x, z float64) float32 {
	return m.heightFrom(x, z, physicsGrid)
}

func (m *Manager) heightFrom(x, z float64, grid func(*Chunk) *terrain.HeightGrid) (h float32) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("height query recovered", zap.Any("panic", r),
				zap.Float64("x", x), zap.Float64("z", z))
			h = m.lastGoodHeight
		}
	}()

	key := keyFor(x, z, m.cfg.Size)
	ch, ok := m.chunks[key]
	if !ok || ch.State != ChunkLoaded {
		ch = m.generate(key, false)
		if ch == nil {
			return m.lastGoodHeight
		}
	}

	g := grid(ch)
	if g == nil {
		g = ch.Visual
	}
	v, inside := g.SampleWorld(x, z)
	if !inside {
		v = m.field.ElevationAt(x, z)
	}
	h = m.edgeBlend(key, x, z, v, grid)
	m.lastGoodHeight = h
	return h
}

// edgeBlend cross-samples the neighboring chunk near a shared edge and
// blends toward it, so both chunks agree about the boundary surface. When
// the raw difference already looks like a cliff both sides settle on the
// lower surface rather than averaging the cliff in half.
func (m *Manager) edgeBlend(key ChunkKey, x, z float64, own float32, grid func(*Chunk) *terrain.HeightGrid) float32 {
	minX, minZ, maxX, maxZ := key.bounds(m.cfg.Size)
	band := m.cfg.Size * m.cfg.EdgeBand

	type edge struct {
		neighbor ChunkKey
		dist     float64
	}
	edges := []edge{
		{ChunkKey{key.CX - 1, key.CZ}, x - minX},
		{ChunkKey{key.CX + 1, key.CZ}, maxX - x},
		{ChunkKey{key.CX, key.CZ - 1}, z - minZ},
		{ChunkKey{key.CX, key.CZ + 1}, maxZ - z},
	}

	// Only the nearest edge participates; corner queries resolve to the
	// closer of the two anyway.
	best := -1
	bestDist := band
	for i, e := range edges {
		if e.dist <= bestDist {
			best = i
			bestDist = e.dist
		}
	}
	if best < 0 {
		return own
	}

	n, ok := m.chunks[edges[best].neighbor]
	if !ok || n.State != ChunkLoaded {
		return own
	}
	g := grid(n)
	if g == nil {
		return own
	}
	nh, inside := g.SampleWorld(x, z)
	if !inside {
		return own
	}

	// Symmetric blend: the weight tops out at one half right on the
	// boundary, so a query from either side converges to the same midpoint
	// and no step can open across the seam.
	w := (1 - bestDist/band) * 0.5
	target := nh

	// A genuine cliff must stay a cliff. Averaging would smear it to half
	// height; instead both sides agree on the lower surface.
	if math.Abs(float64(nh-own)) > m.cfg.CliffThreshold {
		if own < nh {
			target = own
		}
		if w < m.cfg.BlendBandWeight {
			w = m.cfg.BlendBandWeight
		}
	}
	return mathx.Lerp32(own, target, float32(w))
}
