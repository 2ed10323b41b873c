package world

import (
	"sort"

	"go.uber.org/zap"

	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/mathx"
	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/terrain"
	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/tuning"
)

// Manager owns the loaded-chunk table and decides which chunks to load and
// unload as the player moves. Single-threaded: only the world loop touches
// it, and height queries resolve synchronously against whatever is
// currently loaded.
type Manager struct {
	cfg   tuning.Chunks
	field terrain.Field
	log   *zap.Logger

	chunks  map[ChunkKey]*Chunk
	lastKey *ChunkKey

	// Load-burst progress, exposed for the loading indicator.
	burstLoaded int
	burstTotal  int

	// onUnload lets the physics/render layers drop per-chunk state.
	onUnload func(ChunkKey, uint64)

	nextMeshHandle uint64
	lastGoodHeight float32
}

func NewManager(cfg tuning.Chunks, field terrain.Field, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		cfg:    cfg,
		field:  field,
		log:    log,
		chunks: make(map[ChunkKey]*Chunk),
	}
}

// SetUnloadHook registers the callback invoked when a chunk is released.
func (m *Manager) SetUnloadHook(fn func(key ChunkKey, meshHandle uint64)) {
	m.onUnload = fn
}

// Update drives chunk loading from the player's world position. Runs every
// frame; when the player has not crossed a chunk boundary it is a cheap
// no-op.
func (m *Manager) Update(x, z float64) {
	key := keyFor(x, z, m.cfg.Size)
	if m.lastKey != nil && *m.lastKey == key {
		return
	}
	k := key
	m.lastKey = &k

	want := make(map[ChunkKey]bool)
	r := m.cfg.LoadRadius
	for dz := -r; dz <= r; dz++ {
		for dx := -r; dx <= r; dx++ {
			want[ChunkKey{CX: key.CX + dx, CZ: key.CZ + dz}] = true
		}
	}

	var toLoad []ChunkKey
	for k := range want {
		ch, ok := m.chunks[k]
		switch {
		case !ok || ch.State != ChunkLoaded:
			toLoad = append(toLoad, k)
		case ch.MeshHandle == 0:
			// Generated height-grid-only by an earlier on-demand query;
			// give it a mesh now that it is in the render neighborhood.
			m.nextMeshHandle++
			ch.MeshHandle = m.nextMeshHandle
		}
	}
	// Fixed order keeps blending (and therefore the terrain) deterministic.
	sort.Slice(toLoad, func(i, j int) bool {
		if toLoad[i].CZ != toLoad[j].CZ {
			return toLoad[i].CZ < toLoad[j].CZ
		}
		return toLoad[i].CX < toLoad[j].CX
	})

	var toUnload []ChunkKey
	for k, ch := range m.chunks {
		if !want[k] && ch.State == ChunkLoaded {
			toUnload = append(toUnload, k)
		}
	}

	m.burstTotal = len(toLoad)
	m.burstLoaded = 0
	for _, k := range toLoad {
		m.generate(k, true)
		m.burstLoaded++
	}
	for _, k := range toUnload {
		m.unload(k)
	}

	if len(toLoad) > 0 || len(toUnload) > 0 {
		m.log.Debug("chunk table updated",
			zap.Int("loaded", len(toLoad)),
			zap.Int("unloaded", len(toUnload)),
			zap.Int("resident", len(m.chunks)))
	}
}

// ChunksLoaded and ChunksTotal report progress through the most recent load
// burst.
func (m *Manager) ChunksLoaded() int { return m.burstLoaded }
func (m *Manager) ChunksTotal() int  { return m.burstTotal }

// Resident returns the number of currently loaded chunks.
func (m *Manager) Resident() int { return len(m.chunks) }

// Loaded reports whether a key is fully loaded.
func (m *Manager) Loaded(key ChunkKey) bool {
	ch, ok := m.chunks[key]
	return ok && ch.State == ChunkLoaded
}

// Chunk returns the chunk for a key, or nil.
func (m *Manager) Chunk(key ChunkKey) *Chunk { return m.chunks[key] }

// generate builds a chunk's height grids, blending its edge band against
// already-loaded neighbors. withMesh assigns a mesh handle for the renderer;
// on-demand generation for a stray height query passes false.
func (m *Manager) generate(key ChunkKey, withMesh bool) *Chunk {
	ch := &Chunk{Key: key, State: ChunkGenerating}
	m.chunks[key] = ch

	res := m.cfg.VisualRes
	minX, minZ, maxX, maxZ := key.bounds(m.cfg.Size)

	// Sample past the nominal bounds so adjacent chunks physically overlap
	// and a seam gap cannot open between them.
	margin := m.cfg.Size * m.cfg.OverlapMargin
	gMinX, gMinZ := minX-margin, minZ-margin
	gMaxX, gMaxZ := maxX+margin, maxZ+margin

	samples := make([]float32, res*res)
	for j := 0; j < res; j++ {
		wz := gMinZ + (gMaxZ-gMinZ)*float64(j)/float64(res-1)
		for i := 0; i < res; i++ {
			wx := gMinX + (gMaxX-gMinX)*float64(i)/float64(res-1)
			h := float64(m.field.ElevationAt(wx, wz))
			h = m.blendAgainstNeighbors(key, wx, wz, h)
			samples[j*res+i] = float32(h)
		}
	}

	grid, err := terrain.NewHeightGrid(res, res, gMinX, gMinZ, gMaxX, gMaxZ, samples, 0)
	if err != nil {
		m.log.Error("chunk grid build failed", zap.Int("cx", key.CX), zap.Int("cz", key.CZ), zap.Error(err))
		delete(m.chunks, key)
		return nil
	}

	ch.Visual = grid
	ch.Physics = grid.Downsample(m.cfg.PhysicsRes)
	if withMesh {
		m.nextMeshHandle++
		ch.MeshHandle = m.nextMeshHandle
	}
	ch.State = ChunkLoaded
	return ch
}

// blendAgainstNeighbors eases a raw sample toward what an already-loaded
// neighboring chunk reports for the same world point. The weight grows
// toward the shared edge, and the correction is clamped so blending can
// never introduce a cliff of its own.
func (m *Manager) blendAgainstNeighbors(key ChunkKey, wx, wz, raw float64) float64 {
	minX, minZ, maxX, maxZ := key.bounds(m.cfg.Size)
	band := m.cfg.Size * m.cfg.EdgeBand

	type edge struct {
		neighbor ChunkKey
		dist     float64
	}
	edges := []edge{
		{ChunkKey{key.CX - 1, key.CZ}, wx - minX},
		{ChunkKey{key.CX + 1, key.CZ}, maxX - wx},
		{ChunkKey{key.CX, key.CZ - 1}, wz - minZ},
		{ChunkKey{key.CX, key.CZ + 1}, maxZ - wz},
	}

	h := raw
	for _, e := range edges {
		if e.dist > band {
			continue
		}
		n, ok := m.chunks[e.neighbor]
		if !ok || n.State != ChunkLoaded || n.Visual == nil {
			continue
		}
		nh, inside := n.Visual.SampleWorld(wx, wz)
		if !inside {
			continue
		}
		// Eased weight, heaviest right at the shared edge.
		w := mathx.SmoothStep(1-e.dist/band) * m.cfg.EdgeBlendMax
		corr := mathx.Clamp(float64(nh)-h, -m.cfg.MaxEdgeCorrect, m.cfg.MaxEdgeCorrect)
		h += corr * w
	}
	return h
}

func (m *Manager) unload(key ChunkKey) {
	ch, ok := m.chunks[key]
	if !ok {
		return
	}
	handle := ch.MeshHandle
	ch.Visual = nil
	ch.Physics = nil
	ch.State = ChunkUnloaded
	delete(m.chunks, key)
	if m.onUnload != nil {
		m.onUnload(key, handle)
	}
}
