package world

import (
	"math"
	"testing"

	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/terrain"
	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/tuning"
)

func testChunksCfg() tuning.Chunks {
	cfg := tuning.Default().Chunks
	cfg.LoadRadius = 1
	return cfg
}

func testField() terrain.Field {
	return terrain.NewProcedural(1337, 30)
}

func TestUpdateLoadsNeighborhood(t *testing.T) {
	m := NewManager(testChunksCfg(), testField(), nil)
	m.Update(0, 0)

	want := 3 * 3 // radius 1
	if got := m.Resident(); got != want {
		t.Fatalf("resident chunks = %d, want %d", got, want)
	}
	if !m.Loaded(ChunkKey{0, 0}) || !m.Loaded(ChunkKey{-1, -1}) || !m.Loaded(ChunkKey{1, 1}) {
		t.Fatalf("neighborhood not fully loaded")
	}
	if m.ChunksLoaded() != m.ChunksTotal() {
		t.Fatalf("burst incomplete: %d/%d", m.ChunksLoaded(), m.ChunksTotal())
	}
}

func TestUpdateSameChunkIsNoop(t *testing.T) {
	m := NewManager(testChunksCfg(), testField(), nil)
	m.Update(0, 0)
	before := m.ChunksTotal()

	// Move within chunk (0,0): nothing should reload.
	m.Update(10, 10)
	if m.ChunksTotal() != before {
		t.Fatalf("intra-chunk move triggered a load burst")
	}
}

func TestCrossingBoundaryLoadsAndUnloads(t *testing.T) {
	cfg := testChunksCfg()
	m := NewManager(cfg, testField(), nil)
	m.Update(0, 0)

	var unloaded []ChunkKey
	m.SetUnloadHook(func(key ChunkKey, mesh uint64) {
		unloaded = append(unloaded, key)
		if mesh == 0 {
			t.Errorf("unloaded chunk %v had no mesh handle", key)
		}
	})

	// Step east one chunk: the column at CX=-1 leaves, CX=2 arrives.
	m.Update(cfg.Size+1, 0)

	if m.Resident() != 9 {
		t.Fatalf("resident = %d after move, want 9", m.Resident())
	}
	if m.Loaded(ChunkKey{-1, 0}) {
		t.Fatalf("stale chunk still loaded after crossing east")
	}
	if !m.Loaded(ChunkKey{2, 0}) {
		t.Fatalf("new east column not loaded")
	}
	if len(unloaded) != 3 {
		t.Fatalf("unload hook fired %d times, want 3", len(unloaded))
	}
}

func TestHeightAtGeneratesOnDemand(t *testing.T) {
	m := NewManager(testChunksCfg(), testField(), nil)

	// No Update call yet: the query must still answer from a fresh grid.
	h := m.HeightAt(423.5, -1201.25)
	if math.IsNaN(float64(h)) {
		t.Fatalf("on-demand height is NaN")
	}
	far := ChunkKey{CX: 8, CZ: -25}
	if m.Chunk(far) == nil {
		t.Fatalf("queried chunk was not generated")
	}
}

func TestHeightMatchesFieldAwayFromEdges(t *testing.T) {
	cfg := testChunksCfg()
	f := testField()
	m := NewManager(cfg, f, nil)
	m.Update(0, 0)

	// Mid-chunk, far from any blending band.
	x, z := 25.0, 25.0
	got := float64(m.HeightAt(x, z))
	want := float64(f.ElevationAt(x, z))
	if math.Abs(got-want) > 0.5 {
		t.Fatalf("mid-chunk height %f deviates from field %f", got, want)
	}
}

func TestBoundaryContinuity(t *testing.T) {
	cfg := testChunksCfg()
	m := NewManager(cfg, testField(), nil)
	m.Update(0, 0)

	// Walk along the shared edge between chunks (0,*) and (1,*) and compare
	// heights a hair to either side. Blending must keep the step tiny.
	edgeX := cfg.Size
	const eps = 1e-3
	for i := 0; i < 40; i++ {
		z := -40.0 + float64(i)*2.0
		left := float64(m.HeightAt(edgeX-eps, z))
		right := float64(m.HeightAt(edgeX+eps, z))
		if d := math.Abs(left - right); d > 0.05 {
			t.Fatalf("seam step %.4f at z=%.1f exceeds 0.05", d, z)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := testChunksCfg()
	a := NewManager(cfg, testField(), nil)
	b := NewManager(cfg, testField(), nil)
	a.Update(0, 0)
	b.Update(0, 0)

	for _, p := range [][2]float64{{5, 5}, {49, 3}, {-20, 61}, {0.5, -0.5}} {
		ha := a.HeightAt(p[0], p[1])
		hb := b.HeightAt(p[0], p[1])
		if ha != hb {
			t.Fatalf("height at (%v,%v) differs across runs: %f vs %f", p[0], p[1], ha, hb)
		}
	}
}

func TestPhysicsGridTracksVisual(t *testing.T) {
	m := NewManager(testChunksCfg(), testField(), nil)
	m.Update(0, 0)

	ch := m.Chunk(ChunkKey{0, 0})
	if ch == nil || ch.Visual == nil || ch.Physics == nil {
		t.Fatalf("chunk grids missing")
	}

	// The coarse grid is a block average; mid-chunk the two layers should
	// agree to within the local terrain roughness.
	for _, p := range [][2]float64{{25, 25}, {10, 40}, {40, 10}} {
		v, _ := ch.Visual.SampleWorld(p[0], p[1])
		c, _ := ch.Physics.SampleWorld(p[0], p[1])
		if math.Abs(float64(v-c)) > 3 {
			t.Fatalf("visual %f vs physics %f at %v diverge too far", v, c, p)
		}
	}
}

// waveField oscillates fast enough that the block-averaged physics grid
// flattens what the visual grid still resolves.
type waveField struct{}

func (waveField) ElevationAt(x, z float64) float32 {
	return 5 + 4*float32(math.Sin(x))
}

func TestPhysicsHeightFromCoarseGrid(t *testing.T) {
	m := NewManager(testChunksCfg(), waveField{}, nil)
	m.Update(25, 25)

	x := 25 + math.Pi/2
	vis := m.HeightAt(x, 25)
	phys := m.PhysicsHeightAt(x, 25)
	if math.Abs(float64(vis-phys)) < 1 {
		t.Fatalf("physics height %.2f tracks visual %.2f; want the block-averaged surface", phys, vis)
	}
	if phys < 3 || phys > 7 {
		t.Fatalf("physics height %.2f, want near the 5.0 wave average", phys)
	}
}

func TestKeyForBoundaries(t *testing.T) {
	size := testChunksCfg().Size
	cases := []struct {
		x, z   float64
		cx, cz int
	}{
		{0, 0, 0, 0},
		{49.9, 49.9, 0, 0},
		{50, 50, 1, 1},
		{-0.1, -0.1, -1, -1},
		{-50, -50, -1, -1},
		{-50.5, -0.5, -2, -1},
	}
	for _, c := range cases {
		if got := keyFor(c.x, c.z, size); got.CX != c.cx || got.CZ != c.cz {
			t.Errorf("keyFor(%.1f,%.1f) = %v, want {%d %d}", c.x, c.z, got, c.cx, c.cz)
		}
	}
}

func TestOnDemandChunkGetsMeshOnEntry(t *testing.T) {
	m := NewManager(testChunksCfg(), testField(), nil)
	m.Update(0, 0)

	// A stray height query generates a mesh-less chunk outside the
	// neighborhood.
	far := 5 * m.cfg.Size
	m.HeightAt(far+1, far+1)
	key := keyFor(far+1, far+1, m.cfg.Size)
	if ch := m.Chunk(key); ch == nil || ch.MeshHandle != 0 {
		t.Fatalf("expected mesh-less on-demand chunk, got %+v", ch)
	}

	// Walking into range must upgrade it with a mesh handle.
	m.Update(far+1, far+1)
	ch := m.Chunk(key)
	if ch == nil || ch.State != ChunkLoaded {
		t.Fatalf("chunk not resident after entering its neighborhood")
	}
	if ch.MeshHandle == 0 {
		t.Fatalf("resident chunk still has no mesh handle")
	}
}
