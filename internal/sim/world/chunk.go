package world

import (
	"math"

	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/mathx"
	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/terrain"
)

type ChunkKey struct {
	CX int
	CZ int
}

// ChunkState is the lifecycle of a chunk. Transitions only move forward:
// Unloaded -> Generating -> Loaded -> Unloaded.
type ChunkState int

const (
	ChunkUnloaded ChunkState = iota
	ChunkGenerating
	ChunkLoaded
)

func (s ChunkState) String() string {
	switch s {
	case ChunkGenerating:
		return "generating"
	case ChunkLoaded:
		return "loaded"
	default:
		return "unloaded"
	}
}

// Chunk owns the height grids for one square terrain tile. The mesh handle
// is opaque to this core; the renderer maps it to geometry. A handle of 0
// means no mesh was requested (height-grid-only generation).
type Chunk struct {
	Key   ChunkKey
	State ChunkState

	// Visual is the full-resolution grid, Physics the block-averaged
	// downsample used by collision queries.
	Visual  *terrain.HeightGrid
	Physics *terrain.HeightGrid

	MeshHandle uint64
}

// keyFor maps a world position to its owning chunk key. Chunk size is a
// whole number of world units.
func keyFor(x, z, size float64) ChunkKey {
	s := int(size)
	return ChunkKey{
		CX: mathx.FloorDiv(int(math.Floor(x)), s),
		CZ: mathx.FloorDiv(int(math.Floor(z)), s),
	}
}

// bounds returns the chunk's nominal world rectangle.
func (k ChunkKey) bounds(size float64) (minX, minZ, maxX, maxZ float64) {
	minX = float64(k.CX) * size
	minZ = float64(k.CZ) * size
	return minX, minZ, minX + size, minZ + size
}
