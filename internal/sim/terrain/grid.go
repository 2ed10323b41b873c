package terrain

import (
	"fmt"

	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/mathx"
)

// HeightGrid is an immutable row-major grid of elevation samples covering a
// world-space rectangle. Samples are sanitized at construction: NaN and
// infinities are replaced with a fallback and never propagate.
type HeightGrid struct {
	w, h    int
	minX    float64
	minZ    float64
	maxX    float64
	maxZ    float64
	samples []float32
}

// NewHeightGrid copies samples into a sanitized grid. len(samples) must be
// w*h.
func NewHeightGrid(w, h int, minX, minZ, maxX, maxZ float64, samples []float32, fallback float32) (*HeightGrid, error) {
	if w < 2 || h < 2 {
		return nil, fmt.Errorf("height grid too small: %dx%d", w, h)
	}
	if len(samples) != w*h {
		return nil, fmt.Errorf("height grid sample count %d, want %d", len(samples), w*h)
	}
	clean := make([]float32, len(samples))
	for i, v := range samples {
		clean[i] = mathx.Finite(v, fallback)
	}
	return &HeightGrid{w: w, h: h, minX: minX, minZ: minZ, maxX: maxX, maxZ: maxZ, samples: clean}, nil
}

func (g *HeightGrid) Width() int  { return g.w }
func (g *HeightGrid) Height() int { return g.h }

func (g *HeightGrid) Bounds() (minX, minZ, maxX, maxZ float64) {
	return g.minX, g.minZ, g.maxX, g.maxZ
}

// At returns the sample at column i, row j, clamped to the grid.
func (g *HeightGrid) At(i, j int) float32 {
	if i < 0 {
		i = 0
	}
	if i >= g.w {
		i = g.w - 1
	}
	if j < 0 {
		j = 0
	}
	if j >= g.h {
		j = g.h - 1
	}
	return g.samples[j*g.w+i]
}

// Bilinear samples the grid at normalized coordinates u,v in [0,1]. This is
// the single interpolation routine shared by the visual and physics paths,
// so adjacent cells can never produce a visible step.
func (g *HeightGrid) Bilinear(u, v float64) float32 {
	u = mathx.Clamp(u, 0, 1)
	v = mathx.Clamp(v, 0, 1)

	fx := u * float64(g.w-1)
	fz := v * float64(g.h-1)
	i := int(fx)
	j := int(fz)
	if i > g.w-2 {
		i = g.w - 2
	}
	if j > g.h-2 {
		j = g.h - 2
	}
	tx := float32(fx - float64(i))
	tz := float32(fz - float64(j))

	s := mathx.Lerp32(g.At(i, j), g.At(i+1, j), tx)
	n := mathx.Lerp32(g.At(i, j+1), g.At(i+1, j+1), tx)
	return mathx.Lerp32(s, n, tz)
}

// SampleWorld samples the grid at a world position. The second return is
// false when the point lies outside the covered rectangle.
func (g *HeightGrid) SampleWorld(x, z float64) (float32, bool) {
	if x < g.minX || x > g.maxX || z < g.minZ || z > g.maxZ {
		return 0, false
	}
	u := (x - g.minX) / (g.maxX - g.minX)
	v := (z - g.minZ) / (g.maxZ - g.minZ)
	return g.Bilinear(u, v), true
}

// Downsample block-averages the grid to a coarser square resolution.
// Collision queries do not need per-vertex visual fidelity.
func (g *HeightGrid) Downsample(res int) *HeightGrid {
	if res < 2 || res >= g.w || res >= g.h {
		return g
	}
	out := make([]float32, res*res)
	sx := float64(g.w) / float64(res)
	sz := float64(g.h) / float64(res)
	for j := 0; j < res; j++ {
		j0 := int(float64(j) * sz)
		j1 := int(float64(j+1) * sz)
		if j1 <= j0 {
			j1 = j0 + 1
		}
		if j1 > g.h {
			j1 = g.h
		}
		for i := 0; i < res; i++ {
			i0 := int(float64(i) * sx)
			i1 := int(float64(i+1) * sx)
			if i1 <= i0 {
				i1 = i0 + 1
			}
			if i1 > g.w {
				i1 = g.w
			}
			var sum float64
			for jj := j0; jj < j1; jj++ {
				for ii := i0; ii < i1; ii++ {
					sum += float64(g.samples[jj*g.w+ii])
				}
			}
			out[j*res+i] = float32(sum / float64((j1-j0)*(i1-i0)))
		}
	}
	ds, err := NewHeightGrid(res, res, g.minX, g.minZ, g.maxX, g.maxZ, out, 0)
	if err != nil {
		return g
	}
	return ds
}
