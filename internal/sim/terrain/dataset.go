package terrain

import "fmt"

// Dataset serves elevation from a fetched real-data grid covering one world
// rectangle. Raw samples beyond the sanity threshold are treated as sensor
// error and replaced with 0 before the grid is rescaled linearly into
// [0, targetMax] game units. Queries outside the covered rectangle delegate
// to the fallback field.
type Dataset struct {
	grid     *HeightGrid
	fallback Field

	// Discovered per region, kept for diagnostics.
	RawMin float32
	RawMax float32
}

func NewDataset(samples []float32, w, h int, minX, minZ, maxX, maxZ float64, sanity, targetMax float64, fallback Field) (*Dataset, error) {
	if fallback == nil {
		return nil, fmt.Errorf("dataset needs a fallback field")
	}
	if len(samples) != w*h {
		return nil, fmt.Errorf("dataset sample count %d, want %d", len(samples), w*h)
	}

	clean := make([]float32, len(samples))
	for i, v := range samples {
		if v > float32(sanity) || v < float32(-sanity) {
			v = 0
		}
		clean[i] = v
	}

	min, max := clean[0], clean[0]
	for _, v := range clean {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	scale := float32(0)
	if max > min {
		scale = float32(targetMax) / (max - min)
	}
	for i, v := range clean {
		clean[i] = (v - min) * scale
	}

	grid, err := NewHeightGrid(w, h, minX, minZ, maxX, maxZ, clean, 0)
	if err != nil {
		return nil, err
	}
	return &Dataset{grid: grid, fallback: fallback, RawMin: min, RawMax: max}, nil
}

func (d *Dataset) ElevationAt(x, z float64) float32 {
	if v, ok := d.grid.SampleWorld(x, z); ok {
		return v
	}
	return d.fallback.ElevationAt(x, z)
}
