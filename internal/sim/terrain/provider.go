package terrain

import (
	"sync"

	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/geo"
)

const (
	// cacheQuant quantizes planet coordinates to 1e-4 degrees for the point
	// cache; at 1000 world units per degree that is a tenth of a unit.
	cacheQuant   = 1e4
	cacheMaxSize = 1 << 16
)

type cacheKey struct {
	lat int32
	lon int32
}

// Provider fronts a Field with a lazily populated point cache keyed by
// quantized planetary coordinates, and guarantees a total query: any panic
// inside the field becomes the fallback height. Safe for concurrent use;
// the HTTP API queries it alongside the world loop.
type Provider struct {
	mu       sync.Mutex
	field    Field
	tr       *geo.Transform
	fallback float32
	cache    map[cacheKey]float32
}

func NewProvider(field Field, tr *geo.Transform, fallback float32) *Provider {
	return &Provider{
		field:    field,
		tr:       tr,
		fallback: fallback,
		cache:    make(map[cacheKey]float32),
	}
}

// ElevationAt answers for a world position.
func (p *Provider) ElevationAt(x, z float64) float32 {
	return p.lookup(p.tr.WorldToPlanet(x, z), x, z)
}

// ElevationAtPlanet answers for planetary coordinates.
func (p *Provider) ElevationAtPlanet(lat, lon float64) float32 {
	pos := geo.PlanetPosition{Latitude: lat, Longitude: lon}
	pos.Normalize()
	x, z := p.tr.PlanetToWorld(pos.Latitude, pos.Longitude)
	return p.lookup(pos, x, z)
}

func (p *Provider) lookup(pos geo.PlanetPosition, x, z float64) (v float32) {
	defer func() {
		if r := recover(); r != nil {
			v = p.fallback
		}
	}()

	key := cacheKey{
		lat: int32(pos.Latitude * cacheQuant),
		lon: int32(pos.Longitude * cacheQuant),
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if cached, ok := p.cache[key]; ok {
		return cached
	}
	v = p.field.ElevationAt(x, z)
	if len(p.cache) >= cacheMaxSize {
		p.cache = make(map[cacheKey]float32)
	}
	p.cache[key] = v
	return v
}

// Swap replaces the backing field (e.g. when a dataset region finishes
// loading) and drops the point cache.
func (p *Provider) Swap(field Field) {
	p.mu.Lock()
	p.field = field
	p.cache = make(map[cacheKey]float32)
	p.mu.Unlock()
}
