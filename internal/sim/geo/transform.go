// Package geo maps between local world coordinates and planetary
// latitude/longitude around a fixed reference point.
package geo

import (
	"math"

	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/mathx"
)

// PlanetPosition is a normalized planetary coordinate. Latitude is clamped
// to [-90,90] and longitude wrapped to [0,360).
type PlanetPosition struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation,omitempty"`
}

// Normalize clamps latitude and wraps longitude in place.
func (p *PlanetPosition) Normalize() {
	p.Latitude = mathx.Clamp(p.Latitude, -90, 90)
	p.Longitude = math.Mod(p.Longitude, 360)
	if p.Longitude < 0 {
		p.Longitude += 360
	}
}

// Transform converts between world (x,z) and planetary (lat,lon) using a
// linear scale around the spawn reference. North maps to negative Z.
type Transform struct {
	OriginLat      float64
	OriginLon      float64
	UnitsPerDegree float64
}

func NewTransform(originLat, originLon, unitsPerDegree float64) *Transform {
	if unitsPerDegree <= 0 {
		unitsPerDegree = 1
	}
	origin := PlanetPosition{Latitude: originLat, Longitude: originLon}
	origin.Normalize()
	return &Transform{
		OriginLat:      origin.Latitude,
		OriginLon:      origin.Longitude,
		UnitsPerDegree: unitsPerDegree,
	}
}

func (t *Transform) WorldToPlanet(x, z float64) PlanetPosition {
	p := PlanetPosition{
		Latitude:  t.OriginLat - z/t.UnitsPerDegree,
		Longitude: t.OriginLon + x/t.UnitsPerDegree,
	}
	p.Normalize()
	return p
}

func (t *Transform) PlanetToWorld(lat, lon float64) (x, z float64) {
	// Take the short way around the 0/360 seam relative to the origin.
	dLon := math.Mod(lon-t.OriginLon, 360)
	if dLon > 180 {
		dLon -= 360
	} else if dLon < -180 {
		dLon += 360
	}
	x = dLon * t.UnitsPerDegree
	z = (t.OriginLat - lat) * t.UnitsPerDegree
	return x, z
}

// PlanetToTextureUV projects lat/lon to equirectangular texture space,
// clamped to [0,1].
func (t *Transform) PlanetToTextureUV(lat, lon float64) (u, v float64) {
	p := PlanetPosition{Latitude: lat, Longitude: lon}
	p.Normalize()
	u = mathx.Clamp(p.Longitude/360, 0, 1)
	v = mathx.Clamp((90-p.Latitude)/180, 0, 1)
	return u, v
}
