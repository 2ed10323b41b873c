// Package physics advances the player body over the terrain height field
// under low Mars gravity.
package physics

import "github.com/go-gl/mathgl/mgl32"

// ColliderRole tags a static collider by what it is, so callers identify it
// by role instead of matching name strings.
type ColliderRole int

const (
	RoleGeneric ColliderRole = iota
	RoleStructure
	RoleRock
	RoleLander
)

func (r ColliderRole) String() string {
	switch r {
	case RoleStructure:
		return "structure"
	case RoleRock:
		return "rock"
	case RoleLander:
		return "lander"
	default:
		return "generic"
	}
}

// StaticCollider is an immovable axis-aligned box. Registered once by an
// external caller; read-only to the physics loop.
type StaticCollider struct {
	Min  mgl32.Vec3
	Max  mgl32.Vec3
	Name string
	Role ColliderRole
}

// contains2D reports whether the horizontal point lies within the box
// footprint.
func (c StaticCollider) contains2D(x, z float32) bool {
	return x >= c.Min.X() && x <= c.Max.X() && z >= c.Min.Z() && z <= c.Max.Z()
}

// PlayerState is the full physical state of the controlled character. It is
// mutated exclusively by Simulator.Step, once per step.
type PlayerState struct {
	Position mgl32.Vec3
	Velocity mgl32.Vec3

	OnGround bool
	CanJump  bool

	OnSlope        bool
	SlopeAngleDeg  float32
	SlopeDirection mgl32.Vec2

	LastGroundHeight float32
	AirTime          float32
}
