package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// resolveStaticColliders pushes the body out of any AABB it overlaps and
// damps the velocity component pointing into the surface. Colliders are
// checked in registration order; one pass is enough for the sparse
// obstacle fields we run with.
func (s *Simulator) resolveStaticColliders() {
	radius := float32(s.cfg.CollisionRadius)
	for i := range s.colliders {
		c := &s.colliders[i]

		closest := mgl32.Vec3{
			mgl32.Clamp(s.state.Position.X(), c.Min.X(), c.Max.X()),
			mgl32.Clamp(s.state.Position.Y(), c.Min.Y(), c.Max.Y()),
			mgl32.Clamp(s.state.Position.Z(), c.Min.Z(), c.Max.Z()),
		}
		delta := s.state.Position.Sub(closest)
		dist := delta.Len()
		if dist >= radius {
			continue
		}

		var normal mgl32.Vec3
		if dist > 1e-6 {
			normal = delta.Mul(1 / dist)
		} else {
			// Center inside the box: eject along the axis with the
			// smallest penetration.
			normal = insideNormal(s.state.Position, c)
			dist = 0
		}

		s.state.Position = s.state.Position.Add(normal.Mul(radius - dist))

		vn := s.state.Velocity.Dot(normal)
		if vn < 0 {
			s.state.Velocity = s.state.Velocity.Sub(normal.Mul(vn * (1 + float32(s.cfg.Restitution))))
		}

		// Landing on top of a collider counts as ground.
		if normal.Y() > 0.7 {
			s.land(c.Max.Y())
		}
	}
}

func insideNormal(p mgl32.Vec3, c *StaticCollider) mgl32.Vec3 {
	type face struct {
		depth float32
		n     mgl32.Vec3
	}
	faces := [6]face{
		{p.X() - c.Min.X(), mgl32.Vec3{-1, 0, 0}},
		{c.Max.X() - p.X(), mgl32.Vec3{1, 0, 0}},
		{p.Y() - c.Min.Y(), mgl32.Vec3{0, -1, 0}},
		{c.Max.Y() - p.Y(), mgl32.Vec3{0, 1, 0}},
		{p.Z() - c.Min.Z(), mgl32.Vec3{0, 0, -1}},
		{c.Max.Z() - p.Z(), mgl32.Vec3{0, 0, 1}},
	}
	best := face{depth: float32(math.Inf(1))}
	for _, f := range faces {
		if f.depth < best.depth {
			best = f
		}
	}
	return best.n
}
