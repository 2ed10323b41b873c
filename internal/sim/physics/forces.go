package physics

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// SetMovementIntent stores the per-frame movement axes. Forward is north
// (negative Z), strafe is east. Values are expected in [-1, 1].
func (s *Simulator) SetMovementIntent(forward, strafe float32) {
	s.moveForward = clampAxis(forward)
	s.moveStrafe = clampAxis(strafe)
}

// RequestJump queues a jump for the next step. The impulse is rejected
// there unless the body is grounded or still has its jump credit.
func (s *Simulator) RequestJump() {
	s.jumpQueued = true
}

// ApplyForce adds a continuous push: only a small fraction lands in the
// velocity per call, so holding a movement key produces acceleration, not
// teleportation.
func (s *Simulator) ApplyForce(f mgl32.Vec3) {
	s.state.Velocity = s.state.Velocity.Add(f.Mul(float32(s.cfg.ForceFraction)))
}

// ApplyImpulse adds velocity instantaneously. Used for jumps and climbs.
func (s *Simulator) ApplyImpulse(imp mgl32.Vec3) {
	s.state.Velocity = s.state.Velocity.Add(imp)
	if v := s.state.Velocity.Y(); v > float32(s.cfg.MaxJumpSpeed) {
		s.state.Velocity = mgl32.Vec3{s.state.Velocity.X(), float32(s.cfg.MaxJumpSpeed), s.state.Velocity.Z()}
	}
}

// TryClimb scans a short distance ahead of the facing direction for a
// static collider low enough to mantle onto. On a hit it injects an
// upward+forward impulse and a brief jump lockout. Returns the collider
// mantled onto, or nil.
func (s *Simulator) TryClimb() *StaticCollider {
	if s.jumpLockout > 0 {
		return nil
	}
	probe := mgl32.Vec2{
		s.state.Position.X() + s.facing.X()*float32(s.cfg.ClimbProbeDist),
		s.state.Position.Z() + s.facing.Y()*float32(s.cfg.ClimbProbeDist),
	}
	feet := s.state.Position.Y()

	for i := range s.colliders {
		c := &s.colliders[i]
		if !c.contains2D(probe.X(), probe.Y()) {
			continue
		}
		top := c.Max.Y()
		if top <= feet || top-feet > float32(s.cfg.ClimbMaxLedge) {
			continue
		}
		if c.Min.Y() > feet+float32(s.cfg.ClimbMaxLedge) {
			continue // bottom out of reach, not a ledge we can grab
		}

		s.ApplyImpulse(mgl32.Vec3{
			s.facing.X() * float32(s.cfg.ClimbFwdSpeed),
			float32(s.cfg.ClimbUpSpeed),
			s.facing.Y() * float32(s.cfg.ClimbFwdSpeed),
		})
		s.state.OnGround = false
		s.state.CanJump = false
		s.jumpLockout = float32(s.cfg.ClimbLockout)
		s.log.Debug("climb assist engaged",
			zap.String("collider", c.Name),
			zap.String("role", c.Role.String()))
		return c
	}
	return nil
}

func clampAxis(v float32) float32 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
