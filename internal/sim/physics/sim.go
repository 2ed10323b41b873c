package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/tuning"
)

// HeightField answers ground-height queries. The chunk manager implements
// it; tests use flat or ramped stand-ins.
type HeightField interface {
	HeightAt(x, z float64) float32
}

// Simulator advances the single player body once per step. It owns the
// PlayerState exclusively; collaborators read it through getters and feed
// input through intents, forces and impulses.
type Simulator struct {
	cfg     tuning.Physics
	heights HeightField
	log     *zap.Logger

	state     PlayerState
	colliders []StaticCollider

	moveForward float32
	moveStrafe  float32
	jumpQueued  bool
	jumpLockout float32
	facing      mgl32.Vec2

	// overHole suppresses ground snapping while the sampled ground under
	// the body has dropped away faster than the body is falling.
	overHole bool

	// slopeFollow marks a step whose upward velocity came from the uphill
	// assist, so ground contact keeps the body grounded despite vy > 0.
	slopeFollow bool
}

func NewSimulator(cfg tuning.Physics, heights HeightField, log *zap.Logger) *Simulator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Simulator{
		cfg:     cfg,
		heights: heights,
		log:     log,
		facing:  mgl32.Vec2{0, -1}, // north
	}
}

// SetStartPosition places the body and resets its motion state.
func (s *Simulator) SetStartPosition(pos mgl32.Vec3) {
	s.state = PlayerState{Position: pos}
	s.state.LastGroundHeight = s.heights.HeightAt(float64(pos.X()), float64(pos.Z()))
	s.overHole = false
}

func (s *Simulator) State() PlayerState      { return s.state }
func (s *Simulator) Position() mgl32.Vec3    { return s.state.Position }
func (s *Simulator) Velocity() mgl32.Vec3    { return s.state.Velocity }
func (s *Simulator) OnGround() bool          { return s.state.OnGround }
func (s *Simulator) Colliders() []StaticCollider { return s.colliders }

// RegisterStaticCollider adds an immovable box. Degenerate boxes are
// rejected with a warning; a zero-volume collider cannot produce a
// separation normal.
func (s *Simulator) RegisterStaticCollider(min, max mgl32.Vec3, name string, role ColliderRole) {
	if max.X() <= min.X() || max.Y() <= min.Y() || max.Z() <= min.Z() {
		s.log.Warn("degenerate static collider ignored", zap.String("name", name))
		return
	}
	s.colliders = append(s.colliders, StaticCollider{Min: min, Max: max, Name: name, Role: role})
}

// Step advances the body by dt seconds. A panic anywhere inside the step is
// recovered and the previous state kept; the simulation must survive a bad
// sample.
func (s *Simulator) Step(dt float32) {
	if dt <= 0 {
		return
	}
	prev := s.state
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("physics step recovered", zap.Any("panic", r))
			s.state = prev
		}
	}()

	s.applyGravity(dt)
	s.applyMovementIntent(dt)
	s.consumeJump()

	// Candidate horizontal position for slope work.
	cand := s.state.Position.Add(s.state.Velocity.Mul(dt))
	s.sampleSlope(cand)
	s.applySlopeAssists(dt)

	s.state.Position = s.state.Position.Add(s.state.Velocity.Mul(dt))

	s.resolveGround(dt)
	s.resolveStaticColliders()

	if s.jumpLockout > 0 {
		s.jumpLockout -= dt
	}
	s.updateFacing()
}

func (s *Simulator) applyGravity(dt float32) {
	vy := s.state.Velocity.Y()
	if !(s.state.OnGround && vy <= 0) {
		vy += float32(s.cfg.GravityY) * dt
	}
	if vy < float32(s.cfg.TerminalVelocity) {
		vy = float32(s.cfg.TerminalVelocity)
	}
	if vy > float32(s.cfg.MaxJumpSpeed) {
		vy = float32(s.cfg.MaxJumpSpeed)
	}
	s.state.Velocity = mgl32.Vec3{s.state.Velocity.X(), vy, s.state.Velocity.Z()}
}

func (s *Simulator) applyMovementIntent(dt float32) {
	if s.moveForward == 0 && s.moveStrafe == 0 {
		// Ground friction when idle.
		if s.state.OnGround {
			s.state.Velocity = mgl32.Vec3{
				s.state.Velocity.X() * 0.85,
				s.state.Velocity.Y(),
				s.state.Velocity.Z() * 0.85,
			}
		}
		return
	}
	// Forward is north (negative Z), strafe is east.
	dir := mgl32.Vec3{s.moveStrafe, 0, -s.moveForward}
	if l := dir.Len(); l > 1 {
		dir = dir.Mul(1 / l)
	}
	s.ApplyForce(dir.Mul(float32(s.cfg.MoveForce) * dt))

	// Cap ground speed; the force model has no drag while a key is held.
	hv := mgl32.Vec2{s.state.Velocity.X(), s.state.Velocity.Z()}
	if maxSpeed := float32(s.cfg.MaxMoveSpeed); hv.Len() > maxSpeed {
		hv = hv.Mul(maxSpeed / hv.Len())
		s.state.Velocity = mgl32.Vec3{hv.X(), s.state.Velocity.Y(), hv.Y()}
	}
}

func (s *Simulator) consumeJump() {
	if !s.jumpQueued {
		return
	}
	s.jumpQueued = false
	if s.jumpLockout > 0 {
		return
	}
	if !s.state.OnGround && !s.state.CanJump {
		return
	}
	s.ApplyImpulse(mgl32.Vec3{0, float32(s.cfg.JumpSpeed), 0})
	s.state.OnGround = false
	s.state.CanJump = false
}

// sampleSlope probes the height field around the candidate position:
// cardinals, diagonals, and two forward-extended points along the facing
// direction.
func (s *Simulator) sampleSlope(cand mgl32.Vec3) {
	d := float32(s.cfg.SlopeSampleDist)
	cx := float64(cand.X())
	cz := float64(cand.Z())
	center := s.heights.HeightAt(cx, cz)

	offsets := []mgl32.Vec2{
		{d, 0}, {-d, 0}, {0, d}, {0, -d},
		{d, d}, {d, -d}, {-d, d}, {-d, -d},
		s.facing.Mul(1.5 * d),
		s.facing.Mul(2.5 * d),
	}

	maxDelta := float32(0)
	maxDist := d
	var highDir mgl32.Vec2
	for _, o := range offsets {
		h := s.heights.HeightAt(cx+float64(o.X()), cz+float64(o.Y()))
		if delta := h - center; delta > maxDelta {
			maxDelta = delta
			maxDist = o.Len()
			highDir = o
		}
	}

	if maxDelta > float32(s.cfg.SlopeMinDelta) {
		s.state.OnSlope = true
		s.state.SlopeAngleDeg = float32(math.Atan2(float64(maxDelta), float64(maxDist))) * 180 / math.Pi
		if l := highDir.Len(); l > 0 {
			s.state.SlopeDirection = highDir.Mul(1 / l)
		}
	} else {
		s.state.OnSlope = false
		s.state.SlopeAngleDeg = 0
		s.state.SlopeDirection = mgl32.Vec2{}
	}
}

// applySlopeAssists compensates for the coarse integration step: extra
// upward velocity when climbing a walkable slope, and extra damping when
// sliding down a steep one.
func (s *Simulator) applySlopeAssists(dt float32) {
	s.slopeFollow = false
	if !s.state.OnSlope || !s.state.OnGround {
		return
	}
	hv := mgl32.Vec2{s.state.Velocity.X(), s.state.Velocity.Z()}
	speed := hv.Len()
	if speed < 1e-4 {
		return
	}
	moveDir := hv.Mul(1 / speed)
	align := moveDir.Dot(s.state.SlopeDirection)
	angle := s.state.SlopeAngleDeg
	maxAngle := float32(s.cfg.MaxClimbAngleDeg)

	if align > 0 && angle < maxAngle {
		// Uphill: inject vertical speed proportional to how walkable the
		// slope still is. The injected speed never exceeds the tangent rise
		// rate of the surface, so the assist lifts the body along the slope
		// but cannot launch it off.
		boost := float32(s.cfg.UphillAssist) * ((maxAngle - angle) / maxAngle) * align
		vy := s.state.Velocity.Y() + boost*speed*dt
		maxRise := speed * float32(math.Tan(float64(angle)*math.Pi/180))
		if vy > maxRise {
			vy = maxRise
		}
		s.state.Velocity = mgl32.Vec3{s.state.Velocity.X(), vy, s.state.Velocity.Z()}
		s.slopeFollow = true

		// Steep but climbable: nudge the body up directly so it does not
		// clip into the rising surface this step.
		if angle > maxAngle*0.6 {
			s.state.Position = s.state.Position.Add(mgl32.Vec3{0, float32(s.cfg.SteepNudge) * align, 0})
		}
	}

	if align < 0 && angle > float32(s.cfg.SlideAngleDeg) {
		// Downhill on a steep slope: damp horizontal speed to prevent
		// runaway sliding.
		f := float32(math.Pow(s.cfg.DownhillDamping, float64(dt*60)))
		s.state.Velocity = mgl32.Vec3{
			s.state.Velocity.X() * f,
			s.state.Velocity.Y(),
			s.state.Velocity.Z() * f,
		}
	}
}

// resolveGround compares the body against the sampled ground height,
// snapping (interpolated, never instantaneous) onto the surface or letting
// the body fall when the ground has dropped away beneath it.
func (s *Simulator) resolveGround(dt float32) {
	pos := s.state.Position
	ground := s.heights.HeightAt(float64(pos.X()), float64(pos.Z()))
	target := ground + float32(s.cfg.GroundBuffer)

	// Hole detection: the ground fell out from under us faster than we are
	// falling, and we are not penetrating it. Do not glue the body to the
	// stale higher surface; let it drop in.
	drop := s.state.LastGroundHeight - ground
	if drop > float32(s.cfg.HoleDropThreshold) && pos.Y() > target {
		s.overHole = true
	}

	snap := float32(1 - math.Exp(-s.cfg.SnapRate*float64(dt)))

	switch {
	case pos.Y() < target:
		// Penetrating: ease up onto the surface, but never remain below
		// the terrain itself.
		y := pos.Y() + (target-pos.Y())*snap
		if y < ground {
			y = ground
		}
		s.state.Position = mgl32.Vec3{pos.X(), y, pos.Z()}
		if s.state.Velocity.Y() < 0 {
			s.state.Velocity = mgl32.Vec3{s.state.Velocity.X(), 0, s.state.Velocity.Z()}
		}
		s.land(ground)

	case pos.Y() <= ground+float32(s.cfg.ContactThreshold) && !s.overHole &&
		(s.state.Velocity.Y() <= 0 || s.slopeFollow):
		// Contact range: ease down onto the surface.
		y := pos.Y() + (target-pos.Y())*snap
		s.state.Position = mgl32.Vec3{pos.X(), y, pos.Z()}
		s.state.Velocity = mgl32.Vec3{s.state.Velocity.X(), 0, s.state.Velocity.Z()}
		s.land(ground)

	default:
		// Airborne.
		s.state.OnGround = false
		s.state.CanJump = false
		s.state.AirTime += dt
		s.state.LastGroundHeight = ground
	}
}

func (s *Simulator) land(ground float32) {
	s.state.OnGround = true
	s.state.CanJump = true
	s.state.AirTime = 0
	s.state.LastGroundHeight = ground
	s.overHole = false
}

func (s *Simulator) updateFacing() {
	hv := mgl32.Vec2{s.state.Velocity.X(), s.state.Velocity.Z()}
	if l := hv.Len(); l > 0.2 {
		s.facing = hv.Mul(1 / l)
	}
}
