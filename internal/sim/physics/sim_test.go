package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/tuning"
)

type fieldFunc func(x, z float64) float32

func (f fieldFunc) HeightAt(x, z float64) float32 { return f(x, z) }

func flatField(h float32) fieldFunc {
	return func(x, z float64) float32 { return h }
}

// rampField rises toward negative Z (north) with the given grade.
func rampField(grade float32) fieldFunc {
	return func(x, z float64) float32 { return float32(-z) * grade }
}

func newTestSim(f HeightField) *Simulator {
	return NewSimulator(tuning.Default().Physics, f, nil)
}

func stepN(s *Simulator, n int, dt float32) {
	for i := 0; i < n; i++ {
		s.Step(dt)
	}
}

func TestSettleOnFlatGround(t *testing.T) {
	s := newTestSim(flatField(5))
	s.SetStartPosition(mgl32.Vec3{0, 12, 0})

	stepN(s, 600, 1.0/60)

	if !s.OnGround() {
		t.Fatalf("expected body on ground, state=%+v", s.State())
	}
	want := float32(5 + tuning.Default().Physics.GroundBuffer)
	if got := s.Position().Y(); math.Abs(float64(got-want)) > 0.02 {
		t.Fatalf("rest height = %.3f, want ~%.3f", got, want)
	}
	if vy := s.Velocity().Y(); math.Abs(float64(vy)) > 0.01 {
		t.Fatalf("vertical velocity at rest = %.3f, want ~0", vy)
	}
}

func TestGravityIsMars(t *testing.T) {
	s := newTestSim(flatField(-100))
	s.SetStartPosition(mgl32.Vec3{0, 50, 0})

	// One second of free fall far above the ground.
	stepN(s, 60, 1.0/60)

	vy := float64(s.Velocity().Y())
	if vy > -3.5 || vy < -4.1 {
		t.Fatalf("vy after 1s free fall = %.3f, want ~-3.8", vy)
	}
}

func TestTerminalVelocityClamp(t *testing.T) {
	cfg := tuning.Default().Physics
	s := newTestSim(flatField(-10000))
	s.SetStartPosition(mgl32.Vec3{0, 5000, 0})

	stepN(s, 600, 1.0/60)

	if vy := s.Velocity().Y(); vy < float32(cfg.TerminalVelocity)-0.001 {
		t.Fatalf("vy = %.3f fell past terminal velocity %.3f", vy, cfg.TerminalVelocity)
	}
}

func TestJumpThenNoDoubleJump(t *testing.T) {
	s := newTestSim(flatField(0))
	s.SetStartPosition(mgl32.Vec3{0, 0.1, 0})
	stepN(s, 30, 1.0/60)
	if !s.OnGround() {
		t.Fatalf("body should be grounded before jumping")
	}

	s.RequestJump()
	s.Step(1.0 / 60)
	if s.OnGround() {
		t.Fatalf("body still grounded after jump")
	}
	if vy := s.Velocity().Y(); vy < 3 {
		t.Fatalf("vy after jump = %.3f, want near jump speed", vy)
	}

	// Mid-air jump request must be ignored.
	stepN(s, 5, 1.0/60)
	before := s.Velocity().Y()
	s.RequestJump()
	s.Step(1.0 / 60)
	after := s.Velocity().Y()
	if after > before {
		t.Fatalf("double jump accepted: vy %.3f -> %.3f", before, after)
	}
}

func TestHoleFallNotSnapped(t *testing.T) {
	depth := float32(-8)
	ground := flatField(3)
	hole := fieldFunc(func(x, z float64) float32 {
		if x > 2 {
			return depth
		}
		return 3
	})

	s := newTestSim(ground)
	s.SetStartPosition(mgl32.Vec3{0, 6, 0})
	stepN(s, 120, 1.0/60)
	if !s.OnGround() {
		t.Fatalf("setup: body never settled")
	}

	// Walk east over the pit edge.
	s.heights = hole
	s.state.Velocity = mgl32.Vec3{4, 0, 0}
	for i := 0; i < 120 && s.Position().X() < 3; i++ {
		s.state.Velocity = mgl32.Vec3{4, s.state.Velocity.Y(), 0}
		s.Step(1.0 / 60)
	}

	// Over the drop: the body must fall, not snap to the pit floor.
	s.Step(1.0 / 60)
	if s.OnGround() {
		t.Fatalf("body glued to ground over an %.0f unit drop", 3-depth)
	}
	if vy := s.Velocity().Y(); vy >= 0 {
		t.Fatalf("vy over hole = %.3f, want falling", vy)
	}
	if y := s.Position().Y(); y < 2 {
		t.Fatalf("body teleported downward: y=%.3f", y)
	}
}

func TestUphillMovementGainsHeight(t *testing.T) {
	// ~17 degree grade, well within the climbable range.
	s := newTestSim(rampField(0.3))
	s.SetStartPosition(mgl32.Vec3{0, 1, 0})
	stepN(s, 120, 1.0/60)
	startY := s.Position().Y()

	s.SetMovementIntent(1, 0) // north, uphill
	stepN(s, 300, 1.0/60)

	if s.Position().Z() >= -0.5 {
		t.Fatalf("body did not move uphill: z=%.3f", s.Position().Z())
	}
	if s.Position().Y() <= startY {
		t.Fatalf("body did not gain height climbing: y %.3f -> %.3f", startY, s.Position().Y())
	}
	if !s.OnGround() {
		t.Fatalf("body left the ground while walking uphill")
	}
}

func TestUphillWalkStaysGrounded(t *testing.T) {
	// The uphill assist must follow the surface, not outrun it: on a
	// climbable grade the body stays grounded every step and its assist
	// velocity never exceeds the tangent rise rate.
	s := newTestSim(rampField(0.3))
	s.SetStartPosition(mgl32.Vec3{0, 1, 0})
	stepN(s, 120, 1.0/60)

	s.SetMovementIntent(1, 0)
	airborne := 0
	for i := 0; i < 300; i++ {
		s.Step(1.0 / 60)
		if !s.OnGround() {
			airborne++
		}
		if vy := s.Velocity().Y(); vy > 2.0 {
			t.Fatalf("step %d: assist velocity %.3f exceeds the surface rise rate", i, vy)
		}
	}
	if airborne != 0 {
		t.Fatalf("body went airborne %d/300 steps walking a climbable slope", airborne)
	}
	if !s.State().CanJump {
		t.Fatalf("jump charge lost while walking uphill")
	}
}

func TestSlopeDetection(t *testing.T) {
	s := newTestSim(rampField(0.5))
	s.SetStartPosition(mgl32.Vec3{0, 0.2, 0})
	stepN(s, 60, 1.0/60)

	st := s.State()
	if !st.OnSlope {
		t.Fatalf("slope not detected on 0.5 grade ramp")
	}
	// atan(0.5) is ~26.6 degrees.
	if st.SlopeAngleDeg < 20 || st.SlopeAngleDeg > 32 {
		t.Fatalf("slope angle = %.1f, want ~26.6", st.SlopeAngleDeg)
	}
	// Uphill is north (negative Z).
	if st.SlopeDirection.Y() >= 0 {
		t.Fatalf("slope direction %v does not point uphill", st.SlopeDirection)
	}
}

func TestStaticColliderBlocks(t *testing.T) {
	s := newTestSim(flatField(0))
	s.SetStartPosition(mgl32.Vec3{0, 0.1, 0})
	s.RegisterStaticCollider(
		mgl32.Vec3{2, 0, -2}, mgl32.Vec3{4, 3, 2}, "hab-module", RoleStructure)

	stepN(s, 30, 1.0/60)
	for i := 0; i < 240; i++ {
		s.state.Velocity = mgl32.Vec3{3, s.state.Velocity.Y(), 0}
		s.Step(1.0 / 60)
	}

	radius := float32(tuning.Default().Physics.CollisionRadius)
	if x := s.Position().X(); x > 2-radius+0.01 {
		t.Fatalf("body penetrated collider: x=%.3f, wall at 2, radius %.2f", x, radius)
	}
}

func TestDegenerateColliderRejected(t *testing.T) {
	s := newTestSim(flatField(0))
	s.RegisterStaticCollider(mgl32.Vec3{1, 0, 1}, mgl32.Vec3{1, 5, 3}, "flat", RoleGeneric)
	if n := len(s.Colliders()); n != 0 {
		t.Fatalf("degenerate collider registered, count=%d", n)
	}
}

func TestClimbLowLedge(t *testing.T) {
	s := newTestSim(flatField(0))
	s.SetStartPosition(mgl32.Vec3{0, 0.1, 0})
	stepN(s, 30, 1.0/60)

	// Knee-high rock directly north of the body (default facing).
	s.RegisterStaticCollider(
		mgl32.Vec3{-1, 0, -3}, mgl32.Vec3{1, 1.0, -1}, "rock", RoleRock)

	c := s.TryClimb()
	if c == nil {
		t.Fatalf("climb rejected for a ledge within reach")
	}
	if c.Name != "rock" {
		t.Fatalf("climbed %q, want rock", c.Name)
	}
	if vy := s.Velocity().Y(); vy < 2 {
		t.Fatalf("vy after climb = %.3f, want upward impulse", vy)
	}
	// Lockout: an immediate second climb must fail.
	if s.TryClimb() != nil {
		t.Fatalf("climb accepted during lockout")
	}
}

func TestClimbTooHighRejected(t *testing.T) {
	s := newTestSim(flatField(0))
	s.SetStartPosition(mgl32.Vec3{0, 0.1, 0})
	stepN(s, 30, 1.0/60)

	s.RegisterStaticCollider(
		mgl32.Vec3{-1, 0, -3}, mgl32.Vec3{1, 4, -1}, "cliff-face", RoleRock)

	if s.TryClimb() != nil {
		t.Fatalf("climb accepted onto a ledge above max reach")
	}
}

func TestBodyNeverBelowGround(t *testing.T) {
	bumpy := fieldFunc(func(x, z float64) float32 {
		return 2 + float32(math.Sin(x*0.7))*1.5 + float32(math.Cos(z*0.5))
	})
	s := newTestSim(bumpy)
	s.SetStartPosition(mgl32.Vec3{0, 10, 0})

	s.SetMovementIntent(1, 0.5)
	for i := 0; i < 1200; i++ {
		s.Step(1.0 / 60)
		pos := s.Position()
		ground := bumpy(float64(pos.X()), float64(pos.Z()))
		if pos.Y() < ground-0.05 {
			t.Fatalf("step %d: body at %.3f below ground %.3f", i, pos.Y(), ground)
		}
	}
}

func TestStepRecoversFromBadSample(t *testing.T) {
	calls := 0
	evil := fieldFunc(func(x, z float64) float32 {
		calls++
		if calls > 5 {
			panic("sample exploded")
		}
		return 0
	})
	s := newTestSim(evil)
	s.SetStartPosition(mgl32.Vec3{0, 2, 0})
	before := s.State()

	s.Step(1.0 / 60) // panics internally, must recover
	s.Step(1.0 / 60)

	after := s.State()
	if after.Position != before.Position && math.IsNaN(float64(after.Position.Y())) {
		t.Fatalf("state corrupted after recovered panic: %+v", after)
	}
}

func TestZeroDtIsNoop(t *testing.T) {
	s := newTestSim(flatField(0))
	s.SetStartPosition(mgl32.Vec3{1, 2, 3})
	before := s.State()
	s.Step(0)
	s.Step(-1)
	if s.State() != before {
		t.Fatalf("non-positive dt mutated state")
	}
}
