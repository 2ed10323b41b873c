package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning collects every empirically tuned constant of the surface
// simulation. Values here are behavior, not intent: the defaults were
// carried over from the tuned build and should only change deliberately.
type Tuning struct {
	TickRateHz int `yaml:"tick_rate_hz"`

	Terrain Terrain `yaml:"terrain"`
	Chunks  Chunks  `yaml:"chunks"`
	Physics Physics `yaml:"physics"`
}

type Terrain struct {
	Seed            int64   `yaml:"seed"`
	TargetMaxHeight float64 `yaml:"target_max_height"`
	SanityThreshold float64 `yaml:"sanity_threshold_m"`
	FallbackHeight  float64 `yaml:"fallback_height"`

	OriginLat      float64 `yaml:"origin_lat"`
	OriginLon      float64 `yaml:"origin_lon"`
	UnitsPerDegree float64 `yaml:"units_per_degree"`
}

type Chunks struct {
	Size          float64 `yaml:"size"`
	LoadRadius    int     `yaml:"load_radius"`
	VisualRes     int     `yaml:"visual_res"`
	PhysicsRes    int     `yaml:"physics_res"`
	OverlapMargin float64 `yaml:"overlap_margin"`

	EdgeBand        float64 `yaml:"edge_band"`
	EdgeBlendMax    float64 `yaml:"edge_blend_max"`
	CliffThreshold  float64 `yaml:"cliff_threshold"`
	MaxEdgeCorrect  float64 `yaml:"max_edge_correct"`
	BlendBandWeight float64 `yaml:"blend_band_weight"`
}

type Physics struct {
	GravityY         float64 `yaml:"gravity_y"`
	TerminalVelocity float64 `yaml:"terminal_velocity"`
	MaxJumpSpeed     float64 `yaml:"max_jump_speed"`
	JumpSpeed        float64 `yaml:"jump_speed"`
	MoveForce        float64 `yaml:"move_force"`
	MaxMoveSpeed     float64 `yaml:"max_move_speed"`

	GroundBuffer      float64 `yaml:"ground_buffer"`
	ContactThreshold  float64 `yaml:"contact_threshold"`
	HoleDropThreshold float64 `yaml:"hole_drop_threshold"`
	SnapRate          float64 `yaml:"snap_rate"`

	MaxClimbAngleDeg float64 `yaml:"max_climb_angle_deg"`
	SlideAngleDeg    float64 `yaml:"slide_angle_deg"`
	SlopeSampleDist  float64 `yaml:"slope_sample_dist"`
	SlopeMinDelta    float64 `yaml:"slope_min_delta"`
	UphillAssist     float64 `yaml:"uphill_assist"`
	SteepNudge       float64 `yaml:"steep_nudge"`
	DownhillDamping  float64 `yaml:"downhill_damping"`

	CollisionRadius float64 `yaml:"collision_radius"`
	Restitution     float64 `yaml:"restitution"`

	ForceFraction  float64 `yaml:"force_fraction"`
	ClimbProbeDist float64 `yaml:"climb_probe_dist"`
	ClimbMaxLedge  float64 `yaml:"climb_max_ledge"`
	ClimbUpSpeed   float64 `yaml:"climb_up_speed"`
	ClimbFwdSpeed  float64 `yaml:"climb_fwd_speed"`
	ClimbLockout   float64 `yaml:"climb_lockout_s"`
}

// Default returns the tuned values the simulation shipped with.
func Default() Tuning {
	return Tuning{
		TickRateHz: 60,
		Terrain: Terrain{
			Seed:            1337,
			TargetMaxHeight: 30,
			SanityThreshold: 25000, // meters; beyond the real MOLA range, sensor error
			FallbackHeight:  0.5,
			OriginLat:       18.4447, // Jezero crater
			OriginLon:       77.4508,
			UnitsPerDegree:  1000,
		},
		Chunks: Chunks{
			Size:          50,
			LoadRadius:    2,
			VisualRes:     33,
			PhysicsRes:    9,
			OverlapMargin: 0.05,

			EdgeBand:        0.10,
			EdgeBlendMax:    0.9,
			CliffThreshold:  1.0,
			MaxEdgeCorrect:  2.0,
			BlendBandWeight: 0.85,
		},
		Physics: Physics{
			GravityY:         -3.8,
			TerminalVelocity: -20,
			MaxJumpSpeed:     8,
			JumpSpeed:        4.5,
			MoveForce:        28,
			MaxMoveSpeed:     6,

			GroundBuffer:      0.1,
			ContactThreshold:  0.6,
			HoleDropThreshold: 1.0,
			SnapRate:          12,

			MaxClimbAngleDeg: 45,
			SlideAngleDeg:    30,
			SlopeSampleDist:  0.8,
			SlopeMinDelta:    0.15,
			UphillAssist:     1.6,
			SteepNudge:       0.04,
			DownhillDamping:  0.82,

			CollisionRadius: 0.5,
			Restitution:     0.3,

			ForceFraction:  0.12,
			ClimbProbeDist: 1.2,
			ClimbMaxLedge:  1.4,
			ClimbUpSpeed:   3.2,
			ClimbFwdSpeed:  1.5,
			ClimbLockout:   0.35,
		},
	}
}

// Load reads a tuning.yaml over the defaults, so a partial file only
// overrides what it names.
func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
