package world

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ProgramComputer/MarsInterloper-sub000/internal/protocol"
	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/geo"
	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/physics"
	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/terrain"
	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/tuning"
)

type JoinRequest struct {
	Name string
	Out  chan []byte
	Resp chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
	Err     string
}

type ColliderSpec struct {
	Min, Max mgl32.Vec3
	Name     string
	Role     physics.ColliderRole
}

// TickRecord is one line of the tick journal.
type TickRecord struct {
	Tick         uint64     `json:"tick"`
	Position     [3]float32 `json:"position"`
	Velocity     [3]float32 `json:"velocity"`
	OnGround     bool       `json:"on_ground"`
	ChunksLoaded int        `json:"chunks_loaded"`
}

// TickRecorder persists tick journal entries. Implemented in
// internal/persistence/log; may be nil.
type TickRecorder interface {
	WriteTick(rec TickRecord) error
}

// TelemetrySink receives periodic samples for offline queries. Implemented
// in internal/persistence/indexdb; may be nil.
type TelemetrySink interface {
	RecordTick(tick uint64, x, y, z float32, onGround bool) error
	RecordChunkEvent(tick uint64, cx, cz int, event string) error
}

type clientState struct {
	playerID string
	out      chan []byte
}

// World is a single-threaded authoritative simulation. All state must be
// accessed only from the world loop goroutine; tests drive it directly
// through StepOnce instead of Run.
type World struct {
	cfg tuning.Tuning
	log *zap.Logger

	tick atomic.Uint64

	transform *geo.Transform
	provider  *terrain.Provider
	chunks    *Manager
	sim       *physics.Simulator

	client *clientState

	inputs    chan protocol.InputMsg
	join      chan JoinRequest
	leave     chan string
	colliders chan ColliderSpec
	stop      chan struct{}

	recorder  TickRecorder
	telemetry TelemetrySink

	spawn  mgl32.Vec3
	status atomic.Pointer[Status]
}

// Status is a read-only snapshot published once per tick for HTTP
// observers; everything else in World belongs to the loop goroutine.
type Status struct {
	Tick           uint64
	Position       [3]float32
	OnGround       bool
	ResidentChunks int
}

func New(cfg tuning.Tuning, field terrain.Field, log *zap.Logger) *World {
	if log == nil {
		log = zap.NewNop()
	}
	tr := geo.NewTransform(cfg.Terrain.OriginLat, cfg.Terrain.OriginLon, cfg.Terrain.UnitsPerDegree)
	w := &World{
		cfg:       cfg,
		log:       log,
		transform: tr,
		provider:  terrain.NewProvider(field, tr, float32(cfg.Terrain.FallbackHeight)),
		inputs:    make(chan protocol.InputMsg, 16),
		join:      make(chan JoinRequest, 1),
		leave:     make(chan string, 1),
		colliders: make(chan ColliderSpec, 16),
		stop:      make(chan struct{}),
	}
	w.chunks = NewManager(cfg.Chunks, field, log.Named("chunks"))
	w.sim = physics.NewSimulator(cfg.Physics, physicsField{w.chunks}, log.Named("physics"))

	spawnGround := w.chunks.HeightAt(0, 0)
	w.spawn = mgl32.Vec3{0, spawnGround + 2, 0}
	w.sim.SetStartPosition(w.spawn)
	w.chunks.Update(float64(w.spawn.X()), float64(w.spawn.Z()))

	w.chunks.SetUnloadHook(func(key ChunkKey, mesh uint64) {
		if w.telemetry != nil {
			_ = w.telemetry.RecordChunkEvent(w.tick.Load(), key.CX, key.CZ, "unload")
		}
	})
	return w
}

// SetRecorder and SetTelemetry must be called before Run.
func (w *World) SetRecorder(r TickRecorder)   { w.recorder = r }
func (w *World) SetTelemetry(t TelemetrySink) { w.telemetry = t }

func (w *World) Inputs() chan<- protocol.InputMsg  { return w.inputs }
func (w *World) Join() chan<- JoinRequest          { return w.join }
func (w *World) Leave() chan<- string              { return w.leave }
func (w *World) Colliders() chan<- ColliderSpec    { return w.colliders }

func (w *World) Tick() uint64 { return w.tick.Load() }

// Status returns the latest published snapshot, never nil.
func (w *World) Status() Status {
	if s := w.status.Load(); s != nil {
		return *s
	}
	return Status{}
}
func (w *World) Transform() *geo.Transform         { return w.transform }
func (w *World) Provider() *terrain.Provider       { return w.provider }
func (w *World) Chunks() *Manager                  { return w.chunks }
func (w *World) Simulator() *physics.Simulator     { return w.sim }

func (w *World) worldParams() protocol.WorldParams {
	return protocol.WorldParams{
		TickRateHz:     w.cfg.TickRateHz,
		Seed:           w.cfg.Terrain.Seed,
		ChunkSize:      w.cfg.Chunks.Size,
		LoadRadius:     w.cfg.Chunks.LoadRadius,
		OriginLat:      w.cfg.Terrain.OriginLat,
		OriginLon:      w.cfg.Terrain.OriginLon,
		UnitsPerDegree: w.cfg.Terrain.UnitsPerDegree,
	}
}

func (w *World) handleJoin(req JoinRequest) {
	if w.client != nil {
		req.Resp <- JoinResponse{Err: protocol.ErrSessionFull}
		return
	}
	playerID := "P-" + uuid.NewString()
	w.client = &clientState{playerID: playerID, out: req.Out}
	w.log.Info("player joined",
		zap.String("name", req.Name),
		zap.String("player_id", playerID))
	req.Resp <- JoinResponse{Welcome: protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       uuid.NewString(),
		PlayerID:        playerID,
		WorldParams:     w.worldParams(),
		Spawn:           [3]float32{w.spawn.X(), w.spawn.Y(), w.spawn.Z()},
	}}
}

func (w *World) handleLeave(playerID string) {
	if w.client != nil && w.client.playerID == playerID {
		w.log.Info("player left", zap.String("player_id", playerID))
		w.client = nil
	}
}
