package world

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/ProgramComputer/MarsInterloper-sub000/internal/protocol"
)

type inputEnvelope struct {
	msg protocol.InputMsg
}

// stepInternal is the heart of the tick: apply queued inputs, advance
// physics, stream chunks around the new position, publish state.
func (w *World) stepInternal(dt float32, inputs []inputEnvelope) {
	tick := w.tick.Add(1)

	// Later inputs overwrite earlier axes; jump and climb latch for the
	// tick so a press between ticks is never lost.
	jump, climb := false, false
	for _, env := range inputs {
		w.sim.SetMovementIntent(env.msg.Forward, env.msg.Strafe)
		jump = jump || env.msg.Jump
		climb = climb || env.msg.Climb
	}
	if jump {
		w.sim.RequestJump()
	}
	if climb {
		w.sim.TryClimb()
	}

	w.sim.Step(dt)

	pos := w.sim.Position()
	w.chunks.Update(float64(pos.X()), float64(pos.Z()))

	st := w.sim.State()
	w.status.Store(&Status{
		Tick:           tick,
		Position:       [3]float32{st.Position.X(), st.Position.Y(), st.Position.Z()},
		OnGround:       st.OnGround,
		ResidentChunks: w.chunks.Resident(),
	})

	w.publishState(tick)
	w.record(tick)
}

func (w *World) publishState(tick uint64) {
	if w.client == nil {
		return
	}
	st := w.sim.State()
	planet := w.transform.WorldToPlanet(float64(st.Position.X()), float64(st.Position.Z()))
	planet.Elevation = float64(st.Position.Y())

	msg := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		Tick:            tick,
		Position:        [3]float32{st.Position.X(), st.Position.Y(), st.Position.Z()},
		Velocity:        [3]float32{st.Velocity.X(), st.Velocity.Y(), st.Velocity.Z()},
		OnGround:        st.OnGround,
		OnSlope:         st.OnSlope,
		SlopeAngleDeg:   st.SlopeAngleDeg,
		Latitude:        planet.Latitude,
		Longitude:       planet.Longitude,
		Elevation:       planet.Elevation,
		ChunksLoaded:    w.chunks.ChunksLoaded(),
		ChunksTotal:     w.chunks.ChunksTotal(),
	}
	b, err := json.Marshal(msg)
	if err != nil {
		w.log.Error("marshal state", zap.Error(err))
		return
	}
	sendLatest(w.client.out, b)
}

func (w *World) record(tick uint64) {
	st := w.sim.State()
	if w.recorder != nil {
		err := w.recorder.WriteTick(TickRecord{
			Tick:         tick,
			Position:     [3]float32{st.Position.X(), st.Position.Y(), st.Position.Z()},
			Velocity:     [3]float32{st.Velocity.X(), st.Velocity.Y(), st.Velocity.Z()},
			OnGround:     st.OnGround,
			ChunksLoaded: w.chunks.Resident(),
		})
		if err != nil {
			w.log.Warn("tick journal write failed", zap.Error(err))
		}
	}
	if w.telemetry != nil && tick%uint64(w.cfg.TickRateHz) == 0 {
		// One telemetry row per second is enough for offline queries.
		err := w.telemetry.RecordTick(tick,
			st.Position.X(), st.Position.Y(), st.Position.Z(), st.OnGround)
		if err != nil {
			w.log.Warn("telemetry write failed", zap.Error(err))
		}
	}
}

// sendLatest delivers b without ever blocking the world loop: if the
// client's queue is full, the oldest frame is dropped.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
