package world

import (
	"context"
	"time"
)

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	dt := float32(interval.Seconds())
	var pendingInputs []inputEnvelope

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			w.handleJoin(req)
		case id := <-w.leave:
			w.handleLeave(id)
		case spec := <-w.colliders:
			w.sim.RegisterStaticCollider(spec.Min, spec.Max, spec.Name, spec.Role)
		case msg := <-w.inputs:
			pendingInputs = append(pendingInputs, inputEnvelope{msg: msg})
		case <-ticker.C:
			w.stepInternal(dt, pendingInputs)
			pendingInputs = pendingInputs[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// StepOnce advances the world by a single tick with the same ordering as
// the server loop. Intended for deterministic tests and replays.
func (w *World) StepOnce(dt float32) uint64 {
	w.drainControl()
	w.stepInternal(dt, w.drainInputs())
	return w.tick.Load()
}

func (w *World) drainControl() {
	for {
		select {
		case req := <-w.join:
			w.handleJoin(req)
		case id := <-w.leave:
			w.handleLeave(id)
		case spec := <-w.colliders:
			w.sim.RegisterStaticCollider(spec.Min, spec.Max, spec.Name, spec.Role)
		default:
			return
		}
	}
}

func (w *World) drainInputs() []inputEnvelope {
	var pending []inputEnvelope
	for {
		select {
		case msg := <-w.inputs:
			pending = append(pending, inputEnvelope{msg: msg})
		default:
			return pending
		}
	}
}
