package manager

import (
	"context"
	"time"

	"nllbd/pkg/types"
)

// BeginDrain stops admitting new requests and flips health to NOT_SERVING.
// Requests already admitted keep running. Returns false if draining had
// already begun, so repeated signals are no-ops.
func (m *Manager) BeginDrain() bool {
	for {
		cur := m.State()
		if cur == types.StateDraining || cur == types.StateStopped {
			return false
		}
		if m.state.CompareAndSwap(cur, types.StateDraining) {
			break
		}
	}
	stateGauge.Set(stateValue(types.StateDraining))
	m.publisher.Publish(Event{Name: "drain_start", ModelID: m.modelID, Fields: map[string]any{"inflight": m.Inflight()}})
	return true
}

// Inflight is the number of admitted requests that have not responded yet.
func (m *Manager) Inflight() int { return int(m.admitted.Load()) }

// WaitIdle blocks until no admitted request remains or ctx is done.
func (m *Manager) WaitIdle(ctx context.Context) error {
	t := time.NewTicker(10 * time.Millisecond)
	defer t.Stop()
	for {
		n := m.Inflight()
		if n == 0 {
			m.publisher.Publish(Event{Name: "drain_done", ModelID: m.modelID})
			return nil
		}
		select {
		case <-ctx.Done():
			m.publisher.Publish(Event{Name: "drain_timeout", ModelID: m.modelID, Fields: map[string]any{"inflight": n}})
			return ctx.Err()
		case <-t.C:
		}
	}
}
