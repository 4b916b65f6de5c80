package manager

import (
	"context"
	"time"

	"nllbd/pkg/types"
)

// admitting returns nil while new requests are accepted.
func (m *Manager) admitting() error {
	switch m.State() {
	case types.StateServing:
		return nil
	case types.StateStarting:
		return ErrNotServing
	default:
		return ErrDraining
	}
}

// beginTranslation reserves a queue slot and then an in-flight slot.
// Returns a release func to be deferred.
func (m *Manager) beginTranslation(ctx context.Context) (func(), error) {
	// Count the request before checking state so WaitIdle after BeginDrain
	// either sees it or the request sees the drain.
	m.admitted.Add(1)
	ok := false
	defer func() {
		if !ok {
			m.admitted.Add(-1)
		}
	}()
	if err := m.admitting(); err != nil {
		return func() {}, err
	}

	// Fast path: respect an already-canceled context
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}

	timer := time.NewTimer(m.maxWait)
	defer timer.Stop()
	select {
	case m.queueCh <- struct{}{}:
		// reserved queue slot
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, tooBusyError{stage: "queue slot"}
	}
	queueGauge.Set(float64(len(m.queueCh)))

	acquired := false
	defer func() {
		if !acquired {
			<-m.queueCh
			queueGauge.Set(float64(len(m.queueCh)))
		}
	}()
	// Holding a queue slot counts as admitted: drain no longer rejects it.
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}
	// The remaining budget is shared with the queue wait.
	select {
	case m.genCh <- struct{}{}:
		acquired, ok = true, true
		inflightGauge.Set(float64(len(m.genCh)))
		return func() {
			<-m.genCh
			<-m.queueCh
			m.admitted.Add(-1)
			inflightGauge.Set(float64(len(m.genCh)))
			queueGauge.Set(float64(len(m.queueCh)))
		}, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, tooBusyError{stage: "engine slot"}
	}
}
