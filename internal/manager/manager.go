package manager

import (
	"sync"
	"sync/atomic"
	"time"

	"nllbd/pkg/types"
)

type Manager struct {
	translator  Translator
	languages   LanguageNormalizer
	defaultLang string
	modelID     string
	artifactDir string
	engine      string
	publisher   EventPublisher

	state atomic.Value // types.LifecycleState

	// Queue config
	maxQueueDepth int
	maxInflight   int
	maxWait       time.Duration
	// Queueing primitives: queueCh counts admitted requests (waiting or
	// running), genCh the ones holding an engine slot.
	queueCh chan struct{}
	genCh   chan struct{}
	// admitted tracks requests between admission and response for drain.
	admitted atomic.Int64

	translations atomic.Uint64
	engineErrors atomic.Uint64
	mu           sync.RWMutex
	lastErr      string
	startTime    time.Time
}

// New builds a Manager with package defaults around a translator.
func New(t Translator) *Manager {
	return NewWithConfig(ManagerConfig{Translator: t})
}

// SetEventPublisher replaces the event sink. Safe before serving starts.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	m.publisher = p
}

// State returns the current lifecycle state.
func (m *Manager) State() types.LifecycleState {
	return m.state.Load().(types.LifecycleState)
}

// MarkServing flips health to SERVING once the engine is loaded. It only moves
// forward from starting.
func (m *Manager) MarkServing() bool {
	if !m.state.CompareAndSwap(types.StateStarting, types.StateServing) {
		return false
	}
	stateGauge.Set(stateValue(types.StateServing))
	m.publisher.Publish(Event{Name: "serving", ModelID: m.modelID})
	return true
}

// MarkStopped records the terminal state after shutdown.
func (m *Manager) MarkStopped() {
	m.state.Store(types.StateStopped)
	stateGauge.Set(stateValue(types.StateStopped))
	m.publisher.Publish(Event{Name: "stopped", ModelID: m.modelID})
}

// Ready reports whether requests are being admitted.
func (m *Manager) Ready() bool { return m.State() == types.StateServing }

// Health is SERVING only while the manager is admitting requests.
func (m *Manager) Health() types.HealthStatus {
	if m.Ready() {
		return types.HealthServing
	}
	return types.HealthNotServing
}

// DefaultLang returns the tag applied to requests that omit a language.
func (m *Manager) DefaultLang() string { return m.defaultLang }

func (m *Manager) recordEngineError(err error) {
	m.engineErrors.Add(1)
	m.mu.Lock()
	m.lastErr = err.Error()
	m.mu.Unlock()
}

// Languages lists the aliases the normalizer knows, or nothing when it cannot
// enumerate them.
func (m *Manager) Languages() []types.Language {
	if l, ok := m.languages.(languageLister); ok {
		return l.List()
	}
	return []types.Language{}
}
