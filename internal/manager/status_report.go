package manager

import (
	"time"

	"nllbd/pkg/types"
)

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	m.mu.RLock()
	lastErr := m.lastErr
	m.mu.RUnlock()
	inflight := len(m.genCh)
	queued := len(m.queueCh) - inflight
	if queued < 0 {
		queued = 0
	}
	now := time.Now()
	return types.StatusResponse{
		State:             m.State(),
		Health:            m.Health(),
		ModelID:           m.modelID,
		ArtifactDir:       m.artifactDir,
		Engine:            m.engine,
		QueueLen:          queued,
		Inflight:          inflight,
		MaxQueueDepth:     cap(m.queueCh),
		TranslationsTotal: m.translations.Load(),
		EngineErrorsTotal: m.engineErrors.Load(),
		LastError:         lastErr,
		UptimeSeconds:     int64(now.Sub(m.startTime).Seconds()),
		ServerTimeUnix:    now.Unix(),
	}
}
