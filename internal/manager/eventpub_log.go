package manager

import "github.com/rs/zerolog"

// LogPublisher writes events to a zerolog logger. Routine per-request events
// go to debug; lifecycle and failure events to info/warn.
type LogPublisher struct {
	Logger zerolog.Logger
}

func (p LogPublisher) Publish(e Event) {
	var ev *zerolog.Event
	switch e.Name {
	case "translated":
		ev = p.Logger.Debug()
	case "engine_error", "too_busy", "drain_timeout":
		ev = p.Logger.Warn()
	default:
		ev = p.Logger.Info()
	}
	if e.ModelID != "" {
		ev = ev.Str("model", e.ModelID)
	}
	ev.Fields(e.Fields).Str("event", e.Name).Msg("manager event")
}
