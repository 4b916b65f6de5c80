package httpapi

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, request logging is off.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// global default, read once
var defaultLogLevel = parseLevel(os.Getenv("NLLB_HTTP_LOG"))

func requestLogLevel(r *http.Request) LogLevel {
	// Per-request overrides
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// translateLog records the start and end of one /translate call at the
// request's log level.
type translateLog struct {
	lvl   LogLevel
	rid   string
	start time.Time
}

func newTranslateLog(r *http.Request) *translateLog {
	return &translateLog{lvl: requestLogLevel(r), rid: middleware.GetReqID(r.Context()), start: time.Now()}
}

func (l *translateLog) event(status int) *zerolog.Event {
	if zlog == nil {
		return nil
	}
	var ev *zerolog.Event
	switch {
	case status >= 500 && l.lvl >= LevelError:
		ev = zlog.Error()
	case l.lvl >= LevelInfo:
		ev = zlog.Info()
	default:
		return nil
	}
	if l.rid != "" {
		ev = ev.Str("request_id", l.rid)
	}
	return ev
}

func (l *translateLog) end(status, translations int, err error) {
	ev := l.event(status)
	if ev == nil {
		return
	}
	ev = ev.Int("status", status).Int("translations", translations).Dur("dur", time.Since(l.start))
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("translate end")
}
