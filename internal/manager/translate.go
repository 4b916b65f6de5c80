package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nllbd/pkg/types"
)

// Handle decodes a raw JSON request and translates it.
func (m *Manager) Handle(ctx context.Context, raw []byte) (types.TranslateResponse, error) {
	req, err := DecodeRequest(raw)
	if err != nil {
		requestsTotal.WithLabelValues("invalid").Inc()
		return types.TranslateResponse{}, err
	}
	return m.Translate(ctx, req)
}

// Translate applies language defaults, waits for admission and runs the batch
// through the translator. The response has one entry per source, in order.
func (m *Manager) Translate(ctx context.Context, req types.TranslateRequest) (types.TranslateResponse, error) {
	if req.Sources == nil {
		req.Sources = []string{}
	}
	src := m.resolveLang(req.SrcLang)
	tgt := m.resolveLang(req.TgtLang)

	// Empty batches are answered without queueing or touching the engine.
	if len(req.Sources) == 0 {
		if err := m.admitting(); err != nil {
			requestsTotal.WithLabelValues(resultLabel(err)).Inc()
			return types.TranslateResponse{}, err
		}
		requestsTotal.WithLabelValues("ok").Inc()
		return types.TranslateResponse{Translations: []string{}}, nil
	}

	release, err := m.beginTranslation(ctx)
	if err != nil {
		requestsTotal.WithLabelValues(resultLabel(err)).Inc()
		if IsTooBusy(err) {
			m.publisher.Publish(Event{Name: "too_busy", ModelID: m.modelID, Fields: map[string]any{"sources": len(req.Sources)}})
		}
		return types.TranslateResponse{}, err
	}
	defer release()

	start := time.Now()
	out, err := m.callTranslator(ctx, req.Sources, src, tgt)
	dur := time.Since(start)
	translateSeconds.Observe(dur.Seconds())
	if err == nil && len(out) != len(req.Sources) {
		err = fmt.Errorf("translator returned %d results for %d sources", len(out), len(req.Sources))
	}
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			requestsTotal.WithLabelValues("canceled").Inc()
			return types.TranslateResponse{}, err
		}
		ee := &EngineError{Err: err}
		m.recordEngineError(ee)
		requestsTotal.WithLabelValues("engine_error").Inc()
		m.publisher.Publish(Event{Name: "engine_error", ModelID: m.modelID, Fields: map[string]any{"error": err.Error(), "src": src, "tgt": tgt}})
		return types.TranslateResponse{}, ee
	}
	m.translations.Add(1)
	sourcesTotal.Add(float64(len(out)))
	requestsTotal.WithLabelValues("ok").Inc()
	m.publisher.Publish(Event{Name: "translated", ModelID: m.modelID, Fields: map[string]any{"sources": len(out), "src": src, "tgt": tgt, "dur_ms": dur.Milliseconds()}})
	return types.TranslateResponse{Translations: out}, nil
}

// callTranslator turns a translator panic into an error.
func (m *Manager) callTranslator(ctx context.Context, sources []string, src, tgt string) (out []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("translator panic: %v", r)
		}
	}()
	if m.translator == nil {
		return nil, fmt.Errorf("no translator configured")
	}
	return m.translator.TranslateBatch(ctx, sources, src, tgt)
}

func (m *Manager) resolveLang(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return m.defaultLang
	}
	return m.languages.Normalize(tag)
}

func resultLabel(err error) string {
	switch {
	case IsTooBusy(err):
		return "too_busy"
	case IsUnavailable(err):
		return "unavailable"
	case IsValidation(err):
		return "invalid"
	default:
		return "canceled"
	}
}
