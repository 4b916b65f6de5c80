package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"nllbd/internal/artifact"
	"nllbd/internal/config"
	"nllbd/internal/engine"
	"nllbd/internal/httpapi"
	"nllbd/internal/lifecycle"
	"nllbd/internal/manager"
	"nllbd/internal/registry"
	"nllbd/internal/rpcapi"
)

// newCache builds the conversion cache from cfg.
func newCache(cfg config.Config, log zerolog.Logger) *artifact.Cache {
	conv := &artifact.CommandConverter{
		Command:      cfg.ConvertCommand,
		Quantization: quantization(cfg.ComputeType),
		Logger:       log.With().Str("component", "converter").Logger(),
	}
	cc := artifact.Config{Converter: conv, Logger: log.With().Str("component", "artifact").Logger()}
	if cfg.ReclaimSource {
		cc.Reclaimer = artifact.HFCacheReclaimer{HubDir: artifact.DefaultHubDir()}
	}
	return artifact.New(cc)
}

// quantization picks the converter quantization for a compute type; the
// engine-side selectors default and auto convert as int8.
func quantization(computeType string) string {
	switch computeType {
	case "", "default", "auto":
		return "int8"
	default:
		return computeType
	}
}

func computeOptions(cfg config.Config) engine.ComputeOptions {
	return engine.ComputeOptions{
		Device:            cfg.Device,
		ComputeType:       cfg.ComputeType,
		IntraThreads:      cfg.IntraThreads,
		InterThreads:      cfg.InterThreads,
		MaxBatchSize:      cfg.MaxBatchSize,
		MaxInputLength:    cfg.MaxInputLength,
		MaxDecodingLength: cfg.MaxDecodingLength,
		BeamSize:          cfg.BeamSize,
	}
}

func newRegistry(cfg config.Config) (*registry.Registry, error) {
	if cfg.LanguagesFile == "" {
		return registry.New(), nil
	}
	return registry.NewFromFile(cfg.LanguagesFile)
}

func loaderConfig(cfg config.Config, log zerolog.Logger) engine.LoaderConfig {
	return engine.LoaderConfig{
		Backend:        cfg.Engine,
		URL:            cfg.EngineURL,
		ONNXLibrary:    cfg.ONNXLibrary,
		RequestTimeout: cfg.EngineTimeout.Std(),
		ReadyTimeout:   cfg.EngineReadyTimeout.Std(),
		Logger:         log.With().Str("component", "engine").Logger(),
	}
}

// buildController wires cache, engine, request handler and transport.
func buildController(cfg config.Config, log zerolog.Logger) (*lifecycle.Controller, error) {
	loader, err := engine.NewLoader(loaderConfig(cfg, log))
	if err != nil {
		return nil, err
	}
	adapter := engine.NewAdapter(loader, log.With().Str("component", "adapter").Logger())

	langs, err := newRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("languages: %w", err)
	}
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Translator:    adapter,
		Languages:     langs,
		DefaultLang:   cfg.DefaultLang,
		ModelID:       cfg.ModelID,
		ArtifactDir:   cfg.CacheDir,
		Engine:        loader.Name(),
		MaxQueueDepth: cfg.MaxQueueDepth,
		MaxInflight:   cfg.MaxInflight,
		MaxWait:       cfg.MaxWait.Std(),
		Publisher:     manager.LogPublisher{Logger: log.With().Str("component", "manager").Logger()},
	})

	var transport lifecycle.Transport
	switch cfg.Transport {
	case "grpc":
		transport = rpcapi.New(mgr, rpcapi.Options{
			APIKey: cfg.APIKey,
			Logger: log.With().Str("component", "grpc").Logger(),
		})
	default:
		transport = httpapi.NewServer(newHTTPHandler(cfg, mgr, log))
	}

	ctrl, err := lifecycle.New(lifecycle.Config{
		ModelID:      cfg.ModelID,
		ArtifactDir:  cfg.CacheDir,
		Compute:      computeOptions(cfg),
		Addr:         cfg.Addr(),
		DrainTimeout: cfg.DrainTimeout.Std(),
		Cache:        newCache(cfg, log),
		Engine:       adapter,
		Gate:         mgr,
		Transport:    transport,
		Logger:       log.With().Str("component", "lifecycle").Logger(),
	})
	if err != nil {
		return nil, err
	}
	httpapi.SetBaseContext(ctrl.AbandonContext())
	return ctrl, nil
}

func newHTTPHandler(cfg config.Config, mgr *manager.Manager, log zerolog.Logger) http.Handler {
	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetAPIKey(cfg.APIKey)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetTranslateTimeoutSeconds(wholeSeconds(cfg.TranslateTimeout.Std()))
	if len(cfg.CORSOrigins) > 0 {
		httpapi.SetCORSOptions(true, cfg.CORSOrigins,
			[]string{http.MethodGet, http.MethodPost, http.MethodOptions},
			[]string{"Authorization", "Content-Type"})
	}
	return httpapi.NewMux(mgr)
}

// wholeSeconds rounds d up to whole seconds so a sub-second timeout is not
// silently disabled.
func wholeSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}
