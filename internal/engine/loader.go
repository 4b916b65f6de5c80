package engine

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// LoaderConfig selects and configures an engine backend.
type LoaderConfig struct {
	Backend        string
	URL            string
	ONNXLibrary    string
	ReadyTimeout   time.Duration
	RequestTimeout time.Duration
	Logger         zerolog.Logger
}

// NewLoader returns the loader for cfg.Backend ("remote" or "onnx").
func NewLoader(cfg LoaderConfig) (Loader, error) {
	switch cfg.Backend {
	case "", "remote":
		return &RemoteLoader{
			BaseURL:        cfg.URL,
			ReadyTimeout:   cfg.ReadyTimeout,
			RequestTimeout: cfg.RequestTimeout,
			Logger:         cfg.Logger,
		}, nil
	case "onnx":
		return newONNXLoader(cfg)
	default:
		return nil, fmt.Errorf("unknown engine backend %q", cfg.Backend)
	}
}
