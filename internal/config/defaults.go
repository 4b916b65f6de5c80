package config

import (
	"net"
	"strconv"
	"time"
)

const (
	DefaultModelID  = "facebook/nllb-200-distilled-600M"
	DefaultCacheDir = "~/.cache/nllbd/nllb-200-distilled-600M-ct2"
	DefaultHost     = "::"
	DefaultPort     = 6060
	DefaultLang     = "eng_Latn"
)

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		ModelID:            DefaultModelID,
		CacheDir:           DefaultCacheDir,
		Host:               DefaultHost,
		Port:               DefaultPort,
		Transport:          "http",
		Engine:             "remote",
		EngineURL:          "http://127.0.0.1:7070",
		Device:             "cpu",
		ComputeType:        "int8",
		IntraThreads:       4,
		InterThreads:       1,
		DefaultLang:        DefaultLang,
		MaxBatchSize:       32,
		MaxInputLength:     512,
		MaxDecodingLength:  512,
		BeamSize:           2,
		MaxQueueDepth:      32,
		MaxInflight:        4,
		MaxWait:            Duration(30 * time.Second),
		DrainTimeout:       Duration(5 * time.Second),
		TranslateTimeout:   0,
		MaxBodyBytes:       1 << 20,
		EngineTimeout:      Duration(2 * time.Minute),
		EngineReadyTimeout: Duration(2 * time.Minute),
		ReclaimSource:      true,
		LogLevel:           "info",
		LogFormat:          "json",
	}
}

// Addr is the listen address. An empty host or "::" binds every interface on
// both address families.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// AuthEnabled reports whether requests must carry a bearer token.
func (c Config) AuthEnabled() bool { return c.APIKey != "" }
