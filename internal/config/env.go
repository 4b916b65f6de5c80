package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env") into
// the process environment without overriding variables already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays the process environment onto cfg. Unset or empty
// variables leave the field untouched.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	cfg.CORSOrigins = compact(cfg.CORSOrigins)
	cfg.ConvertCommand = compact(cfg.ConvertCommand)
	return nil
}

// ApplyEnvFrom is ApplyEnv over an explicit variable set instead of os.Environ.
func ApplyEnvFrom(cfg *Config, vars map[string]string) error {
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	cfg.CORSOrigins = compact(cfg.CORSOrigins)
	cfg.ConvertCommand = compact(cfg.ConvertCommand)
	return nil
}

// compact trims entries and drops empty ones left by repeated separators.
func compact(in []string) []string {
	if in == nil {
		return nil
	}
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
