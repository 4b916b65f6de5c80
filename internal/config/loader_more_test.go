package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyEnv(t *testing.T) {
	cfg := Defaults()
	err := ApplyEnvFrom(&cfg, map[string]string{
		"NLLB_API_KEY":         "secret",
		"NLLB_INTRA_THREADS":   "8",
		"NLLB_MAX_WAIT":        "250ms",
		"NLLB_RECLAIM_SOURCE":  "false",
		"NLLB_CONVERT_COMMAND": "conv --in {model} --out {output}",
		"NLLB_CORS_ORIGINS":    " https://a , ,https://b",
		"HOST":                 "0.0.0.0",

		"NLLB_ENGINE_TIMEOUT":       "45s",
		"NLLB_ENGINE_READY_TIMEOUT": "3m",
		"NLLB_TRANSLATE_TIMEOUT":    "10s",
		"NLLB_MAX_BODY_BYTES":       "4096",
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.APIKey != "secret" || !cfg.AuthEnabled() || cfg.IntraThreads != 8 || cfg.MaxWait.Std() != 250*time.Millisecond {
		t.Fatalf("unexpected: %+v", cfg)
	}
	if cfg.ReclaimSource || len(cfg.ConvertCommand) != 5 || cfg.Host != "0.0.0.0" {
		t.Fatalf("unexpected: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b" {
		t.Fatalf("cors: %v", cfg.CORSOrigins)
	}
	if cfg.EngineTimeout.Std() != 45*time.Second || cfg.EngineReadyTimeout.Std() != 3*time.Minute {
		t.Fatalf("engine timeouts: %v %v", cfg.EngineTimeout, cfg.EngineReadyTimeout)
	}
	if cfg.TranslateTimeout.Std() != 10*time.Second || cfg.MaxBodyBytes != 4096 {
		t.Fatalf("http limits: %v %d", cfg.TranslateTimeout, cfg.MaxBodyBytes)
	}
}

func TestApplyEnv_CollectsErrors(t *testing.T) {
	cfg := Defaults()
	err := ApplyEnvFrom(&cfg, map[string]string{
		"PORT":                "http",
		"NLLB_DRAIN_TIMEOUT":  "five",
		"NLLB_RECLAIM_SOURCE": "maybe",
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, key := range []string{"Port", "DrainTimeout", "ReclaimSource"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("missing %s in %v", key, err)
		}
	}
	if cfg.Port != DefaultPort {
		t.Fatalf("bad value must not be applied")
	}
}

func TestLoadDotEnv(t *testing.T) {
	d := t.TempDir()
	p := filepath.Join(d, "test.env")
	if err := os.WriteFile(p, []byte("NLLB_TEST_DOTENV=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NLLB_TEST_DOTENV", "")
	os.Unsetenv("NLLB_TEST_DOTENV")
	if err := LoadDotEnv(p, filepath.Join(d, "missing.env")); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("NLLB_TEST_DOTENV"); got != "from-file" {
		t.Fatalf("got %q", got)
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}

	bad := Defaults()
	bad.Transport = "carrier-pigeon"
	bad.Port = 70000
	bad.MaxBatchSize = 0
	bad.EngineURL = ""
	bad.ModelID = ""
	bad.MaxBodyBytes = 0
	bad.EngineReadyTimeout = 0
	bad.TranslateTimeout = Duration(-time.Second)
	err := bad.Validate()
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	for _, want := range []string{"Transport", "Port", "MaxBatchSize", "engine_url", "ModelID", "MaxBodyBytes", "EngineReadyTimeout", "TranslateTimeout"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("missing %q in %v", want, err)
		}
	}
}

func TestNormalize_ExpandsCacheDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfg := Defaults()
	cfg.Transport = "GRPC"
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !strings.HasPrefix(cfg.CacheDir, home) || cfg.Transport != "grpc" {
		t.Fatalf("unexpected: %+v", cfg)
	}
}
