package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"nllbd/internal/common/fsutil"
)

// SentinelName is the marker file written inside an artifact directory once
// conversion has fully succeeded. Its presence is the only readiness signal.
const SentinelName = ".done"

const stagingInfix = ".staging-"

// Artifact is an optimized on-disk model produced by a Converter.
type Artifact struct {
	ModelID string
	Dir     string
	Ready   bool
	// Converted is true when this Ensure call ran the converter.
	Converted bool
	SizeBytes int64
}

// SentinelPath returns the sentinel location for the artifact.
func (a Artifact) SentinelPath() string { return filepath.Join(a.Dir, SentinelName) }

// Converter materializes an optimized model into outputDir. The directory
// exists and is empty when Convert is called. Implementations may take minutes.
type Converter interface {
	Name() string
	Convert(ctx context.Context, modelID, outputDir string) error
}

// Reclaimer frees source-format weights once the artifact is ready.
type Reclaimer interface {
	Reclaim(modelID string) (int64, error)
}

// Config wires the cache collaborators.
type Config struct {
	Converter Converter
	// Reclaimer is optional; nil disables source cleanup.
	Reclaimer Reclaimer
	Logger    zerolog.Logger
}

// Cache ensures an artifact exists on disk exactly once.
type Cache struct {
	mu        sync.Mutex
	converter Converter
	reclaimer Reclaimer
	log       zerolog.Logger
}

// New constructs a Cache.
func New(cfg Config) *Cache {
	return &Cache{converter: cfg.Converter, reclaimer: cfg.Reclaimer, log: cfg.Logger}
}

type sentinelInfo struct {
	ModelID     string    `json:"model_id"`
	Converter   string    `json:"converter"`
	ConvertedAt time.Time `json:"converted_at"`
	SizeBytes   int64     `json:"size_bytes"`
}

// Ensure returns a ready artifact for modelID in dir, converting it first when
// the sentinel is missing. A directory without the sentinel is a leftover from
// a crashed conversion and is deleted before retrying.
func (c *Cache) Ensure(ctx context.Context, modelID, dir string) (Artifact, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.TrimSpace(modelID) == "" {
		return Artifact{}, &ConversionError{Op: "validate", Err: errors.New("model id is empty")}
	}
	if strings.TrimSpace(dir) == "" {
		return Artifact{}, &ConversionError{ModelID: modelID, Op: "validate", Err: errors.New("artifact dir is empty")}
	}
	dir, err := filepath.Abs(filepath.Clean(dir))
	if err != nil {
		return Artifact{}, &ConversionError{ModelID: modelID, Op: "validate", Err: err}
	}
	art := Artifact{ModelID: modelID, Dir: dir}

	if fsutil.IsFile(art.SentinelPath()) {
		art.Ready = true
		c.log.Info().Str("model", modelID).Str("dir", dir).Msg("artifact ready")
		return art, nil
	}

	if c.converter == nil {
		return Artifact{}, &ConversionError{ModelID: modelID, Op: "convert", Err: errors.New("no converter configured")}
	}

	if fsutil.PathExists(dir) {
		c.log.Warn().Str("dir", dir).Msg("artifact dir without sentinel, discarding partial conversion")
		if err := os.RemoveAll(dir); err != nil {
			return Artifact{}, &ConversionError{ModelID: modelID, Op: "remove partial", Err: err}
		}
	}
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return Artifact{}, &ConversionError{ModelID: modelID, Op: "mkdir", Err: err}
	}
	c.removeStaging(dir)

	staging, err := os.MkdirTemp(parent, filepath.Base(dir)+stagingInfix+"*")
	if err != nil {
		return Artifact{}, &ConversionError{ModelID: modelID, Op: "mkdir staging", Err: err}
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(staging)
		}
	}()

	start := time.Now()
	c.log.Info().Str("model", modelID).Str("converter", c.converter.Name()).Str("staging", staging).Msg("artifact conversion start")
	if err := c.converter.Convert(ctx, modelID, staging); err != nil {
		conversionsTotal.WithLabelValues("error").Inc()
		return Artifact{}, &ConversionError{ModelID: modelID, Op: "convert", Err: err}
	}
	entries, err := os.ReadDir(staging)
	if err != nil {
		conversionsTotal.WithLabelValues("error").Inc()
		return Artifact{}, &ConversionError{ModelID: modelID, Op: "inspect", Err: err}
	}
	if len(entries) == 0 {
		conversionsTotal.WithLabelValues("error").Inc()
		return Artifact{}, &ConversionError{ModelID: modelID, Op: "inspect", Err: errors.New("converter produced no files")}
	}
	size, _ := fsutil.DirSize(staging)

	if err := os.Rename(staging, dir); err != nil {
		conversionsTotal.WithLabelValues("error").Inc()
		return Artifact{}, &ConversionError{ModelID: modelID, Op: "commit", Err: err}
	}
	committed = true
	if err := fsutil.SyncDir(parent); err != nil {
		c.log.Warn().Err(err).Str("dir", parent).Msg("fsync parent dir")
	}

	// The sentinel must be the last write: a crash before this line leaves a
	// directory that the next Ensure discards.
	info, _ := json.Marshal(sentinelInfo{ModelID: modelID, Converter: c.converter.Name(), ConvertedAt: time.Now().UTC(), SizeBytes: size})
	if err := fsutil.WriteFileAtomic(art.SentinelPath(), info, 0o644); err != nil {
		conversionsTotal.WithLabelValues("error").Inc()
		return Artifact{}, &ConversionError{ModelID: modelID, Op: "write sentinel", Err: err}
	}

	dur := time.Since(start)
	conversionsTotal.WithLabelValues("ok").Inc()
	conversionSeconds.Set(dur.Seconds())
	artifactBytes.Set(float64(size))
	c.log.Info().Str("model", modelID).Str("dir", dir).Int64("bytes", size).Dur("dur", dur).Msg("artifact conversion done")

	art.Ready = true
	art.Converted = true
	art.SizeBytes = size
	c.reclaim(modelID)
	return art, nil
}

// reclaim is best-effort; failures never fail Ensure.
func (c *Cache) reclaim(modelID string) {
	if c.reclaimer == nil {
		return
	}
	n, err := c.reclaimer.Reclaim(modelID)
	if err != nil {
		c.log.Warn().Err(err).Str("model", modelID).Msg("source weights cleanup failed")
		return
	}
	if n > 0 {
		reclaimedBytes.Add(float64(n))
		c.log.Info().Str("model", modelID).Int64("bytes", n).Msg("source weights removed")
	}
}

// removeStaging deletes staging dirs left by conversions that crashed mid-way.
func (c *Cache) removeStaging(dir string) {
	matches, err := filepath.Glob(dir + stagingInfix + "*")
	if err != nil {
		return
	}
	for _, m := range matches {
		if err := os.RemoveAll(m); err != nil {
			c.log.Warn().Err(err).Str("path", m).Msg("remove stale staging dir")
			continue
		}
		c.log.Debug().Str("path", m).Msg("removed stale staging dir")
	}
}

// Describe reads the sentinel metadata; used for status output only.
func Describe(dir string) (string, error) {
	b, err := os.ReadFile(filepath.Join(dir, SentinelName))
	if err != nil {
		return "", err
	}
	var info sentinelInfo
	if err := json.Unmarshal(b, &info); err != nil {
		return "", fmt.Errorf("sentinel: %w", err)
	}
	return fmt.Sprintf("%s via %s at %s", info.ModelID, info.Converter, info.ConvertedAt.Format(time.RFC3339)), nil
}
