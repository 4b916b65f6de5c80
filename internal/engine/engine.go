// Package engine adapts a text translation API to a token-level
// sequence-to-sequence engine. The engine itself is opaque: it receives
// batches of source tokens plus a target-language prefix and returns token
// hypotheses.
package engine

import (
	"context"
	"errors"
)

// EOS terminates every encoded source sequence.
const EOS = "</s>"

var (
	// ErrNotLoaded is returned by TranslateBatch before Load succeeded.
	ErrNotLoaded = errors.New("engine not loaded")
	// ErrAlreadyLoaded is returned by a second Load call.
	ErrAlreadyLoaded = errors.New("engine already loaded")
	// ErrDependencyUnavailable indicates the backend was not compiled in.
	ErrDependencyUnavailable = errors.New("engine backend unavailable in this build")
)

// ComputeOptions are passed through to the engine loader.
type ComputeOptions struct {
	Device            string
	ComputeType       string
	IntraThreads      int
	InterThreads      int
	MaxBatchSize      int
	MaxInputLength    int
	MaxDecodingLength int
	BeamSize          int
}

func (o ComputeOptions) withDefaults() ComputeOptions {
	if o.InterThreads <= 0 {
		o.InterThreads = 1
	}
	if o.MaxBatchSize <= 0 {
		o.MaxBatchSize = 32
	}
	if o.MaxInputLength <= 0 {
		o.MaxInputLength = 512
	}
	if o.MaxDecodingLength <= 0 {
		o.MaxDecodingLength = 512
	}
	if o.BeamSize <= 0 {
		o.BeamSize = 2
	}
	return o
}

// GenerateOptions bound a single Generate call.
type GenerateOptions struct {
	MaxDecodingLength int
	BeamSize          int
}

// Engine runs batched generation. For every source it returns the candidate
// hypotheses best first; each starts with the target prefix.
type Engine interface {
	Generate(ctx context.Context, source [][]string, targetPrefix [][]string, opts GenerateOptions) ([][][]string, error)
	// ConcurrentSafe reports whether Generate may be called from several
	// goroutines at once.
	ConcurrentSafe() bool
	Close() error
}

// Tokenizer converts between text and engine tokens. The language is an
// argument of every call; implementations keep no per-request state.
type Tokenizer interface {
	// Encode returns [lang, pieces..., </s>] per text.
	Encode(ctx context.Context, texts []string, lang string) ([][]string, error)
	// Decode joins pieces back into text, dropping special tokens.
	Decode(ctx context.Context, tokens [][]string) ([]string, error)
}

// Loader opens an engine and its tokenizer from an artifact directory.
type Loader interface {
	Name() string
	Load(ctx context.Context, dir string, opts ComputeOptions) (Engine, Tokenizer, error)
}
