package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/rs/zerolog"

	"nllbd/internal/artifact"
)

// Adapter turns text batches into engine calls and back. Load must succeed
// exactly once before TranslateBatch is used.
type Adapter struct {
	loader Loader
	log    zerolog.Logger

	mu     sync.RWMutex
	engine Engine
	tok    Tokenizer
	opts   ComputeOptions
	pool   *workerpool.WorkerPool
}

// NewAdapter returns an unloaded adapter backed by loader.
func NewAdapter(loader Loader, log zerolog.Logger) *Adapter {
	return &Adapter{loader: loader, log: log}
}

// Load opens the engine for a ready artifact. The engine pool gets a single
// worker when the engine cannot take concurrent calls.
func (a *Adapter) Load(ctx context.Context, art artifact.Artifact, opts ComputeOptions) error {
	if !art.Ready {
		return fmt.Errorf("artifact %s is not ready", art.Dir)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.engine != nil {
		return ErrAlreadyLoaded
	}
	opts = opts.withDefaults()
	start := time.Now()
	eng, tok, err := a.loader.Load(ctx, art.Dir, opts)
	if err != nil {
		return fmt.Errorf("load %s engine: %w", a.loader.Name(), err)
	}
	workers := 1
	if eng.ConcurrentSafe() {
		workers = opts.InterThreads
	}
	a.engine, a.tok, a.opts = eng, tok, opts
	a.pool = workerpool.New(workers)
	a.log.Info().
		Str("backend", a.loader.Name()).
		Str("dir", art.Dir).
		Str("device", opts.Device).
		Str("compute_type", opts.ComputeType).
		Int("workers", workers).
		Dur("dur", time.Since(start)).
		Msg("engine loaded")
	return nil
}

// Loaded reports whether Load has succeeded.
func (a *Adapter) Loaded() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.engine != nil
}

// Backend names the loader in use.
func (a *Adapter) Backend() string { return a.loader.Name() }

// TranslateBatch translates sources from src to tgt. The result has the same
// length and order as sources. An empty batch never reaches the engine.
func (a *Adapter) TranslateBatch(ctx context.Context, sources []string, src, tgt string) ([]string, error) {
	if len(sources) == 0 {
		return []string{}, nil
	}
	a.mu.RLock()
	eng, tok, opts, pool := a.engine, a.tok, a.opts, a.pool
	a.mu.RUnlock()
	if eng == nil {
		return nil, ErrNotLoaded
	}

	encoded, err := tok.Encode(ctx, sources, src)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	if len(encoded) != len(sources) {
		return nil, fmt.Errorf("tokenize: got %d sequences for %d sources", len(encoded), len(sources))
	}
	order := make([]int, len(encoded))
	total := 0
	for i := range encoded {
		encoded[i] = truncate(encoded[i], opts.MaxInputLength)
		order[i] = i
		total += len(encoded[i])
	}
	sourceTokens.Add(float64(total))
	// Similar lengths in one chunk keep padding low.
	sort.SliceStable(order, func(x, y int) bool { return len(encoded[order[x]]) < len(encoded[order[y]]) })

	var chunks [][]int
	for start := 0; start < len(order); start += opts.MaxBatchSize {
		end := min(start+opts.MaxBatchSize, len(order))
		chunks = append(chunks, order[start:end])
	}

	hyps := make([][]string, len(sources))
	done := make(chan error, len(chunks))
	// A chunk that has started runs to completion even if the caller goes
	// away; chunks still queued when the caller leaves are skipped.
	runCtx := context.WithoutCancel(ctx)
	gen := GenerateOptions{MaxDecodingLength: opts.MaxDecodingLength, BeamSize: opts.BeamSize}
	for _, idx := range chunks {
		idx := idx
		poolWaiting.Inc()
		pool.Submit(func() {
			poolWaiting.Dec()
			if err := ctx.Err(); err != nil {
				batchesTotal.WithLabelValues("skipped").Inc()
				done <- err
				return
			}
			done <- a.runChunk(runCtx, eng, encoded, hyps, idx, tgt, gen)
		})
	}
	// Every submitted chunk is waited for, so a caller never returns while
	// its work still occupies the engine.
	var firstErr error
	for range chunks {
		if err := <-done; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}

	for i := range hyps {
		hyps[i] = stripPrefix(hyps[i], tgt)
	}
	out, err := tok.Decode(ctx, hyps)
	if err != nil {
		return nil, fmt.Errorf("detokenize: %w", err)
	}
	if len(out) != len(sources) {
		return nil, fmt.Errorf("detokenize: got %d texts for %d sources", len(out), len(sources))
	}
	return out, nil
}

// runChunk generates one chunk and stores the best hypothesis of each source
// at its index.
func (a *Adapter) runChunk(ctx context.Context, eng Engine, encoded, hyps [][]string, idx []int, tgt string, gen GenerateOptions) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic: %v", r)
			batchesTotal.WithLabelValues("panic").Inc()
		}
	}()
	batch := make([][]string, len(idx))
	prefix := make([][]string, len(idx))
	for j, i := range idx {
		batch[j] = encoded[i]
		prefix[j] = []string{tgt}
	}
	start := time.Now()
	res, err := eng.Generate(ctx, batch, prefix, gen)
	generateSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		batchesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("generate: %w", err)
	}
	if len(res) != len(idx) {
		batchesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("generate: got %d hypotheses for %d sources", len(res), len(idx))
	}
	for j, i := range idx {
		if len(res[j]) == 0 {
			batchesTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("generate: no hypothesis for source %d", i)
		}
		// Candidates come best first.
		hyps[i] = res[j][0]
	}
	batchesTotal.WithLabelValues("ok").Inc()
	return nil
}

// Close stops the pool after queued chunks finish, then releases the engine.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.engine == nil {
		return nil
	}
	a.pool.StopWait()
	err := a.engine.Close()
	a.engine, a.tok, a.pool = nil, nil, nil
	return err
}
