package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// wsTokenizer splits on whitespace and marks word starts with ▁.
type wsTokenizer struct {
	mu    sync.Mutex
	langs []string
	calls atomic.Int32
}

func (t *wsTokenizer) Encode(_ context.Context, texts []string, lang string) ([][]string, error) {
	t.calls.Add(1)
	t.mu.Lock()
	t.langs = append(t.langs, lang)
	t.mu.Unlock()
	out := make([][]string, len(texts))
	for i, s := range texts {
		seq := []string{lang}
		for _, w := range strings.Fields(s) {
			seq = append(seq, spaceMarker+w)
		}
		out[i] = append(seq, EOS)
	}
	return out, nil
}

func (t *wsTokenizer) Decode(_ context.Context, tokens [][]string) ([]string, error) {
	out := make([]string, len(tokens))
	for i, seq := range tokens {
		out[i] = JoinPieces(seq)
	}
	return out, nil
}

// echoEngine returns the target prefix followed by the source pieces. With
// alternates set, each source also gets that many lower-ranked candidates
// ending in "▁alt"; noCandidates returns an empty list per source.
type echoEngine struct {
	concurrent    bool
	delay         time.Duration
	fail          error
	panicMsg      string
	alternates    int
	noCandidates  bool
	release       chan struct{}
	startedSignal chan struct{}

	calls     atomic.Int32
	active    atomic.Int32
	maxActive atomic.Int32

	mu      sync.Mutex
	batches [][][]string
	closed  bool
}

func (e *echoEngine) ConcurrentSafe() bool { return e.concurrent }

func (e *echoEngine) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return nil
}

func (e *echoEngine) Generate(_ context.Context, source, prefix [][]string, _ GenerateOptions) ([][][]string, error) {
	e.calls.Add(1)
	if e.startedSignal != nil {
		e.startedSignal <- struct{}{}
	}
	if e.release != nil {
		<-e.release
	}
	n := e.active.Add(1)
	defer e.active.Add(-1)
	for {
		m := e.maxActive.Load()
		if n <= m || e.maxActive.CompareAndSwap(m, n) {
			break
		}
	}
	e.mu.Lock()
	e.batches = append(e.batches, source)
	e.mu.Unlock()
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	if e.panicMsg != "" {
		panic(e.panicMsg)
	}
	if e.fail != nil {
		return nil, e.fail
	}
	out := make([][][]string, len(source))
	for i, s := range source {
		if e.noCandidates {
			out[i] = [][]string{}
			continue
		}
		hyp := append([]string{}, prefix[i]...)
		for _, tok := range s {
			if !IsSpecial(tok) {
				hyp = append(hyp, tok)
			}
		}
		cands := [][]string{hyp}
		for k := 0; k < e.alternates; k++ {
			cands = append(cands, append(append([]string{}, hyp...), spaceMarker+"alt"))
		}
		out[i] = cands
	}
	return out, nil
}

type fakeLoader struct {
	eng  *echoEngine
	tok  *wsTokenizer
	err  error
	dirs []string
}

func (l *fakeLoader) Name() string { return "fake" }

func (l *fakeLoader) Load(_ context.Context, dir string, _ ComputeOptions) (Engine, Tokenizer, error) {
	l.dirs = append(l.dirs, dir)
	if l.err != nil {
		return nil, nil, l.err
	}
	return l.eng, l.tok, nil
}

var errBoom = errors.New("boom")
