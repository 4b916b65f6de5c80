package manager

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// echoTranslator returns "[tgt] source" for every source and records calls.
type echoTranslator struct {
	calls   atomic.Int32
	block   chan struct{} // when set, each call waits for a receive
	started chan struct{} // when set, signalled as each call starts
	err     error
	short   bool
	panics  bool

	mu   sync.Mutex
	seen [][3]string
}

func (e *echoTranslator) TranslateBatch(ctx context.Context, sources []string, src, tgt string) ([]string, error) {
	e.calls.Add(1)
	e.mu.Lock()
	e.seen = append(e.seen, [3]string{src, tgt, ""})
	e.mu.Unlock()
	if e.started != nil {
		e.started <- struct{}{}
	}
	if e.block != nil {
		<-e.block
	}
	if e.panics {
		panic("engine exploded")
	}
	if e.err != nil {
		return nil, e.err
	}
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = "[" + tgt + "] " + s
	}
	if e.short {
		return out[:len(out)-1], nil
	}
	return out, nil
}

func (e *echoTranslator) langs() [][3]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][3]string(nil), e.seen...)
}

var errEngine = errors.New("cuda out of memory")

// servingManager returns a manager already marked serving.
func servingManager(t *testing.T, cfg ManagerConfig) *Manager {
	t.Helper()
	m := NewWithConfig(cfg)
	if !m.MarkServing() {
		t.Fatalf("MarkServing returned false on a fresh manager")
	}
	return m
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}
