package lifecycle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nllbd/internal/artifact"
	"nllbd/internal/engine"
	"nllbd/internal/httpapi"
	"nllbd/internal/manager"
	"nllbd/pkg/types"
)

// recorder collects the order of startup steps across fakes.
type recorder struct {
	mu    sync.Mutex
	steps []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	r.steps = append(r.steps, s)
	r.mu.Unlock()
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.steps...)
}

type fakeCache struct {
	rec *recorder
	err error
}

func (f *fakeCache) Ensure(ctx context.Context, modelID, dir string) (artifact.Artifact, error) {
	f.rec.add("ensure")
	if f.err != nil {
		return artifact.Artifact{}, f.err
	}
	return artifact.Artifact{ModelID: modelID, Dir: dir, Ready: true}, nil
}

type fakeEngine struct {
	rec     *recorder
	err     error
	gate    chan struct{} // when set, Load waits for it
	closed  bool
	loadArt artifact.Artifact
}

func (f *fakeEngine) Load(ctx context.Context, art artifact.Artifact, opts engine.ComputeOptions) error {
	f.rec.add("load")
	f.loadArt = art
	if f.gate != nil {
		<-f.gate
	}
	return f.err
}

func (f *fakeEngine) Close() error {
	f.rec.add("close")
	f.closed = true
	return nil
}

type fakeTransport struct {
	rec     *recorder
	serving []bool
	stop    chan struct{}
}

func (f *fakeTransport) Serve(lis net.Listener) error {
	f.rec.add("serve")
	<-f.stop
	return lis.Close()
}
func (f *fakeTransport) Shutdown(ctx context.Context) error { close(f.stop); return nil }
func (f *fakeTransport) Close() error                       { return nil }
func (f *fakeTransport) SetServing(ok bool)                 { f.serving = append(f.serving, ok) }

// blockingTranslator echoes "[tgt] src" after release is closed.
type blockingTranslator struct {
	started chan struct{}
	release chan struct{}
}

func newBlocking() *blockingTranslator {
	return &blockingTranslator{started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (b *blockingTranslator) TranslateBatch(ctx context.Context, sources []string, src, tgt string) ([]string, error) {
	b.started <- struct{}{}
	<-b.release
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = "[" + tgt + "] " + s
	}
	return out, nil
}

type httpStack struct {
	ctrl *Controller
	mgr  *manager.Manager
	eng  *fakeEngine
	done chan error
	stop context.CancelFunc
}

func startHTTP(t *testing.T, tr manager.Translator, drain time.Duration) *httpStack {
	t.Helper()
	rec := &recorder{}
	mgr := manager.NewWithConfig(manager.ManagerConfig{Translator: tr})
	eng := &fakeEngine{rec: rec}
	ctrl, err := New(Config{
		ModelID:      "facebook/nllb-200-distilled-600M",
		ArtifactDir:  t.TempDir(),
		Addr:         "127.0.0.1:0",
		DrainTimeout: drain,
		Cache:        &fakeCache{rec: rec},
		Engine:       eng,
		Gate:         mgr,
		Transport:    httpapi.NewServer(httpapi.NewMux(mgr)),
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx) }()
	select {
	case <-ctrl.Ready():
	case err := <-done:
		t.Fatalf("Run exited early: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("controller never became ready")
	}
	return &httpStack{ctrl: ctrl, mgr: mgr, eng: eng, done: done, stop: cancel}
}

func (s *httpStack) url(path string) string { return fmt.Sprintf("http://%s%s", s.ctrl.Addr(), path) }

func (s *httpStack) translate(body string) (*http.Response, error) {
	return http.Post(s.url("/translate"), "application/json", bytes.NewBufferString(body))
}

func TestRun_StartupOrder(t *testing.T) {
	rec := &recorder{}
	gate := make(chan struct{})
	mgr := manager.New(manager.TranslatorFunc(func(ctx context.Context, s []string, _, _ string) ([]string, error) { return s, nil }))
	tr := &fakeTransport{rec: rec, stop: make(chan struct{})}
	ctrl, err := New(Config{
		ModelID:     "m",
		ArtifactDir: "/tmp/m",
		Addr:        "127.0.0.1:0",
		Cache:       &fakeCache{rec: rec},
		Engine:      &fakeEngine{rec: rec, gate: gate},
		Gate:        mgr,
		Transport:   tr,
		Logger:      zerolog.Nop(),
	})
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(context.Background()) }()

	// While the engine loads nothing serves and health is NOT_SERVING.
	require.Eventually(t, func() bool { return len(rec.list()) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, types.HealthNotServing, mgr.Health())
	assert.Nil(t, ctrl.Addr())
	close(gate)

	<-ctrl.Ready()
	assert.Equal(t, types.HealthServing, mgr.Health())
	assert.NotNil(t, ctrl.Addr())
	ctrl.Stop()
	ctrl.Stop()
	require.NoError(t, <-done)

	assert.Equal(t, []string{"ensure", "load", "serve", "close"}, rec.list())
	assert.Equal(t, []bool{true, false}, tr.serving)
	assert.Equal(t, types.StateStopped, ctrl.State())
}

func TestRun_EnsureFailureNeverServes(t *testing.T) {
	rec := &recorder{}
	convErr := &artifact.ConversionError{ModelID: "m", Op: "convert", Err: errors.New("disk full")}
	eng := &fakeEngine{rec: rec}
	ctrl, err := New(Config{
		Addr:      "127.0.0.1:0",
		Cache:     &fakeCache{rec: rec, err: convErr},
		Engine:    eng,
		Gate:      manager.New(nil),
		Transport: &fakeTransport{rec: rec, stop: make(chan struct{})},
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)
	err = ctrl.Run(context.Background())
	require.Error(t, err)
	assert.True(t, artifact.IsConversionError(err))
	assert.Equal(t, []string{"ensure"}, rec.list())
	assert.Equal(t, types.StateStopped, ctrl.State())
}

func TestRun_LoadFailureNeverServes(t *testing.T) {
	rec := &recorder{}
	ctrl, err := New(Config{
		Addr:      "127.0.0.1:0",
		Cache:     &fakeCache{rec: rec},
		Engine:    &fakeEngine{rec: rec, err: engine.ErrDependencyUnavailable},
		Gate:      manager.New(nil),
		Transport: &fakeTransport{rec: rec, stop: make(chan struct{})},
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)
	err = ctrl.Run(context.Background())
	assert.ErrorIs(t, err, engine.ErrDependencyUnavailable)
	assert.Equal(t, []string{"ensure", "load"}, rec.list())
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestHTTP_HealthWithoutAuth(t *testing.T) {
	httpapi.SetAPIKey("s3cret")
	defer httpapi.SetAPIKey("")
	s := startHTTP(t, newBlocking(), time.Second)

	resp, err := http.Get(s.url("/health"))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"SERVING"`)

	resp, err = s.translate(`{"sources":["Hello"]}`)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	s.stop()
	require.NoError(t, <-s.done)
}

func TestDrain_InflightCompletes(t *testing.T) {
	tr := newBlocking()
	s := startHTTP(t, tr, 2*time.Second)

	type result struct {
		code int
		body types.TranslateResponse
		err  error
	}
	first := make(chan result, 1)
	go func() {
		resp, err := s.translate(`{"sources":["Hello","World"],"srcLang":"eng_Latn","tgtLang":"fra_Latn"}`)
		if err != nil {
			first <- result{err: err}
			return
		}
		defer resp.Body.Close()
		var out types.TranslateResponse
		err = json.NewDecoder(resp.Body).Decode(&out)
		first <- result{code: resp.StatusCode, body: out, err: err}
	}()
	<-tr.started

	s.stop()
	require.Eventually(t, func() bool { return s.mgr.State() == types.StateDraining }, time.Second, time.Millisecond)

	// New work after the signal is refused.
	_, err := s.mgr.Translate(context.Background(), types.TranslateRequest{Sources: []string{"late"}})
	assert.ErrorIs(t, err, manager.ErrDraining)
	if resp, err := s.translate(`{"sources":["late"]}`); err == nil {
		resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	}

	close(tr.release)
	r := <-first
	require.NoError(t, r.err)
	assert.Equal(t, http.StatusOK, r.code)
	assert.Equal(t, []string{"[fra_Latn] Hello", "[fra_Latn] World"}, r.body.Translations)

	require.NoError(t, <-s.done)
	assert.Equal(t, types.StateStopped, s.ctrl.State())
	assert.True(t, s.eng.closed)
}

func TestDrain_AbandonsAfterTimeout(t *testing.T) {
	tr := newBlocking()
	defer close(tr.release)
	s := startHTTP(t, tr, 50*time.Millisecond)

	first := make(chan error, 1)
	go func() {
		resp, err := s.translate(`{"sources":["slow"]}`)
		if err == nil {
			resp.Body.Close()
		}
		first <- err
	}()
	<-tr.started

	start := time.Now()
	s.stop()
	err := <-s.done
	assert.ErrorIs(t, err, ErrShutdownTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, types.StateStopped, s.ctrl.State())
	assert.Error(t, s.ctrl.AbandonContext().Err())

	// The abandoned caller sees a connection error, not a structured response.
	assert.Error(t, <-first)
}

// stallEngine blocks every Generate until release is closed.
type stallEngine struct {
	started chan struct{}
	release chan struct{}
}

func (e *stallEngine) Generate(_ context.Context, source, prefix [][]string, _ engine.GenerateOptions) ([][][]string, error) {
	e.started <- struct{}{}
	<-e.release
	out := make([][][]string, len(source))
	for i := range source {
		out[i] = [][]string{prefix[i]}
	}
	return out, nil
}
func (e *stallEngine) ConcurrentSafe() bool { return false }
func (e *stallEngine) Close() error         { return nil }

type stallLoader struct{ eng *stallEngine }

func (l stallLoader) Name() string { return "stall" }
func (l stallLoader) Load(context.Context, string, engine.ComputeOptions) (engine.Engine, engine.Tokenizer, error) {
	return l.eng, passTokenizer{}, nil
}

type passTokenizer struct{}

func (passTokenizer) Encode(_ context.Context, texts []string, lang string) ([][]string, error) {
	out := make([][]string, len(texts))
	for i, s := range texts {
		out[i] = []string{lang, s, engine.EOS}
	}
	return out, nil
}
func (passTokenizer) Decode(_ context.Context, tokens [][]string) ([]string, error) {
	out := make([]string, len(tokens))
	for i := range tokens {
		out[i] = ""
	}
	return out, nil
}

func TestDrain_BoundedWhenCallerLeftMidGenerate(t *testing.T) {
	eng := &stallEngine{started: make(chan struct{}, 4), release: make(chan struct{})}
	t.Cleanup(func() { close(eng.release) })
	adapter := engine.NewAdapter(stallLoader{eng: eng}, zerolog.Nop())
	mgr := manager.New(adapter)
	rec := &recorder{}
	ctrl, err := New(Config{
		ModelID:      "m",
		ArtifactDir:  t.TempDir(),
		Addr:         "127.0.0.1:0",
		DrainTimeout: 300 * time.Millisecond,
		Cache:        &fakeCache{rec: rec},
		Engine:       adapter,
		Gate:         mgr,
		Transport:    &fakeTransport{rec: rec, stop: make(chan struct{})},
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(context.Background()) }()
	<-ctrl.Ready()

	reqCtx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	go func() { _, _ = mgr.Translate(reqCtx, types.TranslateRequest{Sources: []string{"x"}}) }()
	<-eng.started
	<-reqCtx.Done()
	// The engine is still busy, so the request keeps its admission slot.
	require.Eventually(t, func() bool { return mgr.Inflight() == 1 }, time.Second, time.Millisecond)

	start := time.Now()
	ctrl.Stop()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrShutdownTimeout)
		assert.Less(t, time.Since(start), 2*time.Second)
	case <-time.After(3 * time.Second):
		t.Fatal("Run exceeded the drain window")
	}
	assert.Equal(t, types.StateStopped, ctrl.State())
}

// stuckCloseEngine loads fine but never finishes closing.
type stuckCloseEngine struct{ release chan struct{} }

func (e *stuckCloseEngine) Load(context.Context, artifact.Artifact, engine.ComputeOptions) error {
	return nil
}
func (e *stuckCloseEngine) Close() error { <-e.release; return nil }

func TestDrain_EngineCloseBoundedByDrainTimeout(t *testing.T) {
	eng := &stuckCloseEngine{release: make(chan struct{})}
	t.Cleanup(func() { close(eng.release) })
	rec := &recorder{}
	mgr := manager.New(manager.TranslatorFunc(func(ctx context.Context, s []string, _, _ string) ([]string, error) { return s, nil }))
	ctrl, err := New(Config{
		ModelID:      "m",
		ArtifactDir:  t.TempDir(),
		Addr:         "127.0.0.1:0",
		DrainTimeout: 100 * time.Millisecond,
		Cache:        &fakeCache{rec: rec},
		Engine:       eng,
		Gate:         mgr,
		Transport:    &fakeTransport{rec: rec, stop: make(chan struct{})},
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(context.Background()) }()
	<-ctrl.Ready()

	ctrl.Stop()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrShutdownTimeout)
	case <-time.After(2 * time.Second):
		t.Fatal("Run blocked on engine close")
	}
	assert.Error(t, ctrl.AbandonContext().Err())
}
