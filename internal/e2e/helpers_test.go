package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"nllbd/internal/artifact"
	"nllbd/internal/engine"
	"nllbd/internal/lifecycle"
	"nllbd/internal/manager"
	"nllbd/internal/registry"
)

const testModel = "facebook/nllb-200-distilled-600M"

// fileConverter writes a minimal artifact and counts invocations.
type fileConverter struct {
	calls atomic.Int32
}

func (c *fileConverter) Name() string { return "file" }

func (c *fileConverter) Convert(ctx context.Context, modelID, outputDir string) error {
	c.calls.Add(1)
	return os.WriteFile(filepath.Join(outputDir, "model.bin"), []byte(modelID), 0o644)
}

// upperWorker is an engine worker whose best "translation" upper-cases every
// word.
func upperWorker(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	decode := func(r *http.Request, v any) { _ = json.NewDecoder(r.Body).Decode(v) }
	reply := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/load", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ModelDir string `json:"model_dir"`
		}
		decode(r, &req)
		if _, err := os.Stat(filepath.Join(req.ModelDir, "model.bin")); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			reply(w, map[string]string{"error": err.Error()})
			return
		}
		reply(w, map[string]bool{"concurrent": true})
	})
	mux.HandleFunc("/tokenize", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Texts []string `json:"texts"`
			Lang  string   `json:"lang"`
		}
		decode(r, &req)
		out := make([][]string, len(req.Texts))
		for i, s := range req.Texts {
			out[i] = append(append([]string{req.Lang}, strings.Fields(s)...), engine.EOS)
		}
		reply(w, map[string]any{"tokens": out})
	})
	mux.HandleFunc("/translate_batch", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Source       [][]string `json:"source"`
			TargetPrefix [][]string `json:"target_prefix"`
		}
		decode(r, &req)
		// Two candidates per source, best first.
		out := make([][][]string, len(req.Source))
		for i, src := range req.Source {
			hyp := append([]string{}, req.TargetPrefix[i]...)
			for _, tok := range src[1 : len(src)-1] {
				hyp = append(hyp, strings.ToUpper(tok))
			}
			out[i] = [][]string{hyp, append(append([]string{}, hyp...), "RUNNER-UP")}
		}
		reply(w, map[string]any{"hypotheses": out})
	})
	mux.HandleFunc("/detokenize", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Tokens [][]string `json:"tokens"`
		}
		decode(r, &req)
		out := make([]string, len(req.Tokens))
		for i, toks := range req.Tokens {
			var words []string
			for _, tok := range toks {
				if tok != engine.EOS && !registry.IsFlores(tok) {
					words = append(words, tok)
				}
			}
			out[i] = strings.Join(words, " ")
		}
		reply(w, map[string]any{"texts": out})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// stack is a running server assembled from the production components.
type stack struct {
	ctrl *lifecycle.Controller
	mgr  *manager.Manager
	conv *fileConverter
	done chan error
	stop context.CancelFunc

	once   sync.Once
	runErr error
}

type stackOptions struct {
	artifactDir string
	transport   func(mgr *manager.Manager) lifecycle.Transport
	mgrConfig   manager.ManagerConfig
}

func startStack(t *testing.T, o stackOptions) *stack {
	t.Helper()
	worker := upperWorker(t)
	if o.artifactDir == "" {
		o.artifactDir = filepath.Join(t.TempDir(), "artifact")
	}
	conv := &fileConverter{}
	loader, err := engine.NewLoader(engine.LoaderConfig{Backend: "remote", URL: worker.URL, ReadyTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("loader: %v", err)
	}
	adapter := engine.NewAdapter(loader, zerolog.Nop())
	mc := o.mgrConfig
	mc.Translator = adapter
	mc.Languages = registry.New()
	mc.ModelID = testModel
	mc.ArtifactDir = o.artifactDir
	mc.Engine = adapter.Backend()
	mgr := manager.NewWithConfig(mc)

	ctrl, err := lifecycle.New(lifecycle.Config{
		ModelID:      testModel,
		ArtifactDir:  o.artifactDir,
		Addr:         "127.0.0.1:0",
		DrainTimeout: 2 * time.Second,
		Cache:        artifact.New(artifact.Config{Converter: conv, Logger: zerolog.Nop()}),
		Engine:       adapter,
		Gate:         mgr,
		Transport:    o.transport(mgr),
		Logger:       zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &stack{ctrl: ctrl, mgr: mgr, conv: conv, done: make(chan error, 1), stop: cancel}
	go func() { s.done <- ctrl.Run(ctx) }()
	t.Cleanup(func() { _ = s.shutdown(t) })
	select {
	case <-ctrl.Ready():
	case err := <-s.done:
		s.once.Do(func() { s.runErr = err })
		t.Fatalf("Run exited before ready: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("server never became ready")
	}
	return s
}

// shutdown stops the stack and returns Run's result.
func (s *stack) shutdown(t *testing.T) error {
	t.Helper()
	s.once.Do(func() {
		s.stop()
		select {
		case s.runErr = <-s.done:
		case <-time.After(5 * time.Second):
			t.Error("Run did not return after cancel")
		}
	})
	return s.runErr
}

func (s *stack) url(path string) string { return fmt.Sprintf("http://%s%s", s.ctrl.Addr(), path) }

func httpGet(t *testing.T, url string, hdr map[string]string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	return do(t, req)
}

func httpPostJSON(t *testing.T, url string, payload string, hdr map[string]string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewBufferString(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	return do(t, req)
}

func do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}
