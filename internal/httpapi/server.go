package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nllbd/internal/manager"
	"nllbd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Handle(ctx context.Context, raw []byte) (types.TranslateResponse, error)
	Status() types.StatusResponse
	Health() types.HealthStatus
	Languages() []types.Language
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Health stays unauthenticated so orchestrators can probe it.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		h := svc.Health()
		code := http.StatusOK
		if h != types.HealthServing {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, types.HealthResponse{Status: h})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not serving"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	r.Group(func(r chi.Router) {
		r.Use(requireAPIKey)

		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, svc.Status())
		})

		r.Get("/languages", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, types.LanguagesResponse{Languages: svc.Languages()})
		})

		r.Post("/translate", translateHandler(svc))
	})

	return r
}

// translateHandler godoc
// @Summary      Translate a batch of texts
// @Description  Translates every source from src_lang to tgt_lang, preserving order.
// @Tags         translate
// @Accept       json
// @Produce      json
// @Param        request  body      types.TranslateRequest  true  "Sources and language tags"
// @Success      200      {object}  types.TranslateResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      401      {object}  types.ErrorResponse
// @Failure      415      {object}  types.ErrorResponse
// @Failure      429      {object}  types.ErrorResponse
// @Failure      500      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Security     BearerAuth
// @Router       /translate [post]
func translateHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tl := newTranslateLog(r)
		// Content-Type check
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			tl.end(http.StatusUnsupportedMediaType, 0, nil)
			return
		}
		// Limit body size (configurable, default 1MiB)
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
				tl.end(http.StatusRequestEntityTooLarge, 0, err)
				return
			}
			writeJSONError(w, http.StatusBadRequest, "failed to read request body")
			tl.end(http.StatusBadRequest, 0, err)
			return
		}

		// Join server base context with request context so a forced shutdown
		// cancels work too.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if translateTimeout > 0 {
			var tcancel context.CancelFunc
			ctx, tcancel = context.WithTimeout(ctx, time.Duration(translateTimeout)*time.Second)
			defer tcancel()
		}

		resp, err := svc.Handle(ctx, raw)
		if err != nil {
			// If the client went away there is nobody to answer.
			if r.Context().Err() != nil {
				tl.end(499, 0, err)
				return
			}
			code := statusFor(err)
			if code == http.StatusTooManyRequests {
				IncrementBackpressure("queue")
			}
			writeJSONError(w, code, err.Error())
			tl.end(code, 0, err)
			return
		}
		resp.Translation = resp.Translations
		writeJSON(w, http.StatusOK, resp)
		tl.end(http.StatusOK, len(resp.Translations), nil)
	}
}

// compile-time check that the manager satisfies the HTTP service contract
var _ Service = (*manager.Manager)(nil)
