package httpapi

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ent0n29/meetingsnap/internal/config"
	"github.com/ent0n29/meetingsnap/internal/extractor"
	"github.com/ent0n29/meetingsnap/internal/observability"
	"github.com/ent0n29/meetingsnap/internal/provider"
	"github.com/ent0n29/meetingsnap/internal/ratelimit"
	"github.com/ent0n29/meetingsnap/internal/store"
)

//go:embed templates/index.html
var templateFS embed.FS

// Extractor turns a transcript into a validated snapshot. It never fails.
type Extractor interface {
	Extract(ctx context.Context, text, providerID string, timeout time.Duration) extractor.Result
}

type Server struct {
	live      *config.Live
	extractor Extractor
	limiters  *ratelimit.Switch
	snaps     store.Store
	metrics   *observability.Metrics
	latency   *observability.LatencyWindow
	logger    *zap.Logger
	page      *template.Template
	now       func() time.Time
}

func New(live *config.Live, ex Extractor, limiters *ratelimit.Switch, snaps store.Store, metrics *observability.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	page := template.Must(template.New("index.html").Funcs(template.FuncMap{
		"deref": func(p *string) string {
			if p == nil {
				return ""
			}
			return *p
		},
	}).ParseFS(templateFS, "templates/index.html"))

	s := &Server{
		live:      live,
		extractor: ex,
		limiters:  limiters,
		snaps:     snaps,
		metrics:   metrics,
		latency:   observability.NewLatencyWindow(256),
		logger:    logger,
		page:      page,
		now:       time.Now,
	}
	s.setLatencyTargets(live.Current())
	return s
}

// setLatencyTargets reports the provider timeout as the p95 budget for the
// model-backed paths.
func (s *Server) setLatencyTargets(cfg config.Config) {
	for _, id := range []string{provider.IDFake, provider.IDOpenAI} {
		s.latency.SetTarget(id, cfg.Timeout)
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if s.live.Current().TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/snap", s.handleSnapForm)
	r.Get("/download.md", s.handleDownload)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		s.metrics.Handler().ServeHTTP(w, r)
	})

	r.Post("/v1/snaps", s.handleCreateSnap)
	r.Get("/v1/snaps/latest", s.handleLatestSnap)
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	cfg := s.live.Current()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"provider":   cfg.Provider,
		"store_mode": s.snaps.Mode(),
	})
}

// handleReady reports both the configured limits and the ones the active
// limiter enforces; they differ after a reload until the next snap.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	cfg := s.live.Current()
	active := s.limiters.Current()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":             "ready",
		"provider":           cfg.Provider,
		"store_mode":         s.snaps.Mode(),
		"rate_limit":         cfg.RateLimit,
		"rate_window":        cfg.RateWindow.String(),
		"active_rate_limit":  active.Limit(),
		"active_rate_window": active.Window().String(),
	})
}

func (s *Server) handlePerfLatency(w http.ResponseWriter, _ *http.Request) {
	s.setLatencyTargets(s.live.Current())
	respondJSON(w, http.StatusOK, s.latency.Snapshot())
}

// identity keys rate limiting and the snapshot cache. RealIP, when enabled,
// has already rewritten RemoteAddr.
func identity(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
