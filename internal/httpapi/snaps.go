package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ent0n29/meetingsnap/internal/config"
	"github.com/ent0n29/meetingsnap/internal/export"
	"github.com/ent0n29/meetingsnap/internal/extractor"
	"github.com/ent0n29/meetingsnap/internal/policy"
	"github.com/ent0n29/meetingsnap/internal/provider"
	"github.com/ent0n29/meetingsnap/internal/snapshot"
	"github.com/ent0n29/meetingsnap/internal/store"
)

type outcome int

const (
	outcomeSnapped outcome = iota
	outcomeEmpty
	outcomeDenied
	outcomeRejected
)

// snapRun is the result of one pass through the pipeline.
type snapRun struct {
	outcome  outcome
	message  string
	result   extractor.Result
	record   store.Record
	snapshot snapshot.Snapshot
}

type pageData struct {
	Snapshot    snapshot.Snapshot
	Transcript  string
	MaxChars    int
	ModelAssist bool
	Fallback    bool
	Error       string
}

type createSnapRequest struct {
	Transcript string `json:"transcript"`
}

type snapResponse struct {
	ID       string            `json:"id,omitempty"`
	Path     string            `json:"path"`
	Fallback bool              `json:"fallback"`
	Snapshot snapshot.Snapshot `json:"snapshot"`
	Digest   string            `json:"digest"`
}

// modelAssist reports whether a snapshot came from a model-backed provider.
func modelAssist(path string) bool {
	path = strings.TrimSpace(path)
	return path != "" && path != provider.IDLogic && path != extractor.PathFallback
}

// snap runs admission, input review, extraction and caching for one
// transcript. cfg is read once by the caller.
func (s *Server) snap(ctx context.Context, cfg config.Config, ident, text string) snapRun {
	s.metrics.Requests.Inc()

	limiter, err := s.limiters.For(cfg.RateLimit, cfg.RateWindow)
	if err != nil {
		s.logger.Warn("rate limiter settings rejected, keeping previous limiter", zap.Error(err))
		limiter = s.limiters.Current()
	}
	if !limiter.Admit(ident, s.now()) {
		s.metrics.RateLimitHits.Inc()
		s.latency.ObserveOutcome("rate_limited")
		return snapRun{
			outcome:  outcomeDenied,
			message:  fmt.Sprintf("Too many snaps. Try again in %s.", cfg.RateWindow),
			snapshot: snapshot.Empty(),
		}
	}

	decision := policy.ReviewInput(text, cfg.MaxChars)
	switch {
	case decision.Empty:
		return snapRun{outcome: outcomeEmpty, snapshot: snapshot.Empty()}
	case decision.Rejected:
		s.metrics.InputRejections.WithLabelValues(decision.Reason).Inc()
		s.latency.ObserveOutcome("rejected")
		return snapRun{outcome: outcomeRejected, message: decision.Message, snapshot: snapshot.Empty()}
	}

	clean := policy.PlainText(text)
	if strings.TrimSpace(clean) == "" {
		return snapRun{outcome: outcomeEmpty, snapshot: snapshot.Empty()}
	}

	res := s.extractor.Extract(ctx, clean, cfg.Provider, cfg.Timeout)
	s.recordExtraction(res)
	s.logger.Debug("snapshot extracted",
		zap.String("path", res.Path),
		zap.Bool("empty", res.Snapshot.IsEmpty()),
		zap.Strings("pii_kinds", decision.PIIKinds),
		zap.String("preview", policy.LogPreview(clean)),
	)

	rec, err := s.snaps.Save(ctx, store.Record{Identity: ident, Snapshot: res.Snapshot, Path: res.Path})
	if err != nil {
		s.logger.Error("save snapshot failed", zap.String("store", s.snaps.Mode()), zap.Error(err))
		rec = store.Record{Snapshot: res.Snapshot, Path: res.Path}
		rec.Digest, _ = snapshot.Digest(res.Snapshot)
	}
	return snapRun{outcome: outcomeSnapped, result: res, record: rec, snapshot: res.Snapshot}
}

func (s *Server) recordExtraction(res extractor.Result) {
	s.metrics.ObserveSnap(res.Path)
	s.metrics.ObserveRepairs(res.Report)
	if res.Provider != provider.IDLogic {
		kind := ""
		if res.ProviderErr != nil {
			kind = string(res.ProviderErr.Kind)
		}
		s.metrics.ObserveProviderCall(res.Provider, kind, res.Latency)
	}
	s.latency.Observe(res.Path, res.Latency)
	s.latency.ObserveOutcome(res.Path)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	cfg := s.live.Current()
	data := pageData{
		Snapshot:    snapshot.Empty(),
		MaxChars:    cfg.MaxChars,
		ModelAssist: modelAssist(cfg.Provider),
	}
	rec, err := s.snaps.Latest(r.Context(), identity(r))
	switch {
	case err == nil:
		data.Snapshot = rec.Snapshot
		data.ModelAssist = modelAssist(rec.Path)
		data.Fallback = rec.Path == extractor.PathFallback
	case !errors.Is(err, store.ErrNotFound):
		s.logger.Error("load latest snapshot failed", zap.Error(err))
	}
	s.render(w, http.StatusOK, data)
}

func (s *Server) handleSnapForm(w http.ResponseWriter, r *http.Request) {
	cfg := s.live.Current()
	text := r.PostFormValue("transcript")
	run := s.snap(r.Context(), cfg, identity(r), text)

	data := pageData{
		Snapshot:    run.snapshot,
		Transcript:  text,
		MaxChars:    cfg.MaxChars,
		ModelAssist: modelAssist(cfg.Provider),
		Error:       run.message,
	}
	status := http.StatusOK
	switch run.outcome {
	case outcomeDenied:
		status = http.StatusTooManyRequests
	case outcomeRejected:
		status = http.StatusBadRequest
	case outcomeEmpty:
		data.Transcript = ""
	case outcomeSnapped:
		data.ModelAssist = modelAssist(run.result.Path)
		data.Fallback = run.result.Fallback()
	}
	s.render(w, status, data)
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		s.logger.Error("render page failed", zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	snap := snapshot.Empty()
	rec, err := s.snaps.Latest(r.Context(), identity(r))
	switch {
	case err == nil:
		snap = rec.Snapshot
	case !errors.Is(err, store.ErrNotFound):
		s.logger.Error("load latest snapshot failed", zap.Error(err))
	}

	digest := rec.Digest
	if digest == "" {
		if digest, err = snapshot.Digest(snap); err != nil {
			http.Error(w, "digest failed", http.StatusInternalServerError)
			return
		}
	}
	etag := `"` + digest + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="meeting-snap.md"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Markdown(snap))
}

func (s *Server) handleCreateSnap(w http.ResponseWriter, r *http.Request) {
	var req createSnapRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	run := s.snap(r.Context(), s.live.Current(), identity(r), req.Transcript)
	switch run.outcome {
	case outcomeDenied:
		respondError(w, http.StatusTooManyRequests, "rate_limited", run.message)
	case outcomeRejected:
		respondError(w, http.StatusBadRequest, policy.ReasonTooLong, run.message)
	case outcomeEmpty:
		respondError(w, http.StatusBadRequest, "empty_transcript", "transcript is required")
	default:
		respondJSON(w, http.StatusOK, snapResponse{
			ID:       run.record.ID,
			Path:     run.result.Path,
			Fallback: run.result.Fallback(),
			Snapshot: run.snapshot,
			Digest:   run.record.Digest,
		})
	}
}

func (s *Server) handleLatestSnap(w http.ResponseWriter, r *http.Request) {
	rec, err := s.snaps.Latest(r.Context(), identity(r))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "no snapshot for this caller yet")
			return
		}
		s.logger.Error("load latest snapshot failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "store_error", "could not load snapshot")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}
