// Package extractor runs the configured provider under a deadline and falls
// back to the rule-based parser on any provider failure.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ent0n29/meetingsnap/internal/logic"
	"github.com/ent0n29/meetingsnap/internal/policy"
	"github.com/ent0n29/meetingsnap/internal/provider"
	"github.com/ent0n29/meetingsnap/internal/snapshot"
)

// PathFallback marks a result produced by the rule-based parser after a
// provider failure.
const PathFallback = "fallback"

// Result is the outcome of one extraction.
type Result struct {
	Snapshot snapshot.Snapshot
	// Path is the provider ID that produced Snapshot, or PathFallback.
	Path string
	// Provider is the configured provider ID.
	Provider    string
	ProviderErr *provider.Error
	Latency     time.Duration
	Report      snapshot.Report
}

// Fallback reports whether the provider failed and the parser was used.
func (r Result) Fallback() bool { return r.Path == PathFallback }

type Orchestrator struct {
	registry *provider.Registry
	logger   *zap.Logger
}

func New(registry *provider.Registry, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{registry: registry, logger: logger}
}

// Extract never fails. The returned snapshot is always validated.
func (o *Orchestrator) Extract(ctx context.Context, text, providerID string, timeout time.Duration) Result {
	id := provider.Normalize(providerID)
	if id == provider.IDLogic {
		start := time.Now()
		snap, rep := snapshot.ValidateWithReport(logic.Extract(text))
		return Result{Snapshot: snap, Path: provider.IDLogic, Provider: id, Latency: time.Since(start), Report: rep}
	}

	start := time.Now()
	raw, perr := o.call(ctx, id, text, timeout)
	latency := time.Since(start)

	if perr != nil {
		o.logger.Warn("provider failed, using rule-based fallback",
			zap.String("provider", id),
			zap.String("kind", string(perr.Kind)),
			zap.String("error", policy.SanitizeForLog(perr.Error(), 200)),
			zap.Duration("latency", latency),
		)
		snap, rep := snapshot.ValidateWithReport(logic.Extract(text))
		return Result{Snapshot: snap, Path: PathFallback, Provider: id, ProviderErr: perr, Latency: latency, Report: rep}
	}

	snap, rep := snapshot.ValidateWithReport(raw)
	if rep.Repaired() {
		o.logger.Debug("provider output repaired",
			zap.String("provider", id),
			zap.Int("decisions_dropped", rep.DecisionsDropped),
			zap.Int("decisions_truncated", rep.DecisionsTruncated),
			zap.Int("entries_dropped", rep.EntriesDropped),
			zap.Int("actions_dropped", rep.ActionsDropped),
		)
	}
	return Result{Snapshot: snap, Path: id, Provider: id, Latency: latency, Report: rep}
}

type callResult struct {
	raw map[string]any
	err error
}

// call runs the provider in its own goroutine so a provider that ignores its
// context still yields a timeout once the deadline passes.
func (o *Orchestrator) call(ctx context.Context, id, text string, timeout time.Duration) (map[string]any, *provider.Error) {
	p, err := o.registry.Resolve(id)
	if err != nil {
		return nil, provider.AsError(id, err)
	}

	callCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callResult{err: fmt.Errorf("provider panic: %v", r)}
			}
		}()
		raw, err := p.Extract(callCtx, text)
		done <- callResult{raw: raw, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, provider.AsError(id, res.err)
		}
		return res.raw, nil
	case <-callCtx.Done():
		err := callCtx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &provider.Error{Provider: id, Kind: provider.KindTimeout, Err: fmt.Errorf("no response within %s", timeout)}
		}
		return nil, provider.AsError(id, err)
	}
}
