package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ent0n29/meetingsnap/internal/config"
	"github.com/ent0n29/meetingsnap/internal/extractor"
	"github.com/ent0n29/meetingsnap/internal/httpapi"
	"github.com/ent0n29/meetingsnap/internal/observability"
	"github.com/ent0n29/meetingsnap/internal/provider"
	"github.com/ent0n29/meetingsnap/internal/ratelimit"
	"github.com/ent0n29/meetingsnap/internal/store"
)

type BuildResult struct {
	Live      *config.Live
	API       *httpapi.Server
	Extractor *extractor.Orchestrator
	Registry  *provider.Registry
	Limiters  *ratelimit.Switch
	Store     store.Store
	Metrics   *observability.Metrics

	// Cleanup should be called on shutdown to release the snapshot store.
	Cleanup func() error
}

// NewRegistry registers every provider the service knows about. Token usage
// reported by the openai adapter feeds metrics when metrics is non-nil.
func NewRegistry(cfg config.Config, metrics *observability.Metrics) *provider.Registry {
	openai := provider.NewOpenAIProvider(provider.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		OnUsage: func(u provider.Usage) {
			if metrics != nil {
				metrics.ObserveTokens(provider.IDOpenAI, u.TotalTokens)
			}
		},
	})
	return provider.NewRegistry(provider.NewLogicProvider(), provider.NewFakeProvider(), openai)
}

// ProviderCheck rejects configurations naming a provider the registry cannot
// resolve.
func ProviderCheck(registry *provider.Registry) func(config.Config) error {
	return func(cfg config.Config) error {
		if _, err := registry.Resolve(cfg.Provider); err != nil {
			return err
		}
		return nil
	}
}

// Build wires the service from cfg. load re-reads configuration on reload;
// nil re-reads cfg.ConfigFile and the environment.
func Build(ctx context.Context, cfg config.Config, load func() (config.Config, error), logger *zap.Logger) (*BuildResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	registry := NewRegistry(cfg, metrics)

	check := ProviderCheck(registry)
	if err := check(cfg); err != nil {
		return nil, fmt.Errorf("provider resolution failed: %w", err)
	}
	if p, err := registry.Resolve(provider.IDOpenAI); err == nil {
		if openai, ok := p.(*provider.OpenAIProvider); ok {
			logger.Debug("openai provider registered",
				zap.String("model", openai.Model()),
				zap.Bool("active", cfg.Provider == provider.IDOpenAI),
			)
		}
	}

	limiters, err := ratelimit.NewSwitch(cfg.RateLimit, cfg.RateWindow)
	if err != nil {
		return nil, fmt.Errorf("rate limiter init failed: %w", err)
	}

	snaps, err := store.NewStore(ctx, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("snapshot store init failed: %w", err)
	}

	live := config.NewLive(cfg, load, check)
	orchestrator := extractor.New(registry, logger.Named("extractor"))
	api := httpapi.New(live, orchestrator, limiters, snaps, metrics, logger.Named("http"))

	cleanup := func() error {
		var errs []string
		if err := snaps.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if len(errs) > 0 {
			return fmt.Errorf("%s", strings.Join(errs, "; "))
		}
		return nil
	}

	return &BuildResult{
		Live:      live,
		API:       api,
		Extractor: orchestrator,
		Registry:  registry,
		Limiters:  limiters,
		Store:     snaps,
		Metrics:   metrics,
		Cleanup:   cleanup,
	}, nil
}
