package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchgate/internal/config"
	dbRedis "github.com/kailas-cloud/searchgate/internal/db/redis"
	"github.com/kailas-cloud/searchgate/internal/engine/opensearch"
	logpkg "github.com/kailas-cloud/searchgate/internal/logger"
	"github.com/kailas-cloud/searchgate/internal/metrics"
	"github.com/kailas-cloud/searchgate/internal/repository/journal"
	"github.com/kailas-cloud/searchgate/internal/tracing"
	healthuc "github.com/kailas-cloud/searchgate/internal/usecase/health"
	"github.com/kailas-cloud/searchgate/internal/usecase/indexing"
	"github.com/kailas-cloud/searchgate/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/searchgate/internal/usecase/search"
	"github.com/kailas-cloud/searchgate/internal/version"
)

// app is the composition root shared by every command.
type app struct {
	env     string
	cfg     config.Config
	logger  *zap.Logger
	engine  *opensearch.Client
	store   *dbRedis.Store
	journal *journal.Repo

	indexing *indexing.Service
	search   *searchuc.Service
	ingest   *ingest.Service
	health   *healthuc.Service

	shutdownTracing tracing.ShutdownFunc
}

func newApp(ctx context.Context, env string) (*app, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	a := &app{env: env, cfg: cfg, logger: logger}

	a.shutdownTracing, err = tracing.Init(ctx, tracing.Config{
		Enabled:        cfg.Tracing.Enabled,
		Endpoint:       cfg.Tracing.Endpoint,
		SampleRatio:    cfg.Tracing.SampleRatio,
		ServiceName:    "searchgate",
		ServiceVersion: version.Version,
		Environment:    env,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	metrics.Register()

	a.engine, err = opensearch.NewClient(ctx, opensearch.Config{
		Addresses:      []string{cfg.Engine.Endpoint},
		Auth:           opensearch.AuthType(cfg.Engine.Auth.Type),
		Username:       cfg.Engine.Auth.Username,
		Password:       cfg.Engine.Auth.Password,
		Region:         cfg.Engine.Auth.Region,
		Service:        cfg.Engine.Auth.Service,
		VerifyHostname: cfg.Engine.TLS.Verify(),
		CAFile:         cfg.Engine.TLS.CAFile,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create engine client: %w", err)
	}

	if cfg.Journal.Enabled || cfg.Stream.Enabled {
		a.store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.Journal.Addrs,
			Password:   cfg.Journal.Password,
			Standalone: cfg.Journal.Standalone,
		})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("create journal store: %w", err)
		}
	}
	if cfg.Journal.Enabled {
		a.journal = journal.New(a.store, cfg.Journal.KeyPrefix)
	}

	a.indexing, err = indexing.New(a.engine, indexing.Config{
		IndexPrefix: cfg.Engine.IndexPrefix,
		BatchSize:   cfg.Engine.BatchSize,
	}, logger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create indexing service: %w", err)
	}

	facets := make([]searchuc.FacetConfig, len(cfg.Search.Facets))
	for i, f := range cfg.Search.Facets {
		facets[i] = searchuc.FacetConfig{Name: f.Name, Field: f.Field, Size: f.Size, Missing: f.Missing}
	}
	a.search = searchuc.New(a.engine, searchuc.Config{
		IndexPrefix:     cfg.Engine.IndexPrefix,
		ExcludedKind:    cfg.Search.ExcludedKind,
		KeywordSuffix:   cfg.Search.KeywordSuffix,
		DefaultPageSize: cfg.Search.DefaultPageSize,
		MaxPageSize:     cfg.Search.MaxPageSize,
		MaxResultWindow: cfg.Search.MaxResultWindow,
		Facets:          facets,
	}, logger.Named("search"))

	a.ingest = ingest.New(a.indexing, a.engine, logger).
		WithMaxConcurrency(cfg.Engine.MaxConcurrency)

	// Pass nil interface (not typed nil pointer) when the journal is off.
	var journalPinger healthuc.Pinger
	if a.journal != nil {
		a.ingest.WithJournal(a.journal)
		journalPinger = a.journal
	}
	a.health = healthuc.New(a.engine, journalPinger)

	return a, nil
}

// waitForReady blocks until the engine and the journal store answer.
func (a *app) waitForReady(ctx context.Context) error {
	timeout := time.Duration(a.cfg.Engine.ReadinessTimeout) * time.Second
	if err := a.engine.WaitForReady(ctx, timeout); err != nil {
		return fmt.Errorf("engine not ready: %w", err)
	}
	a.logger.Info("Connected to search engine", zap.String("endpoint", a.cfg.Engine.Endpoint))

	if a.store != nil {
		if err := a.store.WaitForReady(ctx, timeout); err != nil {
			return fmt.Errorf("journal store not ready: %w", err)
		}
		a.logger.Info("Connected to journal store", zap.Strings("addrs", a.cfg.Journal.Addrs))
	}
	return nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	if a.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdownTracing(ctx); err != nil {
			a.logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
