package searchgate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchgate/internal/engine/opensearch"
	"github.com/kailas-cloud/searchgate/internal/usecase/health"
	"github.com/kailas-cloud/searchgate/internal/usecase/indexing"
	searchuc "github.com/kailas-cloud/searchgate/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces for substitution in tests.
type searchUseCase interface {
	Query(ctx context.Context, q Query) (Page, error)
}

type indexSession interface {
	Accept(ctx context.Context, doc Document) error
	Flush(ctx context.Context) (indexing.FlushReport, error)
	Close(ctx context.Context) (Report, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Client is the embedded searchgate entry point.
type Client struct {
	engine     pinger
	searchSvc  searchUseCase
	newIndexer func(docType string) (indexSession, error)
	healthSvc  healthUseCase
	obs        *observer
}

// New creates a Client and waits for the cluster to answer.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{auth: string(opensearch.AuthNone)}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("searchgate: endpoint required (use WithEndpoint)")
	}

	engine, err := opensearch.NewClient(ctx, opensearch.Config{
		Addresses:      cfg.addrs,
		Auth:           opensearch.AuthType(cfg.auth),
		Username:       cfg.username,
		Password:       cfg.password,
		Region:         cfg.region,
		Service:        cfg.service,
		VerifyHostname: !cfg.insecureSkipVerify,
		CAFile:         cfg.caFile,
	})
	if err != nil {
		return nil, fmt.Errorf("searchgate: create engine client: %w", err)
	}

	if err := engine.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		return nil, fmt.Errorf("searchgate: engine not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	return wireClient(engine, cfg, obs)
}

func wireClient(engine *opensearch.Client, cfg *clientConfig, obs *observer) (*Client, error) {
	// Internal services log through zap; client callers get slog via the observer.
	logger := zap.NewNop()

	idxSvc, err := indexing.New(engine, indexing.Config{
		IndexPrefix: cfg.indexPrefix,
		BatchSize:   cfg.batchSize,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("searchgate: %w", err)
	}

	prefix := cfg.indexPrefix
	if prefix == "" {
		prefix = indexing.DefaultIndexPrefix
	}
	searchSvc := searchuc.New(engine, searchuc.Config{IndexPrefix: prefix}, logger)

	return &Client{
		engine:    engine,
		searchSvc: searchSvc,
		newIndexer: func(docType string) (indexSession, error) {
			ix, err := idxSvc.Indexer(docType)
			if err != nil {
				return nil, err
			}
			return ix, nil
		},
		healthSvc: health.New(engine, nil),
		obs:       obs,
	}, nil
}

// Ping checks cluster connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.engine.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search runs q across every document type.
func (c *Client) Search(ctx context.Context, q Query) (page Page, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	page, err = c.searchSvc.Query(ctx, q)
	if err != nil {
		return Page{}, fmt.Errorf("search: %w", err)
	}
	return page, nil
}

// Indexer opens an indexing session for docType. An empty type uses DefaultType.
func (c *Client) Indexer(docType string) (*Indexer, error) {
	if docType == "" {
		docType = DefaultType
	}
	s, err := c.newIndexer(docType)
	if err != nil {
		return nil, fmt.Errorf("indexer %s: %w", docType, err)
	}
	return &Indexer{session: s, docType: docType, obs: c.obs}, nil
}

// Index writes docs in one session. Documents are validated up front so a
// bad one rejects the whole call before anything is written.
func (c *Client) Index(ctx context.Context, docType string, docs []Document) (report Report, err error) {
	for i := range docs {
		if err := docs[i].Validate(); err != nil {
			return Report{}, fmt.Errorf("document %d: %w", i, err)
		}
	}

	ix, err := c.Indexer(docType)
	if err != nil {
		return Report{}, err
	}
	for i := range docs {
		if err := ix.Accept(ctx, docs[i]); err != nil {
			report, _ = ix.Close(ctx)
			return report, err
		}
	}
	return ix.Close(ctx)
}
