package indexing

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchgate/internal/domain"
	domdoc "github.com/kailas-cloud/searchgate/internal/domain/document"
	"github.com/kailas-cloud/searchgate/internal/engine"
	"github.com/kailas-cloud/searchgate/internal/tracing"
)

// Defaults for indexer sessions.
const (
	DefaultIndexPrefix = "backstage"
	DefaultBatchSize   = 100
)

const knownIndexCacheSize = 256

// Config controls index naming and batching.
type Config struct {
	IndexPrefix string
	BatchSize   int
	// Schema is used when an index is created. Nil uses engine.DefaultSchema.
	Schema *engine.IndexDefinition
}

// Service hands out per-type indexers sharing one engine client and one
// cache of indices known to exist.
type Service struct {
	engine Engine
	cfg    Config
	known  *lru.Cache[string, struct{}]
	now    func() time.Time
	logger *zap.Logger
}

// New creates an indexing service.
func New(e Engine, cfg Config, logger *zap.Logger) (*Service, error) {
	if cfg.IndexPrefix == "" {
		cfg.IndexPrefix = DefaultIndexPrefix
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Schema == nil {
		cfg.Schema = engine.DefaultSchema()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	known, err := lru.New[string, struct{}](knownIndexCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create index cache: %w", err)
	}

	return &Service{
		engine: e,
		cfg:    cfg,
		known:  known,
		now:    time.Now,
		logger: logger,
	}, nil
}

// WithClock overrides the timestamp source used to stamp documents.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// BatchSize is the configured flush threshold.
func (s *Service) BatchSize() int { return s.cfg.BatchSize }

// IndexName returns the physical index for a document type.
func (s *Service) IndexName(docType string) string {
	return s.cfg.IndexPrefix + "-" + docType
}

// Indexer opens a new indexing session for a document type.
func (s *Service) Indexer(docType string) (*Indexer, error) {
	if docType == "" {
		docType = domdoc.DefaultType
	}
	if err := domdoc.ValidateType(docType); err != nil {
		return nil, err
	}
	index := s.IndexName(docType)
	if !engine.IsValidIndexName(index) {
		return nil, fmt.Errorf("%w: index name %q", domain.ErrInvalidType, index)
	}
	return newIndexer(s, docType, index), nil
}

// ensureIndex creates the index with the full schema on first use. Known
// indices are cached so later sessions skip the existence probe.
func (s *Service) ensureIndex(ctx context.Context, index string) error {
	if s.known.Contains(index) {
		return nil
	}

	ctx, span := tracing.Tracer().Start(ctx, "indexer.EnsureIndex")
	defer span.End()
	span.SetAttributes(attribute.String("index", index))

	exists, err := s.engine.IndexExists(ctx, index)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("check index %s: %w", index, err)
	}
	if !exists {
		err := s.engine.CreateIndex(ctx, index, s.cfg.Schema)
		switch {
		case err == nil:
			s.logger.Info("created index", zap.String("index", index))
		case errors.Is(err, engine.ErrIndexExists):
		default:
			span.RecordError(err)
			return fmt.Errorf("create index %s: %w", index, err)
		}
	}

	s.known.Add(index, struct{}{})
	return nil
}

// forget drops an index from the known cache so the next flush re-probes it.
func (s *Service) forget(index string) {
	s.known.Remove(index)
}
