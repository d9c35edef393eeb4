package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/searchgate/internal/domain"
	domdoc "github.com/kailas-cloud/searchgate/internal/domain/document"
	"github.com/kailas-cloud/searchgate/internal/engine"
	"github.com/kailas-cloud/searchgate/internal/usecase/indexing"
)

// DefaultMaxConcurrency bounds parallel type reindexing.
const DefaultMaxConcurrency = 5

// Service feeds pushed or journaled documents into indexer sessions.
type Service struct {
	indexers       Indexers
	deleter        DocumentDeleter
	journal        Journal
	maxConcurrency int
	now            func() time.Time
	logger         *zap.Logger
}

// New creates an ingest service without a journal.
func New(idx Indexers, del DocumentDeleter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		indexers:       idx,
		deleter:        del,
		maxConcurrency: DefaultMaxConcurrency,
		now:            time.Now,
		logger:         logger.Named("ingest"),
	}
}

// WithJournal enables journaling and replay.
func (s *Service) WithJournal(j Journal) *Service {
	s.journal = j
	return s
}

// WithMaxConcurrency sets how many types ReindexAll rebuilds at once.
func (s *Service) WithMaxConcurrency(n int) *Service {
	if n > 0 {
		s.maxConcurrency = n
	}
	return s
}

// WithClock overrides the journal timestamp source.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// JournalEnabled reports whether documents are journaled.
func (s *Service) JournalEnabled() bool { return s.journal != nil }

// IndexDocuments journals docs when enabled, then writes them through one
// indexer session. Documents without identity reject the whole request.
func (s *Service) IndexDocuments(
	ctx context.Context, docType string, docs []domdoc.Document,
) (indexing.Report, error) {
	if docType == "" {
		docType = domdoc.DefaultType
	}
	for i := range docs {
		if err := docs[i].Validate(); err != nil {
			return indexing.Report{}, fmt.Errorf("document %d: %w", i, err)
		}
	}

	ix, err := s.indexers.Indexer(docType)
	if err != nil {
		return indexing.Report{}, err
	}

	if s.journal != nil {
		if err := s.journal.Put(ctx, docType, docs, s.now()); err != nil {
			return indexing.Report{}, fmt.Errorf("journal: %w", err)
		}
	}

	return s.drain(ctx, ix, docs)
}

// DeleteDocument removes a document from the index and the journal. It is
// not found only when neither holds it.
func (s *Service) DeleteDocument(ctx context.Context, docType, id string) error {
	if docType == "" {
		docType = domdoc.DefaultType
	}
	if err := domdoc.ValidateType(docType); err != nil {
		return err
	}
	if _, err := domdoc.DecodeID(id); err != nil || id == "" {
		return fmt.Errorf("%w: malformed document id %q", domain.ErrInvalidDocument, id)
	}

	found := false

	err := s.deleter.DeleteDocument(ctx, s.indexers.IndexName(docType), id)
	switch {
	case err == nil:
		found = true
	case errors.Is(err, engine.ErrDocumentNotFound), errors.Is(err, engine.ErrIndexNotFound):
	default:
		return classify(err)
	}

	if s.journal != nil {
		err := s.journal.Delete(ctx, docType, id)
		switch {
		case err == nil:
			found = true
		case errors.Is(err, domain.ErrNotFound):
		default:
			return fmt.Errorf("journal: %w", err)
		}
	}

	if !found {
		return fmt.Errorf("document %s/%s: %w", docType, id, domain.ErrNotFound)
	}
	s.logger.Info("document deleted", zap.String("type", docType), zap.String("id", id))
	return nil
}

// Reindex replays every journaled document of a type into its index.
func (s *Service) Reindex(ctx context.Context, docType string) (indexing.Report, error) {
	if s.journal == nil {
		return indexing.Report{}, domain.ErrJournalDisabled
	}
	if docType == "" {
		docType = domdoc.DefaultType
	}

	ix, err := s.indexers.Indexer(docType)
	if err != nil {
		return indexing.Report{}, err
	}

	docs, err := s.journal.List(ctx, docType)
	if err != nil {
		_, _ = ix.Close(ctx)
		return indexing.Report{}, fmt.Errorf("journal: %w", err)
	}

	report, err := s.drain(ctx, ix, docs)
	if err != nil {
		return report, err
	}
	s.logger.Info("type reindexed",
		zap.String("type", docType),
		zap.Int("indexed", report.Indexed),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// ReindexAll replays every journaled type, at most maxConcurrency at once.
// Reports are ordered by type name.
func (s *Service) ReindexAll(ctx context.Context) ([]indexing.Report, error) {
	if s.journal == nil {
		return nil, domain.ErrJournalDisabled
	}

	types, err := s.journal.Types(ctx)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}

	reports := make([]indexing.Report, len(types))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)
	for i, t := range types {
		g.Go(func() error {
			r, err := s.Reindex(gctx, t)
			if err != nil {
				return fmt.Errorf("reindex %s: %w", t, err)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// drain pushes docs through ix and always closes it.
func (s *Service) drain(ctx context.Context, ix *indexing.Indexer, docs []domdoc.Document) (indexing.Report, error) {
	for i := range docs {
		if err := ix.Accept(ctx, docs[i]); err != nil {
			report, _ := ix.Close(ctx)
			return report, err
		}
	}
	return ix.Close(ctx)
}

func classify(err error) error {
	var ee *engine.Error
	if errors.As(err, &ee) && ee.Status == 0 {
		return fmt.Errorf("%w: %w", domain.ErrEngineUnavailable, err)
	}
	return err
}
