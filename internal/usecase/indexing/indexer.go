package indexing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchgate/internal/domain"
	domdoc "github.com/kailas-cloud/searchgate/internal/domain/document"
	"github.com/kailas-cloud/searchgate/internal/engine"
	"github.com/kailas-cloud/searchgate/internal/metrics"
	"github.com/kailas-cloud/searchgate/internal/tracing"
)

// State is the lifecycle position of an indexer.
type State int

// Indexer states.
const (
	StateIdle State = iota
	StateBuffering
	StateFlushing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuffering:
		return "buffering"
	case StateFlushing:
		return "flushing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Indexer buffers documents of one type and writes them in bulk batches.
// At most batchSize documents are unflushed at any time: the Accept that
// fills the buffer flushes before returning, and concurrent callers wait for
// it. Only one flush is in flight per Indexer.
type Indexer struct {
	svc       *Service
	docType   string
	index     string
	batchSize int
	logger    *zap.Logger

	mu     sync.Mutex
	buf    []domdoc.Document
	state  State
	report Report
}

func newIndexer(s *Service, docType, index string) *Indexer {
	return &Indexer{
		svc:       s,
		docType:   docType,
		index:     index,
		batchSize: s.cfg.BatchSize,
		logger:    s.logger.Named("indexer").With(zap.String("index", index)),
		buf:       make([]domdoc.Document, 0, s.cfg.BatchSize),
		report:    Report{Type: docType, Index: index},
	}
}

// Type returns the document type of the session.
func (ix *Indexer) Type() string { return ix.docType }

// Index returns the physical index written to.
func (ix *Indexer) Index() string { return ix.index }

// State returns the current lifecycle state.
func (ix *Indexer) State() State {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.state
}

// Accept buffers doc and flushes when the batch is full. A flush failure is
// returned here; the documents of that batch are not retried.
func (ix *Indexer) Accept(ctx context.Context, doc domdoc.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.state == StateClosed {
		return domain.ErrIndexerClosed
	}

	ix.buf = append(ix.buf, doc)
	ix.report.Accepted++
	ix.state = StateBuffering

	if len(ix.buf) >= ix.batchSize {
		if _, err := ix.flushLocked(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes the buffered documents now. An empty buffer is a no-op.
func (ix *Indexer) Flush(ctx context.Context) (FlushReport, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.state == StateClosed {
		return FlushReport{}, domain.ErrIndexerClosed
	}
	if len(ix.buf) == 0 {
		return FlushReport{Index: ix.index}, nil
	}
	return ix.flushLocked(ctx)
}

// Close flushes any remaining documents and ends the session. The indexer
// is closed even when the final flush fails. Closing again returns the same
// report.
func (ix *Indexer) Close(ctx context.Context) (Report, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.state == StateClosed {
		return ix.report, nil
	}

	var err error
	if len(ix.buf) > 0 {
		_, err = ix.flushLocked(ctx)
	}
	ix.state = StateClosed
	return ix.report, err
}

func (ix *Indexer) flushLocked(ctx context.Context) (FlushReport, error) {
	batch := ix.buf
	ix.buf = make([]domdoc.Document, 0, ix.batchSize)
	ix.state = StateFlushing
	defer func() { ix.state = StateIdle }()

	ctx, span := tracing.Tracer().Start(ctx, "indexer.Flush")
	defer span.End()
	span.SetAttributes(
		attribute.String("index", ix.index),
		attribute.Int("documents", len(batch)),
	)

	start := time.Now()
	fail := func(err error) (FlushReport, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "flush failed")
		metrics.BulkFlushesTotal.WithLabelValues(ix.docType, "error").Inc()
		metrics.IndexedDocumentsTotal.WithLabelValues(ix.docType, "failed").Add(float64(len(batch)))
		ix.logger.Error("failed to index documents",
			zap.Int("count", len(batch)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return FlushReport{}, err
	}

	if err := ix.svc.ensureIndex(ctx, ix.index); err != nil {
		return fail(classify(err))
	}

	now := ix.svc.now()
	items := make([]engine.BulkItem, 0, len(batch))
	for i := range batch {
		items = append(items, engine.BulkItem{
			Action: engine.ActionIndex,
			Index:  ix.index,
			ID:     batch[i].ID(),
			Source: batch[i].Source(now),
		})
	}

	resp, err := ix.svc.engine.Bulk(ctx, items)
	if err != nil {
		ix.svc.forget(ix.index)
		return fail(classify(fmt.Errorf("bulk %s: %w", ix.index, err)))
	}

	failures := resp.Failures()
	fr := FlushReport{
		Index:    ix.index,
		Count:    len(batch),
		Failed:   len(failures),
		Sample:   sample(failures),
		Duration: time.Since(start),
	}
	ix.report.add(fr)

	status := "ok"
	if fr.Failed > 0 {
		status = "partial"
		ix.logger.Warn("some documents failed to index",
			zap.Int("total", fr.Count),
			zap.Int("errors", fr.Failed),
			zap.Stringers("sample", fr.Sample),
		)
	}
	metrics.BulkFlushesTotal.WithLabelValues(ix.docType, status).Inc()
	metrics.BulkFlushDuration.WithLabelValues(ix.docType).Observe(fr.Duration.Seconds())
	metrics.IndexedDocumentsTotal.WithLabelValues(ix.docType, "ok").Add(float64(fr.Indexed()))
	if fr.Failed > 0 {
		metrics.IndexedDocumentsTotal.WithLabelValues(ix.docType, "failed").Add(float64(fr.Failed))
	}
	span.SetAttributes(attribute.Int("failed", fr.Failed))

	ix.logger.Info("documents indexed",
		zap.Int("count", fr.Indexed()),
		zap.Duration("duration", fr.Duration),
	)
	return fr, nil
}

// classify marks failures that never reached the engine.
func classify(err error) error {
	var ee *engine.Error
	if errors.As(err, &ee) && ee.Status == 0 && !errors.Is(err, domain.ErrEngineUnavailable) {
		return fmt.Errorf("%w: %w", domain.ErrEngineUnavailable, err)
	}
	return err
}
