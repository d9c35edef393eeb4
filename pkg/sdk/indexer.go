package searchgate

import (
	"context"
	"fmt"
	"time"
)

// Indexer is a single-type indexing session. It is safe for concurrent use.
type Indexer struct {
	session indexSession
	docType string
	obs     *observer
}

// Type returns the document type this session writes.
func (ix *Indexer) Type() string { return ix.docType }

// Accept buffers doc and writes a bulk request once the batch is full.
func (ix *Indexer) Accept(ctx context.Context, doc Document) error {
	if err := ix.session.Accept(ctx, doc); err != nil {
		return fmt.Errorf("accept: %w", err)
	}
	return nil
}

// Flush writes the buffered documents now.
func (ix *Indexer) Flush(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { ix.obs.observe("flush", start, err) }()

	if _, err = ix.session.Flush(ctx); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// Close writes the remaining documents and ends the session.
// Per-document rejections are reported in Report.Failed, not as an error.
func (ix *Indexer) Close(ctx context.Context) (report Report, err error) {
	start := time.Now()
	defer func() { ix.obs.observe("index", start, err) }()

	report, err = ix.session.Close(ctx)
	if err != nil {
		return report, fmt.Errorf("close: %w", err)
	}
	return report, nil
}
