package ingest

import (
	"context"
	"time"

	domdoc "github.com/kailas-cloud/searchgate/internal/domain/document"
	"github.com/kailas-cloud/searchgate/internal/usecase/indexing"
)

// Indexers opens indexer sessions per document type.
type Indexers interface {
	Indexer(docType string) (*indexing.Indexer, error)
	IndexName(docType string) string
}

// DocumentDeleter removes a single document from the engine.
type DocumentDeleter interface {
	DeleteDocument(ctx context.Context, index, id string) error
}

// Journal keeps pushed documents for replay.
type Journal interface {
	Put(ctx context.Context, docType string, docs []domdoc.Document, now time.Time) error
	Delete(ctx context.Context, docType, id string) error
	List(ctx context.Context, docType string) ([]domdoc.Document, error)
	Types(ctx context.Context) ([]string, error)
}
