package indexing

import (
	"context"

	"github.com/kailas-cloud/searchgate/internal/engine"
)

// Engine is the write side of the search engine used by indexers.
type Engine interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, name string, def *engine.IndexDefinition) error
	Bulk(ctx context.Context, items []engine.BulkItem) (*engine.BulkResponse, error)
}
