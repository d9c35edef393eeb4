package engine

import (
	"context"
	"time"
)

// Client is the search engine capability the core depends on. Connection
// pooling, auth, and retries live behind it.
//
//nolint:interfacebloat // consumers depend on narrow sub-interfaces (ISP)
type Client interface {
	Pinger
	IndexManager
	BulkWriter
	Searcher
	DocumentDeleter
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks engine connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, name string, def *IndexDefinition) error
}

// BulkWriter issues batched write directives in a single request.
type BulkWriter interface {
	Bulk(ctx context.Context, items []BulkItem) (*BulkResponse, error)
}

// Searcher runs one query against one or more indices.
type Searcher interface {
	Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error)
}

// DocumentDeleter removes a single document by id.
type DocumentDeleter interface {
	DeleteDocument(ctx context.Context, index, id string) error
}
