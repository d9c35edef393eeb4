package chi

import (
	"context"

	domdoc "github.com/kailas-cloud/searchgate/internal/domain/document"
	"github.com/kailas-cloud/searchgate/internal/domain/search/query"
	"github.com/kailas-cloud/searchgate/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/searchgate/internal/usecase/health"
	"github.com/kailas-cloud/searchgate/internal/usecase/indexing"
)

// Searcher runs search queries.
type Searcher interface {
	Query(ctx context.Context, q query.Query) (result.Page, error)
}

// Ingester writes, deletes, and replays documents.
type Ingester interface {
	IndexDocuments(ctx context.Context, docType string, docs []domdoc.Document) (indexing.Report, error)
	DeleteDocument(ctx context.Context, docType, id string) error
	Reindex(ctx context.Context, docType string) (indexing.Report, error)
	ReindexAll(ctx context.Context) ([]indexing.Report, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
