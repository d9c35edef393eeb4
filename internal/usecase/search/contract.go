package search

import (
	"context"

	"github.com/kailas-cloud/searchgate/internal/engine"
)

// Engine runs queries against the search engine.
type Engine interface {
	Search(ctx context.Context, req *engine.SearchRequest) (*engine.SearchResponse, error)
}
