package searchgate

import "github.com/kailas-cloud/searchgate/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound          = domain.ErrNotFound
	ErrInvalidQuery      = domain.ErrInvalidQuery
	ErrInvalidDocument   = domain.ErrInvalidDocument
	ErrInvalidType       = domain.ErrInvalidType
	ErrIndexerClosed     = domain.ErrIndexerClosed
	ErrEngineUnavailable = domain.ErrEngineUnavailable
)
