package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery signals a malformed search request.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidDocument signals a document that cannot be indexed.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrInvalidType signals a document type that cannot name an index.
	ErrInvalidType = errors.New("invalid document type")
	// ErrIndexerClosed signals a write to an indexer that already completed its session.
	ErrIndexerClosed = errors.New("indexer closed")
	// ErrJournalDisabled signals an operation that needs the document journal.
	ErrJournalDisabled = errors.New("document journal disabled")
	// ErrEngineUnavailable signals a transport-level failure talking to the search engine.
	ErrEngineUnavailable = errors.New("search engine unavailable")
)
