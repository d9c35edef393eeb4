package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for engine operations.
var (
	ErrIndexNotFound    = errors.New("engine: index not found")
	ErrIndexExists      = errors.New("engine: index already exists")
	ErrDocumentNotFound = errors.New("engine: document not found")
)

// Op names used for error context.
const (
	OpPing        = "ping"
	OpIndexExists = "indices.exists"
	OpCreateIndex = "indices.create"
	OpBulk        = "bulk"
	OpSearch      = "search"
	OpDelete      = "delete"
)

// Error wraps an underlying transport or engine error with the operation name.
type Error struct {
	Op     string
	Index  string
	Status int
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Index != "" {
		b.WriteString(" [")
		b.WriteString(e.Index)
		b.WriteString("]")
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// BulkFailure describes one rejected item of a bulk request.
type BulkFailure struct {
	Index  string `json:"index"`
	ID     string `json:"id"`
	Status int    `json:"status"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func (f BulkFailure) String() string {
	return fmt.Sprintf("%s/%s: %s: %s", f.Index, f.ID, f.Type, f.Reason)
}
