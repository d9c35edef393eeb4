package engine

// BulkAction is a bulk directive verb.
type BulkAction string

const (
	// ActionIndex creates or overwrites a document.
	ActionIndex BulkAction = "index"
	// ActionDelete removes a document.
	ActionDelete BulkAction = "delete"
)

// BulkItem is one directive of a bulk request. Source is ignored for deletes.
type BulkItem struct {
	Action BulkAction
	Index  string
	ID     string
	Source map[string]any
}

// BulkItemError is the engine-side reason an item was rejected.
type BulkItemError struct {
	Type   string
	Reason string
}

// BulkItemResult is the per-item outcome of a bulk request.
type BulkItemResult struct {
	Action BulkAction
	Index  string
	ID     string
	Status int
	Error  *BulkItemError
}

// BulkResponse is the outcome of a bulk request that reached the engine.
type BulkResponse struct {
	Errors bool
	Items  []BulkItemResult
}

// Failures returns every rejected item in request order.
func (r *BulkResponse) Failures() []BulkFailure {
	if r == nil {
		return nil
	}
	var out []BulkFailure
	for _, it := range r.Items {
		if it.Error == nil {
			continue
		}
		out = append(out, BulkFailure{
			Index:  it.Index,
			ID:     it.ID,
			Status: it.Status,
			Type:   it.Error.Type,
			Reason: it.Error.Reason,
		})
	}
	return out
}
