package result

// Result is a single normalized search hit.
type Result struct {
	Type      string              `json:"type"`
	Document  map[string]any      `json:"document"`
	Highlight map[string][]string `json:"highlight"`
	Rank      float64             `json:"rank"`
}

// Bucket is one value/count pair of a facet. Facets are keyed by name in Page.
type Bucket struct {
	Value any   `json:"value"`
	Count int64 `json:"count"`
}

// Page is the outcome of one query round-trip. Cursors are empty when not applicable.
type Page struct {
	Results            []Result            `json:"results"`
	Facets             map[string][]Bucket `json:"facets"`
	Total              int                 `json:"total"`
	NextPageCursor     string              `json:"nextPageCursor,omitempty"`
	PreviousPageCursor string              `json:"previousPageCursor,omitempty"`
}

// HasNextPage reports whether a following page exists.
func (p *Page) HasNextPage() bool { return p.NextPageCursor != "" }

// HasPreviousPage reports whether a preceding page exists.
func (p *Page) HasPreviousPage() bool { return p.PreviousPageCursor != "" }

