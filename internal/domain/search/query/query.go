package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/searchgate/internal/domain"
)

// FilterValue is one facet filter: a single required value or a set of
// alternatives (OR within a field).
type FilterValue struct {
	values []string
	list   bool
}

// Scalar creates a single-value filter.
func Scalar(v string) FilterValue {
	return FilterValue{values: []string{v}}
}

// List creates a multi-value filter. Empty strings are dropped.
func List(vs ...string) FilterValue {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if v != "" {
			out = append(out, v)
		}
	}
	return FilterValue{values: out, list: true}
}

// IsList reports whether the value was given as a set.
func (v FilterValue) IsList() bool { return v.list }

// Values returns the filter values.
func (v FilterValue) Values() []string { return v.values }

// Value returns the scalar value (first value for lists).
func (v FilterValue) Value() string {
	if len(v.values) == 0 {
		return ""
	}
	return v.values[0]
}

// IsEmpty reports whether the filter constrains nothing and must be dropped.
func (v FilterValue) IsEmpty() bool {
	if v.list {
		return len(v.values) == 0
	}
	return v.Value() == ""
}

// UnmarshalJSON accepts null, a string, a scalar, or an array of those.
func (v *FilterValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = FilterValue{}
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var items []any
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		vs := make([]string, 0, len(items))
		for _, it := range items {
			if it == nil {
				continue
			}
			vs = append(vs, scalarString(it))
		}
		*v = List(vs...)
		return nil
	}
	var it any
	if err := json.Unmarshal(data, &it); err != nil {
		return err
	}
	if _, isObj := it.(map[string]any); isObj {
		return fmt.Errorf("%w: filter value must be a string or an array", domain.ErrInvalidQuery)
	}
	*v = Scalar(scalarString(it))
	return nil
}

// MarshalJSON writes a string for scalars and an array for lists.
func (v FilterValue) MarshalJSON() ([]byte, error) {
	if v.list {
		if v.values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.values)
	}
	return json.Marshal(v.Value())
}

func scalarString(it any) string {
	switch x := it.(type) {
	case string:
		return x
	case float64, bool:
		return fmt.Sprint(x)
	default:
		return ""
	}
}

// Filters maps a facet field name to its required values (AND across fields).
type Filters map[string]FilterValue

// Query is an engine-agnostic search request.
type Query struct {
	Term       string  `json:"term"`
	Filters    Filters `json:"filters,omitempty"`
	PageLimit  int     `json:"pageLimit,omitempty"`
	PageCursor string  `json:"pageCursor,omitempty"`
}

// New creates a validated Query. A zero pageLimit means "use the default".
func New(term string, filters Filters, pageLimit int, pageCursor string) (Query, error) {
	q := Query{Term: term, Filters: filters, PageLimit: pageLimit, PageCursor: pageCursor}
	if err := q.Validate(); err != nil {
		return Query{}, err
	}
	return q, nil
}

// Validate checks request-level invariants.
func (q *Query) Validate() error {
	if q.PageLimit < 0 {
		return fmt.Errorf("%w: pageLimit must be positive, got %d", domain.ErrInvalidQuery, q.PageLimit)
	}
	for k := range q.Filters {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("%w: filter field name is empty", domain.ErrInvalidQuery)
		}
	}
	return nil
}
