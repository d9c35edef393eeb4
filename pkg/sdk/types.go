package searchgate

import (
	domdoc "github.com/kailas-cloud/searchgate/internal/domain/document"
	"github.com/kailas-cloud/searchgate/internal/domain/search/query"
	"github.com/kailas-cloud/searchgate/internal/domain/search/result"
	"github.com/kailas-cloud/searchgate/internal/usecase/indexing"
)

// Document is a searchable document. Unknown fields go to Fields.
type Document = domdoc.Document

// Authorization carries the resource reference of a document.
type Authorization = domdoc.Authorization

// Query is a validated search request.
type Query = query.Query

// Filters maps field names to a scalar or set filter.
type Filters = query.Filters

// FilterValue is a scalar or set filter value.
type FilterValue = query.FilterValue

// Page is one page of search results with facets and cursors.
type Page = result.Page

// Result is a single search hit.
type Result = result.Result

// Bucket is one facet value and its count.
type Bucket = result.Bucket

// Report summarizes one indexing session.
type Report = indexing.Report

// DefaultType is used when no document type is given.
const DefaultType = domdoc.DefaultType

// NewDocument creates a document. extra is copied.
func NewDocument(title, text, location string, extra map[string]any) Document {
	return domdoc.New(title, text, location, extra)
}

// NewQuery validates and builds a query. pageLimit 0 uses the default page size.
func NewQuery(term string, filters Filters, pageLimit int, pageCursor string) (Query, error) {
	return query.New(term, filters, pageLimit, pageCursor)
}

// Scalar is a single-value filter.
func Scalar(v string) FilterValue { return query.Scalar(v) }

// List is a set filter matching any of vs.
func List(vs ...string) FilterValue { return query.List(vs...) }
