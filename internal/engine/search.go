package engine

// HighlightField configures highlighting of one field. NumberOfFragments 0
// returns the whole field value.
type HighlightField struct {
	FragmentSize      int
	NumberOfFragments int
}

// Highlight configures result highlighting.
type Highlight struct {
	Fields            map[string]HighlightField
	PreTags           []string
	PostTags          []string
	RequireFieldMatch bool
}

// TermsAggregation is a bucketed value count over one exact-match field.
type TermsAggregation struct {
	Name    string
	Field   string
	Size    int
	Missing string
}

// SearchRequest is one query round-trip.
type SearchRequest struct {
	Indices      []string
	Query        map[string]any
	From         int
	Size         int
	Highlight    *Highlight
	SortByScore  bool
	Aggregations []TermsAggregation
}

// Source renders the request body in the engine's query DSL.
func (r *SearchRequest) Source() map[string]any {
	body := map[string]any{
		"from": r.From,
		"size": r.Size,
	}
	if r.Query != nil {
		body["query"] = r.Query
	} else {
		body["query"] = map[string]any{"match_all": map[string]any{}}
	}
	if r.SortByScore {
		body["sort"] = []any{
			map[string]any{"_score": map[string]any{"order": "desc"}},
		}
	}
	if r.Highlight != nil {
		fields := make(map[string]any, len(r.Highlight.Fields))
		for name, f := range r.Highlight.Fields {
			hf := map[string]any{"number_of_fragments": f.NumberOfFragments}
			if f.FragmentSize > 0 {
				hf["fragment_size"] = f.FragmentSize
			}
			fields[name] = hf
		}
		hl := map[string]any{
			"fields":              fields,
			"require_field_match": r.Highlight.RequireFieldMatch,
		}
		if len(r.Highlight.PreTags) > 0 {
			hl["pre_tags"] = r.Highlight.PreTags
		}
		if len(r.Highlight.PostTags) > 0 {
			hl["post_tags"] = r.Highlight.PostTags
		}
		body["highlight"] = hl
	}
	if len(r.Aggregations) > 0 {
		aggs := make(map[string]any, len(r.Aggregations))
		for _, a := range r.Aggregations {
			terms := map[string]any{"field": a.Field}
			if a.Size > 0 {
				terms["size"] = a.Size
			}
			if a.Missing != "" {
				terms["missing"] = a.Missing
			}
			aggs[a.Name] = map[string]any{"terms": terms}
		}
		body["aggs"] = aggs
	}
	return body
}

// Hit is one raw document returned by the engine.
type Hit struct {
	Index     string
	ID        string
	Score     float64
	Source    map[string]any
	Highlight map[string][]string
}

// Bucket is one raw terms-aggregation bucket.
type Bucket struct {
	Key      any
	DocCount int64
}

// SearchResponse is the decoded engine response.
type SearchResponse struct {
	Total        int
	Hits         []Hit
	Aggregations map[string][]Bucket
}
