package engine

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestSearchRequest_SourceDefaults(t *testing.T) {
	req := &SearchRequest{Size: 25}
	src := req.Source()

	if src["from"] != 0 || src["size"] != 25 {
		t.Errorf("from/size = %v/%v", src["from"], src["size"])
	}
	q, ok := src["query"].(map[string]any)
	if !ok {
		t.Fatalf("query type = %T", src["query"])
	}
	if _, ok := q["match_all"]; !ok {
		t.Errorf("query = %v, want match_all", q)
	}
	for _, k := range []string{"sort", "highlight", "aggs"} {
		if _, ok := src[k]; ok {
			t.Errorf("unexpected %q in body", k)
		}
	}
}

func TestSearchRequest_SourceFull(t *testing.T) {
	req := &SearchRequest{
		Query:       map[string]any{"bool": map[string]any{}},
		From:        50,
		Size:        25,
		SortByScore: true,
		Highlight: &Highlight{
			Fields: map[string]HighlightField{
				"text":          {FragmentSize: 150, NumberOfFragments: 3},
				"title.keyword": {NumberOfFragments: 0},
			},
			PreTags:  []string{"<mark>"},
			PostTags: []string{"</mark>"},
		},
		Aggregations: []TermsAggregation{
			{Name: "kinds", Field: "kind.keyword", Size: 20, Missing: "Unknown"},
		},
	}

	raw, err := json.Marshal(req.Source())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got struct {
		From int `json:"from"`
		Sort []map[string]struct {
			Order string `json:"order"`
		} `json:"sort"`
		Highlight struct {
			Fields            map[string]map[string]int `json:"fields"`
			PreTags           []string                  `json:"pre_tags"`
			PostTags          []string                  `json:"post_tags"`
			RequireFieldMatch *bool                     `json:"require_field_match"`
		} `json:"highlight"`
		Aggs map[string]struct {
			Terms struct {
				Field   string `json:"field"`
				Size    int    `json:"size"`
				Missing string `json:"missing"`
			} `json:"terms"`
		} `json:"aggs"`
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.From != 50 {
		t.Errorf("from = %d, want 50", got.From)
	}
	if len(got.Sort) != 1 || got.Sort[0]["_score"].Order != "desc" {
		t.Errorf("sort = %+v", got.Sort)
	}
	if f := got.Highlight.Fields["text"]; f["fragment_size"] != 150 || f["number_of_fragments"] != 3 {
		t.Errorf("text highlight = %v", f)
	}
	tk, ok := got.Highlight.Fields["title.keyword"]
	if !ok {
		t.Fatal("title.keyword highlight missing")
	}
	if n, ok := tk["number_of_fragments"]; !ok || n != 0 {
		t.Errorf("title.keyword number_of_fragments = %v", tk)
	}
	if _, ok := tk["fragment_size"]; ok {
		t.Errorf("title.keyword must not carry fragment_size")
	}
	if got.Highlight.RequireFieldMatch == nil || *got.Highlight.RequireFieldMatch {
		t.Errorf("require_field_match must be present and false")
	}
	if got.Highlight.PreTags[0] != "<mark>" || got.Highlight.PostTags[0] != "</mark>" {
		t.Errorf("tags = %v %v", got.Highlight.PreTags, got.Highlight.PostTags)
	}
	k := got.Aggs["kinds"].Terms
	if k.Field != "kind.keyword" || k.Size != 20 || k.Missing != "Unknown" {
		t.Errorf("kinds agg = %+v", k)
	}
}

func TestBulkResponse_Failures(t *testing.T) {
	var nilResp *BulkResponse
	if nilResp.Failures() != nil {
		t.Error("nil response must have no failures")
	}

	resp := &BulkResponse{
		Errors: true,
		Items: []BulkItemResult{
			{Action: ActionIndex, Index: "i", ID: "a", Status: 201},
			{Action: ActionIndex, Index: "i", ID: "b", Status: 400,
				Error: &BulkItemError{Type: "mapper_parsing_exception", Reason: "bad field"}},
		},
	}
	f := resp.Failures()
	if len(f) != 1 {
		t.Fatalf("failures = %d, want 1", len(f))
	}
	if f[0].ID != "b" || f[0].Status != 400 || f[0].Type != "mapper_parsing_exception" {
		t.Errorf("failure = %+v", f[0])
	}
	if f[0].String() != "i/b: mapper_parsing_exception: bad field" {
		t.Errorf("String() = %q", f[0].String())
	}
}

func TestError_Format(t *testing.T) {
	err := &Error{Op: OpCreateIndex, Index: "docs", Status: 400, Err: ErrIndexExists}
	want := "indices.create [docs] (status 400): engine: index already exists"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, ErrIndexExists) {
		t.Error("Unwrap must expose the sentinel")
	}
}

