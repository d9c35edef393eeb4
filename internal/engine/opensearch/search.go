package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"

	"github.com/kailas-cloud/searchgate/internal/engine"
)

// Search runs one query and decodes hits and terms aggregations.
func (c *Client) Search(ctx context.Context, req *engine.SearchRequest) (*engine.SearchResponse, error) {
	index := strings.Join(req.Indices, ",")

	body, err := json.Marshal(req.Source())
	if err != nil {
		return nil, &engine.Error{Op: engine.OpSearch, Index: index, Err: err}
	}

	resp, err := c.api.Search(ctx, &opensearchapi.SearchReq{
		Indices: req.Indices,
		Body:    bytes.NewReader(body),
	})
	if err != nil {
		if strings.Contains(err.Error(), "index_not_found_exception") {
			return nil, &engine.Error{Op: engine.OpSearch, Index: index, Status: 404, Err: engine.ErrIndexNotFound}
		}
		return nil, wrapErr(engine.OpSearch, index, err)
	}

	out := &engine.SearchResponse{
		Total: resp.Hits.Total.Value,
		Hits:  make([]engine.Hit, 0, len(resp.Hits.Hits)),
	}
	for _, h := range resp.Hits.Hits {
		hit := engine.Hit{
			Index:     h.Index,
			ID:        h.ID,
			Score:     float64(h.Score),
			Highlight: h.Highlight,
		}
		if len(h.Source) > 0 {
			if err := json.Unmarshal(h.Source, &hit.Source); err != nil {
				return nil, &engine.Error{Op: engine.OpSearch, Index: h.Index, Err: fmt.Errorf("decode hit %s: %w", h.ID, err)}
			}
		}
		out.Hits = append(out.Hits, hit)
	}

	aggs, err := decodeTermsAggs(resp.Aggregations)
	if err != nil {
		return nil, &engine.Error{Op: engine.OpSearch, Index: index, Err: err}
	}
	out.Aggregations = aggs
	return out, nil
}

type termsAgg struct {
	Buckets []struct {
		Key      any   `json:"key"`
		DocCount int64 `json:"doc_count"`
	} `json:"buckets"`
}

func decodeTermsAggs(raw json.RawMessage) (map[string][]engine.Bucket, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return map[string][]engine.Bucket{}, nil
	}
	var aggs map[string]termsAgg
	if err := json.Unmarshal(raw, &aggs); err != nil {
		return nil, fmt.Errorf("decode aggregations: %w", err)
	}
	out := make(map[string][]engine.Bucket, len(aggs))
	for name, a := range aggs {
		buckets := make([]engine.Bucket, 0, len(a.Buckets))
		for _, b := range a.Buckets {
			buckets = append(buckets, engine.Bucket{Key: b.Key, DocCount: b.DocCount})
		}
		out[name] = buckets
	}
	return out, nil
}
