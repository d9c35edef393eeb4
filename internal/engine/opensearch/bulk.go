package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"

	"github.com/kailas-cloud/searchgate/internal/engine"
)

type bulkMeta struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

// Bulk sends all items in a single NDJSON request. Per-item rejections are
// returned in the response; only request-level failures return an error.
func (c *Client) Bulk(ctx context.Context, items []engine.BulkItem) (*engine.BulkResponse, error) {
	if len(items) == 0 {
		return &engine.BulkResponse{}, nil
	}

	body, err := encodeBulk(items)
	if err != nil {
		return nil, &engine.Error{Op: engine.OpBulk, Err: err}
	}

	resp, err := c.api.Bulk(ctx, opensearchapi.BulkReq{Body: bytes.NewReader(body)})
	if err != nil {
		return nil, wrapErr(engine.OpBulk, items[0].Index, err)
	}

	out := &engine.BulkResponse{Errors: resp.Errors, Items: make([]engine.BulkItemResult, 0, len(resp.Items))}
	for _, entry := range resp.Items {
		for action, it := range entry {
			r := engine.BulkItemResult{
				Action: engine.BulkAction(action),
				Index:  it.Index,
				ID:     it.ID,
				Status: it.Status,
			}
			if it.Error != nil {
				r.Error = &engine.BulkItemError{Type: it.Error.Type, Reason: it.Error.Reason}
			}
			out.Items = append(out.Items, r)
		}
	}
	return out, nil
}

func encodeBulk(items []engine.BulkItem) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i := range items {
		it := &items[i]
		switch it.Action {
		case engine.ActionIndex, engine.ActionDelete:
		default:
			return nil, fmt.Errorf("item %d: unsupported action %q", i, it.Action)
		}
		if err := enc.Encode(map[engine.BulkAction]bulkMeta{it.Action: {Index: it.Index, ID: it.ID}}); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if it.Action == engine.ActionDelete {
			continue
		}
		src := it.Source
		if src == nil {
			src = map[string]any{}
		}
		if err := enc.Encode(src); err != nil {
			return nil, fmt.Errorf("item %d source: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
