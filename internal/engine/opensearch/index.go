package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"

	"github.com/kailas-cloud/searchgate/internal/engine"
)

const alreadyExistsType = "resource_already_exists_exception"

// IndexExists reports whether the named index exists.
func (c *Client) IndexExists(ctx context.Context, name string) (bool, error) {
	resp, err := c.api.Indices.Exists(ctx, opensearchapi.IndicesExistsReq{Indices: []string{name}})
	defer closeBody(resp)
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if err != nil {
		return false, wrapErr(engine.OpIndexExists, name, err)
	}
	if resp.IsError() {
		return false, &engine.Error{
			Op: engine.OpIndexExists, Index: name, Status: resp.StatusCode, Err: errors.New(resp.Status()),
		}
	}
	return true, nil
}

// CreateIndex creates an index from the definition. A concurrent create
// that lost the race returns an error wrapping engine.ErrIndexExists.
func (c *Client) CreateIndex(ctx context.Context, name string, def *engine.IndexDefinition) error {
	if !engine.IsValidIndexName(name) {
		return &engine.Error{Op: engine.OpCreateIndex, Index: name, Err: fmt.Errorf("invalid index name %q", name)}
	}
	if err := def.Validate(); err != nil {
		return &engine.Error{Op: engine.OpCreateIndex, Index: name, Err: err}
	}

	body, err := json.Marshal(def.Source())
	if err != nil {
		return &engine.Error{Op: engine.OpCreateIndex, Index: name, Err: err}
	}

	_, err = c.api.Indices.Create(ctx, opensearchapi.IndicesCreateReq{
		Index: name,
		Body:  bytes.NewReader(body),
	})
	if err != nil {
		if strings.Contains(err.Error(), alreadyExistsType) {
			return &engine.Error{
				Op: engine.OpCreateIndex, Index: name, Status: http.StatusBadRequest, Err: engine.ErrIndexExists,
			}
		}
		return wrapErr(engine.OpCreateIndex, name, err)
	}
	return nil
}

// DeleteDocument removes one document by id.
func (c *Client) DeleteDocument(ctx context.Context, index, id string) error {
	resp, err := c.api.Document.Delete(ctx, opensearchapi.DocumentDeleteReq{Index: index, DocumentID: id})
	if resp != nil && resp.Result == "not_found" {
		return &engine.Error{Op: engine.OpDelete, Index: index, Status: http.StatusNotFound, Err: engine.ErrDocumentNotFound}
	}
	if err != nil {
		if strings.Contains(err.Error(), "index_not_found_exception") {
			return &engine.Error{Op: engine.OpDelete, Index: index, Status: http.StatusNotFound, Err: engine.ErrIndexNotFound}
		}
		if isNotFound(resp) {
			return &engine.Error{Op: engine.OpDelete, Index: index, Status: http.StatusNotFound, Err: engine.ErrDocumentNotFound}
		}
		return wrapErr(engine.OpDelete, index, err)
	}
	return nil
}

func isNotFound(resp *opensearchapi.DocumentDeleteResp) bool {
	if resp == nil {
		return false
	}
	r := resp.Inspect().Response
	return r != nil && r.StatusCode == http.StatusNotFound
}
