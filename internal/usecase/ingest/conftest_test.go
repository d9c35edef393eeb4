package ingest

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/searchgate/internal/domain"
	domdoc "github.com/kailas-cloud/searchgate/internal/domain/document"
	"github.com/kailas-cloud/searchgate/internal/engine"
	"github.com/kailas-cloud/searchgate/internal/usecase/indexing"
)

// fakeEngine stores indexed ids per index.
type fakeEngine struct {
	mu        sync.Mutex
	indices   map[string]map[string]map[string]any
	bulks     int
	bulkErr   error
	deleteErr error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{indices: map[string]map[string]map[string]any{}}
}

func (f *fakeEngine) IndexExists(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.indices[name]
	return ok, nil
}

func (f *fakeEngine) CreateIndex(_ context.Context, name string, _ *engine.IndexDefinition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indices[name] = map[string]map[string]any{}
	return nil
}

func (f *fakeEngine) Bulk(_ context.Context, items []engine.BulkItem) (*engine.BulkResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulks++
	if f.bulkErr != nil {
		return nil, f.bulkErr
	}
	resp := &engine.BulkResponse{}
	for _, it := range items {
		f.indices[it.Index][it.ID] = it.Source
		resp.Items = append(resp.Items, engine.BulkItemResult{
			Action: it.Action, Index: it.Index, ID: it.ID, Status: 201,
		})
	}
	return resp, nil
}

func (f *fakeEngine) DeleteDocument(_ context.Context, index, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	docs, ok := f.indices[index]
	if !ok {
		return &engine.Error{Op: engine.OpDelete, Index: index, Status: 404, Err: engine.ErrIndexNotFound}
	}
	if _, ok := docs[id]; !ok {
		return &engine.Error{Op: engine.OpDelete, Index: index, Status: 404, Err: engine.ErrDocumentNotFound}
	}
	delete(docs, id)
	return nil
}

func (f *fakeEngine) count(index string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.indices[index])
}

// memJournal is an in-memory Journal.
type memJournal struct {
	mu      sync.Mutex
	docs    map[string]map[string]domdoc.Document
	putErr  error
	listErr error
}

func newMemJournal() *memJournal {
	return &memJournal{docs: map[string]map[string]domdoc.Document{}}
}

func (j *memJournal) Put(_ context.Context, docType string, docs []domdoc.Document, _ time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.putErr != nil {
		return j.putErr
	}
	if j.docs[docType] == nil {
		j.docs[docType] = map[string]domdoc.Document{}
	}
	for _, d := range docs {
		j.docs[docType][d.ID()] = d
	}
	return nil
}

func (j *memJournal) Delete(_ context.Context, docType, id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.docs[docType][id]; !ok {
		return domain.ErrNotFound
	}
	delete(j.docs[docType], id)
	return nil
}

func (j *memJournal) List(_ context.Context, docType string) ([]domdoc.Document, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.listErr != nil {
		return nil, j.listErr
	}
	ids := make([]string, 0, len(j.docs[docType]))
	for id := range j.docs[docType] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]domdoc.Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, j.docs[docType][id])
	}
	return out, nil
}

func (j *memJournal) Types(_ context.Context) ([]string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	types := make([]string, 0, len(j.docs))
	for t := range j.docs {
		types = append(types, t)
	}
	sort.Strings(types)
	return types, nil
}

func newTestService(t *testing.T, fe *fakeEngine, batchSize int) *Service {
	t.Helper()
	idx, err := indexing.New(fe, indexing.Config{IndexPrefix: "backstage", BatchSize: batchSize}, nil)
	if err != nil {
		t.Fatalf("indexing.New: %v", err)
	}
	return New(idx, fe, nil)
}

func docs(n int, prefix string) []domdoc.Document {
	out := make([]domdoc.Document, n)
	for i := range out {
		out[i] = domdoc.New("Doc", "", prefix+"/"+string(rune('a'+i%26))+string(rune('a'+i/26)), nil)
	}
	return out
}
