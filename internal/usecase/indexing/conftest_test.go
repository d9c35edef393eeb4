package indexing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	domdoc "github.com/kailas-cloud/searchgate/internal/domain/document"
	"github.com/kailas-cloud/searchgate/internal/engine"
)

// mockEngine records calls in order and simulates index existence.
type mockEngine struct {
	mu sync.Mutex

	existing map[string]bool
	calls    []string
	bulks    [][]engine.BulkItem

	existsErr error
	createErr error
	bulkErr   error
	bulkFn    func(items []engine.BulkItem) *engine.BulkResponse

	inFlight    int
	maxInFlight int
}

func newMockEngine() *mockEngine {
	return &mockEngine{existing: map[string]bool{}}
}

func (m *mockEngine) IndexExists(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "exists:"+name)
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.existing[name], nil
}

func (m *mockEngine) CreateIndex(_ context.Context, name string, _ *engine.IndexDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "create:"+name)
	if m.createErr != nil {
		return m.createErr
	}
	m.existing[name] = true
	return nil
}

func (m *mockEngine) Bulk(_ context.Context, items []engine.BulkItem) (*engine.BulkResponse, error) {
	m.mu.Lock()
	m.inFlight++
	m.maxInFlight = max(m.maxInFlight, m.inFlight)
	m.calls = append(m.calls, fmt.Sprintf("bulk:%d", len(items)))
	m.bulks = append(m.bulks, items)
	err := m.bulkErr
	fn := m.bulkFn
	m.mu.Unlock()

	time.Sleep(time.Millisecond)

	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if fn != nil {
		return fn(items), nil
	}
	resp := &engine.BulkResponse{Items: make([]engine.BulkItemResult, len(items))}
	for i, it := range items {
		resp.Items[i] = engine.BulkItemResult{Action: it.Action, Index: it.Index, ID: it.ID, Status: 201}
	}
	return resp, nil
}

func (m *mockEngine) callLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

var testNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestService(t *testing.T, me *mockEngine, batchSize int) *Service {
	t.Helper()
	svc, err := New(me, Config{IndexPrefix: "backstage", BatchSize: batchSize}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc.WithClock(func() time.Time { return testNow })
}

func testDoc(i int) domdoc.Document {
	return domdoc.New(fmt.Sprintf("Doc %d", i), "body", fmt.Sprintf("/docs/%d", i), nil)
}
