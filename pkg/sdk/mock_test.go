package searchgate

import (
	"context"

	"github.com/kailas-cloud/searchgate/internal/usecase/health"
	"github.com/kailas-cloud/searchgate/internal/usecase/indexing"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	queryFn func(ctx context.Context, q Query) (Page, error)
}

func (m *mockSearchUC) Query(ctx context.Context, q Query) (Page, error) {
	return m.queryFn(ctx, q)
}

// --- indexSession mock ---

type mockSession struct {
	accepted []Document
	flushes  int
	closed   bool

	acceptErr error
	flushErr  error
	closeErr  error
}

func (m *mockSession) Accept(_ context.Context, doc Document) error {
	if m.acceptErr != nil {
		return m.acceptErr
	}
	m.accepted = append(m.accepted, doc)
	return nil
}

func (m *mockSession) Flush(_ context.Context) (indexing.FlushReport, error) {
	m.flushes++
	return indexing.FlushReport{Count: len(m.accepted)}, m.flushErr
}

func (m *mockSession) Close(_ context.Context) (Report, error) {
	m.closed = true
	return Report{Accepted: len(m.accepted), Indexed: len(m.accepted)}, m.closeErr
}

// --- pinger / health mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockHealthUC struct {
	report health.Report
}

func (m *mockHealthUC) Check(_ context.Context) health.Report { return m.report }

// --- helpers ---

func testClient(searchSvc searchUseCase, session *mockSession) (*Client, *[]string) {
	var opened []string
	return &Client{
		engine:    &mockPinger{},
		searchSvc: searchSvc,
		newIndexer: func(docType string) (indexSession, error) {
			opened = append(opened, docType)
			return session, nil
		},
	}, &opened
}
