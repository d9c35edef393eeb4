package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/searchgate/internal/domain"
	domdoc "github.com/kailas-cloud/searchgate/internal/domain/document"
	"github.com/kailas-cloud/searchgate/internal/engine"
)

func TestIndexDocuments(t *testing.T) {
	fe := newFakeEngine()
	svc := newTestService(t, fe, 10)

	report, err := svc.IndexDocuments(context.Background(), "techdocs", docs(25, "/docs"))
	if err != nil {
		t.Fatalf("IndexDocuments: %v", err)
	}
	if report.Indexed != 25 || report.Flushes != 3 || report.Index != "backstage-techdocs" {
		t.Errorf("report = %+v", report)
	}
	if fe.count("backstage-techdocs") != 25 {
		t.Errorf("engine holds %d docs", fe.count("backstage-techdocs"))
	}
}

func TestIndexDocuments_DefaultType(t *testing.T) {
	fe := newFakeEngine()
	svc := newTestService(t, fe, 10)

	report, err := svc.IndexDocuments(context.Background(), "", docs(1, "/x"))
	if err != nil {
		t.Fatalf("IndexDocuments: %v", err)
	}
	if report.Type != "default" || fe.count("backstage-default") != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestIndexDocuments_InvalidDocumentRejectsBatch(t *testing.T) {
	fe := newFakeEngine()
	j := newMemJournal()
	svc := newTestService(t, fe, 10).WithJournal(j)

	batch := append(docs(2, "/ok"), domdoc.New("", "orphan", "", nil))
	_, err := svc.IndexDocuments(context.Background(), "techdocs", batch)
	if !errors.Is(err, domain.ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
	if fe.bulks != 0 || len(j.docs) != 0 {
		t.Errorf("nothing may be written: bulks=%d journal=%d", fe.bulks, len(j.docs))
	}
}

func TestIndexDocuments_InvalidType(t *testing.T) {
	svc := newTestService(t, newFakeEngine(), 10)
	_, err := svc.IndexDocuments(context.Background(), "Bad Type", docs(1, "/x"))
	if !errors.Is(err, domain.ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestIndexDocuments_Journaled(t *testing.T) {
	fe := newFakeEngine()
	j := newMemJournal()
	svc := newTestService(t, fe, 10).WithJournal(j)

	if _, err := svc.IndexDocuments(context.Background(), "techdocs", docs(3, "/docs")); err != nil {
		t.Fatalf("IndexDocuments: %v", err)
	}
	if len(j.docs["techdocs"]) != 3 {
		t.Errorf("journal holds %d docs", len(j.docs["techdocs"]))
	}
}

func TestIndexDocuments_JournalFailureStopsIndexing(t *testing.T) {
	fe := newFakeEngine()
	j := newMemJournal()
	j.putErr = errors.New("redis down")
	svc := newTestService(t, fe, 10).WithJournal(j)

	if _, err := svc.IndexDocuments(context.Background(), "techdocs", docs(3, "/docs")); err == nil {
		t.Fatal("expected error")
	}
	if fe.bulks != 0 {
		t.Errorf("bulks = %d, want 0", fe.bulks)
	}
}

func TestIndexDocuments_TransportFailure(t *testing.T) {
	fe := newFakeEngine()
	fe.bulkErr = &engine.Error{Op: engine.OpBulk, Err: errors.New("dial tcp: refused")}
	svc := newTestService(t, fe, 10)

	_, err := svc.IndexDocuments(context.Background(), "techdocs", docs(3, "/docs"))
	if !errors.Is(err, domain.ErrEngineUnavailable) {
		t.Fatalf("expected ErrEngineUnavailable, got %v", err)
	}
}

func TestDeleteDocument(t *testing.T) {
	ctx := context.Background()
	fe := newFakeEngine()
	j := newMemJournal()
	svc := newTestService(t, fe, 10).WithJournal(j)

	batch := docs(2, "/docs")
	if _, err := svc.IndexDocuments(ctx, "techdocs", batch); err != nil {
		t.Fatalf("IndexDocuments: %v", err)
	}

	id := batch[0].ID()
	if err := svc.DeleteDocument(ctx, "techdocs", id); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if fe.count("backstage-techdocs") != 1 || len(j.docs["techdocs"]) != 1 {
		t.Errorf("engine=%d journal=%d", fe.count("backstage-techdocs"), len(j.docs["techdocs"]))
	}

	if err := svc.DeleteDocument(ctx, "techdocs", id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteDocument_MissingIndex(t *testing.T) {
	svc := newTestService(t, newFakeEngine(), 10)
	err := svc.DeleteDocument(context.Background(), "nothing", domdoc.EncodeID("/x"))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteDocument_JournalOnly(t *testing.T) {
	ctx := context.Background()
	fe := newFakeEngine()
	j := newMemJournal()
	svc := newTestService(t, fe, 10).WithJournal(j)

	d := domdoc.New("Only journaled", "", "/j", nil)
	_ = j.Put(ctx, "techdocs", []domdoc.Document{d}, svc.now())

	if err := svc.DeleteDocument(ctx, "techdocs", d.ID()); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
}

func TestDeleteDocument_MalformedID(t *testing.T) {
	svc := newTestService(t, newFakeEngine(), 10)
	for _, id := range []string{"", "not base64!"} {
		if err := svc.DeleteDocument(context.Background(), "techdocs", id); !errors.Is(err, domain.ErrInvalidDocument) {
			t.Errorf("id %q: expected ErrInvalidDocument, got %v", id, err)
		}
	}
}

func TestDeleteDocument_EngineUnreachable(t *testing.T) {
	fe := newFakeEngine()
	fe.deleteErr = &engine.Error{Op: engine.OpDelete, Err: errors.New("timeout")}
	svc := newTestService(t, fe, 10)

	err := svc.DeleteDocument(context.Background(), "techdocs", domdoc.EncodeID("/x"))
	if !errors.Is(err, domain.ErrEngineUnavailable) {
		t.Fatalf("expected ErrEngineUnavailable, got %v", err)
	}
}

func TestReindex_RequiresJournal(t *testing.T) {
	svc := newTestService(t, newFakeEngine(), 10)
	if _, err := svc.Reindex(context.Background(), "techdocs"); !errors.Is(err, domain.ErrJournalDisabled) {
		t.Fatalf("Reindex: expected ErrJournalDisabled, got %v", err)
	}
	if _, err := svc.ReindexAll(context.Background()); !errors.Is(err, domain.ErrJournalDisabled) {
		t.Fatalf("ReindexAll: expected ErrJournalDisabled, got %v", err)
	}
}

func TestReindex_ReplaysJournal(t *testing.T) {
	ctx := context.Background()
	fe := newFakeEngine()
	j := newMemJournal()
	svc := newTestService(t, fe, 10).WithJournal(j)

	_ = j.Put(ctx, "techdocs", docs(12, "/docs"), svc.now())

	report, err := svc.Reindex(ctx, "techdocs")
	if err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	if report.Indexed != 12 || report.Flushes != 2 {
		t.Errorf("report = %+v", report)
	}
	if fe.count("backstage-techdocs") != 12 {
		t.Errorf("engine holds %d docs", fe.count("backstage-techdocs"))
	}
}

func TestReindex_EmptyType(t *testing.T) {
	fe := newFakeEngine()
	svc := newTestService(t, fe, 10).WithJournal(newMemJournal())

	report, err := svc.Reindex(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	if report.Indexed != 0 || fe.bulks != 0 {
		t.Errorf("report = %+v bulks = %d", report, fe.bulks)
	}
}

func TestReindex_ListFailure(t *testing.T) {
	j := newMemJournal()
	j.listErr = errors.New("scan failed")
	svc := newTestService(t, newFakeEngine(), 10).WithJournal(j)

	if _, err := svc.Reindex(context.Background(), "techdocs"); err == nil {
		t.Fatal("expected error")
	}
}

func TestReindexAll(t *testing.T) {
	ctx := context.Background()
	fe := newFakeEngine()
	j := newMemJournal()
	svc := newTestService(t, fe, 10).WithJournal(j).WithMaxConcurrency(2)

	_ = j.Put(ctx, "techdocs", docs(5, "/docs"), svc.now())
	_ = j.Put(ctx, "software-catalog", docs(7, "/catalog"), svc.now())
	_ = j.Put(ctx, "adr", docs(1, "/adr"), svc.now())

	reports, err := svc.ReindexAll(ctx)
	if err != nil {
		t.Fatalf("ReindexAll: %v", err)
	}
	want := map[string]int{"adr": 1, "software-catalog": 7, "techdocs": 5}
	if len(reports) != len(want) {
		t.Fatalf("reports = %d", len(reports))
	}
	if reports[0].Type != "adr" || reports[1].Type != "software-catalog" || reports[2].Type != "techdocs" {
		t.Errorf("reports out of order: %s %s %s", reports[0].Type, reports[1].Type, reports[2].Type)
	}
	for _, r := range reports {
		if r.Indexed != want[r.Type] {
			t.Errorf("%s: indexed %d, want %d", r.Type, r.Indexed, want[r.Type])
		}
	}
}

func TestReindexAll_PropagatesFailure(t *testing.T) {
	ctx := context.Background()
	fe := newFakeEngine()
	j := newMemJournal()
	svc := newTestService(t, fe, 10).WithJournal(j)
	_ = j.Put(ctx, "techdocs", docs(2, "/docs"), svc.now())

	fe.bulkErr = errors.New("boom")
	if _, err := svc.ReindexAll(ctx); err == nil {
		t.Fatal("expected error")
	}
}
