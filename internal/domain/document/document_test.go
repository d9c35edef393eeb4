package document

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/searchgate/internal/domain"
)

func TestID_UsesLocation(t *testing.T) {
	doc := New("User Service", "", "/catalog/default/component/user-service", nil)

	id := doc.ID()
	if id != EncodeID("/catalog/default/component/user-service") {
		t.Fatalf("ID() = %q", id)
	}
	back, err := DecodeID(id)
	if err != nil {
		t.Fatalf("DecodeID: %v", err)
	}
	if back != doc.Location {
		t.Errorf("DecodeID(ID()) = %q, want %q", back, doc.Location)
	}
}

func TestID_FallsBackToTitle(t *testing.T) {
	doc := New("User Service", "", "", nil)
	if doc.ID() != EncodeID("User Service") {
		t.Errorf("ID() = %q, want title-derived id", doc.ID())
	}
}

func TestID_URLSafe(t *testing.T) {
	id := EncodeID("a/b?c=d&e=f~~~>>>")
	for _, r := range id {
		if r == '+' || r == '/' || r == '=' {
			t.Fatalf("id %q contains non url-safe rune %q", id, r)
		}
	}
}

func TestValidate(t *testing.T) {
	empty := New("", "body", "", nil)
	if err := empty.Validate(); !errors.Is(err, domain.ErrInvalidDocument) {
		t.Errorf("Validate() = %v, want ErrInvalidDocument", err)
	}
	titled := New("t", "", "", nil)
	if err := titled.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestSource_StampsTimestamps(t *testing.T) {
	doc := New("t", "body", "/loc", map[string]any{"kind": "Component"})
	doc.Authorization = &Authorization{ResourceRef: "component:default/t"}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	src := doc.Source(now)

	if src["@timestamp"] != "2026-01-02T03:04:05Z" || src["indexed_at"] != "2026-01-02T03:04:05Z" {
		t.Errorf("timestamps = %v / %v", src["@timestamp"], src["indexed_at"])
	}
	if src["kind"] != "Component" || src["title"] != "t" || src["location"] != "/loc" {
		t.Errorf("unexpected source: %v", src)
	}
	auth, ok := src["authorization"].(map[string]any)
	if !ok || auth["resourceRef"] != "component:default/t" {
		t.Errorf("authorization = %v", src["authorization"])
	}
	if _, ok := doc.Fields["@timestamp"]; ok {
		t.Error("Source must not mutate document fields")
	}
}

func TestUnmarshalJSON_Fallbacks(t *testing.T) {
	var doc Document
	body := `{"title":"svc","content":"from content","url":"https://x/svc","owner":"team-a",
		"authorization":{"resourceRef":"component:default/svc"}}`
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Text != "from content" {
		t.Errorf("Text = %q", doc.Text)
	}
	if doc.Location != "https://x/svc" {
		t.Errorf("Location = %q", doc.Location)
	}
	if doc.Authorization == nil || doc.Authorization.ResourceRef != "component:default/svc" {
		t.Errorf("Authorization = %+v", doc.Authorization)
	}
	if doc.Fields["owner"] != "team-a" {
		t.Errorf("Fields = %v", doc.Fields)
	}
	if _, ok := doc.Fields["title"]; ok {
		t.Error("title must not be duplicated into Fields")
	}
}

func TestUnmarshalJSON_TextWinsOverContent(t *testing.T) {
	var doc Document
	if err := json.Unmarshal([]byte(`{"title":"a","text":"t","content":"c"}`), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Text != "t" {
		t.Errorf("Text = %q, want t", doc.Text)
	}
}

func TestUnmarshalJSON_RejectsNonObject(t *testing.T) {
	var doc Document
	if err := json.Unmarshal([]byte(`null`), &doc); !errors.Is(err, domain.ErrInvalidDocument) {
		t.Errorf("null: err = %v", err)
	}
	if err := json.Unmarshal([]byte(`[1,2]`), &doc); err == nil {
		t.Error("array: expected error")
	}
}

func TestMarshalJSON_Flat(t *testing.T) {
	doc := New("t", "x", "/l", map[string]any{"kind": "API"})
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["kind"] != "API" || m["title"] != "t" || m["text"] != "x" || m["location"] != "/l" {
		t.Errorf("flat json = %v", m)
	}
}

func TestValidateType(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"software-catalog", true},
		{"techdocs", true},
		{"default", true},
		{"", false},
		{"Catalog", false},
		{"a:b", false},
		{"-lead", false},
		{"with space", false},
	}
	for _, tc := range tests {
		err := ValidateType(tc.in)
		if (err == nil) != tc.want {
			t.Errorf("ValidateType(%q) = %v, want valid=%v", tc.in, err, tc.want)
		}
	}
}
