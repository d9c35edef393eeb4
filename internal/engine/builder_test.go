package engine

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSchemaBuilder_Simple(t *testing.T) {
	def := NewSchema().
		Keyword("location").
		Date("@timestamp").
		MustBuild()

	if def.Shards != 1 || def.Replicas != 0 {
		t.Errorf("shards/replicas = %d/%d, want 1/0", def.Shards, def.Replicas)
	}
	if len(def.Fields) != 2 {
		t.Fatalf("fields count = %d, want 2", len(def.Fields))
	}
	if def.Fields[0].Type != FieldKeyword {
		t.Errorf("field[0] = %+v, want keyword", def.Fields[0])
	}
}

func TestSchemaBuilder_NoFields(t *testing.T) {
	_, err := NewSchema().Build()
	if err == nil {
		t.Fatal("expected error for empty schema")
	}
}

func TestSchemaBuilder_DuplicateField(t *testing.T) {
	_, err := NewSchema().Keyword("a").Text("a", "").Build()
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestSchemaBuilder_EmptyObject(t *testing.T) {
	_, err := NewSchema().Object("authorization").Build()
	if err == nil {
		t.Fatal("expected error for object without properties")
	}
}

func TestSchemaBuilder_MustBuildPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	NewSchema().MustBuild()
}

func TestDefaultSchema_Source(t *testing.T) {
	src := DefaultSchema().Source()

	raw, err := json.Marshal(src)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got struct {
		Settings struct {
			Shards   int `json:"number_of_shards"`
			Replicas int `json:"number_of_replicas"`
			Analysis struct {
				Analyzer map[string]struct {
					Tokenizer string   `json:"tokenizer"`
					Filter    []string `json:"filter"`
				} `json:"analyzer"`
				Filter map[string]map[string]any `json:"filter"`
			} `json:"analysis"`
		} `json:"settings"`
		Mappings struct {
			DynamicTemplates []map[string]struct {
				MatchMappingType string `json:"match_mapping_type"`
				Mapping          struct {
					Type   string `json:"type"`
					Fields struct {
						Keyword struct {
							Type        string `json:"type"`
							IgnoreAbove int    `json:"ignore_above"`
						} `json:"keyword"`
					} `json:"fields"`
				} `json:"mapping"`
			} `json:"dynamic_templates"`
			Properties map[string]json.RawMessage `json:"properties"`
		} `json:"mappings"`
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.Settings.Shards != 1 || got.Settings.Replicas != 0 {
		t.Errorf("shards/replicas = %d/%d", got.Settings.Shards, got.Settings.Replicas)
	}
	an, ok := got.Settings.Analysis.Analyzer[SearchAnalyzer]
	if !ok {
		t.Fatalf("analyzer %q missing", SearchAnalyzer)
	}
	if an.Tokenizer != "standard" {
		t.Errorf("tokenizer = %q", an.Tokenizer)
	}
	if strings.Join(an.Filter, ",") != "lowercase,stop,snowball,word_delimiter" {
		t.Errorf("filters = %v", an.Filter)
	}
	wd := got.Settings.Analysis.Filter["word_delimiter"]
	if wd["catenate_words"] != true {
		t.Errorf("word_delimiter = %v", wd)
	}

	for _, name := range []string{"title", "text", "location", "@timestamp", "indexed_at", "authorization"} {
		if _, ok := got.Mappings.Properties[name]; !ok {
			t.Errorf("property %q missing", name)
		}
	}
	if !strings.Contains(string(got.Mappings.Properties["title"]), `"keyword"`) {
		t.Errorf("title has no keyword sub-field: %s", got.Mappings.Properties["title"])
	}
	if !strings.Contains(string(got.Mappings.Properties["authorization"]), `"resourceRef":{"type":"keyword"}`) {
		t.Errorf("authorization = %s", got.Mappings.Properties["authorization"])
	}

	if len(got.Mappings.DynamicTemplates) != 1 {
		t.Fatalf("dynamic templates = %d, want 1", len(got.Mappings.DynamicTemplates))
	}
	strs := got.Mappings.DynamicTemplates[0]["strings"]
	if strs.MatchMappingType != "string" || strs.Mapping.Type != "text" {
		t.Errorf("strings template = %+v", strs)
	}
	if strs.Mapping.Fields.Keyword.IgnoreAbove != 256 {
		t.Errorf("ignore_above = %d, want 256", strs.Mapping.Fields.Keyword.IgnoreAbove)
	}
}

func TestIsValidIndexName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"backstage-index__software-catalog", true},
		{"docs", true},
		{"", false},
		{"Upper", false},
		{"_hidden", false},
		{"-dash", false},
		{"with space", false},
		{"a*b", false},
		{"..", false},
		{strings.Repeat("a", 256), false},
	}
	for _, tt := range tests {
		if got := IsValidIndexName(tt.name); got != tt.want {
			t.Errorf("IsValidIndexName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
