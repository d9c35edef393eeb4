package engine

import (
	"errors"
	"strings"
)

// FieldType enumerates supported mapping types.
type FieldType string

const (
	// FieldText is an analyzed full-text field.
	FieldText FieldType = "text"
	// FieldKeyword is an exact-match field.
	FieldKeyword FieldType = "keyword"
	// FieldDate is a date field.
	FieldDate FieldType = "date"
	// FieldObject groups nested properties.
	FieldObject FieldType = "object"
)

// KeywordSubfield is the name of the exact-match sub-field added to text fields.
const KeywordSubfield = "keyword"

// Field describes a single mapped field.
type Field struct {
	Name       string
	Type       FieldType
	Analyzer   string
	Keyword    bool // add an exact-match sub-field
	Properties []Field
}

// IndexDefinition is a complete index schema used by index creation.
type IndexDefinition struct {
	Shards   int
	Replicas int

	Analyzers    map[string]map[string]any
	TokenFilters map[string]map[string]any

	Fields []Field

	// DynamicStrings maps unknown string fields to text + keyword sub-field.
	DynamicStrings     bool
	DynamicIgnoreAbove int
}

// Validate checks that the definition is well-formed.
func (d *IndexDefinition) Validate() error {
	if len(d.Fields) == 0 {
		return errors.New("at least one field is required")
	}
	return validateFields(d.Fields, "")
}

func validateFields(fields []Field, parent string) error {
	seen := make(map[string]bool, len(fields))
	for i := range fields {
		f := &fields[i]
		if f.Name == "" {
			return errors.New("field name is required under " + orRoot(parent))
		}
		if seen[f.Name] {
			return errors.New("duplicate field name: " + parent + f.Name)
		}
		seen[f.Name] = true

		switch f.Type {
		case FieldText, FieldKeyword, FieldDate:
			if len(f.Properties) > 0 {
				return errors.New("only object fields can have properties: " + parent + f.Name)
			}
		case FieldObject:
			if len(f.Properties) == 0 {
				return errors.New("object field requires properties: " + parent + f.Name)
			}
			if err := validateFields(f.Properties, parent+f.Name+"."); err != nil {
				return err
			}
		default:
			return errors.New("unknown field type for " + parent + f.Name)
		}
	}
	return nil
}

func orRoot(p string) string {
	if p == "" {
		return "root"
	}
	return strings.TrimSuffix(p, ".")
}

// Source renders the definition as an index-creation body.
func (d *IndexDefinition) Source() map[string]any {
	settings := map[string]any{
		"number_of_shards":   d.Shards,
		"number_of_replicas": d.Replicas,
	}
	if len(d.Analyzers) > 0 || len(d.TokenFilters) > 0 {
		analysis := map[string]any{}
		if len(d.Analyzers) > 0 {
			analysis["analyzer"] = d.Analyzers
		}
		if len(d.TokenFilters) > 0 {
			analysis["filter"] = d.TokenFilters
		}
		settings["analysis"] = analysis
	}

	mappings := map[string]any{"properties": fieldsSource(d.Fields)}
	if d.DynamicStrings {
		keyword := map[string]any{"type": "keyword"}
		if d.DynamicIgnoreAbove > 0 {
			keyword["ignore_above"] = d.DynamicIgnoreAbove
		}
		mappings["dynamic_templates"] = []any{
			map[string]any{
				"strings": map[string]any{
					"match_mapping_type": "string",
					"mapping": map[string]any{
						"type":   "text",
						"fields": map[string]any{KeywordSubfield: keyword},
					},
				},
			},
		}
	}

	return map[string]any{"settings": settings, "mappings": mappings}
}

func fieldsSource(fields []Field) map[string]any {
	props := make(map[string]any, len(fields))
	for i := range fields {
		f := &fields[i]
		if f.Type == FieldObject {
			props[f.Name] = map[string]any{"properties": fieldsSource(f.Properties)}
			continue
		}
		m := map[string]any{"type": string(f.Type)}
		if f.Analyzer != "" {
			m["analyzer"] = f.Analyzer
		}
		if f.Keyword {
			m["fields"] = map[string]any{KeywordSubfield: map[string]any{"type": "keyword"}}
		}
		props[f.Name] = m
	}
	return props
}

// IsValidIndexName reports whether s is usable as a physical index name:
// lowercase, no path or wildcard characters, not starting with -, _ or +.
func IsValidIndexName(s string) bool {
	if s == "" || len(s) > 255 || s == "." || s == ".." {
		return false
	}
	switch s[0] {
	case '-', '_', '+':
		return false
	}
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			return false
		}
		if strings.ContainsRune(`\/*?"<>| ,#:`, r) {
			return false
		}
	}
	return true
}
