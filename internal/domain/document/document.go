package document

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"time"

	"github.com/kailas-cloud/searchgate/internal/domain"
)

// Reserved source fields with dedicated handling.
const (
	FieldTitle         = "title"
	FieldText          = "text"
	FieldLocation      = "location"
	FieldAuthorization = "authorization"
	FieldTimestamp     = "@timestamp"
	FieldIndexedAt     = "indexed_at"
)

// DefaultType is used when a producer does not name a document type.
const DefaultType = "default"

var typeRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,99}$`)

// Authorization carries the resource reference used by permission checks downstream.
type Authorization struct {
	ResourceRef string `json:"resourceRef"`
}

// Document is a searchable document as pushed by an ingestion source.
// Unknown fields are preserved in Fields and indexed as-is.
type Document struct {
	Title         string
	Text          string
	Location      string
	Authorization *Authorization
	Fields        map[string]any
}

// New creates a Document. extra is copied.
func New(title, text, location string, extra map[string]any) Document {
	return Document{
		Title:    title,
		Text:     text,
		Location: location,
		Fields:   maps.Clone(extra),
	}
}

// Validate checks that the document has an identity source.
func (d *Document) Validate() error {
	if d.Location == "" && d.Title == "" {
		return fmt.Errorf("%w: location or title is required", domain.ErrInvalidDocument)
	}
	return nil
}

// ID returns the stable engine document id: base64url(location), falling back to title.
func (d *Document) ID() string {
	return EncodeID(d.identity())
}

func (d *Document) identity() string {
	if d.Location != "" {
		return d.Location
	}
	return d.Title
}

// EncodeID encodes an identity string into an engine-safe document id.
func EncodeID(identity string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(identity))
}

// DecodeID reverses EncodeID.
func DecodeID(id string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(id)
	if err != nil {
		return "", fmt.Errorf("decode document id: %w", err)
	}
	return string(raw), nil
}

// Source returns the body written to the engine, stamped with the indexing time.
func (d *Document) Source(now time.Time) map[string]any {
	src := d.fieldMap()
	ts := now.UTC().Format(time.RFC3339Nano)
	src[FieldTimestamp] = ts
	src[FieldIndexedAt] = ts
	return src
}

func (d *Document) fieldMap() map[string]any {
	src := make(map[string]any, len(d.Fields)+4)
	maps.Copy(src, d.Fields)
	src[FieldTitle] = d.Title
	src[FieldText] = d.Text
	src[FieldLocation] = d.Location
	if d.Authorization != nil {
		src[FieldAuthorization] = map[string]any{"resourceRef": d.Authorization.ResourceRef}
	}
	return src
}

// MarshalJSON flattens the document into a single JSON object.
func (d Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.fieldMap())
}

// UnmarshalJSON accepts a flat JSON object. Webhook producers also send
// "content" for text and "url" for location; those are used as fallbacks.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("%w: document must be a JSON object", domain.ErrInvalidDocument)
	}

	*d = Document{
		Title:    stringField(raw, FieldTitle),
		Text:     firstString(raw, FieldText, "content"),
		Location: firstString(raw, FieldLocation, "url"),
	}

	if auth, ok := raw[FieldAuthorization].(map[string]any); ok {
		if ref, ok := auth["resourceRef"].(string); ok && ref != "" {
			d.Authorization = &Authorization{ResourceRef: ref}
		}
	}

	delete(raw, FieldTitle)
	delete(raw, FieldText)
	delete(raw, FieldLocation)
	delete(raw, FieldAuthorization)
	if len(raw) > 0 {
		d.Fields = raw
	}
	return nil
}

// ValidateType checks that a document type can be used as an index name suffix.
func ValidateType(docType string) error {
	if !typeRegex.MatchString(docType) {
		return fmt.Errorf("%w: %q must match %s", domain.ErrInvalidType, docType, typeRegex.String())
	}
	return nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := stringField(m, k); s != "" {
			return s
		}
	}
	return ""
}
