package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/kailas-cloud/searchgate/internal/db"
	"github.com/kailas-cloud/searchgate/internal/domain"
	domdoc "github.com/kailas-cloud/searchgate/internal/domain/document"
)

// DefaultKeyPrefix namespaces every journal key.
const DefaultKeyPrefix = "searchgate:"

const listBatch = 200

// store is the consumer interface for the journal (ISP).
type store interface {
	Ping(ctx context.Context) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) (int64, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Repo keeps the last pushed version of every document so an index can be
// rebuilt without the original source.
type Repo struct {
	store  store
	prefix string
}

// New creates a journal repository. An empty prefix uses DefaultKeyPrefix.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Repo{store: s, prefix: prefix}
}

// Ping checks the backing store.
func (r *Repo) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// Put records documents of one type. Documents are keyed by their engine id,
// so a later Put of the same identity overwrites the earlier one.
func (r *Repo) Put(ctx context.Context, docType string, docs []domdoc.Document, now time.Time) error {
	if len(docs) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, 0, len(docs))
	for i := range docs {
		body, err := json.Marshal(docs[i])
		if err != nil {
			return fmt.Errorf("marshal document %d: %w", i, err)
		}
		items = append(items, db.HashSetItem{
			Key: r.docKey(docType, docs[i].ID()),
			Fields: map[string]string{
				"type":       docType,
				"body":       string(body),
				"updated_at": now.UTC().Format(time.RFC3339Nano),
			},
		})
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("journal put %s: %w", docType, err)
	}
	if err := r.store.SAdd(ctx, r.typesKey(), docType); err != nil {
		return fmt.Errorf("journal register type %s: %w", docType, err)
	}
	return nil
}

// Delete removes one journaled document. Returns domain.ErrNotFound when
// nothing was stored under that id.
func (r *Repo) Delete(ctx context.Context, docType, id string) error {
	n, err := r.store.Del(ctx, r.docKey(docType, id))
	if err != nil {
		return fmt.Errorf("journal delete %s/%s: %w", docType, id, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns every journaled document of a type, ordered by id.
func (r *Repo) List(ctx context.Context, docType string) ([]domdoc.Document, error) {
	keys, err := r.store.Scan(ctx, r.docKey(docType, "*"))
	if err != nil {
		return nil, fmt.Errorf("journal scan %s: %w", docType, err)
	}
	sort.Strings(keys)

	docs := make([]domdoc.Document, 0, len(keys))
	for start := 0; start < len(keys); start += listBatch {
		end := min(start+listBatch, len(keys))
		hashes, err := r.store.HGetAllMulti(ctx, keys[start:end])
		if err != nil {
			return nil, fmt.Errorf("journal load %s: %w", docType, err)
		}
		for i, h := range hashes {
			body, ok := h["body"]
			if !ok {
				// deleted between SCAN and HGETALL
				continue
			}
			var d domdoc.Document
			if err := json.Unmarshal([]byte(body), &d); err != nil {
				return nil, fmt.Errorf("journal decode %s: %w", keys[start+i], err)
			}
			docs = append(docs, d)
		}
	}
	return docs, nil
}

// Types returns every document type that has been journaled, sorted.
func (r *Repo) Types(ctx context.Context) ([]string, error) {
	types, err := r.store.SMembers(ctx, r.typesKey())
	if err != nil {
		return nil, fmt.Errorf("journal types: %w", err)
	}
	sort.Strings(types)
	return types, nil
}

func (r *Repo) docKey(docType, id string) string {
	return fmt.Sprintf("%sdoc:%s:%s", r.prefix, docType, id)
}

func (r *Repo) typesKey() string {
	return r.prefix + "types"
}

