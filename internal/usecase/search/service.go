package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchgate/internal/domain"
	domdoc "github.com/kailas-cloud/searchgate/internal/domain/document"
	"github.com/kailas-cloud/searchgate/internal/domain/search/cursor"
	"github.com/kailas-cloud/searchgate/internal/domain/search/query"
	"github.com/kailas-cloud/searchgate/internal/domain/search/result"
	"github.com/kailas-cloud/searchgate/internal/engine"
	"github.com/kailas-cloud/searchgate/internal/metrics"
	"github.com/kailas-cloud/searchgate/internal/tracing"
)

// Page size defaults.
const (
	DefaultPageSize    = 25
	DefaultMaxPageSize = 100
	// DefaultMaxResultWindow matches the engine's index.max_result_window.
	DefaultMaxResultWindow = 10000
)

// Placeholders for missing document fields in results.
const (
	untitled        = "Untitled"
	noLocation      = "#"
	highlightPreTag = "<mark>"
	highlightPost   = "</mark>"
)

// FacetConfig describes one terms aggregation returned with every page.
type FacetConfig struct {
	Name    string
	Field   string
	Size    int
	Missing string
}

// DefaultFacets are the catalog facets: kind, lifecycle, namespace, owner.
func DefaultFacets() []FacetConfig {
	return []FacetConfig{
		{Name: "kinds", Field: "kind", Size: 20, Missing: "Unknown"},
		{Name: "lifecycles", Field: "lifecycle", Size: 10, Missing: "N/A"},
		{Name: "namespaces", Field: "namespace", Size: 20, Missing: "default"},
		{Name: "owners", Field: "owner", Size: 20, Missing: "N/A"},
	}
}

// Config is the query policy of the facade.
type Config struct {
	IndexPrefix     string
	ExcludedKind    string
	KeywordSuffix   string
	DefaultPageSize int
	MaxPageSize     int
	// MaxResultWindow caps from+size of any page request.
	MaxResultWindow int
	Facets          []FacetConfig
}

// Service runs one query round-trip: cursor decode, translation, engine
// search, hit normalization, and cursor/facet encoding.
type Service struct {
	engine     Engine
	translator *Translator
	cfg        Config
	logger     *zap.Logger
}

// New creates a search service. Zero config values fall back to defaults.
func New(e Engine, cfg Config, logger *zap.Logger) *Service {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = DefaultPageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = DefaultMaxPageSize
	}
	if cfg.MaxResultWindow <= 0 {
		cfg.MaxResultWindow = DefaultMaxResultWindow
	}
	if cfg.ExcludedKind == "" {
		cfg.ExcludedKind = DefaultExcludedKind
	}
	if cfg.KeywordSuffix == "" {
		cfg.KeywordSuffix = DefaultKeywordSuffix
	}
	if cfg.Facets == nil {
		cfg.Facets = DefaultFacets()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		engine:     e,
		translator: NewTranslator(cfg.ExcludedKind, cfg.KeywordSuffix),
		cfg:        cfg,
		logger:     logger,
	}
}

// Translator exposes the configured translator.
func (s *Service) Translator() *Translator {
	return s.translator
}

// Query executes q and returns one page of normalized results.
func (s *Service) Query(ctx context.Context, q query.Query) (result.Page, error) {
	if err := q.Validate(); err != nil {
		return result.Page{}, err
	}

	ctx, span := tracing.Tracer().Start(ctx, "search.Query")
	defer span.End()

	page := cursor.Decode(q.PageCursor)
	limit := s.pageLimit(q.PageLimit)
	lastPage := s.lastReachablePage(limit)
	if page > lastPage {
		s.logger.Warn("page cursor beyond result window, using first page",
			zap.Int("page", page),
			zap.Int("page_limit", limit),
			zap.Int("max_result_window", s.cfg.MaxResultWindow),
		)
		page = 0
	}
	indices := []string{s.indexPattern()}

	s.logger.Info("search query received",
		zap.String("term", q.Term),
		zap.Any("filters", q.Filters),
		zap.Int("page_limit", limit),
		zap.String("page_cursor", q.PageCursor),
	)

	translated := s.translator.Translate(q)
	req := s.buildRequest(translated, indices, page*limit, limit)

	span.SetAttributes(
		attribute.String("search.term", q.Term),
		attribute.Int("search.page", page),
		attribute.Int("search.page_limit", limit),
	)

	start := time.Now()
	resp, err := s.engine.Search(ctx, req)
	elapsed := time.Since(start)
	metrics.SearchQueryDuration.Observe(elapsed.Seconds())

	if err != nil {
		metrics.SearchQueriesTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		s.logger.Error("search query failed",
			zap.String("term", q.Term),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		var ee *engine.Error
		if errors.As(err, &ee) && ee.Status == 0 {
			return result.Page{}, fmt.Errorf("%w: %w", domain.ErrEngineUnavailable, err)
		}
		return result.Page{}, fmt.Errorf("search: %w", err)
	}
	metrics.SearchQueriesTotal.WithLabelValues("ok").Inc()

	s.logger.Info("search query completed",
		zap.String("term", q.Term),
		zap.Duration("duration", elapsed),
		zap.Int("total", resp.Total),
		zap.Int("indices", len(indices)),
	)
	span.SetAttributes(attribute.Int("search.total", resp.Total))

	out := result.Page{
		Results: s.mapHits(resp.Hits),
		Facets:  s.mapFacets(resp.Aggregations),
		Total:   resp.Total,
	}
	if resp.Total > (page+1)*limit && page < lastPage {
		out.NextPageCursor = cursor.Encode(page + 1)
	}
	if page > 0 {
		out.PreviousPageCursor = cursor.Encode(page - 1)
	}
	return out, nil
}

// lastReachablePage is the highest page whose from+size fits the result window.
func (s *Service) lastReachablePage(limit int) int {
	return max((s.cfg.MaxResultWindow-limit)/limit, 0)
}

func (s *Service) pageLimit(requested int) int {
	if requested <= 0 {
		return s.cfg.DefaultPageSize
	}
	return min(requested, s.cfg.MaxPageSize)
}

func (s *Service) indexPattern() string {
	return s.cfg.IndexPrefix + "-*"
}

func (s *Service) buildRequest(q TranslatedQuery, indices []string, from, size int) *engine.SearchRequest {
	titleKeyword := "title." + s.cfg.KeywordSuffix

	aggs := make([]engine.TermsAggregation, 0, len(s.cfg.Facets))
	for _, f := range s.cfg.Facets {
		aggs = append(aggs, engine.TermsAggregation{
			Name:    f.Name,
			Field:   f.Field + "." + s.cfg.KeywordSuffix,
			Size:    f.Size,
			Missing: f.Missing,
		})
	}

	return &engine.SearchRequest{
		Indices: indices,
		Query:   q.Source(),
		From:    from,
		Size:    size,
		Highlight: &engine.Highlight{
			Fields: map[string]engine.HighlightField{
				domdoc.FieldTitle: {NumberOfFragments: 0},
				domdoc.FieldText:  {FragmentSize: 150, NumberOfFragments: 3},
				titleKeyword:      {NumberOfFragments: 0},
			},
			PreTags:  []string{highlightPreTag},
			PostTags: []string{highlightPost},
		},
		SortByScore:  true,
		Aggregations: aggs,
	}
}

func (s *Service) mapHits(hits []engine.Hit) []result.Result {
	out := make([]result.Result, 0, len(hits))
	for _, h := range hits {
		title, _ := h.Source[domdoc.FieldTitle].(string)
		if title == "" {
			continue
		}
		if kind, _ := h.Source["kind"].(string); kind == s.cfg.ExcludedKind {
			continue
		}

		highlight := h.Highlight
		if highlight == nil {
			highlight = map[string][]string{}
		}
		out = append(out, result.Result{
			Type:      strings.TrimPrefix(h.Index, s.cfg.IndexPrefix+"-"),
			Document:  normalizeDocument(h.Source),
			Highlight: highlight,
			Rank:      h.Score,
		})
	}
	return out
}

// normalizeDocument fills title, text and location defaults; fields present
// in the source always win.
func normalizeDocument(src map[string]any) map[string]any {
	title := firstNonEmpty(src, domdoc.FieldTitle)
	if title == "" {
		title = untitled
	}
	location := firstNonEmpty(src, domdoc.FieldLocation, "url")
	if location == "" {
		location = noLocation
	}

	doc := make(map[string]any, len(src)+3)
	doc[domdoc.FieldTitle] = title
	doc[domdoc.FieldText] = firstNonEmpty(src, domdoc.FieldText, domdoc.FieldTitle)
	doc[domdoc.FieldLocation] = location
	for k, v := range src {
		if isBlank(v) {
			if _, ok := doc[k]; ok {
				continue
			}
		}
		doc[k] = v
	}
	return doc
}

func (s *Service) mapFacets(aggs map[string][]engine.Bucket) map[string][]result.Bucket {
	out := make(map[string][]result.Bucket, len(s.cfg.Facets))
	for _, f := range s.cfg.Facets {
		raw := aggs[f.Name]
		buckets := make([]result.Bucket, 0, len(raw))
		for _, b := range raw {
			buckets = append(buckets, result.Bucket{Value: b.Key, Count: b.DocCount})
		}
		out[f.Name] = buckets
	}
	return out
}

func firstNonEmpty(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
