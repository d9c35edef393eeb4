package search

import (
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/searchgate/internal/domain/search/query"
)

// Relevance boosts for free-text terms, strongest first.
const (
	boostExactTitle    = 5
	boostPrefixTitle   = 3
	boostFuzzyTitle    = 2
	boostWildcardTitle = 1.5
	boostFuzzyText     = 1
	boostPhraseTitle   = 3
)

// Defaults for the translation policy.
const (
	DefaultExcludedKind  = "Location"
	DefaultKeywordSuffix = "keyword"
)

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// TranslatedQuery is a bool query split into scoring and non-scoring clauses.
type TranslatedQuery struct {
	Must   []map[string]any
	Filter []map[string]any
}

// Source renders the query DSL. Without relevance clauses the query matches
// everything and only filters apply.
func (q TranslatedQuery) Source() map[string]any {
	if len(q.Must) == 0 && len(q.Filter) == 0 {
		return map[string]any{"match_all": map[string]any{}}
	}
	b := map[string]any{}
	if len(q.Must) > 0 {
		b["must"] = q.Must
	} else {
		b["must"] = []map[string]any{{"match_all": map[string]any{}}}
	}
	if len(q.Filter) > 0 {
		b["filter"] = q.Filter
	}
	return map[string]any{"bool": b}
}

// Translator converts search requests into engine bool queries. It is pure
// and safe for concurrent use.
type Translator struct {
	excludedKind  string
	keywordSuffix string
}

// NewTranslator creates a translator. Empty arguments use the defaults.
func NewTranslator(excludedKind, keywordSuffix string) *Translator {
	if excludedKind == "" {
		excludedKind = DefaultExcludedKind
	}
	if keywordSuffix == "" {
		keywordSuffix = DefaultKeywordSuffix
	}
	return &Translator{excludedKind: excludedKind, keywordSuffix: keywordSuffix}
}

// Translate builds the query for q. It never fails: empty filter values are
// dropped and an empty term matches everything.
func (t *Translator) Translate(q query.Query) TranslatedQuery {
	var out TranslatedQuery

	if term := strings.TrimSpace(q.Term); term != "" {
		if phrase, ok := unquote(term); ok {
			if phrase != "" {
				out.Must = append(out.Must, phraseClause(phrase))
			}
		} else {
			out.Must = append(out.Must, t.relevanceClause(term))
		}
	}

	out.Filter = append(out.Filter, map[string]any{
		"bool": map[string]any{
			"must_not": map[string]any{
				"term": map[string]any{t.keyword("kind"): t.excludedKind},
			},
		},
	})

	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := q.Filters[k]
		if v.IsEmpty() {
			continue
		}
		if v.IsList() {
			out.Filter = append(out.Filter, map[string]any{
				"terms": map[string]any{t.keyword(k): v.Values()},
			})
			continue
		}
		out.Filter = append(out.Filter, map[string]any{
			"term": map[string]any{t.keyword(k): v.Value()},
		})
	}

	return out
}

func (t *Translator) keyword(field string) string {
	return field + "." + t.keywordSuffix
}

func (t *Translator) relevanceClause(term string) map[string]any {
	title := t.keyword("title")
	lower := strings.ToLower(term)
	return map[string]any{
		"bool": map[string]any{
			"should": []map[string]any{
				{"match": map[string]any{title: map[string]any{
					"query": term, "boost": boostExactTitle,
				}}},
				{"prefix": map[string]any{title: map[string]any{
					"value": lower, "boost": boostPrefixTitle,
				}}},
				{"match": map[string]any{"title": map[string]any{
					"query": term, "fuzziness": "AUTO", "boost": boostFuzzyTitle,
				}}},
				{"wildcard": map[string]any{title: map[string]any{
					"value": "*" + wildcardEscaper.Replace(lower) + "*", "boost": boostWildcardTitle,
				}}},
				{"match": map[string]any{"text": map[string]any{
					"query": term, "fuzziness": "AUTO", "boost": boostFuzzyText,
				}}},
			},
			"minimum_should_match": 1,
		},
	}
}

func phraseClause(phrase string) map[string]any {
	return map[string]any{
		"multi_match": map[string]any{
			"query":  phrase,
			"type":   "phrase",
			"fields": []string{"title^" + strconv.Itoa(boostPhraseTitle), "text"},
		},
	}
}

// unquote reports whether term is wrapped in double quotes and returns the
// inner text. A lone quote or a quote on one side only is free text.
func unquote(term string) (string, bool) {
	if len(term) < 2 || term[0] != '"' || term[len(term)-1] != '"' {
		return "", false
	}
	return strings.TrimSpace(term[1 : len(term)-1]), true
}
