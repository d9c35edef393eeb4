package engine

// SchemaBuilder is a fluent builder for index definitions.
type SchemaBuilder struct {
	def IndexDefinition
}

// NewSchema starts building an index definition with one shard and no replicas.
func NewSchema() *SchemaBuilder {
	return &SchemaBuilder{def: IndexDefinition{Shards: 1}}
}

// Shards sets the primary shard count.
func (b *SchemaBuilder) Shards(n int) *SchemaBuilder {
	b.def.Shards = n
	return b
}

// Replicas sets the replica count.
func (b *SchemaBuilder) Replicas(n int) *SchemaBuilder {
	b.def.Replicas = n
	return b
}

// Analyzer registers a custom analyzer.
func (b *SchemaBuilder) Analyzer(name string, def map[string]any) *SchemaBuilder {
	if b.def.Analyzers == nil {
		b.def.Analyzers = make(map[string]map[string]any)
	}
	b.def.Analyzers[name] = def
	return b
}

// TokenFilter registers a custom token filter.
func (b *SchemaBuilder) TokenFilter(name string, def map[string]any) *SchemaBuilder {
	if b.def.TokenFilters == nil {
		b.def.TokenFilters = make(map[string]map[string]any)
	}
	b.def.TokenFilters[name] = def
	return b
}

// Text adds an analyzed text field.
func (b *SchemaBuilder) Text(name, analyzer string) *SchemaBuilder {
	b.def.Fields = append(b.def.Fields, Field{Name: name, Type: FieldText, Analyzer: analyzer})
	return b
}

// TextWithKeyword adds an analyzed text field with an exact-match sub-field.
func (b *SchemaBuilder) TextWithKeyword(name, analyzer string) *SchemaBuilder {
	b.def.Fields = append(b.def.Fields, Field{Name: name, Type: FieldText, Analyzer: analyzer, Keyword: true})
	return b
}

// Keyword adds an exact-match field.
func (b *SchemaBuilder) Keyword(name string) *SchemaBuilder {
	b.def.Fields = append(b.def.Fields, Field{Name: name, Type: FieldKeyword})
	return b
}

// Date adds a date field.
func (b *SchemaBuilder) Date(name string) *SchemaBuilder {
	b.def.Fields = append(b.def.Fields, Field{Name: name, Type: FieldDate})
	return b
}

// Object adds an object field with nested properties.
func (b *SchemaBuilder) Object(name string, props ...Field) *SchemaBuilder {
	b.def.Fields = append(b.def.Fields, Field{Name: name, Type: FieldObject, Properties: props})
	return b
}

// DynamicStrings maps unknown string fields to text with a keyword sub-field.
func (b *SchemaBuilder) DynamicStrings(ignoreAbove int) *SchemaBuilder {
	b.def.DynamicStrings = true
	b.def.DynamicIgnoreAbove = ignoreAbove
	return b
}

// Build validates and returns the definition.
func (b *SchemaBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	return &def, nil
}

// MustBuild calls Build and panics on error.
func (b *SchemaBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// SearchAnalyzer is the analyzer used for title and text.
const SearchAnalyzer = "search_analyzer"

// DefaultSchema returns the mapping for searchable documents: title (text +
// keyword), text, location (keyword), timestamps, authorization.resourceRef,
// and a dynamic fallback so unknown string fields stay searchable.
func DefaultSchema() *IndexDefinition {
	return NewSchema().
		Shards(1).
		Replicas(0).
		Analyzer(SearchAnalyzer, map[string]any{
			"type":      "custom",
			"tokenizer": "standard",
			"filter":    []string{"lowercase", "stop", "snowball", "word_delimiter"},
		}).
		TokenFilter("word_delimiter", map[string]any{
			"type":                  "word_delimiter",
			"generate_word_parts":   true,
			"generate_number_parts": true,
			"catenate_words":        true,
		}).
		TextWithKeyword("title", SearchAnalyzer).
		Text("text", SearchAnalyzer).
		Keyword("location").
		Date("@timestamp").
		Date("indexed_at").
		Object("authorization", Field{Name: "resourceRef", Type: FieldKeyword}).
		DynamicStrings(256).
		MustBuild()
}
