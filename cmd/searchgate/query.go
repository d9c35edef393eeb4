package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/searchgate/internal/domain/search/query"
)

func newQueryCmd(env *string) *cobra.Command {
	var (
		term    string
		filters []string
		limit   int
		cursor  string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a search query and print the result page as JSON",
		Example: `  searchgate query --term '"user service"' --filter lifecycle=production
  searchgate query --term payments --filter kind=Component,API --limit 10`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := parseFilters(filters)
			if err != nil {
				return err
			}
			q, err := query.New(term, f, limit, cursor)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, *env)
			if err != nil {
				return err
			}
			defer a.close()

			page, err := a.search.Query(ctx, q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}

	cmd.Flags().StringVar(&term, "term", "", "Search term; wrap in double quotes for a phrase")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "Facet filter field=value[,value...] (repeatable)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Page size (default from config)")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Page cursor from a previous result")

	return cmd
}

// parseFilters turns field=v1,v2 flags into filters. A single value is a
// scalar filter, several values are a set.
func parseFilters(raw []string) (query.Filters, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(query.Filters, len(raw))
	for _, r := range raw {
		field, value, ok := strings.Cut(r, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid filter %q, want field=value", r)
		}
		values := strings.Split(value, ",")
		for i := range values {
			values[i] = strings.TrimSpace(values[i])
		}
		if len(values) == 1 {
			out[field] = query.Scalar(values[0])
		} else {
			out[field] = query.List(values...)
		}
	}
	return out, nil
}
