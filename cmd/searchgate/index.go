package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	domdoc "github.com/kailas-cloud/searchgate/internal/domain/document"
	"github.com/kailas-cloud/searchgate/internal/usecase/indexing"
)

const maxLineBytes = 16 << 20

func newIndexCmd(env *string) *cobra.Command {
	var docType, file string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index NDJSON documents from a file or stdin",
		Long: `Reads one JSON document per line and writes them through a single
indexer session. The journal records them as well when it is enabled.`,
		Example: `  searchgate index --type techdocs --file docs.ndjson
  cat catalog.ndjson | searchgate index --type software-catalog`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *env)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.waitForReady(ctx); err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(filepath.Clean(file))
				if err != nil {
					return fmt.Errorf("open %s: %w", file, err)
				}
				defer func() { _ = f.Close() }()
				r = f
			}

			docs, err := readNDJSON(r)
			if err != nil {
				return err
			}

			var report indexing.Report
			if a.journal != nil {
				report, err = a.ingest.IndexDocuments(ctx, docType, docs)
			} else {
				report, err = streamDocuments(cmd, a.indexing, docType, docs)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&docType, "type", domdoc.DefaultType, "Document type (index suffix)")
	cmd.Flags().StringVar(&file, "file", "-", "NDJSON file, - for stdin")

	return cmd
}

// streamDocuments pushes docs straight through one indexer session.
func streamDocuments(cmd *cobra.Command, svc *indexing.Service, docType string, docs []domdoc.Document) (indexing.Report, error) {
	ctx := cmd.Context()
	ix, err := svc.Indexer(docType)
	if err != nil {
		return indexing.Report{}, err
	}
	start := time.Now()
	for i := range docs {
		if err := ix.Accept(ctx, docs[i]); err != nil {
			report, _ := ix.Close(ctx)
			return report, fmt.Errorf("document %d: %w", i, err)
		}
	}
	report, err := ix.Close(ctx)
	if err != nil {
		return report, err
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "indexed %d documents in %s\n", report.Indexed, time.Since(start).Round(time.Millisecond))
	return report, nil
}

func readNDJSON(r io.Reader) ([]domdoc.Document, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var docs []domdoc.Document
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var d domdoc.Document
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		docs = append(docs, d)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read documents: %w", err)
	}
	return docs, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
