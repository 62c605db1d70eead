package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matsen/pubcat/internal/export"
	"github.com/matsen/pubcat/internal/publication"
	"github.com/matsen/pubcat/internal/query"
	"github.com/matsen/pubcat/internal/storage"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
	exportAppend string
	exportYear   string
	exportType   string
	exportLive   bool
)

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "jsonl", "Export format: jsonl, json, or bibtex")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (default: stdout)")
	exportCmd.Flags().StringVar(&exportAppend, "append", "", "Append new entries to an existing .bib file (skips duplicates)")
	exportCmd.Flags().StringVar(&exportYear, "year", query.All, "Only publications from this year")
	exportCmd.Flags().StringVar(&exportType, "type", query.All, "Only publications of this entry type")
	exportCmd.Flags().BoolVar(&exportLive, "live", false, "Fetch the document instead of using the snapshot")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [query]",
	Short: "Export parsed publications as JSONL, JSON, or BibTeX",
	Long: `Export parsed publications in document order, optionally filtered.

With --append, entries are written as BibTeX to an existing .bib file.
Entries already present (matched by DOI, then by citation key) are skipped.

Examples:
  pubcat export > pubs.jsonl
  pubcat export --format json -o pubs.json
  pubcat export --format bibtex --year 2021
  pubcat export --append thesis.bib --type article`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	switch exportFormat {
	case "jsonl", "json", "bibtex":
	default:
		exitWithError(ExitError, "invalid format %q: must be jsonl, json, or bibtex", exportFormat)
	}
	if exportAppend != "" && exportOutput != "" {
		exitWithError(ExitError, "--append and --output cannot be used together")
	}

	cfg := mustLoadConfig()
	db := mustOpenCache(cfg)
	defer db.Close()

	records := query.Filter(mustLoadRecords(cmd.Context(), cfg, db, exportLive), query.Filters{
		Text:     strings.Join(args, " "),
		Year:     exportYear,
		Category: strings.ToLower(exportType),
	})

	if exportAppend != "" {
		runExportAppend(records)
		return nil
	}

	if exportOutput == "" {
		if err := writeExport(os.Stdout, records); err != nil {
			exitWithError(ExitError, "writing export: %v", err)
		}
		return nil
	}

	var err error
	if exportFormat == "jsonl" {
		err = storage.WriteJSONL(exportOutput, records)
	} else {
		err = writeExportFile(exportOutput, records)
	}
	if err != nil {
		exitWithError(ExitError, "writing export: %v", err)
	}

	if humanOutput {
		fmt.Printf("Exported %d publications to %s\n", len(records), exportOutput)
	} else {
		outputJSON(StatusResponse{Status: "exported", Path: exportOutput, Count: len(records)})
	}
	return nil
}

// ExportAppendResponse is the response for export --append.
type ExportAppendResponse struct {
	Path    string `json:"path"`
	Added   int    `json:"added"`
	Skipped int    `json:"skipped"`
}

func runExportAppend(records []publication.Record) {
	idx, err := export.ReadIndex(exportAppend)
	if err != nil {
		exitWithError(ExitError, "reading %s: %v", exportAppend, err)
	}

	missing := idx.Missing(records)
	if len(missing) > 0 {
		if err := export.AppendToBibFile(exportAppend, export.ToBibTeXList(missing)); err != nil {
			exitWithError(ExitError, "appending to %s: %v", exportAppend, err)
		}
	}

	resp := ExportAppendResponse{Path: exportAppend, Added: len(missing), Skipped: len(records) - len(missing)}
	if humanOutput {
		fmt.Printf("Appended %d publications to %s (%d already present)\n", resp.Added, resp.Path, resp.Skipped)
	} else {
		outputJSON(resp)
	}
}

func writeExport(w io.Writer, records []publication.Record) error {
	switch exportFormat {
	case "jsonl":
		return storage.EncodeJSONL(w, records)
	case "bibtex":
		_, err := io.WriteString(w, export.ToBibTeXList(records))
		return err
	default:
		if records == nil {
			records = []publication.Record{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
}

func writeExportFile(path string, records []publication.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeExport(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
