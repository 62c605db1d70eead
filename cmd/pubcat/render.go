package main

import (
	"fmt"
	"os"

	"github.com/matsen/pubcat/internal/catalog"
	"github.com/matsen/pubcat/internal/format"
	"github.com/matsen/pubcat/internal/query"
	"github.com/matsen/pubcat/internal/render"
	"github.com/spf13/cobra"
)

var (
	renderOutput string
	renderTitle  string
	renderYear   string
	renderType   string
	renderLive   bool
)

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "publications.html", "Output HTML file path")
	renderCmd.Flags().StringVar(&renderTitle, "title", render.DefaultTitle, "Page title")
	renderCmd.Flags().StringVar(&renderYear, "year", query.All, "Only publications from this year")
	renderCmd.Flags().StringVar(&renderType, "type", query.All, "Only publications of this entry type")
	renderCmd.Flags().BoolVar(&renderLive, "live", false, "Fetch the document instead of using the snapshot")
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render [query]",
	Short: "Write a static HTML publications page",
	Long: `Write a self-contained HTML page listing publications grouped by type.

Examples:
  pubcat render -o publications.html
  pubcat render trees --year 2021 -o trees.html`,
	RunE: runRender,
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenCache(cfg)
	defer db.Close()

	records := mustLoadRecords(cmd.Context(), cfg, db, renderLive)
	cat := catalog.New(records)

	f := query.Filters{Year: renderYear, Category: renderType}
	if len(args) > 0 {
		f.Text = args[0]
	}

	html, err := render.Page(buildGroups(cat.Records(), f, categoryOrder(cfg), false), render.Options{
		Title:   renderTitle,
		Filters: f,
		Years:   cat.Years(),
		Types:   cat.Options(format.FilterLabels),
		Labels:  sectionLabels(cfg),
	})
	if err != nil {
		exitWithError(ExitError, "rendering page: %v", err)
	}

	if err := os.WriteFile(renderOutput, []byte(html), 0644); err != nil {
		exitWithError(ExitError, "writing output file: %v", err)
	}

	if humanOutput {
		fmt.Printf("Wrote %s (%d publications)\n", renderOutput, cat.Len())
	} else {
		outputJSON(StatusResponse{Status: "written", Path: renderOutput, Count: cat.Len()})
	}
	return nil
}
