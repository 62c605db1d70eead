package main

import (
	"strings"

	"github.com/matsen/pubcat/internal/query"
	"github.com/matsen/pubcat/internal/render"
	"github.com/spf13/cobra"
)

var (
	listYear     string
	listType     string
	listAllTypes bool
	listLive     bool
)

func init() {
	listCmd.Flags().StringVar(&listYear, "year", query.All, "Only publications from this year")
	listCmd.Flags().StringVar(&listType, "type", query.All, "Only publications of this entry type (e.g. article)")
	listCmd.Flags().BoolVar(&listAllTypes, "all-types", false, "Also show entry types outside the section order")
	listCmd.Flags().BoolVar(&listLive, "live", false, "Fetch the document instead of using the snapshot")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "List publications grouped by type",
	Long: `List publications grouped by entry type, newest first within each group.

The optional query is matched case-insensitively against title, authors,
journal and booktitle.

Examples:
  pubcat list
  pubcat list phylogenetic --year 2021
  pubcat list --type article --human`,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenCache(cfg)
	defer db.Close()

	records := mustLoadRecords(cmd.Context(), cfg, db, listLive)

	f := query.Filters{
		Text:     strings.Join(args, " "),
		Year:     listYear,
		Category: strings.ToLower(listType),
	}
	groups := buildGroups(records, f, categoryOrder(cfg), listAllTypes)
	sections := render.Sections(groups, sectionLabels(cfg))

	if humanOutput {
		printSectionsHuman(sections)
	} else {
		outputJSON(newListResponse(sections))
	}
	return nil
}
