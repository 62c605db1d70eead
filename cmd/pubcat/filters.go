package main

import (
	"fmt"

	"github.com/matsen/pubcat/internal/catalog"
	"github.com/matsen/pubcat/internal/format"
	"github.com/spf13/cobra"
)

var filtersLive bool

func init() {
	yearsCmd.Flags().BoolVar(&filtersLive, "live", false, "Fetch the document instead of using the snapshot")
	typesCmd.Flags().BoolVar(&filtersLive, "live", false, "Fetch the document instead of using the snapshot")
	rootCmd.AddCommand(yearsCmd)
	rootCmd.AddCommand(typesCmd)
}

var yearsCmd = &cobra.Command{
	Use:   "years",
	Short: "List the distinct publication years, newest first",
	Args:  cobra.NoArgs,
	RunE:  runYears,
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the distinct entry types with their labels",
	Args:  cobra.NoArgs,
	RunE:  runTypes,
}

func loadCatalog(cmd *cobra.Command) *catalog.Catalog {
	cfg := mustLoadConfig()
	db := mustOpenCache(cfg)
	defer db.Close()
	return catalog.New(mustLoadRecords(cmd.Context(), cfg, db, filtersLive))
}

func runYears(cmd *cobra.Command, args []string) error {
	years := loadCatalog(cmd).Years()

	if humanOutput {
		for _, y := range years {
			fmt.Println(y)
		}
	} else {
		outputJSON(years)
	}
	return nil
}

func runTypes(cmd *cobra.Command, args []string) error {
	opts := loadCatalog(cmd).Options(format.FilterLabels)

	if humanOutput {
		for _, o := range opts {
			fmt.Printf("%-16s %s\n", o.Value, o.Label)
		}
	} else {
		outputJSON(opts)
	}
	return nil
}
