package main

import (
	"fmt"
	"log/slog"

	"github.com/matsen/pubcat/internal/loader"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch the bibliography and refresh the local snapshot",
	Long: `Fetch the bibliography, parse it, and replace the local snapshot.

The snapshot is left untouched if the document cannot be retrieved or
holds no publications.

Examples:
  pubcat sync
  pubcat sync --source ./publication.bib`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenCache(cfg)
	defer db.Close()

	res, err := loader.New(mustOpenSource(cfg), db, slog.Default()).Load(cmd.Context())
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}

	if humanOutput {
		state := "updated"
		if res.Unchanged {
			state = "unchanged"
		}
		fmt.Printf("Synced %d publications from %s (%s)\n", len(res.Records), res.Source, state)
	} else {
		outputJSON(SyncResponse{
			Status:       "synced",
			Source:       res.Source,
			Bytes:        res.Bytes,
			Publications: len(res.Records),
			Unchanged:    res.Unchanged,
			ContentHash:  res.Hash,
		})
	}
	return nil
}
