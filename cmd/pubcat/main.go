// Package main provides the pubcat CLI entry point.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	// sourceFlag overrides the configured document source
	sourceFlag string
	// verbose enables debug logging
	verbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pubcat",
	Short: "Publication catalog built from a BibTeX bibliography",
	Long: `pubcat fetches a BibTeX bibliography, keeps a local snapshot of it, and
answers filtered, grouped queries over the publications it contains.

The document may live at an http(s) URL, on a remote host reachable over
ssh://, or on the local filesystem. All commands output JSON by default
for easy integration with scripts and other tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&sourceFlag, "source", "", "Bibliography location (URL, ssh://host/path, or file path)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Version = Version
}
