package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/matsen/pubcat/internal/catalog"
	"github.com/matsen/pubcat/internal/format"
	"github.com/matsen/pubcat/internal/loader"
	"github.com/matsen/pubcat/internal/publication"
	"github.com/matsen/pubcat/internal/server"
	"github.com/spf13/cobra"
)

var (
	serveAddr    string
	serveRefresh time.Duration
	serveTitle   string
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().DurationVar(&serveRefresh, "refresh", 0, "Refetch the document on this interval (0 disables)")
	serveCmd.Flags().StringVar(&serveTitle, "title", "Publications", "Page title")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the publications page and JSON API",
	Long: `Serve the publications page and a JSON API over HTTP.

The server starts from the local snapshot (fetching once if it is empty).
POST /api/reload or --refresh replace the live catalog; a failed reload
keeps the previous one.

Endpoints:
  GET  /                   HTML page (?q=, ?year=, ?type=)
  GET  /health
  GET  /api/publications   grouped results (?q=, ?year=, ?type=)
  GET  /api/filters        year and type options
  POST /api/reload

Examples:
  pubcat serve
  pubcat serve --addr 127.0.0.1:9000 --refresh 1h`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenCache(cfg)
	defer db.Close()

	holder := catalog.NewHolder()
	holder.Replace(mustLoadRecords(cmd.Context(), cfg, db, false))

	ld := loader.New(mustOpenSource(cfg), db, slog.Default())
	reload := func(ctx context.Context) ([]publication.Record, error) {
		res, err := ld.Load(ctx)
		if err != nil {
			return nil, err
		}
		return res.Records, nil
	}

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(server.Options{
		Holder:        holder,
		Reload:        reload,
		Order:         categoryOrder(cfg),
		SectionLabels: sectionLabels(cfg),
		FilterLabels:  format.FilterLabels,
		Title:         serveTitle,
		Logger:        slog.Default(),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go srv.Refresh(ctx, serveRefresh)

	if err := srv.Run(ctx, serveAddr); err != nil {
		exitWithError(ExitError, "server: %v", err)
	}
	return nil
}
