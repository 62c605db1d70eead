package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/matsen/pubcat/internal/bibtex"
	"github.com/matsen/pubcat/internal/config"
	"github.com/matsen/pubcat/internal/format"
	"github.com/matsen/pubcat/internal/loader"
	"github.com/matsen/pubcat/internal/publication"
	"github.com/matsen/pubcat/internal/query"
	"github.com/matsen/pubcat/internal/source"
	"github.com/matsen/pubcat/internal/storage"
)

// mustLoadConfig loads the global config, applies --source, and sets up logging.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if sourceFlag != "" {
		cfg.Source = sourceFlag
	}
	setupLogging(cfg.LogLevel)
	return cfg
}

// setupLogging installs a text slog handler on stderr as the default logger.
func setupLogging(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

// mustOpenSource builds the document source from config.
func mustOpenSource(cfg *config.Config) source.Source {
	src, err := source.Open(cfg.Source, source.Options{
		Timeout:           time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		RateLimit:         cfg.HTTP.RateLimit,
		Retries:           cfg.HTTP.Retries,
		SSHConnectTimeout: time.Duration(cfg.SSH.ConnectTimeout) * time.Second,
		Logger:            slog.Default(),
	})
	if err != nil {
		exitWithError(ExitConfigError, "opening source %q: %v", cfg.Source, err)
	}
	return src
}

// mustOpenCache opens the snapshot database.
func mustOpenCache(cfg *config.Config) *storage.DB {
	db, err := storage.OpenDB(cfg.DBPath())
	if err != nil {
		exitWithError(ExitError, "opening cache: %v", err)
	}
	return db
}

// loadRecords returns the cached snapshot, fetching the document when live is
// set, when nothing has been synced yet, or when the snapshot came from a
// different source than the one configured.
func loadRecords(ctx context.Context, cfg *config.Config, db *storage.DB, live bool) ([]publication.Record, error) {
	src := mustOpenSource(cfg)

	if !live {
		records, meta, err := loader.Cached(db)
		switch {
		case err == nil && meta.Source == src.String():
			slog.Debug("using cached snapshot", "source", meta.Source, "last_sync", meta.LastSync, "publications", len(records))
			return records, nil
		case err == nil:
			slog.Info("snapshot is from another source, fetching", "cached", meta.Source, "source", src.String())
		case errors.Is(err, bibtex.ErrNoEntries):
			slog.Debug("cache is empty, fetching document")
		default:
			return nil, err
		}
	}

	res, err := loader.New(src, db, slog.Default()).Load(ctx)
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// mustLoadRecords is loadRecords with CLI error handling.
func mustLoadRecords(ctx context.Context, cfg *config.Config, db *storage.DB, live bool) []publication.Record {
	records, err := loadRecords(ctx, cfg, db, live)
	if err != nil {
		if source.IsNotFound(err) {
			exitWithError(exitCodeFor(err), "%v (check --source or %s)", err, config.EnvSource)
		}
		exitWithError(exitCodeFor(err), "%v", err)
	}
	return records
}

// exitCodeFor maps an error to the CLI exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case loader.IsRetrieval(err):
		return ExitRetrievalError
	case loader.IsNoEntries(err):
		return ExitDataError
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, source.ErrUnsupported):
		return ExitConfigError
	default:
		return ExitError
	}
}

// sectionLabels returns the default section labels with config overrides.
func sectionLabels(cfg *config.Config) format.Labels {
	return format.SectionLabels.Merge(cfg.Labels)
}

// categoryOrder returns the configured priority list or the default one.
func categoryOrder(cfg *config.Config) []string {
	if len(cfg.Order) > 0 {
		return cfg.Order
	}
	return query.DefaultOrder
}

// buildGroups runs the query and orders the result. With allTypes, categories
// outside order are appended alphabetically.
func buildGroups(records []publication.Record, f query.Filters, order []string, allTypes bool) []query.Group {
	p := query.Run(records, f)
	groups := query.Ordered(p, order)
	if allTypes {
		for _, cat := range query.Unordered(p, order) {
			groups = append(groups, query.Group{Category: cat, Records: p[cat]})
		}
	}
	return groups
}
