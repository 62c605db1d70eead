// Package source retrieves the raw bibliography document over HTTP, from the
// local filesystem, or from a remote host over SSH.
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

// MaxDocumentSize caps how much of a document is read (32 MiB).
const MaxDocumentSize = 32 << 20

// Source produces the raw bibliography text.
type Source interface {
	// Fetch retrieves the whole document.
	Fetch(ctx context.Context) ([]byte, error)
	// String describes the source for logs and status output.
	String() string
}

// Options configures sources created by Open.
type Options struct {
	Timeout           time.Duration // per HTTP request
	RateLimit         float64       // HTTP requests per second
	Retries           int           // HTTP retries after the first attempt; 0 uses DefaultRetries, negative disables
	SSHConnectTimeout time.Duration
	Logger            *slog.Logger
}

// Open returns the Source for uri: http(s) URLs, ssh://[user@]host[:port]/path,
// file:// URLs, or a plain filesystem path.
func Open(uri string, opts Options) (Source, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, fmt.Errorf("%w: empty source", ErrUnsupported)
	}

	scheme := ""
	if i := strings.Index(uri, "://"); i > 0 {
		scheme = strings.ToLower(uri[:i])
	}

	switch scheme {
	case "http", "https":
		var httpOpts []HTTPOption
		if opts.Timeout > 0 {
			httpOpts = append(httpOpts, WithTimeout(opts.Timeout))
		}
		if opts.RateLimit > 0 {
			httpOpts = append(httpOpts, WithRateLimit(opts.RateLimit))
		}
		if opts.Retries != 0 {
			httpOpts = append(httpOpts, WithRetries(opts.Retries))
		}
		if opts.Logger != nil {
			httpOpts = append(httpOpts, WithLogger(opts.Logger))
		}
		return NewHTTPSource(uri, httpOpts...)
	case "ssh":
		return NewSSHSource(uri, opts.SSHConnectTimeout)
	case "file":
		u, err := url.Parse(uri)
		if err != nil {
			return nil, fmt.Errorf("parsing file URL: %w", err)
		}
		return NewFileSource(u.Path), nil
	case "":
		return NewFileSource(uri), nil
	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupported, scheme)
	}
}

// readDocument reads at most MaxDocumentSize bytes and rejects blank documents.
func readDocument(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxDocumentSize {
		return nil, ErrTooLarge
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyBody
	}
	return data, nil
}
