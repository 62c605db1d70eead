package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"

	"github.com/matsen/pubcat/internal/bibtex"
	"github.com/matsen/pubcat/internal/catalog"
	"github.com/matsen/pubcat/internal/publication"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const fixture = `@inproceedings{doe2021, title={Fast Trees}, author={Doe, John}, year={2021}, booktitle={ICML}}
@article{smith2020, title={Phylogenetics at Scale}, author={Smith, Jane}, year={2020}, journal={J. Biol.}}
@article{lee2022, title={Deep Trees}, author={Lee, Kim}, year={2022}, journal={Nature}}
@misc{talk2019, title={A Talk}, year={2019}}`

func newTestServer(t *testing.T, reload ReloadFunc) *Server {
	t.Helper()
	h := catalog.NewHolder()
	h.Replace(bibtex.Parse(fixture))
	return New(Options{Holder: h, Reload: reload, Title: "Test Lab"})
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	w := do(t, newTestServer(t, nil), http.MethodGet, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Status       string `json:"status"`
		Publications int    `json:"publications"`
	}
	decode(t, w, &body)
	if body.Status != "ok" || body.Publications != 4 {
		t.Errorf("unexpected health body: %+v", body)
	}
}

func TestPublications(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantTotal  int
		wantGroups []string
		wantFirst  string
	}{
		{"all", "/api/publications", 4, []string{"inproceedings", "article", "misc"}, "doe2021"},
		{"text", "/api/publications?q=trees", 2, []string{"inproceedings", "article"}, "doe2021"},
		{"year", "/api/publications?year=2020", 1, []string{"article"}, "smith2020"},
		{"type", "/api/publications?type=article", 2, []string{"article"}, "lee2022"},
		{"explicit all", "/api/publications?year=all&type=all", 4, []string{"inproceedings", "article", "misc"}, "doe2021"},
		{"no match", "/api/publications?q=zebra", 0, []string{}, ""},
	}

	s := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodGet, tt.target)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			var resp PublicationsResponse
			decode(t, w, &resp)

			if resp.Total != tt.wantTotal {
				t.Errorf("total = %d, want %d", resp.Total, tt.wantTotal)
			}
			var got []string
			for _, g := range resp.Groups {
				got = append(got, g.Category)
			}
			if strings.Join(got, ",") != strings.Join(tt.wantGroups, ",") {
				t.Errorf("groups = %v, want %v", got, tt.wantGroups)
			}
			if tt.wantFirst != "" && resp.Groups[0].Publications[0].Key != tt.wantFirst {
				t.Errorf("first key = %q, want %q", resp.Groups[0].Publications[0].Key, tt.wantFirst)
			}
		})
	}
}

func TestPublications_LabelsAndSorting(t *testing.T) {
	w := do(t, newTestServer(t, nil), http.MethodGet, "/api/publications?type=article")
	var resp PublicationsResponse
	decode(t, w, &resp)

	g := resp.Groups[0]
	if g.Label != "Journal Articles" {
		t.Errorf("label = %q", g.Label)
	}
	if g.Publications[0].Year != "2022" || g.Publications[1].Year != "2020" {
		t.Errorf("expected newest first, got %s then %s", g.Publications[0].Year, g.Publications[1].Year)
	}
	if g.Publications[0].Authors != "Kim Lee" {
		t.Errorf("authors = %q", g.Publications[0].Authors)
	}
}

func TestFilters(t *testing.T) {
	w := do(t, newTestServer(t, nil), http.MethodGet, "/api/filters")
	var resp FiltersResponse
	decode(t, w, &resp)

	if strings.Join(resp.Years, ",") != "2022,2021,2020,2019" {
		t.Errorf("years = %v", resp.Years)
	}
	want := map[string]string{
		"article":       "Journal Articles",
		"inproceedings": "Conference Papers",
		"misc":          "Miscellaneous",
	}
	if len(resp.Types) != len(want) {
		t.Fatalf("types = %+v", resp.Types)
	}
	for _, opt := range resp.Types {
		if want[opt.Value] != opt.Label {
			t.Errorf("type %q label = %q, want %q", opt.Value, opt.Label, want[opt.Value])
		}
	}
}

func TestReload(t *testing.T) {
	next := []publication.Record{{Category: "book", Key: "b", Fields: map[string]string{"year": "2001"}}}

	tests := []struct {
		name      string
		reload    ReloadFunc
		wantCode  int
		wantCount int
	}{
		{"success", func(context.Context) ([]publication.Record, error) { return next, nil }, http.StatusOK, 1},
		{"retrieval failure", func(context.Context) ([]publication.Record, error) {
			return nil, errors.New("connection refused")
		}, http.StatusBadGateway, 4},
		{"no entries", func(context.Context) ([]publication.Record, error) {
			return nil, fmt.Errorf("parsing: %w", bibtex.ErrNoEntries)
		}, http.StatusUnprocessableEntity, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.reload)
			w := do(t, s, http.MethodPost, "/api/reload")
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if got := s.holder.Load().Len(); got != tt.wantCount {
				t.Errorf("catalog has %d records, want %d", got, tt.wantCount)
			}
		})
	}
}

func TestReload_NotConfigured(t *testing.T) {
	w := do(t, newTestServer(t, nil), http.MethodPost, "/api/reload")
	if w.Code != http.StatusNotImplemented {
		t.Errorf("status = %d", w.Code)
	}
}

func TestPage(t *testing.T) {
	w := do(t, newTestServer(t, nil), http.MethodGet, "/?q=trees")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}

	doc, err := goquery.NewDocumentFromReader(w.Body)
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Find("h1").Text(); got != "Test Lab" {
		t.Errorf("h1 = %q", got)
	}
	if n := doc.Find(".publication").Length(); n != 2 {
		t.Errorf("expected 2 publications, got %d", n)
	}
	if v, _ := doc.Find(`input[name="q"]`).Attr("value"); v != "trees" {
		t.Errorf("query echo = %q", v)
	}
}

func TestPage_EmptyCatalog(t *testing.T) {
	s := New(Options{})
	w := do(t, s, http.MethodGet, "/")
	doc, err := goquery.NewDocumentFromReader(w.Body)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Find(".no-results").Length() != 1 {
		t.Error("expected no-results message")
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRefresh(t *testing.T) {
	next := []publication.Record{{Category: "book", Key: "b", Fields: map[string]string{"year": "2001"}}}

	var calls atomic.Int32
	reload := func(context.Context) ([]publication.Record, error) {
		if calls.Add(1) == 1 {
			return next, nil
		}
		return nil, errors.New("connection refused")
	}
	s := newTestServer(t, reload)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Refresh(ctx, 10*time.Millisecond)
		close(done)
	}()

	// First tick swaps in the new catalog.
	waitFor(t, func() bool { return s.holder.Load().Len() == 1 })

	// Later ticks fail and leave it in place.
	waitFor(t, func() bool { return calls.Load() >= 3 })
	if got := s.holder.Load().Records(); len(got) != 1 || got[0].Key != "b" {
		t.Errorf("failed refresh replaced the catalog: %+v", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Refresh did not return after cancel")
	}
}

func TestRefresh_Disabled(t *testing.T) {
	tests := []struct {
		name     string
		reload   ReloadFunc
		interval time.Duration
	}{
		{"no reload func", nil, time.Millisecond},
		{"zero interval", func(context.Context) ([]publication.Record, error) { return nil, nil }, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.reload)
			done := make(chan struct{})
			go func() {
				s.Refresh(context.Background(), tt.interval)
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("Refresh should return immediately when disabled")
			}
			if got := s.holder.Load().Len(); got != 4 {
				t.Errorf("catalog changed: %d records", got)
			}
		})
	}
}
