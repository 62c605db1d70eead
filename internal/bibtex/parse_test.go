package bibtex

import (
	"errors"
	"testing"
)

const twoEntries = `
@article{Smith2022,
  title = {Learning Things},
  author = {Smith, John and Doe, Jane},
  journal = {Journal of Things},
  year = {2022}
}

@InProceedings{ doe2021 ,
  title = "A Conference Paper",
  booktitle = {Proceedings of Stuff},
  year = 2021,
  pages = {1--10}
}
`

func TestParse_TwoEntries(t *testing.T) {
	records := Parse(twoEntries)
	if len(records) != 2 {
		t.Fatalf("Parse() returned %d records, want 2", len(records))
	}

	first := records[0]
	if first.Category != "article" {
		t.Errorf("Category = %q, want article", first.Category)
	}
	if first.Key != "Smith2022" {
		t.Errorf("Key = %q, want Smith2022", first.Key)
	}
	if got := first.Get("title"); got != "Learning Things" {
		t.Errorf("title = %q, want Learning Things", got)
	}
	if got := first.Get("year"); got != "2022" {
		t.Errorf("year = %q, want 2022", got)
	}

	second := records[1]
	if second.Category != "inproceedings" {
		t.Errorf("Category = %q, want inproceedings (lowercased)", second.Category)
	}
	if second.Key != "doe2021" {
		t.Errorf("Key = %q, want doe2021 (trimmed)", second.Key)
	}
	if got := second.Get("title"); got != "A Conference Paper" {
		t.Errorf("title = %q, want A Conference Paper", got)
	}
	if got := second.Get("year"); got != "2021" {
		t.Errorf("year = %q, want 2021", got)
	}
	if got := second.Get("pages"); got != "1--10" {
		t.Errorf("pages = %q, want 1--10", got)
	}
	if second.Has("journal") {
		t.Errorf("journal should be absent, got %q", second.Get("journal"))
	}
}

func TestParse_NoEntries(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t "},
		{"prose", "just some text without markers"},
		{"bare at", "contact me @ home"},
		{"at without brace", "@article Smith, title = {X}"},
		{"no comma after key", "@article{Smith title = {X}}"},
		{"blank key", "@article{   , title = {X}}"},
		{"not utf8", "\xff\xfe@\xff{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.text); len(got) != 0 {
				t.Errorf("Parse() = %+v, want no records", got)
			}
		})
	}
}

func TestParseDocument_ErrNoEntries(t *testing.T) {
	_, err := ParseDocument("nothing here")
	if !errors.Is(err, ErrNoEntries) {
		t.Fatalf("ParseDocument() error = %v, want ErrNoEntries", err)
	}

	records, err := ParseDocument(twoEntries)
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("ParseDocument() returned %d records, want 2", len(records))
	}
}

func TestParse_EmptyBodyStillEmitted(t *testing.T) {
	records := Parse("@misc{lonely,")
	if len(records) != 1 {
		t.Fatalf("Parse() returned %d records, want 1", len(records))
	}
	if records[0].Key != "lonely" || records[0].Category != "misc" {
		t.Errorf("record = %+v, want misc/lonely", records[0])
	}
	if len(records[0].Fields) != 0 {
		t.Errorf("Fields = %v, want empty", records[0].Fields)
	}
}

func TestParse_PreservesOrderAndDuplicates(t *testing.T) {
	text := `@book{k, title={One}}
@book{k, title={Two}}
@misc{z, title={Three}}`

	records := Parse(text)
	if len(records) != 3 {
		t.Fatalf("Parse() returned %d records, want 3", len(records))
	}
	want := []string{"One", "Two", "Three"}
	for i, w := range want {
		if got := records[i].Get("title"); got != w {
			t.Errorf("records[%d].title = %q, want %q", i, got, w)
		}
	}
}

func TestParse_UnknownTypePassesThrough(t *testing.T) {
	records := Parse(`@PhDThesis{t1, title = {Deep}}`)
	if len(records) != 1 {
		t.Fatalf("Parse() returned %d records, want 1", len(records))
	}
	if records[0].Category != "phdthesis" {
		t.Errorf("Category = %q, want phdthesis", records[0].Category)
	}
}

func TestParse_UnbalancedBracesDoNotStopScan(t *testing.T) {
	text := `@article{broken, title = {Never closed, year = {2020}
@article{fine, title = {Closed}, year = {2019}}`

	records := Parse(text)
	if len(records) != 2 {
		t.Fatalf("Parse() returned %d records, want 2", len(records))
	}
	if records[1].Key != "fine" {
		t.Errorf("records[1].Key = %q, want fine", records[1].Key)
	}
	if got := records[1].Get("year"); got != "2019" {
		t.Errorf("records[1].year = %q, want 2019", got)
	}
	// The broken entry runs to the next '@' and its year is still found.
	if got := records[0].Get("year"); got != "2020" {
		t.Errorf("records[0].year = %q, want 2020", got)
	}
}

func TestParse_SkipsFalseMarkers(t *testing.T) {
	text := `Contact: me@example.org
@article{real, title = {Real}}`

	records := Parse(text)
	if len(records) != 1 {
		t.Fatalf("Parse() returned %d records, want 1: %+v", len(records), records)
	}
	if records[0].Key != "real" {
		t.Errorf("Key = %q, want real", records[0].Key)
	}
}

func TestParse_CommalessHeaderAbsorbsNextEntry(t *testing.T) {
	records := Parse("@misc{foo}\n@article{bar, title={X}}")
	if len(records) != 1 {
		t.Fatalf("Parse() returned %d records, want 1: %+v", len(records), records)
	}
	r := records[0]
	if r.Category != "misc" {
		t.Errorf("Category = %q, want misc", r.Category)
	}
	if r.Key != "foo}\n@article{bar" {
		t.Errorf("Key = %q, want the text up to the first comma", r.Key)
	}
	if got := r.Get("title"); got != "X" {
		t.Errorf("title = %q, want X", got)
	}
}
