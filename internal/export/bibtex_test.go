package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matsen/pubcat/internal/bibtex"
	"github.com/matsen/pubcat/internal/publication"
)

func TestToBibTeX_FieldOrder(t *testing.T) {
	r := publication.Record{Category: "article", Key: "smith2020", Fields: map[string]string{
		"year":    "2020",
		"title":   "Trees",
		"author":  "Smith, Jane",
		"journal": "J. Biol.",
		"pages":   "1--10",
		"note":    "extra",
	}}

	want := `@article{smith2020,
  author = {Smith, Jane},
  title = {Trees},
  journal = {J. Biol.},
  year = {2020},
  pages = {1--10},
  note = {extra},
}
`
	if got := ToBibTeX(r); got != want {
		t.Errorf("ToBibTeX() =\n%s\nwant:\n%s", got, want)
	}
}

func TestToBibTeX_RoundTrip(t *testing.T) {
	records := bibtex.Parse(`@inproceedings{doe2021, title = "Fast Trees", author = {Doe, John and Roe, Ann},
  booktitle = {ICML}, year = 2021, doi = {10.1/abc}, url = {https://example.org}}
@misc{note, }`)

	reparsed := bibtex.Parse(ToBibTeXList(records))
	if len(reparsed) != len(records) {
		t.Fatalf("expected %d records after round trip, got %d", len(records), len(reparsed))
	}
	for i := range records {
		if reparsed[i].Key != records[i].Key || reparsed[i].Category != records[i].Category {
			t.Errorf("record %d header changed: %+v -> %+v", i, records[i], reparsed[i])
		}
		for name, v := range records[i].Fields {
			if got := reparsed[i].Get(name); got != v {
				t.Errorf("record %d field %s = %q, want %q", i, name, got, v)
			}
		}
	}
}

func TestToBibTeX_StrayBraces(t *testing.T) {
	r := publication.Record{Category: "misc", Key: "x", Fields: map[string]string{"title": "{DNA"}}
	got := ToBibTeX(r)
	if !strings.Contains(got, "title = {DNA},") {
		t.Errorf("stray brace should be dropped, got:\n%s", got)
	}
}

func TestToBibTeX_DefaultsCategory(t *testing.T) {
	got := ToBibTeX(publication.Record{Key: "k"})
	if got != "@misc{k,\n}\n" {
		t.Errorf("ToBibTeX() = %q", got)
	}
}

func TestToBibTeXList_Empty(t *testing.T) {
	if got := ToBibTeXList(nil); got != "" {
		t.Errorf("ToBibTeXList(nil) = %q, want empty", got)
	}
}

func TestIndex_Missing(t *testing.T) {
	idx := NewIndex()
	idx.Add(publication.Record{Key: "a", Fields: map[string]string{"doi": "10.1/A"}})

	records := []publication.Record{
		{Key: "other-key", Fields: map[string]string{"doi": "https://doi.org/10.1/a"}}, // DOI match
		{Key: "a", Fields: map[string]string{}},                                       // key match
		{Key: "b", Fields: map[string]string{}},
		{Key: "b", Fields: map[string]string{}}, // duplicate in input
	}

	got := idx.Missing(records)
	if len(got) != 1 || got[0].Key != "b" {
		t.Errorf("Missing() = %+v, want only b", got)
	}
}

func TestReadIndex(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		idx, err := ReadIndex(filepath.Join(t.TempDir(), "none.bib"))
		if err != nil {
			t.Fatalf("ReadIndex failed: %v", err)
		}
		if len(idx.Keys) != 0 {
			t.Errorf("expected empty index, got %v", idx.Keys)
		}
	})

	t.Run("existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "refs.bib")
		content := "@article{smith2020, doi = {10.1/xyz}, year={2020}}\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		idx, err := ReadIndex(path)
		if err != nil {
			t.Fatalf("ReadIndex failed: %v", err)
		}
		if !idx.Keys["smith2020"] {
			t.Error("expected smith2020 to be indexed")
		}
		if idx.DOIs["https://doi.org/10.1/xyz"] != "smith2020" {
			t.Errorf("DOIs = %v", idx.DOIs)
		}
	})
}

func TestAppendToBibFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.bib")
	r1 := publication.Record{Category: "misc", Key: "one", Fields: map[string]string{"year": "2001"}}
	r2 := publication.Record{Category: "misc", Key: "two", Fields: map[string]string{"year": "2002"}}

	if err := AppendToBibFile(path, ToBibTeX(r1)); err != nil {
		t.Fatalf("first append failed: %v", err)
	}
	if err := AppendToBibFile(path, ToBibTeX(r2)); err != nil {
		t.Fatalf("second append failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := bibtex.Parse(string(data))
	if len(got) != 2 || got[0].Key != "one" || got[1].Key != "two" {
		t.Errorf("unexpected entries after append: %+v", got)
	}
}
