package catalog

import (
	"reflect"
	"sync"
	"testing"

	"github.com/matsen/pubcat/internal/bibtex"
	"github.com/matsen/pubcat/internal/format"
	"github.com/matsen/pubcat/internal/publication"
	"github.com/matsen/pubcat/internal/query"
)

func TestNew_DerivedSets(t *testing.T) {
	records := []publication.Record{
		{Category: "article", Key: "a", Fields: map[string]string{"year": "2019"}},
		{Category: "misc", Key: "b", Fields: map[string]string{"year": "2021"}},
		{Category: "article", Key: "c", Fields: map[string]string{"year": "2009"}},
		{Category: "book", Key: "d", Fields: map[string]string{}},
		{Category: "article", Key: "e", Fields: map[string]string{"year": "2021"}},
	}

	c := New(records)

	if c.Len() != 5 {
		t.Errorf("Len() = %d, want 5", c.Len())
	}
	if got, want := c.Years(), []string{"2021", "2019", "2009"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Years() = %v, want %v", got, want)
	}
	if got, want := c.Categories(), []string{"article", "book", "misc"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Categories() = %v, want %v", got, want)
	}
}

func TestNew_CopiesInput(t *testing.T) {
	records := []publication.Record{{Category: "misc", Key: "a"}}
	c := New(records)
	records[0].Key = "changed"

	if got := c.Records()[0].Key; got != "a" {
		t.Errorf("snapshot changed with its input: Key = %q", got)
	}

	out := c.Records()
	out[0].Key = "also changed"
	if got := c.Records()[0].Key; got != "a" {
		t.Errorf("snapshot changed through Records(): Key = %q", got)
	}
}

func TestNew_Empty(t *testing.T) {
	c := New(nil)
	if c.Len() != 0 {
		t.Errorf("Len() = %d for empty catalog", c.Len())
	}
	if len(c.Years()) != 0 || len(c.Categories()) != 0 {
		t.Errorf("empty catalog has years %v categories %v", c.Years(), c.Categories())
	}
}

func TestOptions(t *testing.T) {
	c := New([]publication.Record{
		{Category: "misc", Key: "a"},
		{Category: "phdthesis", Key: "b"},
	})

	got := c.Options(format.FilterLabels)
	want := []Option{
		{Value: "misc", Label: "Miscellaneous"},
		{Value: "phdthesis", Label: "Phdthesis"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Options() = %v, want %v", got, want)
	}
}

func TestHolder_ReadAfterReplace(t *testing.T) {
	h := NewHolder()
	if h.Load().Len() != 0 {
		t.Fatal("new holder should start empty")
	}

	h.Replace([]publication.Record{{Category: "misc", Key: "a"}})
	if h.Load().Len() != 1 {
		t.Errorf("Load().Len() = %d after Replace, want 1", h.Load().Len())
	}

	h.Store(nil)
	if h.Load() == nil || h.Load().Len() != 0 {
		t.Error("Store(nil) should leave an empty catalog")
	}

	var zero Holder
	if zero.Load() == nil {
		t.Error("zero Holder Load() returned nil")
	}
}

func TestHolder_ConcurrentReaders(t *testing.T) {
	h := NewHolder()
	small := New([]publication.Record{{Category: "misc", Key: "a"}})
	large := New([]publication.Record{{Category: "misc", Key: "a"}, {Category: "misc", Key: "b"}})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				n := h.Load().Len()
				if n != 0 && n != 1 && n != 2 {
					t.Errorf("observed partial snapshot with %d records", n)
					return
				}
			}
		}()
	}
	for j := 0; j < 200; j++ {
		if j%2 == 0 {
			h.Store(small)
		} else {
			h.Store(large)
		}
	}
	wg.Wait()
}

func TestEndToEnd_TwoEntries(t *testing.T) {
	doc := `@article{j22, title = {Journal Paper}, year = {2022}}
@inproceedings{c21, title = {Conference Paper}, year = {2021}}`

	c := New(bibtex.Parse(doc))
	p := query.Run(c.Records(), query.Filters{Text: "", Year: query.All, Category: query.All})

	if len(p) != 2 {
		t.Fatalf("projection has %d groups, want 2", len(p))
	}
	if got := p["article"]; len(got) != 1 || got[0].Get("year") != "2022" {
		t.Errorf("article group = %+v, want one record from 2022", got)
	}
	if got := p["inproceedings"]; len(got) != 1 || got[0].Get("year") != "2021" {
		t.Errorf("inproceedings group = %+v, want one record from 2021", got)
	}
}
