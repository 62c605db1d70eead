// Package catalog holds an immutable snapshot of parsed publications together
// with the derived year and category sets used to build filter selectors.
package catalog

import (
	"sort"
	"sync/atomic"

	"github.com/matsen/pubcat/internal/format"
	"github.com/matsen/pubcat/internal/publication"
)

// Catalog is a read-only snapshot. Build a new one instead of mutating it.
type Catalog struct {
	records    []publication.Record
	years      []string
	categories []string
}

// Option is one entry of a filter selector.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// New builds a snapshot from records. The slice is copied.
func New(records []publication.Record) *Catalog {
	c := &Catalog{
		records: make([]publication.Record, len(records)),
	}
	copy(c.records, records)

	yearSet := make(map[string]bool)
	categorySet := make(map[string]bool)
	for _, r := range c.records {
		if y, ok := r.Field(publication.FieldYear); ok {
			yearSet[y] = true
		}
		categorySet[r.Category] = true
	}

	c.years = sortedKeys(yearSet)
	sort.SliceStable(c.years, func(i, j int) bool {
		yi, yj := publication.ParseYear(c.years[i]), publication.ParseYear(c.years[j])
		if yi != yj {
			return yi > yj
		}
		return c.years[i] > c.years[j]
	})

	c.categories = sortedKeys(categorySet)

	return c
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Records returns a copy of the records in document order.
func (c *Catalog) Records() []publication.Record {
	out := make([]publication.Record, len(c.records))
	copy(out, c.records)
	return out
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	return len(c.records)
}

// Years returns the distinct year values, newest first.
func (c *Catalog) Years() []string {
	return append([]string(nil), c.years...)
}

// Categories returns the distinct categories in lexicographic order.
func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}

// Options returns the category selector entries, labelled with labels.
func (c *Catalog) Options(labels format.Labels) []Option {
	opts := make([]Option, len(c.categories))
	for i, cat := range c.categories {
		opts[i] = Option{Value: cat, Label: format.CategoryLabel(cat, labels)}
	}
	return opts
}

// Holder owns the current snapshot. Store replaces it in a single atomic
// step, so a Load after Store returns always sees the new snapshot.
type Holder struct {
	current atomic.Pointer[Catalog]
}

// NewHolder returns a Holder containing an empty catalog.
func NewHolder() *Holder {
	h := &Holder{}
	h.current.Store(New(nil))
	return h
}

// Load returns the current snapshot. It is never nil.
func (h *Holder) Load() *Catalog {
	if c := h.current.Load(); c != nil {
		return c
	}
	return New(nil)
}

// Store replaces the current snapshot.
func (h *Holder) Store(c *Catalog) {
	if c == nil {
		c = New(nil)
	}
	h.current.Store(c)
}

// Replace builds a snapshot from records and stores it.
func (h *Holder) Replace(records []publication.Record) *Catalog {
	c := New(records)
	h.Store(c)
	return c
}
