// Package query filters, groups, and sorts catalog records for display.
//
// Everything here is a pure function of its inputs: the same records and
// filters always produce the same projection.
package query

import (
	"sort"
	"strings"

	"github.com/matsen/pubcat/internal/publication"
)

// All disables the year or category filter.
const All = "all"

// DefaultOrder is the display order of category groups. Categories not
// listed here are left out of Ordered.
var DefaultOrder = []string{
	publication.CategoryInproceedings,
	publication.CategoryArticle,
	publication.CategoryBook,
	publication.CategoryIncollection,
	publication.CategoryMisc,
}

// searchFields are the fields matched by the free-text filter, in order.
var searchFields = []string{
	publication.FieldTitle,
	publication.FieldAuthor,
	publication.FieldJournal,
	publication.FieldBooktitle,
}

// Filters selects records. An empty Year or Category means All.
type Filters struct {
	Text     string `json:"text"`
	Year     string `json:"year"`
	Category string `json:"category"`
}

// Projection maps a category to its records, newest first.
// Categories without records are absent.
type Projection map[string][]publication.Record

// Group is one category of a projection, in display order.
type Group struct {
	Category string               `json:"category"`
	Records  []publication.Record `json:"records"`
}

func isAll(v string) bool {
	return v == "" || v == All
}

// Match reports whether r passes every filter clause.
func Match(r publication.Record, f Filters) bool {
	if !isAll(f.Year) {
		y, ok := r.Field(publication.FieldYear)
		if !ok || y != f.Year {
			return false
		}
	}

	if !isAll(f.Category) && r.Category != f.Category {
		return false
	}

	if f.Text != "" {
		return matchText(r, strings.ToLower(f.Text))
	}

	return true
}

// matchText does a case-insensitive substring search over searchFields.
func matchText(r publication.Record, needle string) bool {
	for _, name := range searchFields {
		v, ok := r.Field(name)
		if ok && strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

// Filter returns the records matching f, keeping their order.
func Filter(records []publication.Record, f Filters) []publication.Record {
	var out []publication.Record
	for _, r := range records {
		if Match(r, f) {
			out = append(out, r)
		}
	}
	return out
}

// Run filters records, groups them by category, and sorts each group by
// year descending. Records with a missing or non-numeric year count as year
// 0. Ties keep document order.
func Run(records []publication.Record, f Filters) Projection {
	p := make(Projection)
	for _, r := range records {
		if Match(r, f) {
			p[r.Category] = append(p[r.Category], r)
		}
	}

	for _, group := range p {
		SortByYear(group)
	}

	return p
}

// SortByYear stable-sorts records by numeric year, newest first.
func SortByYear(records []publication.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Year() > records[j].Year()
	})
}

// Ordered walks order and returns the non-empty groups of p.
func Ordered(p Projection, order []string) []Group {
	var groups []Group
	for _, cat := range order {
		if recs := p[cat]; len(recs) > 0 {
			groups = append(groups, Group{Category: cat, Records: recs})
		}
	}
	return groups
}

// Unordered returns the categories of p that order does not mention, sorted.
func Unordered(p Projection, order []string) []string {
	listed := make(map[string]bool, len(order))
	for _, cat := range order {
		listed[cat] = true
	}

	var rest []string
	for cat, recs := range p {
		if !listed[cat] && len(recs) > 0 {
			rest = append(rest, cat)
		}
	}
	sort.Strings(rest)
	return rest
}

// Count returns the number of records in p.
func Count(p Projection) int {
	n := 0
	for _, recs := range p {
		n += len(recs)
	}
	return n
}
