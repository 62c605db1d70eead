// Package export writes records back out as BibTeX.
package export

import (
	"sort"
	"strings"

	"github.com/matsen/pubcat/internal/publication"
)

// fieldOrder is the order fields are written in. Anything else follows,
// sorted by name.
var fieldOrder = append([]string{
	publication.FieldAuthor,
	publication.FieldTitle,
	publication.FieldJournal,
	publication.FieldBooktitle,
	publication.FieldYear,
}, publication.SecondaryFields...)

// ToBibTeX converts a record to a BibTeX entry.
func ToBibTeX(r publication.Record) string {
	var b strings.Builder

	category := r.Category
	if category == "" {
		category = publication.CategoryMisc
	}
	b.WriteString("@" + category + "{" + r.Key + ",\n")

	for _, name := range orderedFields(r) {
		b.WriteString("  " + name + " = {" + cleanValue(r.Fields[name]) + "},\n")
	}

	b.WriteString("}\n")
	return b.String()
}

// ToBibTeXList converts multiple records to BibTeX, separated by blank lines.
func ToBibTeXList(records []publication.Record) string {
	var entries []string
	for _, r := range records {
		entries = append(entries, ToBibTeX(r))
	}
	return strings.Join(entries, "\n")
}

// orderedFields returns the field names of r present in write order.
func orderedFields(r publication.Record) []string {
	names := make([]string, 0, len(r.Fields))
	known := make(map[string]bool, len(fieldOrder))
	for _, name := range fieldOrder {
		known[name] = true
		if r.Has(name) {
			names = append(names, name)
		}
	}

	var rest []string
	for name := range r.Fields {
		if !known[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// cleanValue drops braces so every value is a single brace group. Parsed
// values never hold a matched pair, only stray halves.
func cleanValue(s string) string {
	return strings.NewReplacer("{", "", "}", "").Replace(strings.TrimSpace(s))
}
