// Package publication defines the record type produced by the bibliography parser.
package publication

import (
	"strconv"
	"strings"
)

// Recognized field names.
const (
	FieldTitle     = "title"
	FieldAuthor    = "author"
	FieldYear      = "year"
	FieldJournal   = "journal"
	FieldBooktitle = "booktitle"
	FieldVolume    = "volume"
	FieldNumber    = "number"
	FieldPages     = "pages"
	FieldPublisher = "publisher"
	FieldAddress   = "address"
	FieldDOI       = "doi"
	FieldURL       = "url"
	FieldMonth     = "month"
	FieldSeries    = "series"
	FieldISBN      = "isbn"
)

// Known categories. Anything else passes through as-is.
const (
	CategoryArticle       = "article"
	CategoryInproceedings = "inproceedings"
	CategoryTechreport    = "techreport"
	CategoryIncollection  = "incollection"
	CategoryBook          = "book"
	CategoryMisc          = "misc"
)

// SecondaryFields are extracted with the plain brace rule, in this order.
var SecondaryFields = []string{
	FieldVolume, FieldNumber, FieldPages, FieldPublisher, FieldAddress,
	FieldDOI, FieldURL, FieldMonth, FieldSeries, FieldISBN,
}

// Record is one publication entry.
type Record struct {
	Category string            `json:"category"` // Lowercased entry type tag
	Key      string            `json:"key"`      // Citation key, trimmed
	Fields   map[string]string `json:"fields"`   // Only fields that were found
}

// Field returns a field value and whether it was present.
func (r Record) Field(name string) (string, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// Get returns a field value, or "" when absent.
func (r Record) Get(name string) string {
	return r.Fields[name]
}

// Has reports whether the field is present.
func (r Record) Has(name string) bool {
	_, ok := r.Fields[name]
	return ok
}

// Year returns the numeric year, or 0 if the field is missing or not a number.
func (r Record) Year() int {
	return ParseYear(r.Fields[FieldYear])
}

// ParseYear converts a year string to an int, treating anything unparsable as 0.
func ParseYear(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
