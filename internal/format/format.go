// Package format turns publication records into display strings.
package format

import (
	"strings"

	"github.com/matsen/pubcat/internal/publication"
)

// authorSeparator separates entries in a BibTeX author field.
const authorSeparator = " and "

// UntitledLabel is shown for records without a title.
const UntitledLabel = "Untitled"

// Authors converts a "Last, First and Last, First" author field to
// "First Last, First Last". Entries without a comma are kept as written.
func Authors(field string) string {
	if field == "" {
		return ""
	}

	parts := strings.Split(field, authorSeparator)
	names := make([]string, len(parts))
	for i, p := range parts {
		names[i] = formatAuthor(p)
	}
	return strings.Join(names, ", ")
}

// formatAuthor re-renders a single "Last, First" entry as "First Last".
func formatAuthor(entry string) string {
	last, given, found := strings.Cut(entry, ",")
	if !found {
		return strings.TrimSpace(entry)
	}
	return strings.TrimSpace(strings.TrimSpace(given) + " " + strings.TrimSpace(last))
}

// Venue composes the publication venue: journal details or proceedings
// details, followed by publisher and address.
func Venue(r publication.Record) string {
	var venue string

	if journal, ok := r.Field(publication.FieldJournal); ok {
		venue = journal
		if v, ok := r.Field(publication.FieldVolume); ok {
			venue += ", " + v
		}
		if n, ok := r.Field(publication.FieldNumber); ok {
			venue += "(" + n + ")"
		}
		if p, ok := r.Field(publication.FieldPages); ok {
			venue += ", pp. " + p
		}
	} else if booktitle, ok := r.Field(publication.FieldBooktitle); ok {
		venue = booktitle
		if p, ok := r.Field(publication.FieldPages); ok {
			venue += ", pp. " + p
		}
	}

	venue = appendVenuePart(venue, r, publication.FieldPublisher)
	venue = appendVenuePart(venue, r, publication.FieldAddress)

	return venue
}

func appendVenuePart(venue string, r publication.Record, field string) string {
	v, ok := r.Field(field)
	if !ok {
		return venue
	}
	if venue == "" {
		return v
	}
	return venue + ", " + v
}

// Title returns the record title or UntitledLabel.
func Title(r publication.Record) string {
	if t := r.Get(publication.FieldTitle); t != "" {
		return t
	}
	return UntitledLabel
}
