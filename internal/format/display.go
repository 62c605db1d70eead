package format

import "github.com/matsen/pubcat/internal/publication"

// Display is the fully formatted view of one record.
type Display struct {
	Key      string `json:"key"`
	Category string `json:"category"`
	Year     string `json:"year"`
	Title    string `json:"title"`
	Authors  string `json:"authors"`
	Venue    string `json:"venue,omitempty"`
	Links    []Link `json:"links,omitempty"`
}

// ToDisplay formats r for rendering.
func ToDisplay(r publication.Record) Display {
	return Display{
		Key:      r.Key,
		Category: r.Category,
		Year:     r.Get(publication.FieldYear),
		Title:    Title(r),
		Authors:  Authors(r.Get(publication.FieldAuthor)),
		Venue:    Venue(r),
		Links:    Links(r),
	}
}

// ToDisplayList formats a slice of records.
func ToDisplayList(records []publication.Record) []Display {
	out := make([]Display, len(records))
	for i, r := range records {
		out[i] = ToDisplay(r)
	}
	return out
}
