package format

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Labels maps a category to its display name.
type Labels map[string]string

// FilterLabels name categories in filter selectors.
var FilterLabels = Labels{
	"article":       "Journal Articles",
	"inproceedings": "Conference Papers",
	"techreport":    "Research Papers",
	"incollection":  "Presentations & Speeches",
	"book":          "Books",
	"misc":          "Miscellaneous",
}

// SectionLabels name categories in section headers.
var SectionLabels = Labels{
	"inproceedings": "Conference Papers",
	"article":       "Journal Articles",
	"techreport":    "Research Papers",
	"incollection":  "Presentations & Speeches",
	"book":          "Books",
	"misc":          "Other Publications",
}

// Merge returns a copy of l with overrides applied. Neither input is modified.
func (l Labels) Merge(overrides map[string]string) Labels {
	out := make(Labels, len(l)+len(overrides))
	for k, v := range l {
		out[k] = v
	}
	for k, v := range overrides {
		if strings.TrimSpace(v) != "" {
			out[strings.ToLower(k)] = v
		}
	}
	return out
}

// CategoryLabel looks category up in labels, falling back to the category
// with its first letter upper-cased.
func CategoryLabel(category string, labels Labels) string {
	if label, ok := labels[category]; ok {
		return label
	}
	return capitalize(category)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
