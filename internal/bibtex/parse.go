// Package bibtex scans BibTeX-style bibliography text into publication records.
//
// The scanner is deliberately forgiving: it never fails, it only extracts less.
// An entry runs from its "@type{key," header to the next "@" or the end of the
// text, whatever the brace balance in between.
package bibtex

import (
	"errors"
	"strings"

	"github.com/matsen/pubcat/internal/publication"
)

// ErrNoEntries is returned by ParseDocument when the text contains no entries.
var ErrNoEntries = errors.New("no publications found")

// Parse scans text and returns one record per entry, in document order.
// Text without any entries yields an empty (nil) slice.
func Parse(text string) []publication.Record {
	var records []publication.Record

	i := 0
	for {
		at := strings.IndexByte(text[i:], '@')
		if at < 0 {
			break
		}
		start := i + at

		h, ok := readHeader(text, start)
		if !ok {
			if h.noComma {
				// Every later candidate would need a comma too.
				break
			}
			i = start + 1
			continue
		}

		bodyEnd := len(text)
		if next := strings.IndexByte(text[h.bodyStart:], '@'); next >= 0 {
			bodyEnd = h.bodyStart + next
		}

		records = append(records, publication.Record{
			Category: h.category,
			Key:      h.key,
			Fields:   ExtractFields(text[h.bodyStart:bodyEnd]),
		})
		i = bodyEnd
	}

	return records
}

// ParseDocument is Parse with the empty result reported as ErrNoEntries.
// Whether that is fatal is up to the caller.
func ParseDocument(text string) ([]publication.Record, error) {
	records := Parse(text)
	if len(records) == 0 {
		return nil, ErrNoEntries
	}
	return records, nil
}

// header is the "@type{key," prefix of an entry.
type header struct {
	category  string
	key       string
	bodyStart int
	noComma   bool
}

// readHeader reads an entry header starting at the '@' at position at.
func readHeader(text string, at int) (header, bool) {
	var h header
	n := len(text)

	j := at + 1
	for j < n && isIdentByte(text[j]) {
		j++
	}
	if j == at+1 {
		return h, false
	}
	h.category = strings.ToLower(text[at+1 : j])

	for j < n && isSpace(text[j]) {
		j++
	}
	if j >= n || text[j] != '{' {
		return h, false
	}
	j++

	comma := strings.IndexByte(text[j:], ',')
	if comma < 0 {
		h.noComma = true
		return h, false
	}
	h.key = strings.TrimSpace(text[j : j+comma])
	if h.key == "" {
		return h, false
	}
	h.bodyStart = j + comma + 1

	return h, true
}

func isIdentByte(c byte) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}
