package bibtex

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/matsen/pubcat/internal/publication"
)

// Field patterns. Values are matched one brace level deep: a nested "}" ends
// the value early. Names are case-insensitive and must start at a word
// boundary so that "booktitle" never satisfies "title".
var (
	titleRegex  = regexp.MustCompile(`(?i)\btitle\s*=\s*(?:\{([^}]*)\}|"([^"]*)")`)
	authorRegex = regexp.MustCompile(`(?i)\bauthor\s*=\s*\{([^}]*)\}`)
	yearRegex   = regexp.MustCompile(`(?i)\byear\s*=\s*[{"]?\s*(\d+)`)

	braceFieldRegexes = compileBraceFields(append(
		[]string{publication.FieldJournal, publication.FieldBooktitle},
		publication.SecondaryFields...,
	))
)

type braceField struct {
	name  string
	regex *regexp.Regexp
}

func compileBraceFields(names []string) []braceField {
	out := make([]braceField, len(names))
	for i, name := range names {
		out[i] = braceField{
			name:  name,
			regex: regexp.MustCompile(fmt.Sprintf(`(?i)\b%s\s*=\s*\{([^}]*)\}`, regexp.QuoteMeta(name))),
		}
	}
	return out
}

// ExtractFields pulls the recognized fields out of one entry body.
// Fields that do not match are left out of the map.
func ExtractFields(body string) map[string]string {
	fields := make(map[string]string)

	if m := titleRegex.FindStringSubmatchIndex(body); m != nil {
		// Prefer the brace group; fall back to the quoted one.
		if m[2] >= 0 {
			fields[publication.FieldTitle] = strings.TrimSpace(body[m[2]:m[3]])
		} else if m[4] >= 0 {
			fields[publication.FieldTitle] = strings.TrimSpace(body[m[4]:m[5]])
		}
	}

	if m := authorRegex.FindStringSubmatch(body); m != nil {
		fields[publication.FieldAuthor] = strings.TrimSpace(m[1])
	}

	if m := yearRegex.FindStringSubmatch(body); m != nil {
		fields[publication.FieldYear] = m[1]
	}

	for _, f := range braceFieldRegexes {
		if m := f.regex.FindStringSubmatch(body); m != nil {
			fields[f.name] = strings.TrimSpace(m[1])
		}
	}

	return fields
}
