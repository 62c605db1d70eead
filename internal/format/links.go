package format

import (
	"strings"

	"github.com/matsen/pubcat/internal/publication"
)

// doiResolver is prefixed to bare DOIs.
const doiResolver = "https://doi.org/"

// Link is an outbound link shown next to a publication.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// DOIURL returns the resolver URL for a DOI, or "" for an empty DOI.
// Common prefixes ("doi:", "https://doi.org/") are stripped first.
func DOIURL(doi string) string {
	doi = normalizeDOI(doi)
	if doi == "" {
		return ""
	}
	return doiResolver + doi
}

// normalizeDOI strips resolver and scheme prefixes from a DOI.
func normalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi.org/"} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	if len(doi) >= 4 && strings.EqualFold(doi[:4], "doi:") {
		doi = strings.TrimSpace(doi[4:])
	}
	return doi
}

// Links returns the DOI link followed by the URL link, when present.
func Links(r publication.Record) []Link {
	var links []Link
	if u := DOIURL(r.Get(publication.FieldDOI)); u != "" {
		links = append(links, Link{Label: "DOI", URL: u})
	}
	if u := strings.TrimSpace(r.Get(publication.FieldURL)); u != "" {
		links = append(links, Link{Label: "Link", URL: u})
	}
	return links
}
