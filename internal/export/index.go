package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/matsen/pubcat/internal/bibtex"
	"github.com/matsen/pubcat/internal/format"
	"github.com/matsen/pubcat/internal/publication"
)

// Index records which entries a .bib file already holds.
type Index struct {
	// Keys maps citation keys to true for existence check
	Keys map[string]bool
	// DOIs maps normalized DOI values to citation keys
	DOIs map[string]string
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		Keys: make(map[string]bool),
		DOIs: make(map[string]string),
	}
}

// Add indexes r.
func (idx *Index) Add(r publication.Record) {
	idx.Keys[r.Key] = true
	if doi := doiKey(r); doi != "" {
		idx.DOIs[doi] = r.Key
	}
}

// Has reports whether r is already present. DOI is the primary match;
// citation key is the fallback.
func (idx *Index) Has(r publication.Record) bool {
	if doi := doiKey(r); doi != "" {
		if _, exists := idx.DOIs[doi]; exists {
			return true
		}
	}
	return idx.Keys[r.Key]
}

// Missing returns the records not yet in the index, in order. Each returned
// record is added, so duplicates within records are dropped too.
func (idx *Index) Missing(records []publication.Record) []publication.Record {
	var out []publication.Record
	for _, r := range records {
		if idx.Has(r) {
			continue
		}
		idx.Add(r)
		out = append(out, r)
	}
	return out
}

// ReadIndex builds an index from an existing .bib file.
// Returns an empty index if the file doesn't exist.
func ReadIndex(path string) (*Index, error) {
	idx := NewIndex()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	for _, r := range bibtex.Parse(string(data)) {
		idx.Add(r)
	}
	return idx, nil
}

// doiKey normalizes a record's DOI for comparison.
func doiKey(r publication.Record) string {
	return strings.ToLower(format.DOIURL(r.Get(publication.FieldDOI)))
}

// AppendToBibFile appends BibTeX content to a file.
func AppendToBibFile(path, content string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	// Ensure we start on a new line
	_, err = file.WriteString("\n" + content)
	return err
}
