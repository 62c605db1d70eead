package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/pubcat/internal/format"
	"github.com/matsen/pubcat/internal/render"
)

// Constants for output formatting.
const (
	ListTitleMaxLen = 70 // Used in list command output
	TextWrapWidth   = 68 // Wrap width for authors and venue lines
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
	Count  int    `json:"count,omitempty"`
}

// SyncResponse is the response for the sync command.
type SyncResponse struct {
	Status       string `json:"status"`
	Source       string `json:"source"`
	Bytes        int    `json:"bytes"`
	Publications int    `json:"publications"`
	Unchanged    bool   `json:"unchanged"`
	ContentHash  string `json:"content_hash"`
}

// GroupResponse is one category group in list output.
type GroupResponse struct {
	Category     string           `json:"category"`
	Label        string           `json:"label"`
	Publications []format.Display `json:"publications"`
}

// ListResponse is the response for the list command.
type ListResponse struct {
	Total  int             `json:"total"`
	Groups []GroupResponse `json:"groups"`
}

func newListResponse(sections []render.Section) ListResponse {
	resp := ListResponse{Groups: make([]GroupResponse, 0, len(sections))}
	for _, s := range sections {
		resp.Groups = append(resp.Groups, GroupResponse{
			Category:     s.Category,
			Label:        s.Label,
			Publications: s.Publications,
		})
		resp.Total += len(s.Publications)
	}
	return resp
}

// printSectionsHuman prints grouped publications in human-readable format.
func printSectionsHuman(sections []render.Section) {
	if len(sections) == 0 {
		fmt.Println(render.NoResultsMessage)
		return
	}
	for i, s := range sections {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("%s (%d)\n", s.Label, len(s.Publications))
		for _, d := range s.Publications {
			fmt.Printf("  %-6s %s\n", d.Year, truncateString(d.Title, ListTitleMaxLen))
			if d.Authors != "" {
				fmt.Printf("         %s\n", wrapText(d.Authors, TextWrapWidth, "         "))
			}
			if d.Venue != "" {
				fmt.Printf("         %s\n", wrapText(d.Venue, TextWrapWidth, "         "))
			}
			for _, l := range d.Links {
				fmt.Printf("         %s: %s\n", l.Label, l.URL)
			}
		}
	}
}

// truncateString truncates a string to maxLen runes, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// wrapText wraps text to the specified width with indentation on subsequent lines.
func wrapText(text string, width int, indent string) string {
	if len(text) <= width {
		return text
	}

	var lines []string
	words := strings.Fields(text)
	var currentLine strings.Builder

	for _, word := range words {
		if currentLine.Len() == 0 {
			currentLine.WriteString(word)
		} else if currentLine.Len()+1+len(word) <= width {
			currentLine.WriteString(" ")
			currentLine.WriteString(word)
		} else {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
			currentLine.WriteString(word)
		}
	}
	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	return strings.Join(lines, "\n"+indent)
}
