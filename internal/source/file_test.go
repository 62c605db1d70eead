package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileSource_Fetch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pubs.bib")
	if err := os.WriteFile(path, []byte(sampleBib), 0644); err != nil {
		t.Fatal(err)
	}

	data, err := NewFileSource(path).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(data) != sampleBib {
		t.Errorf("Fetch() = %q", data)
	}
}

func TestFileSource_Missing(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "nope.bib")).Fetch(context.Background())
	if !IsNotFound(err) {
		t.Fatalf("Fetch() error = %v, want not found", err)
	}
}

func TestFileSource_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bib")
	if err := os.WriteFile(path, []byte("\n\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewFileSource(path).Fetch(context.Background())
	if !errors.Is(err, ErrEmptyBody) {
		t.Fatalf("Fetch() error = %v, want ErrEmptyBody", err)
	}
}
