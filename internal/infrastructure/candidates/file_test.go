package candidates

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileSourceLoadsCandidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candidates.yaml")
	content := `contexts:
  - id: ctx-car
    name: Auto
  - id: ctx-house
    name: Haus
    description: everything about the house
categories:
  - id: cat-invoice
    name: Rechnung
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	source := NewFileSource(path)
	got, err := source.Candidates(context.Background())
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(got.Contexts) != 2 || len(got.Categories) != 1 {
		t.Fatalf("loaded %d/%d", len(got.Contexts), len(got.Categories))
	}
	if got.Contexts[1].Description != "everything about the house" {
		t.Errorf("description = %q", got.Contexts[1].Description)
	}
}

func TestFileSourceMissingFileIsEmpty(t *testing.T) {
	source := NewFileSource(filepath.Join(t.TempDir(), "absent.yaml"))
	got, err := source.Candidates(context.Background())
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(got.Contexts) != 0 || len(got.Categories) != 0 {
		t.Fatalf("got %+v, want empty", got)
	}
}

func TestFileSourceUnconfiguredIsEmpty(t *testing.T) {
	source := NewFileSource("")
	got, err := source.Candidates(context.Background())
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(got.Contexts) != 0 {
		t.Fatalf("got %+v", got)
	}
}
