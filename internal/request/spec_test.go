package request

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSpec(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	return path
}

func TestLoadSpec(t *testing.T) {
	path := writeSpec(t, `
rows: 100
tables:
  users:
    rows: 500
    instructions: mostly US-based accounts
  orders:
    instructions: orders skew toward recent dates
`)

	spec, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if spec.Rows != 100 {
		t.Errorf("default rows = %d, want 100", spec.Rows)
	}

	targets := spec.RowTargets()
	if len(targets) != 1 || targets["users"] != 500 {
		t.Errorf("row targets = %v", targets)
	}

	instructions := spec.Instructions()
	if instructions["orders"] != "orders skew toward recent dates" {
		t.Errorf("instructions = %v", instructions)
	}
}

func TestLoadSpecRejectsNegativeRows(t *testing.T) {
	path := writeSpec(t, `
tables:
  users:
    rows: -5
`)

	if _, err := Load(path); err == nil {
		t.Fatalf("negative row count accepted")
	}
}
