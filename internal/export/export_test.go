package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fabrikdata/fabrik/internal/generator"
	"github.com/fabrikdata/fabrik/internal/planner"
	"github.com/fabrikdata/fabrik/internal/schema"
	"github.com/fabrikdata/fabrik/internal/types"
)

const exportDDL = `
	CREATE TABLE authors (
		id INTEGER PRIMARY KEY,
		email VARCHAR(100) UNIQUE NOT NULL,
		joined_at TIMESTAMP NOT NULL
	);
	CREATE TABLE books (
		id INTEGER PRIMARY KEY,
		author_id INTEGER NOT NULL REFERENCES authors(id)
	);`

func fixtureResult(t *testing.T) ([]types.TableSchema, types.GenerationPlan, *generator.RunResult) {
	t.Helper()
	tables, err := schema.Parse(exportDDL)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	plan := planner.Resolve(tables)

	joined := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	result := &generator.RunResult{
		Tables: map[string]types.GeneratedTable{
			"authors": {
				Name: "authors",
				Rows: []types.Row{
					{"id": int64(1), "email": "a@example.com", "joined_at": joined},
					{"id": int64(2), "email": "b@example.com", "joined_at": joined},
				},
				Status: types.StatusComplete,
			},
			"books": {
				Name: "books",
				Rows: []types.Row{
					{"id": int64(10), "author_id": int64(1)},
				},
				Status:    types.StatusPartial,
				Shortfall: "validation shortfall: replacement budget exhausted",
			},
		},
	}
	return tables, plan, result
}

func TestWriteDatasetAndManifest(t *testing.T) {
	tables, plan, result := fixtureResult(t)
	dir := t.TempDir()

	if err := WriteDataset(dir, plan, tables, result); err != nil {
		t.Fatalf("WriteDataset: %v", err)
	}

	manifest, err := ReadManifest(dir)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}

	if len(manifest.Order) != 2 || manifest.Order[0] != "authors" {
		t.Fatalf("manifest order = %v", manifest.Order)
	}
	if manifest.Tables[0].Rows != 2 || manifest.Tables[0].Status != "complete" {
		t.Fatalf("authors manifest entry = %+v", manifest.Tables[0])
	}
	if manifest.Tables[1].Status != "partial" || manifest.Tables[1].Shortfall == "" {
		t.Fatalf("books manifest entry = %+v", manifest.Tables[1])
	}

	for _, name := range []string{"authors.csv", "books.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
}

func TestLoadAncestorPoolRoundTrip(t *testing.T) {
	tables, plan, result := fixtureResult(t)
	dir := t.TempDir()

	if err := WriteDataset(dir, plan, tables, result); err != nil {
		t.Fatalf("WriteDataset: %v", err)
	}

	pool, err := LoadAncestorPool(dir, plan, tables, "books")
	if err != nil {
		t.Fatalf("LoadAncestorPool: %v", err)
	}

	if got := pool.Size("authors", []string{"id"}); got != 2 {
		t.Fatalf("authors pool size = %d, want 2", got)
	}
	if !pool.Contains("authors", []string{"id"}, []interface{}{int64(1)}) {
		t.Fatalf("author id 1 not round-tripped")
	}
	if !pool.Contains("authors", []string{"email"}, []interface{}{"a@example.com"}) {
		t.Fatalf("unique email not round-tripped")
	}

	// Only ancestors are loaded.
	if pool.Size("books", []string{"id"}) != 0 {
		t.Fatalf("target table leaked into its own prior pool")
	}
}
