package visualize

import (
	"strings"
	"testing"

	"github.com/fabrikdata/fabrik/internal/schema"
)

func TestMermaid(t *testing.T) {
	tables, err := schema.Parse(`
		CREATE TABLE authors (
			id INTEGER PRIMARY KEY,
			name VARCHAR(100) NOT NULL
		);
		CREATE TABLE books (
			id INTEGER PRIMARY KEY,
			author_id INTEGER NOT NULL REFERENCES authors(id)
		);`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	out := Mermaid(tables)

	for _, want := range []string{
		"erDiagram",
		"authors {",
		"int id PK",
		"varchar(100) name NOT NULL",
		"books {",
		"authors ||--o{ books : author_id",
		"Total Tables: 2",
		"Total Foreign Keys: 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("diagram missing %q:\n%s", want, out)
		}
	}
}
