package schema

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/fabrikdata/fabrik/internal/types"
)

const storeDDL = `
CREATE TABLE "Users" (
    id SERIAL PRIMARY KEY,
    email VARCHAR(120) NOT NULL UNIQUE,
    display_name VARCHAR(60),
    active BOOLEAN DEFAULT true
);

CREATE INDEX idx_users_email ON users(email);

CREATE TABLE orders (
    id INTEGER,
    user_id INTEGER NOT NULL,
    status ENUM('pending', 'shipped', 'cancelled') NOT NULL,
    total DECIMAL(10,2) DEFAULT 0,
    placed_at TIMESTAMP,
    PRIMARY KEY (id),
    CONSTRAINT fk_orders_user FOREIGN KEY (user_id) REFERENCES "Users" (id)
);
`

func TestParseBasic(t *testing.T) {
	tables, err := Parse(storeDDL)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(tables))
	}

	users := tables[0]
	if users.Name != "users" {
		t.Errorf("expected canonical name 'users', got %q", users.Name)
	}
	if diff := cmp.Diff([]string{"id"}, users.PrimaryKey); diff != "" {
		t.Errorf("users primary key mismatch (-want +got):\n%s", diff)
	}

	email := users.Column("email")
	if email == nil {
		t.Fatal("missing column email")
	}
	if email.Nullable || !email.IsUnique {
		t.Errorf("email should be NOT NULL UNIQUE, got nullable=%v unique=%v", email.Nullable, email.IsUnique)
	}
	if email.Type.Base != types.TypeVarchar || email.Type.Length != 120 {
		t.Errorf("email type mismatch: %+v", email.Type)
	}

	if name := users.Column("display_name"); name == nil || !name.Nullable {
		t.Error("display_name should default to nullable")
	}
	if active := users.Column("active"); active == nil || active.Default != "true" {
		t.Errorf("active default mismatch: %+v", active)
	}

	orders := tables[1]
	if len(orders.ForeignKeys) != 1 {
		t.Fatalf("expected 1 foreign key, got %d", len(orders.ForeignKeys))
	}
	want := types.ForeignKey{Columns: []string{"user_id"}, RefTable: "users", RefColumns: []string{"id"}}
	if diff := cmp.Diff(want, orders.ForeignKeys[0]); diff != "" {
		t.Errorf("orders FK mismatch (-want +got):\n%s", diff)
	}

	status := orders.Column("status")
	if status == nil || status.Type.Base != types.TypeEnum {
		t.Fatalf("status should be an enum: %+v", status)
	}
	if diff := cmp.Diff([]string{"pending", "shipped", "cancelled"}, status.Type.Values); diff != "" {
		t.Errorf("enum values mismatch (-want +got):\n%s", diff)
	}

	total := orders.Column("total")
	if total == nil || total.Type.Precision != 10 || total.Type.Scale != 2 {
		t.Errorf("total should be DECIMAL(10,2): %+v", total)
	}
}

func TestParsePrimaryKeyImpliesNotNull(t *testing.T) {
	tables, err := Parse(`CREATE TABLE t (id INTEGER, PRIMARY KEY (id));`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if col := tables[0].Column("id"); col == nil || col.Nullable {
		t.Error("primary key column must be NOT NULL even without an explicit constraint")
	}
}

func TestParseCompositeKeys(t *testing.T) {
	ddl := `
CREATE TABLE order_items (
    order_id INTEGER,
    line_no INTEGER,
    sku VARCHAR(40) NOT NULL,
    PRIMARY KEY (order_id, line_no),
    FOREIGN KEY (order_id, line_no) REFERENCES shipments (ref_order, ref_line)
);
CREATE TABLE shipments (
    ref_order INTEGER,
    ref_line INTEGER,
    PRIMARY KEY (ref_order, ref_line)
);
`
	tables, err := Parse(ddl)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	items := tables[0]
	if diff := cmp.Diff([]string{"order_id", "line_no"}, items.PrimaryKey); diff != "" {
		t.Errorf("composite PK mismatch (-want +got):\n%s", diff)
	}
	fk := items.ForeignKeys[0]
	if diff := cmp.Diff([]string{"ref_order", "ref_line"}, fk.RefColumns); diff != "" {
		t.Errorf("composite FK mismatch (-want +got):\n%s", diff)
	}
}

func TestParseForwardAndSelfReferences(t *testing.T) {
	ddl := `
CREATE TABLE employees (
    id INTEGER PRIMARY KEY,
    manager_id INTEGER REFERENCES employees(id),
    dept_id INTEGER NOT NULL REFERENCES departments(id)
);
CREATE TABLE departments (
    id INTEGER PRIMARY KEY
);
`
	tables, err := Parse(ddl)
	if err != nil {
		t.Fatalf("forward reference should be legal: %v", err)
	}

	emp := tables[0]
	if len(emp.ForeignKeys) != 2 {
		t.Fatalf("expected 2 foreign keys, got %d", len(emp.ForeignKeys))
	}
	if emp.ForeignKeys[0].RefTable != "employees" {
		t.Errorf("self reference lost: %+v", emp.ForeignKeys[0])
	}
}

func TestParseReferencesWithoutColumnList(t *testing.T) {
	ddl := `
CREATE TABLE books (
    id INTEGER PRIMARY KEY,
    author_id INTEGER REFERENCES authors
);
CREATE TABLE authors (id INTEGER PRIMARY KEY);
`
	tables, err := Parse(ddl)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	fk := tables[0].ForeignKeys[0]
	if diff := cmp.Diff([]string{"id"}, fk.RefColumns); diff != "" {
		t.Errorf("bare REFERENCES should resolve to the parent PK (-want +got):\n%s", diff)
	}
}

func TestParseUnresolvedReference(t *testing.T) {
	_, err := Parse(`CREATE TABLE a (id INTEGER PRIMARY KEY, b_id INTEGER REFERENCES missing(id));`)
	var perr *ParseError
	if !errors.As(err, &perr) || perr.Kind != ErrUnresolvedReference {
		t.Fatalf("expected unresolved-reference error, got %v", err)
	}
}

func TestParseArityMismatch(t *testing.T) {
	ddl := `
CREATE TABLE a (x INTEGER, y INTEGER, FOREIGN KEY (x, y) REFERENCES b (id));
CREATE TABLE b (id INTEGER PRIMARY KEY);
`
	_, err := Parse(ddl)
	var perr *ParseError
	if !errors.As(err, &perr) || perr.Kind != ErrArityMismatch {
		t.Fatalf("expected arity-mismatch error, got %v", err)
	}
}

func TestParseMalformedStatement(t *testing.T) {
	_, err := Parse(`CREATE TABLE ();`)
	var perr *ParseError
	if !errors.As(err, &perr) || perr.Kind != ErrMalformed {
		t.Fatalf("expected malformed error, got %v", err)
	}
	if perr.Statement != 1 {
		t.Errorf("expected statement index 1, got %d", perr.Statement)
	}
}

func TestParseIgnoresUnrelatedStatements(t *testing.T) {
	ddl := `
-- seed comment
INSERT INTO foo VALUES (1);
CREATE TYPE mood AS ENUM ('ok');
CREATE TABLE foo (id INTEGER PRIMARY KEY);
DROP TABLE bar;
`
	tables, err := Parse(ddl)
	if err != nil {
		t.Fatalf("unrelated statements must be skipped: %v", err)
	}
	if len(tables) != 1 || tables[0].Name != "foo" {
		t.Fatalf("expected only table foo, got %+v", tables)
	}
}

func TestParseDeterministic(t *testing.T) {
	first, err := Parse(storeDDL)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	second, err := Parse(storeDDL)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("parsing is not deterministic (-first +second):\n%s", diff)
	}
}
