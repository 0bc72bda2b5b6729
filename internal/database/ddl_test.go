package database

import (
	"strings"
	"testing"

	"github.com/fabrikdata/fabrik/internal/schema"
)

const ddlFixture = `
	CREATE TABLE orders (
		id INTEGER PRIMARY KEY,
		code VARCHAR(12) UNIQUE NOT NULL,
		total DECIMAL(10,2) NOT NULL,
		status ENUM('open', 'shipped'),
		placed_at TIMESTAMP NOT NULL,
		customer_id INTEGER NOT NULL REFERENCES customers(id)
	);
	CREATE TABLE customers (
		id INTEGER PRIMARY KEY,
		email VARCHAR(100) UNIQUE NOT NULL
	);`

func TestRenderCreateTablePostgres(t *testing.T) {
	tables, err := schema.Parse(ddlFixture)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	sql := renderCreateTable(tables[0], postgresColumnType)

	for _, want := range []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"id BIGINT NOT NULL",
		"code VARCHAR(12) NOT NULL UNIQUE",
		"total NUMERIC(10,2) NOT NULL",
		"status TEXT CHECK (status IN ('open', 'shipped'))",
		"PRIMARY KEY (id)",
		"FOREIGN KEY (customer_id) REFERENCES customers (id)",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("postgres DDL missing %q:\n%s", want, sql)
		}
	}
}

func TestRenderCreateTableMySQL(t *testing.T) {
	tables, err := schema.Parse(ddlFixture)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	sql := renderCreateTable(tables[0], mysqlColumnType)

	for _, want := range []string{
		"status ENUM('open', 'shipped')",
		"placed_at DATETIME NOT NULL",
		"total DECIMAL(10,2) NOT NULL",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("mysql DDL missing %q:\n%s", want, sql)
		}
	}
}

func TestValidateTableRejectsBadIdentifiers(t *testing.T) {
	tables, err := schema.Parse(ddlFixture)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	bad := tables[0]
	bad.Name = "orders; DROP TABLE users"
	if err := validateTable(bad); err == nil {
		t.Fatalf("malicious table name accepted")
	}
}
