package database

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/fabrikdata/fabrik/internal/types"
)

// validIdentifier validates SQL identifiers (table/column names) to prevent SQL injection
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Adapter loads generated datasets into a live database. CreateTable and
// InsertRows are always called in generation plan order, so foreign keys
// resolve as long as the plan was respected.
type Adapter interface {
	Connect(ctx context.Context, url string) error
	Close() error
	Ping(ctx context.Context) error

	CreateTable(ctx context.Context, table types.TableSchema) error
	InsertRows(ctx context.Context, table types.TableSchema, rows []types.Row) error
}

func NewAdapter(provider string) (Adapter, error) {
	switch provider {
	case "postgresql", "postgres":
		return NewPostgresAdapter(), nil
	case "mysql":
		return NewMySQLAdapter(), nil
	case "sqlite", "sqlite3":
		return NewSQLiteAdapter(), nil
	default:
		return nil, fmt.Errorf("unsupported database provider: %s", provider)
	}
}

func isValidIdentifier(name string) bool {
	return validIdentifier.MatchString(name)
}

func validateTable(table types.TableSchema) error {
	if !isValidIdentifier(table.Name) {
		return fmt.Errorf("invalid table name: %s", table.Name)
	}
	for _, col := range table.Columns {
		if !isValidIdentifier(col.Name) {
			return fmt.Errorf("invalid column name: %s.%s", table.Name, col.Name)
		}
	}
	return nil
}

// columnOrder keeps insert column lists aligned with the declared schema
// rather than map iteration order.
func columnOrder(table types.TableSchema) []string {
	names := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		names[i] = col.Name
	}
	return names
}

func quoteEnumValues(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	return strings.Join(quoted, ", ")
}
