package database

import (
	"fmt"
	"strings"

	"github.com/fabrikdata/fabrik/internal/types"
)

// renderCreateTable builds a CREATE TABLE statement for the normalized
// schema using a provider-specific column type mapper.
func renderCreateTable(table types.TableSchema, columnType func(types.ColumnDef) string) string {
	var defs []string

	for _, col := range table.Columns {
		def := col.Name + " " + columnType(col)
		if !col.Nullable {
			def += " NOT NULL"
		}
		if col.IsUnique {
			def += " UNIQUE"
		}
		if col.Default != "" {
			def += " DEFAULT " + col.Default
		}
		defs = append(defs, def)
	}

	if len(table.PrimaryKey) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(table.PrimaryKey, ", ")))
	}
	for _, fk := range table.ForeignKeys {
		defs = append(defs, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			strings.Join(fk.Columns, ", "), fk.RefTable, strings.Join(fk.RefColumns, ", ")))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", table.Name, strings.Join(defs, ",\n  "))
}

func postgresColumnType(col types.ColumnDef) string {
	switch col.Type.Base {
	case types.TypeInteger:
		return "BIGINT"
	case types.TypeDecimal:
		if col.Type.Precision > 0 {
			return fmt.Sprintf("NUMERIC(%d,%d)", col.Type.Precision, col.Type.Scale)
		}
		return "NUMERIC"
	case types.TypeVarchar:
		if col.Type.Length > 0 {
			return fmt.Sprintf("VARCHAR(%d)", col.Type.Length)
		}
		return "VARCHAR(255)"
	case types.TypeDate:
		return "DATE"
	case types.TypeTimestamp:
		return "TIMESTAMP"
	case types.TypeBoolean:
		return "BOOLEAN"
	case types.TypeEnum:
		// No managed enum types; a CHECK keeps the membership constraint.
		return fmt.Sprintf("TEXT CHECK (%s IN (%s))", col.Name, quoteEnumValues(col.Type.Values))
	default:
		return "TEXT"
	}
}

func mysqlColumnType(col types.ColumnDef) string {
	switch col.Type.Base {
	case types.TypeInteger:
		return "BIGINT"
	case types.TypeDecimal:
		if col.Type.Precision > 0 {
			return fmt.Sprintf("DECIMAL(%d,%d)", col.Type.Precision, col.Type.Scale)
		}
		return "DECIMAL(10,2)"
	case types.TypeVarchar:
		if col.Type.Length > 0 {
			return fmt.Sprintf("VARCHAR(%d)", col.Type.Length)
		}
		return "VARCHAR(255)"
	case types.TypeDate:
		return "DATE"
	case types.TypeTimestamp:
		return "DATETIME"
	case types.TypeBoolean:
		return "TINYINT(1)"
	case types.TypeEnum:
		return fmt.Sprintf("ENUM(%s)", quoteEnumValues(col.Type.Values))
	default:
		return "TEXT"
	}
}

func sqliteColumnType(col types.ColumnDef) string {
	switch col.Type.Base {
	case types.TypeInteger:
		return "INTEGER"
	case types.TypeDecimal:
		return "REAL"
	case types.TypeBoolean:
		return "INTEGER"
	case types.TypeEnum:
		return fmt.Sprintf("TEXT CHECK (%s IN (%s))", col.Name, quoteEnumValues(col.Type.Values))
	default:
		return "TEXT"
	}
}
