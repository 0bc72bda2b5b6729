// Package visualize renders parsed schemas as Mermaid ER diagrams.
package visualize

import (
	"fmt"
	"strings"
	"time"

	"github.com/fabrikdata/fabrik/internal/types"
)

func Mermaid(tables []types.TableSchema) string {
	var builder strings.Builder

	builder.WriteString("# Database Schema Diagram\n\n")
	builder.WriteString("```mermaid\nerDiagram\n")

	fkCount := 0
	for _, table := range tables {
		builder.WriteString(fmt.Sprintf("    %s {\n", cleanName(table.Name)))

		for _, col := range table.Columns {
			keyStr := ""
			if table.IsPrimary(col.Name) {
				keyStr = " PK"
			} else if !col.Nullable {
				keyStr = " NOT NULL"
			}
			builder.WriteString(fmt.Sprintf("        %s %s%s\n", mermaidType(col.Type), col.Name, keyStr))
		}

		builder.WriteString("    }\n\n")
		fkCount += len(table.ForeignKeys)
	}

	for _, table := range tables {
		for _, fk := range table.ForeignKeys {
			builder.WriteString(fmt.Sprintf("    %s ||--o{ %s : %s\n",
				cleanName(fk.RefTable),
				cleanName(table.Name),
				strings.Join(fk.Columns, "_")))
		}
	}

	builder.WriteString("```\n\n")
	builder.WriteString(fmt.Sprintf("Generated on: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	builder.WriteString(fmt.Sprintf("Total Tables: %d\n", len(tables)))
	builder.WriteString(fmt.Sprintf("Total Foreign Keys: %d\n", fkCount))

	return builder.String()
}

func mermaidType(ct types.ColumnType) string {
	switch ct.Base {
	case types.TypeVarchar:
		if ct.Length > 0 {
			return fmt.Sprintf("varchar(%d)", ct.Length)
		}
		return "varchar"
	case types.TypeInteger:
		return "int"
	case types.TypeDecimal:
		if ct.Precision > 0 {
			return fmt.Sprintf("decimal(%d,%d)", ct.Precision, ct.Scale)
		}
		return "decimal"
	case types.TypeBoolean:
		return "boolean"
	case types.TypeDate:
		return "date"
	case types.TypeTimestamp:
		return "timestamp"
	case types.TypeEnum:
		return "enum"
	default:
		return "text"
	}
}

func cleanName(name string) string {
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, ".", "_")
	return name
}
