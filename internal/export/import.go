package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fabrikdata/fabrik/internal/generator"
	"github.com/fabrikdata/fabrik/internal/types"
)

// LoadAncestorPool rebuilds the value pool a table saw when it was first
// generated, by re-reading the exported CSVs of every table that precedes
// it in plan order. This is what lets refinement run in a fresh process.
func LoadAncestorPool(dir string, plan types.GenerationPlan, tables []types.TableSchema, target string) (*generator.ValuePool, error) {
	schemas := make(map[string]*types.TableSchema, len(tables))
	for i := range tables {
		schemas[tables[i].Name] = &tables[i]
	}

	pool := generator.NewValuePool()
	for _, name := range plan.Order {
		if name == target {
			return pool, nil
		}
		table, ok := schemas[name]
		if !ok {
			return nil, fmt.Errorf("plan names unknown table %s", name)
		}
		if err := loadTableInto(pool, dir, table); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("table %s not in generation order", target)
}

func loadTableInto(pool *generator.ValuePool, dir string, table *types.TableSchema) error {
	file, err := os.Open(filepath.Join(dir, table.Name+".csv"))
	if err != nil {
		return fmt.Errorf("failed to open exported table %s: %w", table.Name, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read exported table %s: %w", table.Name, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("exported table %s has no header", table.Name)
	}

	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		index[name] = i
	}

	for _, record := range records[1:] {
		row := make(types.Row, len(table.Columns))
		for _, col := range table.Columns {
			pos, ok := index[col.Name]
			if !ok || pos >= len(record) {
				return fmt.Errorf("exported table %s missing column %s", table.Name, col.Name)
			}
			value, err := parseCell(record[pos], col)
			if err != nil {
				return fmt.Errorf("exported table %s, column %s: %w", table.Name, col.Name, err)
			}
			row[col.Name] = value
		}

		if len(table.PrimaryKey) > 0 {
			tuple := make([]interface{}, len(table.PrimaryKey))
			for i, name := range table.PrimaryKey {
				tuple[i] = row[name]
			}
			pool.Register(table.Name, table.PrimaryKey, tuple)
		}
		for _, col := range table.Columns {
			if col.IsUnique && row[col.Name] != nil {
				pool.Register(table.Name, []string{col.Name}, []interface{}{row[col.Name]})
			}
		}
	}
	return nil
}

// parseCell inverts formatValue for one CSV cell.
func parseCell(cell string, col types.ColumnDef) (interface{}, error) {
	if cell == "" && col.Type.Base != types.TypeVarchar && col.Type.Base != types.TypeText {
		return nil, nil
	}

	switch col.Type.Base {
	case types.TypeInteger:
		n, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", cell)
		}
		return n, nil
	case types.TypeDecimal:
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not numeric", cell)
		}
		return f, nil
	case types.TypeBoolean:
		b, err := strconv.ParseBool(strings.ToLower(cell))
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", cell)
		}
		return b, nil
	case types.TypeDate, types.TypeTimestamp:
		t, err := time.Parse(time.RFC3339, cell)
		if err != nil {
			return nil, fmt.Errorf("%q is not a timestamp", cell)
		}
		return t, nil
	default:
		return cell, nil
	}
}
