package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fabrikdata/fabrik/internal/generator"
	"github.com/fabrikdata/fabrik/internal/types"
)

// Manifest describes an exported dataset: which tables were written, in
// what order, with what outcome. It is the entry point for later refinement
// runs, which need the generation order to rebuild ancestor pools.
type Manifest struct {
	Version   string          `yaml:"version"`
	CreatedAt string          `yaml:"created_at"`
	Order     []string        `yaml:"order"`
	Tables    []ManifestTable `yaml:"tables"`
	Warnings  []string        `yaml:"warnings,omitempty"`
}

type ManifestTable struct {
	Name      string `yaml:"name"`
	Rows      int    `yaml:"rows"`
	Status    string `yaml:"status"`
	Shortfall string `yaml:"shortfall,omitempty"`
}

const manifestName = "manifest.yaml"

// WriteDataset writes one CSV per table plus a manifest into dir. Tables
// are written in plan order and columns in declared schema order.
func WriteDataset(dir string, plan types.GenerationPlan, tables []types.TableSchema, result *generator.RunResult) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	schemas := make(map[string]*types.TableSchema, len(tables))
	for i := range tables {
		schemas[tables[i].Name] = &tables[i]
	}

	manifest := Manifest{
		Version:   "1",
		CreatedAt: time.Now().Format(time.RFC3339),
		Order:     plan.Order,
	}
	for _, w := range plan.Warnings {
		manifest.Warnings = append(manifest.Warnings, fmt.Sprintf("cycle broken at %s -> %s (%s)", w.ChildTable, w.ParentTable, w.Reason))
	}

	for _, name := range plan.Order {
		table, ok := schemas[name]
		if !ok {
			continue
		}
		generated := result.Tables[name]

		if err := writeTableCSV(dir, table, generated.Rows); err != nil {
			return err
		}

		manifest.Tables = append(manifest.Tables, ManifestTable{
			Name:      name,
			Rows:      len(generated.Rows),
			Status:    string(generated.Status),
			Shortfall: generated.Shortfall,
		})
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestName), data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// WriteJSON writes the whole dataset as a single JSON document, tables
// keyed by name.
func WriteJSON(path string, plan types.GenerationPlan, result *generator.RunResult) error {
	doc := make(map[string][]types.Row, len(plan.Order))
	for _, name := range plan.Order {
		doc[name] = result.Tables[name].Rows
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	return nil
}

func writeTableCSV(dir string, table *types.TableSchema, rows []types.Row) error {
	file, err := os.Create(filepath.Join(dir, table.Name+".csv"))
	if err != nil {
		return fmt.Errorf("failed to create CSV file for %s: %w", table.Name, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	headers := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		headers[i] = col.Name
	}
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV header for %s: %w", table.Name, err)
	}

	for _, row := range rows {
		values := make([]string, len(headers))
		for i, name := range headers {
			values[i] = formatValue(row[name])
		}
		if err := writer.Write(values); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", table.Name, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// formatValue renders a normalized value so a later import round-trips it.
// Nulls become the empty cell, which is unambiguous because empty strings
// only occur in text columns that an import coerces back verbatim.
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// UpdateTable rewrites a single table's CSV in an existing dataset and
// patches its manifest entry, leaving every other table untouched.
func UpdateTable(dir string, table *types.TableSchema, generated types.GeneratedTable) error {
	manifest, err := ReadManifest(dir)
	if err != nil {
		return err
	}

	if err := writeTableCSV(dir, table, generated.Rows); err != nil {
		return err
	}

	updated := false
	for i := range manifest.Tables {
		if manifest.Tables[i].Name == table.Name {
			manifest.Tables[i].Rows = len(generated.Rows)
			manifest.Tables[i].Status = string(generated.Status)
			manifest.Tables[i].Shortfall = generated.Shortfall
			updated = true
		}
	}
	if !updated {
		return fmt.Errorf("table %s not present in manifest", table.Name)
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestName), data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &manifest, nil
}
