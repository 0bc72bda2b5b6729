package types

import (
	"fmt"
	"strings"
)

type BaseType string

const (
	TypeInteger   BaseType = "INTEGER"
	TypeDecimal   BaseType = "DECIMAL"
	TypeVarchar   BaseType = "VARCHAR"
	TypeText      BaseType = "TEXT"
	TypeDate      BaseType = "DATE"
	TypeTimestamp BaseType = "TIMESTAMP"
	TypeBoolean   BaseType = "BOOLEAN"
	TypeEnum      BaseType = "ENUM"
)

// ColumnType is the normalized form of a raw SQL type. Precision/Scale are
// only meaningful for DECIMAL, Length for VARCHAR, Values for ENUM.
type ColumnType struct {
	Base      BaseType `json:"base"`
	Precision int      `json:"precision,omitempty"`
	Scale     int      `json:"scale,omitempty"`
	Length    int      `json:"length,omitempty"`
	Values    []string `json:"values,omitempty"`
}

func (t ColumnType) String() string {
	switch t.Base {
	case TypeDecimal:
		if t.Precision > 0 {
			return fmt.Sprintf("DECIMAL(%d,%d)", t.Precision, t.Scale)
		}
		return "DECIMAL"
	case TypeVarchar:
		if t.Length > 0 {
			return fmt.Sprintf("VARCHAR(%d)", t.Length)
		}
		return "VARCHAR"
	case TypeEnum:
		quoted := make([]string, len(t.Values))
		for i, v := range t.Values {
			quoted[i] = "'" + v + "'"
		}
		return "ENUM(" + strings.Join(quoted, ",") + ")"
	default:
		return string(t.Base)
	}
}

type ColumnDef struct {
	Name     string     `json:"name"`
	Type     ColumnType `json:"type"`
	Nullable bool       `json:"nullable"`
	IsUnique bool       `json:"is_unique"`
	Default  string     `json:"default,omitempty"`
}

type ForeignKey struct {
	Columns    []string `json:"columns"`
	RefTable   string   `json:"ref_table"`
	RefColumns []string `json:"ref_columns"`
}

// Key identifies the FK edge within its table (local column tuple).
func (fk ForeignKey) Key() string {
	return strings.Join(fk.Columns, ",")
}

type TableSchema struct {
	Name        string       `json:"name"`
	Columns     []ColumnDef  `json:"columns"`
	PrimaryKey  []string     `json:"primary_key"`
	ForeignKeys []ForeignKey `json:"foreign_keys"`
}

func (t *TableSchema) Column(name string) *ColumnDef {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

func (t *TableSchema) IsPrimary(name string) bool {
	for _, pk := range t.PrimaryKey {
		if pk == name {
			return true
		}
	}
	return false
}

// CycleBroken records a FK edge dropped from the ordering constraints to
// break a dependency cycle. Reason is "nullable-fk" when every local column
// of the edge is nullable, "forced" otherwise.
type CycleBroken struct {
	ChildTable  string   `json:"child_table"`
	ParentTable string   `json:"parent_table"`
	Columns     []string `json:"columns"`
	Reason      string   `json:"reason"`
}

func (w CycleBroken) String() string {
	return fmt.Sprintf("%s -> %s via (%s): %s",
		w.ChildTable, w.ParentTable, strings.Join(w.Columns, ","), w.Reason)
}

type GenerationPlan struct {
	Order    []string      `json:"order"`
	Warnings []CycleBroken `json:"warnings,omitempty"`
}

// Relaxed reports the cycle-break reason for the given FK edge, if any.
func (p GenerationPlan) Relaxed(childTable string, fk ForeignKey) (string, bool) {
	for _, w := range p.Warnings {
		if w.ChildTable == childTable && w.ParentTable == fk.RefTable &&
			strings.Join(w.Columns, ",") == fk.Key() {
			return w.Reason, true
		}
	}
	return "", false
}

type Row map[string]interface{}

type TableStatus string

const (
	StatusComplete TableStatus = "complete"
	StatusPartial  TableStatus = "partial"
)

type GeneratedTable struct {
	Name      string      `json:"name"`
	Rows      []Row       `json:"rows"`
	Status    TableStatus `json:"status"`
	Shortfall string      `json:"shortfall,omitempty"`
}
