package generator

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/fabrikdata/fabrik/internal/types"
)

type ViolationKind string

const (
	ViolationDuplicatePK     ViolationKind = "duplicate-pk"
	ViolationDuplicateUnique ViolationKind = "duplicate-unique"
	ViolationInvalidFK       ViolationKind = "invalid-fk"
	ViolationTypeMismatch    ViolationKind = "type-mismatch"
	ViolationNullNotAllowed  ViolationKind = "null-not-allowed"
)

// ConstraintViolation explains why a generated row was dropped. Violations
// are recovered automatically via single-row replacements and never surface
// to callers except as a Partial table's shortfall.
type ConstraintViolation struct {
	Kind   ViolationKind
	Column string
	Detail string
}

func (v *ConstraintViolation) Error() string {
	if v.Column != "" {
		return fmt.Sprintf("%s on column %s: %s", v.Kind, v.Column, v.Detail)
	}
	return fmt.Sprintf("%s: %s", v.Kind, v.Detail)
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// coerceValue normalizes a raw service value to the canonical Go form for
// its declared type: int64, float64, string, bool or time.Time.
func coerceValue(v interface{}, ct types.ColumnType) (interface{}, error) {
	switch ct.Base {
	case types.TypeInteger:
		return coerceInt(v)
	case types.TypeDecimal:
		return coerceFloat(v)
	case types.TypeBoolean:
		return coerceBool(v)
	case types.TypeDate, types.TypeTimestamp:
		return coerceTime(v)
	case types.TypeEnum:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected enum string, got %T", v)
		}
		for _, allowed := range ct.Values {
			if s == allowed {
				return s, nil
			}
		}
		return nil, fmt.Errorf("%q is not an enum member", s)
	case types.TypeVarchar:
		s, err := coerceString(v)
		if err != nil {
			return nil, err
		}
		if ct.Length > 0 {
			// Truncate by rune so a multi-byte character is never split.
			if runes := []rune(s); len(runes) > ct.Length {
				s = string(runes[:ct.Length])
			}
		}
		return s, nil
	default: // TEXT
		return coerceString(v)
	}
}

func coerceInt(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	case float64:
		if val != math.Trunc(val) {
			return nil, fmt.Errorf("%v is not an integer", val)
		}
		return int64(val), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", val)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("expected integer, got %T", v)
	}
}

func coerceFloat(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case float64:
		return val, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not numeric", val)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("expected number, got %T", v)
	}
}

func coerceBool(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(val)))
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", val)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("expected boolean, got %T", v)
	}
}

func coerceTime(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case time.Time:
		return val, nil
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(val)); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("%q is not a date/timestamp", val)
	default:
		return nil, fmt.Errorf("expected date/timestamp, got %T", v)
	}
}

func coerceString(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

// rowValidator accumulates per-table state (accepted keys) and checks each
// candidate row against the declared constraints and the parent pool.
type rowValidator struct {
	table      *types.TableSchema
	plan       types.GenerationPlan
	pool       *ValuePool
	pkSeen     map[string]struct{}
	uniqueSeen map[string]map[string]struct{}
	selfKeys   *ValuePool // keys accepted so far for this table, for self references
	forcedNull map[string]bool
	rows       []types.Row
}

func newRowValidator(table *types.TableSchema, plan types.GenerationPlan, pool *ValuePool) *rowValidator {
	// Columns of a forced cycle-broken edge accept null even when declared
	// NOT NULL; no ordering could have satisfied the reference.
	forcedNull := make(map[string]bool)
	for _, fk := range table.ForeignKeys {
		if reason, relaxed := plan.Relaxed(table.Name, fk); relaxed && reason == "forced" {
			for _, name := range fk.Columns {
				forcedNull[name] = true
			}
		}
	}

	return &rowValidator{
		table:      table,
		plan:       plan,
		pool:       pool,
		pkSeen:     make(map[string]struct{}),
		uniqueSeen: make(map[string]map[string]struct{}),
		selfKeys:   NewValuePool(),
		forcedNull: forcedNull,
	}
}

// validate normalizes a raw row and returns the coerced row, or the first
// constraint violation found. Accepted rows must be folded in with accept.
func (rv *rowValidator) validate(raw types.Row) (types.Row, *ConstraintViolation) {
	row := make(types.Row, len(rv.table.Columns))

	for _, col := range rv.table.Columns {
		v, present := raw[col.Name]
		if !present || v == nil {
			if !col.Nullable && !rv.forcedNull[col.Name] {
				return nil, &ConstraintViolation{Kind: ViolationNullNotAllowed, Column: col.Name, Detail: "missing value for NOT NULL column"}
			}
			row[col.Name] = nil
			continue
		}
		coerced, err := coerceValue(v, col.Type)
		if err != nil {
			return nil, &ConstraintViolation{Kind: ViolationTypeMismatch, Column: col.Name, Detail: err.Error()}
		}
		row[col.Name] = coerced
	}

	if len(rv.table.PrimaryKey) > 0 {
		tuple := tupleOf(row, rv.table.PrimaryKey)
		if _, dup := rv.pkSeen[fingerprint(tuple)]; dup {
			return nil, &ConstraintViolation{Kind: ViolationDuplicatePK, Detail: fmt.Sprintf("primary key tuple %v already accepted", tuple)}
		}
	}

	for _, col := range rv.table.Columns {
		if !col.IsUnique || row[col.Name] == nil {
			continue
		}
		fp := fingerprintValue(row[col.Name])
		if _, dup := rv.uniqueSeen[col.Name][fp]; dup {
			return nil, &ConstraintViolation{Kind: ViolationDuplicateUnique, Column: col.Name, Detail: "value already accepted"}
		}
	}

	for _, fk := range rv.table.ForeignKeys {
		if viol := rv.checkForeignKey(row, fk); viol != nil {
			return nil, viol
		}
	}

	return row, nil
}

func (rv *rowValidator) checkForeignKey(row types.Row, fk types.ForeignKey) *ConstraintViolation {
	tuple := tupleOf(row, fk.Columns)

	nulls := 0
	for _, v := range tuple {
		if v == nil {
			nulls++
		}
	}

	reason, relaxed := rv.plan.Relaxed(rv.table.Name, fk)
	if relaxed && reason == "forced" {
		// Ordering could not respect this edge at all; membership is checked
		// later by the storage layer, if ever.
		return nil
	}

	if nulls == len(tuple) {
		if allNullable(rv.table, fk.Columns) {
			return nil
		}
		return &ConstraintViolation{Kind: ViolationNullNotAllowed, Column: fk.Columns[0], Detail: "null foreign key on non-nullable columns"}
	}
	if nulls > 0 {
		// Mixed-nullability composite tuples are referencing-required: a
		// partially null tuple can never match a parent key.
		return &ConstraintViolation{Kind: ViolationInvalidFK, Detail: fmt.Sprintf("partially null foreign key tuple %v", tuple)}
	}

	if fk.RefTable == rv.table.Name {
		if rv.selfKeys.Contains(fk.RefTable, fk.RefColumns, tuple) {
			return nil
		}
		return &ConstraintViolation{Kind: ViolationInvalidFK, Detail: fmt.Sprintf("self reference %v not among accepted rows", tuple)}
	}

	if rv.pool.Contains(fk.RefTable, fk.RefColumns, tuple) {
		return nil
	}
	return &ConstraintViolation{Kind: ViolationInvalidFK, Detail: fmt.Sprintf("tuple %v not found in %s(%s)", tuple, fk.RefTable, strings.Join(fk.RefColumns, ","))}
}

// accept folds a validated row into the per-table key state.
func (rv *rowValidator) accept(row types.Row) {
	if len(rv.table.PrimaryKey) > 0 {
		tuple := tupleOf(row, rv.table.PrimaryKey)
		rv.pkSeen[fingerprint(tuple)] = struct{}{}
		rv.selfKeys.Register(rv.table.Name, rv.table.PrimaryKey, tuple)
	}
	for _, col := range rv.table.Columns {
		if !col.IsUnique || row[col.Name] == nil {
			continue
		}
		if rv.uniqueSeen[col.Name] == nil {
			rv.uniqueSeen[col.Name] = make(map[string]struct{})
		}
		rv.uniqueSeen[col.Name][fingerprintValue(row[col.Name])] = struct{}{}
		rv.selfKeys.Register(rv.table.Name, []string{col.Name}, []interface{}{row[col.Name]})
	}
}

// tryAccept validates a raw row and, on success, records it.
func (rv *rowValidator) tryAccept(raw types.Row) (types.Row, *ConstraintViolation) {
	row, viol := rv.validate(raw)
	if viol != nil {
		return nil, viol
	}
	rv.accept(row)
	rv.rows = append(rv.rows, row)
	return row, nil
}

func (rv *rowValidator) count() int {
	return len(rv.rows)
}

func (rv *rowValidator) accepted() []types.Row {
	return rv.rows
}

// usedKeys reports the primary key tuples accepted so far, so the service
// can steer clear of collisions instead of learning about them from drops.
func (rv *rowValidator) usedKeys(limit int) []KeyUsage {
	if len(rv.table.PrimaryKey) == 0 || len(rv.rows) == 0 {
		return nil
	}
	tuples := rv.selfKeys.Sample(rv.table.Name, rv.table.PrimaryKey, limit)
	if len(tuples) == 0 {
		return nil
	}
	return []KeyUsage{{Columns: rv.table.PrimaryKey, Tuples: tuples}}
}

func tupleOf(row types.Row, columns []string) []interface{} {
	tuple := make([]interface{}, len(columns))
	for i, name := range columns {
		tuple[i] = row[name]
	}
	return tuple
}

func allNullable(table *types.TableSchema, columns []string) bool {
	for _, name := range columns {
		col := table.Column(name)
		if col == nil || !col.Nullable {
			return false
		}
	}
	return true
}
