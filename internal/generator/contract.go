package generator

import (
	"math"
	"time"

	"github.com/fabrikdata/fabrik/internal/types"
)

// Default value bounds for the projected contracts. The service may be
// sloppier than this; validation is what actually enforces correctness.
const (
	defaultIntMin     = 1
	defaultIntMax     = 1000000
	defaultNumberMin  = 0
	defaultNumberMax  = 10000
	defaultTimeWindow = 365 * 24 * time.Hour
)

// projectColumns derives the per-column value contracts for a table.
func projectColumns(table *types.TableSchema) []ColumnContract {
	now := time.Now().UTC().Truncate(time.Second)
	contracts := make([]ColumnContract, 0, len(table.Columns))

	for _, col := range table.Columns {
		c := ColumnContract{
			Name:       col.Name,
			Type:       col.Type,
			Nullable:   col.Nullable,
			Unique:     col.IsUnique,
			PrimaryKey: table.IsPrimary(col.Name),
		}

		switch col.Type.Base {
		case types.TypeInteger:
			c.MinInt, c.MaxInt = defaultIntMin, defaultIntMax
		case types.TypeDecimal:
			c.MinNumber, c.MaxNumber = defaultNumberMin, defaultNumberMax
			if col.Type.Precision > 0 {
				digits := col.Type.Precision - col.Type.Scale
				if digits > 0 && digits < 15 {
					c.MaxNumber = math.Pow10(digits) - 1
				}
			}
		case types.TypeVarchar:
			c.MaxLength = col.Type.Length
		case types.TypeEnum:
			c.Values = col.Type.Values
		case types.TypeDate, types.TypeTimestamp:
			c.MinTime = now.Add(-defaultTimeWindow)
			c.MaxTime = now
		}

		contracts = append(contracts, c)
	}
	return contracts
}

// projectForeignKeys attaches bounded parent samples from the pool to each
// foreign key. selfKeys supplies candidates for self references, which grow
// as the table's own rows are accepted. The error is a ConstraintExhaustion
// when a required foreign key has no parent values at all.
func projectForeignKeys(table *types.TableSchema, plan types.GenerationPlan, pool, selfKeys *ValuePool, limit int) ([]FKSample, error) {
	samples := make([]FKSample, 0, len(table.ForeignKeys))

	for _, fk := range table.ForeignKeys {
		sample := FKSample{
			Columns:  fk.Columns,
			RefTable: fk.RefTable,
		}

		source := pool
		if fk.RefTable == table.Name {
			source = selfKeys
		}
		sample.Tuples = source.Sample(fk.RefTable, fk.RefColumns, limit)

		_, relaxed := plan.Relaxed(table.Name, fk)
		switch {
		case relaxed:
			// Cycle-broken edge: null (or, when forced, anything) is fine.
			sample.AllowNull = true
		case allNullable(table, fk.Columns):
			sample.AllowNull = true
		case source.Size(fk.RefTable, fk.RefColumns) == 0:
			return nil, &ConstraintExhaustion{Table: table.Name, Reason: "empty-parent-pool"}
		}

		samples = append(samples, sample)
	}
	return samples, nil
}
