package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fabrikdata/fabrik/internal/types"
)

// Phase is the per-table generation state. Transitions are
// Pending -> Requesting -> Validating -> {Requesting | Complete | Partial}.
type Phase string

const (
	PhasePending    Phase = "pending"
	PhaseRequesting Phase = "requesting"
	PhaseValidating Phase = "validating"
	PhaseComplete   Phase = "complete"
	PhasePartial    Phase = "partial"
)

type Config struct {
	// BatchSize rows per service call, independent of table size.
	BatchSize int
	// FKSampleLimit caps how many parent tuples are attached per foreign key.
	FKSampleLimit int
	// MaxAttempts per batch call, including the first.
	MaxAttempts int
	// BackoffBase doubles on every retry.
	BackoffBase time.Duration
	// ReplacementFactor bounds single-row replacements per table at
	// ReplacementFactor * target rows.
	ReplacementFactor int
	// Trace observes per-table phase transitions. Optional.
	Trace func(table string, phase Phase)
}

func DefaultConfig() Config {
	return Config{
		BatchSize:         20,
		FKSampleLimit:     50,
		MaxAttempts:       3,
		BackoffBase:       200 * time.Millisecond,
		ReplacementFactor: 1,
	}
}

type Orchestrator struct {
	svc RowService
	cfg Config
}

func New(svc RowService, cfg Config) *Orchestrator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.FKSampleLimit <= 0 {
		cfg.FKSampleLimit = DefaultConfig().FKSampleLimit
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultConfig().BackoffBase
	}
	if cfg.ReplacementFactor < 0 {
		cfg.ReplacementFactor = 0
	}
	return &Orchestrator{svc: svc, cfg: cfg}
}

type RunRequest struct {
	Plan         types.GenerationPlan
	Tables       []types.TableSchema
	RowTargets   map[string]int
	DefaultRows  int
	Instructions map[string]string
}

type RunResult struct {
	Tables map[string]types.GeneratedTable
	// Snapshots holds the pool state captured immediately before each table
	// was generated: exactly the prior pool a later Refine call needs.
	Snapshots map[string]*ValuePool
	Pool      *ValuePool
}

// Generate produces validated rows for every table in plan order. It never
// aborts after a table fails: the worst outcome is a set of Partial tables.
// On cancellation the rows accepted so far are returned along with ctx's
// error; cancellation is only honored between batches.
func (o *Orchestrator) Generate(ctx context.Context, req RunRequest) (*RunResult, error) {
	schemas := make(map[string]*types.TableSchema, len(req.Tables))
	for i := range req.Tables {
		schemas[req.Tables[i].Name] = &req.Tables[i]
	}

	result := &RunResult{
		Tables:    make(map[string]types.GeneratedTable, len(req.Plan.Order)),
		Snapshots: make(map[string]*ValuePool, len(req.Plan.Order)),
		Pool:      NewValuePool(),
	}

	for _, name := range req.Plan.Order {
		table, ok := schemas[name]
		if !ok {
			return result, fmt.Errorf("plan names unknown table %s", name)
		}

		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.Snapshots[name] = result.Pool.Clone()

		target := req.DefaultRows
		if t, ok := req.RowTargets[name]; ok {
			target = t
		}

		generated := o.generateTable(ctx, table, req.Plan, result.Pool, target, req.Instructions[name])
		result.Tables[name] = generated
		registerTable(result.Pool, table, generated.Rows)
	}

	return result, nil
}

type RefineRequest struct {
	Table        string
	Plan         types.GenerationPlan
	Tables       []types.TableSchema
	Rows         int
	Instructions string
	// PriorPool is the pool state as it stood immediately before the table
	// was originally generated (ancestor tables only). It is cloned, never
	// mutated.
	PriorPool *ValuePool
}

// Refine regenerates a single table against a prior run's pool snapshot.
// Tables that depend on the refined table are deliberately NOT regenerated;
// cascading is the caller's responsibility.
func (o *Orchestrator) Refine(ctx context.Context, req RefineRequest) (types.GeneratedTable, error) {
	var table *types.TableSchema
	for i := range req.Tables {
		if req.Tables[i].Name == req.Table {
			table = &req.Tables[i]
			break
		}
	}
	if table == nil {
		return types.GeneratedTable{}, fmt.Errorf("table %s not found in schema", req.Table)
	}

	pool := NewValuePool()
	if req.PriorPool != nil {
		pool = req.PriorPool.Clone()
	}

	return o.generateTable(ctx, table, req.Plan, pool, req.Rows, req.Instructions), nil
}

func (o *Orchestrator) generateTable(ctx context.Context, table *types.TableSchema, plan types.GenerationPlan, pool *ValuePool, target int, instructions string) types.GeneratedTable {
	o.trace(table.Name, PhasePending)

	out := types.GeneratedTable{Name: table.Name}
	validator := newRowValidator(table, plan, pool)
	columns := projectColumns(table)
	budget := o.cfg.ReplacementFactor * target

	finalize := func(shortfall string) types.GeneratedTable {
		out.Rows = validator.accepted()
		if len(out.Rows) == target && shortfall == "" {
			out.Status = types.StatusComplete
			o.trace(table.Name, PhaseComplete)
		} else {
			out.Status = types.StatusPartial
			out.Shortfall = shortfall
			if shortfall == "" {
				out.Shortfall = "validation shortfall: replacement budget exhausted"
			}
			o.trace(table.Name, PhasePartial)
		}
		return out
	}

	for validator.count() < target {
		if err := ctx.Err(); err != nil {
			return finalize("canceled: " + err.Error())
		}

		// Contract projection happens per batch so the FK context reflects
		// everything accepted so far, including self-reference keys.
		fks, err := projectForeignKeys(table, plan, pool, validator.selfKeys, o.cfg.FKSampleLimit)
		if err != nil {
			var exhaustion *ConstraintExhaustion
			if errors.As(err, &exhaustion) {
				return finalize(exhaustion.Reason)
			}
			return finalize(err.Error())
		}

		n := target - validator.count()
		if n > o.cfg.BatchSize {
			n = o.cfg.BatchSize
		}

		req := Request{
			Table:        table.Name,
			Columns:      columns,
			ForeignKeys:  fks,
			UsedKeys:     validator.usedKeys(o.cfg.FKSampleLimit),
			Instructions: instructions,
			Count:        n,
		}

		o.trace(table.Name, PhaseRequesting)
		rows, err := o.callWithRetry(ctx, req)
		if err != nil {
			return finalize(err.Error())
		}
		o.trace(table.Name, PhaseValidating)

		if len(rows) > n {
			rows = rows[:n]
		}

		progressed := false
		for _, raw := range rows {
			if validator.count() >= target {
				break
			}
			if _, viol := validator.tryAccept(raw); viol == nil {
				progressed = true
				continue
			}
			// One single-row replacement per dropped row, while budget lasts.
			// A dropped replacement counts as a dropped row of its own.
			if o.replaceRow(ctx, req, validator, &budget) {
				progressed = true
			}
		}

		if !progressed {
			return finalize("")
		}
	}

	return finalize("")
}

// replaceRow requests single-row replacements until one validates or the
// budget runs out. Service errors here consume the attempt but are not
// retried; the batch loop handles systemic failures.
func (o *Orchestrator) replaceRow(ctx context.Context, req Request, validator *rowValidator, budget *int) bool {
	for *budget > 0 {
		*budget--
		single := req
		single.Count = 1
		single.ForeignKeys, _ = projectForeignKeys(validator.table, validator.plan, validator.pool, validator.selfKeys, o.cfg.FKSampleLimit)
		single.UsedKeys = validator.usedKeys(o.cfg.FKSampleLimit)

		rows, err := o.svc.RequestRows(ctx, single)
		if err != nil || len(rows) == 0 {
			return false
		}
		if _, viol := validator.tryAccept(rows[0]); viol == nil {
			return true
		}
	}
	return false
}

func (o *Orchestrator) callWithRetry(ctx context.Context, req Request) ([]types.Row, error) {
	var lastErr error
	for attempt := 0; attempt < o.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := o.cfg.BackoffBase << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, lastErr
			}
		}

		rows, err := o.svc.RequestRows(ctx, req)
		if err == nil {
			return rows, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// registerTable publishes a finished table's key tuples so later tables in
// plan order can reference them.
func registerTable(pool *ValuePool, table *types.TableSchema, rows []types.Row) {
	for _, row := range rows {
		if len(table.PrimaryKey) > 0 {
			pool.Register(table.Name, table.PrimaryKey, tupleOf(row, table.PrimaryKey))
		}
		for _, col := range table.Columns {
			if col.IsUnique && row[col.Name] != nil {
				pool.Register(table.Name, []string{col.Name}, []interface{}{row[col.Name]})
			}
		}
	}
}

func (o *Orchestrator) trace(table string, phase Phase) {
	if o.cfg.Trace != nil {
		o.cfg.Trace(table, phase)
	}
}
