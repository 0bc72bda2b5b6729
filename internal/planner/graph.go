package planner

import (
	"sort"
	"strings"

	"github.com/fabrikdata/fabrik/internal/types"
)

type edge struct {
	child    string
	parent   string
	columns  []string
	nullable bool // every local column is nullable
	relaxed  bool
}

// Resolve orders tables so every parent is generated before its children.
// Kahn-style elimination with a lexicographic tie-break keeps the plan
// stable across runs. Cycles are never fatal: a blocking edge is relaxed
// and reported as a CycleBroken warning instead, preferring edges whose
// local columns are all nullable. The plan always contains every table.
func Resolve(tables []types.TableSchema) types.GenerationPlan {
	known := make(map[string]*types.TableSchema, len(tables))
	names := make([]string, 0, len(tables))
	for i := range tables {
		known[tables[i].Name] = &tables[i]
		names = append(names, tables[i].Name)
	}
	sort.Strings(names)

	var edges []*edge
	for _, name := range names {
		table := known[name]
		for _, fk := range table.ForeignKeys {
			if _, ok := known[fk.RefTable]; !ok {
				continue
			}
			edges = append(edges, &edge{
				child:    table.Name,
				parent:   fk.RefTable,
				columns:  fk.Columns,
				nullable: allNullable(table, fk.Columns),
			})
		}
	}

	plan := types.GenerationPlan{Order: make([]string, 0, len(names))}
	emitted := make(map[string]bool, len(names))

	blocked := func(name string) bool {
		for _, e := range edges {
			if e.child == name && !e.relaxed && !emitted[e.parent] {
				return true
			}
		}
		return false
	}

	for len(plan.Order) < len(names) {
		next := ""
		for _, name := range names {
			if !emitted[name] && !blocked(name) {
				next = name
				break
			}
		}

		if next != "" {
			emitted[next] = true
			plan.Order = append(plan.Order, next)
			continue
		}

		// No eligible table: the remaining graph has a cycle. Relax one
		// outstanding edge and warn.
		broken := selectBreakEdge(edges, emitted)
		broken.relaxed = true

		reason := "forced"
		if broken.nullable {
			reason = "nullable-fk"
		}
		plan.Warnings = append(plan.Warnings, types.CycleBroken{
			ChildTable:  broken.child,
			ParentTable: broken.parent,
			Columns:     broken.columns,
			Reason:      reason,
		})
	}

	return plan
}

// selectBreakEdge picks the edge to relax: only edges lying on a cycle,
// all-nullable edges first, then fewest local columns, then smallest child
// name. The remaining fields only break exact ties so the choice stays
// deterministic.
func selectBreakEdge(edges []*edge, emitted map[string]bool) *edge {
	var outstanding []*edge
	for _, e := range edges {
		if !e.relaxed && !emitted[e.child] && !emitted[e.parent] {
			outstanding = append(outstanding, e)
		}
	}

	// An edge child->parent sits on a cycle only if the parent can reach
	// the child back through outstanding edges. Edges that merely hang off
	// a cycle must stay intact.
	adjacent := make(map[string][]string)
	for _, e := range outstanding {
		adjacent[e.child] = append(adjacent[e.child], e.parent)
	}
	reaches := func(from, to string) bool {
		seen := make(map[string]bool)
		stack := []string{from}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if n == to {
				return true
			}
			if seen[n] {
				continue
			}
			seen[n] = true
			stack = append(stack, adjacent[n]...)
		}
		return false
	}

	var candidates []*edge
	for _, e := range outstanding {
		if reaches(e.parent, e.child) {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		candidates = outstanding
	}

	var nullableOnly []*edge
	for _, e := range candidates {
		if e.nullable {
			nullableOnly = append(nullableOnly, e)
		}
	}
	if len(nullableOnly) > 0 {
		candidates = nullableOnly
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if len(a.columns) != len(b.columns) {
			return len(a.columns) < len(b.columns)
		}
		if a.child != b.child {
			return a.child < b.child
		}
		if a.parent != b.parent {
			return a.parent < b.parent
		}
		return strings.Join(a.columns, ",") < strings.Join(b.columns, ",")
	})
	return candidates[0]
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
