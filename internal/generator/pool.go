package generator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ValuePool records key tuples already generated for each (table, column
// tuple), so foreign keys of later tables can be constrained to known
// parent values. A pool is owned by exactly one generation run; refinement
// runs work on a Clone and never touch the original.
type ValuePool struct {
	entries map[string]*poolEntry
}

type poolEntry struct {
	seen   map[string]struct{}
	tuples [][]interface{}
}

func NewValuePool() *ValuePool {
	return &ValuePool{entries: make(map[string]*poolEntry)}
}

// Entries are keyed and stored with their columns in sorted name order, so
// a reference list that names the same columns in a different order still
// hits the same entry.
func poolKey(table string, columns []string) string {
	return table + "(" + strings.Join(canonicalColumns(columns), ",") + ")"
}

// canonicalIndex maps each canonical (sorted-name) position to the index of
// that column in the caller's order.
func canonicalIndex(columns []string) []int {
	idx := make([]int, len(columns))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return columns[idx[a]] < columns[idx[b]] })
	return idx
}

func canonicalColumns(columns []string) []string {
	out := make([]string, len(columns))
	for i, j := range canonicalIndex(columns) {
		out[i] = columns[j]
	}
	return out
}

func toCanonical(tuple []interface{}, idx []int) []interface{} {
	out := make([]interface{}, len(tuple))
	for i, j := range idx {
		out[i] = tuple[j]
	}
	return out
}

func fromCanonical(tuple []interface{}, idx []int) []interface{} {
	out := make([]interface{}, len(tuple))
	for i, j := range idx {
		out[j] = tuple[i]
	}
	return out
}

func (p *ValuePool) Register(table string, columns []string, tuple []interface{}) {
	key := poolKey(table, columns)
	entry, ok := p.entries[key]
	if !ok {
		entry = &poolEntry{seen: make(map[string]struct{})}
		p.entries[key] = entry
	}

	canonical := toCanonical(tuple, canonicalIndex(columns))
	fp := fingerprint(canonical)
	if _, dup := entry.seen[fp]; dup {
		return
	}
	entry.seen[fp] = struct{}{}
	entry.tuples = append(entry.tuples, canonical)
}

func (p *ValuePool) Contains(table string, columns []string, tuple []interface{}) bool {
	entry, ok := p.entries[poolKey(table, columns)]
	if !ok {
		return false
	}
	_, found := entry.seen[fingerprint(toCanonical(tuple, canonicalIndex(columns)))]
	return found
}

func (p *ValuePool) Size(table string, columns []string) int {
	entry, ok := p.entries[poolKey(table, columns)]
	if !ok {
		return 0
	}
	return len(entry.tuples)
}

// Sample returns up to limit tuples in registration order, with values
// arranged to match the caller's column order.
func (p *ValuePool) Sample(table string, columns []string, limit int) [][]interface{} {
	entry, ok := p.entries[poolKey(table, columns)]
	if !ok {
		return nil
	}
	if limit <= 0 || limit > len(entry.tuples) {
		limit = len(entry.tuples)
	}
	idx := canonicalIndex(columns)
	out := make([][]interface{}, limit)
	for i := range out {
		out[i] = fromCanonical(entry.tuples[i], idx)
	}
	return out
}

func (p *ValuePool) Clone() *ValuePool {
	clone := NewValuePool()
	for key, entry := range p.entries {
		copied := &poolEntry{
			seen:   make(map[string]struct{}, len(entry.seen)),
			tuples: make([][]interface{}, len(entry.tuples)),
		}
		for fp := range entry.seen {
			copied.seen[fp] = struct{}{}
		}
		copy(copied.tuples, entry.tuples)
		clone.entries[key] = copied
	}
	return clone
}

// Keys lists pool entries in sorted order, for diagnostics.
func (p *ValuePool) Keys() []string {
	keys := make([]string, 0, len(p.entries))
	for k := range p.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// fingerprint builds a canonical string form of a normalized value tuple.
// Values must already be coerced (int64, float64, string, bool, time.Time
// or nil) so equal values always collide.
func fingerprint(tuple []interface{}) string {
	parts := make([]string, len(tuple))
	for i, v := range tuple {
		parts[i] = fingerprintValue(v)
	}
	return strings.Join(parts, "\x1f")
}

func fingerprintValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "\x00"
	case int64:
		return "i:" + strconv.FormatInt(val, 10)
	case float64:
		return "f:" + strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return "b:" + strconv.FormatBool(val)
	case string:
		return "s:" + val
	case time.Time:
		return "t:" + val.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprintf("x:%v", val)
	}
}
