package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/fabrikdata/fabrik/internal/types"
)

// ColumnContract is the per-column value contract sent to the row service:
// the declared type plus the bounds the generated value must respect.
type ColumnContract struct {
	Name       string           `json:"name"`
	Type       types.ColumnType `json:"type"`
	Nullable   bool             `json:"nullable"`
	Unique     bool             `json:"unique"`
	PrimaryKey bool             `json:"primary_key"`
	MinInt     int64            `json:"min_int,omitempty"`
	MaxInt     int64            `json:"max_int,omitempty"`
	MinNumber  float64          `json:"min_number,omitempty"`
	MaxNumber  float64          `json:"max_number,omitempty"`
	MaxLength  int              `json:"max_length,omitempty"`
	Values     []string         `json:"values,omitempty"`
	MinTime    time.Time        `json:"min_time,omitempty"`
	MaxTime    time.Time        `json:"max_time,omitempty"`
}

// FKSample carries a bounded sample of currently valid parent tuples for
// one foreign key of the requested table.
type FKSample struct {
	Columns   []string        `json:"columns"`
	RefTable  string          `json:"ref_table"`
	Tuples    [][]interface{} `json:"tuples"`
	AllowNull bool            `json:"allow_null"`
}

// KeyUsage tells the service which key tuples are already taken for the
// table being generated, so later batches can avoid collisions.
type KeyUsage struct {
	Columns []string        `json:"columns"`
	Tuples  [][]interface{} `json:"tuples"`
}

type Request struct {
	Table        string           `json:"table"`
	Columns      []ColumnContract `json:"columns"`
	ForeignKeys  []FKSample       `json:"foreign_keys,omitempty"`
	UsedKeys     []KeyUsage       `json:"used_keys,omitempty"`
	Instructions string           `json:"instructions,omitempty"`
	Count        int              `json:"count"`
}

// RowService is the external generation collaborator. Implementations make
// no correctness guarantees: every returned row goes through validation.
type RowService interface {
	RequestRows(ctx context.Context, req Request) ([]types.Row, error)
}

type ServiceErrorKind string

const (
	ServiceTimeout           ServiceErrorKind = "timeout"
	ServiceQuotaExceeded     ServiceErrorKind = "quota-exceeded"
	ServiceMalformedResponse ServiceErrorKind = "malformed-response"
)

type ServiceError struct {
	Kind ServiceErrorKind
	Err  error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("row service %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("row service %s", e.Kind)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ConstraintExhaustion marks a table that cannot be generated at all: a
// required foreign key has no populated parent values.
type ConstraintExhaustion struct {
	Table  string
	Reason string
}

func (e *ConstraintExhaustion) Error() string {
	return fmt.Sprintf("cannot generate %s: %s", e.Table, e.Reason)
}
