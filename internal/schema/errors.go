package schema

import "fmt"

type ParseErrorKind string

const (
	ErrMalformed           ParseErrorKind = "malformed"
	ErrUnresolvedReference ParseErrorKind = "unresolved-reference"
	ErrArityMismatch       ParseErrorKind = "arity-mismatch"
)

// ParseError is fatal: when Parse returns one, no tables are usable and
// generation must not be attempted.
type ParseError struct {
	Kind      ParseErrorKind
	Statement int // 1-based statement index, set for Malformed
	Table     string
	Detail    string
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case ErrMalformed:
		return fmt.Sprintf("malformed table definition in statement %d: %s", e.Statement, e.Detail)
	case ErrUnresolvedReference:
		return fmt.Sprintf("table %s references unknown table: %s", e.Table, e.Detail)
	case ErrArityMismatch:
		return fmt.Sprintf("foreign key arity mismatch on table %s: %s", e.Table, e.Detail)
	default:
		return e.Detail
	}
}
