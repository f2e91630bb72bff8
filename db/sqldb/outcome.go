package sqldb

import "time"

type OutcomeKind uint8

const (
	// NoResult - the statement ran and produced no tabular result (INSERT, UPDATE, DELETE, DDL)
	NoResult OutcomeKind = iota
	// RowsResult - the statement produced a result set, possibly with zero rows
	RowsResult
	// FailureResult - the statement could not be run. See Outcome.Failure
	FailureResult
)

func (k OutcomeKind) String() string {
	switch k {
	case NoResult:
		return "no result"
	case RowsResult:
		return "rows"
	case FailureResult:
		return "failure"
	default:
		return "unknown"
	}
}

// Outcome is the result of Client.Execute.
// Exactly one of {Columns+Rows, Failure} is meaningful, selected by Kind.
type Outcome struct {
	Kind     OutcomeKind
	Columns  []string
	Rows     [][]any // each row in column order
	Failure  *Failure
	Duration time.Duration // connect through close
}

func RowsOutcome(columns []string, rows [][]any) Outcome {
	if rows == nil {
		rows = [][]any{}
	}
	return Outcome{Kind: RowsResult, Columns: columns, Rows: rows}
}

func NoResultOutcome() Outcome {
	return Outcome{Kind: NoResult}
}

func FailureOutcome(f *Failure) Outcome {
	return Outcome{Kind: FailureResult, Failure: f}
}

// Err returns the Failure as an error, or nil
func (o Outcome) Err() error {
	if o.Kind != FailureResult || o.Failure == nil {
		return nil
	}
	return o.Failure
}

func (o Outcome) HasResultSet() bool {
	return o.Kind == RowsResult
}

func (o Outcome) RowCount() int {
	return len(o.Rows)
}
