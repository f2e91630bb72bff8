package sqldb

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type driverErr struct{ code int }

func (e *driverErr) Error() string { return fmt.Sprintf("driver error %d", e.code) }

func TestOutcome(t *testing.T) {
	failure := NewFailure(errors.New("boom"), nil)

	tests := map[string]struct {
		out          Outcome
		wantKind     string
		wantResult   bool
		wantErr      bool
		wantRowCount int
	}{
		"rows": {
			out:          RowsOutcome([]string{"Result"}, [][]any{{"Test"}}),
			wantKind:     "rows",
			wantResult:   true,
			wantRowCount: 1,
		},
		"empty result set": {
			out:        RowsOutcome([]string{"Result"}, nil),
			wantKind:   "rows",
			wantResult: true,
		},
		"no result": {
			out:      NoResultOutcome(),
			wantKind: "no result",
		},
		"failure": {
			out:      FailureOutcome(failure),
			wantKind: "failure",
			wantErr:  true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.wantKind, test.out.Kind.String())
			assert.Equal(t, test.wantResult, test.out.HasResultSet())
			assert.Equal(t, test.wantRowCount, test.out.RowCount())
			if test.wantErr {
				assert.Error(t, test.out.Err())
			} else {
				assert.NoError(t, test.out.Err())
			}
		})
	}

	assert.NotNil(t, RowsOutcome(nil, nil).Rows, "empty result set must differ from no result")
}

func TestNewFailure(t *testing.T) {
	root := &driverErr{code: 42}
	wrapped := fmt.Errorf("query: %w", root)

	tests := map[string]struct {
		err      error
		classify ClassifyFunc
		wantKind ErrorKind
		wantType string
	}{
		"backend classification wins": {
			err:      wrapped,
			classify: func(error) ErrorKind { return ErrorKindSyntax },
			wantKind: ErrorKindSyntax,
			wantType: "*sqldb.driverErr",
		},
		"falls back to common": {
			err:      fmt.Errorf("dial: %w", context.DeadlineExceeded),
			classify: func(error) ErrorKind { return ErrorKindUnknown },
			wantKind: ErrorKindTimeout,
			wantType: "context.deadlineExceededError",
		},
		"network error": {
			err:      &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
			wantKind: ErrorKindConnection,
			wantType: "*errors.errorString",
		},
		"missing conf": {
			err:      &MissingConfError{Fields: []string{"host"}},
			wantKind: ErrorKindConfig,
			wantType: "*sqldb.MissingConfError",
		},
		"unknown": {
			err:      errors.New("boom"),
			wantKind: ErrorKindUnknown,
			wantType: "*errors.errorString",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			f := NewFailure(test.err, test.classify)

			assert.Equal(t, test.wantKind, f.Kind)
			assert.Equal(t, test.wantType, f.Type)
			assert.Equal(t, test.err.Error(), f.Message)
			assert.Equal(t, test.wantType+" - "+test.err.Error(), f.Error())
			assert.ErrorIs(t, f, test.err)
		})
	}
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "syntax", ErrorKindSyntax.String())
	assert.Equal(t, "unknown", ErrorKind(200).String())
}

func TestRegistry(t *testing.T) {
	RegisterFactory("fake", func(conf *Conf) (Client, error) {
		return nil, errors.New("not buildable")
	})

	_, err := New("fake", &Conf{})
	assert.EqualError(t, err, "not buildable")

	_, err = New("nope", &Conf{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")

	assert.Contains(t, Registered(), "fake")
}
