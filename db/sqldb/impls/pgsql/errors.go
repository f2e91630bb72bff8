package pgsql

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Graphxsys/PyBase/db/sqldb"
)

// Classify maps pgx errors to an ErrorKind, by SQLSTATE where the server sent one
func Classify(err error) sqldb.ErrorKind {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyCode(pgErr.Code)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return sqldb.ErrorKindConnection
	}
	return sqldb.ErrorKindUnknown
}

func classifyCode(code string) sqldb.ErrorKind {
	switch code {
	case "42601":
		return sqldb.ErrorKindSyntax
	case "42501":
		return sqldb.ErrorKindPermission
	case "42P01", "42703", "42P07", "3D000":
		return sqldb.ErrorKindSchema
	case "40P01", "40001", "55P03":
		return sqldb.ErrorKindLock
	case "57014": // query_canceled, statement_timeout included
		return sqldb.ErrorKindTimeout
	}
	switch {
	case strings.HasPrefix(code, "23"):
		return sqldb.ErrorKindConstraint
	case strings.HasPrefix(code, "28"):
		return sqldb.ErrorKindAuth
	case strings.HasPrefix(code, "08"):
		return sqldb.ErrorKindConnection
	}
	return sqldb.ErrorKindUnknown
}
