package mssql

import (
	"errors"
	"strings"

	"github.com/Graphxsys/PyBase/db/sqldb"
	mssqldb "github.com/microsoft/go-mssqldb"
)

// errorKinds maps SQL Server error numbers
var errorKinds = map[int32]sqldb.ErrorKind{
	102:   sqldb.ErrorKindSyntax, // Incorrect syntax near
	105:   sqldb.ErrorKindSyntax, // Unclosed quotation mark
	156:   sqldb.ErrorKindSyntax, // Incorrect syntax near the keyword
	170:   sqldb.ErrorKindSyntax,
	319:   sqldb.ErrorKindSyntax,
	207:   sqldb.ErrorKindSchema, // Invalid column name
	208:   sqldb.ErrorKindSchema, // Invalid object name
	2714:  sqldb.ErrorKindSchema, // There is already an object named
	4104:  sqldb.ErrorKindSchema, // The multi-part identifier could not be bound
	515:   sqldb.ErrorKindConstraint, // Cannot insert NULL
	547:   sqldb.ErrorKindConstraint, // FOREIGN KEY / CHECK conflict
	2601:  sqldb.ErrorKindConstraint, // duplicate key row (unique index)
	2627:  sqldb.ErrorKindConstraint, // Violation of PRIMARY KEY / UNIQUE constraint
	8152:  sqldb.ErrorKindConstraint, // String or binary data would be truncated
	4060:  sqldb.ErrorKindAuth,       // Cannot open database requested by the login
	18452: sqldb.ErrorKindAuth,
	18456: sqldb.ErrorKindAuth, // Login failed for user
	229:   sqldb.ErrorKindPermission,
	230:   sqldb.ErrorKindPermission,
	262:   sqldb.ErrorKindPermission,
	297:   sqldb.ErrorKindPermission,
	300:   sqldb.ErrorKindPermission,
	1205:  sqldb.ErrorKindLock, // deadlock victim
	1222:  sqldb.ErrorKindLock, // Lock request time out period exceeded
}

// Classify maps go-mssqldb errors to an ErrorKind
func Classify(err error) sqldb.ErrorKind {
	if number, ok := errorNumber(err); ok {
		if kind, found := errorKinds[number]; found {
			return kind
		}
		return sqldb.ErrorKindUnknown
	}
	// dial and handshake errors are not wrapped by the driver
	msg := err.Error()
	switch {
	case strings.Contains(msg, "unable to open tcp connection"),
		strings.Contains(msg, "TLS Handshake failed"),
		strings.Contains(msg, "connection reset"):
		return sqldb.ErrorKindConnection
	case strings.Contains(msg, "login error"):
		return sqldb.ErrorKindAuth
	}
	return sqldb.ErrorKindUnknown
}

func errorNumber(err error) (int32, bool) {
	var e mssqldb.Error
	if errors.As(err, &e) {
		return e.Number, true
	}
	var pe *mssqldb.Error
	if errors.As(err, &pe) && pe != nil {
		return pe.Number, true
	}
	return 0, false
}
