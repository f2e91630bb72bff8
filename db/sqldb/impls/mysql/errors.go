package mysql

import (
	"errors"

	"github.com/Graphxsys/PyBase/db/sqldb"
	lowimpl "github.com/go-sql-driver/mysql"
)

var errorKinds = map[uint16]sqldb.ErrorKind{
	1064: sqldb.ErrorKindSyntax,
	1045: sqldb.ErrorKindAuth,
	1044: sqldb.ErrorKindPermission,
	1142: sqldb.ErrorKindPermission,
	1227: sqldb.ErrorKindPermission,
	1049: sqldb.ErrorKindSchema, // unknown database
	1054: sqldb.ErrorKindSchema, // unknown column
	1146: sqldb.ErrorKindSchema, // table doesn't exist
	1048: sqldb.ErrorKindConstraint,
	1062: sqldb.ErrorKindConstraint, // duplicate entry
	1451: sqldb.ErrorKindConstraint,
	1452: sqldb.ErrorKindConstraint,
	1205: sqldb.ErrorKindLock,
	1213: sqldb.ErrorKindLock, // deadlock
}

// Classify maps go-sql-driver/mysql errors to an ErrorKind
func Classify(err error) sqldb.ErrorKind {
	var myErr *lowimpl.MySQLError
	if errors.As(err, &myErr) {
		return errorKinds[myErr.Number]
	}
	if errors.Is(err, lowimpl.ErrInvalidConn) {
		return sqldb.ErrorKindConnection
	}
	return sqldb.ErrorKindUnknown
}
