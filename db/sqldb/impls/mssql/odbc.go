//go:build odbc

package mssql

import (
	_ "github.com/alexbrainman/odbc" // side-effect: registers "odbc", needs cgo and an ODBC driver manager
)
