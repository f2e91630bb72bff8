package sqldb

import (
	"context"
)

// Client runs statements against one configured database.
// No connection is held between calls: Ping and Execute each open and close their own.
type Client interface {
	Init() error // Validates Conf and builds the DSN. Never connects
	Close() error
	GetConf() *Conf
	GetDSN() string
	Ping(ctx context.Context) error
	// Execute runs one statement verbatim and always returns an Outcome.
	// Failures are reported in the Outcome, never as a panic.
	Execute(ctx context.Context, statement string) Outcome
}
