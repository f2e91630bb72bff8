package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/Graphxsys/PyBase/db/sqldb"
	_ "github.com/microsoft/go-mssqldb" // side-effect: registers "sqlserver"
)

const DBType = "mssql"

const (
	DriverNative = "sqlserver"
	DriverODBC   = "odbc"
)

type Client struct {
	Conf *sqldb.Conf

	driverName string
	dsn        string
	open       func(driverName, dsn string) (*sql.DB, error) // sql.Open unless replaced in tests
}

// Ensure mssql.Client implements sqldb.Client interface
var _ sqldb.Client = (*Client)(nil)

func New(conf *sqldb.Conf) *Client {
	return &Client{Conf: conf, open: sql.Open}
}

// Register makes "mssql" available to sqldb.New
func Register() {
	sqldb.RegisterFactory(DBType, func(conf *sqldb.Conf) (sqldb.Client, error) {
		return New(conf), nil
	})
}

func (c *Client) Init() error {
	if c.Conf == nil {
		return &sqldb.MissingConfError{Fields: []string{"conf"}}
	}
	if err := c.Conf.Validate(); err != nil {
		return err
	}
	switch c.Conf.Driver {
	case "", DriverNative:
		c.driverName = DriverNative
		if c.Conf.DSN != "" {
			c.dsn = c.Conf.DSN
		} else {
			c.dsn = NativeDSN(c.Conf)
		}
	case DriverODBC:
		if !slices.Contains(sql.Drivers(), DriverODBC) {
			return fmt.Errorf("mssql: odbc driver requested but not built in (build with -tags odbc)")
		}
		c.driverName = DriverODBC
		if c.Conf.DSN != "" {
			c.dsn = c.Conf.DSN
		} else {
			c.dsn = ODBCConnString(c.Conf)
		}
	default:
		return fmt.Errorf("mssql: unsupported driver %q", c.Conf.Driver)
	}
	if c.Conf.TrustServerCert {
		log.Printf("[WARN][%s] server certificate validation disabled", DBType)
	}
	log.Printf("[INFO][%s] client initialized (driver: %s)", DBType, c.driverName)
	return nil
}

// Close - every call owns its connection, so there is nothing to release
func (c *Client) Close() error {
	log.Printf("[INFO][%s] client closed", DBType)
	return nil
}

func (c *Client) GetConf() *sqldb.Conf {
	return c.Conf
}

func (c *Client) GetDSN() string {
	return c.dsn
}

func (c *Client) Ping(ctx context.Context) error {
	db, err := c.connect()
	if err != nil {
		return err
	}
	defer c.release(db)
	return db.PingContext(ctx)
}

func (c *Client) Execute(ctx context.Context, statement string) sqldb.Outcome {
	start := time.Now()
	out := c.execute(ctx, statement)
	out.Duration = time.Since(start)
	if out.Kind == sqldb.FailureResult {
		log.Printf("[WARN][%s] %s", DBType, out.Failure)
	}
	return out
}

func (c *Client) execute(ctx context.Context, statement string) sqldb.Outcome {
	db, err := c.connect()
	if err != nil {
		return sqldb.FailureOutcome(sqldb.NewFailure(err, Classify))
	}
	defer c.release(db)
	out, err := sqldb.RunStatement(ctx, db, statement, nil)
	if err != nil {
		return sqldb.FailureOutcome(sqldb.NewFailure(err, Classify))
	}
	return out
}

// connect returns a fresh handle limited to a single connection
func (c *Client) connect() (*sql.DB, error) {
	if c.dsn == "" {
		return nil, sqldb.ErrNotInitialized
	}
	open := c.open
	if open == nil {
		open = sql.Open
	}
	db, err := open(c.driverName, c.dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func (c *Client) release(db *sql.DB) {
	if err := db.Close(); err != nil {
		log.Printf("[WARN][%s] failed to close connection: %v", DBType, err)
	}
}
