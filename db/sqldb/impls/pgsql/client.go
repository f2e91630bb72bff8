package pgsql

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Graphxsys/PyBase/db/sqldb"
)

const DBType = "pgsql"

type Client struct {
	Conf *sqldb.Conf
	dsn  string
}

// Ensure pgsql.Client implements sqldb.Client interface
var _ sqldb.Client = (*Client)(nil)

func New(conf *sqldb.Conf) *Client {
	return &Client{Conf: conf}
}

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
	// DSN
	if c.Conf.DSN != "" {
		c.dsn = c.Conf.DSN
	} else {
		c.dsn = DSN(c.Conf)
	}
	if _, err := pgx.ParseConfig(c.dsn); err != nil {
		c.dsn = ""
		return fmt.Errorf("failed to parse pgx config: %w", err)
	}
	log.Print("[INFO] pgsql client initialized")
	return nil
}

// DSN builds a keyword/value connection string.
// NOTE: PostgreSQL natively allows multiple statements in a single query string.
func DSN(conf *sqldb.Conf) string {
	port := conf.Port
	if port == 0 {
		port = 5432
	}
	sslmode := "verify-full"
	if conf.TrustServerCert {
		sslmode = "require" // encrypted, certificate not checked
	}
	parts := []string{
		"host=" + quote(conf.Host),
		fmt.Sprintf("port=%d", port),
		"user=" + quote(conf.User),
		"password=" + quote(conf.PW),
		"dbname=" + quote(conf.DB),
		"sslmode=" + sslmode,
	}
	if conf.TZ != "" {
		parts = append(parts, "TimeZone="+quote(conf.TZ))
	}
	if conf.AppName != "" {
		parts = append(parts, "application_name="+quote(conf.AppName))
	}
	return strings.Join(parts, " ")
}

// quote - libpq keyword/value quoting
func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, " '\\") {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func (c *Client) Close() error {
	log.Println("[INFO] pgsql client closed")
	return nil
}

func (c *Client) GetConf() *sqldb.Conf {
	return c.Conf
}

func (c *Client) GetDSN() string {
	return c.dsn
}

func (c *Client) Ping(ctx context.Context) error {
	conn, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer release(conn)
	return conn.Ping(ctx)
}

func (c *Client) Execute(ctx context.Context, statement string) sqldb.Outcome {
	start := time.Now()
	var out sqldb.Outcome
	conn, err := c.connect(ctx)
	if err == nil {
		out, err = run(ctx, conn, statement)
		release(conn)
	}
	if err != nil {
		out = sqldb.FailureOutcome(sqldb.NewFailure(err, Classify))
		log.Printf("[WARN][%s] %s", DBType, out.Failure)
	}
	out.Duration = time.Since(start)
	return out
}

func (c *Client) connect(ctx context.Context) (*pgx.Conn, error) {
	if c.dsn == "" {
		return nil, sqldb.ErrNotInitialized
	}
	return pgx.Connect(ctx, c.dsn)
}

func release(conn *pgx.Conn) {
	// the caller's ctx may already be done; closing must still reach the server
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Close(ctx); err != nil {
		log.Printf("[WARN][%s] failed to close connection: %v", DBType, err)
	}
}

// run mirrors sqldb.RunStatement on a native pgx connection
func run(ctx context.Context, conn *pgx.Conn, statement string) (sqldb.Outcome, error) {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return sqldb.Outcome{}, fmt.Errorf("begin transaction failed: %w", err)
	}
	out, err := queryTx(ctx, tx, statement)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Printf("[WARN][%s] rollback failed: %v", DBType, rbErr)
		}
		return sqldb.Outcome{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return sqldb.Outcome{}, err
	}
	return out, nil
}

func queryTx(ctx context.Context, tx pgx.Tx, statement string) (sqldb.Outcome, error) {
	// simple protocol: the statement text goes to the server verbatim
	rows, err := tx.Query(ctx, statement, pgx.QueryExecModeSimpleProtocol)
	if err != nil {
		return sqldb.Outcome{}, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	if len(fields) == 0 {
		rows.Close()
		return sqldb.NoResultOutcome(), rows.Err()
	}
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	data := [][]any{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return sqldb.Outcome{}, fmt.Errorf("scan failed: %w", err)
		}
		data = append(data, values)
	}
	if err = rows.Err(); err != nil {
		return sqldb.Outcome{}, fmt.Errorf("error during iterating rows: %w", err)
	}
	return sqldb.RowsOutcome(columns, data), nil
}
