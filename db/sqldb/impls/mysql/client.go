package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/Graphxsys/PyBase/db/sqldb"
	_ "github.com/go-sql-driver/mysql" // side-effect
)

const DBType = "mysql"

type Client struct {
	Conf *sqldb.Conf

	// db fields are implementation details, not exported
	dsn  string
	open func(driverName, dsn string) (*sql.DB, error)
}

// Ensure mysql.Client implements sqldb.Client interface
var _ sqldb.Client = (*Client)(nil)

func New(conf *sqldb.Conf) *Client {
	return &Client{Conf: conf, open: sql.Open}
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
	if c.Conf.DSN != "" {
		c.dsn = c.Conf.DSN
	} else {
		c.dsn = DSN(c.Conf)
	}
	log.Println("[INFO] mysql client initialized")
	return nil
}

// DSN - TLS is always requested; the certificate is verified unless Conf.TrustServerCert
func DSN(conf *sqldb.Conf) string {
	port := conf.Port
	if port == 0 {
		port = 3306
	}
	tz := conf.TZ
	if tz == "" {
		tz = "UTC"
	}
	tls := "true"
	if conf.TrustServerCert {
		tls = "skip-verify"
	}
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=%s&sql_mode=ANSI_QUOTES&multiStatements=true&tls=%s",
		conf.User,
		conf.PW,
		conf.Host,
		port,
		conf.DB,
		url.QueryEscape(tz),
		tls,
	)
}

func (c *Client) Close() error {
	log.Println("[INFO] mysql client closed")
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
	var out sqldb.Outcome
	db, err := c.connect()
	if err == nil {
		out, err = sqldb.RunStatement(ctx, db, statement, textColumnsToString)
		c.release(db)
	}
	if err != nil {
		out = sqldb.FailureOutcome(sqldb.NewFailure(err, Classify))
		log.Printf("[WARN][%s] %s", DBType, out.Failure)
	}
	out.Duration = time.Since(start)
	return out
}

func (c *Client) connect() (*sql.DB, error) {
	if c.dsn == "" {
		return nil, sqldb.ErrNotInitialized
	}
	open := c.open
	if open == nil {
		open = sql.Open
	}
	db, err := open("mysql", c.dsn)
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

// textColumnsToString - the text protocol returns every value as []byte.
// Only binary column types keep their raw bytes.
func textColumnsToString(typeNames []string, row []any) {
	for i, v := range row {
		b, ok := v.([]byte)
		if !ok || i >= len(typeNames) {
			continue
		}
		typeName := strings.ToUpper(typeNames[i])
		if strings.Contains(typeName, "BLOB") || strings.Contains(typeName, "BINARY") || typeName == "BIT" || typeName == "GEOMETRY" {
			continue
		}
		row[i] = string(b)
	}
}
