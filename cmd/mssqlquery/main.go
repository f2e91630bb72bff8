// Command mssqlquery runs one SQL statement and prints what it returned.
//
// Connection settings come from SQL_SERVER, SQL_DATABASE, SQL_USERNAME and SQL_PASSWORD
// (a .env file is loaded first), or from <app-root>/config/.sql-databases.{json,yaml}.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/Graphxsys/PyBase/conf"
	"github.com/Graphxsys/PyBase/db/sqldb"
)

const defaultStatement = "SELECT 'Test' AS Result"

// Option defines command line options.
type Option struct {
	EnvFile   string        `short:"e" long:"env-file" description:"dotenv file loaded before reading SQL_* variables" default:".env"`
	AppRoot   string        `short:"c" long:"app-root" description:"directory holding config/.sql-databases.{json,yaml}; environment is used when empty"`
	Name      string        `short:"n" long:"name" description:"database name in the conf file" default:"main"`
	Driver    string        `long:"driver" description:"mssql driver: sqlserver or odbc"`
	TrustCert bool          `long:"trust-server-cert" description:"accept the server certificate without validation"`
	Timeout   time.Duration `short:"t" long:"timeout" description:"statement timeout, 0 waits forever" default:"0s"`
}

func parseOptions(args []string) (*Option, string, error) {
	opt := &Option{}
	parser := flags.NewParser(opt, flags.Default)
	parser.Name = "mssqlquery"
	parser.Usage = "[OPTIONS] [statement]"

	rest, err := parser.ParseArgs(args)
	if err != nil {
		return nil, "", err
	}
	statement := strings.TrimSpace(strings.Join(rest, " "))
	if statement == "" {
		statement = defaultStatement
	}
	return opt, statement, nil
}

func main() {
	opt, statement, err := parseOptions(os.Args[1:])
	if err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(2)
	}
	log.SetOutput(os.Stdout)
	os.Exit(run(opt, statement, os.Stdout))
}

func run(opt *Option, statement string, w io.Writer) int {
	if err := loadEnvFile(opt.EnvFile); err != nil {
		log.Printf("[ERROR] %v", err)
		return 1
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	appRoot := opt.AppRoot
	if appRoot == "" {
		appRoot = "."
	}
	core := &conf.Core{AppName: "mssqlquery"}
	if err := core.BaseInit(appRoot, rootCtx, rootCancel); err != nil {
		log.Printf("[ERROR] %v", err)
		return 1
	}
	if err := prepareConf(core, opt); err != nil {
		log.Printf("[ERROR] %v", err)
		return 1
	}
	if err := core.PrepareSQLDatabases(); err != nil {
		log.Printf("[ERROR] %v", err)
		return 1
	}
	defer core.ResourceCleanUp()

	client, _ := core.SQLDBClient(opt.Name)

	ctx := rootCtx
	if opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(rootCtx, opt.Timeout)
		defer cancel()
	}
	out := client.Execute(ctx, statement)
	printOutcome(w, out)
	if out.Kind == sqldb.FailureResult {
		return 1
	}
	return 0
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func prepareConf(core *conf.Core, opt *Option) error {
	if opt.AppRoot != "" {
		if err := core.LoadSQLDBConfs(); err != nil {
			return err
		}
	} else {
		sqlConf, err := sqldb.ConfFromEnv()
		if err != nil {
			return err
		}
		core.SetSQLDBConf(opt.Name, sqlConf)
	}
	sqlConf, ok := core.SQLDBConfs[opt.Name]
	if !ok {
		return fmt.Errorf("no sql database named %q", opt.Name)
	}
	if opt.Driver != "" {
		sqlConf.Driver = opt.Driver
	}
	if opt.TrustCert {
		sqlConf.TrustServerCert = true
	}
	return nil
}

func printOutcome(w io.Writer, out sqldb.Outcome) {
	switch out.Kind {
	case sqldb.RowsResult:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, strings.Join(out.Columns, "\t"))
		for _, row := range out.Rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = formatValue(v)
			}
			_, _ = fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
		_ = tw.Flush()
		_, _ = fmt.Fprintf(w, "(%d rows, %s)\n", out.RowCount(), out.Duration.Round(time.Millisecond))
	case sqldb.NoResult:
		_, _ = fmt.Fprintf(w, "no result set (%s)\n", out.Duration.Round(time.Millisecond))
	case sqldb.FailureResult:
		_, _ = fmt.Fprintf(w, "failed [%s]: %s\n", out.Failure.Kind, out.Failure)
	}
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return fmt.Sprintf("0x%X", v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}
