package conf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"syscall"

	"github.com/Graphxsys/PyBase/db"
	"github.com/Graphxsys/PyBase/db/sqldb"
	"github.com/Graphxsys/PyBase/db/sqldb/impls/mssql"
	"github.com/Graphxsys/PyBase/db/sqldb/impls/mysql"
	"github.com/Graphxsys/PyBase/db/sqldb/impls/pgsql"
)

// SQLDBConfFiles are tried in order under <AppRoot>/config
var SQLDBConfFiles = []string{".sql-databases.json", ".sql-databases.yaml", ".sql-databases.yml"}

// Core - common config
type Core struct {
	AppName      string                  `json:"app_name"`
	AppRoot      string                  `json:"-"` // config/ lives here
	RootCtx      context.Context         `json:"-"` // Global Context with RootCancel
	RootCancel   context.CancelFunc      `json:"-"` // CancelFunc for RootCtx
	SQLDBConfs   map[string]*sqldb.Conf  `json:"-"` // LoadSQLDBConfs or SetSQLDBConf
	SQLDBClients map[string]sqldb.Client `json:"-"` // PrepareSQLDatabases
}

// BaseInit - 1st step for initialization
// 1. set AppRoot
// 2. load config/.core.json file if present
// 3. Start ShutdownSignalListener
func (c *Core) BaseInit(appRoot string, rootCtx context.Context, rootCancel context.CancelFunc) error {
	c.AppRoot = appRoot
	envBytes, err := os.ReadFile(filepath.Join(appRoot, "config", ".core.json")) // ([]byte, error)
	switch {
	case err == nil:
		if err = json.Unmarshal(envBytes, c); err != nil {
			return err
		}
	case !errors.Is(err, os.ErrNotExist):
		return err
	}
	c.RootCtx = rootCtx
	c.RootCancel = rootCancel
	c.SQLDBConfs = make(map[string]*sqldb.Conf)
	c.startShutdownSignalListener()
	return nil
}

var once sync.Once

func (c *Core) startShutdownSignalListener() {
	once.Do(func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigs
			log.Printf("[INFO] got signal [%s]. shutting down app [%s] ...", sig, c.AppName)
			c.RootCancel() // in-flight statements see ctx.Done()
		}()
	})
	log.Printf("[INFO][CORE] shutdown signal listener started")
}

// LoadSQLDBConfs reads the first existing file of SQLDBConfFiles
func (c *Core) LoadSQLDBConfs() error {
	for _, name := range SQLDBConfFiles {
		confFilePath := filepath.Join(c.AppRoot, "config", name)
		if _, err := os.Stat(confFilePath); err != nil {
			continue
		}
		confs, err := sqldb.LoadConfsFile(confFilePath)
		if err != nil {
			return err
		}
		for dbName, conf := range confs {
			c.SetSQLDBConf(dbName, conf)
		}
		return nil
	}
	return fmt.Errorf("no sql databases conf file in %s", filepath.Join(c.AppRoot, "config"))
}

func (c *Core) SetSQLDBConf(name string, conf *sqldb.Conf) {
	if c.SQLDBConfs == nil {
		c.SQLDBConfs = make(map[string]*sqldb.Conf)
	}
	c.SQLDBConfs[name] = conf
}

// PrepareSQLDatabases - Build & Init SQL DB Clients
// Use after LoadSQLDBConfs or SetSQLDBConf. Nothing connects here.
func (c *Core) PrepareSQLDatabases() error {
	c.SQLDBClients = make(map[string]sqldb.Client)

	// Registering Supported Implementations
	mssql.Register()
	mysql.Register()
	pgsql.Register()

	for _, dbName := range c.sqlDBNames() {
		sqlDBConf := c.SQLDBConfs[dbName]
		if sqlDBConf.Type == "" {
			sqlDBConf.Type = mssql.DBType
		}
		dbClient, err := sqldb.New(sqlDBConf.Type, sqlDBConf)
		if err != nil {
			return fmt.Errorf("sql db %q: %w", dbName, err)
		}
		if err = dbClient.Init(); err != nil {
			return fmt.Errorf("sql db %q: %w", dbName, err)
		}
		c.SQLDBClients[dbName] = dbClient
	}
	return nil
}

func (c *Core) SQLDBClient(name string) (sqldb.Client, bool) {
	client, ok := c.SQLDBClients[name]
	return client, ok
}

func (c *Core) sqlDBNames() []string {
	names := make([]string, 0, len(c.SQLDBConfs))
	for name := range c.SQLDBConfs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Core) ResourceCleanUp() {
	log.Println("[INFO] App Resource Cleaning Up...")
	for name, sqlDBClient := range c.SQLDBClients {
		db.CloseClient(fmt.Sprintf("%s/%s", sqlDBClient.GetConf().Type, name), sqlDBClient)
	}
	log.Println("[INFO] App Resource Cleanup Complete")
}
