package sqldb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v2"
)

// Environment keys read by ConfFromEnv
const (
	EnvServer          = "SQL_SERVER"
	EnvDatabase        = "SQL_DATABASE"
	EnvUsername        = "SQL_USERNAME"
	EnvPassword        = "SQL_PASSWORD"
	EnvPort            = "SQL_PORT"
	EnvDriver          = "SQL_DRIVER"
	EnvODBCDriver      = "SQL_ODBC_DRIVER"
	EnvTrustServerCert = "SQL_TRUST_SERVER_CERTIFICATE"
	EnvDSN             = "SQL_DSN"
)

type Conf struct {
	Type string `json:"type" yaml:"type"` // mssql, mysql, pgsql
	Host string `json:"host" yaml:"host"` // mssql also accepts `host\instance` and `host,port`
	Port int    `json:"port" yaml:"port"` // 0 = driver default
	User string `json:"user" yaml:"user"`
	PW   string `json:"pw" yaml:"pw"`
	DB   string `json:"db" yaml:"db"`
	TZ   string `json:"tz" yaml:"tz"`   // Connection Timezone (mysql, pgsql)
	DSN  string `json:"dsn" yaml:"dsn"` // To Overwrite Default DSN

	Driver     string `json:"driver" yaml:"driver"`           // mssql: "sqlserver" (default) or "odbc"
	ODBCDriver string `json:"odbc_driver" yaml:"odbc_driver"` // mssql+odbc: driver name in the connection string
	AppName    string `json:"app_name" yaml:"app_name"`

	// TrustServerCert accepts the server certificate without validation.
	// Off unless set explicitly.
	TrustServerCert bool `json:"trust_server_cert" yaml:"trust_server_cert"`
}

// Validate reports every required field that is empty.
// A non-empty DSN replaces the individual fields.
func (c *Conf) Validate() error {
	if c.DSN != "" {
		return nil
	}
	var missing []string
	if c.Host == "" {
		missing = append(missing, "host")
	}
	if c.DB == "" {
		missing = append(missing, "db")
	}
	if c.User == "" {
		missing = append(missing, "user")
	}
	if c.PW == "" {
		missing = append(missing, "pw")
	}
	if len(missing) > 0 {
		return &MissingConfError{Fields: missing}
	}
	return nil
}

// ConfFromEnv builds an mssql Conf from the process environment.
// Values are taken as-is; Validate runs when the client is initialized.
func ConfFromEnv() (*Conf, error) {
	return ConfFromLookup(os.LookupEnv)
}

func ConfFromLookup(lookup func(string) (string, bool)) (*Conf, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}
	conf := &Conf{
		Type:       "mssql",
		Host:       get(EnvServer),
		DB:         get(EnvDatabase),
		User:       get(EnvUsername),
		PW:         get(EnvPassword),
		Driver:     get(EnvDriver),
		ODBCDriver: get(EnvODBCDriver),
		DSN:        get(EnvDSN),
	}
	if v := get(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		conf.Port = port
	}
	if v := get(EnvTrustServerCert); v != "" {
		trust, err := parseYesNo(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvTrustServerCert, v, err)
		}
		conf.TrustServerCert = trust
	}
	return conf, nil
}

// parseYesNo accepts strconv.ParseBool values plus the ODBC style yes/no
func parseYesNo(v string) (bool, error) {
	switch v {
	case "yes", "Yes", "YES":
		return true, nil
	case "no", "No", "NO":
		return false, nil
	}
	return strconv.ParseBool(v)
}

// LoadConfsFile reads a map of named confs from a .json, .yaml or .yml file
func LoadConfsFile(path string) (map[string]*Conf, error) {
	confBytes, err := os.ReadFile(path) // ([]byte, error)
	if err != nil {
		return nil, err
	}
	confs := make(map[string]*Conf)
	switch ext := filepath.Ext(path); ext {
	case ".json":
		err = json.Unmarshal(confBytes, &confs)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(confBytes, &confs)
	default:
		return nil, fmt.Errorf("unsupported conf file extension: %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return confs, nil
}
