package mssql

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/Graphxsys/PyBase/db/sqldb"
)

const DefaultODBCDriver = "ODBC Driver 18 for SQL Server"

// NativeDSN builds a go-mssqldb `sqlserver://` URL.
// Traffic is always encrypted; the certificate is validated unless Conf.TrustServerCert is set.
func NativeDSN(conf *sqldb.Conf) string {
	host, instance, port := splitServer(conf.Host, conf.Port)

	query := url.Values{}
	query.Set("database", conf.DB)
	query.Set("encrypt", "true")
	query.Set("TrustServerCertificate", strconv.FormatBool(conf.TrustServerCert))
	if conf.AppName != "" {
		query.Set("app name", conf.AppName)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(conf.User, conf.PW),
		Host:     host,
		RawQuery: query.Encode(),
	}
	if port > 0 {
		u.Host = net.JoinHostPort(host, strconv.Itoa(port))
	}
	if instance != "" {
		u.Path = instance
	}
	return u.String()
}

// ODBCConnString builds a connection string for the SQL Server ODBC driver
func ODBCConnString(conf *sqldb.Conf) string {
	driver := conf.ODBCDriver
	if driver == "" {
		driver = DefaultODBCDriver
	}
	server := conf.Host
	if conf.Port > 0 && !strings.Contains(server, ",") {
		server += "," + strconv.Itoa(conf.Port)
	}
	trust := "no"
	if conf.TrustServerCert {
		trust = "yes"
	}

	parts := []string{
		"DRIVER=" + odbcQuote(driver),
		"SERVER=" + odbcValue(server),
		"DATABASE=" + odbcValue(conf.DB),
		"UID=" + odbcValue(conf.User),
		"PWD=" + odbcValue(conf.PW),
		"Encrypt=yes",
		"TrustServerCertificate=" + trust,
	}
	if conf.AppName != "" {
		parts = append(parts, "APP="+odbcValue(conf.AppName))
	}
	return strings.Join(parts, ";")
}

// splitServer accepts `host`, `tcp:host`, `host,port` and `host\instance`.
// An explicit port argument wins over one embedded in server.
func splitServer(server string, port int) (host, instance string, p int) {
	host = strings.TrimPrefix(server, "tcp:")
	p = port
	if i := strings.LastIndexByte(host, ','); i >= 0 {
		if embedded, err := strconv.Atoi(strings.TrimSpace(host[i+1:])); err == nil && p == 0 {
			p = embedded
		}
		host = host[:i]
	}
	if i := strings.IndexByte(host, '\\'); i >= 0 {
		instance = host[i+1:]
		host = host[:i]
	}
	return host, instance, p
}

func odbcValue(v string) string {
	if strings.ContainsAny(v, ";{}=") || strings.TrimSpace(v) != v {
		return odbcQuote(v)
	}
	return v
}

func odbcQuote(v string) string {
	return "{" + strings.ReplaceAll(v, "}", "}}") + "}"
}
