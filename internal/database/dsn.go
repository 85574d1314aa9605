package database

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	go_ora "github.com/sijms/go-ora/v2"

	"github.com/joacominatel/sqldesk/internal/dialect"
)

// Target is a parsed connection string: the resolved dialect
// descriptor plus the driver-native DSN it translates to.
type Target struct {
	Descriptor dialect.Descriptor

	// DSN is the connection string in the form the database/sql
	// driver expects.
	DSN string

	// Database is the database named in the connection string. For
	// SQLite this is the file base name without extension.
	Database string

	// Redacted is the original connection string with the password
	// stripped and the scheme normalized. Safe to persist.
	Redacted string
}

// ParseURL parses a connection string of the form
//
//	<dialect>[+<driver>]://[user[:pass]@]host[:port]/database[?params]
//
// and translates it to the native DSN of the registered driver. An
// unmatched scheme fails with UnsupportedDialectError before any
// network activity.
func ParseURL(connString string) (*Target, error) {
	u, err := url.Parse(connString)
	if err != nil || u.Scheme == "" {
		return nil, &UnsupportedDialectError{Scheme: connString}
	}
	desc, ok := dialect.Resolve(u.Scheme)
	if !ok {
		return nil, &UnsupportedDialectError{Scheme: u.Scheme}
	}

	t := &Target{
		Descriptor: desc,
		Database:   strings.TrimPrefix(u.Path, "/"),
		Redacted:   redact(u, desc.Name),
	}

	switch desc.Name {
	case dialect.Postgres, dialect.Redshift:
		t.DSN = rewriteURL(u, "postgres", desc.DefaultPort)
	case dialect.MySQL:
		t.DSN = mysqlDSN(u, desc)
	case dialect.SQLite:
		path := sqlitePath(u)
		t.DSN = path
		t.Database = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	case dialect.SQLServer:
		t.DSN = sqlserverDSN(u, desc)
	case dialect.Oracle:
		t.DSN = oracleDSN(u, desc)
	default:
		return nil, &UnsupportedDialectError{Scheme: u.Scheme}
	}
	return t, nil
}

// rewriteURL normalizes the scheme and fills in the default port,
// keeping everything else as the user wrote it. Used for the
// postgres-protocol dialects whose drivers accept URL DSNs.
func rewriteURL(u *url.URL, scheme string, port int) string {
	v := *u
	v.Scheme = scheme
	if v.Port() == "" && v.Hostname() != "" && port > 0 {
		v.Host = v.Hostname() + ":" + strconv.Itoa(port)
	}
	return v.String()
}

func mysqlDSN(u *url.URL, desc dialect.Descriptor) string {
	cfg := mysql.NewConfig()
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	cfg.Net = "tcp"
	cfg.Addr = hostPort(u, desc.DefaultPort)
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	// Required for batch execution through NextResultSet.
	cfg.MultiStatements = true
	for k, v := range u.Query() {
		if len(v) > 0 {
			if cfg.Params == nil {
				cfg.Params = map[string]string{}
			}
			cfg.Params[k] = v[0]
		}
	}
	return cfg.FormatDSN()
}

func sqlitePath(u *url.URL) string {
	if u.Opaque != "" {
		return u.Opaque
	}
	path := u.Path
	if u.Host != "" {
		path = u.Host + path
	}
	if path == "" || path == "/" {
		return ":memory:"
	}
	return strings.TrimPrefix(path, "/")
}

func sqlserverDSN(u *url.URL, desc dialect.Descriptor) string {
	v := url.URL{
		Scheme: "sqlserver",
		User:   u.User,
		Host:   hostPort(u, desc.DefaultPort),
	}
	q := u.Query()
	if db := strings.TrimPrefix(u.Path, "/"); db != "" {
		q.Set("database", db)
	}
	v.RawQuery = q.Encode()
	return v.String()
}

func oracleDSN(u *url.URL, desc dialect.Descriptor) string {
	var user, pass string
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	port := desc.DefaultPort
	if p := u.Port(); p != "" {
		port, _ = strconv.Atoi(p)
	}
	var opts map[string]string
	for k, v := range u.Query() {
		if len(v) > 0 {
			if opts == nil {
				opts = map[string]string{}
			}
			opts[k] = v[0]
		}
	}
	return go_ora.BuildUrl(u.Hostname(), port, strings.TrimPrefix(u.Path, "/"), user, pass, opts)
}

func hostPort(u *url.URL, defaultPort int) string {
	host := u.Hostname()
	port := u.Port()
	if port == "" && defaultPort > 0 {
		port = strconv.Itoa(defaultPort)
	}
	if port == "" {
		return host
	}
	return fmt.Sprintf("%s:%s", host, port)
}

// redact strips the password and normalizes the scheme to the
// canonical dialect name.
func redact(u *url.URL, name string) string {
	v := *u
	v.Scheme = name
	if v.User != nil {
		if _, has := v.User.Password(); has {
			v.User = url.User(v.User.Username())
		}
	}
	return v.String()
}
