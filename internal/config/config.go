package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/joacominatel/sqldesk/internal/dialect"
)

// historyLimit caps the reconnection history.
const historyLimit = 20

// Config represents the application configuration.
type Config struct {
	Connections []Connection `mapstructure:"connections" yaml:"connections"`
	Preferences Preferences  `mapstructure:"preferences" yaml:"preferences"`

	// History holds recently used connection strings with credentials
	// stripped, most recent first. It only prefills reconnection
	// attempts and is never required for correctness.
	History []string `mapstructure:"history" yaml:"history,omitempty"`
}

// Connection represents a saved database connection profile.
// Passwords are not stored here; they live in the OS keyring under the
// profile name.
type Connection struct {
	Name     string            `mapstructure:"name" yaml:"name"`
	Dialect  string            `mapstructure:"dialect" yaml:"dialect"`
	Host     string            `mapstructure:"host" yaml:"host,omitempty"`
	Port     int               `mapstructure:"port" yaml:"port,omitempty"`
	Database string            `mapstructure:"database" yaml:"database,omitempty"`
	Username string            `mapstructure:"username" yaml:"username,omitempty"`
	Params   map[string]string `mapstructure:"params" yaml:"params,omitempty"`

	// File is the database file path for file-backed dialects
	// (SQLite); the network fields above are unused then.
	File string `mapstructure:"file" yaml:"file,omitempty"`
}

// Preferences holds user preferences.
type Preferences struct {
	Theme             string `mapstructure:"theme" yaml:"theme"`
	DefaultConnection string `mapstructure:"default_connection" yaml:"default_connection"`
}

// URL builds a connection string from the profile. The password (from
// the keyring, or empty) is embedded only in the returned string,
// never persisted.
func (c Connection) URL(password string) string {
	if c.File != "" || c.Dialect == dialect.SQLite {
		return dialect.SQLite + ":///" + strings.TrimPrefix(c.File, "/")
	}

	u := url.URL{
		Scheme: c.Dialect,
		Host:   c.Host,
		Path:   "/" + c.Database,
	}
	if c.Port > 0 {
		u.Host = c.Host + ":" + strconv.Itoa(c.Port)
	}
	if c.Username != "" {
		if password != "" {
			u.User = url.UserPassword(c.Username, password)
		} else {
			u.User = url.User(c.Username)
		}
	}
	if len(c.Params) > 0 {
		q := url.Values{}
		for k, v := range c.Params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// DisplayString returns a human-readable summary of the connection.
func (c Connection) DisplayString() string {
	if c.File != "" {
		return c.Dialect + ":" + c.File
	}
	s := c.Host
	if c.Port > 0 {
		s += ":" + strconv.Itoa(c.Port)
	}
	s += "/" + c.Database
	if c.Username != "" {
		s = c.Username + "@" + s
	}
	return c.Dialect + "://" + s
}

// ParseURL parses a connection string into a profile plus the password
// it carried, if any. The dialect must be registered.
func ParseURL(connString string) (Connection, string, error) {
	u, err := url.Parse(connString)
	if err != nil {
		return Connection{}, "", fmt.Errorf("invalid connection string: %w", err)
	}
	desc, ok := dialect.Resolve(u.Scheme)
	if !ok {
		return Connection{}, "", fmt.Errorf("unknown dialect %q", u.Scheme)
	}

	conn := Connection{
		Dialect:  desc.Name,
		Host:     u.Hostname(),
		Database: strings.TrimPrefix(u.Path, "/"),
	}
	if desc.Name == dialect.SQLite {
		conn.File = strings.TrimPrefix(u.Path, "/")
		if u.Opaque != "" {
			conn.File = u.Opaque
		}
		conn.Database = ""
		conn.Name = fmt.Sprintf("%s-%s", desc.Name, conn.File)
		return conn, "", nil
	}

	var password string
	if u.User != nil {
		conn.Username = u.User.Username()
		password, _ = u.User.Password()
	}
	if portStr := u.Port(); portStr != "" {
		conn.Port, _ = strconv.Atoi(portStr)
	}
	if conn.Port == 0 {
		conn.Port = desc.DefaultPort
	}
	for k, v := range u.Query() {
		if len(v) > 0 {
			if conn.Params == nil {
				conn.Params = map[string]string{}
			}
			conn.Params[k] = v[0]
		}
	}

	conn.Name = fmt.Sprintf("%s-%s-%d-%s", desc.Name, conn.Host, conn.Port, conn.Database)
	return conn, password, nil
}

// HasConnection checks if a connection with the given name already exists.
func (cfg *Config) HasConnection(name string) bool {
	for _, c := range cfg.Connections {
		if c.Name == name {
			return true
		}
	}
	return false
}

// AddConnection appends a connection if it doesn't already exist.
func (cfg *Config) AddConnection(conn Connection) {
	if !cfg.HasConnection(conn.Name) {
		cfg.Connections = append(cfg.Connections, conn)
	}
}

// AddHistory records a redacted connection string at the front of the
// history, deduplicated and capped.
func (cfg *Config) AddHistory(redacted string) {
	if redacted == "" {
		return
	}
	out := []string{redacted}
	for _, h := range cfg.History {
		if h != redacted {
			out = append(out, h)
		}
	}
	if len(out) > historyLimit {
		out = out[:historyLimit]
	}
	cfg.History = out
}
