// Package dialect describes the supported SQL backends as static,
// data-only descriptors. Behavioral differences between backends are
// expressed as capability flags on the descriptor; the packages that
// consume a descriptor gate their code paths on those flags rather
// than dispatching through per-backend types.
package dialect

import "strings"

// Dialect name constants. These double as the canonical connection
// scheme for each backend.
const (
	Postgres  = "postgres"
	MySQL     = "mysql"
	SQLite    = "sqlite"
	SQLServer = "sqlserver"
	Oracle    = "oracle"
	Redshift  = "redshift"
)

// Descriptor holds the static metadata for one backend. Descriptors
// are immutable; the registry is built once and only read afterwards.
type Descriptor struct {
	// Name is the canonical dialect name (see constants above).
	Name string

	// SchemePrefixes lists the accepted connection scheme spellings,
	// including dialect+driver forms such as "postgresql+psycopg2".
	SchemePrefixes []string

	// DriverName is the database/sql driver this dialect runs on.
	DriverName string

	// DefaultPort is used when the connection URL omits a port.
	DefaultPort int

	// QuoteChar is the identifier quote character. SQL Server uses
	// '[' and closes with ']'.
	QuoteChar rune

	// StatementSeparator terminates one statement in a batch.
	StatementSeparator rune

	// SupportsMultiResultSet reports whether the driver surfaces the
	// result sets of every statement in a batch. When false, only the
	// first statement of a batch is executed.
	SupportsMultiResultSet bool

	// SupportsInformationSchema reports whether the backend exposes
	// the standard information_schema views used for full catalog
	// introspection.
	SupportsInformationSchema bool
}

var registry = []Descriptor{
	{
		Name:                      Postgres,
		SchemePrefixes:            []string{"postgres", "postgresql", "postgresql+psycopg2", "postgresql+pgx"},
		DriverName:                "pgx",
		DefaultPort:               5432,
		QuoteChar:                 '"',
		StatementSeparator:        ';',
		SupportsInformationSchema: true,
	},
	{
		Name:                      MySQL,
		SchemePrefixes:            []string{"mysql", "mysql+pymysql", "mariadb"},
		DriverName:                "mysql",
		DefaultPort:               3306,
		QuoteChar:                 '`',
		StatementSeparator:        ';',
		SupportsMultiResultSet:    true,
		SupportsInformationSchema: true,
	},
	{
		Name:               SQLite,
		SchemePrefixes:     []string{"sqlite", "sqlite3"},
		DriverName:         "sqlite",
		QuoteChar:          '"',
		StatementSeparator: ';',
	},
	{
		Name:                      SQLServer,
		SchemePrefixes:            []string{"sqlserver", "mssql", "mssql+pyodbc"},
		DriverName:                "sqlserver",
		DefaultPort:               1433,
		QuoteChar:                 '[',
		StatementSeparator:        ';',
		SupportsMultiResultSet:    true,
		SupportsInformationSchema: true,
	},
	{
		Name:               Oracle,
		SchemePrefixes:     []string{"oracle", "oracle+oracledb"},
		DriverName:         "oracle",
		DefaultPort:        1521,
		QuoteChar:          '"',
		StatementSeparator: ';',
	},
	{
		Name:                      Redshift,
		SchemePrefixes:            []string{"redshift", "redshift+psycopg2"},
		DriverName:                "postgres",
		DefaultPort:               5439,
		QuoteChar:                 '"',
		StatementSeparator:        ';',
		SupportsInformationSchema: true,
	},
}

// All returns a copy of the registered descriptors.
func All() []Descriptor {
	out := make([]Descriptor, len(registry))
	copy(out, registry)
	return out
}

// Resolve matches a connection scheme against the registry. Both the
// full "dialect+driver" spelling and the bare dialect part are
// accepted, case-insensitively.
func Resolve(scheme string) (Descriptor, bool) {
	scheme = strings.ToLower(strings.TrimSpace(scheme))
	if scheme == "" {
		return Descriptor{}, false
	}
	for _, d := range registry {
		for _, p := range d.SchemePrefixes {
			if scheme == p {
				return d, true
			}
		}
	}
	// Unknown driver suffix on a known dialect still resolves.
	if base, _, ok := strings.Cut(scheme, "+"); ok {
		for _, d := range registry {
			for _, p := range d.SchemePrefixes {
				if base == p {
					return d, true
				}
			}
		}
	}
	return Descriptor{}, false
}

// Quote wraps an identifier in the dialect's quote characters.
func (d Descriptor) Quote(ident string) string {
	if d.QuoteChar == '[' {
		return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
	}
	q := string(d.QuoteChar)
	return q + strings.ReplaceAll(ident, q, q+q) + q
}
