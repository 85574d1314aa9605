package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSchemes(t *testing.T) {
	cases := map[string]string{
		"postgres":            Postgres,
		"postgresql":          Postgres,
		"postgresql+psycopg2": Postgres,
		"postgresql+pgx":      Postgres,
		"redshift":            Redshift,
		"redshift+psycopg2":   Redshift,
		"mysql":               MySQL,
		"mysql+pymysql":       MySQL,
		"mariadb":             MySQL,
		"sqlite":              SQLite,
		"sqlite3":             SQLite,
		"sqlserver":           SQLServer,
		"mssql":               SQLServer,
		"mssql+pyodbc":        SQLServer,
		"oracle":              Oracle,
		"oracle+oracledb":     Oracle,
	}
	for scheme, want := range cases {
		d, ok := Resolve(scheme)
		require.True(t, ok, "scheme %q should resolve", scheme)
		assert.Equal(t, want, d.Name, "scheme %q", scheme)
	}
}

func TestResolveIsCaseInsensitive(t *testing.T) {
	d, ok := Resolve("PostgreSQL")
	require.True(t, ok)
	assert.Equal(t, Postgres, d.Name)
}

func TestResolveUnknownDriverSuffix(t *testing.T) {
	// An unregistered driver spelling on a known dialect still resolves.
	d, ok := Resolve("mysql+mysqlconnector")
	require.True(t, ok)
	assert.Equal(t, MySQL, d.Name)
}

func TestResolveUnknown(t *testing.T) {
	for _, scheme := range []string{"", "mongodb", "cassandra+driver", "http"} {
		_, ok := Resolve(scheme)
		assert.False(t, ok, "scheme %q must not resolve", scheme)
	}
}

func TestCapabilities(t *testing.T) {
	caps := map[string]struct {
		driver    string
		port      int
		multi     bool
		infoViews bool
	}{
		Postgres:  {"pgx", 5432, false, true},
		MySQL:     {"mysql", 3306, true, true},
		SQLite:    {"sqlite", 0, false, false},
		SQLServer: {"sqlserver", 1433, true, true},
		Oracle:    {"oracle", 1521, false, false},
		Redshift:  {"postgres", 5439, false, true},
	}
	all := All()
	require.Len(t, all, len(caps))
	for _, d := range all {
		want, ok := caps[d.Name]
		require.True(t, ok, "unexpected dialect %q", d.Name)
		assert.Equal(t, want.driver, d.DriverName, d.Name)
		assert.Equal(t, want.port, d.DefaultPort, d.Name)
		assert.Equal(t, want.multi, d.SupportsMultiResultSet, d.Name)
		assert.Equal(t, want.infoViews, d.SupportsInformationSchema, d.Name)
	}
}

func TestQuote(t *testing.T) {
	pg, _ := Resolve("postgres")
	assert.Equal(t, `"users"`, pg.Quote("users"))
	assert.Equal(t, `"we""ird"`, pg.Quote(`we"ird`))

	my, _ := Resolve("mysql")
	assert.Equal(t, "`users`", my.Quote("users"))

	ms, _ := Resolve("sqlserver")
	assert.Equal(t, "[users]", ms.Quote("users"))
	assert.Equal(t, "[we]]ird]", ms.Quote("we]ird"))
}

func TestQueriesCoverage(t *testing.T) {
	for _, d := range All() {
		qs, ok := Queries(d.Name)
		if !d.SupportsInformationSchema {
			assert.False(t, ok, "%s should have no information_schema query set", d.Name)
			continue
		}
		require.True(t, ok, d.Name)
		assert.NotEmpty(t, qs.Databases, d.Name)
		assert.NotEmpty(t, qs.Schemas, d.Name)
		assert.NotEmpty(t, qs.Tables, d.Name)
		assert.NotEmpty(t, qs.Columns, d.Name)
		assert.NotEmpty(t, qs.Routines, d.Name)
	}
}
