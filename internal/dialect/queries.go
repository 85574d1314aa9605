package dialect

// QuerySet is the fixed set of introspection queries used to build a
// schema index against a backend with information_schema support.
// Every query returns rows in a uniform shape:
//
//	Databases: (name)
//	Schemas:   (schema)
//	Tables:    (schema, name, type)   type is 'BASE TABLE' or 'VIEW'
//	Columns:   (schema, table, column, data_type) in ordinal order
//	Routines:  (schema, name, type)
type QuerySet struct {
	Databases string
	Schemas   string
	Tables    string
	Columns   string
	Routines  string
}

// Queries returns the introspection query set for a dialect with
// SupportsInformationSchema set. Dialects without one introspect
// through the minimal statements further down in this file.
func Queries(name string) (QuerySet, bool) {
	qs, ok := querySets[name]
	return qs, ok
}

var querySets = map[string]QuerySet{
	Postgres: postgresQueries,
	Redshift: postgresQueries,
	MySQL: {
		Databases: `
			SELECT schema_name
			FROM information_schema.schemata
			WHERE schema_name NOT IN ('mysql', 'information_schema', 'performance_schema', 'sys')
			ORDER BY schema_name`,
		Schemas: `
			SELECT schema_name
			FROM information_schema.schemata
			WHERE schema_name NOT IN ('mysql', 'information_schema', 'performance_schema', 'sys')
			ORDER BY schema_name`,
		Tables: `
			SELECT table_schema, table_name, table_type
			FROM information_schema.tables
			WHERE table_schema = DATABASE()
			ORDER BY table_schema, table_name`,
		Columns: `
			SELECT table_schema, table_name, column_name, data_type
			FROM information_schema.columns
			WHERE table_schema = DATABASE()
			ORDER BY table_schema, table_name, ordinal_position`,
		Routines: `
			SELECT routine_schema, routine_name, routine_type
			FROM information_schema.routines
			WHERE routine_schema = DATABASE()
			ORDER BY routine_schema, routine_name`,
	},
	SQLServer: {
		Databases: `
			SELECT name
			FROM sys.databases
			WHERE name NOT IN ('master', 'tempdb', 'model', 'msdb')
			ORDER BY name`,
		Schemas: `
			SELECT schema_name
			FROM information_schema.schemata
			WHERE schema_name NOT IN ('sys', 'INFORMATION_SCHEMA', 'guest')
			ORDER BY schema_name`,
		Tables: `
			SELECT table_schema, table_name, table_type
			FROM information_schema.tables
			ORDER BY table_schema, table_name`,
		Columns: `
			SELECT table_schema, table_name, column_name, data_type
			FROM information_schema.columns
			ORDER BY table_schema, table_name, ordinal_position`,
		Routines: `
			SELECT routine_schema, routine_name, routine_type
			FROM information_schema.routines
			ORDER BY routine_schema, routine_name`,
	},
}

// Redshift descends from Postgres 8 and shares its catalog layout.
var postgresQueries = QuerySet{
	Databases: `
		SELECT datname
		FROM pg_database
		WHERE datistemplate = false
		ORDER BY datname`,
	Schemas: `
		SELECT schema_name
		FROM information_schema.schemata
		WHERE schema_name NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		ORDER BY schema_name`,
	Tables: `
		SELECT table_schema, table_name, table_type
		FROM information_schema.tables
		WHERE table_schema NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		ORDER BY table_schema, table_name`,
	Columns: `
		SELECT table_schema, table_name, column_name, data_type
		FROM information_schema.columns
		WHERE table_schema NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		ORDER BY table_schema, table_name, ordinal_position`,
	Routines: `
		SELECT routine_schema, routine_name, routine_type
		FROM information_schema.routines
		WHERE routine_schema NOT IN ('pg_catalog', 'information_schema')
		ORDER BY routine_schema, routine_name`,
}

// Minimal introspection statements for dialects without an
// information_schema. SQLite reads sqlite_master plus PRAGMA
// table_info per table; Oracle reads the user_* views.
const (
	SQLiteObjects = `
		SELECT name, type
		FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		ORDER BY name`

	OracleTables = `
		SELECT table_name FROM user_tables ORDER BY table_name`

	OracleViews = `
		SELECT view_name FROM user_views ORDER BY view_name`

	OracleColumns = `
		SELECT table_name, column_name, data_type
		FROM user_tab_columns
		ORDER BY table_name, column_id`

	OracleRoutines = `
		SELECT object_name FROM user_procedures ORDER BY object_name`
)
