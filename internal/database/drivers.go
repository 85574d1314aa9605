package database

// Driver registrations. The mysql and go-ora packages are imported
// for their DSN builders in dsn.go and register themselves there.
import (
	_ "github.com/jackc/pgx/v5/stdlib"    // pgx (postgres)
	_ "github.com/lib/pq"                 // postgres (redshift)
	_ "github.com/microsoft/go-mssqldb"   // sqlserver
	_ "modernc.org/sqlite"                // sqlite
)
