package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/joacominatel/sqldesk/internal/dialect"
)

// Querier is the slice of the connection the builder needs.
// *database.Conn satisfies it.
type Querier interface {
	Descriptor() dialect.Descriptor
	DatabaseName() string
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Build introspects the connected backend and returns a fresh index.
// Backends with information_schema support get the full catalog;
// others degrade to whatever minimal metadata the driver exposes,
// possibly an empty index. An empty catalog is policy, not an error.
// Build is idempotent and safe to invoke repeatedly.
func Build(ctx context.Context, conn Querier) (*Index, error) {
	desc := conn.Descriptor()
	if desc.SupportsInformationSchema {
		return buildInformationSchema(ctx, conn, desc)
	}
	switch desc.Name {
	case dialect.SQLite:
		return buildSQLite(ctx, conn, desc)
	case dialect.Oracle:
		return buildOracle(ctx, conn, desc)
	default:
		return NewIndex(desc.Name, nil), nil
	}
}

func buildInformationSchema(ctx context.Context, conn Querier, desc dialect.Descriptor) (*Index, error) {
	qs, ok := dialect.Queries(desc.Name)
	if !ok {
		return NewIndex(desc.Name, nil), nil
	}
	dbName := conn.DatabaseName()

	var objects []Object

	// Databases and routines are best-effort: not every backend role
	// may list them, and the index is still useful without them.
	if names, err := stringColumn(ctx, conn, qs.Databases); err == nil {
		seen := false
		for _, name := range names {
			if strings.EqualFold(name, dbName) {
				seen = true
			}
			objects = append(objects, Object{Name: name, Qualified: name, Kind: KindDatabase})
		}
		if !seen && dbName != "" {
			objects = append(objects, Object{Name: dbName, Qualified: dbName, Kind: KindDatabase})
		}
	} else if dbName != "" {
		objects = append(objects, Object{Name: dbName, Qualified: dbName, Kind: KindDatabase})
	}

	schemas, err := stringColumn(ctx, conn, qs.Schemas)
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}
	for _, s := range schemas {
		objects = append(objects, Object{
			Name:      s,
			Qualified: qualify(dbName, s),
			Kind:      KindSchema,
			Parent:    dbName,
		})
	}

	tableIdx := map[string]int{}
	rows, err := conn.Query(ctx, qs.Tables)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	if err := scanRows(rows, 3, func(vals []string) {
		kind := KindTable
		if strings.Contains(strings.ToUpper(vals[2]), "VIEW") {
			kind = KindView
		}
		q := qualify(dbName, vals[0], vals[1])
		tableIdx[strings.ToLower(q)] = len(objects)
		objects = append(objects, Object{
			Name:      vals[1],
			Qualified: q,
			Kind:      kind,
			Parent:    qualify(dbName, vals[0]),
		})
	}); err != nil {
		return nil, fmt.Errorf("scan tables: %w", err)
	}

	rows, err = conn.Query(ctx, qs.Columns)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	if err := scanRows(rows, 4, func(vals []string) {
		parent := qualify(dbName, vals[0], vals[1])
		if idx, ok := tableIdx[strings.ToLower(parent)]; ok {
			objects[idx].Columns = append(objects[idx].Columns, Column{Name: vals[2], TypeName: vals[3]})
		}
		objects = append(objects, Object{
			Name:      vals[2],
			Qualified: parent + "." + vals[2],
			Kind:      KindColumn,
			Parent:    parent,
		})
	}); err != nil {
		return nil, fmt.Errorf("scan columns: %w", err)
	}

	if rows, err := conn.Query(ctx, qs.Routines); err == nil {
		_ = scanRows(rows, 3, func(vals []string) {
			objects = append(objects, Object{
				Name:      vals[1],
				Qualified: qualify(dbName, vals[0], vals[1]),
				Kind:      KindRoutine,
				Parent:    qualify(dbName, vals[0]),
			})
		})
	}

	return NewIndex(desc.Name, objects), nil
}

// buildSQLite reads sqlite_master and PRAGMA table_info. SQLite has a
// single implicit schema, published here as "main".
func buildSQLite(ctx context.Context, conn Querier, desc dialect.Descriptor) (*Index, error) {
	dbName := conn.DatabaseName()
	var objects []Object
	objects = append(objects,
		Object{Name: dbName, Qualified: dbName, Kind: KindDatabase},
		Object{Name: "main", Qualified: qualify(dbName, "main"), Kind: KindSchema, Parent: dbName},
	)

	type entry struct {
		name string
		kind Kind
	}
	var entries []entry
	rows, err := conn.Query(ctx, dialect.SQLiteObjects)
	if err != nil {
		// Nothing discoverable; degrade to an empty catalog.
		return NewIndex(desc.Name, nil), nil
	}
	if err := scanRows(rows, 2, func(vals []string) {
		kind := KindTable
		if strings.EqualFold(vals[1], "view") {
			kind = KindView
		}
		entries = append(entries, entry{name: vals[0], kind: kind})
	}); err != nil {
		return nil, fmt.Errorf("scan sqlite_master: %w", err)
	}

	for _, e := range entries {
		q := qualify(dbName, "main", e.name)
		obj := Object{
			Name:      e.name,
			Qualified: q,
			Kind:      e.kind,
			Parent:    qualify(dbName, "main"),
		}
		cols, err := sqliteColumns(ctx, conn, desc, e.name)
		if err == nil {
			obj.Columns = cols
			for _, col := range cols {
				objects = append(objects, Object{
					Name:      col.Name,
					Qualified: q + "." + col.Name,
					Kind:      KindColumn,
					Parent:    q,
				})
			}
		}
		objects = append(objects, obj)
	}
	return NewIndex(desc.Name, objects), nil
}

func sqliteColumns(ctx context.Context, conn Querier, desc dialect.Descriptor, table string) ([]Column, error) {
	rows, err := conn.Query(ctx, "PRAGMA table_info("+desc.Quote(table)+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     sql.NullString
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, Column{Name: name, TypeName: typ.String})
	}
	return cols, rows.Err()
}

// buildOracle reads the user_* views for the connected schema.
func buildOracle(ctx context.Context, conn Querier, desc dialect.Descriptor) (*Index, error) {
	dbName := conn.DatabaseName()
	var objects []Object
	objects = append(objects, Object{Name: dbName, Qualified: dbName, Kind: KindDatabase})

	type entry struct {
		name string
		kind Kind
	}
	var entries []entry
	tables, err := stringColumn(ctx, conn, dialect.OracleTables)
	if err != nil {
		return NewIndex(desc.Name, nil), nil
	}
	for _, t := range tables {
		entries = append(entries, entry{name: t, kind: KindTable})
	}
	if views, err := stringColumn(ctx, conn, dialect.OracleViews); err == nil {
		for _, v := range views {
			entries = append(entries, entry{name: v, kind: KindView})
		}
	}

	tableIdx := map[string]int{}
	for _, e := range entries {
		q := qualify(dbName, e.name)
		tableIdx[strings.ToLower(e.name)] = len(objects)
		objects = append(objects, Object{
			Name:      e.name,
			Qualified: q,
			Kind:      e.kind,
			Parent:    dbName,
		})
	}

	if rows, err := conn.Query(ctx, dialect.OracleColumns); err == nil {
		_ = scanRows(rows, 3, func(vals []string) {
			if idx, ok := tableIdx[strings.ToLower(vals[0])]; ok {
				objects[idx].Columns = append(objects[idx].Columns, Column{Name: vals[1], TypeName: vals[2]})
				objects = append(objects, Object{
					Name:      vals[1],
					Qualified: objects[idx].Qualified + "." + vals[1],
					Kind:      KindColumn,
					Parent:    objects[idx].Qualified,
				})
			}
		})
	}
	if routines, err := stringColumn(ctx, conn, dialect.OracleRoutines); err == nil {
		for _, r := range routines {
			objects = append(objects, Object{
				Name:      r,
				Qualified: qualify(dbName, r),
				Kind:      KindRoutine,
				Parent:    dbName,
			})
		}
	}
	return NewIndex(desc.Name, objects), nil
}

func qualify(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ".")
}

func stringColumn(ctx context.Context, conn Querier, query string) ([]string, error) {
	rows, err := conn.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// scanRows scans width string columns per row, tolerating NULLs, and
// hands each row to fn. It always closes rows.
func scanRows(rows *sql.Rows, width int, fn func(vals []string)) error {
	defer rows.Close()
	for rows.Next() {
		raw := make([]sql.NullString, width)
		ptrs := make([]any, width)
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		vals := make([]string, width)
		for i, v := range raw {
			vals[i] = v.String
		}
		fn(vals)
	}
	return rows.Err()
}
