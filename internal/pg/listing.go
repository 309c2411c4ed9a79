package pg

import (
	"context"
	"fmt"
	"strings"

	"github.com/dominicchang/pgsqlmgr/internal/host"
)

// Database summarizes one row of psql --list output.
type Database struct {
	Name             string
	Owner            string
	Encoding         string
	Collate          string
	Ctype            string
	AccessPrivileges string
	Size             string
}

// Table summarizes one user table.
type Table struct {
	// Database is set when listing across databases, empty otherwise.
	Database    string
	Schema      string
	Name        string
	Owner       string
	Size        string
	RowEstimate string
}

// Role summarizes one pg_roles row.
type Role struct {
	Name       string
	Superuser  bool
	CreateRole bool
	CreateDB   bool
	CanLogin   bool
	// ConnLimit is "Unlimited" when the role has no limit (-1).
	ConnLimit  string
	ValidUntil string
}

// ListDatabases lists databases on the host. System databases (postgres,
// template0, template1) are filtered out unless includeSystem is set.
func (c *Client) ListDatabases(ctx context.Context, includeSystem bool) ([]Database, error) {
	args := append([]string{"--list"}, tupleArgs...)
	out, err := c.runner.RunPG(ctx, host.DefaultTimeout, "psql", args...)
	if err != nil {
		return nil, c.withAuthHelp(err)
	}

	var dbs []Database
	for _, row := range host.ParsePipeRows(out, 6) {
		name := row[0]
		if name == "" {
			continue // continuation rows for multi-line ACLs
		}
		if !includeSystem && SystemDatabases[name] {
			continue
		}

		db := Database{
			Name:             name,
			Owner:            row[1],
			Encoding:         row[2],
			Collate:          row[3],
			Ctype:            row[4],
			AccessPrivileges: row[len(row)-1],
			Size:             c.databaseSize(ctx, name),
		}
		if db.AccessPrivileges == "" {
			db.AccessPrivileges = "None"
		}
		dbs = append(dbs, db)
	}

	return dbs, nil
}

func (c *Client) databaseSize(ctx context.Context, name string) string {
	out, err := c.query(ctx, name,
		fmt.Sprintf("SELECT pg_size_pretty(pg_database_size(%s));", quoteLiteral(name)))
	if err != nil {
		return "Unknown"
	}

	lines := host.ParseLines(out)
	if len(lines) == 0 {
		return "Unknown"
	}
	return lines[0]
}

const listTablesSQL = `SELECT
    pt.schemaname,
    pt.tablename,
    pt.tableowner,
    pg_size_pretty(pg_total_relation_size(pt.schemaname||'.'||pt.tablename)),
    pg_stat_get_tuples_returned(c.oid)
FROM pg_tables pt
JOIN pg_class c ON c.relname = pt.tablename
%s
ORDER BY pt.schemaname, pt.tablename;`

// ListTables lists tables in one database, or in every user database when
// database is empty. Per-database failures during the all-databases walk
// are reported through warn and do not abort the listing.
func (c *Client) ListTables(ctx context.Context, database string, includeSystem bool, warn func(string)) ([]Table, error) {
	if database != "" {
		return c.listTablesIn(ctx, database, includeSystem, false)
	}

	dbs, err := c.ListDatabases(ctx, false)
	if err != nil {
		return nil, err
	}

	var all []Table
	for _, db := range dbs {
		tables, err := c.listTablesIn(ctx, db.Name, includeSystem, true)
		if err != nil {
			if warn != nil {
				warn(fmt.Sprintf("could not list tables for database %q: %v", db.Name, err))
			}
			continue
		}
		all = append(all, tables...)
	}
	return all, nil
}

func (c *Client) listTablesIn(ctx context.Context, database string, includeSystem, tagDatabase bool) ([]Table, error) {
	where := "WHERE pt.schemaname NOT IN ('information_schema', 'pg_catalog')"
	if includeSystem {
		where = ""
	}

	out, err := c.query(ctx, database, fmt.Sprintf(listTablesSQL, where))
	if err != nil {
		return nil, err
	}

	var tables []Table
	for _, row := range host.ParsePipeRows(out, 5) {
		t := Table{
			Schema:      row[0],
			Name:        row[1],
			Owner:       row[2],
			Size:        row[3],
			RowEstimate: row[4],
		}
		if tagDatabase {
			t.Database = database
		}
		tables = append(tables, t)
	}
	return tables, nil
}

const listRolesSQL = `SELECT
    rolname,
    rolsuper,
    rolcreaterole,
    rolcreatedb,
    rolcanlogin,
    rolconnlimit,
    rolvaliduntil
FROM pg_roles
ORDER BY rolname;`

// ListRoles lists all roles on the host.
func (c *Client) ListRoles(ctx context.Context) ([]Role, error) {
	out, err := c.query(ctx, "postgres", listRolesSQL)
	if err != nil {
		return nil, err
	}

	var roles []Role
	for _, row := range host.ParsePipeRows(out, 7) {
		r := Role{
			Name:       row[0],
			Superuser:  parseBool(row[1]),
			CreateRole: parseBool(row[2]),
			CreateDB:   parseBool(row[3]),
			CanLogin:   parseBool(row[4]),
			ConnLimit:  row[5],
			ValidUntil: row[6],
		}
		if r.ConnLimit == "-1" || r.ConnLimit == "" {
			r.ConnLimit = "Unlimited"
		}
		if r.ValidUntil == "" {
			r.ValidUntil = "Never"
		}
		roles = append(roles, r)
	}
	return roles, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "t", "true":
		return true
	default:
		return false
	}
}

// Preview holds a limited sample of table rows. Values is row-major; a
// nil cell marks SQL NULL.
type Preview struct {
	Columns []string
	Rows    [][]string
}

// PreviewTable fetches column names and up to limit rows from a table.
func (c *Client) PreviewTable(ctx context.Context, database, table, schema string, limit int) (*Preview, error) {
	if schema == "" {
		schema = "public"
	}
	if limit <= 0 {
		limit = 10
	}

	colSQL := fmt.Sprintf(
		"SELECT column_name FROM information_schema.columns WHERE table_name = %s AND table_schema = %s ORDER BY ordinal_position;",
		quoteLiteral(table), quoteLiteral(schema))

	out, err := c.query(ctx, database, colSQL)
	if err != nil {
		return nil, err
	}

	columns := host.ParseLines(out)
	if len(columns) == 0 {
		return nil, fmt.Errorf("no columns found for table %s.%s", schema, table)
	}

	dataSQL := fmt.Sprintf("SELECT * FROM %s.%s ORDER BY 1 LIMIT %d;",
		quoteIdent(schema), quoteIdent(table), limit)

	out, err = c.query(ctx, database, dataSQL)
	if err != nil {
		return nil, err
	}

	p := &Preview{Columns: columns}
	for _, line := range host.ParseLines(out) {
		if !strings.Contains(line, "|") && len(columns) > 1 {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) != len(columns) {
			continue
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		p.Rows = append(p.Rows, fields)
	}

	return p, nil
}
