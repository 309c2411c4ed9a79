package pg

import (
	"context"
	"fmt"

	"github.com/dominicchang/pgsqlmgr/internal/host"
)

// Info describes one database in detail, for confirmation screens and
// the delete workflow.
type Info struct {
	Exists            bool
	Name              string
	Owner             string
	Encoding          string
	Collate           string
	Ctype             string
	Size              string
	ConnectionLimit   string
	ActiveConnections string
}

const databaseInfoSQL = `SELECT
    d.datname,
    pg_catalog.pg_get_userbyid(d.datdba),
    pg_catalog.pg_encoding_to_char(d.encoding),
    d.datcollate,
    d.datctype,
    pg_catalog.pg_size_pretty(pg_catalog.pg_database_size(d.datname)),
    d.datconnlimit,
    (SELECT count(*) FROM pg_stat_activity WHERE datname = d.datname)
FROM pg_catalog.pg_database d
WHERE d.datname = %s;`

// DatabaseInfo fetches detailed information about one database. A
// non-existing database yields Info{Exists: false} without error.
func (c *Client) DatabaseInfo(ctx context.Context, name string) (*Info, error) {
	if err := ValidDatabaseName(name); err != nil {
		return nil, err
	}

	out, err := c.query(ctx, "postgres", fmt.Sprintf(databaseInfoSQL, quoteLiteral(name)))
	if err != nil {
		return nil, err
	}

	rows := host.ParsePipeRows(out, 8)
	if len(rows) == 0 {
		return &Info{Exists: false, Name: name}, nil
	}

	row := rows[0]
	info := &Info{
		Exists:            true,
		Name:              row[0],
		Owner:             row[1],
		Encoding:          row[2],
		Collate:           row[3],
		Ctype:             row[4],
		Size:              row[5],
		ConnectionLimit:   row[6],
		ActiveConnections: row[7],
	}
	if info.ConnectionLimit == "-1" {
		info.ConnectionLimit = "Unlimited"
	}
	return info, nil
}

// DatabaseExists reports whether the named database exists.
func (c *Client) DatabaseExists(ctx context.Context, name string) (bool, error) {
	info, err := c.DatabaseInfo(ctx, name)
	if err != nil {
		return false, err
	}
	return info.Exists, nil
}

// TableCount returns the number of user tables in a database, used for
// post-sync verification.
func (c *Client) TableCount(ctx context.Context, database string) (int, error) {
	out, err := c.query(ctx, database,
		"SELECT count(*) FROM pg_tables WHERE schemaname NOT IN ('information_schema', 'pg_catalog');")
	if err != nil {
		return 0, err
	}

	lines := host.ParseLines(out)
	if len(lines) == 0 {
		return 0, fmt.Errorf("table count query produced no output")
	}

	var n int
	if _, err := fmt.Sscanf(lines[0], "%d", &n); err != nil {
		return 0, fmt.Errorf("parsing table count %q: %w", lines[0], err)
	}
	return n, nil
}
