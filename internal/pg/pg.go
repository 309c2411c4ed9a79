// Package pg implements PostgreSQL operations on top of a host runner.
//
// Every operation shells out to the standard client tools (psql, pg_dump,
// createdb, dropdb) and parses their pipe-delimited output. Queries run
// with --tuples-only --no-align --field-separator=| so rows come back as
// plain pipe-separated text regardless of locale or psql version.
package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/dominicchang/pgsqlmgr/internal/host"
)

// SystemDatabases are never listed by default and never dropped.
var SystemDatabases = map[string]bool{
	"postgres":  true,
	"template0": true,
	"template1": true,
}

// Client issues PostgreSQL operations against one host.
type Client struct {
	runner host.Runner
}

// NewClient creates a client for the given runner.
func NewClient(r host.Runner) *Client {
	return &Client{runner: r}
}

// Runner exposes the underlying runner.
func (c *Client) Runner() host.Runner {
	return c.runner
}

// tupleArgs make psql emit machine-parseable rows.
var tupleArgs = []string{"--tuples-only", "--no-align", "--field-separator=|"}

// query runs a SQL statement against the named database and returns raw
// psql output.
func (c *Client) query(ctx context.Context, database, sql string) ([]byte, error) {
	args := append([]string{"--dbname", database}, tupleArgs...)
	args = append(args, "--command", sql)

	out, err := c.runner.RunPG(ctx, host.DefaultTimeout, "psql", args...)
	if err != nil {
		return nil, c.withAuthHelp(err)
	}
	return out, nil
}

// withAuthHelp appends .pgpass setup guidance to authentication errors.
func (c *Client) withAuthHelp(err error) error {
	if !errors.Is(err, host.ErrAuthFailed) {
		return err
	}

	cfg := c.runner.Config()
	switch c.runner.Kind() {
	case host.KindSSH:
		return fmt.Errorf("%w\nauthentication help: verify SSH access via ~/.ssh/config and that user %q has permissions on the remote PostgreSQL", err, cfg.User)
	default:
		return fmt.Errorf("%w\nauthentication help: add '%s:%d:*:%s:<password>' to ~/.pgpass and run: chmod 600 ~/.pgpass", err, cfg.Host, cfg.Port, cfg.User)
	}
}

// Version returns the psql client version on the host, e.g.
// "psql (PostgreSQL) 16.2".
func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := c.runner.RunPG(ctx, host.DefaultTimeout, "psql", "--version")
	if err != nil {
		return "", err
	}

	lines := host.ParseLines(out)
	if len(lines) == 0 {
		return "", fmt.Errorf("psql --version produced no output")
	}
	return lines[0], nil
}

// Reachable checks that the server accepts connections by listing
// databases. It distinguishes "tools missing" and "server down" via the
// host sentinel errors.
func (c *Client) Reachable(ctx context.Context) error {
	args := append([]string{"--list"}, tupleArgs...)
	_, err := c.runner.RunPG(ctx, host.DefaultTimeout, "psql", args...)
	return c.withAuthHelp(err)
}

func quoteLiteral(s string) string {
	out := ""
	for _, r := range s {
		if r == '\'' {
			out += "''"
		} else {
			out += string(r)
		}
	}
	return "'" + out + "'"
}

// quoteIdent double-quotes an SQL identifier.
func quoteIdent(s string) string {
	out := ""
	for _, r := range s {
		if r == '"' {
			out += `""`
		} else {
			out += string(r)
		}
	}
	return `"` + out + `"`
}

// ValidDatabaseName rejects empty and obviously malformed database names
// before they reach a command line.
func ValidDatabaseName(name string) error {
	if name == "" {
		return errors.New("database name cannot be empty")
	}
	for _, r := range name {
		if r == ';' || r == '\'' || r == '"' || r == '\n' {
			return fmt.Errorf("database name %q contains invalid characters", name)
		}
	}
	return nil
}

// describeHost renders the host for messages.
func describeHost(r host.Runner) string {
	return fmt.Sprintf("%s (%s)", r.Name(), r.Label())
}
