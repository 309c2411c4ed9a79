package pg

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dominicchang/pgsqlmgr/internal/host"
)

// CreateDatabase creates a database via createdb.
func (c *Client) CreateDatabase(ctx context.Context, name string) error {
	if err := ValidDatabaseName(name); err != nil {
		return err
	}

	_, err := c.runner.RunPG(ctx, host.DefaultTimeout, "createdb", name)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		return fmt.Errorf("creating database %q on %s: %w", name, describeHost(c.runner), c.withAuthHelp(err))
	}
	return nil
}

// DropDatabase drops a database via dropdb --if-exists. System databases
// are refused. A database that is already gone counts as success.
func (c *Client) DropDatabase(ctx context.Context, name string) error {
	if err := ValidDatabaseName(name); err != nil {
		return err
	}
	if SystemDatabases[strings.ToLower(name)] {
		return fmt.Errorf("cannot delete system database %q", name)
	}

	_, err := c.runner.RunPG(ctx, time.Minute, "dropdb", "--if-exists", name)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "does not exist") {
			return nil
		}
		return fmt.Errorf("deleting database %q on %s: %w", name, describeHost(c.runner), c.withAuthHelp(err))
	}
	return nil
}

// DumpOptions selects what pg_dump serializes.
type DumpOptions struct {
	SchemaOnly bool
	DataOnly   bool
}

func (o DumpOptions) args() []string {
	switch {
	case o.SchemaOnly:
		return []string{"--schema-only"}
	case o.DataOnly:
		return []string{"--data-only"}
	default:
		return nil
	}
}

// Dump serializes a database to a SQL file at a host-side path.
func (c *Client) Dump(ctx context.Context, database, path string, opts DumpOptions) error {
	if err := ValidDatabaseName(database); err != nil {
		return err
	}

	args := append(opts.args(), "--file", path, database)
	_, err := c.runner.RunPG(ctx, host.DumpTimeout, "pg_dump", args...)
	if err != nil {
		return fmt.Errorf("dumping database %q on %s: %w", database, describeHost(c.runner), c.withAuthHelp(err))
	}
	return nil
}

// Restore replays a SQL dump into a database, creating the database
// first when it does not exist.
func (c *Client) Restore(ctx context.Context, database, path string) error {
	if err := ValidDatabaseName(database); err != nil {
		return err
	}

	exists, err := c.DatabaseExists(ctx, database)
	if err != nil {
		return err
	}
	if !exists {
		if err := c.CreateDatabase(ctx, database); err != nil {
			return err
		}
	}

	// Without ON_ERROR_STOP psql exits 0 even when statements in the
	// dump fail, which would report a broken restore as success.
	args := []string{"--dbname", database, "--set", "ON_ERROR_STOP=1", "--file", path, "--quiet"}
	if _, err := c.runner.RunPG(ctx, host.DumpTimeout, "psql", args...); err != nil {
		return fmt.Errorf("restoring database %q on %s: %w", database, describeHost(c.runner), c.withAuthHelp(err))
	}
	return nil
}

// RemoveFile deletes a host-side file, used for dump cleanup.
func (c *Client) RemoveFile(ctx context.Context, path string) error {
	switch c.runner.Kind() {
	case host.KindSSH:
		_, err := c.runner.RunShell(ctx, host.DefaultTimeout, "rm -f "+host.ShellQuote(path))
		return err
	default:
		_, err := c.runner.Run(ctx, host.DefaultTimeout, "rm", "-f", path)
		return err
	}
}
