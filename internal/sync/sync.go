// Package sync implements the database synchronization workflow, the
// core of pgsqlmgr.
//
// A sync is a sequence of shell invocations: pre-flight availability
// checks on both hosts (with optional auto-remediation), pg_dump on the
// source, scp transfer when either side is remote, createdb/psql restore
// on the destination, verification, and temp file cleanup. There is no
// concurrency: each step must succeed before the next runs.
package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dominicchang/pgsqlmgr/internal/config"
	"github.com/dominicchang/pgsqlmgr/internal/host"
	"github.com/dominicchang/pgsqlmgr/internal/pg"
)

// Options configures one sync run.
type Options struct {
	// Database is the database to synchronize.
	Database string

	// DropExisting drops the destination database before restoring.
	DropExisting bool

	// SchemaOnly and DataOnly restrict what pg_dump serializes. They
	// are mutually exclusive.
	SchemaOnly bool
	DataOnly   bool

	// AutoInstall remediates missing installations and stopped services
	// without asking.
	AutoInstall bool

	// KeepDump leaves the dump file in the temp directory after a
	// successful sync.
	KeepDump bool

	// TempDir overrides the local staging directory
	// (default ~/.pgsqlmgr/temp).
	TempDir string
}

func (o Options) validate() error {
	if err := pg.ValidDatabaseName(o.Database); err != nil {
		return err
	}
	if o.SchemaOnly && o.DataOnly {
		return fmt.Errorf("--data-only and --schema-only are mutually exclusive")
	}
	return nil
}

func (o Options) dumpOptions() pg.DumpOptions {
	return pg.DumpOptions{SchemaOnly: o.SchemaOnly, DataOnly: o.DataOnly}
}

// Mode describes what a sync will copy, for plans and messages.
func (o Options) Mode() string {
	switch {
	case o.SchemaOnly:
		return "schema only"
	case o.DataOnly:
		return "data only"
	default:
		return "full sync (schema + data)"
	}
}

// Syncer copies one database between two hosts.
type Syncer struct {
	source *pg.Client
	dest   *pg.Client

	// Progress receives step descriptions as the sync advances. Nil
	// disables progress reporting.
	Progress func(string)

	// Confirm asks the operator to approve a remediation (install
	// PostgreSQL, start the service). Nil declines everything, so
	// non-interactive runs fail fast with the remediation command in
	// the error.
	Confirm func(prompt string) bool
}

// New creates a syncer between a source and destination runner.
func New(source, dest host.Runner) *Syncer {
	return &Syncer{
		source: pg.NewClient(source),
		dest:   pg.NewClient(dest),
	}
}

func (s *Syncer) progress(msg string) {
	if s.Progress != nil {
		s.Progress(msg)
	}
}

// Plan returns the steps a sync would take, for --dry-run output.
func (s *Syncer) Plan(opts Options) []string {
	src, dst := s.source.Runner(), s.dest.Runner()

	steps := []string{
		fmt.Sprintf("verify PostgreSQL availability on %s and %s", src.Name(), dst.Name()),
	}
	if opts.DropExisting {
		steps = append(steps, fmt.Sprintf("drop existing database %q on %s", opts.Database, dst.Name()))
	}
	steps = append(steps, fmt.Sprintf("dump database %q on %s (%s)", opts.Database, src.Name(), opts.Mode()))
	if src.Kind() == host.KindSSH {
		steps = append(steps, fmt.Sprintf("download dump from %s via scp", src.Name()))
	}
	if dst.Kind() == host.KindSSH {
		steps = append(steps, fmt.Sprintf("upload dump to %s via scp", dst.Name()))
	}
	steps = append(steps,
		fmt.Sprintf("restore database %q on %s", opts.Database, dst.Name()),
		"verify the restored database and clean up temp files",
	)
	return steps
}

// Sync copies the database from source to destination.
func (s *Syncer) Sync(ctx context.Context, opts Options) error {
	if err := opts.validate(); err != nil {
		return err
	}

	src, dst := s.source.Runner(), s.dest.Runner()
	if src.Name() == dst.Name() {
		return fmt.Errorf("source and destination hosts cannot be the same")
	}

	// Pre-flight both sides before touching anything.
	s.progress("Checking PostgreSQL availability on " + src.Name())
	if err := s.ensureAvailable(ctx, s.source, opts.AutoInstall); err != nil {
		return fmt.Errorf("source host %s: %w", src.Name(), err)
	}
	s.progress("Checking PostgreSQL availability on " + dst.Name())
	if err := s.ensureAvailable(ctx, s.dest, opts.AutoInstall); err != nil {
		return fmt.Errorf("destination host %s: %w", dst.Name(), err)
	}

	exists, err := s.source.DatabaseExists(ctx, opts.Database)
	if err != nil {
		return fmt.Errorf("checking source database: %w", err)
	}
	if !exists {
		return fmt.Errorf("database %q does not exist on source host %s", opts.Database, src.Name())
	}

	srcTables, err := s.source.TableCount(ctx, opts.Database)
	if err != nil {
		return fmt.Errorf("counting source tables: %w", err)
	}

	if opts.DropExisting {
		s.progress(fmt.Sprintf("Dropping existing database %q on %s", opts.Database, dst.Name()))
		if err := s.dest.DropDatabase(ctx, opts.Database); err != nil {
			return err
		}
	}

	localDump, err := s.localDumpPath(opts)
	if err != nil {
		return err
	}

	// Dump on the source, staging through a remote temp file when the
	// source is SSH-reachable.
	s.progress(fmt.Sprintf("Dumping database %q on %s", opts.Database, src.Name()))
	cleanups := []func(){}
	defer func() {
		for _, fn := range cleanups {
			fn()
		}
	}()

	if src.Kind() == host.KindSSH {
		remoteDump := src.TempPath(opts.Database + "_dump.sql")
		if err := s.source.Dump(ctx, opts.Database, remoteDump, opts.dumpOptions()); err != nil {
			return err
		}
		cleanups = append(cleanups, func() { _ = s.source.RemoveFile(context.Background(), remoteDump) })

		s.progress("Downloading dump from " + src.Name())
		if err := src.CopyFrom(ctx, remoteDump, localDump); err != nil {
			return err
		}
	} else {
		if err := s.source.Dump(ctx, opts.Database, localDump, opts.dumpOptions()); err != nil {
			return err
		}
	}
	if !opts.KeepDump {
		cleanups = append(cleanups, func() { _ = os.Remove(localDump) })
	}

	// Restore on the destination, staging through a remote temp file
	// when the destination is SSH-reachable.
	restorePath := localDump
	if dst.Kind() == host.KindSSH {
		restorePath = dst.TempPath(opts.Database + "_dump.sql")
		s.progress("Uploading dump to " + dst.Name())
		if err := dst.CopyTo(ctx, localDump, restorePath); err != nil {
			return err
		}
		cleanups = append(cleanups, func() { _ = s.dest.RemoveFile(context.Background(), restorePath) })
	}

	s.progress(fmt.Sprintf("Restoring database %q on %s", opts.Database, dst.Name()))
	if err := s.dest.Restore(ctx, opts.Database, restorePath); err != nil {
		return err
	}

	s.progress("Verifying restored database")
	if err := s.verify(ctx, opts, srcTables); err != nil {
		return err
	}

	return nil
}

// verify checks that the destination database exists and, for syncs that
// carry schema, that it has the same number of user tables as the source.
func (s *Syncer) verify(ctx context.Context, opts Options, srcTables int) error {
	exists, err := s.dest.DatabaseExists(ctx, opts.Database)
	if err != nil {
		return fmt.Errorf("verifying destination database: %w", err)
	}
	if !exists {
		return fmt.Errorf("destination database %q missing after restore", opts.Database)
	}

	if opts.DataOnly {
		return nil // data-only syncs do not change the table set
	}

	dstTables, err := s.dest.TableCount(ctx, opts.Database)
	if err != nil {
		return fmt.Errorf("counting destination tables: %w", err)
	}
	if dstTables != srcTables {
		return fmt.Errorf("verification failed: source has %d tables, destination has %d", srcTables, dstTables)
	}
	return nil
}

func (s *Syncer) localDumpPath(opts Options) (string, error) {
	dir := opts.TempDir
	if dir == "" {
		dir = filepath.Join(config.DefaultDir(), "temp")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating temp directory %s: %w", dir, err)
	}
	return filepath.Join(dir, opts.Database+"_dump.sql"), nil
}

// BackupPath returns a timestamped backup file name for a database.
func BackupPath(dir, database string, now time.Time) string {
	name := fmt.Sprintf("%s_backup_%s.sql", database, now.Format("20060102_150405"))
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// CreateBackup dumps a database on any host type to a local file. SSH
// hosts stage through a remote temp file.
func CreateBackup(ctx context.Context, client *pg.Client, database, localPath string) error {
	r := client.Runner()
	if r.Kind() == host.KindSSH {
		remote := r.TempPath(database + "_backup.sql")
		if err := client.Dump(ctx, database, remote, pg.DumpOptions{}); err != nil {
			return err
		}
		defer func() { _ = client.RemoveFile(context.Background(), remote) }()
		return r.CopyFrom(ctx, remote, localPath)
	}
	return client.Dump(ctx, database, localPath, pg.DumpOptions{})
}
