package sync

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dominicchang/pgsqlmgr/internal/config"
	"github.com/dominicchang/pgsqlmgr/internal/host"
)

// fakeHost simulates one host's PostgreSQL state well enough for the
// sync workflow: which databases exist, how many tables they have, and
// whether the server accepts connections.
type fakeHost struct {
	name      string
	kind      host.Kind
	databases map[string]int // name -> table count
	refused   bool           // server not accepting connections

	calls []string
}

func newFakeHost(name string, databases map[string]int) *fakeHost {
	if databases == nil {
		databases = map[string]int{}
	}
	return &fakeHost{name: name, kind: host.KindLocal, databases: databases}
}

func (f *fakeHost) Name() string    { return f.name }
func (f *fakeHost) Kind() host.Kind { return f.kind }
func (f *fakeHost) Label() string   { return f.name }
func (f *fakeHost) Config() config.Host {
	return config.Host{Type: config.TypeLocal, Host: "localhost", Port: 5432, User: "postgres"}
}

func (f *fakeHost) record(s string) { f.calls = append(f.calls, s) }

func (f *fakeHost) Run(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error) {
	f.record(name + " " + strings.Join(args, " "))
	if name == "psql" && len(args) > 0 && args[0] == "--version" {
		return []byte("psql (PostgreSQL) 16.2\n"), nil
	}
	if name == "sudo" && len(args) > 1 && args[1] == "start" {
		f.refused = false
	}
	return nil, nil
}

func (f *fakeHost) RunShell(ctx context.Context, timeout time.Duration, cmdline string) ([]byte, error) {
	f.record(cmdline)
	return nil, nil
}

func (f *fakeHost) RunPG(ctx context.Context, timeout time.Duration, tool string, args ...string) ([]byte, error) {
	f.record(tool + " " + strings.Join(args, " "))

	if f.refused {
		return nil, fmt.Errorf("%w: server not running", host.ErrConnectionRefused)
	}

	switch tool {
	case "createdb":
		f.databases[args[len(args)-1]] = 0
		return nil, nil
	case "dropdb":
		delete(f.databases, args[len(args)-1])
		return nil, nil
	case "pg_dump":
		db := args[len(args)-1]
		if _, ok := f.databases[db]; !ok {
			return nil, fmt.Errorf("pg_dump: database %q does not exist", db)
		}
		return nil, nil
	}

	// psql invocations: version checks, --list, or --command queries.
	sql := ""
	for i, a := range args {
		if a == "--command" && i+1 < len(args) {
			sql = args[i+1]
		}
	}
	switch {
	case sql == "" && contains(args, "--list"):
		return nil, nil
	case strings.Contains(sql, "pg_catalog.pg_database"):
		db := between(sql, "d.datname = '", "'")
		if _, ok := f.databases[db]; ok {
			return []byte(fmt.Sprintf("%s|postgres|UTF8|C|C|10 MB|-1|0\n", db)), nil
		}
		return nil, nil
	case strings.Contains(sql, "count(*) FROM pg_tables"):
		// The database is carried in --dbname.
		db := flagValue(args, "--dbname")
		return []byte(fmt.Sprintf("%d\n", f.databases[db])), nil
	case contains(args, "--file"):
		return nil, nil // dump replay
	}
	return nil, nil
}

func (f *fakeHost) CopyTo(ctx context.Context, localPath, remotePath string) error {
	f.record("copyto " + localPath + " " + remotePath)
	return nil
}

func (f *fakeHost) CopyFrom(ctx context.Context, remotePath, localPath string) error {
	f.record("copyfrom " + remotePath + " " + localPath)
	return nil
}

func (f *fakeHost) TempPath(filename string) string { return "/tmp/fake_" + filename }

func contains(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func flagValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func between(s, start, end string) string {
	i := strings.Index(s, start)
	if i < 0 {
		return ""
	}
	rest := s[i+len(start):]
	j := strings.Index(rest, end)
	if j < 0 {
		return ""
	}
	return rest[:j]
}

func TestSyncLocalToLocal(t *testing.T) {
	source := newFakeHost("source", map[string]int{"appdb": 3})
	dest := newFakeHost("dest", nil)

	s := New(source, dest)
	opts := Options{Database: "appdb", TempDir: t.TempDir()}

	// The fake destination reports 0 tables after restore, so make the
	// source agree for verification purposes.
	source.databases["appdb"] = 0

	if err := s.Sync(context.Background(), opts); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	srcCalls := strings.Join(source.calls, "\n")
	if !strings.Contains(srcCalls, "pg_dump") {
		t.Errorf("source should be dumped, ran:\n%s", srcCalls)
	}

	destCalls := strings.Join(dest.calls, "\n")
	if !strings.Contains(destCalls, "createdb appdb") {
		t.Errorf("destination database should be created, ran:\n%s", destCalls)
	}
	if !strings.Contains(destCalls, "--file") {
		t.Errorf("dump should be replayed on the destination, ran:\n%s", destCalls)
	}
	if _, ok := dest.databases["appdb"]; !ok {
		t.Error("destination should have the database after sync")
	}
}

func TestSyncSameHost(t *testing.T) {
	h := newFakeHost("only", map[string]int{"appdb": 1})
	s := New(h, h)

	err := s.Sync(context.Background(), Options{Database: "appdb", TempDir: t.TempDir()})
	if err == nil || !strings.Contains(err.Error(), "same") {
		t.Errorf("expected same-host error, got %v", err)
	}
}

func TestSyncMissingSourceDatabase(t *testing.T) {
	source := newFakeHost("source", nil)
	dest := newFakeHost("dest", nil)
	s := New(source, dest)

	err := s.Sync(context.Background(), Options{Database: "ghost", TempDir: t.TempDir()})
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("expected missing-database error, got %v", err)
	}
}

func TestSyncConflictingOptions(t *testing.T) {
	s := New(newFakeHost("a", nil), newFakeHost("b", nil))
	err := s.Sync(context.Background(), Options{
		Database: "appdb", SchemaOnly: true, DataOnly: true,
	})
	if err == nil || !strings.Contains(err.Error(), "mutually exclusive") {
		t.Errorf("expected options error, got %v", err)
	}
}

func TestSyncDropExisting(t *testing.T) {
	source := newFakeHost("source", map[string]int{"appdb": 0})
	dest := newFakeHost("dest", map[string]int{"appdb": 0})
	s := New(source, dest)

	opts := Options{Database: "appdb", DropExisting: true, TempDir: t.TempDir()}
	if err := s.Sync(context.Background(), opts); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	destCalls := strings.Join(dest.calls, "\n")
	if !strings.Contains(destCalls, "dropdb --if-exists appdb") {
		t.Errorf("destination database should be dropped first, ran:\n%s", destCalls)
	}
}

func TestSyncRemediatesStoppedService(t *testing.T) {
	source := newFakeHost("source", map[string]int{"appdb": 0})
	dest := newFakeHost("dest", nil)
	dest.refused = true

	s := New(source, dest)
	opts := Options{Database: "appdb", AutoInstall: true, TempDir: t.TempDir()}

	if err := s.Sync(context.Background(), opts); err != nil {
		t.Fatalf("Sync with auto-install: %v", err)
	}

	destCalls := strings.Join(dest.calls, "\n")
	if !strings.Contains(destCalls, "systemctl start postgresql") {
		t.Errorf("service should be started on the destination, ran:\n%s", destCalls)
	}
}

func TestSyncDeclinedRemediation(t *testing.T) {
	source := newFakeHost("source", map[string]int{"appdb": 0})
	dest := newFakeHost("dest", nil)
	dest.refused = true

	s := New(source, dest) // nil Confirm declines everything

	err := s.Sync(context.Background(), Options{Database: "appdb", TempDir: t.TempDir()})
	if err == nil || !strings.Contains(err.Error(), "start-service") {
		t.Errorf("declined remediation should name the fix, got %v", err)
	}
}

func TestPlan(t *testing.T) {
	source := newFakeHost("source", nil)
	source.kind = host.KindSSH
	dest := newFakeHost("dest", nil)
	s := New(source, dest)

	steps := s.Plan(Options{Database: "appdb", DropExisting: true})
	joined := strings.Join(steps, "\n")

	for _, want := range []string{"dump", "scp", "drop", "restore", "verify"} {
		if !strings.Contains(strings.ToLower(joined), want) {
			t.Errorf("plan should mention %q:\n%s", want, joined)
		}
	}

	// The plan must list steps in execution order: the destination is
	// dropped before the dump is taken, and restore comes last before
	// verification.
	stepIndex := func(word string) int {
		for i, step := range steps {
			if strings.Contains(strings.ToLower(step), word) {
				return i
			}
		}
		t.Fatalf("no step mentioning %q:\n%s", word, joined)
		return -1
	}
	if stepIndex("drop") > stepIndex("dump") {
		t.Errorf("drop should precede dump:\n%s", joined)
	}
	if stepIndex("dump") > stepIndex("restore") {
		t.Errorf("dump should precede restore:\n%s", joined)
	}
	if stepIndex("restore") > stepIndex("restored") {
		t.Errorf("restore should precede verification:\n%s", joined)
	}
}

func TestBackupPath(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	got := BackupPath("/backups", "appdb", now)
	want := "/backups/appdb_backup_20260314_150926.sql"
	if got != want {
		t.Errorf("BackupPath = %q, want %q", got, want)
	}
}
