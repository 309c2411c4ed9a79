package pg

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dominicchang/pgsqlmgr/internal/config"
	"github.com/dominicchang/pgsqlmgr/internal/host"
)

// fakeRunner scripts RunPG responses and records every invocation.
type fakeRunner struct {
	name string
	kind host.Kind
	cfg  config.Host

	// respond receives each RunPG call. Returning a nil error with nil
	// output yields empty output.
	respond func(tool string, args []string) ([]byte, error)

	calls []string
}

func newFakeRunner(respond func(tool string, args []string) ([]byte, error)) *fakeRunner {
	return &fakeRunner{
		name:    "testhost",
		kind:    host.KindLocal,
		cfg:     config.Host{Type: config.TypeLocal, Host: "localhost", Port: 5432, User: "postgres"},
		respond: respond,
	}
}

func (f *fakeRunner) Name() string        { return f.name }
func (f *fakeRunner) Kind() host.Kind     { return f.kind }
func (f *fakeRunner) Config() config.Host { return f.cfg }
func (f *fakeRunner) Label() string       { return "localhost:5432" }

func (f *fakeRunner) record(tool string, args []string) {
	f.calls = append(f.calls, tool+" "+strings.Join(args, " "))
}

func (f *fakeRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error) {
	f.record(name, args)
	return f.respond(name, args)
}

func (f *fakeRunner) RunShell(ctx context.Context, timeout time.Duration, cmdline string) ([]byte, error) {
	f.record("sh", []string{cmdline})
	return f.respond("sh", []string{cmdline})
}

func (f *fakeRunner) RunPG(ctx context.Context, timeout time.Duration, tool string, args ...string) ([]byte, error) {
	f.record(tool, args)
	return f.respond(tool, args)
}

func (f *fakeRunner) CopyTo(ctx context.Context, localPath, remotePath string) error   { return nil }
func (f *fakeRunner) CopyFrom(ctx context.Context, remotePath, localPath string) error { return nil }
func (f *fakeRunner) TempPath(filename string) string                                  { return "/tmp/test_" + filename }

func (f *fakeRunner) lastCall() string {
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

func respondWith(output string) func(string, []string) ([]byte, error) {
	return func(string, []string) ([]byte, error) { return []byte(output), nil }
}

func TestValidDatabaseName(t *testing.T) {
	valid := []string{"mydb", "my_db", "MyDB2", "app-data"}
	for _, name := range valid {
		if err := ValidDatabaseName(name); err != nil {
			t.Errorf("ValidDatabaseName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{"", "db;drop", "db'quote", `db"quote`, "db\nnewline"}
	for _, name := range invalid {
		if err := ValidDatabaseName(name); err == nil {
			t.Errorf("ValidDatabaseName(%q) = nil, want error", name)
		}
	}
}

func TestVersion(t *testing.T) {
	r := newFakeRunner(respondWith("psql (PostgreSQL) 16.2\n"))
	c := NewClient(r)

	got, err := c.Version(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != "psql (PostgreSQL) 16.2" {
		t.Errorf("Version = %q", got)
	}
}

func TestAuthErrorGetsPgpassHint(t *testing.T) {
	r := newFakeRunner(func(string, []string) ([]byte, error) {
		return nil, fmt.Errorf("%w: password authentication failed", host.ErrAuthFailed)
	})
	c := NewClient(r)

	err := c.Reachable(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), ".pgpass") {
		t.Errorf("auth error should carry a .pgpass hint, got: %v", err)
	}
}

func TestListDatabasesFiltersSystem(t *testing.T) {
	list := strings.Join([]string{
		"postgres|postgres|UTF8|C|C|",
		"template0|postgres|UTF8|C|C|=c/postgres",
		"template1|postgres|UTF8|C|C|=c/postgres",
		"appdb|owner|UTF8|C|C|",
	}, "\n")

	r := newFakeRunner(func(tool string, args []string) ([]byte, error) {
		for _, a := range args {
			if a == "--list" {
				return []byte(list), nil
			}
		}
		return []byte("12 MB\n"), nil // size query
	})
	c := NewClient(r)

	dbs, err := c.ListDatabases(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(dbs) != 1 {
		t.Fatalf("expected 1 user database, got %d: %+v", len(dbs), dbs)
	}
	if dbs[0].Name != "appdb" || dbs[0].Owner != "owner" {
		t.Errorf("unexpected database: %+v", dbs[0])
	}
	if dbs[0].Size != "12 MB" {
		t.Errorf("Size = %q, want 12 MB", dbs[0].Size)
	}
	if dbs[0].AccessPrivileges != "None" {
		t.Errorf("empty privileges should render as None, got %q", dbs[0].AccessPrivileges)
	}
}

func TestListDatabasesIncludeSystem(t *testing.T) {
	list := "postgres|postgres|UTF8|C|C|\nappdb|owner|UTF8|C|C|\n"
	r := newFakeRunner(func(tool string, args []string) ([]byte, error) {
		for _, a := range args {
			if a == "--list" {
				return []byte(list), nil
			}
		}
		return []byte("7 MB\n"), nil
	})
	c := NewClient(r)

	dbs, err := c.ListDatabases(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(dbs) != 2 {
		t.Fatalf("expected 2 databases, got %d", len(dbs))
	}
}

func TestListRoles(t *testing.T) {
	out := "postgres|t|t|t|t|-1|\nreadonly|f|f|f|t|5|2027-01-01 00:00:00+00\n"
	r := newFakeRunner(respondWith(out))
	c := NewClient(r)

	roles, err := c.ListRoles(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(roles) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(roles))
	}

	super := roles[0]
	if !super.Superuser || !super.CanLogin {
		t.Errorf("unexpected superuser flags: %+v", super)
	}
	if super.ConnLimit != "Unlimited" {
		t.Errorf("ConnLimit = %q, want Unlimited", super.ConnLimit)
	}
	if super.ValidUntil != "Never" {
		t.Errorf("ValidUntil = %q, want Never", super.ValidUntil)
	}

	ro := roles[1]
	if ro.Superuser || ro.ConnLimit != "5" {
		t.Errorf("unexpected readonly role: %+v", ro)
	}
}

func TestDatabaseInfo(t *testing.T) {
	out := "appdb|owner|UTF8|C|C|42 MB|-1|3\n"
	r := newFakeRunner(respondWith(out))
	c := NewClient(r)

	info, err := c.DatabaseInfo(context.Background(), "appdb")
	if err != nil {
		t.Fatal(err)
	}
	if !info.Exists {
		t.Fatal("expected Exists")
	}
	if info.Owner != "owner" || info.Size != "42 MB" || info.ActiveConnections != "3" {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestDatabaseInfoMissing(t *testing.T) {
	r := newFakeRunner(respondWith(""))
	c := NewClient(r)

	info, err := c.DatabaseInfo(context.Background(), "ghost")
	if err != nil {
		t.Fatal(err)
	}
	if info.Exists {
		t.Error("expected Exists=false for empty result")
	}
}

func TestTableCount(t *testing.T) {
	r := newFakeRunner(respondWith("17\n"))
	c := NewClient(r)

	n, err := c.TableCount(context.Background(), "appdb")
	if err != nil {
		t.Fatal(err)
	}
	if n != 17 {
		t.Errorf("TableCount = %d, want 17", n)
	}
}

func TestDropDatabaseRefusesSystem(t *testing.T) {
	r := newFakeRunner(respondWith(""))
	c := NewClient(r)

	for _, name := range []string{"postgres", "template0", "template1"} {
		if err := c.DropDatabase(context.Background(), name); err == nil {
			t.Errorf("DropDatabase(%q) should refuse system databases", name)
		}
	}
	if len(r.calls) != 0 {
		t.Errorf("no commands should run for system databases, got %v", r.calls)
	}
}

func TestCreateDatabaseAlreadyExists(t *testing.T) {
	r := newFakeRunner(func(tool string, args []string) ([]byte, error) {
		return nil, fmt.Errorf(`createdb: database "appdb" already exists`)
	})
	c := NewClient(r)

	if err := c.CreateDatabase(context.Background(), "appdb"); err != nil {
		t.Errorf("already-exists should not be an error, got %v", err)
	}
}

func TestDumpArgs(t *testing.T) {
	tests := []struct {
		name string
		opts DumpOptions
		want string
	}{
		{"full", DumpOptions{}, "pg_dump --file /tmp/out.sql appdb"},
		{"schema only", DumpOptions{SchemaOnly: true}, "pg_dump --schema-only --file /tmp/out.sql appdb"},
		{"data only", DumpOptions{DataOnly: true}, "pg_dump --data-only --file /tmp/out.sql appdb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newFakeRunner(respondWith(""))
			c := NewClient(r)

			if err := c.Dump(context.Background(), "appdb", "/tmp/out.sql", tt.opts); err != nil {
				t.Fatal(err)
			}
			if got := r.lastCall(); got != tt.want {
				t.Errorf("dump invocation = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRestoreStopsOnError(t *testing.T) {
	r := newFakeRunner(func(tool string, args []string) ([]byte, error) {
		sql := args[len(args)-1]
		if strings.Contains(sql, "pg_database") {
			return []byte("appdb|postgres|UTF8|C|C|8 MB|-1|0\n"), nil
		}
		return nil, nil
	})
	c := NewClient(r)

	if err := c.Restore(context.Background(), "appdb", "/tmp/out.sql"); err != nil {
		t.Fatal(err)
	}

	want := "psql --dbname appdb --set ON_ERROR_STOP=1 --file /tmp/out.sql --quiet"
	if got := r.lastCall(); got != want {
		t.Errorf("restore invocation = %q, want %q", got, want)
	}
}

func TestPreviewTable(t *testing.T) {
	colOut := "id\nname\n"
	rowOut := "1|alice\n2|bob\n"
	r := newFakeRunner(func(tool string, args []string) ([]byte, error) {
		sql := args[len(args)-1]
		if strings.Contains(sql, "information_schema.columns") {
			return []byte(colOut), nil
		}
		return []byte(rowOut), nil
	})
	c := NewClient(r)

	p, err := c.PreviewTable(context.Background(), "appdb", "users", "public", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Columns) != 2 || p.Columns[0] != "id" {
		t.Errorf("unexpected columns: %v", p.Columns)
	}
	if len(p.Rows) != 2 || p.Rows[1][1] != "bob" {
		t.Errorf("unexpected rows: %v", p.Rows)
	}
}
