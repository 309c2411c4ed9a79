package host

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dominicchang/pgsqlmgr/internal/config"
)

// Local runs commands directly on this machine.
type Local struct {
	name string
	cfg  config.Host
}

// NewLocal creates a runner for a local host descriptor.
func NewLocal(name string, cfg config.Host) *Local {
	return &Local{name: name, cfg: cfg}
}

func (l *Local) Name() string        { return l.name }
func (l *Local) Kind() Kind          { return KindLocal }
func (l *Local) Config() config.Host { return l.cfg }

func (l *Local) Label() string {
	return fmt.Sprintf("%s:%d", l.cfg.Host, l.cfg.Port)
}

func (l *Local) Run(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error) {
	return ExecContext(ctx, timeout, nil, name, args...)
}

func (l *Local) RunShell(ctx context.Context, timeout time.Duration, cmdline string) ([]byte, error) {
	return ExecContext(ctx, timeout, nil, "sh", "-c", cmdline)
}

// RunPG executes a PostgreSQL client tool with connection flags for this
// host. The password, when configured, travels via PGPASSWORD so it never
// appears in process listings.
func (l *Local) RunPG(ctx context.Context, timeout time.Duration, tool string, args ...string) ([]byte, error) {
	full := append(l.connArgs(), args...)

	var env []string
	if l.cfg.Password != "" {
		env = append(env, "PGPASSWORD="+l.cfg.Password)
	}

	return ExecContext(ctx, timeout, env, tool, full...)
}

func (l *Local) connArgs() []string {
	return []string{
		"--host", l.cfg.Host,
		"--port", strconv.Itoa(l.cfg.Port),
		"--username", l.cfg.User,
	}
}

func (l *Local) CopyTo(ctx context.Context, localPath, remotePath string) error {
	return copyFile(localPath, remotePath)
}

func (l *Local) CopyFrom(ctx context.Context, remotePath, localPath string) error {
	return copyFile(remotePath, localPath)
}

func (l *Local) TempPath(filename string) string {
	return filepath.Join(config.DefaultDir(), "temp", filename)
}

func copyFile(src, dst string) error {
	if src == dst {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dst), err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
