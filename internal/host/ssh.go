package host

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dominicchang/pgsqlmgr/internal/config"
)

// SSH runs commands on a remote host through the user's ssh binary,
// addressed by an SSH config shortcut. PostgreSQL client tools run on the
// remote side as the configured postgres user via sudo, matching the
// peer-authentication setup of a stock server install.
type SSH struct {
	name string
	cfg  config.Host
}

// NewSSH creates a runner for an SSH host descriptor.
func NewSSH(name string, cfg config.Host) *SSH {
	return &SSH{name: name, cfg: cfg}
}

func (s *SSH) Name() string        { return s.name }
func (s *SSH) Kind() Kind          { return KindSSH }
func (s *SSH) Config() config.Host { return s.cfg }

func (s *SSH) Label() string {
	return fmt.Sprintf("ssh %s -> %s:%d", s.cfg.SSHConfig, s.cfg.Host, s.cfg.Port)
}

// Run executes a single program remotely. Arguments are shell-quoted
// because ssh joins them into one remote command line.
func (s *SSH) Run(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error) {
	quoted := make([]string, 0, len(args)+1)
	quoted = append(quoted, name)
	for _, a := range args {
		quoted = append(quoted, ShellQuote(a))
	}
	return s.RunShell(ctx, timeout, strings.Join(quoted, " "))
}

func (s *SSH) RunShell(ctx context.Context, timeout time.Duration, cmdline string) ([]byte, error) {
	return ExecContext(ctx, timeout, nil, "ssh", s.cfg.SSHConfig, cmdline)
}

// RunPG executes a PostgreSQL client tool on the remote host as the
// configured user.
func (s *SSH) RunPG(ctx context.Context, timeout time.Duration, tool string, args ...string) ([]byte, error) {
	quoted := make([]string, 0, len(args))
	for _, a := range args {
		quoted = append(quoted, ShellQuote(a))
	}

	cmdline := fmt.Sprintf("sudo -u %s %s %s", s.cfg.User, tool, strings.Join(quoted, " "))
	return s.RunShell(ctx, timeout, strings.TrimSpace(cmdline))
}

// CopyTo uploads a local file with scp.
func (s *SSH) CopyTo(ctx context.Context, localPath, remotePath string) error {
	_, err := ExecContext(ctx, TransferTimeout, nil, "scp", localPath,
		fmt.Sprintf("%s:%s", s.cfg.SSHConfig, remotePath))
	if err != nil {
		return fmt.Errorf("uploading %s to %s: %w", localPath, s.cfg.SSHConfig, err)
	}
	return nil
}

// CopyFrom downloads a remote file with scp.
func (s *SSH) CopyFrom(ctx context.Context, remotePath, localPath string) error {
	_, err := ExecContext(ctx, TransferTimeout, nil, "scp",
		fmt.Sprintf("%s:%s", s.cfg.SSHConfig, remotePath), localPath)
	if err != nil {
		return fmt.Errorf("downloading %s from %s: %w", remotePath, s.cfg.SSHConfig, err)
	}
	return nil
}

// TempPath stages dump files under /tmp on the remote host. The path must
// be writable by both the SSH login user and the postgres user, which
// /tmp is on every supported OS.
func (s *SSH) TempPath(filename string) string {
	return "/tmp/pgsqlmgr_" + filename
}
