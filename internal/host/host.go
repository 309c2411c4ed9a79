// Package host provides a unified interface for running commands on
// configured PostgreSQL hosts.
//
// This package abstracts the differences between local execution and
// SSH-tunneled execution, so the higher layers (listing, install, sync)
// can issue psql/pg_dump/service commands without caring where they run.
// The design follows a strategy pattern with a factory keyed on the host
// descriptor type.
//
// # Usage
//
//	r, err := host.ForHost("production", cfg)
//	if err != nil {
//	    return err
//	}
//	out, err := r.RunPG(ctx, 30*time.Second, "psql", "--list", "--tuples-only")
//
// # Implementations
//
//   - Local: direct os/exec invocation with PGPASSWORD in the environment
//   - SSH: commands wrapped in `ssh <shortcut> "sudo -u <user> ..."`,
//     file transfer via scp
//   - Cloud: like Local but pointed at the provider endpoint; service
//     and install operations are unsupported
package host

import (
	"context"
	"time"

	"github.com/dominicchang/pgsqlmgr/internal/config"
)

// Kind identifies the runner strategy.
type Kind string

const (
	KindLocal Kind = "local"
	KindSSH   Kind = "ssh"
	KindCloud Kind = "cloud"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// Runner executes commands on a configured host.
//
// Run executes an arbitrary program. RunPG executes a PostgreSQL client
// tool (psql, pg_dump, createdb, dropdb) with connection arguments filled
// in from the host descriptor. RunShell executes a raw shell command
// line, which SSH hosts need for composite remote pipelines.
type Runner interface {
	// Name returns the configured host name.
	Name() string

	// Kind returns the runner strategy (local, ssh, cloud).
	Kind() Kind

	// Config returns the host descriptor this runner was built from.
	Config() config.Host

	// Label returns a short human-readable connection description.
	Label() string

	// Run executes a program on the host and returns stdout.
	// Stderr is folded into the returned error.
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error)

	// RunShell executes a raw shell command line on the host.
	RunShell(ctx context.Context, timeout time.Duration, cmdline string) ([]byte, error)

	// RunPG executes a PostgreSQL client tool with connection arguments
	// for this host prepended.
	RunPG(ctx context.Context, timeout time.Duration, tool string, args ...string) ([]byte, error)

	// CopyTo copies a local file to the host. CopyFrom is the reverse.
	// Local runners copy within the filesystem.
	CopyTo(ctx context.Context, localPath, remotePath string) error
	CopyFrom(ctx context.Context, remotePath, localPath string) error

	// TempPath returns a host-side staging path for the given file name.
	TempPath(filename string) string
}

// Default timeouts for host operations. Installation steps use
// InstallTimeout since package managers can be slow.
const (
	DefaultTimeout  = 30 * time.Second
	DumpTimeout     = 10 * time.Minute
	InstallTimeout  = 5 * time.Minute
	TransferTimeout = 10 * time.Minute
)
