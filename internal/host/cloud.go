package host

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dominicchang/pgsqlmgr/internal/config"
)

// Cloud runs PostgreSQL client tools locally, pointed at a managed
// provider endpoint. There is no machine to shell into: install and
// service operations do not apply, and file transfer is unnecessary
// because dumps and restores execute on this machine against the remote
// endpoint.
type Cloud struct {
	name string
	cfg  config.Host
}

// NewCloud creates a runner for a cloud host descriptor.
func NewCloud(name string, cfg config.Host) *Cloud {
	return &Cloud{name: name, cfg: cfg}
}

func (c *Cloud) Name() string        { return c.name }
func (c *Cloud) Kind() Kind          { return KindCloud }
func (c *Cloud) Config() config.Host { return c.cfg }

func (c *Cloud) Label() string {
	if c.cfg.ConnectionString != "" {
		return fmt.Sprintf("%s (connection string)", c.cfg.Provider)
	}
	return fmt.Sprintf("%s %s:%d", c.cfg.Provider, c.cfg.Host, c.cfg.Port)
}

func (c *Cloud) Run(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error) {
	return nil, fmt.Errorf("%w: cannot run %s on a cloud host", ErrUnsupportedHost, name)
}

func (c *Cloud) RunShell(ctx context.Context, timeout time.Duration, cmdline string) ([]byte, error) {
	return nil, fmt.Errorf("%w: cannot run shell commands on a cloud host", ErrUnsupportedHost)
}

// RunPG executes the client tool locally against the provider endpoint.
// Connection details are passed as flags rather than a conninfo dbname:
// callers supply their own --dbname, and createdb/dropdb accept no
// conninfo at all.
func (c *Cloud) RunPG(ctx context.Context, timeout time.Duration, tool string, args ...string) ([]byte, error) {
	hostAddr, port, user, password := c.connParams()

	full := append([]string{
		"--host", hostAddr,
		"--port", strconv.Itoa(port),
		"--username", user,
	}, args...)

	// Managed providers reject cleartext connections.
	env := []string{"PGSSLMODE=require"}
	if password != "" {
		env = append(env, "PGPASSWORD="+password)
	}

	return ExecContext(ctx, timeout, env, tool, full...)
}

// connParams resolves connection parameters from the host descriptor,
// letting an explicit connection string (URL or keyword form) override
// the individual fields.
func (c *Cloud) connParams() (hostAddr string, port int, user, password string) {
	hostAddr, port, user, password = c.cfg.Host, c.cfg.Port, c.cfg.User, c.cfg.Password
	if port == 0 {
		port = 5432
	}
	conninfo := c.cfg.ConnectionString
	if conninfo == "" {
		return
	}

	if u, err := url.Parse(conninfo); err == nil && strings.HasPrefix(u.Scheme, "postgres") {
		if h := u.Hostname(); h != "" {
			hostAddr = h
		}
		if p := u.Port(); p != "" {
			if n, err := strconv.Atoi(p); err == nil {
				port = n
			}
		}
		if u.User != nil {
			if name := u.User.Username(); name != "" {
				user = name
			}
			if pw, ok := u.User.Password(); ok {
				password = pw
			}
		}
		return
	}

	for _, kv := range strings.Fields(conninfo) {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		switch k {
		case "host":
			hostAddr = v
		case "port":
			if n, err := strconv.Atoi(v); err == nil {
				port = n
			}
		case "user":
			user = v
		case "password":
			password = v
		}
	}
	return
}

func (c *Cloud) CopyTo(ctx context.Context, localPath, remotePath string) error {
	return copyFile(localPath, remotePath)
}

func (c *Cloud) CopyFrom(ctx context.Context, remotePath, localPath string) error {
	return copyFile(remotePath, localPath)
}

func (c *Cloud) TempPath(filename string) string {
	return filepath.Join(config.DefaultDir(), "temp", filename)
}
