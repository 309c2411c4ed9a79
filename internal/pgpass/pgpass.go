// Package pgpass generates ~/.pgpass entries from configured hosts so
// the PostgreSQL client tools can authenticate without prompting.
package pgpass

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dominicchang/pgsqlmgr/internal/config"
)

// Entry is one .pgpass line: host:port:database:user:password.
type Entry struct {
	HostName string // config host name, for display only
	Host     string
	Port     int
	User     string
	Password string
}

func (e Entry) Line() string {
	return fmt.Sprintf("%s:%d:*:%s:%s", e.Host, e.Port, e.User, e.Password)
}

// Entries returns .pgpass entries for every host that carries a
// password, sorted by config host name.
func Entries(cfg *config.Config) []Entry {
	var out []Entry
	for name, h := range cfg.Hosts {
		if h.Password == "" || h.User == "" {
			continue
		}
		hostAddr := h.Host
		if hostAddr == "" {
			hostAddr = "localhost"
		}
		port := h.Port
		if port == 0 {
			port = 5432
		}
		out = append(out, Entry{
			HostName: name,
			Host:     hostAddr,
			Port:     port,
			User:     h.User,
			Password: h.Password,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HostName < out[j].HostName })
	return out
}

// DefaultPath returns ~/.pgpass.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pgpass"
	}
	return filepath.Join(home, ".pgpass")
}

// Write appends the entries missing from the file at path and restores
// the 0600 mode libpq requires. Existing lines are never rewritten.
// Returns the number of lines added.
func Write(path string, entries []Entry) (int, error) {
	existing := map[string]bool{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return 0, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		existing[strings.TrimSpace(line)] = true
	}

	var add []string
	for _, e := range entries {
		if !existing[e.Line()] {
			add = append(add, e.Line())
		}
	}

	if len(add) > 0 {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return 0, err
		}
		content := strings.Join(add, "\n") + "\n"
		if len(data) > 0 && !strings.HasSuffix(string(data), "\n") {
			content = "\n" + content
		}
		if _, err := f.WriteString(content); err != nil {
			f.Close()
			return 0, err
		}
		if err := f.Close(); err != nil {
			return 0, err
		}
	}

	// libpq ignores the file when it is group or world readable.
	if err := os.Chmod(path, 0o600); err != nil {
		return len(add), err
	}
	return len(add), nil
}
