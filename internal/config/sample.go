package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WriteSample creates a starter configuration file at path (or the
// default location when empty), creating parent directories as needed.
// Refuses to overwrite an existing file.
func WriteSample(path string) (string, error) {
	if path == "" {
		path = DefaultPath()
	}

	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("configuration file already exists: %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return path, fmt.Errorf("creating configuration directory: %w", err)
	}

	sample := Config{
		Hosts: map[string]Host{
			"local": {
				Type:        TypeLocal,
				Host:        "localhost",
				Port:        5432,
				User:        "postgres",
				Password:    "your_password_here",
				Description: "Local PostgreSQL instance",
			},
			"production": {
				Type:        TypeSSH,
				SSHConfig:   "production",
				Host:        "localhost",
				Port:        5432,
				User:        "postgres",
				Description: "Production server via SSH",
			},
			"staging": {
				Type:        TypeSSH,
				SSHConfig:   "staging",
				Host:        "localhost",
				Port:        5432,
				User:        "postgres",
				Description: "Staging server via SSH",
			},
		},
	}

	out, err := yaml.Marshal(sample)
	if err != nil {
		return path, fmt.Errorf("encoding sample configuration: %w", err)
	}

	header := []byte("# pgsqlmgr configuration\n# Each entry under hosts: describes one PostgreSQL instance.\n# Types: local (direct), ssh (via ~/.ssh/config shortcut), cloud (managed provider).\n")
	if err := os.WriteFile(path, append(header, out...), 0o600); err != nil {
		return path, fmt.Errorf("writing sample configuration: %w", err)
	}

	return path, nil
}
