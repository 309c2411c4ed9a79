// Package config loads and validates the pgsqlmgr host configuration.
//
// Configuration lives in a YAML file (default ~/.pgsqlmgr/config.yaml)
// mapping host names to host descriptors. A descriptor says how to reach
// a PostgreSQL instance: directly (local), through an SSH config shortcut
// (ssh), or at a managed provider (cloud).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// HostType identifies how a host is reached.
type HostType string

const (
	TypeLocal HostType = "local"
	TypeSSH   HostType = "ssh"
	TypeCloud HostType = "cloud"
)

// Host describes one configured PostgreSQL instance.
//
// Local hosts need Host/Port/User. SSH hosts additionally need SSHConfig,
// the name of a Host entry in ~/.ssh/config used as an opaque connection
// alias. Cloud hosts need Provider and either a ConnectionString or the
// plain connection fields.
type Host struct {
	Type     HostType `mapstructure:"type" yaml:"type" validate:"required,oneof=local ssh cloud"`
	Host     string   `mapstructure:"host" yaml:"host,omitempty"`
	Port     int      `mapstructure:"port" yaml:"port,omitempty" validate:"min=1,max=65535"`
	User     string   `mapstructure:"user" yaml:"user,omitempty" validate:"required_unless=Type cloud"`
	Password string   `mapstructure:"password" yaml:"password,omitempty"`
	Database string   `mapstructure:"database" yaml:"database,omitempty"`

	// SSHConfig is the ~/.ssh/config shortcut name (ssh hosts only).
	SSHConfig string `mapstructure:"ssh_config" yaml:"ssh_config,omitempty" validate:"required_if=Type ssh"`

	// Provider names the cloud provider, e.g. "supabase" or "aws" (cloud only).
	Provider string `mapstructure:"provider" yaml:"provider,omitempty" validate:"required_if=Type cloud"`

	// ConnectionString is an optional full connection URL (cloud only).
	ConnectionString string `mapstructure:"connection_string" yaml:"connection_string,omitempty"`

	Description string `mapstructure:"description" yaml:"description,omitempty"`
}

// Config is the top-level configuration: a named set of hosts.
type Config struct {
	Hosts map[string]Host `mapstructure:"hosts" yaml:"hosts"`
}

// DefaultDir returns the pgsqlmgr configuration directory (~/.pgsqlmgr).
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pgsqlmgr"
	}
	return filepath.Join(home, ".pgsqlmgr")
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// ErrNotFound is returned when the configuration file does not exist.
var ErrNotFound = errors.New("configuration file not found")

var hostNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

const maxHostNameLen = 50

var validate = newValidator()

// newValidator builds the struct validator with field names taken from
// the mapstructure tags, so messages reference config keys (ssh_config)
// instead of Go field names (SSHConfig).
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Load reads and validates the configuration file. An empty path uses
// DefaultPath. Per-host passwords can come from the environment
// (PGSQLMGR_<HOST>_PASSWORD) so credentials can stay out of the file.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s (run 'pgsqlmgr init-config' to create one)", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading configuration file %s: %w", path, err)
	}

	// The hosts map is decoded with yaml.v3 rather than viper: viper
	// folds map keys to lowercase, and host names are case sensitive.
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if errs := cfg.Validate(); len(errs) > 0 {
		var sb strings.Builder
		sb.WriteString("configuration validation failed:")
		for _, e := range errs {
			sb.WriteString("\n  - ")
			sb.WriteString(e)
		}
		return nil, errors.New(sb.String())
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	for name, h := range cfg.Hosts {
		if h.Host == "" && h.Type != TypeCloud {
			h.Host = "localhost"
		}
		if h.Port == 0 {
			h.Port = 5432
		}
		cfg.Hosts[name] = h
	}
}

// applyEnvOverrides fills per-host passwords from the environment.
// PGSQLMGR_<HOST>_PASSWORD takes precedence over the file so credentials
// can stay out of checked-in configuration. Dashes in host names map to
// underscores in the variable name.
func applyEnvOverrides(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix("PGSQLMGR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for name, h := range cfg.Hosts {
		if pw := v.GetString(name + "_password"); pw != "" {
			h.Password = pw
			cfg.Hosts[name] = h
		}
	}
}

// Validate checks the configuration and returns every problem found,
// one message per field, rather than stopping at the first.
func (c *Config) Validate() []string {
	var errs []string

	if len(c.Hosts) == 0 {
		return []string{"hosts: at least one host must be configured"}
	}

	for _, name := range sortedNames(c.Hosts) {
		if !hostNamePattern.MatchString(name) {
			errs = append(errs, fmt.Sprintf("hosts.%s: host name may only contain letters, numbers, underscore, and dash", name))
		}
		if len(name) > maxHostNameLen {
			errs = append(errs, fmt.Sprintf("hosts.%s: host name is too long (max %d characters)", name, maxHostNameLen))
		}

		h := c.Hosts[name]
		if err := validate.Struct(h); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				for _, fe := range verrs {
					errs = append(errs, fmt.Sprintf("hosts.%s.%s: %s", name, strings.ToLower(fe.Field()), describeFieldError(fe)))
				}
			} else {
				errs = append(errs, fmt.Sprintf("hosts.%s: %v", name, err))
			}
		}
	}

	return errs
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "required_if", "required_unless":
		return "field is required for this host type"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// ValidateFile validates the file at path without constructing a usable
// Config. It returns ok plus the full list of problems.
func ValidateFile(path string) (bool, []string) {
	if path == "" {
		path = DefaultPath()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, []string{fmt.Sprintf("configuration file not found: %s", path)}
		}
		return false, []string{fmt.Sprintf("reading configuration file: %v", err)}
	}

	if len(strings.TrimSpace(string(raw))) == 0 {
		return false, []string{"configuration file is empty"}
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return false, []string{fmt.Sprintf("invalid YAML syntax: %v", err)}
	}

	applyDefaults(&cfg)
	errs := cfg.Validate()
	return len(errs) == 0, errs
}

// HostByName returns the named host. The error lists the available hosts
// when the name is unknown.
func (c *Config) HostByName(name string) (Host, error) {
	h, ok := c.Hosts[name]
	if !ok {
		return Host{}, fmt.Errorf("host %q not found in configuration (available hosts: %s)",
			name, strings.Join(c.HostNames(), ", "))
	}
	return h, nil
}

// HostNames returns the configured host names, sorted.
func (c *Config) HostNames() []string {
	return sortedNames(c.Hosts)
}

func sortedNames(hosts map[string]Host) []string {
	names := make([]string, 0, len(hosts))
	for name := range hosts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckSSHShortcut reports whether the SSH config shortcut appears in the
// user's ~/.ssh/config. A missing entry is a warning, not an error: the
// shortcut may come from an included file or be created later.
func CheckSSHShortcut(name string) (found bool, warning string) {
	home, err := os.UserHomeDir()
	if err != nil {
		return false, ""
	}

	sshConfig := filepath.Join(home, ".ssh", "config")
	raw, err := os.ReadFile(sshConfig)
	if err != nil {
		if os.IsNotExist(err) {
			return false, fmt.Sprintf("no ~/.ssh/config file found for SSH shortcut %q", name)
		}
		return false, ""
	}

	for _, line := range strings.Split(string(raw), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && strings.EqualFold(fields[0], "Host") {
			for _, alias := range fields[1:] {
				if alias == name {
					return true, ""
				}
			}
		}
	}

	return false, fmt.Sprintf("SSH config entry 'Host %s' not found in ~/.ssh/config", name)
}
