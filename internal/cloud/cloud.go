// Package cloud handles managed PostgreSQL providers. Providers expose
// no service to install or restart, so lifecycle operations are
// unsupported; what remains is building connection strings and checking
// that the endpoint answers.
package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dominicchang/pgsqlmgr/internal/config"
	"github.com/dominicchang/pgsqlmgr/internal/host"
)

// PingTimeout bounds a connection check against a provider endpoint.
const PingTimeout = 10 * time.Second

// Provider describes one managed PostgreSQL provider.
type Provider interface {
	// Name is the provider identifier used in config files.
	Name() string

	// ConnString builds a pgx-compatible connection string for the host.
	ConnString(cfg config.Host) (string, error)
}

// ForHost returns the provider manager for a cloud host descriptor.
func ForHost(cfg config.Host) (Provider, error) {
	switch cfg.Provider {
	case "supabase":
		return supabase{}, nil
	case "aws-rds":
		return awsRDS{}, nil
	default:
		return nil, fmt.Errorf("unknown cloud provider %q (supported: supabase, aws-rds)", cfg.Provider)
	}
}

// Ping opens a connection to the provider endpoint and checks liveness.
func Ping(ctx context.Context, cfg config.Host) error {
	p, err := ForHost(cfg)
	if err != nil {
		return err
	}
	conninfo, err := p.ConnString(cfg)
	if err != nil {
		return err
	}
	return PingConnString(ctx, conninfo)
}

// PingConnString checks liveness of any PostgreSQL endpoint given a
// connection string or URL.
func PingConnString(ctx context.Context, conninfo string) error {
	ctx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()

	conn, err := pgx.Connect(ctx, conninfo)
	if err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	defer conn.Close(ctx)

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Install is unsupported for managed providers.
func Install(cfg config.Host) error {
	return fmt.Errorf("%w: provider %s manages its own installation", host.ErrUnsupportedHost, cfg.Provider)
}

type supabase struct{}

func (supabase) Name() string { return "supabase" }

func (supabase) ConnString(cfg config.Host) (string, error) {
	return connString(cfg, "supabase")
}

type awsRDS struct{}

func (awsRDS) Name() string { return "aws-rds" }

func (awsRDS) ConnString(cfg config.Host) (string, error) {
	return connString(cfg, "aws-rds")
}

func connString(cfg config.Host, provider string) (string, error) {
	if cfg.ConnectionString != "" {
		return cfg.ConnectionString, nil
	}
	if cfg.Host == "" || cfg.User == "" {
		return "", fmt.Errorf("%s host needs either connection_string or host and user", provider)
	}
	database := cfg.Database
	if database == "" {
		database = "postgres"
	}
	conninfo := fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=require",
		cfg.Host, cfg.Port, cfg.User, database)
	if cfg.Password != "" {
		conninfo += " password=" + cfg.Password
	}
	return conninfo, nil
}
