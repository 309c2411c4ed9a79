package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dominicchang/pgsqlmgr/internal/host"
	"github.com/dominicchang/pgsqlmgr/internal/install"
	"github.com/dominicchang/pgsqlmgr/internal/pg"
)

// readinessWait bounds how long we poll for the server to accept
// connections after starting the service.
const readinessWait = 30 * time.Second

func (s *Syncer) confirm(prompt string) bool {
	if s.Confirm == nil {
		return false
	}
	return s.Confirm(prompt)
}

// ensureAvailable verifies that PostgreSQL is installed and accepting
// connections on the client's host, remediating where possible. With
// autoInstall remediation runs unprompted; otherwise the Confirm
// callback decides.
func (s *Syncer) ensureAvailable(ctx context.Context, client *pg.Client, autoInstall bool) error {
	r := client.Runner()
	mgr := install.NewManager(r)
	mgr.Progress = s.Progress

	// Cloud hosts are managed services: the tools run locally against
	// the provider endpoint, so only reachability applies.
	if r.Kind() != host.KindCloud {
		installed, _, err := mgr.CheckInstalled(ctx)
		if err != nil {
			return err
		}
		if !installed {
			if !autoInstall && !s.confirm(fmt.Sprintf("PostgreSQL is not installed on %s. Install it now?", r.Name())) {
				return fmt.Errorf("PostgreSQL is not installed (run 'pgsqlmgr install %s')", r.Name())
			}
			s.progress("Installing PostgreSQL on " + r.Name())
			if err := mgr.Install(ctx); err != nil {
				return fmt.Errorf("installing PostgreSQL: %w", err)
			}
		}
	}

	err := client.Reachable(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, host.ErrConnectionRefused) || r.Kind() == host.KindCloud {
		return err
	}

	if !autoInstall && !s.confirm(fmt.Sprintf("PostgreSQL is not running on %s. Start the service?", r.Name())) {
		return fmt.Errorf("PostgreSQL is not accepting connections (run 'pgsqlmgr start-service %s')", r.Name())
	}
	s.progress("Starting PostgreSQL service on " + r.Name())
	if err := mgr.StartService(ctx); err != nil {
		return fmt.Errorf("starting PostgreSQL service: %w", err)
	}
	return waitReachable(ctx, client)
}

// waitReachable polls until the server accepts connections. Service
// managers report success before the postmaster finishes startup, so a
// plain re-check races the server.
func waitReachable(ctx context.Context, client *pg.Client) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = readinessWait

	err := backoff.Retry(func() error {
		return client.Reachable(ctx)
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return fmt.Errorf("PostgreSQL did not become ready within %s: %w", readinessWait, err)
	}
	return nil
}
