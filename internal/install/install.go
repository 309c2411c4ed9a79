// Package install manages PostgreSQL installation and service state on
// configured hosts.
//
// Nothing here talks the PostgreSQL protocol: installation goes through
// the platform package manager (Homebrew, apt, yum, dnf, apk) and service
// control goes through `brew services` or `systemctl`, locally or over
// SSH.
package install

import (
	"context"
	"fmt"
	"strings"

	"github.com/dominicchang/pgsqlmgr/internal/host"
)

// brewFormula is the Homebrew PostgreSQL formula used for local macOS
// installs and service control.
const brewFormula = "postgresql@15"

// Manager checks and changes the PostgreSQL installation on one host.
type Manager struct {
	runner host.Runner

	// Progress receives step descriptions while multi-step operations
	// run. Nil disables progress reporting.
	Progress func(string)

	// Credentials supplies a role name and password when the SSH
	// install needs to create a PostgreSQL user and none is configured.
	// Nil means only configured credentials are used.
	Credentials func() (user, password string, err error)
}

// NewManager creates a manager for the given runner.
func NewManager(r host.Runner) *Manager {
	return &Manager{runner: r}
}

func (m *Manager) progress(msg string) {
	if m.Progress != nil {
		m.Progress(msg)
	}
}

// CheckInstalled reports whether the PostgreSQL client tools are present
// on the host, and their version.
func (m *Manager) CheckInstalled(ctx context.Context) (installed bool, version string, err error) {
	if m.runner.Kind() == host.KindCloud {
		return false, "", fmt.Errorf("%w: installation is managed by the provider", host.ErrUnsupportedHost)
	}

	out, err := m.runner.Run(ctx, host.DefaultTimeout, "psql", "--version")
	if err != nil {
		if host.IsRemediable(err) || strings.Contains(err.Error(), "not found") {
			return false, "", nil
		}
		return false, "", err
	}

	lines := host.ParseLines(out)
	if len(lines) == 0 {
		return false, "", nil
	}
	return true, lines[0], nil
}

// ServiceRunning reports whether the PostgreSQL service is active.
func (m *Manager) ServiceRunning(ctx context.Context) (bool, string, error) {
	switch m.runner.Kind() {
	case host.KindCloud:
		return false, "", fmt.Errorf("%w: service state is managed by the provider", host.ErrUnsupportedHost)
	case host.KindSSH:
		return m.systemctlActive(ctx)
	default:
		if DetectLocalOS().ID == "macos" {
			return m.brewServiceActive(ctx)
		}
		return m.systemctlActive(ctx)
	}
}

func (m *Manager) systemctlActive(ctx context.Context) (bool, string, error) {
	out, err := m.runner.Run(ctx, host.DefaultTimeout, "systemctl", "is-active", "postgresql")
	status := strings.TrimSpace(string(out))
	if err != nil {
		// systemctl is-active exits non-zero for inactive units.
		if status != "" {
			return false, "PostgreSQL service is " + status, nil
		}
		return false, "", err
	}
	if status == "active" {
		return true, "PostgreSQL service is running", nil
	}
	return false, "PostgreSQL service is " + status, nil
}

func (m *Manager) brewServiceActive(ctx context.Context) (bool, string, error) {
	out, err := m.runner.Run(ctx, host.DefaultTimeout, "brew", "services", "list")
	if err != nil {
		return false, "", err
	}

	for _, line := range host.ParseLines(out) {
		if strings.Contains(line, "postgresql") && strings.Contains(line, "started") {
			return true, "PostgreSQL service is running", nil
		}
	}
	return false, "PostgreSQL service is not running", nil
}

// StartService starts the PostgreSQL service on the host.
func (m *Manager) StartService(ctx context.Context) error {
	return m.serviceAction(ctx, "start")
}

// StopService stops the PostgreSQL service on the host.
func (m *Manager) StopService(ctx context.Context) error {
	return m.serviceAction(ctx, "stop")
}

func (m *Manager) serviceAction(ctx context.Context, action string) error {
	switch m.runner.Kind() {
	case host.KindCloud:
		return fmt.Errorf("%w: service state is managed by the provider", host.ErrUnsupportedHost)
	case host.KindSSH:
		_, err := m.runner.RunShell(ctx, host.DefaultTimeout, "sudo systemctl "+action+" postgresql")
		if err != nil {
			return fmt.Errorf("%s PostgreSQL service on %s: %w", action, m.runner.Name(), err)
		}
		return nil
	default:
		if DetectLocalOS().ID == "macos" {
			if _, err := m.runner.Run(ctx, host.DefaultTimeout, "brew", "services", action, brewFormula); err != nil {
				return fmt.Errorf("%s PostgreSQL service: %w", action, err)
			}
			return nil
		}
		if _, err := m.runner.Run(ctx, host.DefaultTimeout, "sudo", "systemctl", action, "postgresql"); err != nil {
			return fmt.Errorf("%s PostgreSQL service: %w", action, err)
		}
		return nil
	}
}

// Install installs PostgreSQL on the host.
//
// Local macOS installs go through Homebrew. Local Linux installs are not
// automated: privileged package operations on the operator's own machine
// are left to the operator, and ErrManualInstall carries the
// instructions. SSH installs detect the remote OS and run the matching
// recipe, then ensure the configured role exists.
func (m *Manager) Install(ctx context.Context) error {
	switch m.runner.Kind() {
	case host.KindCloud:
		return fmt.Errorf("%w: installation is managed by the provider", host.ErrUnsupportedHost)
	case host.KindSSH:
		return m.installRemote(ctx)
	default:
		return m.installLocal(ctx)
	}
}

// ErrManualInstall signals that installation must be done by hand; the
// error text contains the instructions.
type ErrManualInstall struct {
	Instructions string
}

func (e *ErrManualInstall) Error() string {
	return "automatic installation not supported on this platform"
}

func (m *Manager) installLocal(ctx context.Context) error {
	osInfo := DetectLocalOS()

	switch osInfo.ID {
	case "macos":
		if _, err := m.runner.Run(ctx, host.DefaultTimeout, "brew", "--version"); err != nil {
			return fmt.Errorf("Homebrew not found, install it first: https://brew.sh (%w)", err)
		}

		m.progress("Installing " + brewFormula + " via Homebrew")
		if _, err := m.runner.Run(ctx, host.InstallTimeout, "brew", "install", brewFormula); err != nil {
			return fmt.Errorf("installing %s: %w", brewFormula, err)
		}

		m.progress("Starting PostgreSQL service")
		if err := m.StartService(ctx); err != nil {
			return fmt.Errorf("PostgreSQL installed but the service failed to start (start manually with: brew services start %s): %w", brewFormula, err)
		}
		return nil

	case "linux":
		return &ErrManualInstall{Instructions: LinuxManualInstructions}

	default:
		return fmt.Errorf("automatic installation not supported on %s, install PostgreSQL manually", osInfo.ID)
	}
}

func (m *Manager) installRemote(ctx context.Context) error {
	osInfo, err := DetectRemoteOS(ctx, m.runner)
	if err != nil {
		return err
	}
	m.progress(fmt.Sprintf("Detected OS: %s %s", osInfo.ID, osInfo.Version))

	recipe, ok := RecipeFor(osInfo.ID)
	if !ok {
		return fmt.Errorf("unsupported operating system for automatic install: %s", osInfo.ID)
	}

	m.progress("Installing PostgreSQL using " + recipe.Name)
	for _, step := range recipe.Steps {
		m.progress(step.Description)
		if _, err := m.runner.RunShell(ctx, host.InstallTimeout, step.Command); err != nil {
			return fmt.Errorf("%s failed: %w", strings.ToLower(step.Description[:1])+step.Description[1:], err)
		}
	}

	return m.ensureUser(ctx)
}

// ensureUser creates the configured PostgreSQL role on a freshly
// installed remote server. Credentials come from the host descriptor or,
// when absent, from the Credentials callback.
func (m *Manager) ensureUser(ctx context.Context) error {
	cfg := m.runner.Config()

	user, password := cfg.User, cfg.Password
	if password == "" {
		if m.Credentials == nil {
			m.progress("No password configured, skipping role creation")
			return nil
		}
		var err error
		user, password, err = m.Credentials()
		if err != nil {
			return fmt.Errorf("collecting PostgreSQL credentials: %w", err)
		}
	}

	m.progress(fmt.Sprintf("Ensuring PostgreSQL role %q exists", user))

	sql := fmt.Sprintf("CREATE USER %s WITH PASSWORD '%s' CREATEDB CREATEROLE;", user, strings.ReplaceAll(password, "'", "''"))
	cmdline := fmt.Sprintf("sudo -u postgres psql -c %s", host.ShellQuote(sql))

	if _, err := m.runner.RunShell(ctx, host.DefaultTimeout, cmdline); err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		return fmt.Errorf("creating PostgreSQL role %q: %w", user, err)
	}
	return nil
}
