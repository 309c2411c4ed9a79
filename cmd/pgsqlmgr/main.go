// Command pgsqlmgr manages PostgreSQL instances across local, SSH and
// cloud hosts: installation, service control, inspection, deletion and
// database synchronization.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dominicchang/pgsqlmgr/internal/config"
	"github.com/dominicchang/pgsqlmgr/internal/host"
	"github.com/dominicchang/pgsqlmgr/internal/logging"
	"github.com/dominicchang/pgsqlmgr/internal/ui"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath string
	verbose    bool
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:     "pgsqlmgr",
	Short:   "Manage PostgreSQL instances across local, SSH and cloud hosts",
	Version: version,
	Long: `pgsqlmgr orchestrates PostgreSQL lifecycle operations by driving the
standard tools (psql, pg_dump, createdb, systemctl, brew) on each host.

Hosts are named in ~/.pgsqlmgr/config.yaml. SSH hosts are reached
through ~/.ssh/config shortcuts; cloud hosts are managed provider
endpoints reached with local client tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(verbose)
		if noColor {
			ui.DisableColor()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.pgsqlmgr/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "mirror debug logging to stderr")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// loadConfig loads the config file, honoring --config.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// runnerFor resolves a host name from the config into a Runner.
func runnerFor(name string) (host.Runner, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	r, err := host.ForName(name, cfg)
	if err != nil {
		return nil, nil, err
	}
	return r, cfg, nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", ui.Fail("Error:"), err)
	os.Exit(1)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fatal(err)
	}
}
