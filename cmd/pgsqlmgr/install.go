package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dominicchang/pgsqlmgr/internal/cloud"
	"github.com/dominicchang/pgsqlmgr/internal/config"
	"github.com/dominicchang/pgsqlmgr/internal/host"
	"github.com/dominicchang/pgsqlmgr/internal/install"
	"github.com/dominicchang/pgsqlmgr/internal/ui"
)

var checkInstallCmd = &cobra.Command{
	Use:   "check-install <host>",
	Short: "Check whether PostgreSQL is installed and running on a host",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		r, _, err := runnerFor(args[0])
		if err != nil {
			fatal(err)
		}
		ctx := cmd.Context()

		if r.Kind() == host.KindCloud {
			fmt.Printf("%s %s is a managed %s instance; installation is handled by the provider\n",
				ui.CheckMark(true), args[0], r.Config().Provider)
			return
		}

		mgr := install.NewManager(r)
		installed, version, err := mgr.CheckInstalled(ctx)
		if err != nil {
			fatal(err)
		}
		if !installed {
			fmt.Printf("%s PostgreSQL is not installed on %s\n", ui.CheckMark(false), args[0])
			fmt.Println(ui.Faint(fmt.Sprintf("Run 'pgsqlmgr install %s' to install it.", args[0])))
			os.Exit(1)
		}
		fmt.Printf("%s PostgreSQL installed: %s\n", ui.CheckMark(true), version)

		running, detail, err := mgr.ServiceRunning(ctx)
		if err != nil {
			fatal(err)
		}
		if running {
			fmt.Printf("%s Service running (%s)\n", ui.CheckMark(true), detail)
		} else {
			fmt.Printf("%s Service not running (%s)\n", ui.CheckMark(false), detail)
			fmt.Println(ui.Faint(fmt.Sprintf("Run 'pgsqlmgr start-service %s' to start it.", args[0])))
		}
	},
}

var installForce bool

var installCmd = &cobra.Command{
	Use:   "install <host>",
	Short: "Install PostgreSQL on a host",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		r, _, err := runnerFor(args[0])
		if err != nil {
			fatal(err)
		}
		ctx := cmd.Context()

		mgr := install.NewManager(r)
		mgr.Progress = printProgress
		mgr.Credentials = promptCredentials

		if !installForce {
			installed, version, err := mgr.CheckInstalled(ctx)
			if err != nil {
				fatal(err)
			}
			if installed {
				fmt.Printf("%s PostgreSQL already installed on %s: %s\n", ui.Pass("✓"), args[0], version)
				fmt.Println(ui.Faint("Use --force to run the installation anyway."))
				return
			}
		}

		if err := mgr.Install(ctx); err != nil {
			var manual *install.ErrManualInstall
			if errors.As(err, &manual) {
				fmt.Println(ui.Warn("Automatic installation is not supported on this platform."))
				fmt.Println(manual.Instructions)
				os.Exit(1)
			}
			fatal(err)
		}

		// Installation can succeed while leaving a broken PATH; trust
		// the tools, not the package manager exit code.
		installed, version, err := mgr.CheckInstalled(ctx)
		if err != nil {
			fatal(err)
		}
		if !installed {
			fatal(fmt.Errorf("installation finished but psql is not available on %s", args[0]))
		}
		fmt.Printf("%s PostgreSQL installed on %s: %s\n", ui.Pass("✓"), args[0], version)
	},
}

var startServiceCmd = &cobra.Command{
	Use:   "start-service <host>",
	Short: "Start the PostgreSQL service on a host",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		serviceCommand(cmd, args[0], "start")
	},
}

var stopServiceCmd = &cobra.Command{
	Use:   "stop-service <host>",
	Short: "Stop the PostgreSQL service on a host",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		serviceCommand(cmd, args[0], "stop")
	},
}

func serviceCommand(cmd *cobra.Command, hostName, action string) {
	r, _, err := runnerFor(hostName)
	if err != nil {
		fatal(err)
	}
	mgr := install.NewManager(r)
	mgr.Progress = printProgress

	var actionErr error
	if action == "start" {
		actionErr = mgr.StartService(cmd.Context())
	} else {
		actionErr = mgr.StopService(cmd.Context())
	}
	if actionErr != nil {
		fatal(actionErr)
	}
	fmt.Printf("%s PostgreSQL service %sed on %s\n", ui.Pass("✓"), action, hostName)
}

var pingCmd = &cobra.Command{
	Use:   "ping <host>",
	Short: "Test the connection to a host's PostgreSQL server",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		r, _, err := runnerFor(args[0])
		if err != nil {
			fatal(err)
		}
		ctx := cmd.Context()
		cfg := r.Config()

		switch r.Kind() {
		case host.KindCloud:
			err = cloud.Ping(ctx, cfg)
		case host.KindLocal:
			err = cloud.PingConnString(ctx, localConnString(cfg))
		default:
			// No credentials for a direct connection through the
			// tunnel; run a trivial query with the remote psql instead.
			_, err = r.RunPG(ctx, host.DefaultTimeout, "psql", "--command", "SELECT 1")
		}
		if err != nil {
			fmt.Printf("%s Connection to %s failed: %v\n", ui.CheckMark(false), args[0], err)
			os.Exit(1)
		}
		fmt.Printf("%s Connection to %s OK\n", ui.CheckMark(true), args[0])
	},
}

func localConnString(cfg config.Host) string {
	database := cfg.Database
	if database == "" {
		database = "postgres"
	}
	conninfo := fmt.Sprintf("host=%s port=%d user=%s dbname=%s", cfg.Host, cfg.Port, cfg.User, database)
	if cfg.Password != "" {
		conninfo += " password=" + cfg.Password
	}
	return conninfo
}

func printProgress(msg string) {
	fmt.Printf("%s %s\n", ui.Accent("→"), msg)
}

func promptCredentials() (string, string, error) {
	user, err := ui.Input("PostgreSQL role to create")
	if err != nil {
		return "", "", err
	}
	password, err := ui.Password("Password for " + user)
	if err != nil {
		return "", "", err
	}
	return user, password, nil
}

func init() {
	installCmd.Flags().BoolVar(&installForce, "force", false, "install even when PostgreSQL is already present")

	rootCmd.AddCommand(checkInstallCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(startServiceCmd)
	rootCmd.AddCommand(stopServiceCmd)
	rootCmd.AddCommand(pingCmd)
}
