package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dominicchang/pgsqlmgr/internal/config"
	"github.com/dominicchang/pgsqlmgr/internal/ui"
)

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Create a sample configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		path, err := config.WriteSample(configPath)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("%s Created sample configuration at %s\n", ui.Pass("✓"), path)
		fmt.Println(ui.Faint("Edit the file to describe your hosts, then run 'pgsqlmgr validate-config'."))
	},
}

var validateConfigCmd = &cobra.Command{
	Use:   "validate-config",
	Short: "Check the configuration file for problems",
	Run: func(cmd *cobra.Command, args []string) {
		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}
		ok, problems := config.ValidateFile(path)
		if !ok {
			fmt.Printf("%s %s has problems:\n", ui.Fail("✗"), path)
			for _, p := range problems {
				fmt.Printf("  - %s\n", p)
			}
			os.Exit(1)
		}

		cfg, err := config.Load(path)
		if err != nil {
			fatal(err)
		}
		counts := map[config.HostType]int{}
		for _, h := range cfg.Hosts {
			counts[h.Type]++
		}
		fmt.Printf("%s %s is valid\n", ui.Pass("✓"), path)
		fmt.Println(ui.Panel("Configured hosts", []string{
			fmt.Sprintf("local: %d", counts[config.TypeLocal]),
			fmt.Sprintf("ssh:   %d", counts[config.TypeSSH]),
			fmt.Sprintf("cloud: %d", counts[config.TypeCloud]),
		}))
	},
}

var listHostsCmd = &cobra.Command{
	Use:   "list-hosts",
	Short: "List configured hosts",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatal(err)
		}
		if len(cfg.Hosts) == 0 {
			fmt.Println("No hosts configured.")
			return
		}

		names := cfg.HostNames()
		sort.Strings(names)
		rows := make([][]string, 0, len(names))
		for _, name := range names {
			h := cfg.Hosts[name]
			rows = append(rows, []string{name, string(h.Type), hostConnection(h), ui.Truncate(h.Description, 40)})
		}
		fmt.Println(ui.Table([]string{"Name", "Type", "Connection", "Description"}, rows))
	},
}

// hostConnection summarizes how a host is reached, for display.
func hostConnection(h config.Host) string {
	switch h.Type {
	case config.TypeSSH:
		return fmt.Sprintf("ssh %s (%s:%d)", h.SSHConfig, h.Host, h.Port)
	case config.TypeCloud:
		if h.ConnectionString != "" {
			return h.Provider + " (connection string)"
		}
		return fmt.Sprintf("%s %s:%d", h.Provider, h.Host, h.Port)
	default:
		return fmt.Sprintf("%s:%d", h.Host, h.Port)
	}
}

var showConfigCmd = &cobra.Command{
	Use:   "show-config <host>",
	Short: "Show one host's configuration with secrets masked",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatal(err)
		}
		h, err := cfg.HostByName(args[0])
		if err != nil {
			fatal(err)
		}

		lines := []string{
			"type:     " + string(h.Type),
			"host:     " + h.Host,
			fmt.Sprintf("port:     %d", h.Port),
		}
		if h.User != "" {
			lines = append(lines, "user:     "+h.User)
		}
		if h.Password != "" {
			lines = append(lines, "password: "+maskSecret(h.Password))
		}
		if h.Database != "" {
			lines = append(lines, "database: "+h.Database)
		}
		if h.SSHConfig != "" {
			lines = append(lines, "ssh:      "+h.SSHConfig)
		}
		if h.Provider != "" {
			lines = append(lines, "provider: "+h.Provider)
		}
		if h.ConnectionString != "" {
			lines = append(lines, "conn:     "+maskSecret(h.ConnectionString))
		}
		if h.Description != "" {
			lines = append(lines, "note:     "+h.Description)
		}
		fmt.Println(ui.Panel(args[0], lines))

		if h.Type == config.TypeSSH {
			if found, warning := config.CheckSSHShortcut(h.SSHConfig); !found {
				fmt.Printf("%s %s\n", ui.Warn("!"), warning)
			}
		}
	},
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

func init() {
	rootCmd.AddCommand(initConfigCmd)
	rootCmd.AddCommand(validateConfigCmd)
	rootCmd.AddCommand(listHostsCmd)
	rootCmd.AddCommand(showConfigCmd)
}
