package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dominicchang/pgsqlmgr/internal/pgpass"
	"github.com/dominicchang/pgsqlmgr/internal/ui"
)

var pgpassWrite bool

var generatePgpassCmd = &cobra.Command{
	Use:   "generate-pgpass",
	Short: "Generate ~/.pgpass entries from configured hosts",
	Long: `Print .pgpass lines for every configured host that carries a password,
so the PostgreSQL tools can authenticate without prompting.

With --write, lines missing from ~/.pgpass are appended and the file
mode is set to 0600 as libpq requires.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatal(err)
		}

		entries := pgpass.Entries(cfg)
		if len(entries) == 0 {
			fmt.Println("No hosts with passwords configured; nothing to generate.")
			return
		}

		for _, e := range entries {
			fmt.Printf("%s  %s\n", e.Line(), ui.Faint("# "+e.HostName))
		}

		if pgpassWrite {
			path := pgpass.DefaultPath()
			added, err := pgpass.Write(path, entries)
			if err != nil {
				fatal(err)
			}
			fmt.Printf("%s %d line(s) added to %s\n", ui.Pass("✓"), added, path)
		}
	},
}

func init() {
	generatePgpassCmd.Flags().BoolVar(&pgpassWrite, "write", false, "append missing lines to ~/.pgpass")
	rootCmd.AddCommand(generatePgpassCmd)
}
