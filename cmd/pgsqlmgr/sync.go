package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dominicchang/pgsqlmgr/internal/host"
	"github.com/dominicchang/pgsqlmgr/internal/sync"
	"github.com/dominicchang/pgsqlmgr/internal/ui"
)

var syncOpts struct {
	dropExisting bool
	dataOnly     bool
	schemaOnly   bool
	autoInstall  bool
	dryRun       bool
	keepDump     bool
}

var syncDBCmd = &cobra.Command{
	Use:   "sync-db <source-host> <database> <dest-host>",
	Short: "Copy a database from one host to another",
	Long: `Copy a database between hosts using pg_dump and psql.

The dump is staged under ~/.pgsqlmgr/temp and transferred with scp when
either host is SSH-reachable. Both hosts are checked before anything
runs; missing installations and stopped services can be remediated
interactively or automatically with --auto-install.`,
	Args: cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		sourceName, database, destName := args[0], args[1], args[2]

		cfg, err := loadConfig()
		if err != nil {
			fatal(err)
		}
		source, err := host.ForName(sourceName, cfg)
		if err != nil {
			fatal(err)
		}
		dest, err := host.ForName(destName, cfg)
		if err != nil {
			fatal(err)
		}

		opts := sync.Options{
			Database:     database,
			DropExisting: syncOpts.dropExisting,
			DataOnly:     syncOpts.dataOnly,
			SchemaOnly:   syncOpts.schemaOnly,
			AutoInstall:  syncOpts.autoInstall,
			KeepDump:     syncOpts.keepDump,
		}

		syncer := sync.New(source, dest)
		syncer.Progress = printProgress
		syncer.Confirm = func(prompt string) bool {
			ok, err := ui.Confirm(prompt)
			if err != nil {
				return false
			}
			return ok
		}

		if syncOpts.dryRun {
			fmt.Printf("Plan for syncing %q from %s to %s (%s):\n",
				database, sourceName, destName, opts.Mode())
			for i, step := range syncer.Plan(opts) {
				fmt.Printf("  %d. %s\n", i+1, step)
			}
			return
		}

		start := time.Now()
		if err := syncer.Sync(cmd.Context(), opts); err != nil {
			fatal(err)
		}
		fmt.Printf("%s Synced %q from %s to %s in %v\n",
			ui.Pass("✓"), database, sourceName, destName, time.Since(start).Round(time.Millisecond))
	},
}

func init() {
	f := syncDBCmd.Flags()
	f.BoolVar(&syncOpts.dropExisting, "drop-existing", false, "drop the destination database before restoring")
	f.BoolVar(&syncOpts.dataOnly, "data-only", false, "copy data without schema")
	f.BoolVar(&syncOpts.schemaOnly, "schema-only", false, "copy schema without data")
	f.BoolVar(&syncOpts.autoInstall, "auto-install", false, "install PostgreSQL and start services without asking")
	f.BoolVar(&syncOpts.dryRun, "dry-run", false, "print the plan without running it")
	f.BoolVar(&syncOpts.keepDump, "keep-dump", false, "keep the dump file after a successful sync")
	syncDBCmd.MarkFlagsMutuallyExclusive("data-only", "schema-only")

	rootCmd.AddCommand(syncDBCmd)
}
