package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dominicchang/pgsqlmgr/internal/config"
	"github.com/dominicchang/pgsqlmgr/internal/pg"
	"github.com/dominicchang/pgsqlmgr/internal/sync"
	"github.com/dominicchang/pgsqlmgr/internal/ui"
)

var deleteOpts struct {
	force      bool
	backup     bool
	backupPath string
}

var deleteDBCmd = &cobra.Command{
	Use:   "delete-db <host> <database>",
	Short: "Delete a database, optionally backing it up first",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		hostName, database := args[0], args[1]
		ctx := cmd.Context()

		if pg.SystemDatabases[database] {
			fatal(fmt.Errorf("refusing to delete system database %q", database))
		}

		r, _, err := runnerFor(hostName)
		if err != nil {
			fatal(err)
		}
		client := pg.NewClient(r)

		info, err := client.DatabaseInfo(ctx, database)
		if err != nil {
			fatal(err)
		}
		if !info.Exists {
			fmt.Printf("Database %q does not exist on %s; nothing to do.\n", database, hostName)
			return
		}

		fmt.Println(ui.Panel(database+" on "+hostName, []string{
			"owner:       " + info.Owner,
			"encoding:    " + info.Encoding,
			"size:        " + info.Size,
			"connections: " + info.ActiveConnections,
		}))

		if info.ActiveConnections != "" && info.ActiveConnections != "0" {
			fmt.Printf("%s Database has %s active connection(s); they will be dropped with it.\n",
				ui.Warn("!"), info.ActiveConnections)
		}

		if deleteOpts.backup {
			path := deleteOpts.backupPath
			if path == "" {
				path = sync.BackupPath(config.DefaultDir(), database, time.Now())
			}
			fmt.Printf("%s Backing up %q to %s\n", ui.Accent("→"), database, path)
			if err := sync.CreateBackup(ctx, client, database, path); err != nil {
				if !deleteOpts.force {
					fatal(fmt.Errorf("backup failed, aborting delete: %w", err))
				}
				fmt.Printf("%s Backup failed (%v); continuing because of --force\n", ui.Warn("!"), err)
			} else {
				fmt.Printf("%s Backup written to %s\n", ui.Pass("✓"), path)
			}
		}

		if !deleteOpts.force {
			ok, err := ui.Confirm(fmt.Sprintf("Permanently delete database %q on %s?", database, hostName))
			if err != nil {
				fatal(err)
			}
			if !ok {
				fmt.Println("Cancelled.")
				os.Exit(1)
			}
		}

		if err := client.DropDatabase(ctx, database); err != nil {
			fatal(err)
		}
		fmt.Printf("%s Deleted database %q on %s\n", ui.Pass("✓"), database, hostName)
	},
}

func init() {
	f := deleteDBCmd.Flags()
	f.BoolVar(&deleteOpts.force, "force", false, "skip confirmation and ignore backup failures")
	f.BoolVar(&deleteOpts.backup, "backup", false, "dump the database before deleting it")
	f.StringVar(&deleteOpts.backupPath, "backup-path", "", "backup file path (default ~/.pgsqlmgr/<db>_backup_<timestamp>.sql)")

	rootCmd.AddCommand(deleteDBCmd)
}
