package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dominicchang/pgsqlmgr/internal/pg"
	"github.com/dominicchang/pgsqlmgr/internal/ui"
)

var listDatabasesIncludeSystem bool

var listDatabasesCmd = &cobra.Command{
	Use:   "list-databases <host>",
	Short: "List databases on a host",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		r, _, err := runnerFor(args[0])
		if err != nil {
			fatal(err)
		}
		client := pg.NewClient(r)

		dbs, err := client.ListDatabases(cmd.Context(), listDatabasesIncludeSystem)
		if err != nil {
			fatal(err)
		}
		if len(dbs) == 0 {
			fmt.Printf("No databases found on %s.\n", args[0])
			return
		}

		rows := make([][]string, 0, len(dbs))
		for _, db := range dbs {
			rows = append(rows, []string{db.Name, db.Owner, db.Encoding, db.Size, db.AccessPrivileges})
		}
		fmt.Println(ui.Table([]string{"Database", "Owner", "Encoding", "Size", "Privileges"}, rows))
	},
}

var (
	listTablesDatabase      string
	listTablesIncludeSystem bool
	listTablesPreview       bool
)

var listTablesCmd = &cobra.Command{
	Use:   "list-tables <host>",
	Short: "List tables on a host, in one database or all of them",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		r, _, err := runnerFor(args[0])
		if err != nil {
			fatal(err)
		}
		client := pg.NewClient(r)
		ctx := cmd.Context()

		warn := func(msg string) { fmt.Printf("%s %s\n", ui.Warn("!"), msg) }
		tables, err := client.ListTables(ctx, listTablesDatabase, listTablesIncludeSystem, warn)
		if err != nil {
			fatal(err)
		}
		if len(tables) == 0 {
			fmt.Printf("No tables found on %s.\n", args[0])
			return
		}

		rows := make([][]string, 0, len(tables))
		for _, t := range tables {
			db := t.Database
			if db == "" {
				db = listTablesDatabase
			}
			rows = append(rows, []string{db, t.Schema, t.Name, t.Owner, t.Size, t.RowEstimate})
		}
		fmt.Println(ui.Table([]string{"Database", "Schema", "Table", "Owner", "Size", "Rows"}, rows))

		if listTablesPreview {
			for _, t := range tables {
				db := t.Database
				if db == "" {
					db = listTablesDatabase
				}
				preview, err := client.PreviewTable(ctx, db, t.Name, t.Schema, 10)
				if err != nil {
					warn(fmt.Sprintf("preview of %s.%s failed: %v", t.Schema, t.Name, err))
					continue
				}
				fmt.Printf("\n%s\n", ui.Accent(fmt.Sprintf("%s.%s.%s", db, t.Schema, t.Name)))
				printPreview(preview)
			}
		}
	},
}

var listUsersCmd = &cobra.Command{
	Use:   "list-users <host>",
	Short: "List PostgreSQL roles on a host",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		r, _, err := runnerFor(args[0])
		if err != nil {
			fatal(err)
		}
		client := pg.NewClient(r)

		roles, err := client.ListRoles(cmd.Context())
		if err != nil {
			fatal(err)
		}

		rows := make([][]string, 0, len(roles))
		for _, role := range roles {
			rows = append(rows, []string{
				role.Name,
				yesNo(role.Superuser),
				yesNo(role.CreateRole),
				yesNo(role.CreateDB),
				yesNo(role.CanLogin),
				role.ConnLimit,
				role.ValidUntil,
			})
		}
		fmt.Println(ui.Table(
			[]string{"Role", "Superuser", "Create role", "Create DB", "Login", "Conn limit", "Valid until"},
			rows))
	},
}

var previewSchema string

var previewTableCmd = &cobra.Command{
	Use:   "preview-table <host> <database> <table>",
	Short: "Show the first rows of a table",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		r, _, err := runnerFor(args[0])
		if err != nil {
			fatal(err)
		}
		client := pg.NewClient(r)

		preview, err := client.PreviewTable(cmd.Context(), args[1], args[2], previewSchema, 10)
		if err != nil {
			fatal(err)
		}
		printPreview(preview)
	},
}

func printPreview(p *pg.Preview) {
	if len(p.Rows) == 0 {
		fmt.Println("Table is empty.")
		return
	}
	fmt.Println(ui.Table(p.Columns, p.Rows))
	fmt.Println(ui.Faint(fmt.Sprintf("%d row(s) shown", len(p.Rows))))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func init() {
	listDatabasesCmd.Flags().BoolVar(&listDatabasesIncludeSystem, "include-system", false, "include template and postgres databases")

	listTablesCmd.Flags().StringVar(&listTablesDatabase, "database", "", "restrict to one database (default: all user databases)")
	listTablesCmd.Flags().BoolVar(&listTablesIncludeSystem, "include-system", false, "include system schemas")
	listTablesCmd.Flags().BoolVar(&listTablesPreview, "preview", false, "show the first rows of each table")

	previewTableCmd.Flags().StringVar(&previewSchema, "schema", "public", "table schema")

	rootCmd.AddCommand(listDatabasesCmd)
	rootCmd.AddCommand(listTablesCmd)
	rootCmd.AddCommand(listUsersCmd)
	rootCmd.AddCommand(previewTableCmd)
}
