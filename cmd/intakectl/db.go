package main

import (
	"fmt"
	"time"

	"github.com/northgate-advisors/intake-backend/internal/bootstrap"
	"github.com/northgate-advisors/intake-backend/internal/config"
	"github.com/northgate-advisors/intake-backend/internal/database"
	"github.com/northgate-advisors/intake-backend/internal/logging"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database maintenance",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update every table",
	Long: `Create or update the shared tables and the tables of every
application wizard.

Example:
  intakectl db migrate`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		if err := database.Connect(cfg); err != nil {
			fail("Failed to connect: %v", err)
		}
		defer database.Close(database.DB)

		if err := bootstrap.Migrate(database.DB, bootstrap.Plugins()); err != nil {
			fail("Migration failed: %v", err)
		}
		fmt.Println("Migrations applied")
	},
}

var dbPurgeLogsCmd = &cobra.Command{
	Use:   "purge-logs",
	Short: "Delete stored system logs older than the retention period",
	Long: `Delete stored system logs older than the retention period.

Example:
  intakectl db purge-logs
  intakectl db purge-logs --older-than 168h`,
	Run: func(cmd *cobra.Command, args []string) {
		olderThan, _ := cmd.Flags().GetDuration("older-than")

		cfg := config.Load()
		if olderThan <= 0 {
			olderThan = cfg.LogRetention
		}
		if err := database.Connect(cfg); err != nil {
			fail("Failed to connect: %v", err)
		}
		defer database.Close(database.DB)

		n, err := logging.PurgeBefore(database.DB, time.Now().Add(-olderThan))
		if err != nil {
			fail("Purge failed: %v", err)
		}
		fmt.Printf("Deleted %d log rows\n", n)
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbPurgeLogsCmd)
	dbPurgeLogsCmd.Flags().Duration("older-than", 0, "Retention period (default: LOG_RETENTION)")
}
