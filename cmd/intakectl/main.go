// intakectl is the operator CLI for the intake backend: migrations, admin
// accounts, notification resends and catalog checks.
package main

import (
	"fmt"
	"os"

	"github.com/northgate-advisors/intake-backend/internal/bootstrap"
	"github.com/northgate-advisors/intake-backend/internal/config"
	"github.com/northgate-advisors/intake-backend/internal/database"
	"github.com/northgate-advisors/intake-backend/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "intakectl",
	Short: "Operate the lead intake backend",
	Long: `Operate the lead intake backend.

Database settings are read from the same environment variables as the
server (DB_HOST, DB_USER, DB_PASSWORD, ...). A .env file in the working
directory is honoured.`,
	SilenceUsage: true,
}

func main() {
	logging.Setup()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// connect opens the database and builds the service graph.
func connect() (*bootstrap.Container, error) {
	cfg := config.Load()
	if err := database.Connect(cfg); err != nil {
		return nil, err
	}
	c, err := bootstrap.New(cfg, database.DB)
	if err != nil {
		_ = database.Close(database.DB)
		return nil, err
	}
	return c, nil
}

func release(c *bootstrap.Container) {
	c.Close()
	_ = database.Close(c.DB)
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
