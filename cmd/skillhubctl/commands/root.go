package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skillhub/skillhub/internal/db"
	"github.com/skillhub/skillhub/pkg/config"
	"github.com/skillhub/skillhub/pkg/logging"
)

var (
	// Global flags
	dbURL    string
	dbDriver string
	verbose  bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "skillhubctl",
	Short: "Operator tool for the SkillHub social core",
	Long: `skillhubctl runs one-off maintenance tasks against the SkillHub database.

Commands:
  migrate      - Create or update the schema
  sweep        - Revoke lapsed premium memberships once
  delete-user  - Delete a user and everything that belongs to them`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database connection URL (overrides SKILLHUB_DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&dbDriver, "driver", "", "Database driver: postgres, mysql or sqlite")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(migrateCmd, sweepCmd, deleteUserCmd)
}

// setup loads configuration, applies flag overrides and opens the database
func setup() (*config.Config, *db.DB, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	if dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if dbDriver != "" {
		cfg.Database.Driver = dbDriver
	}
	if verbose {
		cfg.Logging.Level = "DEBUG"
	}
	cfg.Logging.Format = "text"

	if err := logging.InitLogger(&cfg.Logging); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger := logging.GetLogger()

	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, database, logger, nil
}
