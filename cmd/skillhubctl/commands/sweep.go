package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skillhub/skillhub/internal/db"
	"github.com/skillhub/skillhub/internal/sweeper"
)

var premiumDays int

// sweepCmd represents the sweep command
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Revoke lapsed premium memberships once",
	Long: `Run a single premium expiry sweep and exit.

Examples:
  skillhubctl sweep
  skillhubctl sweep --premium-days 45`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSweep(cmd)
	},
}

func init() {
	sweepCmd.Flags().IntVar(&premiumDays, "premium-days", 0, "Validity window in days (overrides SKILLHUB_PREMIUM_DAYS)")
}

func runSweep(cmd *cobra.Command) error {
	cfg, database, logger, err := setup()
	if err != nil {
		return err
	}
	defer database.Close()

	if premiumDays > 0 {
		cfg.Sweeper.PremiumDays = premiumDays
	}

	s := sweeper.New(db.NewRepository(database.DB), &cfg.Sweeper, logger)
	n, err := s.SweepOnce(cmd.Context())
	if err != nil {
		return fmt.Errorf("sweep failed after %d users: %w", n, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Revoked premium for %d users\n", n)
	return nil
}
