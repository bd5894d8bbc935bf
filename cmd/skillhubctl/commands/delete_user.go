package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skillhub/skillhub/internal/cache"
	"github.com/skillhub/skillhub/internal/db"
	"github.com/skillhub/skillhub/internal/social"
)

// deleteUserCmd represents the delete-user command
var deleteUserCmd = &cobra.Command{
	Use:   "delete-user USER_ID",
	Short: "Delete a user and everything that belongs to them",
	Long: `Delete a user in one transaction: notifications they sent, follow edges
in both directions, skill links, then the user row with its posts, likes and
comments.

Examples:
  skillhubctl delete-user 42`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil || id == 0 {
			return fmt.Errorf("invalid user id %q", args[0])
		}
		return runDeleteUser(cmd, uint(id))
	},
}

func runDeleteUser(cmd *cobra.Command, userID uint) error {
	cfg, database, logger, err := setup()
	if err != nil {
		return err
	}
	defer database.Close()

	// Drop cached follow counts of the user's counterparts too
	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, cached counts expire on their own", zap.Error(err))
		redisCache = nil
	}
	if redisCache != nil {
		defer redisCache.Close()
	}

	svc := social.NewService(db.NewRepository(database.DB), redisCache, nil, &cfg.Social, logger)
	if err := svc.Cascader.DeleteUser(cmd.Context(), userID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %d\n", userID)
	return nil
}
