package social

import (
	"go.uber.org/zap"

	"github.com/skillhub/skillhub/internal/cache"
	"github.com/skillhub/skillhub/internal/db"
	"github.com/skillhub/skillhub/pkg/config"
)

// Service bundles the social components over one repository
type Service struct {
	Users      *Users
	Notifier   *Notifier
	Follows    *FollowGraph
	Cascader   *Cascader
	Posts      *PostStore
	Engagement *Engagement
}

// NewService wires the components together. c and uploader may be nil.
func NewService(repo *db.Repository, c *cache.Cache, uploader MediaUploader, cfg *config.SocialConfig, logger *zap.Logger) *Service {
	notifier := NewNotifier(repo, cfg.MaxPageSize, logger)
	follows := NewFollowGraph(repo, notifier, c, logger)
	cascader := NewCascader(repo, follows, logger)

	return &Service{
		Users:      NewUsers(repo, logger),
		Notifier:   notifier,
		Follows:    follows,
		Cascader:   cascader,
		Posts:      NewPostStore(repo, notifier, cascader, uploader, cfg.MaxMediaPerPost, logger),
		Engagement: NewEngagement(repo, notifier, logger),
	}
}
