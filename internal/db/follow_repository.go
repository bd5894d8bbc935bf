package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/skillhub/skillhub/internal/models"
)

// FollowRepository provides follow-edge database operations
type FollowRepository struct {
	*Repository
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(repo *Repository) *FollowRepository {
	return &FollowRepository{Repository: repo}
}

// Get retrieves the edge follower -> following
func (r *FollowRepository) Get(ctx context.Context, followerID, followingID uint) (*models.Follow, error) {
	var follow models.Follow
	if err := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		First(&follow).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &follow, nil
}

// Exists reports whether the edge follower -> following exists
func (r *FollowRepository) Exists(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new edge
func (r *FollowRepository) Create(ctx context.Context, follow *models.Follow) error {
	return r.db.WithContext(ctx).Create(follow).Error
}

// Delete removes the edge follower -> following and reports rows removed
func (r *FollowRepository) Delete(ctx context.Context, followerID, followingID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	return res.RowsAffected, res.Error
}

// CountFollowers counts edges pointing at userID
func (r *FollowRepository) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("following_id = ?", userID).Count(&count).Error
	return count, err
}

// CountFollowing counts edges leaving userID
func (r *FollowRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&count).Error
	return count, err
}

// ListFollowers returns the edges pointing at userID with the follower
// loaded, oldest first
func (r *FollowRepository) ListFollowers(ctx context.Context, userID uint) ([]*models.Follow, error) {
	var follows []*models.Follow
	if err := r.db.WithContext(ctx).
		Preload("Follower").
		Where("following_id = ?", userID).
		Order("created_at ASC, follower_id ASC").
		Find(&follows).Error; err != nil {
		return nil, err
	}
	return follows, nil
}

// ListFollowing returns the edges leaving userID with the followed user
// loaded, oldest first
func (r *FollowRepository) ListFollowing(ctx context.Context, userID uint) ([]*models.Follow, error) {
	var follows []*models.Follow
	if err := r.db.WithContext(ctx).
		Preload("Following").
		Where("follower_id = ?", userID).
		Order("created_at ASC, following_id ASC").
		Find(&follows).Error; err != nil {
		return nil, err
	}
	return follows, nil
}

// FollowerIDs returns the IDs of the users following userID, oldest edge first
func (r *FollowRepository) FollowerIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("following_id = ?", userID).
		Order("created_at ASC, follower_id ASC").
		Pluck("follower_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// DeleteInvolving removes every edge touching userID in either direction and
// returns the distinct counterpart IDs
func (r *FollowRepository) DeleteInvolving(ctx context.Context, userID uint) ([]uint, error) {
	var edges []models.Follow
	if err := r.db.WithContext(ctx).
		Where("follower_id = ? OR following_id = ?", userID, userID).
		Find(&edges).Error; err != nil {
		return nil, err
	}
	if len(edges) == 0 {
		return nil, nil
	}

	if err := r.db.WithContext(ctx).
		Where("follower_id = ? OR following_id = ?", userID, userID).
		Delete(&models.Follow{}).Error; err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{}, len(edges))
	counterparts := make([]uint, 0, len(edges))
	for _, e := range edges {
		other := e.FollowerID
		if other == userID {
			other = e.FollowingID
		}
		if _, ok := seen[other]; ok {
			continue
		}
		seen[other] = struct{}{}
		counterparts = append(counterparts, other)
	}
	return counterparts, nil
}
