package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/skillhub/skillhub/internal/models"
)

// PostRepository provides post-related database operations
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

func orderedMedia(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, id ASC")
}

// GetByID retrieves a post by ID with its skill and its media in position
// order
func (r *PostRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("Media", orderedMedia).Preload("Skill").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// Exists reports whether a post row exists
func (r *PostRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a post row only; media are written with CreateMedia
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Omit("Media", "Author", "Skill").Create(post).Error
}

// CreateMedia inserts media rows in slice order
func (r *PostRepository) CreateMedia(ctx context.Context, media []models.PostMedia) error {
	if len(media) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&media).Error
}

// Updates applies a column map to a post and reports rows matched
func (r *PostRepository) Updates(ctx context.Context, id uint, fields map[string]interface{}) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(fields)
	return res.RowsAffected, res.Error
}

// Delete deletes a post row; media and comments go with it
func (r *PostRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	return res.RowsAffected, res.Error
}

// ListByUser returns posts by authorID newest first. Private posts are only
// included when includePrivate is set.
func (r *PostRepository) ListByUser(ctx context.Context, authorID uint, includePrivate bool) ([]*models.Post, error) {
	var posts []*models.Post
	q := r.db.WithContext(ctx).Preload("Media", orderedMedia).Preload("Skill").Where("user_id = ?", authorID)
	if !includePrivate {
		q = q.Where("is_public = ?", true)
	}
	if err := q.Order("created_at DESC, id DESC").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// ListPublicBySkill returns public posts tagged with skillID newest first
func (r *PostRepository) ListPublicBySkill(ctx context.Context, skillID uint) ([]*models.Post, error) {
	var posts []*models.Post
	if err := r.db.WithContext(ctx).
		Preload("Media", orderedMedia).
		Preload("Skill").
		Where("skill_id = ? AND is_public = ?", skillID, true).
		Order("created_at DESC, id DESC").
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}
