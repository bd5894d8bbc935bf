package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skillhub/skillhub/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Transaction runs fn inside a transaction bound to a repository scoped to
// it. Calling Transaction on a repository that is already inside one opens
// a savepoint, so fn can fail without aborting the enclosing unit.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// UserRepository provides user-related database operations
type UserRepository struct {
	*Repository
}

// NewUserRepository creates a new user repository
func NewUserRepository(repo *Repository) *UserRepository {
	return &UserRepository{Repository: repo}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetWithSkills retrieves a user and its skills
func (r *UserRepository) GetWithSkills(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Skills").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Exists reports whether a user row exists
func (r *UserRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// MarkPremium sets the premium flag and the payment timestamp
func (r *UserRepository) MarkPremium(ctx context.Context, id uint, paidAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_premium": true, "last_payment_at": paidAt})
	return res.RowsAffected, res.Error
}

// AddSkill links a skill to a user; linking twice is a no-op
func (r *UserRepository) AddSkill(ctx context.Context, user *models.User, skill *models.Skill) error {
	return r.db.WithContext(ctx).Model(user).Association("Skills").Append(skill)
}

// ClearSkills removes every user_skills row for the user
func (r *UserRepository) ClearSkills(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Model(user).Association("Skills").Clear()
}

// Delete deletes a user row; the user's posts, likes and comments go with it
func (r *UserRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.User{}, id)
	return res.RowsAffected, res.Error
}

// ExpirePremium walks premium users whose last payment is before cutoff in
// batches of batchSize, clearing is_premium for each batch with one UPDATE.
// onBatch is called after every batch with the affected IDs.
func (r *UserRepository) ExpirePremium(ctx context.Context, cutoff time.Time, batchSize int, onBatch func(ids []uint)) (int64, error) {
	var users []models.User
	var total int64

	res := r.db.WithContext(ctx).
		Select("id").
		Where("is_premium = ? AND last_payment_at < ?", true, cutoff).
		FindInBatches(&users, batchSize, func(tx *gorm.DB, batch int) error {
			ids := make([]uint, 0, len(users))
			for _, u := range users {
				ids = append(ids, u.ID)
			}

			upd := r.db.WithContext(ctx).Model(&models.User{}).
				Where("id IN ?", ids).
				Update("is_premium", false)
			if upd.Error != nil {
				return upd.Error
			}
			total += upd.RowsAffected

			if onBatch != nil {
				onBatch(ids)
			}
			return nil
		})

	return total, res.Error
}

// SkillRepository provides skill-related database operations
type SkillRepository struct {
	*Repository
}

// NewSkillRepository creates a new skill repository
func NewSkillRepository(repo *Repository) *SkillRepository {
	return &SkillRepository{Repository: repo}
}

// GetByID retrieves a skill by ID
func (r *SkillRepository) GetByID(ctx context.Context, id uint) (*models.Skill, error) {
	var skill models.Skill
	if err := r.db.WithContext(ctx).First(&skill, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &skill, nil
}

// GetOrCreate returns the skill with the given name, inserting it if absent
func (r *SkillRepository) GetOrCreate(ctx context.Context, name string) (*models.Skill, error) {
	skill := models.Skill{Name: name}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&skill).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&skill).Error; err != nil {
		return nil, err
	}
	return &skill, nil
}
