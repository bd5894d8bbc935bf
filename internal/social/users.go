package social

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/skillhub/skillhub/internal/db"
	"github.com/skillhub/skillhub/internal/models"
)

// Users covers the account operations the social core depends on
type Users struct {
	repo   *db.Repository
	logger *zap.Logger
}

// NewUsers creates the user service
func NewUsers(repo *db.Repository, logger *zap.Logger) *Users {
	return &Users{
		repo:   repo,
		logger: logger.With(zap.String("component", "users")),
	}
}

// Register creates a user with a bcrypt password hash
func (u *Users) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	const op = "user.register"
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, invalid(op, "username, email and password are required")
	}

	users := db.NewUserRepository(u.repo)
	existing, err := users.GetByUsername(ctx, username)
	if err != nil {
		return nil, storageErr(op, err)
	}
	if existing != nil {
		return nil, newError(ErrAlreadyExists, op, "username %q is taken", username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, invalid(op, "password is too long")
		}
		return nil, &Error{Kind: ErrUnavailable, Op: op, Msg: "password hashing failed", Err: err}
	}

	user := &models.User{Username: username, Email: email, PasswordHash: string(hash)}
	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &Error{Kind: ErrAlreadyExists, Op: op, Msg: "username or email already registered", Err: err}
		}
		return nil, storageErr(op, err)
	}
	return user, nil
}

// GetUser returns a user with its skills
func (u *Users) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	const op = "user.get"
	user, err := db.NewUserRepository(u.repo).GetWithSkills(ctx, userID)
	if err != nil {
		return nil, storageErr(op, err)
	}
	if user == nil {
		return nil, notFound(op, "user %d does not exist", userID)
	}
	return user, nil
}

// AddSkill attaches the named skill to a user, creating the skill if needed
func (u *Users) AddSkill(ctx context.Context, userID uint, skillName string) (skill *models.Skill, err error) {
	const op = "user.add_skill"
	skillName = strings.TrimSpace(skillName)
	if skillName == "" {
		return nil, invalid(op, "skill name is required")
	}

	err = u.repo.Transaction(ctx, func(tx *db.Repository) error {
		users := db.NewUserRepository(tx)
		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return storageErr(op, err)
		}
		if user == nil {
			return notFound(op, "user %d does not exist", userID)
		}
		if skill, err = db.NewSkillRepository(tx).GetOrCreate(ctx, skillName); err != nil {
			return storageErr(op, err)
		}
		return storageErr(op, users.AddSkill(ctx, user, skill))
	})
	if err != nil {
		return nil, err
	}
	return skill, nil
}

// RecordPayment marks a user premium as of paidAt
func (u *Users) RecordPayment(ctx context.Context, userID uint, paidAt time.Time) error {
	const op = "user.record_payment"
	users := db.NewUserRepository(u.repo)
	if err := requireUser(ctx, users, op, userID, "user"); err != nil {
		return err
	}
	if _, err := users.MarkPremium(ctx, userID, paidAt.UTC()); err != nil {
		return storageErr(op, err)
	}
	return nil
}
