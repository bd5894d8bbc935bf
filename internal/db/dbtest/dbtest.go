// Package dbtest opens throwaway databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skillhub/skillhub/internal/db"
	"github.com/skillhub/skillhub/internal/models"
	"github.com/skillhub/skillhub/pkg/config"
)

// Open returns a migrated sqlite database in a temp dir with foreign keys
// enforced. It is closed when the test ends.
func Open(t testing.TB) *db.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", filepath.Join(t.TempDir(), "test.db"))
	database, err := db.New(&config.DatabaseConfig{Driver: "sqlite", URL: dsn}, "ERROR")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background()))

	t.Cleanup(func() {
		database.Close()
	})
	return database
}

// Repository is Open followed by db.NewRepository
func Repository(t testing.TB) *db.Repository {
	t.Helper()
	return db.NewRepository(Open(t).DB)
}

// CreateUser inserts a user named name
func CreateUser(t testing.TB, repo *db.Repository, name string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "x",
	}
	require.NoError(t, db.NewUserRepository(repo).Create(context.Background(), user))
	return user
}

// CreatePremiumUser inserts a premium user whose last payment was at paidAt
func CreatePremiumUser(t testing.TB, repo *db.Repository, name string, paidAt time.Time) *models.User {
	t.Helper()
	user := CreateUser(t, repo, name)
	_, err := db.NewUserRepository(repo).MarkPremium(context.Background(), user.ID, paidAt)
	require.NoError(t, err)
	user.IsPremium = true
	user.LastPaymentAt = &paidAt
	return user
}

// CreatePost inserts a post without media
func CreatePost(t testing.TB, repo *db.Repository, authorID uint, public bool) *models.Post {
	t.Helper()
	post := &models.Post{UserID: authorID, Description: "post", IsPublic: public}
	require.NoError(t, db.NewPostRepository(repo).Create(context.Background(), post))
	return post
}
