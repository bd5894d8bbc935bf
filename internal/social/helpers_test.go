package social

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skillhub/skillhub/internal/db"
	"github.com/skillhub/skillhub/internal/db/dbtest"
	"github.com/skillhub/skillhub/internal/models"
	"github.com/skillhub/skillhub/pkg/config"
)

// mockUploader records uploads; uploadFunc overrides the default behavior
type mockUploader struct {
	mu         sync.Mutex
	uploadFunc func(name string) error
	uploaded   []string
	removed    []string
}

func (m *mockUploader) Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadFunc != nil {
		if err := m.uploadFunc(name); err != nil {
			return "", err
		}
	}
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	url := fmt.Sprintf("http://media.test/%d-%s", len(m.uploaded), name)
	m.uploaded = append(m.uploaded, url)
	return url, nil
}

func (m *mockUploader) Remove(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, url)
	return nil
}

type testEnv struct {
	db       *db.DB
	repo     *db.Repository
	svc      *Service
	uploader *mockUploader
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := dbtest.Open(t)
	repo := db.NewRepository(database.DB)
	uploader := &mockUploader{}
	svc := NewService(repo, nil, uploader, &config.SocialConfig{MaxMediaPerPost: 3, MaxPageSize: 50}, zap.NewNop())
	return &testEnv{db: database, repo: repo, svc: svc, uploader: uploader}
}

func (e *testEnv) user(t *testing.T, name string) *models.User {
	t.Helper()
	return dbtest.CreateUser(t, e.repo, name)
}

func (e *testEnv) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func (e *testEnv) notifications(t *testing.T, recipientID uint) []models.Notification {
	t.Helper()
	var items []models.Notification
	require.NoError(t, e.db.Where("user_id = ?", recipientID).Order("id ASC").Find(&items).Error)
	return items
}

func media(names ...string) []MediaUpload {
	items := make([]MediaUpload, len(names))
	for i, n := range names {
		ct := "image/png"
		if strings.HasSuffix(n, ".mp4") {
			ct = "video/mp4"
		}
		items[i] = MediaUpload{FileName: n, ContentType: ct, Body: strings.NewReader("data")}
	}
	return items
}

func boolPtr(b bool) *bool { return &b }

func uintPtr(u uint) *uint { return &u }

var errUploadFailed = errors.New("upload failed")
