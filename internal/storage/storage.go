// Package storage holds the media blob stores behind post attachments.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/skillhub/skillhub/pkg/config"
)

// Store uploads and removes media blobs
type Store interface {
	Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error)
	Remove(ctx context.Context, url string) error
	Close() error
}

// BlobName returns a collision-free object name that keeps the base name of
// the original file
func BlobName(fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	return uuid.NewString() + "-" + base
}

// New builds the store selected by cfg.Backend
func New(cfg *config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "local", "":
		return NewLocalStore(cfg.LocalDir, cfg.BaseURL)
	case "ftp":
		return NewFTPStore(cfg.FTPHost, cfg.FTPPort, cfg.FTPUser, cfg.FTPPassword, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

// objectName recovers the blob name from a URL produced under baseURL
func objectName(baseURL, url string) (string, error) {
	prefix := strings.TrimRight(baseURL, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", fmt.Errorf("url %q is not under %q", url, baseURL)
	}
	name := strings.TrimPrefix(url, prefix)
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		return "", fmt.Errorf("url %q does not name a blob", url)
	}
	return name, nil
}
