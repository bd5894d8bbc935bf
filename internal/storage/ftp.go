package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jlaffaye/ftp"
)

// FTPStore uploads blobs to an FTP server that is also exposed over HTTP
// at baseURL. One control connection is shared and serialized.
type FTPStore struct {
	host     string
	port     string
	user     string
	password string
	baseURL  string

	mu   sync.Mutex
	conn *ftp.ServerConn
}

// NewFTPStore creates a store; the connection is opened lazily
func NewFTPStore(host, port, user, password, baseURL string) *FTPStore {
	return &FTPStore{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

func (s *FTPStore) connect(ctx context.Context) error {
	conn, err := ftp.Dial(s.host+":"+s.port,
		ftp.DialWithTimeout(10*time.Second),
		ftp.DialWithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to FTP: %w", err)
	}
	if err := conn.Login(s.user, s.password); err != nil {
		conn.Quit()
		return fmt.Errorf("failed to login to FTP: %w", err)
	}
	s.conn = conn
	return nil
}

// withConn runs fn on a live connection, reconnecting once if the cached
// connection turns out to be dead
func (s *FTPStore) withConn(ctx context.Context, fn func(*ftp.ServerConn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		if err := s.conn.NoOp(); err != nil {
			s.conn.Quit()
			s.conn = nil
		}
	}
	if s.conn == nil {
		if err := s.connect(ctx); err != nil {
			return err
		}
	}
	return fn(s.conn)
}

// Upload stores body under a fresh blob name and returns its URL
func (s *FTPStore) Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	blob := BlobName(name)
	err := s.withConn(ctx, func(c *ftp.ServerConn) error {
		if err := c.Stor(blob, body); err != nil {
			return fmt.Errorf("failed to upload file: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return s.baseURL + "/" + blob, nil
}

// Remove deletes the blob behind url
func (s *FTPStore) Remove(ctx context.Context, url string) error {
	name, err := objectName(s.baseURL, url)
	if err != nil {
		return err
	}
	return s.withConn(ctx, func(c *ftp.ServerConn) error {
		if err := c.Delete(name); err != nil {
			return fmt.Errorf("failed to delete file: %w", err)
		}
		return nil
	})
}

// Close closes the FTP connection
func (s *FTPStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Quit()
	s.conn = nil
	return err
}
