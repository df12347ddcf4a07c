package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"

	"estatehub-backend/internal/logger"
)

// FileStore keeps artifacts on the local filesystem and serves them through
// the HTTP download route. Used for development and single-node deployments.
type FileStore struct {
	baseURL string
	rootDir string
	policy  Policy
	now     func() time.Time
}

func NewFileStore(baseURL, rootDir string, policy Policy) (*FileStore, error) {
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &FileStore{
		baseURL: baseURL,
		rootDir: rootDir,
		policy:  policy,
		now:     time.Now,
	}, nil
}

func (s *FileStore) Store(ctx context.Context, data []byte, folderHint, contentType string) (string, error) {
	if err := s.policy.Check(int64(len(data)), contentType); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := newKey(folderHint, contentType, s.now())
	fullPath := filepath.Join(s.rootDir, filepath.FromSlash(key))
	logger.ExternalServiceCall("filestore", "Store", "key", key, "size", len(data))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		logger.ExternalServiceResult("filestore", "Store", err)
		return "", fmt.Errorf("failed to create directories: %w", err)
	}
	// Write to a temp name first so a partial file is never served.
	tmp := fullPath + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		logger.ExternalServiceResult("filestore", "Store", err)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		_ = os.Remove(tmp)
		logger.ExternalServiceResult("filestore", "Store", err)
		return "", fmt.Errorf("failed to finalize file: %w", err)
	}

	logger.ExternalServiceResult("filestore", "Store", nil, "key", key)
	return downloadURL(s.baseURL, key), nil
}

func (s *FileStore) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if !validKey(key) {
		return nil, "", ErrInvalidKey
	}
	file, err := os.Open(filepath.Join(s.rootDir, filepath.FromSlash(key)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return file, contentType, nil
}
