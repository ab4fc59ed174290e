package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ytfactory/internal/pkg/storage"
)

// LocalStorage 本地文件系统存储
type LocalStorage struct {
	basePath string // 基础路径
	baseURL  string // 基础URL（用于生成访问URL）
}

// NewLocalStorage 创建本地文件系统存储
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("local storage base_path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// fullPath key 对应的本地路径，拒绝跳出 basePath 的 key
func (s *LocalStorage) fullPath(key string) (string, error) {
	p := filepath.Join(s.basePath, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.basePath, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid storage key: %s", key)
	}
	return p, nil
}

// Upload 写入文件，先写临时文件再改名
func (s *LocalStorage) Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	fullPath, err := s.fullPath(key)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(fullPath)+".*.part")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to move file: %w", err)
	}

	return s.fileURL(key), nil
}

// GetPresignedDownloadURL 本地存储没有签名，直接返回文件URL
func (s *LocalStorage) GetPresignedDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	if _, err := s.fullPath(key); err != nil {
		return "", err
	}
	return s.fileURL(key), nil
}

// Delete 删除文件，文件不存在视为成功
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	fullPath, err := s.fullPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Exists 检查文件是否存在
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	fullPath, err := s.fullPath(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetStorageType 获取存储类型
func (s *LocalStorage) GetStorageType() string {
	return string(storage.StorageTypeLocal)
}

func (s *LocalStorage) fileURL(key string) string {
	urlKey := strings.ReplaceAll(key, "\\", "/")
	if s.baseURL == "" {
		return "file://" + filepath.ToSlash(filepath.Join(s.basePath, key))
	}
	return fmt.Sprintf("%s/%s", s.baseURL, urlKey)
}
