package oss

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"ytfactory/internal/pkg/storage"
)

// OSSStorage 阿里云OSS存储
type OSSStorage struct {
	bucket        *oss.Bucket
	bucketName    string
	endpoint      string
	prefix        string
	presignExpiry int // 预签名URL过期时间上限（秒）
}

// NewOSSStorage 创建阿里云OSS存储
func NewOSSStorage(endpoint, bucketName, accessKeyID, accessKeySecret, prefix string, presignExpiry int) (*OSSStorage, error) {
	client, err := oss.New(endpoint, accessKeyID, accessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}

	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}

	if presignExpiry <= 0 {
		presignExpiry = 3600
	}

	return &OSSStorage{
		bucket:        bucket,
		bucketName:    bucketName,
		endpoint:      strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://"),
		prefix:        strings.Trim(prefix, "/"),
		presignExpiry: presignExpiry,
	}, nil
}

func (s *OSSStorage) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

// Upload 上传文件
func (s *OSSStorage) Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	objectKey := s.objectKey(key)
	err := s.bucket.PutObject(objectKey, data, oss.ContentType(contentType), oss.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return fmt.Sprintf("https://%s.%s/%s", s.bucketName, s.endpoint, objectKey), nil
}

// GetPresignedDownloadURL 获取预签名下载URL，过期时间不超过配置上限
func (s *OSSStorage) GetPresignedDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	expiry := expiresIn
	if limit := time.Duration(s.presignExpiry) * time.Second; expiry <= 0 || expiry > limit {
		expiry = limit
	}

	url, err := s.bucket.SignURL(s.objectKey(key), oss.HTTPGet, int64(expiry.Seconds()))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL: %w", err)
	}
	return url, nil
}

// Delete 删除文件
func (s *OSSStorage) Delete(ctx context.Context, key string) error {
	if err := s.bucket.DeleteObject(s.objectKey(key), oss.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Exists 检查文件是否存在
func (s *OSSStorage) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := s.bucket.IsObjectExist(s.objectKey(key), oss.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}
	return exists, nil
}

// GetStorageType 获取存储类型
func (s *OSSStorage) GetStorageType() string {
	return string(storage.StorageTypeOSS)
}
