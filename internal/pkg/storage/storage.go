package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Storage 产物存储接口（成片、时间线、元数据）
type Storage interface {
	// Upload 上传文件，返回访问地址
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)

	// GetPresignedDownloadURL 获取预签名下载URL
	GetPresignedDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, error)

	// Delete 删除文件
	Delete(ctx context.Context, key string) error

	// Exists 检查文件是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// GetStorageType 获取存储类型
	GetStorageType() string
}

// StorageType 存储类型
type StorageType string

const (
	StorageTypeLocal StorageType = "local" // 本地文件系统
	StorageTypeOSS   StorageType = "oss"   // 阿里云OSS
)

// JobKey 任务产物的对象 key：jobs/<jobID>/<文件名>
func JobKey(jobID, filename string) string {
	return path.Join("jobs", jobID, filepath.Base(filename))
}

// UploadFile 上传本地文件
func UploadFile(ctx context.Context, s Storage, key, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()
	return s.Upload(ctx, key, f, ContentType(localPath))
}

var contentTypes = map[string]string{
	".json": "application/json",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".srt":  "text/plain",
}

// ContentType 根据文件扩展名获取Content-Type
func ContentType(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}
