package id

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// New 生成新的UUID（string格式）
func New() string {
	return uuid.New().String()
}

// IsValid 验证UUID格式是否有效
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// SanitizeTopic 把主题转成适合做文件名的 slug
// 小写，非 [a-z0-9] 连续字符合并为一个 "-"，首尾 "-" 去掉；结果为空时返回 "video"
func SanitizeTopic(topic string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(topic) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if len(slug) > 60 {
		slug = strings.TrimRight(slug[:60], "-")
	}
	if slug == "" {
		return "video"
	}
	return slug
}

// JobID 由主题和时间戳生成任务ID
func JobID(topic string, now time.Time) string {
	return fmt.Sprintf("%s-%d", SanitizeTopic(topic), now.UnixMilli())
}

// WithSuffix 在任务ID后追加随机后缀，用于同一毫秒内的重名
func WithSuffix(jobID string) string {
	return jobID + "-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
}

// IsSafeJobID 判断 id 是否可以安全地拼进文件路径
func IsSafeJobID(s string) bool {
	if s == "" || len(s) > 128 {
		return false
	}
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}
	return true
}
