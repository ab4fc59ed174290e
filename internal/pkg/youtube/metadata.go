package youtube

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"ytfactory/internal/config"
	"ytfactory/internal/model/video"
)

const (
	DefaultCategoryID    = "22" // People & Blogs
	DefaultPrivacyStatus = "private"

	maxTitleRunes       = 100
	maxDescriptionRunes = 5000
	maxTags             = 15
	descriptionLead     = 3
)

// Metadata 上传用的视频元数据
type Metadata struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	CategoryID    string   `json:"categoryId"`
	PrivacyStatus string   `json:"privacyStatus"`
	PublishAt     string   `json:"publishAt,omitempty"` // RFC3339，定时发布
	ThumbnailPath string   `json:"thumbnailPath,omitempty"`
}

// NewMetadata 根据主题和脚本生成默认元数据
// 标题取主题，描述取前几句旁白，标签取去重后的关键词
func NewMetadata(topic string, sentences []video.ScriptSentence, cfg *config.UploadConfig) *Metadata {
	m := &Metadata{
		Title:         clip(strings.TrimSpace(topic), maxTitleRunes),
		CategoryID:    cfg.CategoryID,
		PrivacyStatus: cfg.PrivacyStatus,
		Tags:          []string{},
	}
	m.applyDefaults()

	var lead []string
	seen := map[string]bool{}
	for _, s := range sentences {
		text := strings.TrimSpace(s.Text)
		if text != "" && len(lead) < descriptionLead {
			lead = append(lead, text)
		}
		kw := strings.ToLower(strings.TrimSpace(s.Keyword))
		if kw != "" && !seen[kw] && len(m.Tags) < maxTags {
			seen[kw] = true
			m.Tags = append(m.Tags, kw)
		}
	}
	m.Description = clip(strings.Join(lead, " "), maxDescriptionRunes)
	return m
}

func (m *Metadata) applyDefaults() {
	if m.CategoryID == "" {
		m.CategoryID = DefaultCategoryID
	}
	if m.PrivacyStatus == "" {
		m.PrivacyStatus = DefaultPrivacyStatus
	}
}

// Validate 上传前检查
func (m *Metadata) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("metadata title is empty")
	}
	switch m.PrivacyStatus {
	case "private", "unlisted", "public":
	default:
		return fmt.Errorf("invalid privacyStatus: %s", m.PrivacyStatus)
	}
	return nil
}

// LoadMetadata 读取元数据文件，缺省字段补默认值
func LoadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", path, err)
	}
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveMetadata 写元数据文件，先写临时文件再改名
func SaveMetadata(path string, m *Metadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metadata dir: %w", err)
	}
	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
