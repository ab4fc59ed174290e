// Package pexels Pexels 图片搜索 API 客户端
package pexels

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ytfactory/internal/pkg/errkind"
)

const defaultBaseURL = "https://api.pexels.com"

// Photo 搜索结果中的图片
type Photo struct {
	ID           int64  `json:"id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	URL          string `json:"url"`
	Photographer string `json:"photographer"`
	Alt          string `json:"alt"`
	Src          Src    `json:"src"`
}

// Src 各尺寸图片地址
type Src struct {
	Original  string `json:"original"`
	Large2x   string `json:"large2x"`
	Large     string `json:"large"`
	Medium    string `json:"medium"`
	Small     string `json:"small"`
	Landscape string `json:"landscape"`
}

// BySize 按名称取尺寸，未知名称返回 large
func (s Src) BySize(size string) string {
	switch size {
	case "original":
		return s.Original
	case "large2x":
		return s.Large2x
	case "medium":
		return s.Medium
	case "small":
		return s.Small
	case "landscape":
		return s.Landscape
	default:
		return s.Large
	}
}

// SearchResponse /v1/search 响应
type SearchResponse struct {
	TotalResults int     `json:"total_results"`
	Page         int     `json:"page"`
	PerPage      int     `json:"per_page"`
	Photos       []Photo `json:"photos"`
}

// StatusError 非 200 响应
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pexels API error: status %d: %s", e.StatusCode, e.Body)
}

// Client Pexels 客户端
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient 创建 Pexels 客户端
func NewClient(apiKey, baseURL string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: pexels api key", errkind.ErrMissingCredentials)
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Search 搜索图片
func (c *Client) Search(ctx context.Context, query string, perPage int) (*SearchResponse, error) {
	if perPage <= 0 {
		perPage = 1
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", fmt.Sprint(perPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pexels request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read pexels response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: msg}
	}

	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode pexels response: %w", err)
	}
	return &result, nil
}
