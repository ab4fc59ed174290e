// Package images 根据关键词检索配图
package images

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"ytfactory/internal/pkg/errkind"
	"ytfactory/internal/pkg/pexels"
)

// Resolver 关键词到图片地址；nil 表示没有可用图片
// 实现不返回错误，任何失败都降级为 nil
type Resolver interface {
	ResolveImage(ctx context.Context, keyword string) *string
}

// Lookuper 能区分「没有结果」和「上游出错」的检索器，*PexelsResolver 实现了它
type Lookuper interface {
	Lookup(ctx context.Context, keyword string) (*string, error)
}

// Searcher 图片搜索接口，*pexels.Client 实现了它
type Searcher interface {
	Search(ctx context.Context, query string, perPage int) (*pexels.SearchResponse, error)
}

// PexelsResolver 取 Pexels 搜索的第一张图
type PexelsResolver struct {
	searcher Searcher
	size     string
}

// NewPexelsResolver 创建 Pexels 检索器
// searcher 为 nil 时（未配置 key）所有关键词都返回 nil
func NewPexelsResolver(searcher Searcher, size string) *PexelsResolver {
	return &PexelsResolver{searcher: searcher, size: size}
}

// ResolveImage 检索一张图，失败降级为 nil
func (r *PexelsResolver) ResolveImage(ctx context.Context, keyword string) *string {
	u, err := r.Lookup(ctx, keyword)
	if err != nil {
		log.Warn().Err(err).Str("keyword", keyword).Msg("image search failed")
		return nil
	}
	return u
}

// Lookup 检索一张图，上游错误原样返回
// 没有结果时返回 nil, nil
func (r *PexelsResolver) Lookup(ctx context.Context, keyword string) (*string, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, nil
	}
	if r.searcher == nil {
		return nil, fmt.Errorf("%w: pexels api key not configured", errkind.ErrMissingCredentials)
	}

	resp, err := r.searcher.Search(ctx, keyword, 1)
	if err != nil {
		return nil, err
	}
	if len(resp.Photos) == 0 {
		log.Info().Str("keyword", keyword).Msg("no image found")
		return nil, nil
	}

	u := resp.Photos[0].Src.BySize(r.size)
	if u == "" {
		return nil, nil
	}
	return &u, nil
}
