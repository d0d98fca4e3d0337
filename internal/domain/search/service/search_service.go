package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	postModel "blog_api/internal/domain/post/model"
	tagModel "blog_api/internal/domain/tag/model"
	userModel "blog_api/internal/domain/user/model"
	"blog_api/pkg/cache"
	"blog_api/pkg/logger"
	"blog_api/pkg/metrics"
	"blog_api/pkg/utils"

	"go.uber.org/zap"
)

const (
	MinQueryLength = 2

	SearchCacheKeyPrefix = "search:"
	SearchCacheTTL       = 2 * time.Minute
)

// PostSearcher 帖子检索
type PostSearcher interface {
	Search(ctx context.Context, query string, p utils.Pagination) (utils.PageResult[postModel.PostResponse], error)
	Similar(ctx context.Context, id string, p utils.Pagination) (utils.PageResult[postModel.PostResponse], error)
}

// UserSearcher 用户检索
type UserSearcher interface {
	List(ctx context.Context, search string, p utils.Pagination) (utils.PageResult[userModel.UserResponse], error)
}

// TagSearcher 标签检索
type TagSearcher interface {
	List(ctx context.Context, search string, p utils.Pagination) (utils.PageResult[tagModel.Tag], error)
}

// GlobalResult 全局搜索结果
type GlobalResult struct {
	Query        string                                   `json:"query"`
	Posts        utils.PageResult[postModel.PostResponse] `json:"posts"`
	Users        utils.PageResult[userModel.UserResponse] `json:"users"`
	TotalResults int64                                    `json:"totalResults"`
}

// Statistics 各类结果数量
type Statistics struct {
	Posts int64 `json:"posts"`
	Users int64 `json:"users"`
	Tags  int64 `json:"tags"`
}

// SearchService 搜索服务
type SearchService interface {
	Global(ctx context.Context, query string, p utils.Pagination) (*GlobalResult, error)
	Posts(ctx context.Context, query string, p utils.Pagination) (utils.PageResult[postModel.PostResponse], error)
	Users(ctx context.Context, query string, p utils.Pagination) (utils.PageResult[userModel.UserResponse], error)
	Statistics(ctx context.Context, query string) (*Statistics, error)
	Similar(ctx context.Context, postID string, p utils.Pagination) (utils.PageResult[postModel.PostResponse], error)
}

type searchService struct {
	posts   PostSearcher
	users   UserSearcher
	tags    TagSearcher
	cache   cache.CacheService
	metrics *metrics.MetricsCollector
}

func NewSearchService(posts PostSearcher, users UserSearcher, tags TagSearcher, cacheService cache.CacheService, collector *metrics.MetricsCollector) SearchService {
	return &searchService{
		posts:   posts,
		users:   users,
		tags:    tags,
		cache:   cacheService,
		metrics: collector,
	}
}

// normalize 去除首尾空白，过短返回 false
func normalize(query string) (string, bool) {
	q := strings.TrimSpace(query)
	return q, utf8.RuneCountInString(q) >= MinQueryLength
}

// searchCacheKey 查询词、分页与排序共同决定结果
func searchCacheKey(kind, query string, p utils.Pagination) string {
	p.Normalize()
	sort := strings.ToLower(strings.ReplaceAll(p.Sort, " ", ""))
	return fmt.Sprintf("%s%s:%s:%d:%d:%s", SearchCacheKeyPrefix, kind, strings.ToLower(query), p.Page, p.Size, sort)
}

// cached 读缓存，未命中时执行 load 并回写
func cached[T any](ctx context.Context, s *searchService, key string, load func() (T, error)) (T, error) {
	var out T
	err := s.cache.Get(ctx, key, &out)
	if err == nil {
		s.metrics.RecordCacheOperation(SearchCacheKeyPrefix, true)
		return out, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Log.Warn("search cache read failed", zap.String("key", key), zap.Error(err))
	}
	s.metrics.RecordCacheOperation(SearchCacheKeyPrefix, false)

	out, err = load()
	if err != nil {
		return out, err
	}
	if err := s.cache.Set(ctx, key, out, SearchCacheTTL); err != nil {
		logger.Log.Warn("failed to cache search result", zap.String("key", key), zap.Error(err))
	}
	return out, nil
}

// Posts 查询过短时返回空页
func (s *searchService) Posts(ctx context.Context, query string, p utils.Pagination) (utils.PageResult[postModel.PostResponse], error) {
	q, ok := normalize(query)
	if !ok {
		return utils.NewPageResult[postModel.PostResponse](nil, p, 0), nil
	}
	return cached(ctx, s, searchCacheKey("posts", q, p), func() (utils.PageResult[postModel.PostResponse], error) {
		return s.posts.Search(ctx, q, p)
	})
}

func (s *searchService) Users(ctx context.Context, query string, p utils.Pagination) (utils.PageResult[userModel.UserResponse], error) {
	q, ok := normalize(query)
	if !ok {
		return utils.NewPageResult[userModel.UserResponse](nil, p, 0), nil
	}
	return cached(ctx, s, searchCacheKey("users", q, p), func() (utils.PageResult[userModel.UserResponse], error) {
		return s.users.List(ctx, q, p)
	})
}

func (s *searchService) Global(ctx context.Context, query string, p utils.Pagination) (*GlobalResult, error) {
	posts, err := s.Posts(ctx, query, p)
	if err != nil {
		return nil, err
	}
	users, err := s.Users(ctx, query, p)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordEvent("search_performed")
	return &GlobalResult{
		Query:        strings.TrimSpace(query),
		Posts:        posts,
		Users:        users,
		TotalResults: posts.TotalElements + users.TotalElements,
	}, nil
}

// Statistics 只统计数量，空查询返回全零
func (s *searchService) Statistics(ctx context.Context, query string) (*Statistics, error) {
	stats := &Statistics{}
	q, ok := normalize(query)
	if !ok {
		return stats, nil
	}

	one := utils.Pagination{Size: 1}
	posts, err := s.posts.Search(ctx, q, one)
	if err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx, q, one)
	if err != nil {
		return nil, err
	}
	tags, err := s.tags.List(ctx, q, one)
	if err != nil {
		return nil, err
	}
	stats.Posts = posts.TotalElements
	stats.Users = users.TotalElements
	stats.Tags = tags.TotalElements
	return stats, nil
}

func (s *searchService) Similar(ctx context.Context, postID string, p utils.Pagination) (utils.PageResult[postModel.PostResponse], error) {
	return s.posts.Similar(ctx, postID, p)
}
