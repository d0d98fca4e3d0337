package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"blog_api/internal/domain/tag/model"
	"blog_api/internal/domain/tag/repository"
	"blog_api/pkg/apperror"
	"blog_api/pkg/cache"
	"blog_api/pkg/database"
	"blog_api/pkg/logger"
	"blog_api/pkg/metrics"
	"blog_api/pkg/utils"

	"go.uber.org/zap"
)

const (
	TagCacheKeyPrefix = "tag:"
	TagCacheTTL       = 10 * time.Minute

	DefaultPopularLimit = 10
	MaxTagLimit         = 100
)

// TagService 标签服务
type TagService interface {
	GetOrCreate(ctx context.Context, name string) (*model.Tag, error)
	Resolve(ctx context.Context, names []string) ([]model.Tag, error)
	Attach(ctx context.Context, ids ...string) error
	Detach(ctx context.Context, ids ...string) error

	Create(ctx context.Context, input model.TagInput) (*model.Tag, error)
	Update(ctx context.Context, id string, input model.TagInput) (*model.Tag, error)
	Delete(ctx context.Context, id string) error
	Merge(ctx context.Context, sourceID, targetID string) (*model.Tag, error)

	Get(ctx context.Context, id string) (*model.Tag, error)
	GetByName(ctx context.Context, name string) (*model.Tag, error)
	GetBySlug(ctx context.Context, slug string) (*model.Tag, error)
	List(ctx context.Context, search string, p utils.Pagination) (utils.PageResult[model.Tag], error)
	Popular(ctx context.Context, limit int) ([]model.Tag, error)
	Trending(ctx context.Context, days, limit int) ([]model.Tag, error)
	PostCount(ctx context.Context, id string) (int64, error)
}

type tagService struct {
	repo    repository.TagRepository
	tx      database.Transactor
	cache   cache.CacheService
	metrics *metrics.MetricsCollector
	now     func() time.Time
}

// NewTagService 创建标签服务
func NewTagService(repo repository.TagRepository, tx database.Transactor, cacheService cache.CacheService, collector *metrics.MetricsCollector) TagService {
	return &tagService{
		repo:    repo,
		tx:      tx,
		cache:   cacheService,
		metrics: collector,
		now:     time.Now,
	}
}

var tagSortFields = map[string]string{
	"name":      "name",
	"postCount": "post_count",
	"createdAt": "created_at",
}

func tagCacheKey(id string) string {
	return TagCacheKeyPrefix + id
}

func (s *tagService) invalidate(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, tagCacheKey(id))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.Log.Warn("failed to invalidate tag cache", zap.Strings("keys", keys), zap.Error(err))
	}
}

func notFound(err error, format string, arg string) error {
	if database.IsNotFound(err) {
		return apperror.NotFound(format, arg)
	}
	return err
}

// GetOrCreate 按名称查找，不存在则创建
// 并发创建时插入被忽略，随后重新读取
func (s *tagService) GetOrCreate(ctx context.Context, name string) (*model.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("tags", "Tag name must not be blank")
	}

	tag, err := s.repo.GetByName(ctx, name)
	if err == nil {
		return tag, nil
	}
	if !database.IsNotFound(err) {
		return nil, err
	}

	tag = &model.Tag{Name: name}
	created, err := s.repo.CreateIfAbsent(ctx, tag)
	if err != nil {
		return nil, err
	}
	if created {
		logger.Log.Info("tag created", zap.String("tag_id", tag.ID), zap.String("name", name))
		s.metrics.RecordEvent("tag_created")
		return tag, nil
	}

	if tag, err = s.repo.GetByName(ctx, name); err == nil || !database.IsNotFound(err) {
		return tag, err
	}
	// 名称不同但 slug 相同，复用已有标签
	tag, err = s.repo.GetBySlug(ctx, utils.Slugify(name))
	return tag, notFound(err, "Tag not found with name: %s", name)
}

// Resolve 将名称列表解析为标签，重复项只保留一个
func (s *tagService) Resolve(ctx context.Context, names []string) ([]model.Tag, error) {
	tags := make([]model.Tag, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		tag, err := s.GetOrCreate(ctx, name)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[tag.ID]; ok {
			continue
		}
		seen[tag.ID] = struct{}{}
		tags = append(tags, *tag)
	}
	return tags, nil
}

// Attach 帖子关联标签后计数加一
func (s *tagService) Attach(ctx context.Context, ids ...string) error {
	if err := s.repo.IncrementPostCount(ctx, ids...); err != nil {
		return err
	}
	s.invalidate(ctx, ids...)
	return nil
}

// Detach 帖子解除标签后计数减一
func (s *tagService) Detach(ctx context.Context, ids ...string) error {
	if err := s.repo.DecrementPostCount(ctx, ids...); err != nil {
		return err
	}
	s.invalidate(ctx, ids...)
	return nil
}

func (s *tagService) Create(ctx context.Context, input model.TagInput) (*model.Tag, error) {
	name := strings.TrimSpace(input.Name)
	if utils.Slugify(name) == "" {
		return nil, apperror.Validation("name", "Tag name must contain letters or digits")
	}
	exists, err := s.repo.ExistsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.ErrDuplicateTagName
	}

	tag := &model.Tag{Name: name, Description: strings.TrimSpace(input.Description)}
	if err := s.repo.Create(ctx, tag); err != nil {
		return nil, mapTagUniqueViolation(err)
	}
	s.metrics.RecordEvent("tag_created")
	return tag, nil
}

// Update 修改名称或描述，名称变更时 slug 随之更新
func (s *tagService) Update(ctx context.Context, id string, input model.TagInput) (*model.Tag, error) {
	tag, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Tag not found with id: %s", id)
	}

	name := strings.TrimSpace(input.Name)
	if name != tag.Name {
		exists, err := s.repo.ExistsByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, apperror.ErrDuplicateTagName
		}
		tag.Name = name
	}
	tag.Description = strings.TrimSpace(input.Description)

	if err := s.repo.Update(ctx, tag); err != nil {
		return nil, mapTagUniqueViolation(err)
	}
	s.invalidate(ctx, id)
	return tag, nil
}

// Delete 仍有帖子使用时拒绝删除
func (s *tagService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return notFound(err, "Tag not found with id: %s", id)
	}
	links, err := s.repo.CountPostLinks(ctx, id)
	if err != nil {
		return err
	}
	if links > 0 {
		return apperror.Conflict("TAG_IN_USE", "id", "Cannot delete tag that is associated with posts")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	logger.Log.Info("tag deleted", zap.String("tag_id", id))
	return nil
}

// Merge 将 source 的帖子并入 target，计数相加后删除 source
func (s *tagService) Merge(ctx context.Context, sourceID, targetID string) (*model.Tag, error) {
	if sourceID == targetID {
		return nil, apperror.InvalidOperation("Cannot merge a tag into itself")
	}

	var target *model.Tag
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		source, err := s.repo.GetByID(ctx, sourceID)
		if err != nil {
			return notFound(err, "Tag not found with id: %s", sourceID)
		}
		if _, err := s.repo.GetByID(ctx, targetID); err != nil {
			return notFound(err, "Tag not found with id: %s", targetID)
		}

		if err := s.repo.MovePosts(ctx, sourceID, targetID); err != nil {
			return err
		}
		if err := s.repo.AddPostCount(ctx, targetID, source.PostCount); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, sourceID); err != nil {
			return err
		}
		target, err = s.repo.GetByID(ctx, targetID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, sourceID, targetID)
	logger.Log.Info("tags merged", zap.String("source_id", sourceID), zap.String("target_id", targetID))
	s.metrics.RecordEvent("tag_merged")
	return target, nil
}

// Get 按 ID 获取，走缓存
func (s *tagService) Get(ctx context.Context, id string) (*model.Tag, error) {
	var cached model.Tag
	err := s.cache.Get(ctx, tagCacheKey(id), &cached)
	if err == nil {
		s.metrics.RecordCacheOperation(TagCacheKeyPrefix, true)
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Log.Warn("tag cache read failed", zap.String("tag_id", id), zap.Error(err))
	}
	s.metrics.RecordCacheOperation(TagCacheKeyPrefix, false)

	tag, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Tag not found with id: %s", id)
	}
	if err := s.cache.Set(ctx, tagCacheKey(id), tag, TagCacheTTL); err != nil {
		logger.Log.Warn("failed to cache tag", zap.String("tag_id", id), zap.Error(err))
	}
	return tag, nil
}

func (s *tagService) GetByName(ctx context.Context, name string) (*model.Tag, error) {
	tag, err := s.repo.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, notFound(err, "Tag not found with name: %s", name)
	}
	return tag, nil
}

func (s *tagService) GetBySlug(ctx context.Context, slug string) (*model.Tag, error) {
	tag, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err, "Tag not found with slug: %s", slug)
	}
	return tag, nil
}

func (s *tagService) List(ctx context.Context, search string, p utils.Pagination) (utils.PageResult[model.Tag], error) {
	offset, limit := p.GetPageOffset()
	tags, total, err := s.repo.List(ctx, strings.TrimSpace(search), p.OrderBy(tagSortFields, "name asc"), offset, limit)
	if err != nil {
		return utils.PageResult[model.Tag]{}, err
	}
	return utils.NewPageResult(tags, p, total), nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPopularLimit
	}
	if limit > MaxTagLimit {
		return MaxTagLimit
	}
	return limit
}

func (s *tagService) Popular(ctx context.Context, limit int) ([]model.Tag, error) {
	return s.repo.Popular(ctx, clampLimit(limit))
}

// Trending 最近 days 天内发布帖子最多的标签
func (s *tagService) Trending(ctx context.Context, days, limit int) ([]model.Tag, error) {
	if days <= 0 {
		days = 7
	}
	return s.repo.Trending(ctx, s.now().AddDate(0, 0, -days), clampLimit(limit))
}

func (s *tagService) PostCount(ctx context.Context, id string) (int64, error) {
	tag, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return tag.PostCount, nil
}

func mapTagUniqueViolation(err error) error {
	if _, ok := database.UniqueViolation(err); ok {
		return apperror.ErrDuplicateTagName
	}
	return err
}
