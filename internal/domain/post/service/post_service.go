package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"blog_api/internal/domain/post/model"
	"blog_api/internal/domain/post/repository"
	tagService "blog_api/internal/domain/tag/service"
	"blog_api/pkg/apperror"
	"blog_api/pkg/database"
	"blog_api/pkg/logger"
	"blog_api/pkg/metrics"
	"blog_api/pkg/security"
	"blog_api/pkg/utils"

	"go.uber.org/zap"
)

// PostService 帖子服务
type PostService interface {
	Create(ctx context.Context, input model.PostInput, author *security.Principal) (*model.PostResponse, error)
	Get(ctx context.Context, id string, viewer *security.Principal) (*model.PostResponse, error)
	GetBySlug(ctx context.Context, slug string, viewer *security.Principal) (*model.PostResponse, error)
	Update(ctx context.Context, id string, input model.PostInput, actor *security.Principal) (*model.PostResponse, error)
	Delete(ctx context.Context, id string, actor *security.Principal) error
	Archive(ctx context.Context, id string) (*model.PostResponse, error)
	SetFeatured(ctx context.Context, id string, featured bool) error

	Like(ctx context.Context, id string, actor *security.Principal) (*model.LikeResult, error)
	Save(ctx context.Context, id string, actor *security.Principal) error
	Unsave(ctx context.Context, id string, actor *security.Principal) error

	List(ctx context.Context, p utils.Pagination) (utils.PageResult[model.PostResponse], error)
	Popular(ctx context.Context, p utils.Pagination) (utils.PageResult[model.PostResponse], error)
	Featured(ctx context.Context, p utils.Pagination) (utils.PageResult[model.PostResponse], error)
	ByTag(ctx context.Context, tagName string, p utils.Pagination) (utils.PageResult[model.PostResponse], error)
	ByAuthor(ctx context.Context, authorID string, p utils.Pagination) (utils.PageResult[model.PostResponse], error)
	Mine(ctx context.Context, actor *security.Principal, p utils.Pagination) (utils.PageResult[model.PostResponse], error)
	Saved(ctx context.Context, actor *security.Principal, p utils.Pagination) (utils.PageResult[model.PostResponse], error)
	Feed(ctx context.Context, actor *security.Principal, p utils.Pagination) (utils.PageResult[model.PostResponse], error)
	Recent(ctx context.Context, days int, p utils.Pagination) (utils.PageResult[model.PostResponse], error)
	Search(ctx context.Context, query string, p utils.Pagination) (utils.PageResult[model.PostResponse], error)
	Similar(ctx context.Context, id string, p utils.Pagination) (utils.PageResult[model.PostResponse], error)
}

// Invalidator 帖子变更后清理派生缓存（搜索结果等）
type Invalidator interface {
	Invalidate(reason string)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(string) {}

type postService struct {
	repo        repository.PostRepository
	tags        tagService.TagService
	tx          database.Transactor
	invalidator Invalidator
	metrics     *metrics.MetricsCollector
	now         func() time.Time
}

// NewPostService 创建帖子服务，invalidator 可为 nil
func NewPostService(
	repo repository.PostRepository,
	tags tagService.TagService,
	tx database.Transactor,
	invalidator Invalidator,
	collector *metrics.MetricsCollector,
) PostService {
	if invalidator == nil {
		invalidator = noopInvalidator{}
	}
	return &postService{
		repo:        repo,
		tags:        tags,
		tx:          tx,
		invalidator: invalidator,
		metrics:     collector,
		now:         time.Now,
	}
}

const popularOrder = "posts.view_count desc, posts.like_count desc, posts.published_at desc nulls last"

var postSortFields = map[string]string{
	"publishedAt":  "posts.published_at",
	"createdAt":    "posts.created_at",
	"title":        "posts.title",
	"viewCount":    "posts.view_count",
	"likeCount":    "posts.like_count",
	"commentCount": "posts.comment_count",
}

func (s *postService) load(ctx context.Context, id string) (*model.Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NotFound("Post not found with id: %s", id)
		}
		return nil, err
	}
	return post, nil
}

// loadInteractable 未发布的帖子只对作者可见，其他人点赞/收藏按不存在处理
func (s *postService) loadInteractable(ctx context.Context, id string, actor *security.Principal) (*model.Post, error) {
	post, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.IsPublished() && !post.IsAuthor(actor.UserID) {
		return nil, apperror.NotFound("Post not found with id: %s", id)
	}
	return post, nil
}

func canModify(post *model.Post, actor *security.Principal) bool {
	return actor != nil && (post.IsAuthor(actor.UserID) || actor.IsAdmin())
}

// uniqueSlug 冲突时依次追加 -2、-3
func (s *postService) uniqueSlug(ctx context.Context, title, excludeID string) (string, error) {
	base := utils.Slugify(title)
	if base == "" {
		base = "post"
	}
	candidate := base
	for i := 2; ; i++ {
		exists, err := s.repo.ExistsBySlug(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// Create 创建帖子，未指定或无法识别的状态按 PUBLISHED 处理
func (s *postService) Create(ctx context.Context, input model.PostInput, author *security.Principal) (*model.PostResponse, error) {
	status, ok := model.ParseStatus(input.Status)
	if !ok {
		if input.Status != "" {
			logger.Log.Warn("invalid post status, using PUBLISHED", zap.String("status", input.Status))
		}
		status = model.StatusPublished
	}

	post := &model.Post{
		Title:    strings.TrimSpace(input.Title),
		Content:  input.Content,
		Excerpt:  strings.TrimSpace(input.Excerpt),
		Status:   model.StatusDraft,
		AuthorID: author.UserID,
	}
	if input.Featured != nil && author.IsAdmin() {
		post.Featured = *input.Featured
	}
	if err := post.TransitionTo(status, s.now()); err != nil {
		return nil, err
	}

	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		slug, err := s.uniqueSlug(ctx, post.Title, "")
		if err != nil {
			return err
		}
		post.Slug = slug

		tags, err := s.tags.Resolve(ctx, input.Tags)
		if err != nil {
			return err
		}
		if err := s.repo.Create(ctx, post); err != nil {
			return err
		}
		post.Tags = tags
		if err := s.repo.ReplaceTags(ctx, post.ID, post.TagIDs()); err != nil {
			return err
		}
		return s.tags.Attach(ctx, post.TagIDs()...)
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("post created",
		zap.String("post_id", post.ID),
		zap.String("author", author.Username),
		zap.String("status", string(post.Status)),
	)
	s.metrics.RecordEvent("post_created")
	s.invalidator.Invalidate("post_created")
	return s.detail(ctx, post.ID, author)
}

func (s *postService) detail(ctx context.Context, id string, viewer *security.Principal) (*model.PostResponse, error) {
	post, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, post, viewer)
}

// decorate 附加当前用户的点赞/收藏状态
func (s *postService) decorate(ctx context.Context, post *model.Post, viewer *security.Principal) (*model.PostResponse, error) {
	resp := post.ToResponse()
	if viewer == nil {
		return &resp, nil
	}
	liked, err := s.repo.IsLiked(ctx, viewer.UserID, post.ID)
	if err != nil {
		return nil, err
	}
	saved, err := s.repo.IsSaved(ctx, viewer.UserID, post.ID)
	if err != nil {
		return nil, err
	}
	resp.Liked = &liked
	resp.Saved = &saved
	return &resp, nil
}

// Get 获取已发布帖子，每次读取浏览数加一
func (s *postService) Get(ctx context.Context, id string, viewer *security.Principal) (*model.PostResponse, error) {
	post, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, post, viewer)
}

func (s *postService) GetBySlug(ctx context.Context, slug string, viewer *security.Principal) (*model.PostResponse, error) {
	post, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NotFound("Post not found with slug: %s", slug)
		}
		return nil, err
	}
	return s.view(ctx, post, viewer)
}

func (s *postService) view(ctx context.Context, post *model.Post, viewer *security.Principal) (*model.PostResponse, error) {
	if !post.IsPublished() {
		return nil, apperror.NotFound("Post is not published")
	}
	views, err := s.repo.IncrementViewCount(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	post.ViewCount = views
	return s.decorate(ctx, post, viewer)
}

// Update 作者或管理员可修改；传入 tags 时整体替换
func (s *postService) Update(ctx context.Context, id string, input model.PostInput, actor *security.Principal) (*model.PostResponse, error) {
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		post, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if !canModify(post, actor) {
			return apperror.Forbidden("You are not authorized to update this post")
		}

		if input.Status != "" {
			status, ok := model.ParseStatus(input.Status)
			if !ok {
				return apperror.Validation("status", "Status must be one of DRAFT, PUBLISHED, ARCHIVED")
			}
			if err := post.TransitionTo(status, s.now()); err != nil {
				return err
			}
		}

		post.Title = strings.TrimSpace(input.Title)
		post.Content = input.Content
		post.Excerpt = strings.TrimSpace(input.Excerpt)
		if post.Excerpt == "" {
			post.Excerpt = utils.Excerpt(post.Content)
		}
		if input.Featured != nil && actor.IsAdmin() {
			post.Featured = *input.Featured
		}

		if input.Tags != nil {
			if err := s.tags.Detach(ctx, post.TagIDs()...); err != nil {
				return err
			}
			tags, err := s.tags.Resolve(ctx, input.Tags)
			if err != nil {
				return err
			}
			post.Tags = tags
			if err := s.repo.ReplaceTags(ctx, post.ID, post.TagIDs()); err != nil {
				return err
			}
			if err := s.tags.Attach(ctx, post.TagIDs()...); err != nil {
				return err
			}
		}

		return s.repo.Update(ctx, post)
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("post updated", zap.String("post_id", id), zap.String("actor", actor.Username))
	s.invalidator.Invalidate("post_updated")
	return s.detail(ctx, id, actor)
}

// Delete 作者或管理员可删除，同时扣减标签计数
func (s *postService) Delete(ctx context.Context, id string, actor *security.Principal) error {
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		post, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if !canModify(post, actor) {
			return apperror.Forbidden("You are not authorized to delete this post")
		}
		if err := s.tags.Detach(ctx, post.TagIDs()...); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	logger.Log.Info("post deleted", zap.String("post_id", id), zap.String("actor", actor.Username))
	s.metrics.RecordEvent("post_deleted")
	s.invalidator.Invalidate("post_deleted")
	return nil
}

// Archive 归档，供版主使用
func (s *postService) Archive(ctx context.Context, id string) (*model.PostResponse, error) {
	var post *model.Post
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		var err error
		if post, err = s.load(ctx, id); err != nil {
			return err
		}
		if err := post.TransitionTo(model.StatusArchived, s.now()); err != nil {
			return err
		}
		return s.repo.Update(ctx, post)
	})
	if err != nil {
		return nil, err
	}
	s.invalidator.Invalidate("post_archived")
	resp := post.ToResponse()
	return &resp, nil
}

func (s *postService) SetFeatured(ctx context.Context, id string, featured bool) error {
	ok, err := s.repo.SetFeatured(ctx, id, featured)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound("Post not found with id: %s", id)
	}
	s.invalidator.Invalidate("post_featured")
	return nil
}

// Like 切换点赞：先尝试插入，已存在则删除
// 计数只随实际插入/删除的行变化
func (s *postService) Like(ctx context.Context, id string, actor *security.Principal) (*model.LikeResult, error) {
	result := &model.LikeResult{}
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		if _, err := s.loadInteractable(ctx, id, actor); err != nil {
			return err
		}

		added, err := s.repo.AddLike(ctx, actor.UserID, id)
		if err != nil {
			return err
		}
		if !added {
			if _, err := s.repo.RemoveLike(ctx, actor.UserID, id); err != nil {
				return err
			}
		}
		result.Liked = added

		result.LikeCount, err = s.repo.LikeCount(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.Liked {
		s.metrics.RecordEvent("post_liked")
	}
	return result, nil
}

// Save 收藏，重复收藏不报错
func (s *postService) Save(ctx context.Context, id string, actor *security.Principal) error {
	if _, err := s.loadInteractable(ctx, id, actor); err != nil {
		return err
	}
	_, err := s.repo.AddSave(ctx, actor.UserID, id)
	return err
}

func (s *postService) Unsave(ctx context.Context, id string, actor *security.Principal) error {
	_, err := s.repo.RemoveSave(ctx, actor.UserID, id)
	return err
}

func (s *postService) page(ctx context.Context, filter repository.PostFilter, p utils.Pagination, fallback string) (utils.PageResult[model.PostResponse], error) {
	offset, limit := p.GetPageOffset()
	filter.OrderBy = p.OrderBy(postSortFields, fallback)

	posts, total, err := s.repo.List(ctx, filter, offset, limit)
	if err != nil {
		return utils.PageResult[model.PostResponse]{}, err
	}
	out := make([]model.PostResponse, 0, len(posts))
	for i := range posts {
		out = append(out, posts[i].ToSummary())
	}
	return utils.NewPageResult(out, p, total), nil
}

func (s *postService) published() repository.PostFilter {
	return repository.PostFilter{PublishedOnly: true, Now: s.now()}
}

// List 已发布帖子，按发布时间倒序
func (s *postService) List(ctx context.Context, p utils.Pagination) (utils.PageResult[model.PostResponse], error) {
	return s.page(ctx, s.published(), p, "")
}

// Popular 浏览数、点赞数、发布时间依次倒序
func (s *postService) Popular(ctx context.Context, p utils.Pagination) (utils.PageResult[model.PostResponse], error) {
	p.Sort = ""
	return s.page(ctx, s.published(), p, popularOrder)
}

func (s *postService) Featured(ctx context.Context, p utils.Pagination) (utils.PageResult[model.PostResponse], error) {
	filter := s.published()
	filter.FeaturedOnly = true
	return s.page(ctx, filter, p, "")
}

func (s *postService) ByTag(ctx context.Context, tagName string, p utils.Pagination) (utils.PageResult[model.PostResponse], error) {
	filter := s.published()
	filter.TagName = strings.TrimSpace(tagName)
	return s.page(ctx, filter, p, "")
}

func (s *postService) ByAuthor(ctx context.Context, authorID string, p utils.Pagination) (utils.PageResult[model.PostResponse], error) {
	filter := s.published()
	filter.AuthorID = authorID
	return s.page(ctx, filter, p, "")
}

// Mine 当前用户的全部帖子，包括草稿和归档
func (s *postService) Mine(ctx context.Context, actor *security.Principal, p utils.Pagination) (utils.PageResult[model.PostResponse], error) {
	return s.page(ctx, repository.PostFilter{AuthorID: actor.UserID}, p, "posts.created_at desc")
}

func (s *postService) Saved(ctx context.Context, actor *security.Principal, p utils.Pagination) (utils.PageResult[model.PostResponse], error) {
	filter := s.published()
	filter.SavedBy = actor.UserID
	return s.page(ctx, filter, p, "saved_posts.created_at desc")
}

// Feed 关注作者的帖子
func (s *postService) Feed(ctx context.Context, actor *security.Principal, p utils.Pagination) (utils.PageResult[model.PostResponse], error) {
	filter := s.published()
	filter.FollowerID = actor.UserID
	return s.page(ctx, filter, p, "")
}

// Recent 最近 days 天内创建的已发布帖子
func (s *postService) Recent(ctx context.Context, days int, p utils.Pagination) (utils.PageResult[model.PostResponse], error) {
	if days <= 0 {
		days = 7
	}
	filter := s.published()
	since := filter.Now.AddDate(0, 0, -days)
	filter.CreatedSince = &since
	return s.page(ctx, filter, p, "posts.created_at desc")
}

// Search 空查询等同于全部已发布帖子
func (s *postService) Search(ctx context.Context, query string, p utils.Pagination) (utils.PageResult[model.PostResponse], error) {
	filter := s.published()
	filter.Query = strings.TrimSpace(query)
	return s.page(ctx, filter, p, "")
}

// Similar 按标签名查找相似帖子，没有标签时取正文前 100 个字符
func (s *postService) Similar(ctx context.Context, id string, p utils.Pagination) (utils.PageResult[model.PostResponse], error) {
	post, err := s.load(ctx, id)
	if err != nil {
		return utils.PageResult[model.PostResponse]{}, err
	}

	query := strings.Join(post.TagNames(), " ")
	if query == "" {
		runes := []rune(post.Content)
		if len(runes) > 100 {
			runes = runes[:100]
		}
		query = string(runes)
	}

	filter := s.published()
	filter.Query = strings.TrimSpace(query)
	filter.ExcludeID = post.ID
	return s.page(ctx, filter, p, "")
}
