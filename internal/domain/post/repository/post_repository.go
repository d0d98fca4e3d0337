package repository

import (
	"context"
	"time"

	"blog_api/internal/domain/post/model"
	"blog_api/pkg/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter 帖子列表筛选条件，零值字段不参与过滤
type PostFilter struct {
	PublishedOnly bool      // status = PUBLISHED 且发布时间不晚于 Now
	Now           time.Time
	AuthorID      string
	TagName       string
	FeaturedOnly  bool
	Query         string
	CreatedSince  *time.Time
	FollowerID    string // 只看该用户关注的作者
	SavedBy       string
	ExcludeID     string
	OrderBy       string
}

// PostRepository 帖子数据访问
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	GetBySlug(ctx context.Context, slug string) (*model.Post, error)
	ExistsBySlug(ctx context.Context, slug, excludeID string) (bool, error)
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id string) error
	ReplaceTags(ctx context.Context, postID string, tagIDs []string) error
	List(ctx context.Context, filter PostFilter, offset, limit int) ([]model.Post, int64, error)

	IncrementViewCount(ctx context.Context, id string) (int64, error)
	IncrementCommentCount(ctx context.Context, id string) error
	DecrementCommentCount(ctx context.Context, id string) error
	SetFeatured(ctx context.Context, id string, featured bool) (bool, error)

	AddLike(ctx context.Context, userID, postID string) (bool, error)
	RemoveLike(ctx context.Context, userID, postID string) (bool, error)
	IsLiked(ctx context.Context, userID, postID string) (bool, error)
	LikeCount(ctx context.Context, id string) (int64, error)
	AddSave(ctx context.Context, userID, postID string) (bool, error)
	RemoveSave(ctx context.Context, userID, postID string) (bool, error)
	IsSaved(ctx context.Context, userID, postID string) (bool, error)

	CountAll(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status model.PostStatus) (int64, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) conn(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db)
}

// Create 只写入帖子本身，标签关联通过 ReplaceTags 维护
func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return r.conn(ctx).Omit(clause.Associations).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	return r.first(ctx, "posts.id = ?", id)
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*model.Post, error) {
	return r.first(ctx, "posts.slug = ?", slug)
}

func (r *postRepository) first(ctx context.Context, query string, arg interface{}) (*model.Post, error) {
	var post model.Post
	err := r.conn(ctx).Preload("Author").Preload("Tags").Where(query, arg).First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) ExistsBySlug(ctx context.Context, slug, excludeID string) (bool, error) {
	var count int64
	query := r.conn(ctx).Model(&model.Post{}).Where("slug = ?", slug)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *postRepository) Update(ctx context.Context, post *model.Post) error {
	return r.conn(ctx).Omit(clause.Associations).Save(post).Error
}

// Delete 硬删除，评论、点赞、收藏、标签关联由外键级联删除
func (r *postRepository) Delete(ctx context.Context, id string) error {
	return r.conn(ctx).Where("id = ?", id).Delete(&model.Post{}).Error
}

func (r *postRepository) ReplaceTags(ctx context.Context, postID string, tagIDs []string) error {
	db := r.conn(ctx)
	if err := db.Exec("DELETE FROM post_tags WHERE post_id = ?", postID).Error; err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if err := db.Exec("INSERT INTO post_tags (post_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
			postID, tagID).Error; err != nil {
			return err
		}
	}
	return nil
}

// List 按筛选条件分页查询
func (r *postRepository) List(ctx context.Context, filter PostFilter, offset, limit int) ([]model.Post, int64, error) {
	var posts []model.Post
	var total int64

	query := r.conn(ctx).Model(&model.Post{})
	if filter.PublishedOnly {
		query = query.Where("posts.status = ? AND (posts.published_at IS NULL OR posts.published_at <= ?)",
			model.StatusPublished, filter.Now)
	}
	if filter.AuthorID != "" {
		query = query.Where("posts.author_id = ?", filter.AuthorID)
	}
	if filter.TagName != "" {
		query = query.Joins("JOIN post_tags ON post_tags.post_id = posts.id").
			Joins("JOIN tags ON tags.id = post_tags.tag_id").
			Where("tags.name = ?", filter.TagName)
	}
	if filter.FeaturedOnly {
		query = query.Where("posts.featured = ?", true)
	}
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		query = query.Where(`(to_tsvector('english', posts.title || ' ' || posts.content) @@ plainto_tsquery('english', ?)
			OR posts.title ILIKE ? OR posts.content ILIKE ? OR posts.excerpt ILIKE ?)`,
			filter.Query, like, like, like)
	}
	if filter.CreatedSince != nil {
		query = query.Where("posts.created_at >= ?", *filter.CreatedSince)
	}
	if filter.FollowerID != "" {
		query = query.Joins("JOIN subscriptions ON subscriptions.author_id = posts.author_id").
			Where("subscriptions.subscriber_id = ?", filter.FollowerID)
	}
	if filter.SavedBy != "" {
		query = query.Joins("JOIN saved_posts ON saved_posts.post_id = posts.id").
			Where("saved_posts.user_id = ?", filter.SavedBy)
	}
	if filter.ExcludeID != "" {
		query = query.Where("posts.id <> ?", filter.ExcludeID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := filter.OrderBy
	if order == "" {
		order = "posts.published_at desc nulls last, posts.created_at desc"
	}
	err := query.Preload("Author").Preload("Tags").
		Order(order).Offset(offset).Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// IncrementViewCount 原子加一并返回新值
func (r *postRepository) IncrementViewCount(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.conn(ctx).Raw("UPDATE posts SET view_count = view_count + 1 WHERE id = ? RETURNING view_count", id).
		Scan(&count).Error
	return count, err
}

func (r *postRepository) IncrementCommentCount(ctx context.Context, id string) error {
	return r.adjust(ctx, id, "comment_count", gorm.Expr("comment_count + 1"))
}

// DecrementCommentCount 不低于 0
func (r *postRepository) DecrementCommentCount(ctx context.Context, id string) error {
	return r.adjust(ctx, id, "comment_count", gorm.Expr("GREATEST(comment_count - 1, 0)"))
}

func (r *postRepository) adjust(ctx context.Context, id, column string, expr clause.Expr) error {
	return r.conn(ctx).Model(&model.Post{}).Where("id = ?", id).UpdateColumn(column, expr).Error
}

func (r *postRepository) SetFeatured(ctx context.Context, id string, featured bool) (bool, error) {
	result := r.conn(ctx).Model(&model.Post{}).Where("id = ?", id).Update("featured", featured)
	return result.RowsAffected > 0, result.Error
}

// AddLike 插入点赞，已存在时不插入；插入成功才增加计数
func (r *postRepository) AddLike(ctx context.Context, userID, postID string) (bool, error) {
	var added bool
	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.PostLike{UserID: userID, PostID: postID})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		added = true
		return tx.Model(&model.Post{}).Where("id = ?", postID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
	})
	return added, err
}

// RemoveLike 删除点赞，确有删除才减少计数
func (r *postRepository) RemoveLike(ctx context.Context, userID, postID string) (bool, error) {
	var removed bool
	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&model.PostLike{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		removed = true
		return tx.Model(&model.Post{}).Where("id = ?", postID).
			UpdateColumn("like_count", gorm.Expr("GREATEST(like_count - 1, 0)")).Error
	})
	return removed, err
}

func (r *postRepository) IsLiked(ctx context.Context, userID, postID string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&model.PostLike{}).
		Where("user_id = ? AND post_id = ?", userID, postID).Count(&count).Error
	return count > 0, err
}

func (r *postRepository) LikeCount(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&model.Post{}).Select("like_count").Where("id = ?", id).Scan(&count).Error
	return count, err
}

func (r *postRepository) AddSave(ctx context.Context, userID, postID string) (bool, error) {
	result := r.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.SavedPost{UserID: userID, PostID: postID})
	return result.RowsAffected > 0, result.Error
}

func (r *postRepository) RemoveSave(ctx context.Context, userID, postID string) (bool, error) {
	result := r.conn(ctx).Where("user_id = ? AND post_id = ?", userID, postID).Delete(&model.SavedPost{})
	return result.RowsAffected > 0, result.Error
}

func (r *postRepository) IsSaved(ctx context.Context, userID, postID string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&model.SavedPost{}).
		Where("user_id = ? AND post_id = ?", userID, postID).Count(&count).Error
	return count > 0, err
}

func (r *postRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&model.Post{}).Count(&count).Error
	return count, err
}

func (r *postRepository) CountByStatus(ctx context.Context, status model.PostStatus) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&model.Post{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
