package repository

import (
	"context"
	"time"

	"blog_api/internal/domain/comment/model"
	"blog_api/pkg/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentFilter 评论列表筛选
type CommentFilter struct {
	PostID    string
	RootsOnly bool
	ParentID  string
	UserID    string
	Since     *time.Time
	OrderBy   string
}

// CommentRepository 评论数据访问
type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, id string) (*model.Comment, error)
	UpdateContent(ctx context.Context, id, content string) error
	List(ctx context.Context, filter CommentFilter, offset, limit int) ([]model.Comment, int64, error)
	ChildIDs(ctx context.Context, parentIDs []string) ([]string, error)
	ClaimDeleted(ctx context.Context, id string) (bool, error)
	MarkDeleted(ctx context.Context, ids []string) (int64, error)
	ReplyCounts(ctx context.Context, ids []string) (map[string]int64, error)
	CountAll(ctx context.Context) (int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) conn(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db)
}

// withRelations 预加载作者、父评论作者和帖子标题
func withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("User").
		Preload("Parent.User").
		Preload("Post", func(tx *gorm.DB) *gorm.DB {
			return tx.Select("id", "title", "slug")
		})
}

func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	return r.conn(ctx).Omit(clause.Associations).Create(comment).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	var comment model.Comment
	if err := withRelations(r.conn(ctx)).Where("comments.id = ?", id).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, id, content string) error {
	return r.conn(ctx).Model(&model.Comment{}).Where("id = ?", id).Update("content", content).Error
}

func (r *commentRepository) List(ctx context.Context, filter CommentFilter, offset, limit int) ([]model.Comment, int64, error) {
	var comments []model.Comment
	var total int64

	query := r.conn(ctx).Model(&model.Comment{})
	if filter.PostID != "" {
		query = query.Where("comments.post_id = ?", filter.PostID)
	}
	if filter.RootsOnly {
		query = query.Where("comments.parent_id IS NULL")
	}
	if filter.ParentID != "" {
		query = query.Where("comments.parent_id = ?", filter.ParentID)
	}
	if filter.UserID != "" {
		query = query.Where("comments.user_id = ?", filter.UserID)
	}
	if filter.Since != nil {
		query = query.Where("comments.created_at >= ?", *filter.Since)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	order := filter.OrderBy
	if order == "" {
		order = "comments.created_at asc"
	}
	if err := withRelations(query).Order(order).Offset(offset).Limit(limit).Find(&comments).Error; err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// ChildIDs 一层直接回复的 ID
func (r *commentRepository) ChildIDs(ctx context.Context, parentIDs []string) ([]string, error) {
	var ids []string
	if len(parentIDs) == 0 {
		return ids, nil
	}
	err := r.conn(ctx).Model(&model.Comment{}).Where("parent_id IN ?", parentIDs).Pluck("id", &ids).Error
	return ids, err
}

// ClaimDeleted 仅当评论未删除时标记，返回是否由本次调用完成
// 并发删除同一评论时只有一个事务能得到 true
func (r *commentRepository) ClaimDeleted(ctx context.Context, id string) (bool, error) {
	result := r.conn(ctx).Model(&model.Comment{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Update("is_deleted", true)
	return result.RowsAffected > 0, result.Error
}

// MarkDeleted 一条 UPDATE 标记全部 ID
func (r *commentRepository) MarkDeleted(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.conn(ctx).Model(&model.Comment{}).Where("id IN ?", ids).Update("is_deleted", true)
	return result.RowsAffected, result.Error
}

func (r *commentRepository) ReplyCounts(ctx context.Context, ids []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	var rows []struct {
		ParentID string
		Count    int64
	}
	err := r.conn(ctx).Model(&model.Comment{}).
		Select("parent_id, COUNT(*) AS count").
		Where("parent_id IN ?", ids).
		Group("parent_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ParentID] = row.Count
	}
	return counts, nil
}

func (r *commentRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&model.Comment{}).Count(&count).Error
	return count, err
}
