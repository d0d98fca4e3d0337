package repository

import (
	"context"
	"time"

	"blog_api/internal/domain/tag/model"
	"blog_api/pkg/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagRepository 标签数据访问
type TagRepository interface {
	Create(ctx context.Context, tag *model.Tag) error
	CreateIfAbsent(ctx context.Context, tag *model.Tag) (bool, error)
	GetByID(ctx context.Context, id string) (*model.Tag, error)
	GetByName(ctx context.Context, name string) (*model.Tag, error)
	GetBySlug(ctx context.Context, slug string) (*model.Tag, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	List(ctx context.Context, search, orderBy string, offset, limit int) ([]model.Tag, int64, error)
	Update(ctx context.Context, tag *model.Tag) error
	Delete(ctx context.Context, id string) error

	CountPostLinks(ctx context.Context, id string) (int64, error)
	IncrementPostCount(ctx context.Context, ids ...string) error
	DecrementPostCount(ctx context.Context, ids ...string) error
	Popular(ctx context.Context, limit int) ([]model.Tag, error)
	Trending(ctx context.Context, since time.Time, limit int) ([]model.Tag, error)
	MovePosts(ctx context.Context, sourceID, targetID string) error
	AddPostCount(ctx context.Context, id string, delta int64) error
	CountAll(ctx context.Context) (int64, error)
}

type tagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) conn(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db)
}

func (r *tagRepository) Create(ctx context.Context, tag *model.Tag) error {
	return r.conn(ctx).Create(tag).Error
}

// CreateIfAbsent 名称冲突时不插入，返回是否新建
func (r *tagRepository) CreateIfAbsent(ctx context.Context, tag *model.Tag) (bool, error) {
	result := r.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(tag)
	return result.RowsAffected > 0, result.Error
}

func (r *tagRepository) GetByID(ctx context.Context, id string) (*model.Tag, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *tagRepository) GetByName(ctx context.Context, name string) (*model.Tag, error) {
	return r.first(ctx, "name = ?", name)
}

func (r *tagRepository) GetBySlug(ctx context.Context, slug string) (*model.Tag, error) {
	return r.first(ctx, "slug = ?", slug)
}

func (r *tagRepository) first(ctx context.Context, query string, arg interface{}) (*model.Tag, error) {
	var tag model.Tag
	if err := r.conn(ctx).Where(query, arg).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&model.Tag{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

// List 标签列表，search 匹配名称或描述
func (r *tagRepository) List(ctx context.Context, search, orderBy string, offset, limit int) ([]model.Tag, int64, error) {
	var tags []model.Tag
	var total int64

	query := r.conn(ctx).Model(&model.Tag{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", like, like)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if orderBy == "" {
		orderBy = "name asc"
	}
	if err := query.Order(orderBy).Offset(offset).Limit(limit).Find(&tags).Error; err != nil {
		return nil, 0, err
	}
	return tags, total, nil
}

func (r *tagRepository) Update(ctx context.Context, tag *model.Tag) error {
	return r.conn(ctx).Save(tag).Error
}

func (r *tagRepository) Delete(ctx context.Context, id string) error {
	return r.conn(ctx).Where("id = ?", id).Delete(&model.Tag{}).Error
}

func (r *tagRepository) CountPostLinks(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.conn(ctx).Table("post_tags").Where("tag_id = ?", id).Count(&count).Error
	return count, err
}

// IncrementPostCount 原子加一
func (r *tagRepository) IncrementPostCount(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.conn(ctx).Model(&model.Tag{}).Where("id IN ?", ids).
		UpdateColumn("post_count", gorm.Expr("post_count + 1")).Error
}

// DecrementPostCount 原子减一，不低于 0
func (r *tagRepository) DecrementPostCount(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.conn(ctx).Model(&model.Tag{}).Where("id IN ?", ids).
		UpdateColumn("post_count", gorm.Expr("GREATEST(post_count - 1, 0)")).Error
}

func (r *tagRepository) AddPostCount(ctx context.Context, id string, delta int64) error {
	return r.conn(ctx).Model(&model.Tag{}).Where("id = ?", id).
		UpdateColumn("post_count", gorm.Expr("GREATEST(post_count + ?, 0)", delta)).Error
}

func (r *tagRepository) Popular(ctx context.Context, limit int) ([]model.Tag, error) {
	var tags []model.Tag
	err := r.conn(ctx).Where("post_count > 0").
		Order("post_count desc, name asc").Limit(limit).Find(&tags).Error
	return tags, err
}

// Trending 按 since 之后发布的帖子数排序
func (r *tagRepository) Trending(ctx context.Context, since time.Time, limit int) ([]model.Tag, error) {
	var tags []model.Tag
	err := r.conn(ctx).Model(&model.Tag{}).
		Select("tags.*").
		Joins("JOIN post_tags ON post_tags.tag_id = tags.id").
		Joins("JOIN posts ON posts.id = post_tags.post_id").
		Where("posts.status = ? AND posts.published_at >= ?", "PUBLISHED", since).
		Group("tags.id").
		Order("COUNT(posts.id) desc, tags.name asc").
		Limit(limit).
		Find(&tags).Error
	return tags, err
}

// MovePosts 把 source 上的帖子关联转到 target，已带 target 的帖子只删除 source 关联
func (r *tagRepository) MovePosts(ctx context.Context, sourceID, targetID string) error {
	db := r.conn(ctx)
	if err := db.Exec(`INSERT INTO post_tags (post_id, tag_id)
		SELECT post_id, ? FROM post_tags WHERE tag_id = ?
		ON CONFLICT DO NOTHING`, targetID, sourceID).Error; err != nil {
		return err
	}
	return db.Exec("DELETE FROM post_tags WHERE tag_id = ?", sourceID).Error
}

func (r *tagRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&model.Tag{}).Count(&count).Error
	return count, err
}
