package repository

import (
	"context"
	"time"

	"blog_api/internal/domain/user/model"
	"blog_api/pkg/database"
	"blog_api/pkg/security"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserFilter 用户列表筛选
type UserFilter struct {
	Search     string // 匹配用户名、邮箱、姓名
	OnlyActive bool   // enabled 且未锁定
	OrderBy    string
}

// AuthorStats 作者维度的聚合数据
type AuthorStats struct {
	PostsCount            int64
	PublishedPostsCount   int64
	TotalLikesReceived    int64
	TotalViews            int64
	TotalCommentsReceived int64
}

// UserRepository 接口定义
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	List(ctx context.Context, filter UserFilter, offset, limit int) ([]model.User, int64, error)
	Update(ctx context.Context, user *model.User) error
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error

	Follow(ctx context.Context, subscriberID, authorID string) (bool, error)
	Unfollow(ctx context.Context, subscriberID, authorID string) (bool, error)
	IsFollowing(ctx context.Context, subscriberID, authorID string) (bool, error)
	Followers(ctx context.Context, userID string, offset, limit int) ([]model.User, int64, error)
	Following(ctx context.Context, userID string, offset, limit int) ([]model.User, int64, error)
	FollowCounts(ctx context.Context, userID string) (followers, following int64, err error)

	CountAll(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context, role security.RoleName) (int64, error)
	AuthorStats(ctx context.Context, userID string) (*AuthorStats, error)
}

// userRepository 实现
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建新的仓库实例
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) conn(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db)
}

// Create 创建用户，角色通过 RoleRepository.Assign 关联
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.conn(ctx).Omit(clause.Associations).Create(user).Error
}

// GetByID 根据ID获取用户
func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.conn(ctx).Preload("Roles").Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername 根据用户名获取用户
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.conn(ctx).Preload("Roles").Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail 根据邮箱获取用户
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.conn(ctx).Preload("Roles").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&model.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&model.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// List 获取用户列表（分页）
func (r *userRepository) List(ctx context.Context, filter UserFilter, offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	query := r.conn(ctx).Model(&model.User{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("username ILIKE ? OR email ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ?",
			like, like, like, like)
	}
	if filter.OnlyActive {
		query = query.Where("enabled = ? AND locked = ?", true, false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := filter.OrderBy
	if order == "" {
		order = "created_at desc"
	}
	if err := query.Preload("Roles").Order(order).Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Update 更新用户基础字段，不处理角色关联
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return r.conn(ctx).Omit(clause.Associations).Save(user).Error
}

// UpdateFields 按列更新
func (r *userRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.conn(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.conn(ctx).Model(&model.User{}).Where("id = ?", id).UpdateColumn("last_login_at", at).Error
}

// Follow 建立关注关系，已存在时返回 false
func (r *userRepository) Follow(ctx context.Context, subscriberID, authorID string) (bool, error) {
	result := r.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.Subscription{SubscriberID: subscriberID, AuthorID: authorID})
	return result.RowsAffected > 0, result.Error
}

// Unfollow 取消关注，不存在时返回 false
func (r *userRepository) Unfollow(ctx context.Context, subscriberID, authorID string) (bool, error) {
	result := r.conn(ctx).Where("subscriber_id = ? AND author_id = ?", subscriberID, authorID).
		Delete(&model.Subscription{})
	return result.RowsAffected > 0, result.Error
}

func (r *userRepository) IsFollowing(ctx context.Context, subscriberID, authorID string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&model.Subscription{}).
		Where("subscriber_id = ? AND author_id = ?", subscriberID, authorID).
		Count(&count).Error
	return count > 0, err
}

// Followers 关注 userID 的用户
func (r *userRepository) Followers(ctx context.Context, userID string, offset, limit int) ([]model.User, int64, error) {
	return r.pageByEdge(ctx, "subscriptions.subscriber_id = users.id", "subscriptions.author_id = ?", userID, offset, limit)
}

// Following userID 关注的用户
func (r *userRepository) Following(ctx context.Context, userID string, offset, limit int) ([]model.User, int64, error) {
	return r.pageByEdge(ctx, "subscriptions.author_id = users.id", "subscriptions.subscriber_id = ?", userID, offset, limit)
}

func (r *userRepository) pageByEdge(ctx context.Context, join, where, userID string, offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	query := r.conn(ctx).Model(&model.User{}).
		Joins("JOIN subscriptions ON "+join).
		Where(where, userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("subscriptions.created_at desc").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) FollowCounts(ctx context.Context, userID string) (int64, int64, error) {
	var followers, following int64
	if err := r.conn(ctx).Model(&model.Subscription{}).Where("author_id = ?", userID).Count(&followers).Error; err != nil {
		return 0, 0, err
	}
	if err := r.conn(ctx).Model(&model.Subscription{}).Where("subscriber_id = ?", userID).Count(&following).Error; err != nil {
		return 0, 0, err
	}
	return followers, following, nil
}

func (r *userRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&model.User{}).Count(&count).Error
	return count, err
}

func (r *userRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&model.User{}).Where("enabled = ? AND locked = ?", true, false).Count(&count).Error
	return count, err
}

func (r *userRepository) CountByRole(ctx context.Context, role security.RoleName) (int64, error) {
	var count int64
	err := r.conn(ctx).Table("user_roles").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("roles.name = ?", role).
		Count(&count).Error
	return count, err
}

// AuthorStats 汇总作者的帖子数据，直接查询 posts / comments 表
func (r *userRepository) AuthorStats(ctx context.Context, userID string) (*AuthorStats, error) {
	var stats AuthorStats
	err := r.conn(ctx).Table("posts").
		Select(`COUNT(*) AS posts_count,
			COUNT(*) FILTER (WHERE status = 'PUBLISHED') AS published_posts_count,
			COALESCE(SUM(like_count), 0) AS total_likes_received,
			COALESCE(SUM(view_count), 0) AS total_views,
			COALESCE(SUM(comment_count), 0) AS total_comments_received`).
		Where("author_id = ?", userID).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
