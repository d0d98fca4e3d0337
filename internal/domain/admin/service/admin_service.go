package service

import (
	"context"
	"strings"
	"time"

	postModel "blog_api/internal/domain/post/model"
	userModel "blog_api/internal/domain/user/model"
	userRepository "blog_api/internal/domain/user/repository"
	userService "blog_api/internal/domain/user/service"
	"blog_api/pkg/apperror"
	"blog_api/pkg/cache"
	"blog_api/pkg/database"
	"blog_api/pkg/logger"
	"blog_api/pkg/metrics"
	"blog_api/pkg/security"
	"blog_api/pkg/utils"

	"go.uber.org/zap"
)

// UserPatch 管理员修改用户，nil 字段保持不变
type UserPatch struct {
	Email         *string `json:"email" binding:"omitempty,email,max=100"`
	Username      *string `json:"username" binding:"omitempty,min=3,max=50"`
	FirstName     *string `json:"firstName" binding:"omitempty,max=50"`
	LastName      *string `json:"lastName" binding:"omitempty,max=50"`
	Bio           *string `json:"bio" binding:"omitempty,max=500"`
	AvatarURL     *string `json:"avatarUrl" binding:"omitempty,max=255"`
	Enabled       *bool   `json:"enabled"`
	Locked        *bool   `json:"locked"`
	EmailVerified *bool   `json:"emailVerified"`
}

// SystemStatistics 后台统计
type SystemStatistics struct {
	TotalUsers     int64     `json:"totalUsers"`
	ActiveUsers    int64     `json:"activeUsers"`
	Admins         int64     `json:"admins"`
	Moderators     int64     `json:"moderators"`
	TotalPosts     int64     `json:"totalPosts"`
	PublishedPosts int64     `json:"publishedPosts"`
	DraftPosts     int64     `json:"draftPosts"`
	ArchivedPosts  int64     `json:"archivedPosts"`
	TotalComments  int64     `json:"totalComments"`
	TotalTags      int64     `json:"totalTags"`
	ServerTime     time.Time `json:"serverTime"`
	Uptime         string    `json:"uptime"`
	UptimeSeconds  int64     `json:"uptimeSeconds"`
}

// PostStore 统计与审核所需的帖子操作
type PostStore interface {
	CountAll(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status postModel.PostStatus) (int64, error)
}

// Counter 单表计数
type Counter interface {
	CountAll(ctx context.Context) (int64, error)
}

// PostModerator 帖子审核操作
type PostModerator interface {
	SetFeatured(ctx context.Context, id string, featured bool) error
	Delete(ctx context.Context, id string, actor *security.Principal) error
}

// CommentModerator 评论审核操作
type CommentModerator interface {
	Delete(ctx context.Context, id string, actor *security.Principal) error
}

// AdminService 后台管理
type AdminService interface {
	ListUsers(ctx context.Context, search string, p utils.Pagination) (utils.PageResult[userModel.UserResponse], error)
	GetUser(ctx context.Context, id string) (*userModel.UserResponse, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) (*userModel.UserResponse, error)
	DeleteUser(ctx context.Context, id string, actor *security.Principal) error
	Ban(ctx context.Context, id string, actor *security.Principal) (*userModel.UserResponse, error)
	Unban(ctx context.Context, id string) (*userModel.UserResponse, error)
	AssignRole(ctx context.Context, id string, role security.RoleName) (*userModel.UserResponse, error)
	RemoveRole(ctx context.Context, id string, role security.RoleName, actor *security.Principal) (*userModel.UserResponse, error)
	Statistics(ctx context.Context) (*SystemStatistics, error)

	FeaturePost(ctx context.Context, id string) error
	UnfeaturePost(ctx context.Context, id string) error
	DeleteAnyPost(ctx context.Context, id string, actor *security.Principal) error
	DeleteAnyComment(ctx context.Context, id string, actor *security.Principal) error
}

type adminService struct {
	users    userRepository.UserRepository
	roles    userRepository.RoleRepository
	posts    PostStore
	comments Counter
	tags     Counter
	postMod  PostModerator
	comMod   CommentModerator
	tx       database.Transactor
	cache    cache.CacheService
	metrics  *metrics.MetricsCollector

	startedAt time.Time
	now       func() time.Time
}

// Deps 后台服务依赖
type Deps struct {
	Users      userRepository.UserRepository
	Roles      userRepository.RoleRepository
	Posts      PostStore
	Comments   Counter
	Tags       Counter
	PostMod    PostModerator
	CommentMod CommentModerator
	Tx         database.Transactor
	Cache      cache.CacheService
	Metrics    *metrics.MetricsCollector
}

func NewAdminService(d Deps) AdminService {
	return &adminService{
		users:     d.Users,
		roles:     d.Roles,
		posts:     d.Posts,
		comments:  d.Comments,
		tags:      d.Tags,
		postMod:   d.PostMod,
		comMod:    d.CommentMod,
		tx:        d.Tx,
		cache:     d.Cache,
		metrics:   d.Metrics,
		startedAt: time.Now(),
		now:       time.Now,
	}
}

var userSortFields = map[string]string{
	"createdAt":   "created_at",
	"username":    "username",
	"email":       "email",
	"lastLoginAt": "last_login_at",
}

func (s *adminService) load(ctx context.Context, id string) (*userModel.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NotFound("User not found with id: %s", id)
		}
		return nil, err
	}
	return user, nil
}

// evict 用户资料缓存与 user 模块共用 key
func (s *adminService) evict(ctx context.Context, id string) {
	key := userService.UserCacheKeyPrefix + id
	if err := s.cache.Delete(ctx, key); err != nil {
		logger.Log.Warn("failed to invalidate user cache", zap.String("key", key), zap.Error(err))
	}
}

func (s *adminService) ListUsers(ctx context.Context, search string, p utils.Pagination) (utils.PageResult[userModel.UserResponse], error) {
	offset, limit := p.GetPageOffset()
	filter := userRepository.UserFilter{
		Search:  strings.TrimSpace(search),
		OrderBy: p.OrderBy(userSortFields, "created_at desc"),
	}
	users, total, err := s.users.List(ctx, filter, offset, limit)
	if err != nil {
		return utils.PageResult[userModel.UserResponse]{}, err
	}
	page := utils.NewPageResult(users, p, total)
	return utils.MapPage(page, func(u userModel.User) userModel.UserResponse { return u.ToResponse() }), nil
}

func (s *adminService) GetUser(ctx context.Context, id string) (*userModel.UserResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

// UpdateUser 按字段更新，邮箱和用户名变更时重新检查唯一性
func (s *adminService) UpdateUser(ctx context.Context, id string, patch UserPatch) (*userModel.UserResponse, error) {
	var user *userModel.User
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		var err error
		if user, err = s.load(ctx, id); err != nil {
			return err
		}

		if patch.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*patch.Email))
			if email != user.Email {
				exists, err := s.users.ExistsByEmail(ctx, email)
				if err != nil {
					return err
				}
				if exists {
					return apperror.ErrDuplicateEmail
				}
				user.Email = email
			}
		}
		if patch.Username != nil {
			username := strings.TrimSpace(*patch.Username)
			if username != user.Username {
				exists, err := s.users.ExistsByUsername(ctx, username)
				if err != nil {
					return err
				}
				if exists {
					return apperror.ErrDuplicateUsername
				}
				user.Username = username
			}
		}
		assign(&user.FirstName, patch.FirstName)
		assign(&user.LastName, patch.LastName)
		assign(&user.Bio, patch.Bio)
		assign(&user.AvatarURL, patch.AvatarURL)
		assign(&user.Enabled, patch.Enabled)
		assign(&user.Locked, patch.Locked)
		assign(&user.EmailVerified, patch.EmailVerified)

		if err := s.users.Update(ctx, user); err != nil {
			if constraint, ok := database.UniqueViolation(err); ok {
				if strings.Contains(constraint, "email") {
					return apperror.ErrDuplicateEmail
				}
				return apperror.ErrDuplicateUsername
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.evict(ctx, id)
	logger.Log.Info("admin updated user", zap.String("user_id", id))
	resp := user.ToResponse()
	return &resp, nil
}

func assign[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// DeleteUser 软删除：禁用账号
func (s *adminService) DeleteUser(ctx context.Context, id string, actor *security.Principal) error {
	if actor != nil && actor.UserID == id {
		return apperror.InvalidOperation("You cannot delete your own account")
	}
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.users.UpdateFields(ctx, id, map[string]interface{}{"enabled": false}); err != nil {
		return err
	}
	s.evict(ctx, id)
	logger.Log.Info("admin deleted user", zap.String("user_id", id))
	s.metrics.RecordEvent("user_deleted")
	return nil
}

func (s *adminService) Ban(ctx context.Context, id string, actor *security.Principal) (*userModel.UserResponse, error) {
	if actor != nil && actor.UserID == id {
		return nil, apperror.InvalidOperation("You cannot ban yourself")
	}
	return s.setLocked(ctx, id, true)
}

func (s *adminService) Unban(ctx context.Context, id string) (*userModel.UserResponse, error) {
	return s.setLocked(ctx, id, false)
}

func (s *adminService) setLocked(ctx context.Context, id string, locked bool) (*userModel.UserResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateFields(ctx, id, map[string]interface{}{"locked": locked}); err != nil {
		return nil, err
	}
	user.Locked = locked
	s.evict(ctx, id)

	event := "user_unbanned"
	if locked {
		event = "user_banned"
	}
	logger.Log.Info(strings.ReplaceAll(event, "_", " "), zap.String("user_id", id))
	s.metrics.RecordEvent(event)

	resp := user.ToResponse()
	return &resp, nil
}

func checkAssignable(role security.RoleName) error {
	if role != security.RoleAdmin && role != security.RoleModerator {
		return apperror.Validation("role", "Only ADMIN and MODERATOR roles can be assigned")
	}
	return nil
}

// AssignRole 授予角色，已拥有时不变
func (s *adminService) AssignRole(ctx context.Context, id string, role security.RoleName) (*userModel.UserResponse, error) {
	if err := checkAssignable(role); err != nil {
		return nil, err
	}
	return s.changeRole(ctx, id, role, func(ctx context.Context, user *userModel.User, r *userModel.Role) error {
		added, err := s.roles.Assign(ctx, user.ID, r)
		if err != nil {
			return err
		}
		if added {
			user.Roles = append(user.Roles, *r)
			logger.Log.Info("role assigned", zap.String("user_id", user.ID), zap.String("role", string(role)))
		}
		return nil
	})
}

// RemoveRole 移除角色，未拥有时不变；管理员不能移除自己的 ADMIN
func (s *adminService) RemoveRole(ctx context.Context, id string, role security.RoleName, actor *security.Principal) (*userModel.UserResponse, error) {
	if err := checkAssignable(role); err != nil {
		return nil, err
	}
	if role == security.RoleAdmin && actor != nil && actor.UserID == id {
		return nil, apperror.InvalidOperation("You cannot remove your own ADMIN role")
	}
	return s.changeRole(ctx, id, role, func(ctx context.Context, user *userModel.User, r *userModel.Role) error {
		removed, err := s.roles.Remove(ctx, user.ID, r)
		if err != nil {
			return err
		}
		if removed {
			kept := user.Roles[:0]
			for _, existing := range user.Roles {
				if existing.Name != role {
					kept = append(kept, existing)
				}
			}
			user.Roles = kept
			logger.Log.Info("role removed", zap.String("user_id", user.ID), zap.String("role", string(role)))
		}
		return nil
	})
}

type roleChange func(ctx context.Context, user *userModel.User, role *userModel.Role) error

func (s *adminService) changeRole(ctx context.Context, id string, name security.RoleName, fn roleChange) (*userModel.UserResponse, error) {
	var user *userModel.User
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		var err error
		if user, err = s.load(ctx, id); err != nil {
			return err
		}
		role, err := s.roles.GetOrCreate(ctx, name)
		if err != nil {
			return err
		}
		return fn(ctx, user, role)
	})
	if err != nil {
		return nil, err
	}
	s.evict(ctx, id)
	resp := user.ToResponse()
	return &resp, nil
}

// Statistics 系统统计
func (s *adminService) Statistics(ctx context.Context) (*SystemStatistics, error) {
	var stats SystemStatistics
	var err error

	if stats.TotalUsers, err = s.users.CountAll(ctx); err != nil {
		return nil, err
	}
	if stats.ActiveUsers, err = s.users.CountActive(ctx); err != nil {
		return nil, err
	}
	if stats.Admins, err = s.users.CountByRole(ctx, security.RoleAdmin); err != nil {
		return nil, err
	}
	if stats.Moderators, err = s.users.CountByRole(ctx, security.RoleModerator); err != nil {
		return nil, err
	}
	if stats.TotalPosts, err = s.posts.CountAll(ctx); err != nil {
		return nil, err
	}
	if stats.PublishedPosts, err = s.posts.CountByStatus(ctx, postModel.StatusPublished); err != nil {
		return nil, err
	}
	if stats.DraftPosts, err = s.posts.CountByStatus(ctx, postModel.StatusDraft); err != nil {
		return nil, err
	}
	if stats.ArchivedPosts, err = s.posts.CountByStatus(ctx, postModel.StatusArchived); err != nil {
		return nil, err
	}
	if stats.TotalComments, err = s.comments.CountAll(ctx); err != nil {
		return nil, err
	}
	if stats.TotalTags, err = s.tags.CountAll(ctx); err != nil {
		return nil, err
	}

	now := s.now()
	uptime := now.Sub(s.startedAt).Truncate(time.Second)
	stats.ServerTime = now
	stats.Uptime = uptime.String()
	stats.UptimeSeconds = int64(uptime.Seconds())
	return &stats, nil
}

func (s *adminService) FeaturePost(ctx context.Context, id string) error {
	return s.feature(ctx, id, true)
}

func (s *adminService) UnfeaturePost(ctx context.Context, id string) error {
	return s.feature(ctx, id, false)
}

func (s *adminService) feature(ctx context.Context, id string, featured bool) error {
	if err := s.postMod.SetFeatured(ctx, id, featured); err != nil {
		return err
	}
	logger.Log.Info("post featured flag changed", zap.String("post_id", id), zap.Bool("featured", featured))
	return nil
}

func (s *adminService) DeleteAnyPost(ctx context.Context, id string, actor *security.Principal) error {
	return s.postMod.Delete(ctx, id, actor)
}

// DeleteAnyComment 复用评论级联删除
func (s *adminService) DeleteAnyComment(ctx context.Context, id string, actor *security.Principal) error {
	return s.comMod.Delete(ctx, id, actor)
}
