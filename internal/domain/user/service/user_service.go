package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blog_api/internal/domain/user/model"
	"blog_api/internal/domain/user/repository"
	"blog_api/internal/pkg/otp"
	"blog_api/pkg/apperror"
	"blog_api/pkg/cache"
	"blog_api/pkg/database"
	"blog_api/pkg/logger"
	"blog_api/pkg/metrics"
	"blog_api/pkg/security"
	"blog_api/pkg/utils"

	"go.uber.org/zap"
)

// 缓存键常量
const (
	UserCacheKeyPrefix = "user:"
	UserCacheTTL       = 30 * time.Minute

	emailVerifyPurpose = "email-verify"
)

// UpdateProfileInput 个人资料更新，nil 字段不修改
type UpdateProfileInput struct {
	Email     *string `json:"email" binding:"omitempty,email,max=100"`
	Username  *string `json:"username" binding:"omitempty,min=3,max=50"`
	FirstName *string `json:"firstName" binding:"omitempty,max=50"`
	LastName  *string `json:"lastName" binding:"omitempty,max=50"`
	Bio       *string `json:"bio" binding:"omitempty,max=500"`
	AvatarURL *string `json:"avatarUrl" binding:"omitempty,max=255"`
}

// UserService 用户服务接口
type UserService interface {
	GetUser(ctx context.Context, id string) (*model.UserResponse, error)
	GetByUsername(ctx context.Context, username string) (*model.UserResponse, error)
	List(ctx context.Context, search string, p utils.Pagination) (utils.PageResult[model.UserResponse], error)
	Active(ctx context.Context, p utils.Pagination) (utils.PageResult[model.UserResponse], error)
	UpdateProfile(ctx context.Context, id string, input UpdateProfileInput) (*model.UserResponse, error)
	UpdateAvatar(ctx context.Context, id, avatarURL string) (*model.UserResponse, error)
	UpdateBio(ctx context.Context, id, bio string) (*model.UserResponse, error)
	ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error
	Delete(ctx context.Context, id string) error

	Follow(ctx context.Context, followerID, followedID string) error
	Unfollow(ctx context.Context, followerID, followedID string) error
	IsFollowing(ctx context.Context, followerID, followedID string) (bool, error)
	Followers(ctx context.Context, userID string, p utils.Pagination) (utils.PageResult[model.UserSummary], error)
	Following(ctx context.Context, userID string, p utils.Pagination) (utils.PageResult[model.UserSummary], error)
	Statistics(ctx context.Context, userID string) (*model.UserStatistics, error)

	SendVerification(ctx context.Context, userID string) error
	VerifyEmail(ctx context.Context, userID, code string) error
}

// userService 实现，用户详情走 Redis 缓存
type userService struct {
	tx      database.Transactor
	repo    repository.UserRepository
	hasher  security.PasswordHasher
	otp     otp.OTPService
	cache   cache.CacheService
	metrics *metrics.MetricsCollector
}

// NewUserService 创建用户服务
func NewUserService(
	tx database.Transactor,
	repo repository.UserRepository,
	hasher security.PasswordHasher,
	otpService otp.OTPService,
	cacheService cache.CacheService,
	collector *metrics.MetricsCollector,
) UserService {
	return &userService{
		tx:      tx,
		repo:    repo,
		hasher:  hasher,
		otp:     otpService,
		cache:   cacheService,
		metrics: collector,
	}
}

var userSortFields = map[string]string{
	"createdAt": "created_at",
	"username":  "username",
	"email":     "email",
}

func getUserCacheKey(id string) string {
	return UserCacheKeyPrefix + id
}

// invalidateUserCache 清除用户缓存，失败只记录日志
func (s *userService) invalidateUserCache(ctx context.Context, ids ...string) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, getUserCacheKey(id))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.Log.Warn("failed to invalidate user cache", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (s *userService) load(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NotFound("User not found with id: %s", id)
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) withCounts(ctx context.Context, user *model.User) (*model.UserResponse, error) {
	resp := user.ToResponse()
	followers, following, err := s.repo.FollowCounts(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	resp.FollowersCount = followers
	resp.FollowingCount = following
	return &resp, nil
}

// GetUser 获取单个用户，优先读缓存
func (s *userService) GetUser(ctx context.Context, id string) (*model.UserResponse, error) {
	var cached model.UserResponse
	err := s.cache.Get(ctx, getUserCacheKey(id), &cached)
	if err == nil {
		s.metrics.RecordCacheOperation(UserCacheKeyPrefix, true)
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Log.Warn("user cache read failed", zap.String("user_id", id), zap.Error(err))
	}
	s.metrics.RecordCacheOperation(UserCacheKeyPrefix, false)

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp, err := s.withCounts(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, getUserCacheKey(id), resp, UserCacheTTL); err != nil {
		logger.Log.Warn("failed to cache user", zap.String("user_id", id), zap.Error(err))
	}
	return resp, nil
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*model.UserResponse, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NotFound("User not found with username: %s", username)
		}
		return nil, err
	}
	return s.withCounts(ctx, user)
}

// List 用户列表，search 为空时返回全部
func (s *userService) List(ctx context.Context, search string, p utils.Pagination) (utils.PageResult[model.UserResponse], error) {
	return s.list(ctx, repository.UserFilter{Search: strings.TrimSpace(search)}, p)
}

// Active 启用且未锁定的用户
func (s *userService) Active(ctx context.Context, p utils.Pagination) (utils.PageResult[model.UserResponse], error) {
	return s.list(ctx, repository.UserFilter{OnlyActive: true}, p)
}

func (s *userService) list(ctx context.Context, filter repository.UserFilter, p utils.Pagination) (utils.PageResult[model.UserResponse], error) {
	offset, limit := p.GetPageOffset()
	filter.OrderBy = p.OrderBy(userSortFields, "created_at desc")

	users, total, err := s.repo.List(ctx, filter, offset, limit)
	if err != nil {
		return utils.PageResult[model.UserResponse]{}, err
	}
	out := make([]model.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToResponse())
	}
	return utils.NewPageResult(out, p, total), nil
}

// UpdateProfile 更新个人资料，邮箱和用户名变更时重新校验唯一性
func (s *userService) UpdateProfile(ctx context.Context, id string, input UpdateProfileInput) (*model.UserResponse, error) {
	var user *model.User
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		var err error
		if user, err = s.load(ctx, id); err != nil {
			return err
		}
		if err := s.applyProfile(ctx, user, input); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, user); err != nil {
			return mapUserUniqueViolation(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateUserCache(ctx, id)
	return s.withCounts(ctx, user)
}

func (s *userService) applyProfile(ctx context.Context, user *model.User, input UpdateProfileInput) error {
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email != user.Email {
			exists, err := s.repo.ExistsByEmail(ctx, email)
			if err != nil {
				return err
			}
			if exists {
				return apperror.ErrDuplicateEmail
			}
			user.Email = email
			user.EmailVerified = false
		}
	}
	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username != user.Username {
			exists, err := s.repo.ExistsByUsername(ctx, username)
			if err != nil {
				return err
			}
			if exists {
				return apperror.ErrDuplicateUsername
			}
			user.Username = username
		}
	}
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.AvatarURL != nil {
		user.AvatarURL = *input.AvatarURL
	}
	return nil
}

func (s *userService) UpdateAvatar(ctx context.Context, id, avatarURL string) (*model.UserResponse, error) {
	return s.UpdateProfile(ctx, id, UpdateProfileInput{AvatarURL: &avatarURL})
}

func (s *userService) UpdateBio(ctx context.Context, id, bio string) (*model.UserResponse, error) {
	return s.UpdateProfile(ctx, id, UpdateProfileInput{Bio: &bio})
}

// ChangePassword 修改密码，需校验当前密码
func (s *userService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	return s.tx.Transaction(ctx, func(ctx context.Context) error {
		user, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if !s.hasher.Verify(user.PasswordHash, currentPassword) {
			return &apperror.Error{Kind: apperror.KindInvalidCredentials, Field: "currentPassword", Message: "Current password is incorrect"}
		}

		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return err
		}
		return s.repo.UpdateFields(ctx, id, map[string]interface{}{"password": hash})
	})
}

// Delete 软删除：禁用账号
func (s *userService) Delete(ctx context.Context, id string) error {
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		if _, err := s.load(ctx, id); err != nil {
			return err
		}
		return s.repo.UpdateFields(ctx, id, map[string]interface{}{"enabled": false})
	})
	if err != nil {
		return err
	}
	s.invalidateUserCache(ctx, id)
	logger.Log.Info("user deactivated", zap.String("user_id", id))
	return nil
}

// Follow 关注，重复关注不报错
func (s *userService) Follow(ctx context.Context, followerID, followedID string) error {
	if followerID == followedID {
		return apperror.InvalidOperation("You cannot follow yourself")
	}
	if _, err := s.load(ctx, followerID); err != nil {
		return err
	}
	if _, err := s.load(ctx, followedID); err != nil {
		return err
	}

	created, err := s.repo.Follow(ctx, followerID, followedID)
	if err != nil {
		return err
	}
	if created {
		s.metrics.RecordEvent("user_followed")
		s.invalidateUserCache(ctx, followerID, followedID)
	}
	return nil
}

// Unfollow 取消关注，未关注时不报错
func (s *userService) Unfollow(ctx context.Context, followerID, followedID string) error {
	removed, err := s.repo.Unfollow(ctx, followerID, followedID)
	if err != nil {
		return err
	}
	if removed {
		s.invalidateUserCache(ctx, followerID, followedID)
	}
	return nil
}

func (s *userService) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	return s.repo.IsFollowing(ctx, followerID, followedID)
}

func (s *userService) Followers(ctx context.Context, userID string, p utils.Pagination) (utils.PageResult[model.UserSummary], error) {
	return s.edgePage(ctx, userID, p, s.repo.Followers)
}

func (s *userService) Following(ctx context.Context, userID string, p utils.Pagination) (utils.PageResult[model.UserSummary], error) {
	return s.edgePage(ctx, userID, p, s.repo.Following)
}

type edgeQuery func(ctx context.Context, userID string, offset, limit int) ([]model.User, int64, error)

func (s *userService) edgePage(ctx context.Context, userID string, p utils.Pagination, query edgeQuery) (utils.PageResult[model.UserSummary], error) {
	if _, err := s.load(ctx, userID); err != nil {
		return utils.PageResult[model.UserSummary]{}, err
	}
	offset, limit := p.GetPageOffset()
	users, total, err := query(ctx, userID, offset, limit)
	if err != nil {
		return utils.PageResult[model.UserSummary]{}, err
	}
	out := make([]model.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToSummary())
	}
	return utils.NewPageResult(out, p, total), nil
}

// Statistics 用户统计
func (s *userService) Statistics(ctx context.Context, userID string) (*model.UserStatistics, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	followers, following, err := s.repo.FollowCounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.repo.AuthorStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &model.UserStatistics{
		UserID:                user.ID,
		Username:              user.Username,
		PostsCount:            stats.PostsCount,
		PublishedPostsCount:   stats.PublishedPostsCount,
		FollowersCount:        followers,
		FollowingCount:        following,
		TotalLikesReceived:    stats.TotalLikesReceived,
		TotalCommentsReceived: stats.TotalCommentsReceived,
		TotalViews:            stats.TotalViews,
		MemberSince:           user.CreatedAt,
		AccountAgeDays:        int(time.Since(user.CreatedAt).Hours() / 24),
	}, nil
}

// SendVerification 发送邮箱验证码
func (s *userService) SendVerification(ctx context.Context, userID string) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return apperror.InvalidOperation("Email is already verified")
	}

	if _, err := s.otp.Send(ctx, emailVerifyPurpose, user.ID); err != nil {
		if errors.Is(err, otp.ErrTooFrequent) {
			return apperror.InvalidOperation(err.Error())
		}
		return fmt.Errorf("send verification code: %w", err)
	}
	return nil
}

// VerifyEmail 校验验证码并标记邮箱已验证
func (s *userService) VerifyEmail(ctx context.Context, userID, code string) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return nil
	}
	if !s.otp.Verify(ctx, emailVerifyPurpose, user.ID, code) {
		return apperror.Validation("code", "Invalid or expired verification code")
	}

	if err := s.repo.UpdateFields(ctx, userID, map[string]interface{}{"email_verified": true}); err != nil {
		return err
	}
	s.invalidateUserCache(ctx, userID)
	return nil
}
