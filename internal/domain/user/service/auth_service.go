package service

import (
	"context"
	"strings"
	"time"

	"blog_api/internal/domain/user/model"
	"blog_api/internal/domain/user/repository"
	"blog_api/pkg/apperror"
	"blog_api/pkg/database"
	"blog_api/pkg/logger"
	"blog_api/pkg/metrics"
	"blog_api/pkg/security"

	"go.uber.org/zap"
)

// LoginInput 登录输入，用户名或邮箱均可
type LoginInput struct {
	UsernameOrEmail string `json:"usernameOrEmail" binding:"required"`
	Password        string `json:"password" binding:"required"`
}

// RegisterInput 注册输入
type RegisterInput struct {
	Username  string `json:"username" binding:"required,min=3,max=50"`
	Email     string `json:"email" binding:"required,email,max=100"`
	Password  string `json:"password" binding:"required,min=6,max=100"`
	FirstName string `json:"firstName" binding:"max=50"`
	LastName  string `json:"lastName" binding:"max=50"`
}

// AuthResult 登录/注册结果
type AuthResult struct {
	Token     string             `json:"token"`
	TokenType string             `json:"tokenType"`
	ExpiresAt time.Time          `json:"expiresAt"`
	ExpiresIn int64              `json:"expiresIn"` // 秒
	User      model.UserResponse `json:"user"`
}

// AuthService 认证服务
type AuthService interface {
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Me(ctx context.Context, userID string) (*model.UserResponse, error)
}

type authService struct {
	tx      database.Transactor
	users   repository.UserRepository
	roles   repository.RoleRepository
	hasher  security.PasswordHasher
	tokens  security.TokenService
	metrics *metrics.MetricsCollector
	now     func() time.Time
}

// NewAuthService 创建认证服务
func NewAuthService(
	tx database.Transactor,
	users repository.UserRepository,
	roles repository.RoleRepository,
	hasher security.PasswordHasher,
	tokens security.TokenService,
	collector *metrics.MetricsCollector,
) AuthService {
	return &authService{
		tx:      tx,
		users:   users,
		roles:   roles,
		hasher:  hasher,
		tokens:  tokens,
		metrics: collector,
		now:     time.Now,
	}
}

// Login 登录
// 用户不存在、已禁用、已锁定、密码错误统一返回 InvalidCredentials
func (s *authService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.findByLogin(ctx, strings.TrimSpace(input.UsernameOrEmail))
	if err != nil {
		if database.IsNotFound(err) {
			s.metrics.RecordEvent("login_failed")
			return nil, apperror.InvalidCredentials()
		}
		return nil, err
	}

	if !user.Active() || !s.hasher.Verify(user.PasswordHash, input.Password) {
		s.metrics.RecordEvent("login_failed")
		logger.Log.Info("login rejected", zap.String("user_id", user.ID))
		return nil, apperror.InvalidCredentials()
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	s.metrics.RecordEvent("login_succeeded")
	return s.issue(user)
}

func (s *authService) findByLogin(ctx context.Context, login string) (*model.User, error) {
	user, err := s.users.GetByUsername(ctx, login)
	if err == nil || !database.IsNotFound(err) {
		return user, err
	}
	// 邮箱注册时统一存为小写
	return s.users.GetByEmail(ctx, strings.ToLower(login))
}

// Register 注册，默认授予 USER 角色
func (s *authService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.TrimSpace(input.Username)

	var user *model.User
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		exists, err := s.users.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			return apperror.ErrDuplicateEmail
		}

		exists, err = s.users.ExistsByUsername(ctx, username)
		if err != nil {
			return err
		}
		if exists {
			return apperror.ErrDuplicateUsername
		}

		hash, err := s.hasher.Hash(input.Password)
		if err != nil {
			return err
		}

		user = &model.User{
			Email:        email,
			Username:     username,
			PasswordHash: hash,
			FirstName:    strings.TrimSpace(input.FirstName),
			LastName:     strings.TrimSpace(input.LastName),
			Enabled:      true,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return mapUserUniqueViolation(err)
		}

		role, err := s.roles.GetOrCreate(ctx, security.RoleUser)
		if err != nil {
			return err
		}
		if _, err := s.roles.Assign(ctx, user.ID, role); err != nil {
			return err
		}
		user.Roles = []model.Role{*role}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))
	s.metrics.RecordEvent("user_registered")
	return s.issue(user)
}

// Me 当前用户信息
func (s *authService) Me(ctx context.Context, userID string) (*model.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NotFound("User not found with id: %s", userID)
		}
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *authService) issue(user *model.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user.Principal())
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
		ExpiresIn: int64(s.tokens.ExpiresIn().Seconds()),
		User:      user.ToResponse(),
	}, nil
}

// mapUserUniqueViolation 并发注册时由数据库唯一约束兜底
func mapUserUniqueViolation(err error) error {
	constraint, ok := database.UniqueViolation(err)
	if !ok {
		return err
	}
	if strings.Contains(constraint, "email") {
		return apperror.ErrDuplicateEmail
	}
	return apperror.ErrDuplicateUsername
}
