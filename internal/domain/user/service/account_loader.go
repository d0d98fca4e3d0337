package service

import (
	"context"

	"blog_api/internal/domain/user/repository"
	"blog_api/internal/pkg/middleware"
)

type accountLoader struct {
	repo repository.UserRepository
}

// NewAccountLoader 供认证中间件按令牌中的用户 ID 读取账号状态
func NewAccountLoader(repo repository.UserRepository) middleware.AccountLoader {
	return &accountLoader{repo: repo}
}

func (l *accountLoader) LoadAccount(ctx context.Context, userID string) (*middleware.Account, error) {
	user, err := l.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &middleware.Account{
		ID:       user.ID,
		Username: user.Username,
		Roles:    user.RoleNames(),
		Enabled:  user.Enabled,
		Locked:   user.Locked,
	}, nil
}
