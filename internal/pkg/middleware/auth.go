package middleware

import (
	"context"
	"net/http"
	"strings"

	"blog_api/pkg/logger"
	"blog_api/pkg/response"
	"blog_api/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const principalKey = "principal"

// Account 鉴权时需要的账号状态
type Account struct {
	ID       string
	Username string
	Roles    []security.RoleName
	Enabled  bool
	Locked   bool
}

// AccountLoader 按用户 ID 加载账号
type AccountLoader interface {
	LoadAccount(ctx context.Context, userID string) (*Account, error)
}

// Authenticate 解析 Bearer 令牌并注入身份
// 任何失败都不中断请求，只是保持匿名，由路由上的 RequireAuth / RequireRole 决定是否拒绝
func Authenticate(tokens security.TokenService, loader AccountLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(principalKey); exists {
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			logger.Log.Debug("token rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.Next()
			return
		}

		account, err := loader.LoadAccount(c.Request.Context(), claims.Subject)
		if err != nil {
			logger.Log.Warn("load account for token failed", zap.String("user_id", claims.Subject), zap.Error(err))
			c.Next()
			return
		}
		if !account.Enabled || account.Locked {
			logger.Log.Debug("token owner is disabled or locked", zap.String("user_id", account.ID))
			c.Next()
			return
		}

		c.Set(principalKey, &security.Principal{
			UserID:   account.ID,
			Username: account.Username,
			Roles:    account.Roles,
		})
		c.Next()
	}
}

// bearerToken 提取 "Bearer <token>"，缺失、格式不符或为空时返回 false
func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// CurrentPrincipal 当前身份，匿名时返回 nil
func CurrentPrincipal(c *gin.Context) *security.Principal {
	v, exists := c.Get(principalKey)
	if !exists {
		return nil
	}
	p, _ := v.(*security.Principal)
	return p
}

// SetPrincipal 注入身份，测试中使用
func SetPrincipal(c *gin.Context, p *security.Principal) {
	c.Set(principalKey, p)
}

// RequireAuth 要求已登录
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentPrincipal(c) == nil {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Authentication required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole 要求具备任一角色（按蕴含关系展开后判断）
func RequireRole(roles ...security.RoleName) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := CurrentPrincipal(c)
		if p == nil {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Authentication required")
			c.Abort()
			return
		}
		for _, r := range roles {
			if p.HasRole(r) {
				c.Next()
				return
			}
		}
		response.Error(c, http.StatusForbidden, response.CodeForbidden, "Insufficient permissions")
		c.Abort()
	}
}
