package user

import (
	"blog_api/internal/domain/user/handler"
	"blog_api/internal/domain/user/repository"
	"blog_api/internal/domain/user/service"
	"blog_api/internal/pkg/middleware"
	"blog_api/internal/pkg/otp"
	"blog_api/internal/pkg/registry"
	"blog_api/pkg/database"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// UserModule 用户与认证模块
type UserModule struct{}

func init() {
	registry.Register(&UserModule{})
}

func (m *UserModule) Name() string {
	return "user"
}

func (m *UserModule) Priority() int {
	// 用户模块优先级最高，因为其他模块可能依赖它
	return 1
}

func (m *UserModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	userRepo := repository.NewUserRepository(ctx.DB)
	roleRepo := repository.NewRoleRepository(ctx.DB)
	tx := database.NewTransactor(ctx.DB)

	authService := service.NewAuthService(tx, userRepo, roleRepo, ctx.Hasher, ctx.Tokens, ctx.Metrics)
	userService := service.NewUserService(tx, userRepo, ctx.Hasher, otp.NewOTPService(ctx.Redis), ctx.Cache, ctx.Metrics)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService, ctx.Uploader)

	// 2. 路由注册
	limiter := middleware.NewIPRateLimiter(rate.Limit(ctx.Config.RateLimit.QPS), ctx.Config.RateLimit.Burst)
	setupRoutes(ctx.Router, authHandler, userHandler, limiter)

	return nil
}

func setupRoutes(r *gin.RouterGroup, ah *handler.AuthHandler, uh *handler.UserHandler, limiter *middleware.IPRateLimiter) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", middleware.RateLimitMiddleware(limiter), ah.Login)
		authGroup.POST("/register", middleware.RateLimitMiddleware(limiter), ah.Register)
		authGroup.GET("/me", middleware.RequireAuth(), ah.Me)
	}

	users := r.Group("/users")
	{
		users.GET("", uh.GetUsers)
		users.GET("/search", uh.SearchUsers)
		users.GET("/active", uh.GetActiveUsers)
		users.GET("/username/:username", uh.GetUserByUsername)
		users.GET("/:id", uh.GetUser)
		users.GET("/:id/followers", uh.GetFollowers)
		users.GET("/:id/following", uh.GetFollowing)
		users.GET("/:id/is-following", uh.IsFollowing)
		users.GET("/:id/statistics", uh.GetStatistics)
	}

	me := users.Group("/me", middleware.RequireAuth())
	{
		me.GET("", uh.GetMe)
		me.PUT("", uh.UpdateMe)
		me.DELETE("", uh.DeleteMe)
		me.POST("/change-password", uh.ChangePassword)
		me.PUT("/avatar", uh.UpdateAvatar)
		me.POST("/avatar", uh.UploadAvatar)
		me.PUT("/bio", uh.UpdateBio)
		me.POST("/verify-email", uh.VerifyEmail)
		me.POST("/resend-verification", uh.ResendVerification)
	}

	follow := users.Group("", middleware.RequireAuth())
	{
		follow.POST("/:id/follow", uh.Follow)
		follow.POST("/:id/unfollow", uh.Unfollow)
		follow.DELETE("/:id/follow", uh.Unfollow)
	}
}
