package admin

import (
	"blog_api/internal/domain/admin/handler"
	"blog_api/internal/domain/admin/service"
	commentRepository "blog_api/internal/domain/comment/repository"
	commentService "blog_api/internal/domain/comment/service"
	postRepository "blog_api/internal/domain/post/repository"
	postService "blog_api/internal/domain/post/service"
	searchService "blog_api/internal/domain/search/service"
	tagRepository "blog_api/internal/domain/tag/repository"
	tagService "blog_api/internal/domain/tag/service"
	userRepository "blog_api/internal/domain/user/repository"
	"blog_api/internal/pkg/middleware"
	"blog_api/internal/pkg/registry"
	"blog_api/internal/pkg/worker"
	"blog_api/pkg/database"
	"blog_api/pkg/security"

	"github.com/gin-gonic/gin"
)

// AdminModule 后台管理模块
type AdminModule struct{}

func init() {
	registry.Register(&AdminModule{})
}

func (m *AdminModule) Name() string {
	return "admin"
}

func (m *AdminModule) Priority() int {
	return 40
}

func (m *AdminModule) Init(ctx *registry.ModuleContext) error {
	tx := database.NewTransactor(ctx.DB)
	tagRepo := tagRepository.NewTagRepository(ctx.DB)
	postRepo := postRepository.NewPostRepository(ctx.DB)
	commentRepo := commentRepository.NewCommentRepository(ctx.DB)

	tags := tagService.NewTagService(tagRepo, tx, ctx.Cache, ctx.Metrics)
	evictor := worker.NewCacheEvictor(ctx.Jobs, ctx.Cache, searchService.SearchCacheKeyPrefix+"*")
	posts := postService.NewPostService(postRepo, tags, tx, evictor, ctx.Metrics)
	comments := commentService.NewCommentService(commentRepo, postRepo, tx, ctx.Metrics)

	svc := service.NewAdminService(service.Deps{
		Users:      userRepository.NewUserRepository(ctx.DB),
		Roles:      userRepository.NewRoleRepository(ctx.DB),
		Posts:      postRepo,
		Comments:   commentRepo,
		Tags:       tagRepo,
		PostMod:    posts,
		CommentMod: comments,
		Tx:         tx,
		Cache:      ctx.Cache,
		Metrics:    ctx.Metrics,
	})

	setupRoutes(ctx.Router, handler.NewAdminHandler(svc))
	return nil
}

func setupRoutes(r *gin.RouterGroup, h *handler.AdminHandler) {
	admin := r.Group("/admin", middleware.RequireRole(security.RoleAdmin))
	{
		admin.GET("/users", h.ListUsers)
		admin.GET("/users/:id", h.GetUser)
		admin.PUT("/users/:id", h.UpdateUser)
		admin.DELETE("/users/:id", h.DeleteUser)
		admin.POST("/users/:id/ban", h.BanUser)
		admin.POST("/users/:id/unban", h.UnbanUser)
		admin.POST("/users/:id/roles", h.AssignRole)
		admin.DELETE("/users/:id/roles/:role", h.RemoveRole)
		admin.POST("/users/:id/assign-admin", h.AssignFixedRole(security.RoleAdmin))
		admin.POST("/users/:id/remove-admin", h.RemoveFixedRole(security.RoleAdmin))
		admin.POST("/users/:id/assign-moderator", h.AssignFixedRole(security.RoleModerator))
		admin.POST("/users/:id/remove-moderator", h.RemoveFixedRole(security.RoleModerator))

		admin.GET("/statistics", h.GetStatistics)

		admin.POST("/posts/:id/feature", h.FeaturePost)
		admin.POST("/posts/:id/unfeature", h.UnfeaturePost)
		admin.DELETE("/posts/:id", h.DeletePost)
		admin.DELETE("/comments/:id", h.DeleteComment)
	}
}
