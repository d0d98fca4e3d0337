package tag

import (
	"blog_api/internal/domain/tag/handler"
	"blog_api/internal/domain/tag/repository"
	"blog_api/internal/domain/tag/service"
	"blog_api/internal/pkg/middleware"
	"blog_api/internal/pkg/registry"
	"blog_api/pkg/database"
	"blog_api/pkg/security"

	"github.com/gin-gonic/gin"
)

// TagModule 标签模块
type TagModule struct{}

func init() {
	registry.Register(&TagModule{})
}

func (m *TagModule) Name() string {
	return "tag"
}

func (m *TagModule) Priority() int {
	return 10
}

func (m *TagModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewTagRepository(ctx.DB)
	svc := service.NewTagService(repo, database.NewTransactor(ctx.DB), ctx.Cache, ctx.Metrics)
	setupRoutes(ctx.Router, handler.NewTagHandler(svc))
	return nil
}

func setupRoutes(r *gin.RouterGroup, h *handler.TagHandler) {
	tags := r.Group("/tags")
	{
		tags.GET("", h.ListTags)
		tags.GET("/search", h.SearchTags)
		tags.GET("/popular", h.PopularTags)
		tags.GET("/trending", h.TrendingTags)
		tags.GET("/name/:name", h.GetTagByName)
		tags.GET("/slug/:slug", h.GetTagBySlug)
		tags.GET("/:id", h.GetTag)
		tags.GET("/:id/post-count", h.GetPostCount)

		tags.POST("", middleware.RequireAuth(), h.CreateTag)
	}

	admin := tags.Group("", middleware.RequireRole(security.RoleAdmin))
	{
		admin.PUT("/:id", h.UpdateTag)
		admin.DELETE("/:id", h.DeleteTag)
		admin.POST("/merge", h.MergeTags)
	}
}
