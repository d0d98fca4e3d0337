package post

import (
	"blog_api/internal/domain/post/handler"
	"blog_api/internal/domain/post/repository"
	"blog_api/internal/domain/post/service"
	tagRepository "blog_api/internal/domain/tag/repository"
	searchService "blog_api/internal/domain/search/service"
	tagService "blog_api/internal/domain/tag/service"
	"blog_api/internal/pkg/middleware"
	"blog_api/internal/pkg/registry"
	"blog_api/internal/pkg/worker"
	"blog_api/pkg/database"
	"blog_api/pkg/security"

	"github.com/gin-gonic/gin"
)

// PostModule 帖子模块
type PostModule struct{}

func init() {
	registry.Register(&PostModule{})
}

func (m *PostModule) Name() string {
	return "post"
}

func (m *PostModule) Priority() int {
	return 20
}

func (m *PostModule) Init(ctx *registry.ModuleContext) error {
	tx := database.NewTransactor(ctx.DB)
	tags := tagService.NewTagService(tagRepository.NewTagRepository(ctx.DB), tx, ctx.Cache, ctx.Metrics)
	evictor := worker.NewCacheEvictor(ctx.Jobs, ctx.Cache, searchService.SearchCacheKeyPrefix+"*")
	svc := service.NewPostService(repository.NewPostRepository(ctx.DB), tags, tx, evictor, ctx.Metrics)

	setupRoutes(ctx.Router, handler.NewPostHandler(svc))
	return nil
}

func setupRoutes(r *gin.RouterGroup, h *handler.PostHandler) {
	posts := r.Group("/posts")
	{
		posts.GET("", h.GetPosts)
		posts.GET("/popular", h.GetPopularPosts)
		posts.GET("/featured", h.GetFeaturedPosts)
		posts.GET("/recent", h.GetRecentPosts)
		posts.GET("/search", h.SearchPosts)
		posts.GET("/slug/:slug", h.GetPostBySlug)
		posts.GET("/tag/:tagName", h.GetPostsByTag)
		posts.GET("/author/:authorId", h.GetPostsByAuthor)
		posts.GET("/:id", h.GetPost)
		posts.GET("/:id/similar", h.GetSimilarPosts)
	}

	auth := posts.Group("", middleware.RequireAuth())
	{
		auth.GET("/me", h.GetMyPosts)
		auth.GET("/saved", h.GetSavedPosts)
		auth.GET("/feed", h.GetFeed)
		auth.POST("", h.CreatePost)
		auth.PUT("/:id", h.UpdatePost)
		auth.DELETE("/:id", h.DeletePost)
		auth.POST("/:id/like", h.LikePost)
		auth.POST("/:id/save", h.SavePost)
		auth.DELETE("/:id/save", h.UnsavePost)
	}

	moderator := r.Group("/moderator/posts", middleware.RequireRole(security.RoleModerator))
	{
		moderator.PUT("/:id/archive", h.ArchivePost)
	}
}
