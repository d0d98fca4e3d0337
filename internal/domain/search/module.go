package search

import (
	postRepository "blog_api/internal/domain/post/repository"
	postService "blog_api/internal/domain/post/service"
	"blog_api/internal/domain/search/handler"
	"blog_api/internal/domain/search/service"
	tagRepository "blog_api/internal/domain/tag/repository"
	tagService "blog_api/internal/domain/tag/service"
	userRepository "blog_api/internal/domain/user/repository"
	userService "blog_api/internal/domain/user/service"
	"blog_api/internal/pkg/otp"
	"blog_api/internal/pkg/registry"
	"blog_api/pkg/database"

	"github.com/gin-gonic/gin"
)

// SearchModule 搜索模块
type SearchModule struct{}

func init() {
	registry.Register(&SearchModule{})
}

func (m *SearchModule) Name() string {
	return "search"
}

func (m *SearchModule) Priority() int {
	return 50
}

func (m *SearchModule) Init(ctx *registry.ModuleContext) error {
	tx := database.NewTransactor(ctx.DB)
	tags := tagService.NewTagService(tagRepository.NewTagRepository(ctx.DB), tx, ctx.Cache, ctx.Metrics)
	posts := postService.NewPostService(postRepository.NewPostRepository(ctx.DB), tags, tx, nil, ctx.Metrics)
	users := userService.NewUserService(
		tx,
		userRepository.NewUserRepository(ctx.DB),
		ctx.Hasher,
		otp.NewOTPService(ctx.Redis),
		ctx.Cache,
		ctx.Metrics,
	)

	svc := service.NewSearchService(posts, users, tags, ctx.Cache, ctx.Metrics)
	setupRoutes(ctx.Router, handler.NewSearchHandler(svc))
	return nil
}

func setupRoutes(r *gin.RouterGroup, h *handler.SearchHandler) {
	search := r.Group("/search")
	{
		search.GET("", h.Global)
		search.GET("/posts", h.Posts)
		search.GET("/users", h.Users)
		search.GET("/statistics", h.Statistics)
		search.GET("/similar/:postId", h.Similar)
	}
}
