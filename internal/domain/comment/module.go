package comment

import (
	"blog_api/internal/domain/comment/handler"
	"blog_api/internal/domain/comment/repository"
	"blog_api/internal/domain/comment/service"
	postRepository "blog_api/internal/domain/post/repository"
	"blog_api/internal/pkg/middleware"
	"blog_api/internal/pkg/registry"
	"blog_api/pkg/database"
	"blog_api/pkg/security"

	"github.com/gin-gonic/gin"
)

// CommentModule 评论模块
type CommentModule struct{}

func init() {
	registry.Register(&CommentModule{})
}

func (m *CommentModule) Name() string {
	return "comment"
}

func (m *CommentModule) Priority() int {
	return 30
}

func (m *CommentModule) Init(ctx *registry.ModuleContext) error {
	svc := service.NewCommentService(
		repository.NewCommentRepository(ctx.DB),
		postRepository.NewPostRepository(ctx.DB),
		database.NewTransactor(ctx.DB),
		ctx.Metrics,
	)
	setupRoutes(ctx.Router, handler.NewCommentHandler(svc))
	return nil
}

func setupRoutes(r *gin.RouterGroup, h *handler.CommentHandler) {
	comments := r.Group("/comments")
	{
		comments.GET("/post/:postId", h.GetPostComments)
		comments.GET("/user/:userId", h.GetUserComments)
		comments.GET("/recent", h.GetRecentComments)
		comments.GET("/:id", h.GetComment)
		comments.GET("/:id/replies", h.GetReplies)
	}

	auth := comments.Group("", middleware.RequireAuth())
	{
		auth.POST("", h.CreateComment)
		auth.POST("/:id/reply", h.ReplyComment)
		auth.PUT("/:id", h.UpdateComment)
		auth.DELETE("/:id", h.DeleteComment)
	}

	moderator := r.Group("/moderator/comments", middleware.RequireRole(security.RoleModerator))
	{
		moderator.DELETE("/:id", h.DeleteComment)
	}
}
