package common

import (
	"blog_api/internal/pkg/middleware"
	"blog_api/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// CommonModule 通用功能模块
type CommonModule struct{}

func init() {
	registry.Register(&CommonModule{})
}

func (m *CommonModule) Name() string {
	return "common"
}

func (m *CommonModule) Priority() int {
	return 100 // 最后初始化
}

func (m *CommonModule) Init(ctx *registry.ModuleContext) error {
	h := NewHandler(ctx.DB, ctx.Uploader)
	setupRoutes(ctx, h)
	return nil
}

func setupRoutes(ctx *registry.ModuleContext, h *Handler) {
	ctx.Engine.GET("/healthz", h.Health)
	if ctx.Metrics != nil {
		ctx.Engine.GET("/metrics", gin.WrapH(ctx.Metrics.Handler()))
	}

	ctx.Router.POST("/upload", middleware.RequireAuth(), h.UploadFile)
}
