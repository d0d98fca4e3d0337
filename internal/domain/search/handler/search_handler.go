package handler

import (
	"blog_api/internal/domain/search/service"
	"blog_api/pkg/response"
	"blog_api/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SearchHandler 搜索处理器
type SearchHandler struct {
	service service.SearchService
}

func NewSearchHandler(s service.SearchService) *SearchHandler {
	return &SearchHandler{service: s}
}

// Global ?query=
func (h *SearchHandler) Global(c *gin.Context) {
	result, err := h.service.Global(c.Request.Context(), c.Query("query"), utils.ParsePagination(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *SearchHandler) Posts(c *gin.Context) {
	page, err := h.service.Posts(c.Request.Context(), c.Query("query"), utils.ParsePagination(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, page)
}

func (h *SearchHandler) Users(c *gin.Context) {
	page, err := h.service.Users(c.Request.Context(), c.Query("query"), utils.ParsePagination(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, page)
}

func (h *SearchHandler) Statistics(c *gin.Context) {
	stats, err := h.service.Statistics(c.Request.Context(), c.Query("query"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, stats)
}

func (h *SearchHandler) Similar(c *gin.Context) {
	page, err := h.service.Similar(c.Request.Context(), c.Param("postId"), utils.ParsePagination(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, page)
}
