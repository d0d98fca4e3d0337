package handler

import (
	"blog_api/internal/domain/comment/model"
	"blog_api/internal/domain/comment/service"
	"blog_api/internal/pkg/middleware"
	"blog_api/pkg/response"
	"blog_api/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CommentHandler 评论处理器
type CommentHandler struct {
	service service.CommentService
}

func NewCommentHandler(s service.CommentService) *CommentHandler {
	return &CommentHandler{service: s}
}

func (h *CommentHandler) respondPage(c *gin.Context, page utils.PageResult[model.CommentResponse], err error) {
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, page)
}

// GetPostComments 帖子下的顶层评论
func (h *CommentHandler) GetPostComments(c *gin.Context) {
	page, err := h.service.ListByPost(c.Request.Context(), c.Param("postId"), utils.ParsePagination(c), middleware.CurrentPrincipal(c))
	h.respondPage(c, page, err)
}

func (h *CommentHandler) GetReplies(c *gin.Context) {
	page, err := h.service.ListReplies(c.Request.Context(), c.Param("id"), utils.ParsePagination(c), middleware.CurrentPrincipal(c))
	h.respondPage(c, page, err)
}

func (h *CommentHandler) GetUserComments(c *gin.Context) {
	page, err := h.service.ListByUser(c.Request.Context(), c.Param("userId"), utils.ParsePagination(c), middleware.CurrentPrincipal(c))
	h.respondPage(c, page, err)
}

// GetRecentComments ?days=7
func (h *CommentHandler) GetRecentComments(c *gin.Context) {
	page, err := h.service.Recent(c.Request.Context(), utils.QueryInt(c, "days", service.DefaultRecentDays),
		utils.ParsePagination(c), middleware.CurrentPrincipal(c))
	h.respondPage(c, page, err)
}

func (h *CommentHandler) GetComment(c *gin.Context) {
	comment, err := h.service.Get(c.Request.Context(), c.Param("id"), middleware.CurrentPrincipal(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, comment)
}

// CreateComment 发表评论
func (h *CommentHandler) CreateComment(c *gin.Context) {
	var input model.CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}
	comment, err := h.service.Create(c.Request.Context(), input, middleware.CurrentPrincipal(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, "Comment created successfully", comment)
}

// ReplyComment 回复评论
func (h *CommentHandler) ReplyComment(c *gin.Context) {
	var input model.ContentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}
	comment, err := h.service.Reply(c.Request.Context(), c.Param("id"), input.Content, middleware.CurrentPrincipal(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, "Reply created successfully", comment)
}

func (h *CommentHandler) UpdateComment(c *gin.Context) {
	var input model.ContentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}
	comment, err := h.service.Update(c.Request.Context(), c.Param("id"), input.Content, middleware.CurrentPrincipal(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Comment updated successfully", comment)
}

// DeleteComment 删除评论及其回复
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), middleware.CurrentPrincipal(c)); err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Comment deleted successfully", nil)
}
