package handler

import (
	"blog_api/internal/domain/post/model"
	"blog_api/internal/domain/post/service"
	"blog_api/internal/pkg/middleware"
	"blog_api/pkg/response"
	"blog_api/pkg/utils"

	"github.com/gin-gonic/gin"
)

// PostHandler 帖子处理器
type PostHandler struct {
	service service.PostService
}

func NewPostHandler(s service.PostService) *PostHandler {
	return &PostHandler{service: s}
}

type pageFunc func(c *gin.Context, p utils.Pagination) (utils.PageResult[model.PostResponse], error)

// listing 分页列表的通用处理
func (h *PostHandler) listing(fn pageFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := fn(c, utils.ParsePagination(c))
		if err != nil {
			response.HandleError(c, err)
			return
		}
		response.Success(c, page)
	}
}

// GetPosts 已发布帖子
func (h *PostHandler) GetPosts(c *gin.Context) {
	h.listing(func(c *gin.Context, p utils.Pagination) (utils.PageResult[model.PostResponse], error) {
		return h.service.List(c.Request.Context(), p)
	})(c)
}

// GetPopularPosts 热门帖子
func (h *PostHandler) GetPopularPosts(c *gin.Context) {
	h.listing(func(c *gin.Context, p utils.Pagination) (utils.PageResult[model.PostResponse], error) {
		return h.service.Popular(c.Request.Context(), p)
	})(c)
}

// GetFeaturedPosts 精选帖子
func (h *PostHandler) GetFeaturedPosts(c *gin.Context) {
	h.listing(func(c *gin.Context, p utils.Pagination) (utils.PageResult[model.PostResponse], error) {
		return h.service.Featured(c.Request.Context(), p)
	})(c)
}

// GetRecentPosts 最近帖子，?days=7
func (h *PostHandler) GetRecentPosts(c *gin.Context) {
	h.listing(func(c *gin.Context, p utils.Pagination) (utils.PageResult[model.PostResponse], error) {
		return h.service.Recent(c.Request.Context(), utils.QueryInt(c, "days", 7), p)
	})(c)
}

// SearchPosts 关键字搜索
func (h *PostHandler) SearchPosts(c *gin.Context) {
	h.listing(func(c *gin.Context, p utils.Pagination) (utils.PageResult[model.PostResponse], error) {
		return h.service.Search(c.Request.Context(), c.Query("query"), p)
	})(c)
}

func (h *PostHandler) GetPostsByTag(c *gin.Context) {
	h.listing(func(c *gin.Context, p utils.Pagination) (utils.PageResult[model.PostResponse], error) {
		return h.service.ByTag(c.Request.Context(), c.Param("tagName"), p)
	})(c)
}

func (h *PostHandler) GetPostsByAuthor(c *gin.Context) {
	h.listing(func(c *gin.Context, p utils.Pagination) (utils.PageResult[model.PostResponse], error) {
		return h.service.ByAuthor(c.Request.Context(), c.Param("authorId"), p)
	})(c)
}

// GetMyPosts 当前用户的帖子
func (h *PostHandler) GetMyPosts(c *gin.Context) {
	h.listing(func(c *gin.Context, p utils.Pagination) (utils.PageResult[model.PostResponse], error) {
		return h.service.Mine(c.Request.Context(), middleware.CurrentPrincipal(c), p)
	})(c)
}

// GetSavedPosts 当前用户收藏的帖子
func (h *PostHandler) GetSavedPosts(c *gin.Context) {
	h.listing(func(c *gin.Context, p utils.Pagination) (utils.PageResult[model.PostResponse], error) {
		return h.service.Saved(c.Request.Context(), middleware.CurrentPrincipal(c), p)
	})(c)
}

// GetFeed 关注作者的帖子流
func (h *PostHandler) GetFeed(c *gin.Context) {
	h.listing(func(c *gin.Context, p utils.Pagination) (utils.PageResult[model.PostResponse], error) {
		return h.service.Feed(c.Request.Context(), middleware.CurrentPrincipal(c), p)
	})(c)
}

// GetPost 帖子详情，浏览数加一
func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.service.Get(c.Request.Context(), c.Param("id"), middleware.CurrentPrincipal(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, post)
}

func (h *PostHandler) GetPostBySlug(c *gin.Context) {
	post, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"), middleware.CurrentPrincipal(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, post)
}

// CreatePost 创建帖子
func (h *PostHandler) CreatePost(c *gin.Context) {
	var input model.PostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	post, err := h.service.Create(c.Request.Context(), input, middleware.CurrentPrincipal(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, "Post created successfully", post)
}

// UpdatePost 修改帖子
func (h *PostHandler) UpdatePost(c *gin.Context) {
	var input model.PostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	post, err := h.service.Update(c.Request.Context(), c.Param("id"), input, middleware.CurrentPrincipal(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Post updated successfully", post)
}

// DeletePost 删除帖子
func (h *PostHandler) DeletePost(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), middleware.CurrentPrincipal(c)); err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Post deleted successfully", nil)
}

// LikePost 点赞/取消点赞
func (h *PostHandler) LikePost(c *gin.Context) {
	result, err := h.service.Like(c.Request.Context(), c.Param("id"), middleware.CurrentPrincipal(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	msg := "Post unliked"
	if result.Liked {
		msg = "Post liked"
	}
	response.SuccessWithMessage(c, msg, result)
}

// SavePost 收藏
func (h *PostHandler) SavePost(c *gin.Context) {
	if err := h.service.Save(c.Request.Context(), c.Param("id"), middleware.CurrentPrincipal(c)); err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Post saved", nil)
}

// UnsavePost 取消收藏
func (h *PostHandler) UnsavePost(c *gin.Context) {
	if err := h.service.Unsave(c.Request.Context(), c.Param("id"), middleware.CurrentPrincipal(c)); err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Post removed from saved", nil)
}

// GetSimilarPosts 相似帖子
func (h *PostHandler) GetSimilarPosts(c *gin.Context) {
	h.listing(func(c *gin.Context, p utils.Pagination) (utils.PageResult[model.PostResponse], error) {
		return h.service.Similar(c.Request.Context(), c.Param("id"), p)
	})(c)
}

// ArchivePost 版主归档
func (h *PostHandler) ArchivePost(c *gin.Context) {
	post, err := h.service.Archive(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Post archived", post)
}
