package handler

import (
	"blog_api/internal/domain/tag/model"
	"blog_api/internal/domain/tag/service"
	"blog_api/pkg/response"
	"blog_api/pkg/utils"

	"github.com/gin-gonic/gin"
)

// TagHandler 标签处理器
type TagHandler struct {
	service service.TagService
}

func NewTagHandler(s service.TagService) *TagHandler {
	return &TagHandler{service: s}
}

// ListTags 标签列表
func (h *TagHandler) ListTags(c *gin.Context) {
	page, err := h.service.List(c.Request.Context(), c.Query("search"), utils.ParsePagination(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, page)
}

// SearchTags 按关键字搜索
func (h *TagHandler) SearchTags(c *gin.Context) {
	page, err := h.service.List(c.Request.Context(), c.Query("query"), utils.ParsePagination(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, page)
}

// PopularTags 热门标签
func (h *TagHandler) PopularTags(c *gin.Context) {
	tags, err := h.service.Popular(c.Request.Context(), utils.QueryInt(c, "limit", service.DefaultPopularLimit))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, tags)
}

// TrendingTags 近期趋势标签
func (h *TagHandler) TrendingTags(c *gin.Context) {
	tags, err := h.service.Trending(c.Request.Context(),
		utils.QueryInt(c, "days", 7),
		utils.QueryInt(c, "limit", service.DefaultPopularLimit))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, tags)
}

func (h *TagHandler) GetTag(c *gin.Context) {
	tag, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, tag)
}

func (h *TagHandler) GetTagByName(c *gin.Context) {
	tag, err := h.service.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, tag)
}

func (h *TagHandler) GetTagBySlug(c *gin.Context) {
	tag, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, tag)
}

// GetPostCount 标签下的帖子数
func (h *TagHandler) GetPostCount(c *gin.Context) {
	count, err := h.service.PostCount(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, count)
}

// CreateTag 创建标签
func (h *TagHandler) CreateTag(c *gin.Context) {
	var input model.TagInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	tag, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, "Tag created", tag)
}

// UpdateTag 修改标签
func (h *TagHandler) UpdateTag(c *gin.Context) {
	var input model.TagInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	tag, err := h.service.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Tag updated", tag)
}

// DeleteTag 删除未被使用的标签
func (h *TagHandler) DeleteTag(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Tag deleted", nil)
}

// MergeTags 合并标签
func (h *TagHandler) MergeTags(c *gin.Context) {
	var input model.MergeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	tag, err := h.service.Merge(c.Request.Context(), input.SourceID, input.TargetID)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Tags merged", tag)
}
