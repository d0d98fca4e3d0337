package handler

import (
	"encoding/json"
	"net/http"

	"blog_api/internal/domain/admin/service"
	"blog_api/internal/pkg/middleware"
	"blog_api/pkg/response"
	"blog_api/pkg/security"
	"blog_api/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// AdminHandler 后台管理处理器
type AdminHandler struct {
	service service.AdminService
}

func NewAdminHandler(s service.AdminService) *AdminHandler {
	return &AdminHandler{service: s}
}

type roleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, err := h.service.ListUsers(c.Request.Context(), c.Query("search"), utils.ParsePagination(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, page)
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateUser 未知字段直接拒绝
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	var patch service.UserPatch
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidationFailed, err.Error())
		return
	}
	if err := binding.Validator.ValidateStruct(&patch); err != nil {
		response.BindError(c, err)
		return
	}

	user, err := h.service.UpdateUser(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "User updated successfully", user)
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	if err := h.service.DeleteUser(c.Request.Context(), c.Param("id"), middleware.CurrentPrincipal(c)); err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "User deleted successfully", nil)
}

func (h *AdminHandler) BanUser(c *gin.Context) {
	user, err := h.service.Ban(c.Request.Context(), c.Param("id"), middleware.CurrentPrincipal(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "User banned successfully", user)
}

func (h *AdminHandler) UnbanUser(c *gin.Context) {
	user, err := h.service.Unban(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "User unbanned successfully", user)
}

// AssignRole body: {"role": "MODERATOR"}
func (h *AdminHandler) AssignRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	h.assign(c, req.Role)
}

func (h *AdminHandler) RemoveRole(c *gin.Context) {
	h.remove(c, c.Param("role"))
}

// AssignFixedRole /users/:id/assign-admin 等固定路径
func (h *AdminHandler) AssignFixedRole(role security.RoleName) gin.HandlerFunc {
	return func(c *gin.Context) { h.assign(c, string(role)) }
}

func (h *AdminHandler) RemoveFixedRole(role security.RoleName) gin.HandlerFunc {
	return func(c *gin.Context) { h.remove(c, string(role)) }
}

func (h *AdminHandler) assign(c *gin.Context, raw string) {
	role, ok := security.ParseRoleName(raw)
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeValidationFailed, "Unknown role: "+raw)
		return
	}
	user, err := h.service.AssignRole(c.Request.Context(), c.Param("id"), role)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Role assigned successfully", user)
}

func (h *AdminHandler) remove(c *gin.Context, raw string) {
	role, ok := security.ParseRoleName(raw)
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeValidationFailed, "Unknown role: "+raw)
		return
	}
	user, err := h.service.RemoveRole(c.Request.Context(), c.Param("id"), role, middleware.CurrentPrincipal(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Role removed successfully", user)
}

func (h *AdminHandler) GetStatistics(c *gin.Context) {
	stats, err := h.service.Statistics(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, stats)
}

func (h *AdminHandler) FeaturePost(c *gin.Context) {
	if err := h.service.FeaturePost(c.Request.Context(), c.Param("id")); err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Post featured", gin.H{"featured": true})
}

func (h *AdminHandler) UnfeaturePost(c *gin.Context) {
	if err := h.service.UnfeaturePost(c.Request.Context(), c.Param("id")); err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Post unfeatured", gin.H{"featured": false})
}

func (h *AdminHandler) DeletePost(c *gin.Context) {
	if err := h.service.DeleteAnyPost(c.Request.Context(), c.Param("id"), middleware.CurrentPrincipal(c)); err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Post deleted successfully", nil)
}

func (h *AdminHandler) DeleteComment(c *gin.Context) {
	if err := h.service.DeleteAnyComment(c.Request.Context(), c.Param("id"), middleware.CurrentPrincipal(c)); err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Comment deleted successfully", nil)
}
