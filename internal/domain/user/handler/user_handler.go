package handler

import (
	"net/http"

	"blog_api/internal/domain/user/service"
	"blog_api/internal/pkg/middleware"
	"blog_api/internal/pkg/uploader"
	"blog_api/pkg/logger"
	"blog_api/pkg/response"
	"blog_api/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler 用户处理器
type UserHandler struct {
	service  service.UserService
	uploader uploader.Uploader
}

// NewUserHandler 创建处理器，uploader 可为 nil
func NewUserHandler(s service.UserService, up uploader.Uploader) *UserHandler {
	return &UserHandler{service: s, uploader: up}
}

// ChangePasswordInput 修改密码输入
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=100"`
}

// AvatarInput 头像地址
type AvatarInput struct {
	AvatarURL string `json:"avatarUrl" binding:"required,url,max=255"`
}

// BioInput 个人简介
type BioInput struct {
	Bio string `json:"bio" binding:"max=500"`
}

// VerifyEmailInput 邮箱验证码
type VerifyEmailInput struct {
	Code string `json:"code" binding:"required,len=6"`
}

// GetUsers 用户列表，支持 search 关键字
func (h *UserHandler) GetUsers(c *gin.Context) {
	page, err := h.service.List(c.Request.Context(), c.Query("search"), utils.ParsePagination(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, page)
}

// SearchUsers 按关键字搜索用户
func (h *UserHandler) SearchUsers(c *gin.Context) {
	page, err := h.service.List(c.Request.Context(), c.Query("query"), utils.ParsePagination(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, page)
}

// GetActiveUsers 活跃用户
func (h *UserHandler) GetActiveUsers(c *gin.Context) {
	page, err := h.service.Active(c.Request.Context(), utils.ParsePagination(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, page)
}

// GetUser 获取单个用户
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, user)
}

// GetUserByUsername 按用户名获取
func (h *UserHandler) GetUserByUsername(c *gin.Context) {
	user, err := h.service.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, user)
}

// GetMe 当前用户资料
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), middleware.CurrentPrincipal(c).UserID)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateMe 更新当前用户资料
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var input service.UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), middleware.CurrentPrincipal(c).UserID, input)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Profile updated", user)
}

// DeleteMe 注销当前账号
func (h *UserHandler) DeleteMe(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.CurrentPrincipal(c).UserID); err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Account deactivated", nil)
}

// ChangePassword 修改密码
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var input ChangePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	p := middleware.CurrentPrincipal(c)
	if err := h.service.ChangePassword(c.Request.Context(), p.UserID, input.CurrentPassword, input.NewPassword); err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Password changed", nil)
}

// UpdateAvatar 通过地址更新头像
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	var input AvatarInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	user, err := h.service.UpdateAvatar(c.Request.Context(), middleware.CurrentPrincipal(c).UserID, input.AvatarURL)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, user)
}

// UploadAvatar 上传头像图片到 OSS 并更新
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	if h.uploader == nil {
		response.Error(c, http.StatusServiceUnavailable, response.CodeServerInternal, "File storage is not configured")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidationFailed, "No file uploaded")
		return
	}
	if !uploader.IsImage(file.Filename) {
		response.Error(c, http.StatusBadRequest, response.CodeValidationFailed, "Avatar must be an image")
		return
	}

	p := middleware.CurrentPrincipal(c)
	url, err := h.uploader.UploadFile(file, "avatars/"+p.UserID)
	if err != nil {
		logger.Log.Error("avatar upload failed", zap.String("user_id", p.UserID), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.CodeServerInternal, "Upload failed")
		return
	}

	user, err := h.service.UpdateAvatar(c.Request.Context(), p.UserID, url)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateBio 更新简介
func (h *UserHandler) UpdateBio(c *gin.Context) {
	var input BioInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	user, err := h.service.UpdateBio(c.Request.Context(), middleware.CurrentPrincipal(c).UserID, input.Bio)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, user)
}

// Follow 关注
func (h *UserHandler) Follow(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	if err := h.service.Follow(c.Request.Context(), p.UserID, c.Param("id")); err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Successfully followed user", nil)
}

// Unfollow 取消关注
func (h *UserHandler) Unfollow(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	if err := h.service.Unfollow(c.Request.Context(), p.UserID, c.Param("id")); err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Successfully unfollowed user", nil)
}

// IsFollowing 当前用户是否关注了 :id，匿名时恒为 false
func (h *UserHandler) IsFollowing(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		response.Success(c, false)
		return
	}
	following, err := h.service.IsFollowing(c.Request.Context(), p.UserID, c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, following)
}

// GetFollowers 粉丝列表
func (h *UserHandler) GetFollowers(c *gin.Context) {
	page, err := h.service.Followers(c.Request.Context(), c.Param("id"), utils.ParsePagination(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, page)
}

// GetFollowing 关注列表
func (h *UserHandler) GetFollowing(c *gin.Context) {
	page, err := h.service.Following(c.Request.Context(), c.Param("id"), utils.ParsePagination(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, page)
}

// GetStatistics 用户统计
func (h *UserHandler) GetStatistics(c *gin.Context) {
	stats, err := h.service.Statistics(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, stats)
}

// ResendVerification 重新发送邮箱验证码
func (h *UserHandler) ResendVerification(c *gin.Context) {
	if err := h.service.SendVerification(c.Request.Context(), middleware.CurrentPrincipal(c).UserID); err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Verification code sent", nil)
}

// VerifyEmail 校验邮箱验证码
func (h *UserHandler) VerifyEmail(c *gin.Context) {
	var input VerifyEmailInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	if err := h.service.VerifyEmail(c.Request.Context(), middleware.CurrentPrincipal(c).UserID, input.Code); err != nil {
		response.HandleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Email verified", nil)
}
