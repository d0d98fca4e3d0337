package common

import (
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"blog_api/internal/pkg/uploader"
	"blog_api/pkg/logger"
	"blog_api/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxUploadConcurrency = 5

// Handler 健康检查与通用上传
type Handler struct {
	db        *gorm.DB
	uploader  uploader.Uploader
	startedAt time.Time
}

func NewHandler(db *gorm.DB, up uploader.Uploader) *Handler {
	return &Handler{db: db, uploader: up, startedAt: time.Now()}
}

// Health 健康检查，数据库不可用时返回 503
func (h *Handler) Health(c *gin.Context) {
	status := "UP"
	httpCode := http.StatusOK
	if h.db != nil {
		if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = "DOWN"
			httpCode = http.StatusServiceUnavailable
		}
	}
	c.JSON(httpCode, gin.H{
		"status": status,
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// UploadFile 批量上传文件到 OSS，返回顺序与上传顺序一致
func (h *Handler) UploadFile(c *gin.Context) {
	if h.uploader == nil {
		response.Error(c, http.StatusServiceUnavailable, response.CodeServerInternal, "File storage is not configured")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidationFailed, "Invalid form data")
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeValidationFailed, "No files uploaded")
		return
	}

	urls := make([]string, len(files))
	var (
		wg        sync.WaitGroup
		errOnce   sync.Once
		uploadErr error
	)
	sem := make(chan struct{}, maxUploadConcurrency)

	for i, file := range files {
		wg.Add(1)
		go func(index int, f *multipart.FileHeader) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			url, err := h.uploader.UploadFile(f, "uploads")
			if err != nil {
				errOnce.Do(func() { uploadErr = err })
				return
			}
			urls[index] = url
		}(i, file)
	}
	wg.Wait()

	if uploadErr != nil {
		logger.Log.Error("upload failed", zap.Error(uploadErr))
		response.Error(c, http.StatusInternalServerError, response.CodeServerInternal, "Upload failed")
		return
	}

	response.Success(c, urls)
}
