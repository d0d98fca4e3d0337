package response

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"blog_api/pkg/apperror"
	"blog_api/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data"`
	Error     *ErrorBody  `json:"error"`
	Timestamp time.Time   `json:"timestamp"`
}

// ErrorBody 错误详情
type ErrorBody struct {
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	SuccessWithMessage(c, "", data)
}

// SuccessWithMessage 带提示信息的成功响应
func SuccessWithMessage(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success:   true,
		Message:   msg,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// Created 201 响应
func Created(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success:   true,
		Message:   msg,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// Error 错误响应
func Error(c *gin.Context, httpCode int, errCode string, msg string) {
	ErrorWithDetails(c, httpCode, errCode, msg, nil)
}

// ErrorWithDetails 带详情的错误响应
func ErrorWithDetails(c *gin.Context, httpCode int, errCode string, msg string, details interface{}) {
	c.JSON(httpCode, Response{
		Success:   false,
		Message:   msg,
		Error:     &ErrorBody{Code: errCode, Details: details},
		Timestamp: time.Now(),
	})
}

// HandleError 将服务层错误映射为响应
// 非业务错误统一返回 500，具体原因只写日志
func HandleError(c *gin.Context, err error) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Kind != apperror.KindInternal {
		var details interface{}
		if appErr.Field != "" {
			details = map[string]string{appErr.Field: appErr.Message}
		}
		ErrorWithDetails(c, StatusOf(appErr.Kind), appErr.ErrorCode(), appErr.Message, details)
		return
	}

	logger.Log.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	Error(c, http.StatusInternalServerError, CodeServerInternal, "An unexpected error occurred")
}

// BindError 请求参数校验失败
func BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = describe(fe)
		}
		ErrorWithDetails(c, http.StatusBadRequest, CodeValidationFailed, "Validation failed", details)
		return
	}
	Error(c, http.StatusBadRequest, CodeValidationFailed, err.Error())
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	default:
		return fmt.Sprintf("failed on %s", fe.Tag())
	}
}
