package response

import (
	"net/http"

	"blog_api/pkg/apperror"
)

// 对外错误码
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeTooManyRequests  = "TOO_MANY_REQUESTS"
	CodeServerInternal   = "INTERNAL_ERROR"
)

// StatusOf 错误类别到 HTTP 状态码
func StatusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindUnauthorized, apperror.KindInvalidCredentials,
		apperror.KindTokenExpired, apperror.KindTokenMalformed:
		return http.StatusUnauthorized
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindValidation, apperror.KindInvalidOperation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
