package apperror

import (
	"errors"
	"fmt"
)

// Kind 错误类别，HTTP 层据此映射状态码
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindUnauthorized
	KindInvalidCredentials
	KindForbidden
	KindConflict
	KindValidation
	KindInvalidOperation
	KindTokenExpired
	KindTokenMalformed
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindInvalidCredentials:
		return "INVALID_CREDENTIALS"
	case KindForbidden:
		return "FORBIDDEN"
	case KindConflict:
		return "CONFLICT"
	case KindValidation:
		return "VALIDATION_FAILED"
	case KindInvalidOperation:
		return "INVALID_OPERATION"
	case KindTokenExpired:
		return "TOKEN_EXPIRED"
	case KindTokenMalformed:
		return "TOKEN_MALFORMED"
	default:
		return "INTERNAL_ERROR"
	}
}

// Error 业务错误
type Error struct {
	Kind    Kind
	Code    string // 细分码，如 DUPLICATE_EMAIL，为空时使用 Kind 名称
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode 返回对外暴露的错误码
func (e *Error) ErrorCode() string {
	if e.Code != "" {
		return e.Code
	}
	return e.Kind.String()
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func InvalidCredentials() *Error {
	return &Error{Kind: KindInvalidCredentials, Message: "Invalid username/email or password"}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// Conflict 唯一性冲突，code 用于区分冲突字段
func Conflict(code, field, msg string) *Error {
	return &Error{Kind: KindConflict, Code: code, Field: field, Message: msg}
}

func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: msg}
}

func InvalidOperation(msg string) *Error {
	return &Error{Kind: KindInvalidOperation, Message: msg}
}

// Internal 包装存储层等内部错误
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

var (
	ErrDuplicateEmail    = Conflict("DUPLICATE_EMAIL", "email", "Email is already in use")
	ErrDuplicateUsername = Conflict("DUPLICATE_USERNAME", "username", "Username is already taken")
	ErrDuplicateTagName  = Conflict("DUPLICATE_TAG", "name", "Tag with this name already exists")
)

// KindOf 返回错误类别，非业务错误视为内部错误
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is 判断错误是否属于某类别
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsCode 判断错误是否为指定细分码
func IsCode(err error, code string) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.ErrorCode() == code
}
