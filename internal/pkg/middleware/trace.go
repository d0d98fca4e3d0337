package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxTraceIDLength = 64

// TraceMiddleware 透传或生成追踪ID
// 上游传入的 X-Trace-ID 过长时丢弃，防止日志注入超长字段
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader("X-Trace-ID")
		if traceID == "" || len(traceID) > maxTraceIDLength {
			traceID = uuid.New().String()
		}

		c.Set("traceID", traceID)
		c.Header("X-Trace-ID", traceID)

		c.Next()
	}
}
