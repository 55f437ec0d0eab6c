package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiebiao/eventtickets/pkg/logger"
	"github.com/xiebiao/eventtickets/pkg/tracing"
)

// slowRequestThreshold 超过该耗时的请求记为慢请求
const slowRequestThreshold = 3 * time.Second

// Logger 请求日志中间件
//
// 教学要点：
// 1. 生成请求ID并写入响应头X-Request-ID，调用方带了就沿用
// 2. 把带request_id的logger放进请求Context，后续各层通过logger.FromContext取用
// 3. 每个请求一行结构化日志(方法、路径、状态码、耗时、trace_id)
func Logger(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		reqLogger := base.With(zap.String("request_id", requestID))
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), reqLogger))

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		}
		if traceID := tracing.ExtractTraceID(c.Request.Context()); traceID != "" {
			fields = append(fields, zap.String("trace_id", traceID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= 500:
			reqLogger.Error("请求处理失败", fields...)
		case latency > slowRequestThreshold:
			reqLogger.Warn("慢请求", fields...)
		default:
			reqLogger.Info("请求完成", fields...)
		}
	}
}
