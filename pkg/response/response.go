package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/xiebiao/eventtickets/pkg/errors"
	"github.com/xiebiao/eventtickets/pkg/logger"
)

// Response 统一响应结构
// 设计说明：
// 1. Code是业务错误码，方便客户端判断错误类型
// 2. Message是用户友好的提示信息
// 3. Data是业务数据，成功时返回，失败时为null
// 4. HTTP状态码按错误码区间推导，网关和负载均衡据此统计错误率
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应（Code=0表示成功）
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应（自动处理AppError）
func Error(c *gin.Context, err error) {
	appErr := apperrors.GetAppError(err)
	status := HTTPStatus(appErr.Code)

	l := logger.FromContext(c.Request.Context(), nil)
	if status >= http.StatusInternalServerError {
		l.Error("请求失败", zap.Int("code", appErr.Code), zap.Error(err))
	} else if appErr.Err != nil {
		l.Warn("请求被拒绝", zap.Int("code", appErr.Code), zap.Error(err))
	}

	c.JSON(status, Response{
		Code:    appErr.Code,
		Message: appErr.Message,
	})
}

// ErrorWithCode 自定义错误码和消息
func ErrorWithCode(c *gin.Context, code int, message string) {
	c.JSON(HTTPStatus(code), Response{
		Code:    code,
		Message: message,
	})
}

// HTTPStatus 错误码区间到HTTP状态码的映射
func HTTPStatus(code int) int {
	switch {
	case code == apperrors.ErrCodeConflictingUpdate || code == apperrors.ErrCodeDuplicateEntry:
		return http.StatusConflict
	case code == apperrors.ErrCodeCapacityExceeded || code == apperrors.ErrCodeInvalidState:
		return http.StatusConflict
	case code >= 40900 && code < 41000:
		return http.StatusBadRequest
	case code >= 40400 && code < 40500:
		return http.StatusNotFound
	case code == apperrors.ErrCodeForbidden:
		return http.StatusForbidden
	case code >= 40100 && code < 40200:
		return http.StatusUnauthorized
	case code >= 40000 && code < 41000:
		return http.StatusUnprocessableEntity
	case code >= 50200 && code < 50300:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// =========================================
// 列表响应结构
// =========================================

// ListData 列表数据封装
type ListData struct {
	List  interface{} `json:"list"`
	Total int         `json:"total"`
}

// SuccessWithList 列表成功响应
func SuccessWithList(c *gin.Context, list interface{}, total int) {
	Success(c, ListData{List: list, Total: total})
}
