package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/eventtickets/pkg/errors"
	"github.com/xiebiao/eventtickets/pkg/jwt"
	"github.com/xiebiao/eventtickets/pkg/response"
)

const (
	ctxCustomerID = "customer_id"
	ctxEmail      = "email"
	ctxAdmin      = "admin"
)

// AuthMiddleware JWT认证中间件
// 设计说明：
// 1. 从Header提取Token
// 2. 验证Token有效性(签名、过期时间、签发方)
// 3. 将顾客信息注入Context
// 4. 管理员接口额外检查admin声明
type AuthMiddleware struct {
	jwtManager *jwt.Manager
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(jwtManager *jwt.Manager) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager}
}

// RequireAuth 要求登录
// 使用方式：
//
//	authorized := r.Group("/api/v1")
//	authorized.Use(authMiddleware.RequireAuth())
//	authorized.GET("/customers/me/tickets", handler.ListMyTickets)
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 格式：Authorization: Bearer <token>
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		tokenString, ok := bearerToken(authHeader)
		if !ok {
			response.ErrorWithCode(c, apperrors.ErrCodeInvalidToken, "Token格式错误")
			c.Abort()
			return
		}

		claims, err := m.jwtManager.ParseToken(tokenString)
		if err != nil {
			response.Error(c, err) // 自动处理ErrTokenExpired、ErrInvalidToken
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// RequireAdmin 要求管理员，必须放在RequireAuth之后
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			response.Error(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth 可选登录
// 匿名顾客也能下单和查看订单，有Token时注入顾客信息
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if claims, err := m.jwtManager.ParseToken(tokenString); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setClaims(c *gin.Context, claims *jwt.Claims) {
	c.Set(ctxCustomerID, claims.CustomerID)
	c.Set(ctxEmail, claims.Email)
	c.Set(ctxAdmin, claims.Admin)
}

// =========================================
// Context辅助函数（供Handler使用）
// =========================================

// GetCustomerID 从Context获取当前登录顾客ID，未登录返回0
func GetCustomerID(c *gin.Context) uint {
	if id, exists := c.Get(ctxCustomerID); exists {
		if uid, ok := id.(uint); ok {
			return uid
		}
	}
	return 0
}

// GetEmail 从Context获取当前登录顾客邮箱
func GetEmail(c *gin.Context) string {
	return c.GetString(ctxEmail)
}

// IsAdmin 当前顾客是否为管理员
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(ctxAdmin)
}

// MustGetCustomerID 从Context获取顾客ID（如果不存在则panic）
// 说明：用于已经通过RequireAuth中间件的Handler
func MustGetCustomerID(c *gin.Context) uint {
	id := GetCustomerID(c)
	if id == 0 {
		panic("customer_id not found in context")
	}
	return id
}
