package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xiebiao/eventtickets/internal/interface/http/middleware"
	"github.com/xiebiao/eventtickets/pkg/response"
)

// Handlers 所有HTTP处理器
type Handlers struct {
	Orders   *OrderHandler
	Products *ProductHandler
	Tickets  *TicketHandler
	Payments *PaymentHandler
}

// RegisterRoutes 注册业务路由
func RegisterRoutes(r *gin.Engine, h *Handlers, auth *middleware.AuthMiddleware) {
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	v1 := r.Group("/api/v1")
	{
		// 公开接口
		v1.GET("/products", h.Products.ListProducts)
		v1.POST("/payments/webhook", h.Payments.Webhook)

		// 匿名顾客也可以下单，订单号即凭证
		orders := v1.Group("/orders", auth.OptionalAuth())
		{
			orders.POST("", h.Orders.CreateOrder)
			orders.GET("/:reference", h.Orders.GetOrder)
			orders.GET("/:reference/payment/return", h.Payments.PaymentReturn)
		}

		authorized := v1.Group("", auth.RequireAuth())
		{
			authorized.PUT("/orders/:reference", h.Orders.UpdateOrder)
			authorized.POST("/orders/:reference/transitions", h.Orders.RequestTransition)
			authorized.POST("/orders/:reference/checkout", h.Payments.Checkout)
			authorized.GET("/customers/me/reservations", h.Orders.ListMyReservations)
			authorized.GET("/customers/me/tickets", h.Tickets.ListMyTickets)
			authorized.POST("/tickets/:key/transfer", h.Tickets.TransferTicket)
		}

		admin := v1.Group("/admin", auth.RequireAuth(), auth.RequireAdmin())
		{
			admin.POST("/products", h.Products.PublishProduct)
			admin.PUT("/products/:key/counters", h.Products.AdjustCounters)
			admin.POST("/orders/:reference/reject", h.Orders.RejectOrder)
			admin.POST("/orders/:reference/status", h.Orders.SetStatus)
		}
	}
}
