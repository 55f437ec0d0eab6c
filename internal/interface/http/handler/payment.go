package handler

import (
	"github.com/gin-gonic/gin"

	apppayment "github.com/xiebiao/eventtickets/internal/application/payment"
	"github.com/xiebiao/eventtickets/internal/interface/http/dto"
	apperrors "github.com/xiebiao/eventtickets/pkg/errors"
	"github.com/xiebiao/eventtickets/pkg/response"
)

// PaymentHandler 支付HTTP处理器
type PaymentHandler struct {
	reconciler *apppayment.Reconciler
	orders     *OrderHandler
}

// NewPaymentHandler 创建支付处理器
func NewPaymentHandler(reconciler *apppayment.Reconciler, orders *OrderHandler) *PaymentHandler {
	return &PaymentHandler{reconciler: reconciler, orders: orders}
}

// Checkout 创建支付会话
// @Summary      去支付
// @Description  订单转为PENDING并在支付网关创建会话，重复调用返回同一会话
// @Tags         支付
// @Produce      json
// @Security     BearerAuth
// @Param        reference path string true "订单号"
// @Success      200 {object} response.Response{data=dto.CheckoutResponse}
// @Failure      502 {object} response.Response "支付网关不可用"
// @Router       /api/v1/orders/{reference}/checkout [post]
func (h *PaymentHandler) Checkout(c *gin.Context) {
	reference := c.Param("reference")
	if !h.orders.authorize(c, reference) {
		return
	}

	session, err := h.reconciler.CreatePaymentSession(c.Request.Context(), reference)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.CheckoutResponse{
		PaymentReference: session.PublicReference,
		PaymentURL:       session.URL,
	})
}

// PaymentReturn 顾客从支付页面返回，主动查询网关状态
// @Summary      支付回跳
// @Tags         支付
// @Produce      json
// @Param        reference path string true "订单号"
// @Success      200 {object} response.Response{data=dto.TransitionResponse}
// @Router       /api/v1/orders/{reference}/payment/return [get]
func (h *PaymentHandler) PaymentReturn(c *gin.Context) {
	result, err := h.reconciler.ReconcileFromGateway(c.Request.Context(), c.Param("reference"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewTransitionResponse(result))
}

// Webhook 支付网关回调
// @Summary      支付网关回调
// @Description  回调只作为通知，订单状态以向网关查询的结果为准；重复回调是安全的
// @Tags         支付
// @Accept       json
// @Produce      json
// @Param        request body dto.WebhookRequest true "网关会话号"
// @Success      200 {object} response.Response{data=dto.TransitionResponse}
// @Router       /api/v1/payments/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var req dto.WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
		return
	}

	result, err := h.reconciler.ReconcileByPaymentReference(c.Request.Context(), req.PublicReference)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewTransitionResponse(result))
}
