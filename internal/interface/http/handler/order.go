package handler

import (
	"github.com/gin-gonic/gin"

	apporder "github.com/xiebiao/eventtickets/internal/application/order"
	"github.com/xiebiao/eventtickets/internal/domain/order"
	"github.com/xiebiao/eventtickets/internal/interface/http/dto"
	"github.com/xiebiao/eventtickets/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/eventtickets/pkg/errors"
	"github.com/xiebiao/eventtickets/pkg/response"
)

// customerTargets 顾客自己可以请求的目标状态
// PAID只能来自支付对账，REJECTED/EXPIRED/ERROR只能由管理员或对账设置
var customerTargets = map[order.Status]bool{
	order.StatusAssigned:    true,
	order.StatusPending:     true,
	order.StatusReservation: true,
	order.StatusCancelled:   true,
}

// OrderHandler 订单HTTP处理器
type OrderHandler struct {
	createOrder *apporder.CreateOrderUseCase
	updateOrder *apporder.UpdateOrderUseCase
	query       *apporder.QueryService
	engine      *apporder.Engine
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(
	createOrder *apporder.CreateOrderUseCase,
	updateOrder *apporder.UpdateOrderUseCase,
	query *apporder.QueryService,
	engine *apporder.Engine,
) *OrderHandler {
	return &OrderHandler{
		createOrder: createOrder,
		updateOrder: updateOrder,
		query:       query,
		engine:      engine,
	}
}

// CreateOrder 下单
// @Summary      创建订单
// @Description  匿名或已登录顾客创建订单，单价取商品当前价格
// @Tags         订单
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateOrderRequest true "商品及数量"
// @Success      201 {object} response.Response{data=dto.OrderResponse}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      404 {object} response.Response "商品不存在"
// @Router       /api/v1/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
		return
	}

	o, err := h.createOrder.Execute(c.Request.Context(), apporder.CreateOrderRequest{Quantities: req.Products})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewOrderResponse(o))
}

// GetOrder 查询订单
// @Summary      查询订单
// @Description  订单号即凭证，已支付订单同时返回门票
// @Tags         订单
// @Produce      json
// @Param        reference path string true "订单号"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      404 {object} response.Response "订单不存在"
// @Router       /api/v1/orders/{reference} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	view, err := h.query.Get(c.Request.Context(), c.Param("reference"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !canAccess(c, view.Order) {
		response.Error(c, apperrors.ErrForbidden)
		return
	}
	response.Success(c, dto.NewOrderViewResponse(view))
}

// UpdateOrder 绑定顾客、选择支付方式
// @Summary      修改订单
// @Tags         订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        reference path string true "订单号"
// @Param        request body dto.UpdateOrderRequest true "修改内容"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      403 {object} response.Response "不是自己的订单"
// @Router       /api/v1/orders/{reference} [put]
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	var req dto.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
		return
	}

	reference := c.Param("reference")
	if !h.authorize(c, reference) {
		return
	}

	owner := middleware.MustGetCustomerID(c)
	if req.OwnerID != nil && middleware.IsAdmin(c) {
		owner = *req.OwnerID
	}
	update := apporder.UpdateOrderRequest{Reference: reference, OwnerID: &owner}
	if req.PaymentMethod != nil {
		method := order.PaymentMethod(*req.PaymentMethod)
		update.PaymentMethod = &method
	}

	o, err := h.updateOrder.Execute(c.Request.Context(), update)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewOrderResponse(o))
}

// RequestTransition 顾客请求状态转换
// @Summary      订单状态转换
// @Description  顾客可请求ASSIGNED、PENDING、RESERVATION、CANCELLED
// @Tags         订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        reference path string true "订单号"
// @Param        request body dto.TransitionRequest true "目标状态"
// @Success      200 {object} response.Response{data=dto.TransitionResponse}
// @Failure      409 {object} response.Response "状态不允许/容量不足/并发冲突"
// @Router       /api/v1/orders/{reference}/transitions [post]
func (h *OrderHandler) RequestTransition(c *gin.Context) {
	target, ok := bindTarget(c)
	if !ok {
		return
	}
	if !customerTargets[target] {
		response.Error(c, apperrors.ErrForbidden.WithMessagef("顾客不能把订单设置为%s", target))
		return
	}

	reference := c.Param("reference")
	if !h.authorize(c, reference) {
		return
	}
	h.transition(c, reference, target)
}

// ListMyReservations 当前顾客的预留订单
// @Summary      我的预留订单
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=response.ListData}
// @Router       /api/v1/customers/me/reservations [get]
func (h *OrderHandler) ListMyReservations(c *gin.Context) {
	orders, err := h.query.ListReservationsByCustomer(c.Request.Context(), middleware.MustGetCustomerID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	list := make([]*dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		list = append(list, dto.NewOrderResponse(o))
	}
	response.SuccessWithList(c, list, len(list))
}

// RejectOrder 管理员拒绝订单
// @Summary      拒绝订单
// @Tags         管理
// @Produce      json
// @Security     BearerAuth
// @Param        reference path string true "订单号"
// @Success      200 {object} response.Response{data=dto.TransitionResponse}
// @Router       /api/v1/admin/orders/{reference}/reject [post]
func (h *OrderHandler) RejectOrder(c *gin.Context) {
	h.transition(c, c.Param("reference"), order.StatusRejected)
}

// SetStatus 管理员执行任意状态转换(仍受转换表约束)
// @Summary      设置订单状态
// @Tags         管理
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        reference path string true "订单号"
// @Param        request body dto.TransitionRequest true "目标状态"
// @Success      200 {object} response.Response{data=dto.TransitionResponse}
// @Router       /api/v1/admin/orders/{reference}/status [post]
func (h *OrderHandler) SetStatus(c *gin.Context) {
	target, ok := bindTarget(c)
	if !ok {
		return
	}
	h.transition(c, c.Param("reference"), target)
}

func (h *OrderHandler) transition(c *gin.Context, reference string, target order.Status) {
	result, err := h.engine.RequestTransition(c.Request.Context(), reference, target)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewTransitionResponse(result))
}

// authorize 订单已绑定顾客时，只有本人或管理员可以操作
func (h *OrderHandler) authorize(c *gin.Context, reference string) bool {
	view, err := h.query.Get(c.Request.Context(), reference)
	if err != nil {
		response.Error(c, err)
		return false
	}
	if !canAccess(c, view.Order) {
		response.Error(c, apperrors.ErrForbidden)
		return false
	}
	return true
}

func canAccess(c *gin.Context, o *order.Order) bool {
	if !o.HasOwner() || middleware.IsAdmin(c) {
		return true
	}
	return o.IsOwnedBy(middleware.GetCustomerID(c))
}

func bindTarget(c *gin.Context) (order.Status, bool) {
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
		return "", false
	}
	target, err := order.ParseStatus(req.Status)
	if err != nil {
		response.Error(c, err)
		return "", false
	}
	return target, true
}
