package dto

import (
	"fmt"
	"time"

	apporder "github.com/xiebiao/eventtickets/internal/application/order"
	appticket "github.com/xiebiao/eventtickets/internal/application/ticket"
	"github.com/xiebiao/eventtickets/internal/domain/order"
)

// CreateOrderRequest HTTP下单请求
// products: 商品Key -> 数量，数量<=0的条目会被忽略
type CreateOrderRequest struct {
	Products map[string]int `json:"products" binding:"required"`
}

// UpdateOrderRequest 修改订单
// owner_id只有管理员可以指定，普通顾客总是绑定到自己
type UpdateOrderRequest struct {
	OwnerID       *uint   `json:"owner_id"`
	PaymentMethod *string `json:"payment_method"`
}

// TransitionRequest 请求状态转换
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// OrderProductResponse 订单明细
type OrderProductResponse struct {
	ProductKey string `json:"product_key"`
	UnitPrice  int64  `json:"unit_price"` // 单价(分)
	Quantity   int    `json:"quantity"`
	Subtotal   int64  `json:"subtotal"`
}

// OrderResponse 订单响应
type OrderResponse struct {
	Reference       string                 `json:"reference"`
	Status          string                 `json:"status"`
	OwnerID         uint                   `json:"owner_id,omitempty"`
	PaymentMethod   string                 `json:"payment_method,omitempty"`
	TotalAmount     int64                  `json:"total_amount"` // 总金额(分)
	TotalAmountText string                 `json:"total_amount_text"`
	PaidAt          string                 `json:"paid_at,omitempty"`
	Products        []OrderProductResponse `json:"products"`
	Tickets         []appticket.TicketItem `json:"tickets,omitempty"`
	NextStatuses    []string               `json:"next_statuses"` // 当前状态允许转换到的状态
	Version         int                    `json:"version"`
	CreatedAt       string                 `json:"created_at"`
	UpdatedAt       string                 `json:"updated_at"`
}

// TransitionResponse 状态转换结果
type TransitionResponse struct {
	Order    *OrderResponse `json:"order"`
	Previous string         `json:"previous"`
	Changed  bool           `json:"changed"`
	Notified bool           `json:"notified"` // false表示状态已生效但通知发送失败
}

// NewOrderResponse 构建订单响应
func NewOrderResponse(o *order.Order) *OrderResponse {
	resp := &OrderResponse{
		Reference:       o.PublicReference,
		Status:          string(o.Status),
		OwnerID:         o.OwnerID,
		PaymentMethod:   string(o.PaymentMethod),
		TotalAmount:     o.TotalAmount,
		TotalAmountText: FormatAmount(o.TotalAmount),
		Products:        make([]OrderProductResponse, 0, len(o.Products)),
		NextStatuses:    make([]string, 0),
		Version:         o.Version,
		CreatedAt:       o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       o.UpdatedAt.Format(time.RFC3339),
	}
	if o.PaidAt != nil {
		resp.PaidAt = o.PaidAt.Format(time.RFC3339)
	}
	for _, s := range order.AllowedTransitions(o.Status) {
		resp.NextStatuses = append(resp.NextStatuses, string(s))
	}
	for _, p := range o.Products {
		resp.Products = append(resp.Products, OrderProductResponse{
			ProductKey: p.ProductKey,
			UnitPrice:  p.UnitPrice,
			Quantity:   p.Quantity,
			Subtotal:   p.Subtotal(),
		})
	}
	return resp
}

// NewOrderViewResponse 订单及其门票
func NewOrderViewResponse(v *apporder.OrderView) *OrderResponse {
	resp := NewOrderResponse(v.Order)
	for _, t := range v.Tickets {
		resp.Tickets = append(resp.Tickets, *appticket.ToTicketItem(t))
	}
	return resp
}

// NewTransitionResponse 构建状态转换响应
func NewTransitionResponse(r *apporder.TransitionResult) *TransitionResponse {
	resp := &TransitionResponse{
		Order:    NewOrderResponse(r.Order),
		Previous: string(r.Previous),
		Changed:  r.Changed,
		Notified: r.NotifyErr == nil,
	}
	for _, t := range r.Tickets {
		resp.Order.Tickets = append(resp.Order.Tickets, *appticket.ToTicketItem(t))
	}
	return resp
}

// FormatAmount 格式化金额(分→元)
// 例如:2000分 → "20.00"
func FormatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
