package order

import (
	"context"

	"github.com/xiebiao/eventtickets/internal/domain/customer"
	"github.com/xiebiao/eventtickets/internal/domain/order"
)

// UpdateOrderUseCase 修改订单的顾客和支付方式
// 总金额在写回前重新计算
type UpdateOrderUseCase struct {
	engine    *Engine
	customers customer.Directory
}

// NewUpdateOrderUseCase 创建修改订单用例
func NewUpdateOrderUseCase(engine *Engine, customers customer.Directory) *UpdateOrderUseCase {
	return &UpdateOrderUseCase{engine: engine, customers: customers}
}

// UpdateOrderRequest 修改订单请求，nil字段保持不变
type UpdateOrderRequest struct {
	Reference     string
	OwnerID       *uint
	PaymentMethod *order.PaymentMethod
}

// Execute 执行修改
// 新顾客先在顾客目录中确认存在，支付后门票归属于该顾客
func (uc *UpdateOrderUseCase) Execute(ctx context.Context, req UpdateOrderRequest) (*order.Order, error) {
	if req.Reference == "" {
		return nil, order.ErrOrderInvalid
	}
	if req.OwnerID != nil {
		if _, err := uc.customers.FindByID(ctx, *req.OwnerID); err != nil {
			return nil, err
		}
	}
	return uc.engine.Update(ctx, req.Reference, func(o *order.Order) error {
		if req.OwnerID != nil {
			o.AssignOwner(*req.OwnerID)
		}
		if req.PaymentMethod != nil {
			if err := o.SetPaymentMethod(*req.PaymentMethod); err != nil {
				return err
			}
		}
		return nil
	})
}
