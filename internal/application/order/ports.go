package order

import (
	"context"

	"github.com/xiebiao/eventtickets/internal/domain/order"
	"github.com/xiebiao/eventtickets/internal/domain/ticket"
)

// TxManager 事务管理器
// gormrepo.TxManager实现此接口，fn内的仓储调用共享同一事务
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier 订单通知（邮件等），在事务提交后调用
type Notifier interface {
	OrderConfirmed(ctx context.Context, o *order.Order, tickets []*ticket.Ticket) error
	OrderReserved(ctx context.Context, o *order.Order) error
}

// EventPublisher 订单事件发布，在事务提交后调用
type EventPublisher interface {
	StatusChanged(ctx context.Context, e order.StatusChanged) error
}

// NopNotifier 不发送任何通知
type NopNotifier struct{}

func (NopNotifier) OrderConfirmed(context.Context, *order.Order, []*ticket.Ticket) error { return nil }
func (NopNotifier) OrderReserved(context.Context, *order.Order) error                    { return nil }

// NopEventPublisher 不发布任何事件
type NopEventPublisher struct{}

func (NopEventPublisher) StatusChanged(context.Context, order.StatusChanged) error { return nil }
