package messaging

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/eventtickets/internal/domain/order"
	"github.com/xiebiao/eventtickets/internal/domain/ticket"
	"github.com/xiebiao/eventtickets/pkg/metrics"
)

// 路由键
const (
	RoutingOrderConfirmed = "order.confirmed"
	RoutingOrderReserved  = "order.reserved"
)

// publisher *mq.Publisher满足此接口
type publisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// TicketMessage 确认消息中的门票
type TicketMessage struct {
	Key        string `json:"key"`
	ProductID  uint   `json:"product_id"`
	UniqueCode string `json:"unique_code"`
}

// OrderMessage 发给通知服务的订单消息
type OrderMessage struct {
	Reference   string          `json:"reference"`
	Status      string          `json:"status"`
	OwnerID     uint            `json:"owner_id"`
	TotalAmount int64           `json:"total_amount"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
	Tickets     []TicketMessage `json:"tickets,omitempty"`
}

// Notifier 通过RabbitMQ通知下游（邮件服务负责渲染和发送）
type Notifier struct {
	pub    publisher
	logger *zap.Logger
}

// NewNotifier 创建通知器
func NewNotifier(pub publisher, logger *zap.Logger) *Notifier {
	return &Notifier{pub: pub, logger: logger}
}

// OrderConfirmed 订单已支付，附带门票
func (n *Notifier) OrderConfirmed(ctx context.Context, o *order.Order, tickets []*ticket.Ticket) error {
	msg := newOrderMessage(o)
	for _, t := range tickets {
		msg.Tickets = append(msg.Tickets, TicketMessage{
			Key:        t.Key,
			ProductID:  t.ProductID,
			UniqueCode: t.UniqueCode,
		})
	}
	return n.publish(ctx, RoutingOrderConfirmed, msg)
}

// OrderReserved 订单已预留
func (n *Notifier) OrderReserved(ctx context.Context, o *order.Order) error {
	return n.publish(ctx, RoutingOrderReserved, newOrderMessage(o))
}

func (n *Notifier) publish(ctx context.Context, routingKey string, msg OrderMessage) error {
	err := n.pub.Publish(ctx, routingKey, msg)
	metrics.RecordPublish("rabbitmq", routingKey, err)
	if err != nil {
		return err
	}
	n.logger.Info("订单通知已发送", zap.String("routing_key", routingKey), zap.String("reference", msg.Reference))
	return nil
}

func newOrderMessage(o *order.Order) OrderMessage {
	return OrderMessage{
		Reference:   o.PublicReference,
		Status:      string(o.Status),
		OwnerID:     o.OwnerID,
		TotalAmount: o.TotalAmount,
		PaidAt:      o.PaidAt,
	}
}
