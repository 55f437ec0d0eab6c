package order

import (
	"context"

	"github.com/xiebiao/eventtickets/internal/domain/order"
	"github.com/xiebiao/eventtickets/internal/domain/ticket"
)

// QueryService 订单查询
type QueryService struct {
	orders  order.Repository
	tickets ticket.Repository
}

// NewQueryService 创建订单查询服务
func NewQueryService(orders order.Repository, tickets ticket.Repository) *QueryService {
	return &QueryService{orders: orders, tickets: tickets}
}

// OrderView 订单及其门票
type OrderView struct {
	Order   *order.Order
	Tickets []*ticket.Ticket
}

// Get 按订单号查询
func (q *QueryService) Get(ctx context.Context, reference string) (*OrderView, error) {
	o, err := q.orders.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	view := &OrderView{Order: o}
	if o.Status == order.StatusPaid {
		tickets, err := q.tickets.ListByOrder(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		view.Tickets = tickets
	}
	return view, nil
}

// ListReservationsByCustomer 顾客名下处于RESERVATION的订单
func (q *QueryService) ListReservationsByCustomer(ctx context.Context, customerID uint) ([]*order.Order, error) {
	return q.orders.ListByOwnerAndStatus(ctx, customerID, order.StatusReservation)
}
