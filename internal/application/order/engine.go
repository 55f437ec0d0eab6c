package order

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/eventtickets/internal/domain/order"
	"github.com/xiebiao/eventtickets/internal/domain/product"
	"github.com/xiebiao/eventtickets/internal/domain/ticket"
	apperrors "github.com/xiebiao/eventtickets/pkg/errors"
	"github.com/xiebiao/eventtickets/pkg/metrics"
	"github.com/xiebiao/eventtickets/pkg/tracing"
)

const tracerName = "order-engine"

// TransitionResult 一次状态转换的结果
type TransitionResult struct {
	Order    *order.Order
	Previous order.Status
	Tickets  []*ticket.Ticket

	// Changed=false表示请求的状态与当前状态相同，没有做任何事
	Changed bool

	// NotifyErr 事务提交后通知/事件发布的错误，状态转换本身已经生效
	NotifyErr error
}

// Engine 订单生命周期引擎
// 教学要点:
// 1. 所有状态转换都经过RequestTransition，检查转换表后在同一事务中完成副作用
// 2. 进入RESERVATION时逐个商品预留；进入PAID时确认售出，然后出票(幂等)
// 3. 订单行先SELECT ... FOR UPDATE锁定，写回时再比较version，同一订单的并发请求只有一个能成功
// 4. 通知和事件在事务提交之后发送，失败不回滚
type Engine struct {
	orders   order.Repository
	inv      product.Service
	issuer   *ticket.Issuer
	tx       TxManager
	notifier Notifier
	events   EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewEngine 创建订单引擎
func NewEngine(
	orders order.Repository,
	inv product.Service,
	issuer *ticket.Issuer,
	tx TxManager,
	notifier Notifier,
	events EventPublisher,
	logger *zap.Logger,
) *Engine {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if events == nil {
		events = NopEventPublisher{}
	}
	return &Engine{
		orders:   orders,
		inv:      inv,
		issuer:   issuer,
		tx:       tx,
		notifier: notifier,
		events:   events,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RequestTransition 请求把订单转换到target状态
// 非法转换返回InvalidState，订单、库存、门票都保持不变
func (e *Engine) RequestTransition(ctx context.Context, reference string, target order.Status) (*TransitionResult, error) {
	return e.transition(ctx, "RequestTransition", reference, target, false)
}

// SyncStatus 把订单同步到外部系统报告的状态
// 与RequestTransition的区别：锁定订单后如果状态已经是target，直接返回Changed=false，
// 用于重复到达的网关回调
func (e *Engine) SyncStatus(ctx context.Context, reference string, target order.Status) (*TransitionResult, error) {
	return e.transition(ctx, "SyncStatus", reference, target, true)
}

func (e *Engine) transition(ctx context.Context, spanName, reference string, target order.Status, sameIsNoop bool) (*TransitionResult, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, spanName)
	span.SetAttributes(
		attribute.String("order.reference", reference),
		attribute.String("order.target", string(target)),
	)

	start := time.Now()
	result := &TransitionResult{}

	err := e.tx.Transaction(ctx, func(txCtx context.Context) error {
		o, err := e.orders.LockByReference(txCtx, reference)
		if err != nil {
			return err
		}
		result.Order = o
		result.Previous = o.Status

		if sameIsNoop && o.Status == target {
			return nil
		}
		result.Changed = true

		// 先在内存中完成转换检查，检查不通过时不产生任何副作用
		if err := o.TransitionTo(target, e.now()); err != nil {
			return err
		}

		switch target {
		case order.StatusReservation:
			if err := e.reserve(txCtx, o); err != nil {
				return err
			}
		case order.StatusPaid:
			tickets, err := e.confirmSale(txCtx, o, result.Previous == order.StatusReservation)
			if err != nil {
				return err
			}
			result.Tickets = tickets
		}

		return e.orders.Update(txCtx, o)
	})

	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordTransition(string(result.Previous), string(target), transitionOutcome(err), elapsed)
		e.logger.Warn("订单状态转换失败",
			zap.String("reference", reference),
			zap.String("from", string(result.Previous)),
			zap.String("to", string(target)),
			zap.String("trace_id", tracing.ExtractTraceID(ctx)),
			zap.Error(err),
		)
		tracing.EndSpan(span, err)
		return nil, err
	}

	if !result.Changed {
		metrics.RecordTransition(string(result.Previous), string(target), "noop", elapsed)
		tracing.EndSpan(span, nil)
		return result, nil
	}

	metrics.RecordTransition(string(result.Previous), string(target), "applied", elapsed)
	e.logger.Info("订单状态已转换",
		zap.String("reference", reference),
		zap.String("from", string(result.Previous)),
		zap.String("to", string(target)),
		zap.Int("tickets", len(result.Tickets)),
		zap.Duration("elapsed", elapsed),
	)

	result.NotifyErr = e.afterCommit(ctx, result)
	tracing.EndSpan(span, nil)
	return result, nil
}

// Update 在订单锁内修改非状态字段(顾客、支付方式、网关会话号)
func (e *Engine) Update(ctx context.Context, reference string, mutate func(o *order.Order) error) (*order.Order, error) {
	var updated *order.Order
	err := e.tx.Transaction(ctx, func(txCtx context.Context) error {
		o, err := e.orders.LockByReference(txCtx, reference)
		if err != nil {
			return err
		}
		status := o.Status
		if err := mutate(o); err != nil {
			return err
		}
		if o.Status != status {
			// 状态只能通过RequestTransition修改
			return order.ErrInvalidStatusTransition.WithMessagef("订单%s的状态只能通过状态转换修改", reference)
		}
		o.RecalculateTotal()
		o.UpdatedAt = e.now()
		if err := e.orders.Update(txCtx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// reserve 进入RESERVATION:每个商品预留对应件数
func (e *Engine) reserve(ctx context.Context, o *order.Order) error {
	for _, line := range o.Products {
		if err := e.inv.Reserve(ctx, line.ProductID, line.Quantity); err != nil {
			if errors.Is(err, apperrors.ErrCapacityExceeded) {
				metrics.RecordCapacityRejection("reserve")
			}
			return err
		}
	}
	return nil
}

// confirmSale 进入PAID:确认售出并出票
// fromReserved=true时件数从预留转为已售，否则按新占用检查容量
func (e *Engine) confirmSale(ctx context.Context, o *order.Order, fromReserved bool) ([]*ticket.Ticket, error) {
	lines := make([]ticket.IssueLine, 0, len(o.Products))
	for _, line := range o.Products {
		if err := e.inv.ConfirmSale(ctx, line.ProductID, line.Quantity, fromReserved); err != nil {
			if errors.Is(err, apperrors.ErrCapacityExceeded) {
				metrics.RecordCapacityRejection("confirm")
			}
			return nil, err
		}
		lines = append(lines, ticket.IssueLine{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	tickets, created, err := e.issuer.IssueForOrder(ctx, ticket.IssueRequest{
		OrderID: o.ID,
		OwnerID: o.OwnerID,
		Lines:   lines,
	})
	if err != nil {
		return nil, err
	}
	if created {
		metrics.RecordTicketsIssued(len(tickets))
	}
	return tickets, nil
}

// afterCommit 事务提交后的通知和事件，错误只记录并返回给调用方
func (e *Engine) afterCommit(ctx context.Context, r *TransitionResult) error {
	var errs []error

	switch r.Order.Status {
	case order.StatusPaid:
		if err := e.notifier.OrderConfirmed(ctx, r.Order, r.Tickets); err != nil {
			errs = append(errs, err)
		}
	case order.StatusReservation:
		if err := e.notifier.OrderReserved(ctx, r.Order); err != nil {
			errs = append(errs, err)
		}
	}

	if err := e.events.StatusChanged(ctx, order.NewStatusChanged(r.Order, r.Previous)); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return nil
	}
	err := errors.Join(errs...)
	e.logger.Error("订单通知发送失败(状态转换已生效)",
		zap.String("reference", r.Order.PublicReference),
		zap.String("status", string(r.Order.Status)),
		zap.Error(err),
	)
	return err
}

func transitionOutcome(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInvalidState):
		return "rejected"
	case errors.Is(err, apperrors.ErrCapacityExceeded):
		return "capacity"
	case errors.Is(err, apperrors.ErrConflictingUpdate):
		return "conflict"
	default:
		return "failed"
	}
}
