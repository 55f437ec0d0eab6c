package payment

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	apporder "github.com/xiebiao/eventtickets/internal/application/order"
	"github.com/xiebiao/eventtickets/internal/domain/customer"
	"github.com/xiebiao/eventtickets/internal/domain/order"
	"github.com/xiebiao/eventtickets/internal/domain/payment"
	apperrors "github.com/xiebiao/eventtickets/pkg/errors"
	"github.com/xiebiao/eventtickets/pkg/metrics"
	"github.com/xiebiao/eventtickets/pkg/tracing"
)

const tracerName = "payment-reconciler"

// Config 对账配置
type Config struct {
	ClientURI  string        // 本站对外地址，用于拼接支付回跳地址
	SessionTTL time.Duration // 支付会话缓存时间
}

// Reconciler 支付对账
// 教学要点:
// 1. 网关回调可能重复、乱序到达，同一订单的对账先拿Redis锁排队
// 2. 引擎锁定订单后发现已经是目标状态时直接返回(Changed=false)，重复的PAID不会重复出票
// 3. 其余情况一律交给状态机判断，过期的PENDING回调在PAID之后到达会被拒绝
// 4. 网关错误和状态机错误使用不同的错误码，调用方可以区分"网关不可用"和"转换非法"
type Reconciler struct {
	engine    *apporder.Engine
	orders    order.Repository
	gateway   payment.Gateway
	customers customer.Directory
	locker    Locker
	sessions  SessionCache
	cfg       Config
	logger    *zap.Logger
}

// NewReconciler 创建对账服务，locker和sessions可以为nil
func NewReconciler(
	engine *apporder.Engine,
	orders order.Repository,
	gateway payment.Gateway,
	customers customer.Directory,
	locker Locker,
	sessions SessionCache,
	cfg Config,
	logger *zap.Logger,
) *Reconciler {
	if locker == nil {
		locker = newLocalLocker()
	}
	if sessions == nil {
		sessions = noCache{}
	}
	return &Reconciler{
		engine:    engine,
		orders:    orders,
		gateway:   gateway,
		customers: customers,
		locker:    locker,
		sessions:  sessions,
		cfg:       cfg,
		logger:    logger,
	}
}

// Reconcile 把网关状态应用到订单
func (r *Reconciler) Reconcile(ctx context.Context, reference, gatewayStatus string) (*apporder.TransitionResult, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "Reconcile")
	span.SetAttributes(
		attribute.String("order.reference", reference),
		attribute.String("payment.status", gatewayStatus),
	)

	result, err := r.reconcile(ctx, reference, gatewayStatus)
	outcome := reconcileOutcome(result, err)
	metrics.RecordReconciliation(gatewayStatus, outcome)

	fields := []zap.Field{
		zap.String("order_reference", reference),
		zap.String("gateway_status", gatewayStatus),
		zap.String("outcome", outcome),
	}
	if err != nil {
		r.logger.Warn("支付对账失败", append(fields, zap.Error(err))...)
	} else {
		r.logger.Info("支付对账完成", fields...)
	}

	tracing.EndSpan(span, err)
	return result, err
}

func (r *Reconciler) reconcile(ctx context.Context, reference, gatewayStatus string) (*apporder.TransitionResult, error) {
	target, err := payment.MapGatewayStatus(gatewayStatus)
	if err != nil {
		return nil, err
	}

	unlock, err := r.locker.Lock(ctx, reference)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// 同状态判断在引擎的订单锁内完成，未持有分布式锁时重复回调也是无操作
	result, err := r.engine.SyncStatus(ctx, reference, target)
	if err != nil {
		if !errors.Is(err, apperrors.ErrConflictingUpdate) {
			return nil, err
		}
		// 另一个请求抢先完成了同样的转换
		latest, findErr := r.orders.FindByReference(ctx, reference)
		if findErr == nil && latest.Status == target {
			return unchanged(latest), nil
		}
		return nil, err
	}

	if target != order.StatusPending {
		// 会话已经结束，不能再复用
		if err := r.sessions.DeleteCheckout(ctx, reference); err != nil {
			r.logger.Warn("清除支付会话缓存失败", zap.String("order_reference", reference), zap.Error(err))
		}
	}
	return result, nil
}

// ReconcileFromGateway 主动向网关查询订单的支付状态并对账
func (r *Reconciler) ReconcileFromGateway(ctx context.Context, reference string) (*apporder.TransitionResult, error) {
	o, err := r.orders.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if o.ExternalPaymentReference == "" {
		return nil, order.ErrPaymentReferenceMissing.WithMessagef("订单%s尚未创建支付会话", reference)
	}

	status, err := r.gateway.FetchStatus(ctx, o.ExternalPaymentReference)
	if err != nil {
		return nil, err
	}
	return r.Reconcile(ctx, reference, status)
}

// ReconcileByPaymentReference 处理网关回调:按网关会话号找到订单，再向网关查询状态
// 回调内容本身不可信，只当作"状态可能有变化"的通知
func (r *Reconciler) ReconcileByPaymentReference(ctx context.Context, paymentReference string) (*apporder.TransitionResult, error) {
	o, err := r.orders.FindByExternalPaymentReference(ctx, paymentReference)
	if err != nil {
		return nil, err
	}

	status, err := r.gateway.FetchStatus(ctx, paymentReference)
	if err != nil {
		return nil, err
	}
	return r.Reconcile(ctx, o.PublicReference, status)
}

// CreatePaymentSession 为订单创建支付会话
// 流程:
// 1. 订单仍在PENDING且缓存命中时直接返回，重复点击不会在网关重复下单
// 2. 订单转换到PENDING并提交(重新进入ASSIGNED时旧会话号已清除)
// 3. 调用网关创建会话(不在数据库事务内)
// 4. 把网关会话号写回订单，每个会话只写一次
func (r *Reconciler) CreatePaymentSession(ctx context.Context, reference string) (*payment.Session, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "CreatePaymentSession")
	span.SetAttributes(attribute.String("order.reference", reference))

	session, err := r.createPaymentSession(ctx, reference)
	tracing.EndSpan(span, err)
	return session, err
}

func (r *Reconciler) createPaymentSession(ctx context.Context, reference string) (*payment.Session, error) {
	unlock, err := r.locker.Lock(ctx, reference)
	if err != nil {
		return nil, err
	}
	defer unlock()

	o, err := r.orders.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	// 缓存只在订单仍处于PENDING且会话号一致时有效，重新指派的订单需要新会话
	cached, err := r.sessions.GetCheckout(ctx, reference)
	if err != nil {
		r.logger.Warn("读取支付会话缓存失败", zap.String("order_reference", reference), zap.Error(err))
	} else if cached != nil {
		if o.Status == order.StatusPending && cached.PublicReference == o.ExternalPaymentReference {
			return cached, nil
		}
		if err := r.sessions.DeleteCheckout(ctx, reference); err != nil {
			r.logger.Warn("清除支付会话缓存失败", zap.String("order_reference", reference), zap.Error(err))
		}
	}

	if !o.HasOwner() {
		return nil, order.ErrOwnerRequired.WithMessagef("订单%s未绑定顾客，不能支付", reference)
	}
	if o.Status == order.StatusPending && o.ExternalPaymentReference != "" {
		return nil, order.ErrPaymentReferenceAlreadySet.WithMessagef("订单%s已关联支付会话%s", reference, o.ExternalPaymentReference)
	}

	owner, err := r.customers.FindByID(ctx, o.OwnerID)
	if err != nil {
		return nil, err
	}

	if o.Status != order.StatusPending {
		result, err := r.engine.RequestTransition(ctx, reference, order.StatusPending)
		if err != nil {
			return nil, err
		}
		o = result.Order
	}

	session, err := r.gateway.CreateSession(ctx, payment.BuildSessionRequest(o, owner.Name, owner.Email, r.cfg.ClientURI))
	if err != nil {
		return nil, err
	}

	if _, err := r.engine.Update(ctx, reference, func(o *order.Order) error {
		return o.AttachPaymentReference(session.PublicReference)
	}); err != nil {
		r.logger.Error("保存支付会话号失败",
			zap.String("order_reference", reference),
			zap.String("payment_reference", session.PublicReference),
			zap.Error(err),
		)
		return nil, err
	}

	if err := r.sessions.SaveCheckout(ctx, reference, session, r.cfg.SessionTTL); err != nil {
		r.logger.Warn("缓存支付会话失败", zap.String("order_reference", reference), zap.Error(err))
	}

	r.logger.Info("支付会话已创建",
		zap.String("order_reference", reference),
		zap.String("payment_reference", session.PublicReference),
	)
	return session, nil
}

func unchanged(o *order.Order) *apporder.TransitionResult {
	return &apporder.TransitionResult{Order: o, Previous: o.Status, Changed: false}
}

func reconcileOutcome(result *apporder.TransitionResult, err error) string {
	switch {
	case err == nil && result.Changed:
		return "applied"
	case err == nil:
		return "noop"
	case errors.Is(err, apperrors.ErrUnknownPaymentStatus):
		return "unknown_status"
	case errors.Is(err, apperrors.ErrInvalidState):
		return "rejected"
	case errors.Is(err, apperrors.ErrConflictingUpdate):
		return "conflict"
	default:
		return "failed"
	}
}
