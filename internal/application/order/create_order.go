package order

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/eventtickets/internal/domain/order"
	"github.com/xiebiao/eventtickets/internal/domain/product"
	"github.com/xiebiao/eventtickets/pkg/metrics"
)

// CreateOrderUseCase 创建订单用例
// 教学要点:
// 1. 新订单一律从ANONYMOUS开始，不做任何库存操作
// 2. 单价取自商品当前价格(快照)，不信任客户端传入的价格
// 3. 数量<=0的条目直接忽略，忽略后为空则拒绝
type CreateOrderUseCase struct {
	orders   order.Repository
	products product.Service
	logger   *zap.Logger
	now      func() time.Time
}

// NewCreateOrderUseCase 创建下单用例
func NewCreateOrderUseCase(orders order.Repository, products product.Service, logger *zap.Logger) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		orders:   orders,
		products: products,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	Quantities map[string]int // 商品Key -> 数量
}

// Execute 执行下单用例
func (uc *CreateOrderUseCase) Execute(ctx context.Context, req CreateOrderRequest) (*order.Order, error) {
	// map遍历无序，按Key排序保证明细顺序稳定
	keys := make([]string, 0, len(req.Quantities))
	for key, qty := range req.Quantities {
		if qty > 0 {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil, order.ErrEmptyOrder
	}
	sort.Strings(keys)

	o := order.NewOrder(order.GenerateReference(), uc.now())
	for _, key := range keys {
		p, err := uc.products.GetByKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if err := o.AddProduct(p.ID, p.Key, p.Cost, req.Quantities[key]); err != nil {
			return nil, err
		}
	}

	if err := uc.orders.Create(ctx, o); err != nil {
		return nil, err
	}

	metrics.RecordOrderCreated()
	uc.logger.Info("订单已创建",
		zap.String("reference", o.PublicReference),
		zap.Int("units", o.TotalUnits()),
		zap.Int64("total_amount", o.TotalAmount),
	)
	return o, nil
}
