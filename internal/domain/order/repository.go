package order

import (
	"context"
)

// Repository 订单仓储接口(依赖倒置原则)
// 教学要点:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 支持事务操作(通过context传递事务)
// 3. 明细随订单一起保存、一起加载,不单独暴露明细仓储
type Repository interface {
	// Create 创建订单(包含订单明细)
	Create(ctx context.Context, order *Order) error

	// FindByReference 根据对外订单号查找订单(包含明细)
	FindByReference(ctx context.Context, reference string) (*Order, error)

	// LockByReference 在当前事务中锁定订单行(SELECT ... FOR UPDATE)
	// 锁等待超时返回ConflictingUpdate
	LockByReference(ctx context.Context, reference string) (*Order, error)

	// FindByExternalPaymentReference 根据支付网关会话号查找订单
	FindByExternalPaymentReference(ctx context.Context, reference string) (*Order, error)

	// Update 保存订单的可变字段,以Version做比较并交换
	// 版本不一致返回ConflictingUpdate,成功后order.Version加1
	Update(ctx context.Context, order *Order) error

	// ListByOwnerAndStatus 查询顾客处于指定状态的订单
	ListByOwnerAndStatus(ctx context.Context, ownerID uint, status Status) ([]*Order, error)
}
