package ticket

import (
	"context"
)

// Repository 门票仓储接口
// (product_id, unique_code)和key在存储层都有唯一索引
type Repository interface {
	CreateBatch(ctx context.Context, tickets []*Ticket) error
	FindByKey(ctx context.Context, key string) (*Ticket, error)
	ListByOrder(ctx context.Context, orderID uint) ([]*Ticket, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]*Ticket, error)
	CodeExists(ctx context.Context, productID uint, code string) (bool, error)

	// Invalidate 将OPEN且有效的门票置为无效,门票已无效时返回ErrNotTransferable
	Invalidate(ctx context.Context, id uint) error
}
