package product

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/eventtickets/internal/domain/product"
)

// AdjustCountersUseCase 管理员校正已售/预留数量
// 校正后仍须满足sold+reserved<=max_sold，由仓储的条件更新保证
type AdjustCountersUseCase struct {
	products product.Service
	logger   *zap.Logger
}

// NewAdjustCountersUseCase 创建校正用例
func NewAdjustCountersUseCase(products product.Service, logger *zap.Logger) *AdjustCountersUseCase {
	return &AdjustCountersUseCase{products: products, logger: logger}
}

// AdjustCountersRequest 校正请求
type AdjustCountersRequest struct {
	Key      string
	Sold     int
	Reserved int
	AdminID  uint
}

// Execute 执行校正
func (uc *AdjustCountersUseCase) Execute(ctx context.Context, req AdjustCountersRequest) (*ProductItem, error) {
	p, err := uc.products.CorrectCounters(ctx, req.Key, req.Sold, req.Reserved)
	if err != nil {
		return nil, err
	}

	uc.logger.Warn("商品计数已被管理员校正",
		zap.String("product_key", p.Key),
		zap.Int("sold", p.Sold),
		zap.Int("reserved", p.Reserved),
		zap.Uint("admin_id", req.AdminID),
	)
	return toProductItem(p), nil
}
