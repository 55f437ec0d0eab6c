package product

import (
	"context"
	"time"

	"github.com/xiebiao/eventtickets/internal/domain/product"
)

// PublishProductUseCase 商品上架用例(管理员)
// 设计说明:
// 1. 参数校验由领域服务负责(价格、容量、销售窗口)
// 2. 商品Key由领域服务生成，调用方不能指定
type PublishProductUseCase struct {
	products product.Service
}

// NewPublishProductUseCase 创建上架用例
func NewPublishProductUseCase(products product.Service) *PublishProductUseCase {
	return &PublishProductUseCase{products: products}
}

// PublishProductRequest 上架请求DTO
type PublishProductRequest struct {
	Title       string
	Description string
	Cost        int64 // 单价(分)
	MaxSold     *int  // 容量，nil表示不限量
	SellStart   *time.Time
	SellEnd     *time.Time
	MembersOnly bool
}

// Execute 执行上架用例
func (uc *PublishProductUseCase) Execute(ctx context.Context, req PublishProductRequest) (*ProductItem, error) {
	p, err := uc.products.Publish(ctx, product.PublishParams{
		Title:       req.Title,
		Description: req.Description,
		Cost:        req.Cost,
		MaxSold:     req.MaxSold,
		SellStart:   req.SellStart,
		SellEnd:     req.SellEnd,
		MembersOnly: req.MembersOnly,
	})
	if err != nil {
		return nil, err
	}
	return toProductItem(p), nil
}
