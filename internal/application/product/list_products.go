package product

import (
	"context"
	"time"

	"github.com/xiebiao/eventtickets/internal/domain/product"
)

// ListProductsUseCase 在售商品列表
// 只返回在销售窗口内且仍有余量的商品
type ListProductsUseCase struct {
	products product.Service
	now      func() time.Time
}

// NewListProductsUseCase 创建列表查询用例
func NewListProductsUseCase(products product.Service) *ListProductsUseCase {
	return &ListProductsUseCase{
		products: products,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ProductItem 商品DTO
type ProductItem struct {
	Key         string  `json:"key"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Cost        int64   `json:"cost"` // 单价(分)
	MaxSold     *int    `json:"max_sold"`
	Sold        int     `json:"sold"`
	Reserved    int     `json:"reserved"`
	Available   *int    `json:"available"` // nil表示不限量
	Progress    float64 `json:"progress"`
	MembersOnly bool    `json:"members_only"`
	SellStart   *string `json:"sell_start,omitempty"`
	SellEnd     *string `json:"sell_end,omitempty"`
}

// Execute 执行查询
func (uc *ListProductsUseCase) Execute(ctx context.Context) ([]ProductItem, error) {
	products, err := uc.products.ListAvailable(ctx, uc.now())
	if err != nil {
		return nil, err
	}

	items := make([]ProductItem, 0, len(products))
	for _, p := range products {
		items = append(items, *toProductItem(p))
	}
	return items, nil
}

func toProductItem(p *product.Product) *ProductItem {
	item := &ProductItem{
		Key:         p.Key,
		Title:       p.Title,
		Description: p.Description,
		Cost:        p.Cost,
		MaxSold:     p.MaxSold,
		Sold:        p.Sold,
		Reserved:    p.Reserved,
		Progress:    p.Progress(),
		MembersOnly: p.MembersOnly,
		SellStart:   formatTime(p.SellStart),
		SellEnd:     formatTime(p.SellEnd),
	}
	if a := p.Available(); !a.Unlimited {
		units := a.Units
		item.Available = &units
	}
	return item
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
