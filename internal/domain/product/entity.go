package product

import (
	"time"
)

// Product 商品(可售门票种类)
// 设计说明:
// 1. Key是对外暴露的稳定标识,ID是内部自增主键
// 2. MaxSold为nil表示不限量
// 3. Sold与Reserved只能通过仓储的原子计数操作修改,实体上的值只是读出的快照
// 4. 价格使用int64存储"分"(避免浮点数精度问题)
type Product struct {
	ID          uint
	Key         string
	Title       string
	Description string
	Cost        int64 // 单价(分)
	MaxSold     *int  // 容量,nil=不限量
	Sold        int   // 已确认支付的件数
	Reserved    int   // 预留件数
	SellStart   *time.Time
	SellEnd     *time.Time
	MembersOnly bool // 仅限认证会员
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Availability 剩余可售数量
type Availability struct {
	Unlimited bool
	Units     int
}

// Available 剩余可售数量 = MaxSold - Sold - Reserved
// 只用于展示,是否能卖由Reserve/ConfirmSale的原子操作决定
func (p *Product) Available() Availability {
	if p.MaxSold == nil {
		return Availability{Unlimited: true}
	}
	left := *p.MaxSold - p.Sold - p.Reserved
	if left < 0 {
		left = 0
	}
	return Availability{Units: left}
}

// HasCapacityFor 按当前快照判断能否再占用units件
func (p *Product) HasCapacityFor(units int) bool {
	if p.MaxSold == nil {
		return true
	}
	return p.Sold+p.Reserved+units <= *p.MaxSold
}

// SoldOut 是否已售罄
func (p *Product) SoldOut() bool {
	return !p.HasCapacityFor(1)
}

// OnSale 当前时间是否在销售窗口内(边界为nil表示不限)
func (p *Product) OnSale(now time.Time) bool {
	if p.SellStart != nil && now.Before(*p.SellStart) {
		return false
	}
	if p.SellEnd != nil && now.After(*p.SellEnd) {
		return false
	}
	return true
}

// Progress 销售进度(百分比),不限量商品返回0
func (p *Product) Progress() float64 {
	if p.MaxSold == nil || *p.MaxSold == 0 {
		return 0
	}
	return float64(p.Sold) / float64(*p.MaxSold) * 100
}
