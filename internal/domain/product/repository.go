package product

import (
	"context"
)

// Repository 商品仓储接口
// 教学要点:
// 1. Sold/Reserved没有普通的Update入口,只能走下面三个原子操作
// 2. 原子操作在数据库中以条件UPDATE完成(检查与自增在同一条语句里),不存在先读后写的窗口
// 3. 通过context参与调用方的事务
type Repository interface {
	Create(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id uint) (*Product, error)
	FindByKey(ctx context.Context, key string) (*Product, error)

	// List 按ID顺序列出全部商品
	List(ctx context.Context) ([]*Product, error)

	// IncrementReserved reserved += units,前提sold+reserved+units<=maxSold
	IncrementReserved(ctx context.Context, id uint, units int) error

	// IncrementSold sold += units
	// fromReserved=true:同时reserved -= units(前提reserved>=units),容量不变
	// fromReserved=false:全新占用,前提sold+reserved+units<=maxSold
	IncrementSold(ctx context.Context, id uint, units int, fromReserved bool) error

	// SetCounters 管理员校正计数器,前提sold+reserved<=maxSold
	SetCounters(ctx context.Context, id uint, sold, reserved int) error
}
