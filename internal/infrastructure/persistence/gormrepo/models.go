package gormrepo

import (
	"time"
)

// CustomerModel 顾客模型（外部目录同步过来的只读副本）
type CustomerModel struct {
	ID             uint      `gorm:"primaryKey"`
	Name           string    `gorm:"size:100;not null;comment:姓名"`
	Email          string    `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	VerifiedMember bool      `gorm:"not null;comment:是否认证会员"`
	Admin          bool      `gorm:"not null;comment:是否管理员"`
	CreatedAt      time.Time `gorm:"comment:创建时间"`
	UpdatedAt      time.Time `gorm:"comment:更新时间"`
}

func (CustomerModel) TableName() string {
	return "customers"
}

// ProductModel 商品模型
// 设计说明:
// 1. 价格使用int64存储"分"为单位
// 2. max_sold允许NULL(不限量)
// 3. key是MySQL保留字,列名使用product_key
type ProductModel struct {
	ID          uint       `gorm:"primaryKey"`
	Key         string     `gorm:"column:product_key;uniqueIndex;size:36;not null;comment:对外标识"`
	Title       string     `gorm:"size:200;not null;comment:名称"`
	Description string     `gorm:"type:text;comment:描述"`
	Cost        int64      `gorm:"not null;comment:单价(分)"`
	MaxSold     *int       `gorm:"comment:容量,NULL表示不限量"`
	Sold        int        `gorm:"not null;default:0;comment:已售"`
	Reserved    int        `gorm:"not null;default:0;comment:预留"`
	SellStart   *time.Time `gorm:"comment:开售时间"`
	SellEnd     *time.Time `gorm:"comment:停售时间"`
	MembersOnly bool       `gorm:"not null;comment:仅限认证会员"`
	CreatedAt   time.Time  `gorm:"comment:创建时间"`
	UpdatedAt   time.Time  `gorm:"comment:更新时间"`
}

func (ProductModel) TableName() string {
	return "products"
}

// OrderModel 订单模型
// 教学要点:
// 1. 与OrderProductModel是一对多关系,删除订单级联删除明细
// 2. public_reference有唯一索引(业务主键)
// 3. version用于比较并交换
type OrderModel struct {
	ID                       uint                `gorm:"primaryKey"`
	PublicReference          string              `gorm:"uniqueIndex;size:36;not null;comment:对外订单号"`
	Status                   string              `gorm:"index;size:16;not null;comment:订单状态"`
	OwnerID                  uint                `gorm:"index;comment:顾客ID,0表示未绑定"`
	PaymentMethod            string              `gorm:"size:16;comment:支付方式"`
	TotalAmount              int64               `gorm:"not null;comment:订单总金额(分)"`
	PaidAt                   *time.Time          `gorm:"comment:支付时间"`
	ExternalPaymentReference string              `gorm:"index;size:64;comment:支付网关会话号"`
	Version                  int                 `gorm:"not null;default:0;comment:乐观锁版本"`
	Products                 []OrderProductModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt                time.Time           `gorm:"index;comment:创建时间"`
	UpdatedAt                time.Time           `gorm:"comment:更新时间"`
}

func (OrderModel) TableName() string {
	return "orders"
}

// OrderProductModel 订单明细模型
type OrderProductModel struct {
	ID         uint   `gorm:"primaryKey"`
	OrderID    uint   `gorm:"uniqueIndex:idx_order_product;not null;comment:订单ID"`
	ProductID  uint   `gorm:"uniqueIndex:idx_order_product;index;not null;comment:商品ID"`
	ProductKey string `gorm:"size:36;not null;comment:商品对外标识快照"`
	UnitPrice  int64  `gorm:"not null;comment:下单时单价(分)"`
	Quantity   int    `gorm:"not null;comment:数量"`
}

func (OrderProductModel) TableName() string {
	return "order_products"
}

// TicketModel 门票模型
// (product_id, unique_code)唯一:检票码在同一商品内唯一
type TicketModel struct {
	ID         uint      `gorm:"primaryKey"`
	Key        string    `gorm:"column:ticket_key;uniqueIndex;size:26;not null;comment:门票标识"`
	OrderID    uint      `gorm:"index;not null;comment:订单ID"`
	OwnerID    uint      `gorm:"index;not null;comment:持有人"`
	ProductID  uint      `gorm:"uniqueIndex:idx_product_code;not null;comment:商品ID"`
	UniqueCode string    `gorm:"uniqueIndex:idx_product_code;size:16;not null;comment:检票码"`
	Status     string    `gorm:"size:16;not null;comment:状态"`
	Valid      bool      `gorm:"not null;comment:是否有效"`
	CreatedAt  time.Time `gorm:"comment:创建时间"`
}

func (TicketModel) TableName() string {
	return "tickets"
}
