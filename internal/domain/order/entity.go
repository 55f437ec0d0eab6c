package order

import (
	"time"
)

// Status 订单状态
// 教学要点:
// 1. 使用string而非int,与支付网关、事件消息中的取值保持一致,日志里也直接可读
// 2. 所有合法取值集中在下面的常量中,未知取值视为非法
type Status string

const (
	StatusAnonymous   Status = "ANONYMOUS"   // 新建购物车,尚未绑定顾客
	StatusAssigned    Status = "ASSIGNED"    // 已绑定顾客
	StatusPending     Status = "PENDING"     // 等待支付网关确认
	StatusReservation Status = "RESERVATION" // 预留(非即时支付方式)
	StatusPaid        Status = "PAID"        // 已支付
	StatusCancelled   Status = "CANCELLED"   // 已取消(可重新绑定)
	StatusRejected    Status = "REJECTED"    // 管理员拒绝(终态)
	StatusExpired     Status = "EXPIRED"     // 已过期(终态)
	StatusError       Status = "ERROR"       // 支付异常(终态)
)

// transitions 状态转换表(邻接表)
// 教学要点:
// 1. 状态机只由这一张表决定,代码中不再出现分支判断
// 2. CANCELLED→ASSIGNED、CANCELLED→CANCELLED两条边保留原样
// 3. 没有出边的状态即终态
var transitions = map[Status][]Status{
	StatusAnonymous:   {StatusAssigned, StatusCancelled},
	StatusAssigned:    {StatusPending, StatusCancelled, StatusReservation},
	StatusCancelled:   {StatusAssigned, StatusCancelled},
	StatusPending:     {StatusPaid, StatusPending, StatusAssigned, StatusError, StatusCancelled, StatusExpired},
	StatusReservation: {StatusPaid, StatusExpired, StatusRejected},
	StatusPaid:        {StatusRejected},
	StatusError:       {},
	StatusRejected:    {},
	StatusExpired:     {},
}

// AllStatuses 返回全部状态(顺序固定,便于测试遍历)
func AllStatuses() []Status {
	return []Status{
		StatusAnonymous, StatusAssigned, StatusPending, StatusReservation, StatusPaid,
		StatusCancelled, StatusRejected, StatusExpired, StatusError,
	}
}

// ParseStatus 将外部输入转换为Status
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.Valid() {
		return "", ErrUnknownStatus.WithMessagef("未知的订单状态: %q", s)
	}
	return status, nil
}

// Valid 是否为已定义的状态
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal 终态没有任何出边
func (s Status) IsTerminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// AllowedTransitions 返回from状态允许转换到的状态(副本)
func AllowedTransitions(from Status) []Status {
	allowed := transitions[from]
	out := make([]Status, len(allowed))
	copy(out, allowed)
	return out
}

// CanTransition 检查from→to是否在状态转换表中
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// PaymentMethod 支付方式
type PaymentMethod string

const (
	PaymentMethodIDEAL      PaymentMethod = "IDEAL"
	PaymentMethodCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentMethodSofort     PaymentMethod = "SOFORT"
	PaymentMethodCash       PaymentMethod = "CASH"
	PaymentMethodOther      PaymentMethod = "OTHER"
)

// Valid 是否为已定义的支付方式(空值表示尚未选择,也视为合法)
func (m PaymentMethod) Valid() bool {
	switch m {
	case "", PaymentMethodIDEAL, PaymentMethodCreditCard, PaymentMethodSofort, PaymentMethodCash, PaymentMethodOther:
		return true
	default:
		return false
	}
}

// Order 订单实体(聚合根)
// 教学要点:
// 1. Order是聚合根,OrderProduct是子实体,明细的任何修改都必须经过Order的方法
// 2. PublicReference是对外暴露的订单号,创建时分配一次,永不复用
// 3. TotalAmount冗余存储,但每次修改明细后都由RecalculateTotal重新计算
// 4. Version用于乐观并发控制(比较并交换),每次成功写入加1
type Order struct {
	ID                       uint
	PublicReference          string
	Status                   Status
	OwnerID                  uint // 0表示尚未绑定顾客
	PaymentMethod            PaymentMethod
	TotalAmount              int64      // 订单总金额(分)
	PaidAt                   *time.Time // 进入PAID时设置,只设置一次
	ExternalPaymentReference string     // 支付网关会话号,只设置一次
	Products                 []OrderProduct
	Version                  int
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// OrderProduct 订单明细项
// 教学要点:
// 1. UnitPrice是下单时的价格快照,订单离开ANONYMOUS后不可再变
// 2. ProductKey同样是快照,创建支付会话时按件展开
type OrderProduct struct {
	ID         uint
	OrderID    uint
	ProductID  uint
	ProductKey string
	UnitPrice  int64 // 下单时单价(分)
	Quantity   int
}

// Subtotal 明细小计
func (p OrderProduct) Subtotal() int64 {
	return p.UnitPrice * int64(p.Quantity)
}

// NewOrder 创建新订单(工厂方法)
// 初始状态固定为ANONYMOUS
func NewOrder(reference string, now time.Time) *Order {
	return &Order{
		PublicReference: reference,
		Status:          StatusAnonymous,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// AddProduct 添加明细(同一商品合并数量)
func (o *Order) AddProduct(productID uint, productKey string, unitPrice int64, quantity int) error {
	if o.Status != StatusAnonymous {
		return ErrLineItemsFrozen
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	for i := range o.Products {
		if o.Products[i].ProductID == productID {
			o.Products[i].Quantity += quantity
			o.RecalculateTotal()
			return nil
		}
	}
	o.Products = append(o.Products, OrderProduct{
		OrderID:    o.ID,
		ProductID:  productID,
		ProductKey: productKey,
		UnitPrice:  unitPrice,
		Quantity:   quantity,
	})
	o.RecalculateTotal()
	return nil
}

// CalculateTotal 根据明细实时计算订单总金额
func (o *Order) CalculateTotal() int64 {
	var total int64
	for _, p := range o.Products {
		total += p.Subtotal()
	}
	return total
}

// RecalculateTotal 用明细重新计算并写回TotalAmount
func (o *Order) RecalculateTotal() {
	o.TotalAmount = o.CalculateTotal()
}

// TotalUnits 订单包含的总件数
func (o *Order) TotalUnits() int {
	units := 0
	for _, p := range o.Products {
		units += p.Quantity
	}
	return units
}

// HasOwner 是否已绑定顾客
func (o *Order) HasOwner() bool {
	return o.OwnerID != 0
}

// IsOwnedBy 检查订单是否属于指定顾客
func (o *Order) IsOwnedBy(customerID uint) bool {
	return o.HasOwner() && o.OwnerID == customerID
}

// AssignOwner 绑定顾客
func (o *Order) AssignOwner(customerID uint) {
	o.OwnerID = customerID
}

// SetPaymentMethod 设置支付方式
func (o *Order) SetPaymentMethod(m PaymentMethod) error {
	if !m.Valid() {
		return ErrInvalidPaymentMethod.WithMessagef("不支持的支付方式: %q", m)
	}
	o.PaymentMethod = m
	return nil
}

// CanTransitionTo 检查是否可以转换到目标状态
func (o *Order) CanTransitionTo(target Status) bool {
	return CanTransition(o.Status, target)
}

// TransitionTo 状态转换
// 教学要点:
// 1. 先查表,不在表中直接拒绝,订单保持原状
// 2. ASSIGNED和PAID要求已绑定顾客(门票的持有人就是订单的顾客)
// 3. 进入PAID时设置PaidAt,已设置过则保持不变
// 4. 重新进入ASSIGNED(取消后或放弃支付)时清除旧的网关会话号,下次结账创建新会话
func (o *Order) TransitionTo(target Status, now time.Time) error {
	if !o.CanTransitionTo(target) {
		return ErrInvalidStatusTransition.WithMessagef("订单%s不允许从%s转换到%s", o.PublicReference, o.Status, target)
	}
	if (target == StatusAssigned || target == StatusPaid) && !o.HasOwner() {
		return ErrOwnerRequired.WithMessagef("订单%s进入%s前必须绑定顾客", o.PublicReference, target)
	}
	if target == StatusPaid && o.PaidAt == nil {
		paidAt := now
		o.PaidAt = &paidAt
	}
	if target == StatusAssigned {
		o.ExternalPaymentReference = ""
	}
	o.Status = target
	o.UpdatedAt = now
	return nil
}

// AttachPaymentReference 记录支付网关会话号(每个会话只允许设置一次)
func (o *Order) AttachPaymentReference(reference string) error {
	if reference == "" {
		return ErrPaymentReferenceMissing
	}
	if o.ExternalPaymentReference != "" && o.ExternalPaymentReference != reference {
		return ErrPaymentReferenceAlreadySet.WithMessagef("订单%s已关联支付会话%s", o.PublicReference, o.ExternalPaymentReference)
	}
	o.ExternalPaymentReference = reference
	return nil
}
