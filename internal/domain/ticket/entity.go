package ticket

import (
	"time"

	"github.com/xiebiao/eventtickets/internal/domain/customer"
)

// Status 门票状态
type Status string

const (
	StatusOpen    Status = "OPEN"    // 未检票
	StatusScanned Status = "SCANNED" // 已检票
)

// Ticket 门票
// 设计说明:
// 1. 只能由Issuer在订单进入PAID时创建,每件一张
// 2. UniqueCode是检票码,在同一商品的门票中唯一
// 3. Valid在转让或作废后变为false
// 4. 只保存OrderID/ProductID/OwnerID,不直接引用其他聚合
type Ticket struct {
	ID         uint
	Key        string
	OrderID    uint
	OwnerID    uint
	ProductID  uint
	UniqueCode string
	Status     Status
	Valid      bool
	CreatedAt  time.Time
}

// CanTransfer actor能否把这张门票转让出去
// 规则:
// 1. 未检票且仍然有效
// 2. 仅限会员的商品,actor必须是认证会员
// 3. actor是持有人或管理员
func (t *Ticket) CanTransfer(actor *customer.Customer, membersOnly bool) bool {
	if actor == nil {
		return false
	}
	if t.Status != StatusOpen || !t.Valid {
		return false
	}
	if membersOnly && !actor.VerifiedMember {
		return false
	}
	return t.OwnerID == actor.ID || actor.Admin
}
