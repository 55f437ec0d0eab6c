package order

import "time"

// StatusChanged 订单状态已变化（事务提交后发布）
type StatusChanged struct {
	Reference   string    `json:"reference"`
	From        Status    `json:"from"`
	To          Status    `json:"to"`
	OwnerID     uint      `json:"owner_id,omitempty"`
	TotalAmount int64     `json:"total_amount"`
	Version     int       `json:"version"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewStatusChanged 根据转换后的订单构造事件
func NewStatusChanged(o *Order, from Status) StatusChanged {
	return StatusChanged{
		Reference:   o.PublicReference,
		From:        from,
		To:          o.Status,
		OwnerID:     o.OwnerID,
		TotalAmount: o.TotalAmount,
		Version:     o.Version,
		OccurredAt:  o.UpdatedAt,
	}
}
