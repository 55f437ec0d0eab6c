package dto

import (
	"time"
)

// PublishProductRequest 商品上架请求
type PublishProductRequest struct {
	Title       string     `json:"title" binding:"required,max=200"`
	Description string     `json:"description"`
	Cost        int64      `json:"cost" binding:"min=0"` // 单价(分)
	MaxSold     *int       `json:"max_sold" binding:"omitempty,min=0"`
	SellStart   *time.Time `json:"sell_start"`
	SellEnd     *time.Time `json:"sell_end"`
	MembersOnly bool       `json:"members_only"`
}

// AdjustCountersRequest 管理员校正计数
type AdjustCountersRequest struct {
	Sold     *int `json:"sold" binding:"required,min=0"`
	Reserved *int `json:"reserved" binding:"required,min=0"`
}
