package order

import (
	"github.com/google/uuid"
)

// GenerateReference 生成对外订单号
// 使用随机UUID:全局唯一、不可预测,避免订单号被遍历
func GenerateReference() string {
	return uuid.NewString()
}
