package customer

import (
	"time"

	apperrors "github.com/xiebiao/eventtickets/pkg/errors"
)

// Customer 顾客
// DDD设计说明:
// 1. 顾客资料由外部目录维护,本服务只读
// 2. VerifiedMember决定能否持有"仅限会员"商品的门票
// 3. Admin表示拥有管理员权限
type Customer struct {
	ID             uint
	Name           string
	Email          string
	VerifiedMember bool
	Admin          bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ErrCustomerNotFound 顾客不存在
var ErrCustomerNotFound = apperrors.New(apperrors.ErrCodeCustomerNotFound, "顾客不存在")
