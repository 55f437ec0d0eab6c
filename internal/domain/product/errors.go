package product

import (
	apperrors "github.com/xiebiao/eventtickets/pkg/errors"
)

// 商品领域错误定义
var (
	ErrProductNotFound      = apperrors.New(apperrors.ErrCodeProductNotFound, "商品不存在")
	ErrCapacityExceeded     = apperrors.New(apperrors.ErrCodeCapacityExceeded, "商品剩余数量不足")
	ErrReservationShortfall = apperrors.New(apperrors.ErrCodeInvalidState, "商品预留数量不足,无法转为已售")
	ErrInvalidUnits         = apperrors.New(apperrors.ErrCodeInvalidParams, "数量必须大于0")
	ErrInvalidCost          = apperrors.New(apperrors.ErrCodeInvalidParams, "价格不能为负数")
	ErrInvalidCapacity      = apperrors.New(apperrors.ErrCodeInvalidParams, "容量不能为负数")
	ErrInvalidSalesWindow   = apperrors.New(apperrors.ErrCodeInvalidParams, "销售开始时间不能晚于结束时间")
	ErrInvalidCounters      = apperrors.New(apperrors.ErrCodeInvalidParams, "已售与预留数量不能为负数且不能超过容量")
	ErrTitleRequired        = apperrors.New(apperrors.ErrCodeInvalidParams, "商品名称不能为空")
)
