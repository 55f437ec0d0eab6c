package order

import (
	apperrors "github.com/xiebiao/eventtickets/pkg/errors"
)

// 订单领域错误定义
var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = apperrors.New(apperrors.ErrCodeOrderNotFound, "订单不存在")

	// ErrInvalidStatusTransition 非法的状态转换
	ErrInvalidStatusTransition = apperrors.New(apperrors.ErrCodeInvalidState, "订单状态不允许此操作")

	// ErrOrderInvalid 订单缺少对外订单号,不能修改
	ErrOrderInvalid = apperrors.New(apperrors.ErrCodeInvalidState, "订单缺少对外订单号")

	// ErrOwnerRequired 操作要求订单已绑定顾客
	ErrOwnerRequired = apperrors.New(apperrors.ErrCodeInvalidState, "订单尚未绑定顾客")

	// ErrLineItemsFrozen 订单离开ANONYMOUS后明细不可修改
	ErrLineItemsFrozen = apperrors.New(apperrors.ErrCodeInvalidState, "订单明细已锁定")

	// ErrPaymentReferenceAlreadySet 支付会话号只能设置一次
	ErrPaymentReferenceAlreadySet = apperrors.New(apperrors.ErrCodeInvalidState, "订单已关联支付会话")

	// ErrPaymentReferenceMissing 订单还没有支付会话
	ErrPaymentReferenceMissing = apperrors.New(apperrors.ErrCodeInvalidState, "订单尚未创建支付会话")

	// ErrEmptyOrder 订单明细不能为空
	ErrEmptyOrder = apperrors.New(apperrors.ErrCodeInvalidParams, "订单明细不能为空")

	// ErrInvalidQuantity 购买数量不合法
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "购买数量必须大于0")

	// ErrInvalidPaymentMethod 支付方式不合法
	ErrInvalidPaymentMethod = apperrors.New(apperrors.ErrCodeInvalidParams, "支付方式不合法")

	// ErrUnknownStatus 未知的状态取值
	ErrUnknownStatus = apperrors.New(apperrors.ErrCodeInvalidParams, "未知的订单状态")
)
