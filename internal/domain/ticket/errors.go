package ticket

import (
	apperrors "github.com/xiebiao/eventtickets/pkg/errors"
)

// 门票领域错误定义
var (
	ErrTicketNotFound       = apperrors.New(apperrors.ErrCodeTicketNotFound, "门票不存在")
	ErrNotTransferable      = apperrors.New(apperrors.ErrCodeInvalidState, "门票不能转让")
	ErrRecipientNotEligible = apperrors.New(apperrors.ErrCodeInvalidState, "接收人不能持有该门票")
	ErrOwnerRequired        = apperrors.New(apperrors.ErrCodeInvalidState, "出票前订单必须绑定顾客")
	ErrCodeSpaceExhausted   = apperrors.New(apperrors.ErrCodeInternal, "检票码生成失败")
	ErrDuplicateTicketCode  = apperrors.New(apperrors.ErrCodeConflictingUpdate, "检票码冲突,请重试")
)
