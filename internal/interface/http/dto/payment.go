package dto

// WebhookRequest 支付网关回调
// 只信任publicReference，状态以主动查询网关的结果为准
type WebhookRequest struct {
	PublicReference string `json:"publicReference" binding:"required"`
}

// CheckoutResponse 支付会话
type CheckoutResponse struct {
	PaymentReference string `json:"payment_reference"`
	PaymentURL       string `json:"payment_url"`
}
