package dto

// TransferTicketRequest 门票转让请求
type TransferTicketRequest struct {
	RecipientID uint `json:"recipient_id" binding:"required"`
}
