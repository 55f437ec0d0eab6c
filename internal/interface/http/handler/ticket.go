package handler

import (
	"github.com/gin-gonic/gin"

	appticket "github.com/xiebiao/eventtickets/internal/application/ticket"
	"github.com/xiebiao/eventtickets/internal/interface/http/dto"
	"github.com/xiebiao/eventtickets/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/eventtickets/pkg/errors"
	"github.com/xiebiao/eventtickets/pkg/response"
)

// TicketHandler 门票HTTP处理器
type TicketHandler struct {
	transfer *appticket.TransferTicketUseCase
	list     *appticket.ListCustomerTicketsUseCase
}

// NewTicketHandler 创建门票处理器
func NewTicketHandler(transfer *appticket.TransferTicketUseCase, list *appticket.ListCustomerTicketsUseCase) *TicketHandler {
	return &TicketHandler{transfer: transfer, list: list}
}

// ListMyTickets 当前顾客的有效门票
// @Summary      我的门票
// @Tags         门票
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=response.ListData}
// @Router       /api/v1/customers/me/tickets [get]
func (h *TicketHandler) ListMyTickets(c *gin.Context) {
	items, err := h.list.Execute(c.Request.Context(), middleware.MustGetCustomerID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithList(c, items, len(items))
}

// TransferTicket 转让门票
// @Summary      转让门票
// @Description  原门票作废，接收人获得一张新门票
// @Tags         门票
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        key path string true "门票Key"
// @Param        request body dto.TransferTicketRequest true "接收人"
// @Success      200 {object} response.Response{data=appticket.TicketItem}
// @Failure      409 {object} response.Response "门票不能转让"
// @Router       /api/v1/tickets/{key}/transfer [post]
func (h *TicketHandler) TransferTicket(c *gin.Context) {
	var req dto.TransferTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
		return
	}

	item, err := h.transfer.Execute(c.Request.Context(), appticket.TransferTicketRequest{
		TicketKey:   c.Param("key"),
		ActorID:     middleware.MustGetCustomerID(c),
		RecipientID: req.RecipientID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, item)
}
