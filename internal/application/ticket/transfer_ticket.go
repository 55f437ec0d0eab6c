package ticket

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/eventtickets/internal/domain/customer"
	"github.com/xiebiao/eventtickets/internal/domain/product"
	"github.com/xiebiao/eventtickets/internal/domain/ticket"
)

// TxManager 事务管理器
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TransferTicketUseCase 门票转让用例
// 教学要点:
// 1. 作废原票和出新票在同一事务中完成
// 2. 作废使用条件更新(valid=true AND status=OPEN)，并发转让同一张票只有一个成功
// 3. 仅限会员的商品，转让人和接收人都必须是认证会员
type TransferTicketUseCase struct {
	tickets   ticket.Repository
	issuer    *ticket.Issuer
	products  product.Repository
	customers customer.Directory
	tx        TxManager
	logger    *zap.Logger
}

// NewTransferTicketUseCase 创建转让用例
func NewTransferTicketUseCase(
	tickets ticket.Repository,
	issuer *ticket.Issuer,
	products product.Repository,
	customers customer.Directory,
	tx TxManager,
	logger *zap.Logger,
) *TransferTicketUseCase {
	return &TransferTicketUseCase{
		tickets:   tickets,
		issuer:    issuer,
		products:  products,
		customers: customers,
		tx:        tx,
		logger:    logger,
	}
}

// TransferTicketRequest 转让请求
type TransferTicketRequest struct {
	TicketKey   string
	ActorID     uint // 当前登录顾客(从认证中间件获取)
	RecipientID uint
}

// TicketItem 门票DTO
type TicketItem struct {
	Key        string `json:"key"`
	ProductID  uint   `json:"product_id"`
	OwnerID    uint   `json:"owner_id"`
	UniqueCode string `json:"unique_code"`
	Status     string `json:"status"`
	Valid      bool   `json:"valid"`
	CreatedAt  string `json:"created_at"`
}

// Execute 执行转让，返回接收人的新门票
func (uc *TransferTicketUseCase) Execute(ctx context.Context, req TransferTicketRequest) (*TicketItem, error) {
	var fresh *ticket.Ticket
	err := uc.tx.Transaction(ctx, func(txCtx context.Context) error {
		t, err := uc.tickets.FindByKey(txCtx, req.TicketKey)
		if err != nil {
			return err
		}
		actor, err := uc.customers.FindByID(txCtx, req.ActorID)
		if err != nil {
			return err
		}
		recipient, err := uc.customers.FindByID(txCtx, req.RecipientID)
		if err != nil {
			return err
		}
		p, err := uc.products.FindByID(txCtx, t.ProductID)
		if err != nil {
			return err
		}

		fresh, err = uc.issuer.Transfer(txCtx, t, actor, recipient, p.MembersOnly)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("门票已转让",
		zap.String("ticket_key", req.TicketKey),
		zap.String("new_ticket_key", fresh.Key),
		zap.Uint("from", req.ActorID),
		zap.Uint("to", req.RecipientID),
	)
	return ToTicketItem(fresh), nil
}

// ListCustomerTicketsUseCase 顾客名下的有效门票
type ListCustomerTicketsUseCase struct {
	tickets ticket.Repository
}

// NewListCustomerTicketsUseCase 创建查询用例
func NewListCustomerTicketsUseCase(tickets ticket.Repository) *ListCustomerTicketsUseCase {
	return &ListCustomerTicketsUseCase{tickets: tickets}
}

// Execute 执行查询
func (uc *ListCustomerTicketsUseCase) Execute(ctx context.Context, customerID uint) ([]TicketItem, error) {
	tickets, err := uc.tickets.ListByOwner(ctx, customerID)
	if err != nil {
		return nil, err
	}
	items := make([]TicketItem, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, *ToTicketItem(t))
	}
	return items, nil
}

// ToTicketItem 转换为DTO
func ToTicketItem(t *ticket.Ticket) *TicketItem {
	return &TicketItem{
		Key:        t.Key,
		ProductID:  t.ProductID,
		OwnerID:    t.OwnerID,
		UniqueCode: t.UniqueCode,
		Status:     string(t.Status),
		Valid:      t.Valid,
		CreatedAt:  t.CreatedAt.Format(time.RFC3339),
	}
}
