package ticket

import (
	"context"
	"time"

	"github.com/xiebiao/eventtickets/internal/domain/customer"
)

// maxCodeAttempts 单张门票生成检票码的最大尝试次数
const maxCodeAttempts = 10

// IssueLine 出票明细:某商品出quantity张
type IssueLine struct {
	ProductID uint
	Quantity  int
}

// IssueRequest 出票请求
// 只携带出票需要的字段,门票领域不依赖订单聚合
type IssueRequest struct {
	OrderID uint
	OwnerID uint
	Lines   []IssueLine
}

// Issuer 出票服务
// 教学要点:
// 1. 幂等:订单已有门票时原样返回,不会重复出票
// 2. 检票码在同一商品内唯一,生成后先查库再落库,唯一索引兜底
// 3. 必须在订单状态转换的同一事务中调用(ctx携带事务)
type Issuer struct {
	repo  Repository
	codes CodeGenerator
	keys  func() string
	now   func() time.Time
}

// NewIssuer 创建出票服务
func NewIssuer(repo Repository) *Issuer {
	return &Issuer{
		repo:  repo,
		codes: RandomCode,
		keys:  NewKey,
		now:   time.Now,
	}
}

// WithCodeGenerator 替换检票码生成器
func (i *Issuer) WithCodeGenerator(gen CodeGenerator) *Issuer {
	i.codes = gen
	return i
}

// IssueForOrder 为订单出票
// 返回值created=false表示门票早已存在,本次没有新建
func (i *Issuer) IssueForOrder(ctx context.Context, req IssueRequest) ([]*Ticket, bool, error) {
	existing, err := i.repo.ListByOrder(ctx, req.OrderID)
	if err != nil {
		return nil, false, err
	}
	if len(existing) > 0 {
		return existing, false, nil
	}
	if req.OwnerID == 0 {
		return nil, false, ErrOwnerRequired
	}

	now := i.now()
	var tickets []*Ticket
	for _, line := range req.Lines {
		// 同一批次内也不能重复
		used := make(map[string]struct{}, line.Quantity)
		for n := 0; n < line.Quantity; n++ {
			code, err := i.uniqueCode(ctx, line.ProductID, used)
			if err != nil {
				return nil, false, err
			}
			used[code] = struct{}{}
			tickets = append(tickets, &Ticket{
				Key:        i.keys(),
				OrderID:    req.OrderID,
				OwnerID:    req.OwnerID,
				ProductID:  line.ProductID,
				UniqueCode: code,
				Status:     StatusOpen,
				Valid:      true,
				CreatedAt:  now,
			})
		}
	}

	if len(tickets) == 0 {
		return nil, false, nil
	}
	if err := i.repo.CreateBatch(ctx, tickets); err != nil {
		return nil, false, err
	}
	return tickets, true, nil
}

// Transfer 转让门票:作废原门票,为接收人出一张新票
// 仅限会员的商品,接收人也必须是认证会员
func (i *Issuer) Transfer(ctx context.Context, t *Ticket, actor, recipient *customer.Customer, membersOnly bool) (*Ticket, error) {
	if !t.CanTransfer(actor, membersOnly) {
		return nil, ErrNotTransferable
	}
	if recipient == nil || recipient.ID == t.OwnerID {
		return nil, ErrRecipientNotEligible
	}
	if membersOnly && !recipient.VerifiedMember {
		return nil, ErrRecipientNotEligible.WithMessagef("仅限认证会员持有该门票")
	}

	if err := i.repo.Invalidate(ctx, t.ID); err != nil {
		return nil, err
	}

	code, err := i.uniqueCode(ctx, t.ProductID, nil)
	if err != nil {
		return nil, err
	}
	fresh := &Ticket{
		Key:        i.keys(),
		OrderID:    t.OrderID,
		OwnerID:    recipient.ID,
		ProductID:  t.ProductID,
		UniqueCode: code,
		Status:     StatusOpen,
		Valid:      true,
		CreatedAt:  i.now(),
	}
	if err := i.repo.CreateBatch(ctx, []*Ticket{fresh}); err != nil {
		return nil, err
	}
	t.Valid = false
	return fresh, nil
}

func (i *Issuer) uniqueCode(ctx context.Context, productID uint, used map[string]struct{}) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := i.codes()
		if err != nil {
			return "", err
		}
		if _, dup := used[code]; dup {
			continue
		}
		exists, err := i.repo.CodeExists(ctx, productID, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}
