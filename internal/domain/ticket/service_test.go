package ticket

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/eventtickets/internal/domain/customer"
)

// memoryRepo 测试用的内存仓储
type memoryRepo struct {
	mu      sync.Mutex
	nextID  uint
	tickets []*Ticket
}

func (r *memoryRepo) CreateBatch(_ context.Context, tickets []*Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range tickets {
		r.nextID++
		t.ID = r.nextID
		r.tickets = append(r.tickets, t)
	}
	return nil
}

func (r *memoryRepo) FindByKey(_ context.Context, key string) (*Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.Key == key {
			return t, nil
		}
	}
	return nil, ErrTicketNotFound
}

func (r *memoryRepo) ListByOrder(_ context.Context, orderID uint) ([]*Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Ticket
	for _, t := range r.tickets {
		if t.OrderID == orderID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListByOwner(_ context.Context, ownerID uint) ([]*Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Ticket
	for _, t := range r.tickets {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memoryRepo) CodeExists(_ context.Context, productID uint, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.ProductID == productID && t.UniqueCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) Invalidate(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.ID == id && t.Valid && t.Status == StatusOpen {
			t.Valid = false
			return nil
		}
	}
	return ErrNotTransferable
}

// sequenceCodes 按给定顺序返回检票码
func sequenceCodes(codes ...string) CodeGenerator {
	i := 0
	return func() (string, error) {
		if i >= len(codes) {
			return "", fmt.Errorf("codes exhausted")
		}
		c := codes[i]
		i++
		return c, nil
	}
}

func TestIssueForOrder_OneTicketPerUnit(t *testing.T) {
	repo := &memoryRepo{}
	issuer := NewIssuer(repo)

	tickets, created, err := issuer.IssueForOrder(context.Background(), IssueRequest{
		OrderID: 1,
		OwnerID: 9,
		Lines:   []IssueLine{{ProductID: 10, Quantity: 2}, {ProductID: 11, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, tickets, 3)

	codes := map[string]bool{}
	for _, tk := range tickets {
		assert.Equal(t, uint(9), tk.OwnerID)
		assert.Equal(t, StatusOpen, tk.Status)
		assert.True(t, tk.Valid)
		assert.Len(t, tk.UniqueCode, codeLength)
		assert.NotEmpty(t, tk.Key)
		codes[fmt.Sprintf("%d/%s", tk.ProductID, tk.UniqueCode)] = true
	}
	assert.Len(t, codes, 3, "检票码在商品内唯一")
}

func TestIssueForOrder_Idempotent(t *testing.T) {
	repo := &memoryRepo{}
	issuer := NewIssuer(repo)
	req := IssueRequest{OrderID: 2, OwnerID: 9, Lines: []IssueLine{{ProductID: 10, Quantity: 2}}}

	first, created, err := issuer.IssueForOrder(context.Background(), req)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := issuer.IssueForOrder(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, created, "第二次调用不应该新建门票")
	assert.Equal(t, first, second)
	assert.Len(t, repo.tickets, 2)
}

func TestIssueForOrder_SkipsCollidingCodes(t *testing.T) {
	repo := &memoryRepo{}
	require.NoError(t, repo.CreateBatch(context.Background(), []*Ticket{{ProductID: 10, UniqueCode: "AAAAAA", OrderID: 99}}))

	issuer := NewIssuer(repo).WithCodeGenerator(sequenceCodes("AAAAAA", "BBBBBB", "BBBBBB", "CCCCCC"))
	tickets, _, err := issuer.IssueForOrder(context.Background(), IssueRequest{
		OrderID: 3, OwnerID: 9, Lines: []IssueLine{{ProductID: 10, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, "BBBBBB", tickets[0].UniqueCode)
	assert.Equal(t, "CCCCCC", tickets[1].UniqueCode)
}

func TestIssueForOrder_RequiresOwner(t *testing.T) {
	issuer := NewIssuer(&memoryRepo{})
	_, _, err := issuer.IssueForOrder(context.Background(), IssueRequest{OrderID: 4, Lines: []IssueLine{{ProductID: 1, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrOwnerRequired)
}

func TestCanTransfer(t *testing.T) {
	owner := &customer.Customer{ID: 1}
	verifiedOwner := &customer.Customer{ID: 1, VerifiedMember: true}
	stranger := &customer.Customer{ID: 2}
	admin := &customer.Customer{ID: 3, Admin: true}

	open := Ticket{OwnerID: 1, Status: StatusOpen, Valid: true}
	scanned := Ticket{OwnerID: 1, Status: StatusScanned, Valid: true}
	voided := Ticket{OwnerID: 1, Status: StatusOpen, Valid: false}

	assert.True(t, open.CanTransfer(owner, false))
	assert.True(t, open.CanTransfer(admin, false))
	assert.False(t, open.CanTransfer(stranger, false))
	assert.False(t, open.CanTransfer(nil, false))
	assert.False(t, scanned.CanTransfer(owner, false))
	assert.False(t, voided.CanTransfer(owner, false))
	assert.False(t, open.CanTransfer(owner, true), "仅限会员商品要求认证会员")
	assert.True(t, open.CanTransfer(verifiedOwner, true))
}

func TestTransfer(t *testing.T) {
	repo := &memoryRepo{}
	issuer := NewIssuer(repo)
	tickets, _, err := issuer.IssueForOrder(context.Background(), IssueRequest{
		OrderID: 5, OwnerID: 1, Lines: []IssueLine{{ProductID: 10, Quantity: 1}},
	})
	require.NoError(t, err)
	original := tickets[0]

	owner := &customer.Customer{ID: 1}
	recipient := &customer.Customer{ID: 2}

	fresh, err := issuer.Transfer(context.Background(), original, owner, recipient, false)
	require.NoError(t, err)
	assert.Equal(t, uint(2), fresh.OwnerID)
	assert.NotEqual(t, original.Key, fresh.Key)
	assert.False(t, original.Valid, "原门票应该作废")

	_, err = issuer.Transfer(context.Background(), original, owner, recipient, false)
	assert.ErrorIs(t, err, ErrNotTransferable, "作废的门票不能再转让")
}

func TestTransfer_MembersOnlyRecipient(t *testing.T) {
	repo := &memoryRepo{}
	issuer := NewIssuer(repo)
	tickets, _, err := issuer.IssueForOrder(context.Background(), IssueRequest{
		OrderID: 6, OwnerID: 1, Lines: []IssueLine{{ProductID: 10, Quantity: 1}},
	})
	require.NoError(t, err)

	owner := &customer.Customer{ID: 1, VerifiedMember: true}
	_, err = issuer.Transfer(context.Background(), tickets[0], owner, &customer.Customer{ID: 2}, true)
	assert.ErrorIs(t, err, ErrRecipientNotEligible)
	assert.True(t, tickets[0].Valid, "校验失败时原门票保持有效")
}
