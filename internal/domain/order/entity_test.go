package order

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/eventtickets/pkg/errors"
)

// expectedTransitions 对照表,与transitions逐项比对
var expectedTransitions = map[Status][]Status{
	StatusAnonymous:   {StatusAssigned, StatusCancelled},
	StatusAssigned:    {StatusPending, StatusCancelled, StatusReservation},
	StatusCancelled:   {StatusAssigned, StatusCancelled},
	StatusPending:     {StatusPaid, StatusPending, StatusAssigned, StatusError, StatusCancelled, StatusExpired},
	StatusReservation: {StatusPaid, StatusExpired, StatusRejected},
	StatusPaid:        {StatusRejected},
	StatusError:       nil,
	StatusRejected:    nil,
	StatusExpired:     nil,
}

func newOwnedOrder(status Status) *Order {
	o := NewOrder("ref-1", time.Now())
	o.OwnerID = 7
	o.Status = status
	return o
}

// TestTransitionTable 穷举所有(from,to)组合
func TestTransitionTable(t *testing.T) {
	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			allowed := false
			for _, s := range expectedTransitions[from] {
				if s == to {
					allowed = true
				}
			}

			o := newOwnedOrder(from)
			err := o.TransitionTo(to, time.Now())
			if allowed {
				assert.NoError(t, err, "%s→%s应该允许", from, to)
				assert.Equal(t, to, o.Status)
				continue
			}
			require.Error(t, err, "%s→%s应该被拒绝", from, to)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidState), "%s→%s应该返回InvalidState", from, to)
			assert.Equal(t, from, o.Status, "被拒绝的转换不能改变状态")
		}
	}
}

func TestTerminalStates(t *testing.T) {
	for _, s := range []Status{StatusError, StatusRejected, StatusExpired} {
		assert.True(t, s.IsTerminal(), "%s应该是终态", s)
	}
	for _, s := range []Status{StatusAnonymous, StatusAssigned, StatusPending, StatusReservation, StatusPaid, StatusCancelled} {
		assert.False(t, s.IsTerminal(), "%s不是终态", s)
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("PAID")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, s)

	_, err = ParseStatus("SHIPPED")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestTransitionTo_OwnerRequired(t *testing.T) {
	o := NewOrder("ref-2", time.Now())

	err := o.TransitionTo(StatusAssigned, time.Now())
	assert.ErrorIs(t, err, ErrOwnerRequired)
	assert.Equal(t, StatusAnonymous, o.Status)

	// 取消不需要顾客
	require.NoError(t, o.TransitionTo(StatusCancelled, time.Now()))
}

func TestTransitionTo_PaidAtSetOnce(t *testing.T) {
	o := newOwnedOrder(StatusPending)
	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, o.TransitionTo(StatusPaid, first))
	require.NotNil(t, o.PaidAt)
	assert.Equal(t, first, *o.PaidAt)

	// 通过RESERVATION路径再次进入PAID也不会覆盖
	o.Status = StatusReservation
	require.NoError(t, o.TransitionTo(StatusPaid, first.Add(time.Hour)))
	assert.Equal(t, first, *o.PaidAt, "paidAt只能设置一次")
}

func TestAddProduct_TotalAmount(t *testing.T) {
	o := NewOrder("ref-3", time.Now())

	require.NoError(t, o.AddProduct(1, "p1", 1000, 2))
	require.NoError(t, o.AddProduct(2, "p2", 250, 3))
	assert.Equal(t, int64(2750), o.TotalAmount)

	// 同一商品合并数量
	require.NoError(t, o.AddProduct(1, "p1", 1000, 1))
	assert.Len(t, o.Products, 2)
	assert.Equal(t, int64(3750), o.TotalAmount)
	assert.Equal(t, o.CalculateTotal(), o.TotalAmount)
	assert.Equal(t, 6, o.TotalUnits())

	assert.ErrorIs(t, o.AddProduct(3, "p3", 100, 0), ErrInvalidQuantity)
}

func TestAddProduct_FrozenAfterAnonymous(t *testing.T) {
	o := newOwnedOrder(StatusAssigned)
	assert.ErrorIs(t, o.AddProduct(1, "p1", 1000, 1), ErrLineItemsFrozen)
}

func TestAttachPaymentReference(t *testing.T) {
	o := newOwnedOrder(StatusPending)

	require.NoError(t, o.AttachPaymentReference("pay-1"))
	require.NoError(t, o.AttachPaymentReference("pay-1"), "相同会话号重复设置是幂等的")
	assert.ErrorIs(t, o.AttachPaymentReference("pay-2"), ErrPaymentReferenceAlreadySet)
	assert.Equal(t, "pay-1", o.ExternalPaymentReference)
	assert.ErrorIs(t, o.AttachPaymentReference(""), ErrPaymentReferenceMissing)

	t.Run("重新指派后可以关联新会话", func(t *testing.T) {
		require.NoError(t, o.TransitionTo(StatusCancelled, time.Now()))
		assert.Equal(t, "pay-1", o.ExternalPaymentReference, "取消时保留会话号，回调还能找到订单")
		require.NoError(t, o.TransitionTo(StatusAssigned, time.Now()))
		assert.Empty(t, o.ExternalPaymentReference)
		require.NoError(t, o.AttachPaymentReference("pay-2"))
		assert.Equal(t, "pay-2", o.ExternalPaymentReference)
	})
}

func TestAllowedTransitions(t *testing.T) {
	assert.ElementsMatch(t, []Status{StatusAssigned, StatusCancelled}, AllowedTransitions(StatusAnonymous))
	assert.Empty(t, AllowedTransitions(StatusExpired))

	got := AllowedTransitions(StatusPaid)
	got[0] = StatusError
	assert.Equal(t, []Status{StatusRejected}, AllowedTransitions(StatusPaid), "返回副本，修改不影响转换表")
}

func TestSetPaymentMethod(t *testing.T) {
	o := NewOrder("ref-4", time.Now())
	require.NoError(t, o.SetPaymentMethod(PaymentMethodIDEAL))
	assert.ErrorIs(t, o.SetPaymentMethod("BITCOIN"), ErrInvalidPaymentMethod)
	assert.Equal(t, PaymentMethodIDEAL, o.PaymentMethod)
}
