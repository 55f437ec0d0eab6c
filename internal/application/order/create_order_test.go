package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/eventtickets/internal/domain/customer"
	"github.com/xiebiao/eventtickets/internal/domain/order"
	"github.com/xiebiao/eventtickets/internal/domain/product"
)

func TestCreateOrderUseCase(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.publish(t, 1000, 10)
	b := env.publish(t, 2500, -1)

	t.Run("按商品当前价格计算总额", func(t *testing.T) {
		o, err := env.creator.Execute(ctx, CreateOrderRequest{
			Quantities: map[string]int{a.Key: 2, b.Key: 1},
		})
		require.NoError(t, err)
		assert.Equal(t, order.StatusAnonymous, o.Status)
		assert.Equal(t, int64(4500), o.TotalAmount)
		assert.NotEmpty(t, o.PublicReference)

		sold, reserved := env.counters(t, a.ID)
		assert.Zero(t, sold, "下单不占用库存")
		assert.Zero(t, reserved)
	})

	t.Run("忽略数量为0的商品", func(t *testing.T) {
		o, err := env.creator.Execute(ctx, CreateOrderRequest{
			Quantities: map[string]int{a.Key: 1, b.Key: 0},
		})
		require.NoError(t, err)
		require.Len(t, o.Products, 1)
		assert.Equal(t, a.Key, o.Products[0].ProductKey)
	})

	t.Run("全部为0时拒绝", func(t *testing.T) {
		_, err := env.creator.Execute(ctx, CreateOrderRequest{
			Quantities: map[string]int{a.Key: 0, b.Key: -1},
		})
		assert.ErrorIs(t, err, order.ErrEmptyOrder)
	})

	t.Run("商品不存在", func(t *testing.T) {
		_, err := env.creator.Execute(ctx, CreateOrderRequest{
			Quantities: map[string]int{"missing": 1},
		})
		assert.ErrorIs(t, err, product.ErrProductNotFound)
	})
}

func TestUpdateOrderUseCase(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.publish(t, 1000, -1)
	o := env.placeOrder(t, map[string]int{p.Key: 1}, order.StatusAnonymous)
	uc := NewUpdateOrderUseCase(env.engine, env.customers)

	fan := &customer.Customer{Name: "Piet", Email: "piet@example.com"}
	require.NoError(t, env.customers.Create(ctx, fan))

	method := order.PaymentMethodIDEAL
	got, err := uc.Execute(ctx, UpdateOrderRequest{
		Reference:     o.PublicReference,
		OwnerID:       &fan.ID,
		PaymentMethod: &method,
	})
	require.NoError(t, err)
	assert.Equal(t, fan.ID, got.OwnerID)
	assert.Equal(t, method, got.PaymentMethod)
	assert.Equal(t, order.StatusAnonymous, got.Status, "修改不改变状态")

	t.Run("顾客不存在时拒绝绑定", func(t *testing.T) {
		missing := uint(9999)
		_, err := uc.Execute(ctx, UpdateOrderRequest{Reference: o.PublicReference, OwnerID: &missing})
		assert.ErrorIs(t, err, customer.ErrCustomerNotFound)
		assert.Equal(t, fan.ID, env.reload(t, o.PublicReference).OwnerID, "原顾客保持不变")
	})

	_, err = uc.Execute(ctx, UpdateOrderRequest{})
	assert.ErrorIs(t, err, order.ErrOrderInvalid)
}

func TestQueryService(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.publish(t, 1000, -1)
	q := NewQueryService(env.orders, env.tickets)

	reserved := env.placeOrder(t, map[string]int{p.Key: 1}, order.StatusAssigned)
	_, err := env.engine.RequestTransition(ctx, reserved.PublicReference, order.StatusReservation)
	require.NoError(t, err)
	env.placeOrder(t, map[string]int{p.Key: 1}, order.StatusAssigned)

	list, err := q.ListReservationsByCustomer(ctx, 42)
	require.NoError(t, err)
	require.Len(t, list, 1, "只返回RESERVATION状态的订单")
	assert.Equal(t, reserved.PublicReference, list[0].PublicReference)

	_, err = env.engine.RequestTransition(ctx, reserved.PublicReference, order.StatusPaid)
	require.NoError(t, err)
	view, err := q.Get(ctx, reserved.PublicReference)
	require.NoError(t, err)
	assert.Len(t, view.Tickets, 1, "已支付订单带出门票")
}
