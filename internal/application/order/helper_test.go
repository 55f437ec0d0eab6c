package order

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/eventtickets/internal/domain/order"
	"github.com/xiebiao/eventtickets/internal/domain/product"
	"github.com/xiebiao/eventtickets/internal/domain/ticket"
	"github.com/xiebiao/eventtickets/internal/infrastructure/config"
	"github.com/xiebiao/eventtickets/internal/infrastructure/persistence/gormrepo"
)

// testEnv 基于sqlite的完整引擎
type testEnv struct {
	engine    *Engine
	creator   *CreateOrderUseCase
	orders    order.Repository
	products  product.Repository
	inv       product.Service
	tickets   ticket.Repository
	customers *gormrepo.CustomerDirectory
	notifier  *fakeNotifier
	events    *fakeEvents
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gormrepo.Open(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "engine.db"),
	})
	require.NoError(t, err, "打开测试数据库失败")
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	env := &testEnv{
		orders:    gormrepo.NewOrderRepository(db),
		products:  gormrepo.NewProductRepository(db),
		tickets:   gormrepo.NewTicketRepository(db),
		customers: gormrepo.NewCustomerDirectory(db),
		notifier:  &fakeNotifier{},
		events:    &fakeEvents{},
	}
	env.inv = product.NewService(env.products)
	env.engine = NewEngine(
		env.orders,
		env.inv,
		ticket.NewIssuer(env.tickets),
		gormrepo.NewTxManager(db),
		env.notifier,
		env.events,
		zap.NewNop(),
	)
	env.creator = NewCreateOrderUseCase(env.orders, env.inv, zap.NewNop())
	return env
}

// publish 新建商品，maxSold<0表示不限量
func (env *testEnv) publish(t *testing.T, cost int64, maxSold int) *product.Product {
	t.Helper()
	params := product.PublishParams{Title: "音乐节单日票", Cost: cost}
	if maxSold >= 0 {
		params.MaxSold = &maxSold
	}
	p, err := env.inv.Publish(context.Background(), params)
	require.NoError(t, err)
	return p
}

// placeOrder 下单并绑定顾客，返回处于status状态的订单
// status只能是ANONYMOUS或ASSIGNED
func (env *testEnv) placeOrder(t *testing.T, quantities map[string]int, status order.Status) *order.Order {
	t.Helper()
	ctx := context.Background()
	o, err := env.creator.Execute(ctx, CreateOrderRequest{Quantities: quantities})
	require.NoError(t, err)

	if status == order.StatusAnonymous {
		return o
	}
	o, err = env.engine.Update(ctx, o.PublicReference, func(o *order.Order) error {
		o.AssignOwner(42)
		return nil
	})
	require.NoError(t, err)
	_, err = env.engine.RequestTransition(ctx, o.PublicReference, order.StatusAssigned)
	require.NoError(t, err)
	return env.reload(t, o.PublicReference)
}

// forceStatus 绕过引擎直接写入状态，用于构造测试前置条件
func (env *testEnv) forceStatus(t *testing.T, o *order.Order, status order.Status) {
	t.Helper()
	o.Status = status
	o.AssignOwner(42)
	require.NoError(t, env.orders.Update(context.Background(), o))
}

func (env *testEnv) reload(t *testing.T, reference string) *order.Order {
	t.Helper()
	o, err := env.orders.FindByReference(context.Background(), reference)
	require.NoError(t, err)
	return o
}

func (env *testEnv) counters(t *testing.T, id uint) (sold, reserved int) {
	t.Helper()
	p, err := env.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Sold, p.Reserved
}

type fakeNotifier struct {
	mu        sync.Mutex
	confirmed []string
	reserved  []string
	tickets   int
	err       error
}

func (n *fakeNotifier) OrderConfirmed(_ context.Context, o *order.Order, tickets []*ticket.Ticket) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, o.PublicReference)
	n.tickets += len(tickets)
	return n.err
}

func (n *fakeNotifier) OrderReserved(_ context.Context, o *order.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reserved = append(n.reserved, o.PublicReference)
	return n.err
}

type fakeEvents struct {
	mu     sync.Mutex
	events []order.StatusChanged
}

func (p *fakeEvents) StatusChanged(_ context.Context, e order.StatusChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

var errMailDown = errors.New("smtp: connection refused")
