package payment

import (
	"context"
	"sync"
	"time"

	"github.com/xiebiao/eventtickets/internal/domain/payment"
)

// Locker 订单级互斥，redis.OrderLocker实现此接口
type Locker interface {
	Lock(ctx context.Context, reference string) (unlock func(), err error)
}

// SessionCache 支付会话缓存，redis.SessionStore实现此接口
type SessionCache interface {
	SaveCheckout(ctx context.Context, orderReference string, session *payment.Session, ttl time.Duration) error
	GetCheckout(ctx context.Context, orderReference string) (*payment.Session, error)
	DeleteCheckout(ctx context.Context, orderReference string) error
}

// localLocker 进程内按订单号加锁，未配置Redis时使用
type localLocker struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func newLocalLocker() *localLocker {
	return &localLocker{locks: make(map[string]*refLock)}
}

func (l *localLocker) Lock(_ context.Context, reference string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[reference]
	if !ok {
		lock = &refLock{}
		l.locks[reference] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.Lock()
	return func() {
		lock.Unlock()
		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, reference)
		}
		l.mu.Unlock()
	}, nil
}

type noCache struct{}

func (noCache) SaveCheckout(context.Context, string, *payment.Session, time.Duration) error {
	return nil
}
func (noCache) GetCheckout(context.Context, string) (*payment.Session, error) { return nil, nil }
func (noCache) DeleteCheckout(context.Context, string) error                  { return nil }
