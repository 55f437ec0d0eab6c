package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/eventtickets/internal/domain/payment"
	"github.com/xiebiao/eventtickets/internal/infrastructure/config"
	apperrors "github.com/xiebiao/eventtickets/pkg/errors"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestOrderLocker_LockAndUnlock(t *testing.T) {
	mr, client := newTestClient(t)
	locker := NewOrderLocker(client, config.RedisConfig{LockTTL: time.Second, LockWait: 50 * time.Millisecond})
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "ref-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:order:ref-1"))

	_, err = locker.Lock(ctx, "ref-1")
	assert.ErrorIs(t, err, apperrors.ErrConflictingUpdate, "锁被占用时等待超时应该返回ConflictingUpdate")

	_, err = locker.Lock(ctx, "ref-2")
	require.NoError(t, err, "不同订单互不影响")

	unlock()
	assert.False(t, mr.Exists("lock:order:ref-1"))

	unlock2, err := locker.Lock(ctx, "ref-1")
	require.NoError(t, err, "释放后可以再次获取")
	unlock2()
}

func TestOrderLocker_UnlockDoesNotReleaseForeignLock(t *testing.T) {
	mr, client := newTestClient(t)
	locker := NewOrderLocker(client, config.RedisConfig{LockTTL: time.Second, LockWait: 50 * time.Millisecond})
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "ref-1")
	require.NoError(t, err)

	// 模拟租期到期后被其他实例抢到锁
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("lock:order:ref-1", "other-owner"))

	unlock()
	got, err := mr.Get("lock:order:ref-1")
	require.NoError(t, err)
	assert.Equal(t, "other-owner", got, "不能释放别人的锁")
}

func TestSessionStore_Checkout(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	got, err := store.GetCheckout(ctx, "ref-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	session := &payment.Session{PublicReference: "pay_1", URL: "https://pay.example.com/pay_1"}
	require.NoError(t, store.SaveCheckout(ctx, "ref-1", session, time.Minute))

	got, err = store.GetCheckout(ctx, "ref-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *session, *got)

	mr.FastForward(2 * time.Minute)
	got, err = store.GetCheckout(ctx, "ref-1")
	require.NoError(t, err)
	assert.Nil(t, got, "过期后视为不存在")

	require.NoError(t, store.SaveCheckout(ctx, "ref-1", session, time.Minute))
	require.NoError(t, store.DeleteCheckout(ctx, "ref-1"))
	assert.False(t, mr.Exists("checkout:ref-1"))
}
