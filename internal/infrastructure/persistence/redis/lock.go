package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/eventtickets/internal/infrastructure/config"
	apperrors "github.com/xiebiao/eventtickets/pkg/errors"
)

const (
	defaultLockTTL   = 10 * time.Second
	defaultLockWait  = 3 * time.Second
	lockPollInterval = 20 * time.Millisecond
)

// releaseScript 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// OrderLocker 订单级分布式锁
// 设计说明:
// 1. 支付回调可能被网关重复、乱序投递,多个实例同时处理同一订单时先在Redis上排队
// 2. SET key token NX PX ttl获取锁,token防止误删他人的锁
// 3. 等待超过LockWait返回ConflictingUpdate,不无限阻塞
// 4. 数据库里的行锁和version检查仍然生效,这把锁只减少无谓的事务冲突
type OrderLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewOrderLocker 创建订单锁
func NewOrderLocker(client *redis.Client, cfg config.RedisConfig) *OrderLocker {
	ttl, wait := cfg.LockTTL, cfg.LockWait
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if wait <= 0 {
		wait = defaultLockWait
	}
	return &OrderLocker{client: client, ttl: ttl, wait: wait}
}

// Lock 获取订单锁,返回的unlock必须调用
func (l *OrderLocker) Lock(ctx context.Context, reference string) (func(), error) {
	key := fmt.Sprintf("lock:order:%s", reference)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, apperrors.ErrRedisError.WithCause(err)
		}
		if ok {
			return func() {
				// 调用方的ctx可能已取消,释放锁使用独立的ctx
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, apperrors.ErrConflictingUpdate.WithMessagef("订单%s正在被其他请求处理", reference)
		}

		timer := time.NewTimer(lockPollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, apperrors.ErrConflictingUpdate.WithCause(ctx.Err())
			}
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
