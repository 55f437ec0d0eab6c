package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/eventtickets/internal/domain/payment"
	apperrors "github.com/xiebiao/eventtickets/pkg/errors"
)

// checkoutSession 缓存中的支付会话
type checkoutSession struct {
	PaymentReference string `json:"payment_reference"`
	PaymentURL       string `json:"payment_url"`
}

// SessionStore 支付会话缓存
// 设计说明:
// 1. 顾客重复点击"去支付"时返回同一个网关会话,不再向网关重复下单
// 2. Key设计: checkout:{order_reference}
// 3. 过期时间与网关会话的有效期一致,过期后允许重新创建
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore 创建会话缓存
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// SaveCheckout 保存支付会话
func (s *SessionStore) SaveCheckout(ctx context.Context, orderReference string, session *payment.Session, ttl time.Duration) error {
	data, err := json.Marshal(checkoutSession{
		PaymentReference: session.PublicReference,
		PaymentURL:       session.URL,
	})
	if err != nil {
		return apperrors.Wrap(err, "序列化支付会话失败")
	}
	if err := s.client.Set(ctx, checkoutKey(orderReference), data, ttl).Err(); err != nil {
		return apperrors.ErrRedisError.WithCause(err)
	}
	return nil
}

// GetCheckout 读取支付会话,不存在时返回(nil, nil)
func (s *SessionStore) GetCheckout(ctx context.Context, orderReference string) (*payment.Session, error) {
	data, err := s.client.Get(ctx, checkoutKey(orderReference)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, apperrors.ErrRedisError.WithCause(err)
	}

	var cached checkoutSession
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, apperrors.Wrap(err, "解析支付会话失败")
	}
	return &payment.Session{PublicReference: cached.PaymentReference, URL: cached.PaymentURL}, nil
}

// DeleteCheckout 订单离开PENDING后清除会话
func (s *SessionStore) DeleteCheckout(ctx context.Context, orderReference string) error {
	if err := s.client.Del(ctx, checkoutKey(orderReference)).Err(); err != nil {
		return apperrors.ErrRedisError.WithCause(err)
	}
	return nil
}

func checkoutKey(orderReference string) string {
	return fmt.Sprintf("checkout:%s", orderReference)
}
