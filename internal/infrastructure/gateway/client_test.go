package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/eventtickets/internal/domain/payment"
	"github.com/xiebiao/eventtickets/internal/infrastructure/config"
	apperrors "github.com/xiebiao/eventtickets/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(config.PaymentConfig{
		IssuerURI: srv.URL + "/",
		ClientURI: "https://shop.example.com",
		Timeout:   2 * time.Second,
		Breaker: config.BreakerConfig{
			MaxRequests:         1,
			Timeout:             time.Minute,
			ConsecutiveFailures: 2,
		},
	}, zap.NewNop())
}

func TestClient_CreateSession(t *testing.T) {
	var received payment.SessionRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/orders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"publicReference":"pay_123","url":"https://pay.example.com/pay_123"}`))
	})

	session, err := client.CreateSession(context.Background(), payment.SessionRequest{
		Name:        "张三",
		Email:       "zhangsan@example.com",
		Method:      "IDEAL",
		ReturnURL:   "https://shop.example.com/checkout/ref-1/payment/return",
		ProductKeys: []string{"key-a", "key-a"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pay_123", session.PublicReference)
	assert.Equal(t, "https://pay.example.com/pay_123", session.URL)
	assert.Equal(t, []string{"key-a", "key-a"}, received.ProductKeys)
	assert.False(t, received.MailConfirmation)
}

func TestClient_CreateSessionInvalidResponse(t *testing.T) {
	t.Run("缺少跳转地址", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"publicReference":"pay_123"}`))
		})
		_, err := client.CreateSession(context.Background(), payment.SessionRequest{})
		assert.ErrorIs(t, err, apperrors.ErrPaymentGatewayInvalidResponse)
	})

	t.Run("缺少会话号", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"url":"https://pay.example.com/x"}`))
		})
		_, err := client.CreateSession(context.Background(), payment.SessionRequest{})
		assert.ErrorIs(t, err, apperrors.ErrPaymentGatewayInvalidResponse)
	})

	t.Run("响应体不是JSON", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`<html>`))
		})
		_, err := client.CreateSession(context.Background(), payment.SessionRequest{})
		assert.ErrorIs(t, err, apperrors.ErrPaymentGatewayInvalidResponse)
	})
}

func TestClient_CreateSessionRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"unknown product key"}`))
	})

	_, err := client.CreateSession(context.Background(), payment.SessionRequest{})
	require.ErrorIs(t, err, apperrors.ErrPaymentGateway)
	assert.Contains(t, err.Error(), "unknown product key")
	assert.NotErrorIs(t, err, apperrors.ErrPaymentGatewayInvalidResponse, "网关错误与响应格式错误要能区分")
}

func TestClient_FetchStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/api/orders/pay_123":
			_, _ = w.Write([]byte(`{"status":"PAID"}`))
		case "/api/orders/pay_empty":
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	status, err := client.FetchStatus(context.Background(), "pay_123")
	require.NoError(t, err)
	assert.Equal(t, "PAID", status)

	_, err = client.FetchStatus(context.Background(), "pay_empty")
	assert.ErrorIs(t, err, apperrors.ErrPaymentGatewayInvalidResponse)

	_, err = client.FetchStatus(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrPaymentGateway)
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	for i := 0; i < 2; i++ {
		_, err := client.FetchStatus(context.Background(), "pay_1")
		assert.ErrorIs(t, err, apperrors.ErrPaymentGateway)
	}

	_, err := client.FetchStatus(context.Background(), "pay_1")
	assert.ErrorIs(t, err, apperrors.ErrPaymentGateway)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "熔断后不再请求网关")
}

func TestClient_RejectionsDoNotTripBreaker(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 4; i++ {
		_, _ = client.FetchStatus(context.Background(), "pay_1")
	}
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}
