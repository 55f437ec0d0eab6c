package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/eventtickets/internal/domain/payment"
	"github.com/xiebiao/eventtickets/internal/infrastructure/config"
	"github.com/xiebiao/eventtickets/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/eventtickets/pkg/errors"
	"github.com/xiebiao/eventtickets/pkg/metrics"
	"github.com/xiebiao/eventtickets/pkg/tracing"
)

const (
	tracerName = "payment-gateway"

	// 网关创建会话成功返回201
	statusSessionCreated = http.StatusCreated

	// 响应体读取上限
	maxResponseBytes = 1 << 20
)

// Client 支付网关HTTP客户端
// 设计说明:
// 1. POST {issuer}/api/orders 创建支付会话，GET {issuer}/api/orders/{ref} 查询状态
// 2. 所有调用经过熔断器，网关故障时快速失败
// 3. 网关明确拒绝请求(4xx)不计入熔断失败
// 4. 传输层由otelhttp包装，trace上下文随请求头透传给网关
type Client struct {
	issuer  string
	http    *http.Client
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

// New 创建网关客户端
func New(cfg config.PaymentConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	breaker := circuitbreaker.NewCircuitBreaker(tracerName, circuitbreaker.Config{
		MaxRequests:         cfg.Breaker.MaxRequests,
		Interval:            cfg.Breaker.Interval,
		Timeout:             cfg.Breaker.Timeout,
		ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
		IsSuccessful: func(err error) bool {
			var rejected *rejectedError
			return err == nil || errors.As(err, &rejected)
		},
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			metrics.RecordBreakerState(name, int(to))
			logger.Warn("支付网关熔断器状态变化",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		issuer: strings.TrimRight(cfg.IssuerURI, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: breaker,
		logger:  logger,
	}
}

// sessionResponse 创建会话的响应
type sessionResponse struct {
	PublicReference string `json:"publicReference"`
	URL             string `json:"url"`
	Message         string `json:"message"`
}

// statusResponse 查询状态的响应
type statusResponse struct {
	Status string `json:"status"`
}

// rejectedError 网关处理了请求但拒绝(4xx)
type rejectedError struct {
	status  int
	message string
}

func (e *rejectedError) Error() string {
	return fmt.Sprintf("payment gateway rejected request: status=%d message=%s", e.status, e.message)
}

// CreateSession 创建支付会话
func (c *Client) CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "CreateSession")
	span.SetAttributes(attribute.Int("payment.units", len(req.ProductKeys)))

	var resp sessionResponse
	err := c.call(ctx, "create_session", func() error {
		body, err := json.Marshal(req)
		if err != nil {
			return err
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.issuer+"/api/orders", bytes.NewReader(body))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		return c.do(httpReq, statusSessionCreated, &resp)
	})
	if err != nil {
		tracing.EndSpan(span, err)
		return nil, c.mapError(err, "创建支付会话失败")
	}

	if resp.URL == "" {
		err = apperrors.ErrPaymentGatewayInvalidResponse.WithMessagef("支付网关响应缺少跳转地址")
	} else if resp.PublicReference == "" {
		err = apperrors.ErrPaymentGatewayInvalidResponse.WithMessagef("支付网关响应缺少会话号")
	}
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	return &payment.Session{PublicReference: resp.PublicReference, URL: resp.URL}, nil
}

// FetchStatus 查询支付状态
func (c *Client) FetchStatus(ctx context.Context, paymentReference string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "FetchStatus")
	span.SetAttributes(attribute.String("payment.reference", paymentReference))

	var resp statusResponse
	err := c.call(ctx, "fetch_status", func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.issuer+"/api/orders/"+url.PathEscape(paymentReference), nil)
		if err != nil {
			return err
		}
		return c.do(httpReq, http.StatusOK, &resp)
	})
	if err != nil {
		tracing.EndSpan(span, err)
		return "", c.mapError(err, "查询支付状态失败")
	}

	if resp.Status == "" {
		err = apperrors.ErrPaymentGatewayInvalidResponse.WithMessagef("支付网关响应缺少状态")
		tracing.EndSpan(span, err)
		return "", err
	}
	tracing.EndSpan(span, nil)
	return resp.Status, nil
}

// call 通过熔断器执行一次网关调用并记录指标
func (c *Client) call(ctx context.Context, operation string, fn func() error) error {
	start := time.Now()
	err := c.breaker.Execute(fn)
	elapsed := time.Since(start)

	metrics.RecordGatewayCall(operation, err, elapsed)
	switch {
	case err == nil:
		metrics.RecordBreakerRequest(c.breaker.Name(), "success")
	case errors.Is(err, circuitbreaker.ErrOpenState):
		metrics.RecordBreakerRequest(c.breaker.Name(), "rejected")
	default:
		metrics.RecordBreakerRequest(c.breaker.Name(), "failure")
	}

	if err != nil {
		c.logger.Warn("支付网关调用失败",
			zap.String("operation", operation),
			zap.Duration("elapsed", elapsed),
			zap.String("trace_id", tracing.ExtractTraceID(ctx)),
			zap.Error(err),
		)
	}
	return err
}

// do 发送请求，状态码不是expect时返回错误
func (c *Client) do(req *http.Request, expect int, out interface{}) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return err
	}

	if resp.StatusCode != expect {
		var msg sessionResponse
		_ = json.Unmarshal(body, &msg)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return &rejectedError{status: resp.StatusCode, message: msg.Message}
		}
		return fmt.Errorf("unexpected status %d from payment gateway", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &invalidBodyError{err: err}
	}
	return nil
}

// invalidBodyError 成功状态码但响应体不是合法JSON
type invalidBodyError struct {
	err error
}

func (e *invalidBodyError) Error() string { return "invalid gateway response body: " + e.err.Error() }
func (e *invalidBodyError) Unwrap() error { return e.err }

func (c *Client) mapError(err error, message string) error {
	var invalid *invalidBodyError
	if errors.As(err, &invalid) {
		return apperrors.ErrPaymentGatewayInvalidResponse.WithCause(err)
	}

	var rejected *rejectedError
	if errors.As(err, &rejected) && rejected.message != "" {
		return apperrors.ErrPaymentGateway.WithMessagef("%s: %s", message, rejected.message)
	}

	if errors.Is(err, circuitbreaker.ErrOpenState) {
		return apperrors.ErrPaymentGateway.WithMessagef("支付网关暂不可用，请稍后重试").WithCause(err)
	}
	return apperrors.ErrPaymentGateway.WithMessagef("%s", message).WithCause(err)
}
