// Package metrics Prometheus指标定义
//
// 指标分三类：
// 1. HTTP指标：请求数、耗时、并发数
// 2. 业务指标：订单状态转换、容量拒绝、出票、支付对账
// 3. 基础设施指标：支付网关调用、熔断器、消息发布
//
// 所有指标使用promauto注册到默认Registry，由/metrics端点暴露。
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// ========== HTTP指标 ==========

	// HTTPRequestsTotal HTTP请求总数
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// ========== 订单指标 ==========

	// OrdersCreatedTotal 创建的订单数
	OrdersCreatedTotal prometheus.Counter

	// OrderTransitionsTotal 状态转换次数
	// result: applied(已提交) | noop(重复请求) | rejected(非法转换) | failed(其他错误)
	OrderTransitionsTotal *prometheus.CounterVec

	// OrderTransitionDuration 一次状态转换事务的耗时
	OrderTransitionDuration *prometheus.HistogramVec

	// CapacityRejectionsTotal 因容量不足被拒绝的预留/售出
	CapacityRejectionsTotal *prometheus.CounterVec

	// TicketsIssuedTotal 出票数量
	TicketsIssuedTotal prometheus.Counter

	// ========== 支付指标 ==========

	// PaymentGatewayRequestsTotal 支付网关调用次数
	PaymentGatewayRequestsTotal *prometheus.CounterVec

	// PaymentGatewayDuration 支付网关调用耗时
	PaymentGatewayDuration *prometheus.HistogramVec

	// ReconciliationsTotal 支付对账次数
	ReconciliationsTotal *prometheus.CounterVec

	// ========== 熔断器指标 ==========

	// CircuitBreakerState 熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerRequests 熔断器请求结果
	CircuitBreakerRequests *prometheus.CounterVec

	// ========== 消息指标 ==========

	// MessagesPublishedTotal 消息发布次数
	// result: success | failure
	MessagesPublishedTotal *prometheus.CounterVec
)

// InitMetrics 初始化所有指标（重复调用安全）
func InitMetrics() {
	once.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	OrdersCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "订单创建总数",
		},
	)

	OrderTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_transitions_total",
			Help: "订单状态转换次数",
		},
		[]string{"from", "to", "result"},
	)

	OrderTransitionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "order_transition_duration_seconds",
			Help:    "订单状态转换耗时（秒）",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"to"},
	)

	CapacityRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capacity_rejections_total",
			Help: "容量不足导致的拒绝次数",
		},
		[]string{"operation"}, // reserve | confirm
	)

	TicketsIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "出票总数",
		},
	)

	PaymentGatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_gateway_requests_total",
			Help: "支付网关调用次数",
		},
		[]string{"operation", "result"},
	)

	PaymentGatewayDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_gateway_duration_seconds",
			Help:    "支付网关调用耗时（秒）",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 3, 10},
		},
		[]string{"operation"},
	)

	ReconciliationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_reconciliations_total",
			Help: "支付对账次数",
		},
		[]string{"gateway_status", "result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "熔断器请求总数",
		},
		[]string{"name", "result"}, // success | failure | rejected
	)

	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "消息发布次数",
		},
		[]string{"broker", "topic", "result"},
	)
}

// ========== 通用辅助函数 ==========

// IncCounter 递增Counter
func IncCounter(counter prometheus.Counter) {
	counter.Inc()
}

// IncCounterVec 递增带标签的Counter
func IncCounterVec(counter *prometheus.CounterVec, labels map[string]string) {
	counter.With(labels).Inc()
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	gauge.Inc()
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	gauge.Dec()
}

// SetGauge 设置Gauge
func SetGauge(gauge prometheus.Gauge, value float64) {
	gauge.Set(value)
}

// SetGaugeVec 设置带标签的Gauge
func SetGaugeVec(gauge *prometheus.GaugeVec, labels map[string]string, value float64) {
	gauge.With(labels).Set(value)
}

// ObserveHistogram 记录Histogram观测值
func ObserveHistogram(histogram prometheus.Histogram, value float64) {
	histogram.Observe(value)
}

// ObserveHistogramVec 记录带标签的Histogram观测值
func ObserveHistogramVec(histogram *prometheus.HistogramVec, labels map[string]string, value float64) {
	histogram.With(labels).Observe(value)
}

// ========== 业务辅助函数 ==========
// 下面的函数在首次调用时自动初始化，业务代码和测试不需要先调用InitMetrics

// RecordOrderCreated 记录一次下单
func RecordOrderCreated() {
	InitMetrics()
	OrdersCreatedTotal.Inc()
}

// RecordTransition 记录一次状态转换
func RecordTransition(from, to, result string, elapsed time.Duration) {
	InitMetrics()
	OrderTransitionsTotal.WithLabelValues(from, to, result).Inc()
	OrderTransitionDuration.WithLabelValues(to).Observe(elapsed.Seconds())
}

// RecordCapacityRejection 记录一次容量拒绝
func RecordCapacityRejection(operation string) {
	InitMetrics()
	CapacityRejectionsTotal.WithLabelValues(operation).Inc()
}

// RecordTicketsIssued 记录出票数量
func RecordTicketsIssued(n int) {
	InitMetrics()
	TicketsIssuedTotal.Add(float64(n))
}

// RecordGatewayCall 记录一次支付网关调用
func RecordGatewayCall(operation string, err error, elapsed time.Duration) {
	InitMetrics()
	result := "success"
	if err != nil {
		result = "failure"
	}
	PaymentGatewayRequestsTotal.WithLabelValues(operation, result).Inc()
	PaymentGatewayDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RecordReconciliation 记录一次对账
func RecordReconciliation(gatewayStatus, result string) {
	InitMetrics()
	ReconciliationsTotal.WithLabelValues(gatewayStatus, result).Inc()
}

// RecordBreakerState 记录熔断器状态
func RecordBreakerState(name string, state int) {
	InitMetrics()
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordBreakerRequest 记录熔断器请求结果
func RecordBreakerRequest(name, result string) {
	InitMetrics()
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordPublish 记录一次消息发布
func RecordPublish(broker, topic string, err error) {
	InitMetrics()
	result := "success"
	if err != nil {
		result = "failure"
	}
	MessagesPublishedTotal.WithLabelValues(broker, topic, result).Inc()
}
