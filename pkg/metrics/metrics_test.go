package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// TestInitMetrics 测试指标初始化
func TestInitMetrics(t *testing.T) {
	InitMetrics()
	InitMetrics() // 重复调用不应panic(重复注册)

	if HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal未初始化")
	}
	if OrderTransitionsTotal == nil {
		t.Error("OrderTransitionsTotal未初始化")
	}
	if PaymentGatewayRequestsTotal == nil {
		t.Error("PaymentGatewayRequestsTotal未初始化")
	}
}

// TestRecordTransition 测试状态转换指标
func TestRecordTransition(t *testing.T) {
	RecordTransition("PENDING", "PAID", "applied", 20*time.Millisecond)
	RecordTransition("PENDING", "PAID", "applied", 30*time.Millisecond)
	RecordTransition("PAID", "PENDING", "rejected", time.Millisecond)

	applied := getCounterVecValue(t, OrderTransitionsTotal, map[string]string{"from": "PENDING", "to": "PAID", "result": "applied"})
	if applied != 2 {
		t.Errorf("applied计数错误: expected=2, got=%f", applied)
	}

	rejected := getCounterVecValue(t, OrderTransitionsTotal, map[string]string{"from": "PAID", "to": "PENDING", "result": "rejected"})
	if rejected != 1 {
		t.Errorf("rejected计数错误: expected=1, got=%f", rejected)
	}

	count := getHistogramVecCount(t, OrderTransitionDuration, map[string]string{"to": "PAID"})
	if count != 2 {
		t.Errorf("耗时观测次数错误: expected=2, got=%d", count)
	}
}

// TestRecordTicketsIssued 测试出票计数
func TestRecordTicketsIssued(t *testing.T) {
	InitMetrics()
	before := getCounterValue(t, TicketsIssuedTotal)
	RecordTicketsIssued(3)
	after := getCounterValue(t, TicketsIssuedTotal)
	if after-before != 3 {
		t.Errorf("出票计数错误: expected=+3, got=+%f", after-before)
	}
}

// TestRecordGatewayCall 测试支付网关调用指标
func TestRecordGatewayCall(t *testing.T) {
	RecordGatewayCall("create_session", nil, 100*time.Millisecond)
	RecordGatewayCall("create_session", errors.New("timeout"), 3*time.Second)
	RecordGatewayCall("fetch_status", nil, 50*time.Millisecond)

	success := getCounterVecValue(t, PaymentGatewayRequestsTotal, map[string]string{"operation": "create_session", "result": "success"})
	failure := getCounterVecValue(t, PaymentGatewayRequestsTotal, map[string]string{"operation": "create_session", "result": "failure"})
	if success != 1 || failure != 1 {
		t.Errorf("网关调用计数错误: success=%f failure=%f", success, failure)
	}

	sum := getHistogramVecSum(t, PaymentGatewayDuration, map[string]string{"operation": "fetch_status"})
	if sum != 0.05 {
		t.Errorf("网关耗时总和错误: expected=0.05, got=%f", sum)
	}
}

// TestBreakerGauge 测试熔断器状态Gauge
func TestBreakerGauge(t *testing.T) {
	RecordBreakerState("payment-gateway", 1)
	RecordBreakerRequest("payment-gateway", "rejected")

	state := getGaugeVecValue(t, CircuitBreakerState, map[string]string{"name": "payment-gateway"})
	if state != 1 {
		t.Errorf("熔断器状态错误: expected=1, got=%f", state)
	}

	RecordBreakerState("payment-gateway", 0)
	state = getGaugeVecValue(t, CircuitBreakerState, map[string]string{"name": "payment-gateway"})
	if state != 0 {
		t.Errorf("熔断器状态错误: expected=0, got=%f", state)
	}
}

// TestHTTPInProgress 模拟HTTP请求处理
func TestHTTPInProgress(t *testing.T) {
	InitMetrics()
	SetGauge(HTTPRequestsInProgress, 0)

	for i := 0; i < 10; i++ {
		IncGauge(HTTPRequestsInProgress)
		ObserveHistogramVec(HTTPRequestDuration, map[string]string{"method": "POST", "path": "/api/v1/orders"}, 0.01)
		IncCounterVec(HTTPRequestsTotal, map[string]string{"method": "POST", "path": "/api/v1/orders", "status": "201"})
		DecGauge(HTTPRequestsInProgress)
	}

	if v := getGaugeValue(t, HTTPRequestsInProgress); v != 0 {
		t.Errorf("正在处理的请求数错误: expected=0, got=%f", v)
	}
	if v := getCounterVecValue(t, HTTPRequestsTotal, map[string]string{"method": "POST", "path": "/api/v1/orders", "status": "201"}); v != 10 {
		t.Errorf("请求总数错误: expected=10, got=%f", v)
	}
}

// 辅助函数：获取Counter值
func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("读取Counter值失败: %v", err)
	}
	return metric.Counter.GetValue()
}

// 辅助函数：获取CounterVec值
func getCounterVecValue(t *testing.T, counterVec *prometheus.CounterVec, labels map[string]string) float64 {
	var metric dto.Metric
	counter := counterVec.With(labels)
	if err := counter.(prometheus.Counter).Write(&metric); err != nil {
		t.Fatalf("读取CounterVec值失败: %v", err)
	}
	return metric.Counter.GetValue()
}

// 辅助函数：获取Gauge值
func getGaugeValue(t *testing.T, gauge prometheus.Gauge) float64 {
	var metric dto.Metric
	if err := gauge.Write(&metric); err != nil {
		t.Fatalf("读取Gauge值失败: %v", err)
	}
	return metric.Gauge.GetValue()
}

// 辅助函数：获取GaugeVec值
func getGaugeVecValue(t *testing.T, gaugeVec *prometheus.GaugeVec, labels map[string]string) float64 {
	var metric dto.Metric
	gauge := gaugeVec.With(labels)
	if err := gauge.(prometheus.Gauge).Write(&metric); err != nil {
		t.Fatalf("读取GaugeVec值失败: %v", err)
	}
	return metric.Gauge.GetValue()
}

// 辅助函数：获取HistogramVec观测次数
func getHistogramVecCount(t *testing.T, histogramVec *prometheus.HistogramVec, labels map[string]string) uint64 {
	var metric dto.Metric
	histogram := histogramVec.With(labels)
	if err := histogram.(prometheus.Histogram).Write(&metric); err != nil {
		t.Fatalf("读取HistogramVec值失败: %v", err)
	}
	return metric.Histogram.GetSampleCount()
}

// 辅助函数：获取HistogramVec总和
func getHistogramVecSum(t *testing.T, histogramVec *prometheus.HistogramVec, labels map[string]string) float64 {
	var metric dto.Metric
	histogram := histogramVec.With(labels)
	if err := histogram.(prometheus.Histogram).Write(&metric); err != nil {
		t.Fatalf("读取HistogramVec值失败: %v", err)
	}
	return metric.Histogram.GetSampleSum()
}
