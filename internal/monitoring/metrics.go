package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 拉取会话指标
	FetchSessionsTotal   *prometheus.CounterVec
	FetchMessagesTotal   prometheus.Counter
	FetchParseFailures   prometheus.Counter
	FetchSessionDuration prometheus.Histogram

	// 外发指标
	SendsTotal *prometheus.CounterVec

	// 探测指标
	ProbesTotal *prometheus.CounterVec

	// 系统指标
	PanicsTotal prometheus.Counter
}

// NewMetrics 创建监控指标
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailhub_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mailhub_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		FetchSessionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailhub_fetch_sessions_total",
				Help: "Total number of mailbox fetch sessions",
			},
			[]string{"result"},
		),

		FetchMessagesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mailhub_fetch_messages_total",
				Help: "Total number of messages fetched",
			},
		),

		FetchParseFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mailhub_fetch_parse_failures_total",
				Help: "Total number of messages dropped due to parse failures",
			},
		),

		FetchSessionDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mailhub_fetch_session_duration_seconds",
				Help:    "Mailbox fetch session duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		SendsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailhub_sends_total",
				Help: "Total number of outbound delivery attempts",
			},
			[]string{"result"},
		),

		ProbesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailhub_probes_total",
				Help: "Total number of connectivity probes",
			},
			[]string{"result"},
		),

		PanicsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mailhub_panics_total",
				Help: "Total number of panics",
			},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordFetchSession 记录一次拉取会话的结果和耗时
func (m *Metrics) RecordFetchSession(success bool, messages int, duration time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.FetchSessionsTotal.WithLabelValues(result).Inc()
	m.FetchMessagesTotal.Add(float64(messages))
	m.FetchSessionDuration.Observe(duration.Seconds())
}

// RecordParseFailure 记录一封因解析失败被丢弃的邮件
func (m *Metrics) RecordParseFailure() {
	if m == nil {
		return
	}
	m.FetchParseFailures.Inc()
}

// RecordSend 记录一次外发投递结果
func (m *Metrics) RecordSend(success bool) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.SendsTotal.WithLabelValues(result).Inc()
}

// RecordProbe 记录一次连通性探测结果
func (m *Metrics) RecordProbe(success bool) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.ProbesTotal.WithLabelValues(result).Inc()
}

// RecordPanic 记录 panic
func (m *Metrics) RecordPanic() {
	if m == nil {
		return
	}
	m.PanicsTotal.Inc()
}

// HTTPHandler 返回 Prometheus HTTP 处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.Handler()
}
