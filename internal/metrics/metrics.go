// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordBookingCreated()
	RecordBookingDecision(approved bool)
	RecordCommentCreated()
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	bookingsCreated  prometheus.Counter
	bookingDecisions *prometheus.CounterVec
	commentsCreated  prometheus.Counter
	httpStatus       *prometheus.CounterVec
	requestLatency   prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		bookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shareit_bookings_created_total",
			Help: "作成された予約の合計数",
		}),
		bookingDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shareit_booking_decisions_total",
			Help: "承認・却下された予約の合計数",
		}, []string{"decision"}),
		commentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shareit_comments_created_total",
			Help: "投稿されたコメントの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shareit_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "shareit_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.bookingsCreated,
		c.bookingDecisions,
		c.commentsCreated,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordBookingCreated は予約の作成を記録する。
func (c *Collector) RecordBookingCreated() {
	c.bookingsCreated.Inc()
}

// RecordBookingDecision は予約の承認・却下を記録する。
func (c *Collector) RecordBookingDecision(approved bool) {
	decision := "rejected"
	if approved {
		decision = "approved"
	}
	c.bookingDecisions.WithLabelValues(decision).Inc()
}

// RecordCommentCreated はコメントの投稿を記録する。
func (c *Collector) RecordCommentCreated() {
	c.commentsCreated.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
