package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 予約操作の総数（operation: create/allocate/transition, status: success/conflict/expired/invalid/error）
	ReservationOpsTotal *prometheus.CounterVec

	// 1回の確保操作で割当てた座席数
	SeatsAllocated prometheus.Histogram

	// 状態ごとの予約数（status: pending, paid, cancelled）
	ReservationsByStatus *prometheus.GaugeVec

	// 期限切れスイープでキャンセルした予約の総数
	ExpiredSweepTotal prometheus.Counter
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ReservationOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reservation_operations_total",
				Help: "Total number of reservation operations by outcome",
			},
			[]string{"operation", "status"},
		),
		SeatsAllocated: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "seats_allocated_per_request",
				Help:    "Number of seats attached per successful allocation",
				Buckets: []float64{1, 2, 3, 4, 5, 8, 10, 15, 20},
			},
		),
		ReservationsByStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "reservations_by_status",
				Help: "Current number of reservations per status",
			},
			[]string{"status"},
		),
		ExpiredSweepTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "expired_reservations_cancelled_total",
				Help: "Total number of expired pending reservations cancelled by the sweeper",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ReservationOpsTotal,
		m.SeatsAllocated,
		m.ReservationsByStatus,
		m.ExpiredSweepTotal,
	)

	return m
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す（未初期化ならnil）
func Get() *Metrics {
	return defaultMetrics
}
