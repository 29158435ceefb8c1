package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ResponseTimeHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_time_seconds",
			Help:    "Histogram of response times",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	PayoutsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewards_payouts_created_total",
			Help: "Payouts created by the daily job, by payout type",
		},
		[]string{"type"},
	)

	DailyJobRowFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewards_daily_job_row_failures_total",
			Help: "Rows the daily job skipped because of an error, by phase",
		},
		[]string{"phase"},
	)

	DailyJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rewards_daily_job_duration_seconds",
			Help:    "Duration of daily payout runs",
			Buckets: prometheus.DefBuckets,
		},
	)

	DailyAmountCents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rewards_daily_amount_cents",
			Help: "Per-user amount computed by the latest daily run",
		},
	)

	PayoutRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewards_payout_requests_total",
			Help: "Payout request attempts, by result",
		},
		[]string{"result"},
	)
)
