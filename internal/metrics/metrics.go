package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "smartmail"

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by a rate limiter",
		},
		[]string{"limiter"},
	)
)

// Generation metrics
var (
	EmailsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_generated_total",
			Help:      "Emails returned to callers, by how they were produced",
		},
		[]string{"source"}, // "ai" or "fallback"
	)

	FallbackReasons = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_fallbacks_total",
			Help:      "Fallback emails by cause",
		},
		[]string{"reason"},
	)

	QuotaRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_rejections_total",
			Help:      "Generations refused because the free daily limit was reached",
		},
	)

	EmailsSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_saved_total",
			Help:      "Generated emails saved by Pro users",
		},
	)
)

// AI provider metrics (aggregate totals - no user label to avoid cardinality)
var (
	AIAPICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_api_calls_total",
			Help:      "Total number of AI API calls",
		},
		[]string{"provider", "status"},
	)

	AIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_request_duration_seconds",
			Help:      "AI completion latency",
			Buckets:   []float64{.25, .5, 1, 2, 4, 8, 15, 30},
		},
		[]string{"provider"},
	)

	AITokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_tokens_total",
			Help:      "Total AI tokens consumed",
		},
		[]string{"type"}, // "input" or "output"
	)
)

// Payment metrics
var (
	PaymentOrders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_orders_total",
			Help:      "Checkout orders by outcome",
		},
		[]string{"plan", "status"},
	)

	PaymentVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_verifications_total",
			Help:      "Payment signature verifications by outcome",
		},
		[]string{"result"},
	)

	ProUpgrades = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pro_upgrades_total",
			Help:      "Profiles upgraded to Pro",
		},
	)

	ReceiptDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipt_deliveries_total",
			Help:      "Receipt side effects by channel and outcome",
		},
		[]string{"channel", "status"}, // channel: "storage" or "email"
	)
)
