package metrics

import "time"

// Outcome labels shared by the recorders below.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// GenerationServed records an email returned to a caller.
func GenerationServed(source string) {
	EmailsGenerated.WithLabelValues(source).Inc()
}

// GenerationFellBack records why the fallback template was used.
func GenerationFellBack(reason string) {
	FallbackReasons.WithLabelValues(reason).Inc()
}

// AICallCompleted records a provider call, its latency and token usage.
// status is "success" or an error class such as "rate_limit" or "unavailable".
func AICallCompleted(provider, status string, duration time.Duration, inputTokens, outputTokens int) {
	AIAPICalls.WithLabelValues(provider, status).Inc()
	AIRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
	if inputTokens > 0 {
		AITokensTotal.WithLabelValues("input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		AITokensTotal.WithLabelValues("output").Add(float64(outputTokens))
	}
}

// OrderCreated records a checkout order outcome.
func OrderCreated(plan, status string) {
	PaymentOrders.WithLabelValues(plan, status).Inc()
}

// PaymentVerified records a verification outcome: "verified",
// "signature_mismatch", or "error".
func PaymentVerified(result string) {
	PaymentVerifications.WithLabelValues(result).Inc()
	if result == "verified" {
		ProUpgrades.Inc()
	}
}

// ReceiptDelivered records a receipt side effect.
func ReceiptDelivered(channel string, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailed
	}
	ReceiptDeliveries.WithLabelValues(channel, status).Inc()
}
