package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QuotationRequests counts quotation requests by how they ended.
	QuotationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fee_quotation",
			Name:      "requests_total",
			Help:      "Total number of fee quotation requests",
		},
		[]string{"outcome"},
	)

	// Webhooks counts inbound webhook deliveries by result.
	Webhooks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fee_quotation",
			Name:      "webhooks_total",
			Help:      "Total number of fee quotation webhook deliveries",
		},
		[]string{"result"},
	)

	// QuotationAPIDuration measures outbound quotation API calls.
	QuotationAPIDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fee_quotation",
			Name:      "api_request_duration_seconds",
			Help:      "Duration of calls to journal quotation APIs in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// RecordQuotationRequest counts one request outcome such as "presented",
// "reused", "error" or "failed".
func RecordQuotationRequest(outcome string) {
	QuotationRequests.WithLabelValues(outcome).Inc()
}

// RecordWebhook counts one webhook result such as "accepted" or "rejected".
func RecordWebhook(result string) {
	Webhooks.WithLabelValues(result).Inc()
}

// ObserveQuotationAPI records an outbound call duration in seconds.
func ObserveQuotationAPI(seconds float64) {
	QuotationAPIDuration.Observe(seconds)
}
