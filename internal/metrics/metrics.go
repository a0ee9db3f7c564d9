package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)
)

// Ledger Metrics
var (
	LedgerOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameLedgerOperations,
			Help: HelpTextLedgerOperations,
		},
		[]string{LabelOperation, LabelOutcome},
	)

	CreditsGranted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameCreditsGranted,
			Help: HelpTextCreditsGranted,
		},
		[]string{LabelKind},
	)

	CreditsWithdrawn = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameCreditsWithdrawn,
			Help: HelpTextCreditsWithdrawn,
		},
	)

	AccountsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameAccountsTotal,
			Help: HelpTextAccountsTotal,
		},
	)

	AccountsVerified = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameAccountsVerified,
			Help: HelpTextAccountsVerified,
		},
	)
)

// Transport Metrics
var (
	UpdatesHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameUpdatesHandled,
			Help: HelpTextUpdatesHandled,
		},
		[]string{LabelKind},
	)
)

// ObserveLedgerOp counts one ledger operation. outcome is OutcomeOK,
// OutcomeError, or the name of a business rejection.
func ObserveLedgerOp(operation, outcome string) {
	LedgerOperations.WithLabelValues(operation, outcome).Inc()
}
