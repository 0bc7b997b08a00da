package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nannylink",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nannylink",
			Name:      "transitions_total",
			Help:      "Domain state transitions by event type.",
		},
		[]string{"event_type"},
	)

	summaryRefreshes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nannylink",
			Name:      "summary_refreshes_total",
			Help:      "Summary recomputations performed by the refresh worker.",
		},
	)

	journalAppendErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nannylink",
			Name:      "journal_append_errors_total",
			Help:      "Change log appends that failed after the state change committed; replayed history is incomplete until repaired.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, transitions, summaryRefreshes, journalAppendErrors)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncTransition counts one domain state transition.
func IncTransition(eventType string) {
	transitions.WithLabelValues(eventType).Inc()
}

// IncSummaryRefresh counts one worker-driven recomputation.
func IncSummaryRefresh() {
	summaryRefreshes.Inc()
}

// IncJournalAppendError counts a change log append failure. Non-zero
// means the journal no longer covers every committed transition.
func IncJournalAppendError() {
	journalAppendErrors.Inc()
}

// JournalAppendErrorCount reads the failure counter, for health checks
// and tests.
func JournalAppendErrorCount() float64 {
	m := &dto.Metric{}
	_ = journalAppendErrors.Write(m)
	return m.GetCounter().GetValue()
}
