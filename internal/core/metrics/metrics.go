package metrics

import "github.com/prometheus/client_golang/prometheus"

// 业务指标；HTTP 指标在 transport/http/middleware
var (
	EntriesSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "waste_entries_submitted_total",
		Help: "Count of submitted waste entries",
	})
	StatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "waste_status_transitions_total", Help: "Count of status transitions"},
		[]string{"from", "to"},
	)
	EntriesDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "waste_entries_deleted_total", Help: "Count of deleted waste entries"},
		[]string{"workflow"}, // family / center
	)
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "notifications_total", Help: "Count of emitted notifications"},
		[]string{"kind", "result"},
	)
)

func init() {
	prometheus.MustRegister(EntriesSubmitted, StatusTransitions, EntriesDeleted, Notifications)
}
