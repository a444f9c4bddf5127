package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "ovenprofile"

const (
	MetricSessionsCreated = "sessions_created_total"
	MetricLoadFailures    = "load_failures_total"
	MetricQueries         = "queries_total"
	MetricExports         = "exports_total"
)

var CounterSessionsCreated = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      MetricSessionsCreated,
		Help:      "Sessions whose datasets loaded successfully.",
	},
)

var CounterLoadFailures = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      MetricLoadFailures,
		Help:      "Session loads aborted by a source that could not be read.",
	},
)

// CounterQueries is labelled by outcome: empty, nonempty or error.
var CounterQueries = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      MetricQueries,
		Help:      "Range queries executed.",
	},
	[]string{
		"outcome",
	},
)

// CounterExports is labelled by format: csv or xlsx.
var CounterExports = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      MetricExports,
		Help:      "Filtered data downloads served.",
	},
	[]string{
		"format",
	},
)

func init() {
	prometheus.MustRegister(CounterSessionsCreated)
	prometheus.MustRegister(CounterLoadFailures)
	prometheus.MustRegister(CounterQueries)
	prometheus.MustRegister(CounterExports)
}
