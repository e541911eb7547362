package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Storage metrics
	TriplesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "faktum_triples_total",
			Help: "Total number of live triples by attribute",
		},
		[]string{"attribute"},
	)

	EntitiesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "faktum_entities_total",
			Help: "Total number of permanent entity ids allocated",
		},
	)

	AttributesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "faktum_attributes_total",
			Help: "Total number of attributes registered in the catalog",
		},
	)

	// Transaction metrics
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faktum_transactions_total",
			Help: "Total number of write transactions by outcome",
		},
		[]string{"outcome"},
	)

	TransactionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "faktum_transaction_duration_seconds",
			Help:    "Time taken to commit a write transaction in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	TriplesWrittenTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "faktum_triples_written_total",
			Help: "Total number of triples asserted across all transactions",
		},
	)

	TriplesRetractedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "faktum_triples_retracted_total",
			Help: "Total number of triples retracted across all transactions",
		},
	)

	// Query metrics
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faktum_queries_total",
			Help: "Total number of queries run by outcome",
		},
		[]string{"outcome"},
	)

	QueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "faktum_query_duration_seconds",
			Help:    "Time taken to compile and evaluate a query in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	QueryCompileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "faktum_query_compile_duration_seconds",
			Help:    "Time taken to normalize, stratify, and compile a program in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	StrataEvaluatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "faktum_strata_evaluated_total",
			Help: "Total number of strata evaluated across all queries",
		},
	)

	SemiNaiveIterationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "faktum_seminaive_iterations_total",
			Help: "Total number of semi-naive fixpoint iterations across all strata",
		},
	)

	ScratchRowsMaterialized = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "faktum_scratch_rows_materialized",
			Help:    "Rows materialized into a scratch table per relation evaluation",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000},
		},
	)
)

func init() {
	prometheus.MustRegister(TriplesTotal)
	prometheus.MustRegister(EntitiesTotal)
	prometheus.MustRegister(AttributesTotal)
	prometheus.MustRegister(TransactionsTotal)
	prometheus.MustRegister(TransactionDuration)
	prometheus.MustRegister(TriplesWrittenTotal)
	prometheus.MustRegister(TriplesRetractedTotal)
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueryCompileDuration)
	prometheus.MustRegister(StrataEvaluatedTotal)
	prometheus.MustRegister(SemiNaiveIterationsTotal)
	prometheus.MustRegister(ScratchRowsMaterialized)
}

// Handler returns the Prometheus HTTP handler, exposed by the CLI's
// optional serve subcommand.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to the histogram of a histogram
// vector selected by labelValues.
func (t *Timer) ObserveDurationVec(histogram *prometheus.HistogramVec, labelValues ...string) {
	histogram.WithLabelValues(labelValues...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
