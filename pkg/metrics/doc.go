/*
Package metrics defines faktum's Prometheus metrics, a small timing
helper, and HTTP health handlers.

Every metric below is a package-level variable registered with the
default Prometheus registry in init through MustRegister. Handler
returns promhttp.Handler() for exposing them.

# Metrics

Storage:

  - faktum_triples_total{attribute} (gauge)
  - faktum_entities_total (gauge)
  - faktum_attributes_total (gauge)

Transactions:

  - faktum_transactions_total{outcome} (counter)
  - faktum_transaction_duration_seconds (histogram)
  - faktum_triples_written_total (counter)
  - faktum_triples_retracted_total (counter)

Queries:

  - faktum_queries_total{outcome} (counter)
  - faktum_query_duration_seconds (histogram)
  - faktum_query_compile_duration_seconds (histogram)
  - faktum_strata_evaluated_total (counter)
  - faktum_seminaive_iterations_total (counter)
  - faktum_scratch_rows_materialized (histogram, buckets 1, 10, 100,
    1000, 10000 and 100000)

The three duration histograms use prometheus.DefBuckets.

# Timer

NewTimer starts a timer. ObserveDuration records the elapsed seconds
into a Histogram, ObserveDurationVec into the histogram of a
HistogramVec selected by label values, and Duration returns the
elapsed time.

	timer := metrics.NewTimer()
	// ... commit ...
	timer.ObserveDuration(metrics.TransactionDuration)

# Health

health.go keeps a process-wide table of component health.
RegisterComponent and UpdateComponent set a component's entry,
SetVersion sets the reported version, GetHealth and GetReadiness
summarize the table, and HealthHandler, ReadyHandler and
LivenessHandler are the matching HTTP handlers.
*/
package metrics
