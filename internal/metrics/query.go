package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	listQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tourdex",
			Name:      "list_queries_total",
			Help:      "Total number of list queries per entity type",
		},
		[]string{"entity"},
	)

	listQueryResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tourdex",
			Name:      "list_query_results",
			Help:      "Match set size of list queries before pagination",
			Buckets:   []float64{0, 1, 10, 50, 100, 500, 1000, 5000, 10000},
		},
		[]string{"entity"},
	)
)

func init() {
	prometheus.MustRegister(listQueriesTotal)
	prometheus.MustRegister(listQueryResults)
}

// ObserveListQuery records one executed list query and its match set size.
func ObserveListQuery(entityType string, totalCount int) {
	listQueriesTotal.WithLabelValues(entityType).Inc()
	listQueryResults.WithLabelValues(entityType).Observe(float64(totalCount))
}
