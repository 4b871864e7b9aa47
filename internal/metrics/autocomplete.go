package metrics

import "github.com/prometheus/client_golang/prometheus"

// Autocomplete and search gateway Prometheus metrics.
var (
	SourceFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "autocomplete_source_fetch_total",
			Help:      "Suggestion source fetches by outcome",
		},
		[]string{"source", "status"}, // "ok" / "error" / "overloaded"
	)

	SourceFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storefront",
			Name:      "autocomplete_source_fetch_duration_seconds",
			Help:      "Suggestion source fetch duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"source"},
	)

	StaleResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "autocomplete_stale_results_total",
			Help:      "Source results dropped because a newer generation or request superseded them",
		},
		[]string{"source"},
	)

	CommitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "query_commits_total",
			Help:      "Query state commits by trigger",
		},
		[]string{"trigger"}, // "debounce" / "submit" / "select"
	)

	PanelSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "storefront",
			Name:      "autocomplete_panel_sessions",
			Help:      "Mounted autocomplete panels",
		},
	)

	GatewayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "search_gateway_requests_total",
			Help:      "Requests to the hosted search service",
		},
		[]string{"index", "operation", "status"},
	)

	GatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storefront",
			Name:      "search_gateway_request_duration_seconds",
			Help:      "Hosted search request duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "search_cache_total",
			Help:      "Search response cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var storefrontMetricsRegistered bool

// RegisterStorefrontMetrics registers autocomplete and gateway metrics. Must be called once from main.
func RegisterStorefrontMetrics() {
	if storefrontMetricsRegistered {
		return
	}
	prometheus.MustRegister(SourceFetchTotal)
	prometheus.MustRegister(SourceFetchDuration)
	prometheus.MustRegister(StaleResultsTotal)
	prometheus.MustRegister(CommitsTotal)
	prometheus.MustRegister(PanelSessions)
	prometheus.MustRegister(GatewayRequestsTotal)
	prometheus.MustRegister(GatewayRequestDuration)
	prometheus.MustRegister(SearchCacheTotal)
	storefrontMetricsRegistered = true
}
