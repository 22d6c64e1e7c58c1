// Package metrics registers the Prometheus collectors exported by the
// /metrics endpoint of the management API.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Queries counts client queries by query type mnemonic.
	Queries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "burrowdns_queries_total", Help: "Total DNS queries received"},
		[]string{"qtype"},
	)

	// Responses counts responses sent by response code.
	Responses = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "burrowdns_responses_total", Help: "Total DNS responses sent"},
		[]string{"rcode"},
	)

	// UpstreamExchanges counts upstream lookups by outcome ("ok" or "error").
	UpstreamExchanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "burrowdns_upstream_exchanges_total", Help: "Total upstream DNS exchanges"},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(Queries, Responses, UpstreamExchanges)
}
