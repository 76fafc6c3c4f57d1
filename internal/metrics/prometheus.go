package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "recipeapp"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	gatewayRequests   *prom.CounterVec
	gatewayDuration   *prom.HistogramVec
	favoriteMutations *prom.CounterVec
	searchSuperseded  prom.Counter
}

// NewPrometheusRecorder constructs and registers the metrics on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		gatewayRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_requests_total",
			Help:      "Catalog requests by operation and result",
		}, []string{"operation", "result"}),
		gatewayDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Catalog request latency including retries",
			Buckets:   prom.DefBuckets,
		}, []string{"operation"}),
		favoriteMutations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "favorites_mutations_total",
			Help:      "Favorites store writes by operation and result",
		}, []string{"operation", "result"}),
		searchSuperseded: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "searches_superseded_total",
			Help:      "Pending or in-flight searches cancelled by a newer trigger",
		}),
	}
	reg.MustRegister(pr.gatewayRequests, pr.gatewayDuration, pr.favoriteMutations, pr.searchSuperseded)
	return pr
}

func (p *PrometheusRecorder) GatewayRequest(operation string, err error, d time.Duration) {
	if p == nil {
		return
	}
	p.gatewayRequests.WithLabelValues(operation, string(Result(err))).Inc()
	p.gatewayDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (p *PrometheusRecorder) FavoriteMutation(operation string, err error) {
	if p == nil {
		return
	}
	p.favoriteMutations.WithLabelValues(operation, string(Result(err))).Inc()
}

func (p *PrometheusRecorder) SearchSuperseded() {
	if p == nil {
		return
	}
	p.searchSuperseded.Inc()
}

// Handler returns an http.Handler that serves the metrics in reg.
func Handler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
