package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ResolveDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricing_resolve_latency_seconds",
		Help:    "Latency of the discount resolve endpoint",
		Buckets: prometheus.DefBuckets,
	})

	ResolveTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pricing_resolve_total",
		Help: "Total pricing requests served",
	})

	TouchTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_touch_total",
		Help: "Total cart activity events recorded",
	})
)

func Init() {
	prometheus.MustRegister(ResolveDuration, ResolveTotal, TouchTotal)
}
