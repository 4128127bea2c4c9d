package responder

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	responses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingressdns_responses_total",
		Help: "Replies sent, by result (answer or nodata)",
	}, []string{"result"})

	nodataDelayed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingressdns_nodata_delayed_total",
		Help: "NoData replies held back by the configured delay",
	})

	fetchErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingressdns_ingress_fetch_errors_total",
		Help: "Failed ingress list calls",
	})

	fetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ingressdns_ingress_fetch_duration_seconds",
		Help:    "Ingress list call latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(responses)
	prometheus.MustRegister(nodataDelayed)
	prometheus.MustRegister(fetchErrors)
	prometheus.MustRegister(fetchDuration)
}

const (
	resultAnswer = "answer"
	resultNoData = "nodata"
)
