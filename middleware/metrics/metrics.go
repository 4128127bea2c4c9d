package metrics

import (
	"context"
	"errors"

	"github.com/miekg/dns"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/semihalev/ingressdns/config"
	"github.com/semihalev/ingressdns/middleware"
)

// Metrics counts replies by question type and rcode.
type Metrics struct {
	queries *prometheus.CounterVec
}

// New return new metrics
func New(cfg *config.Config) *Metrics {
	queries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dns_queries_total",
			Help: "How many DNS queries processed",
		},
		[]string{"qtype", "rcode"},
	)

	if err := prometheus.Register(queries); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			queries = are.ExistingCollector.(*prometheus.CounterVec)
		}
	}

	return &Metrics{queries: queries}
}

// Name return middleware name
func (m *Metrics) Name() string { return name }

// ServeDNS implements the Handler interface.
func (m *Metrics) ServeDNS(ctx context.Context, ch *middleware.Chain) {
	ch.Next(ctx)

	if !ch.Writer.Written() {
		return
	}

	qtype := "NONE"
	if len(ch.Request.Question) > 0 {
		qtype = dns.TypeToString[ch.Request.Question[0].Qtype]
	}

	m.queries.With(
		prometheus.Labels{
			"qtype": qtype,
			"rcode": dns.RcodeToString[ch.Writer.Rcode()],
		}).Inc()
}

const name = "metrics"
