// Package responder answers A and ANY queries for names routed by an Ingress.
//
// A name present as an Ingress host, literally or under a "*.suffix" wildcard,
// is answered with the pod address. Anything else gets an empty NOERROR reply,
// held back by the NoData delay so a sibling responder with a positive answer
// reaches the client first.
package responder

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/semihalev/ingressdns/config"
	"github.com/semihalev/ingressdns/delay"
	"github.com/semihalev/ingressdns/ingress"
	"github.com/semihalev/ingressdns/middleware"
	"github.com/semihalev/zlog/v2"
)

// Fetcher returns the current ingress rules.
type Fetcher interface {
	Fetch(ctx context.Context) ([]ingress.Rule, error)
}

// Responder type
type Responder struct {
	podIP   net.IP
	timeout time.Duration

	delay   *delay.Store
	fetcher Fetcher
}

// TTL of every answer record.
const TTL = 300

// New returns a responder answering with cfg.PodIP.
func New(cfg *config.Config, store *delay.Store, fetcher Fetcher) *Responder {
	return &Responder{
		podIP:   net.ParseIP(cfg.PodIP).To4(),
		timeout: cfg.FetchTimeout.Duration,
		delay:   store,
		fetcher: fetcher,
	}
}

// Name return middleware name
func (r *Responder) Name() string { return name }

// ServeDNS implements the Handler interface.
func (r *Responder) ServeDNS(ctx context.Context, ch *middleware.Chain) {
	req := ch.Request

	candidates := Candidates(req)
	zlog.Debug("Request", "id", req.Id, "names", candidates)

	confirmed := r.confirm(ctx, candidates)
	resp := r.reply(req, confirmed)

	if len(confirmed) > 0 {
		zlog.Debug("Confirmed names", "id", req.Id, "names", confirmed)
		responses.WithLabelValues(resultAnswer).Inc()
	} else {
		responses.WithLabelValues(resultNoData).Inc()
	}

	if d := r.delay.Duration(); len(confirmed) == 0 && len(candidates) > 0 && d > 0 {
		zlog.Debug("Delayed response", "id", req.Id, "delay_ms", d.Milliseconds())
		nodataDelayed.Inc()

		wait(ctx, d)
	} else {
		zlog.Debug("Direct response", "id", req.Id)
	}

	if err := ch.Writer.WriteMsg(resp); err != nil {
		zlog.Debug("Reply write failed", "id", req.Id, "error", err.Error())
	}

	ch.Cancel()
}

// confirm lists ingress rules and matches candidates against them. A failed
// or slow list call confirms nothing.
func (r *Responder) confirm(ctx context.Context, candidates []string) []string {
	if len(candidates) == 0 {
		return nil
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	rules, err := r.fetcher.Fetch(ctx)
	fetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		fetchErrors.Inc()
		zlog.Error("Ingress fetch failed", "names", candidates, "error", err.Error())
		return nil
	}

	return ingress.Match(candidates, rules)
}

func (r *Responder) reply(req *dns.Msg, confirmed []string) *dns.Msg {
	resp := new(dns.Msg)
	resp.SetReply(req)
	resp.Question = append([]dns.Question(nil), req.Question...)
	resp.RecursionAvailable = true

	for _, name := range confirmed {
		resp.Answer = append(resp.Answer, &dns.A{
			Hdr: dns.RR_Header{
				Name:   dns.Fqdn(name),
				Rrtype: dns.TypeA,
				Class:  dns.ClassINET,
				Ttl:    TTL,
			},
			A: r.podIP,
		})
	}

	return resp
}

// Candidates returns the names asked with type A or ANY, in question order,
// without the trailing root dot.
func Candidates(req *dns.Msg) []string {
	var names []string

	for _, q := range req.Question {
		if q.Qtype != dns.TypeA && q.Qtype != dns.TypeANY {
			continue
		}

		names = append(names, strings.TrimSuffix(q.Name, "."))
	}

	return names
}

// wait sleeps d or until ctx is done.
func wait(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

const name = "responder"
