package ratelimit

import (
	"context"
	"net"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/miekg/dns"
	"github.com/semihalev/ingressdns/config"
	"github.com/semihalev/ingressdns/middleware"
	"github.com/semihalev/zlog/v2"
)

// RateLimit limits queries per client address. Clients over the limit are
// answered REFUSED, so every query still gets exactly one reply.
type RateLimit struct {
	store *LimiterStore
	rate  int
}

// New return ratelimit, nil when client rate limiting is disabled.
func New(cfg *config.Config) *RateLimit {
	if cfg.ClientRateLimit <= 0 {
		return nil
	}

	return &RateLimit{
		store: NewLimiterStore(storeSize, cfg.ClientRateLimit),
		rate:  cfg.ClientRateLimit,
	}
}

// Name return middleware name
func (r *RateLimit) Name() string { return name }

// ServeDNS implements the Handler interface.
func (r *RateLimit) ServeDNS(ctx context.Context, ch *middleware.Chain) {
	ip := ch.Writer.RemoteIP()
	if ip == nil || ip.IsLoopback() {
		ch.Next(ctx)
		return
	}

	if !r.store.Get(key(ip)).Allow() {
		zlog.Debug("Client rate limited", "client", ip.String())
		ch.CancelWithRcode(dns.RcodeRefused)
		return
	}

	ch.Next(ctx)
}

// Run drops idle limiters until ctx is done.
func (r *RateLimit) Run(ctx context.Context) error {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.store.Cleanup(idleTimeout)
		}
	}
}

func key(ip net.IP) uint64 {
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}

	return xxhash.Sum64(ip)
}

const (
	storeSize       = 256 * 100
	cleanupInterval = 5 * time.Minute
	idleTimeout     = 10 * time.Minute

	name = "ratelimit"
)
