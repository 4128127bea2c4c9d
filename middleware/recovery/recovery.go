package recovery

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/miekg/dns"
	"github.com/semihalev/ingressdns/config"
	"github.com/semihalev/ingressdns/middleware"
	"github.com/semihalev/zlog/v2"
)

// Recovery turns a panic in a later handler into a SERVFAIL reply.
type Recovery struct{}

// New return recovery.
func New(cfg *config.Config) *Recovery {
	return &Recovery{}
}

// Name return middleware name.
func (r *Recovery) Name() string { return name }

// ServeDNS implements the Handler interface.
func (r *Recovery) ServeDNS(ctx context.Context, ch *middleware.Chain) {
	defer func() {
		if rec := recover(); rec != nil {
			ch.CancelWithRcode(dns.RcodeServerFailure)

			zlog.Error("Recovered in ServeDNS", "recover", rec)

			_, _ = fmt.Fprintf(os.Stderr, "panic: %v\n\n%s", rec, debug.Stack())
		}
	}()

	ch.Next(ctx)
}

const name = "recovery"
