package recovery

import (
	"context"
	"os"
	"testing"

	"github.com/miekg/dns"
	"github.com/semihalev/ingressdns/config"
	"github.com/semihalev/ingressdns/middleware"
	"github.com/semihalev/ingressdns/mock"
	"github.com/stretchr/testify/assert"
)

type panicky struct{}

func (p *panicky) Name() string                                      { return "panicky" }
func (p *panicky) ServeDNS(ctx context.Context, ch *middleware.Chain) { panic("boom") }

func Test_recoveryDNS(t *testing.T) {
	stderr := os.Stderr
	os.Stderr, _ = os.Open(os.DevNull)
	defer func() { os.Stderr = stderr }()

	r := New(&config.Config{})
	assert.Equal(t, "recovery", r.Name())

	ch := middleware.NewChain([]middleware.Handler{r, &panicky{}})

	mw := mock.NewWriter("udp", "127.0.0.1:0")
	req := new(dns.Msg)
	req.SetQuestion("test.com.", dns.TypeA)

	ch.Reset(mw, req)
	ch.Next(context.Background())

	assert.Equal(t, dns.RcodeServerFailure, mw.Msg().Rcode)
	assert.Equal(t, 1, mw.Writes())

	mw = mock.NewWriter("udp", "127.0.0.1:0")
	ch = middleware.NewChain([]middleware.Handler{r})
	ch.Reset(mw, req)
	ch.Next(context.Background())

	assert.False(t, mw.Written())
}
