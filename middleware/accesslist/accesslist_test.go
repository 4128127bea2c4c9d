package accesslist

import (
	"context"
	"testing"

	"github.com/miekg/dns"
	"github.com/semihalev/ingressdns/config"
	"github.com/semihalev/ingressdns/middleware"
	"github.com/semihalev/ingressdns/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type answer struct{}

func (a *answer) Name() string { return "answer" }
func (a *answer) ServeDNS(ctx context.Context, ch *middleware.Chain) {
	resp := new(dns.Msg)
	resp.SetReply(ch.Request)
	_ = ch.Writer.WriteMsg(resp)
}

func Test_AccesslistDisabled(t *testing.T) {
	assert.Nil(t, New(&config.Config{}))
}

func Test_Accesslist(t *testing.T) {
	cfg := new(config.Config)
	cfg.AccessList = []string{"127.0.0.1/32", "10.0.0.0/8", "fd00::/8", "1"}

	a := New(cfg)
	require.NotNil(t, a)
	assert.Equal(t, "accesslist", a.Name())

	req := new(dns.Msg)
	req.SetQuestion("app.example.com.", dns.TypeA)

	tests := []struct {
		addr  string
		rcode int
	}{
		{"127.0.0.1:0", dns.RcodeSuccess},
		{"10.20.30.40:53", dns.RcodeSuccess},
		{"[fd00::1]:53", dns.RcodeSuccess},
		{"192.168.1.1:53", dns.RcodeRefused},
		{"[2001:db8::1]:53", dns.RcodeRefused},
	}

	for _, tt := range tests {
		mw := mock.NewWriter("udp", tt.addr)

		ch := middleware.NewChain([]middleware.Handler{a, &answer{}})
		ch.Reset(mw, req)
		ch.Next(context.Background())

		assert.Equal(t, tt.rcode, mw.Rcode(), tt.addr)
		assert.Equal(t, 1, mw.Writes(), tt.addr)
	}
}
