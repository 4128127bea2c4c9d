package accesslog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
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
	resp.Answer = append(resp.Answer, &dns.A{
		Hdr: dns.RR_Header{Name: ch.Request.Question[0].Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 300},
		A:   []byte{10, 0, 0, 1},
	})
	_ = ch.Writer.WriteMsg(resp)
}

func Test_accesslogDisabled(t *testing.T) {
	assert.Nil(t, New(&config.Config{}))
	assert.Nil(t, New(&config.Config{AccessLog: filepath.Join(t.TempDir(), "missing", "access.log")}))
}

func Test_accesslog(t *testing.T) {
	cfg := &config.Config{
		AccessLog: filepath.Join(t.TempDir(), "access.log"),
	}

	a := New(cfg)
	require.NotNil(t, a)
	assert.Equal(t, "accesslog", a.Name())

	ch := middleware.NewChain([]middleware.Handler{a, &answer{}})

	req := new(dns.Msg)
	req.SetQuestion("app.example.com.", dns.TypeA)

	mw := mock.NewWriter("udp", "10.1.1.1:5353")
	ch.Reset(mw, req)
	ch.Next(context.Background())

	assert.Equal(t, dns.RcodeSuccess, mw.Msg().Rcode)

	ch = middleware.NewChain([]middleware.Handler{a})
	ch.Reset(mock.NewWriter("udp", "10.1.1.2:5353"), req)
	ch.Next(context.Background())

	assert.NoError(t, a.Close())

	data, err := os.ReadFile(cfg.AccessLog)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	assert.True(t, strings.HasPrefix(lines[0], "10.1.1.1 - ["))
	assert.Contains(t, lines[0], `"app.example.com. IN A" udp NOERROR 1 `)
}
