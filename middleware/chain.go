package middleware

import (
	"context"

	"github.com/miekg/dns"
)

// Chain carries one query through the handlers. Chains are pooled by the
// server and must not be used after the last handler returned.
type Chain struct {
	Writer  ResponseWriter
	Request *dns.Msg

	handlers []Handler

	next  int
	count int
}

// NewChain return new fresh chain.
func NewChain(handlers []Handler) *Chain {
	return &Chain{
		Writer:   &responseWriter{},
		handlers: handlers,
		count:    len(handlers),
	}
}

// Next calls the next handler in the chain, if any.
func (ch *Chain) Next(ctx context.Context) {
	if ch.count == 0 || ch.next >= len(ch.handlers) {
		return
	}

	handler := ch.handlers[ch.next]
	ch.next++
	ch.count--

	handler.ServeDNS(ctx, ch)
}

// Cancel stops the remaining handlers.
func (ch *Chain) Cancel() {
	ch.count = 0
}

// CancelWithRcode writes an empty reply with rcode and stops the remaining handlers.
func (ch *Chain) CancelWithRcode(rcode int) {
	if !ch.Writer.Written() {
		m := new(dns.Msg)
		m.SetRcode(ch.Request, rcode)
		m.RecursionAvailable = true

		_ = ch.Writer.WriteMsg(m)
	}

	ch.count = 0
}

// Reset prepares the chain for a new query.
func (ch *Chain) Reset(w dns.ResponseWriter, r *dns.Msg) {
	ch.Writer.Reset(w)
	ch.Request = r
	ch.count = len(ch.handlers)
	ch.next = 0
}
