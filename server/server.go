package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/miekg/dns"
	"github.com/semihalev/ingressdns/config"
	"github.com/semihalev/ingressdns/middleware"
	"github.com/semihalev/zlog/v2"
)

// Server answers DNS over UDP, running each packet through the middleware chain.
type Server struct {
	addr string

	chainPool sync.Pool

	conn net.PacketConn
	ctx  context.Context

	started atomic.Bool
	stopped atomic.Bool
}

const shutdownTimeout = 5 * time.Second

// ErrStarted returned when Run is called twice.
var ErrStarted = errors.New("server already started")

// New return new server
func New(cfg *config.Config, handlers []middleware.Handler) *Server {
	server := &Server{
		addr: cfg.Bind,
		ctx:  context.Background(),
	}

	server.chainPool.New = func() any {
		return middleware.NewChain(handlers)
	}

	return server
}

// Listen binds the UDP socket. Run calls it when needed.
func (s *Server) Listen() error {
	if s.conn != nil {
		return nil
	}

	conn, err := net.ListenPacket("udp", s.addr)
	if err != nil {
		return fmt.Errorf("bind udp %s: %w", s.addr, err)
	}

	s.conn = conn

	return nil
}

// Addr returns the bound address, nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.conn == nil {
		return nil
	}

	return s.conn.LocalAddr()
}

// ServeDNS implements the dns.Handler interface.
func (s *Server) ServeDNS(w dns.ResponseWriter, r *dns.Msg) {
	ch := s.chainPool.Get().(*middleware.Chain)

	ch.Reset(w, r)

	ch.Next(s.ctx)

	s.chainPool.Put(ch)
}

// Run serves until ctx is done. Queries in flight see ctx cancelled and
// still get their reply before the socket is released.
func (s *Server) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrStarted
	}

	defer s.stopped.Store(true)

	if err := s.Listen(); err != nil {
		return err
	}

	s.ctx = ctx

	started := make(chan struct{})
	srv := &dns.Server{
		PacketConn:        s.conn,
		Net:               "udp",
		Handler:           s,
		NotifyStartedFunc: func() { close(started) },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ActivateAndServe()
	}()

	select {
	case err := <-errCh:
		_ = s.conn.Close()
		return fmt.Errorf("dns listener failed: %w", err)
	case <-started:
	}

	zlog.Info("DNS server listening...", "net", "udp", "addr", s.conn.LocalAddr().String())

	select {
	case err := <-errCh:
		_ = s.conn.Close()
		if err != nil {
			return fmt.Errorf("dns listener failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.ShutdownContext(shutdownCtx); err != nil {
		zlog.Warn("DNS server shutdown failed", "error", err.Error())
	}

	_ = s.conn.Close()

	zlog.Info("DNS server stopped", "addr", s.conn.LocalAddr().String())

	return nil
}

// Stopped reports whether Run returned.
func (s *Server) Stopped() bool {
	return s.stopped.Load()
}
