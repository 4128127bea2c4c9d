// Package mock provides a dns.ResponseWriter for handler tests.
package mock

import (
	"net"
	"sync"
	"time"

	"github.com/miekg/dns"
)

// Writer type
type Writer struct {
	mu     sync.Mutex
	msg    *dns.Msg
	writes int
	at     time.Time
	done   chan struct{}

	proto string

	localAddr  net.Addr
	remoteAddr net.Addr

	remoteip net.IP
}

// NewWriter return writer
func NewWriter(proto, addr string) *Writer {
	w := &Writer{done: make(chan struct{})}

	switch proto {
	case "tcp":
		w.localAddr = &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 53}
		w.remoteAddr, _ = net.ResolveTCPAddr("tcp", addr)
		w.remoteip = w.remoteAddr.(*net.TCPAddr).IP
		w.proto = "tcp"

	case "udp":
		w.localAddr = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 53}
		w.remoteAddr, _ = net.ResolveUDPAddr("udp", addr)
		w.remoteip = w.remoteAddr.(*net.UDPAddr).IP
		w.proto = "udp"
	}

	return w
}

// Rcode return message response code
func (w *Writer) Rcode() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.msg == nil {
		return dns.RcodeServerFailure
	}

	return w.msg.Rcode
}

// Msg return current dns message
func (w *Writer) Msg() *dns.Msg {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.msg
}

// Writes returns how many replies were written.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.writes
}

// WrittenAt returns the time of the first reply.
func (w *Writer) WrittenAt() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.at
}

// Done is closed by the first reply.
func (w *Writer) Done() <-chan struct{} { return w.done }

func (w *Writer) store(msg *dns.Msg) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.msg = msg
	w.writes++

	if w.writes == 1 {
		w.at = time.Now()
		close(w.done)
	}
}

// Write func
func (w *Writer) Write(b []byte) (int, error) {
	msg := new(dns.Msg)
	if err := msg.Unpack(b); err != nil {
		return 0, err
	}

	w.store(msg)

	return len(b), nil
}

// WriteMsg func
func (w *Writer) WriteMsg(msg *dns.Msg) error {
	w.store(msg)
	return nil
}

// Written func
func (w *Writer) Written() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.msg != nil
}

// RemoteIP func
func (w *Writer) RemoteIP() net.IP { return w.remoteip }

// Proto func
func (w *Writer) Proto() string { return w.proto }

// Close func
func (w *Writer) Close() error { return nil }

// Hijack func
func (w *Writer) Hijack() {}

// LocalAddr func
func (w *Writer) LocalAddr() net.Addr { return w.localAddr }

// RemoteAddr func
func (w *Writer) RemoteAddr() net.Addr { return w.remoteAddr }

// TsigStatus func
func (w *Writer) TsigStatus() error { return nil }

// TsigTimersOnly func
func (w *Writer) TsigTimersOnly(ok bool) {}
