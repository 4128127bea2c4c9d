package middleware

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/miekg/dns"
)

// ResponseWriter wraps dns.ResponseWriter and remembers the single reply.
type ResponseWriter interface {
	dns.ResponseWriter
	Msg() *dns.Msg
	Rcode() int
	Written() bool
	WrittenAt() time.Time
	Reset(dns.ResponseWriter)
	Proto() string
	RemoteIP() net.IP
}

type responseWriter struct {
	dns.ResponseWriter

	mu       sync.Mutex
	msg      *dns.Msg
	size     int
	rcode    int
	at       time.Time
	proto    string
	remoteip net.IP
}

var _ ResponseWriter = &responseWriter{}

var errAlreadyWritten = errors.New("msg already written")

func (w *responseWriter) Reset(rw dns.ResponseWriter) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.ResponseWriter = rw
	w.size = -1
	w.msg = nil
	w.rcode = dns.RcodeSuccess
	w.at = time.Time{}
	w.proto = ""
	w.remoteip = nil

	switch addr := rw.RemoteAddr().(type) {
	case *net.UDPAddr:
		w.proto = "udp"
		w.remoteip = addr.IP
	case *net.TCPAddr:
		w.proto = "tcp"
		w.remoteip = addr.IP
	}
}

func (w *responseWriter) Msg() *dns.Msg {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.msg
}

func (w *responseWriter) Rcode() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.rcode
}

func (w *responseWriter) Written() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.size != -1
}

// WrittenAt returns when the reply left, zero before that.
func (w *responseWriter) WrittenAt() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.at
}

func (w *responseWriter) RemoteIP() net.IP { return w.remoteip }

func (w *responseWriter) Proto() string { return w.proto }

func (w *responseWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size != -1 {
		return 0, errAlreadyWritten
	}

	msg := new(dns.Msg)
	if err := msg.Unpack(b); err != nil {
		return 0, err
	}

	n, err := w.ResponseWriter.Write(b)
	w.msg, w.rcode, w.size, w.at = msg, msg.Rcode, n, time.Now()

	return n, err
}

func (w *responseWriter) WriteMsg(m *dns.Msg) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size != -1 {
		return errAlreadyWritten
	}

	w.msg, w.rcode, w.size, w.at = m, m.Rcode, 0, time.Now()

	return w.ResponseWriter.WriteMsg(m)
}
