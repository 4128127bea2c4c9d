package accesslog

import (
	"context"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/miekg/dns"
	"github.com/semihalev/ingressdns/config"
	"github.com/semihalev/ingressdns/middleware"
	"github.com/semihalev/zlog/v2"
)

// AccessLog writes one Common Log Format line per reply.
type AccessLog struct {
	mu      sync.Mutex
	logFile *os.File
}

// New returns a new AccessLog, nil when no access log is configured.
func New(cfg *config.Config) *AccessLog {
	if cfg.AccessLog == "" {
		return nil
	}

	logFile, err := os.OpenFile(cfg.AccessLog, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		zlog.Error("Access log file open failed", "path", cfg.AccessLog, "error", strings.Trim(err.Error(), "\n"))
		return nil
	}

	return &AccessLog{logFile: logFile}
}

// Name return middleware name
func (a *AccessLog) Name() string { return name }

// ServeDNS implements the Handler interface.
func (a *AccessLog) ServeDNS(ctx context.Context, ch *middleware.Chain) {
	ch.Next(ctx)

	w := ch.Writer
	if !w.Written() {
		return
	}

	resp := w.Msg()

	question := "\"-\""
	if len(resp.Question) > 0 {
		question = formatQuestion(resp.Question[0])
	}

	remote := "-"
	if ip := w.RemoteIP(); ip != nil {
		remote = ip.String()
	}

	record := []string{
		remote + " -",
		"[" + w.WrittenAt().Format("02/Jan/2006:15:04:05 -0700") + "]",
		question,
		w.Proto(),
		dns.RcodeToString[resp.Rcode],
		strconv.Itoa(len(resp.Answer)),
		strconv.Itoa(resp.Len()),
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.logFile.WriteString(strings.Join(record, " ") + "\n"); err != nil {
		zlog.Error("Access log write failed", "error", strings.Trim(err.Error(), "\n"))
	}
}

// Close closes the log file.
func (a *AccessLog) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.logFile.Close()
}

func formatQuestion(q dns.Question) string {
	return "\"" + q.Name + " " + dns.ClassToString[q.Qclass] + " " + dns.TypeToString[q.Qtype] + "\""
}

const name = "accesslog"
