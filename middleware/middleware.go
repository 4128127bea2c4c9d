package middleware

import (
	"context"
	"errors"
	"sync"

	"github.com/semihalev/ingressdns/config"
	"github.com/semihalev/zlog/v2"
)

// Handler interface.
type Handler interface {
	Name() string
	ServeDNS(context.Context, *Chain)
}

type middleware struct {
	mu sync.RWMutex

	cfg      *config.Config
	handlers []handler
}

type handler struct {
	name string
	new  func(*config.Config) Handler
}

var (
	m             middleware
	chainHandlers []Handler
	setup         bool
)

// ErrAlreadySetup returned by a second Setup call.
var ErrAlreadySetup = errors.New("setup already done")

// Register a middleware. Handlers run in registration order.
func Register(name string, new func(*config.Config) Handler) {
	zlog.Debug("Register middleware", "name", name)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlers = append(m.handlers, handler{name: name, new: new})
}

// Setup builds every registered handler with cfg.
func Setup(cfg *config.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if setup {
		return ErrAlreadySetup
	}

	m.cfg = cfg

	for _, handler := range m.handlers {
		h := handler.new(m.cfg)
		if h == nil {
			continue
		}
		chainHandlers = append(chainHandlers, h)
	}

	setup = true

	return nil
}

// Ready reports whether Setup was done.
func Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return setup
}

// Handlers return built handlers.
func Handlers() []Handler {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return chainHandlers
}

// List return names of registered handlers.
func List() (list []string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, handler := range m.handlers {
		list = append(list, handler.name)
	}

	return list
}

// Get return a built handler by name.
func Get(name string) Handler {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, h := range chainHandlers {
		if h.Name() == name {
			return h
		}
	}

	return nil
}
