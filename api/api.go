// Package api serves metrics, health and NoData delay status over HTTP.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/semihalev/ingressdns/config"
	"github.com/semihalev/ingressdns/delay"
	"github.com/semihalev/zlog/v2"
)

// API type
type API struct {
	addr    string
	router  *Router
	store   *delay.Store
	watcher *delay.Watcher
}

const shutdownTimeout = 10 * time.Second

// New return new api
func New(cfg *config.Config, store *delay.Store, watcher *delay.Watcher) *API {
	a := &API{
		addr:    cfg.API,
		router:  NewRouter(),
		store:   store,
		watcher: watcher,
	}

	a.router.GET("/metrics", a.metrics)
	a.router.GET("/healthz", a.healthz)

	v1 := a.router.Group("/api/v1")
	v1.GET("/nodata", a.nodata)

	return a
}

// Handler returns the http handler of the API.
func (a *API) Handler() http.Handler { return a.router }

func (a *API) metrics(ctx *Context) {
	promhttp.Handler().ServeHTTP(ctx.Writer, ctx.Request)
}

func (a *API) healthz(ctx *Context) {
	ctx.JSON(http.StatusOK, Json{"status": "ok"})
}

func (a *API) nodata(ctx *Context) {
	ctx.JSON(http.StatusOK, Json{
		"delay_ms": a.store.Get(),
		"watcher":  a.watcher.State().String(),
		"path":     a.watcher.Path(),
	})
}

// Run serves the API until ctx is done. An empty address disables it.
func (a *API) Run(ctx context.Context) error {
	if a.addr == "" {
		return nil
	}

	ln, err := net.Listen("tcp", a.addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	zlog.Info("API server listening...", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	zlog.Info("API server stopping...", "addr", a.addr)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Shutdown API server failed", "error", err.Error())
	}

	return nil
}
