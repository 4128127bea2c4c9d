package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/semihalev/ingressdns/api"
	"github.com/semihalev/ingressdns/config"
	"github.com/semihalev/ingressdns/delay"
	"github.com/semihalev/ingressdns/ingress"
	"github.com/semihalev/ingressdns/middleware"
	"github.com/semihalev/ingressdns/middleware/accesslist"
	"github.com/semihalev/ingressdns/middleware/accesslog"
	"github.com/semihalev/ingressdns/middleware/metrics"
	"github.com/semihalev/ingressdns/middleware/ratelimit"
	"github.com/semihalev/ingressdns/middleware/recovery"
	"github.com/semihalev/ingressdns/middleware/responder"
	"github.com/semihalev/ingressdns/server"
	"github.com/semihalev/zlog/v2"
	"golang.org/x/sync/errgroup"
)

func setupLogger(level string) error {
	logger := zlog.NewStructured()
	logger.SetWriter(zlog.StdoutTerminal())

	switch strings.ToLower(level) {
	case "debug":
		logger.SetLevel(zlog.LevelDebug)
	case "info":
		logger.SetLevel(zlog.LevelInfo)
	case "warn":
		logger.SetLevel(zlog.LevelWarn)
	case "error":
		logger.SetLevel(zlog.LevelError)
	default:
		return fmt.Errorf("%w: %s", config.ErrUnknownLogLevel, level)
	}

	zlog.SetDefault(logger)

	return nil
}

// register adds the handlers in chain order.
func register(store *delay.Store, fetcher responder.Fetcher) {
	middleware.Register("recovery", func(cfg *config.Config) middleware.Handler {
		return recovery.New(cfg)
	})
	middleware.Register("metrics", func(cfg *config.Config) middleware.Handler {
		return metrics.New(cfg)
	})
	middleware.Register("accesslist", func(cfg *config.Config) middleware.Handler {
		if a := accesslist.New(cfg); a != nil {
			return a
		}
		return nil
	})
	middleware.Register("ratelimit", func(cfg *config.Config) middleware.Handler {
		if r := ratelimit.New(cfg); r != nil {
			return r
		}
		return nil
	})
	middleware.Register("accesslog", func(cfg *config.Config) middleware.Handler {
		if a := accesslog.New(cfg); a != nil {
			return a
		}
		return nil
	})
	middleware.Register("responder", func(cfg *config.Config) middleware.Handler {
		return responder.New(cfg, store, fetcher)
	})
}

func run(ctx context.Context, path string) error {
	cfg, err := config.Load(path, version)
	if err != nil {
		return err
	}

	if err := setupLogger(cfg.LogLevel); err != nil {
		return err
	}

	zlog.Info("Starting ingressdns...", "version", version)

	store := delay.NewStore()
	watcher := delay.NewWatcher(cfg.NoDataDelayPath(), store)

	// the file wins over the startup value; a missing file is only worth
	// reporting when no startup value was given either
	watcher.Load(!cfg.NoDataDelaySet())
	store.SetDefault(cfg.NoDataDelay)

	client, err := ingress.NewClient(cfg.Kubeconfig)
	if err != nil {
		return err
	}

	register(store, client)

	if err := middleware.Setup(cfg); err != nil {
		return err
	}

	srv := server.New(cfg, middleware.Handlers())
	if err := srv.Listen(); err != nil {
		return err
	}

	zlog.Info("Listening", "addr", srv.Addr().String(), "port", cfg.Port, "nodata_delay_ms", store.Get())

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return srv.Run(ctx) })
	g.Go(func() error { return watcher.Run(ctx) })
	g.Go(func() error { return api.New(cfg, store, watcher).Run(ctx) })

	if rl, ok := middleware.Get("ratelimit").(*ratelimit.RateLimit); ok {
		g.Go(func() error { return rl.Run(ctx) })
	}

	err = g.Wait()

	if al, ok := middleware.Get("accesslog").(*accesslog.AccessLog); ok {
		if cerr := al.Close(); cerr != nil {
			zlog.Warn("Access log close failed", "error", cerr.Error())
		}
	}

	zlog.Info("Closed")

	return err
}
