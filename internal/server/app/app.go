package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/yndnr/scriptloader-go/internal/core/service"
	"github.com/yndnr/scriptloader-go/internal/host/page"
	"github.com/yndnr/scriptloader-go/internal/infra/confloader"
	"github.com/yndnr/scriptloader-go/internal/infra/shutdown"
	"github.com/yndnr/scriptloader-go/internal/infra/tlsroots"
	"github.com/yndnr/scriptloader-go/internal/server/config"
	"github.com/yndnr/scriptloader-go/internal/server/httpserver"
	"github.com/yndnr/scriptloader-go/internal/storage"
	"github.com/yndnr/scriptloader-go/internal/storage/memory"
	"github.com/yndnr/scriptloader-go/internal/telemetry/logger"
	"github.com/yndnr/scriptloader-go/internal/telemetry/metric"
)

// ErrShuttingDown is reported by the readiness probe once shutdown starts.
var ErrShuttingDown = errors.New("shutting down")

// App is a running scriptloader-server.
type App struct {
	conf   *confloader.Loader
	logger logger.Logger

	metrics  *metric.Registry
	kv       *storage.BadgerEngine
	page     *page.Page
	registry *memory.Registry
	loader   *service.Loader
	server   *httpserver.Server
	listener net.Listener
	shutdown *shutdown.Handler
	watcher  *confloader.Watcher

	reloadMu sync.Mutex
}

// New builds the server described by cfg and binds its listener. conf is
// kept to reload the configuration later.
func New(conf *confloader.Loader, cfg *config.ServerConfig, log logger.Logger) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	a := &App{
		conf:     conf,
		logger:   log,
		metrics:  metric.NewRegistry(),
		registry: memory.NewRegistry(),
		shutdown: shutdown.NewHandler(cfg.Server.ShutdownTimeout, log),
	}

	if err := a.buildPage(cfg); err != nil {
		a.closeStorage()
		return nil, err
	}

	a.metrics.Prometheus().MustRegister(metric.NewCollector(a.registry.Stats))
	a.loader = service.NewLoader(a.page, a.registry,
		service.WithInstanceOptions(cfg.LoaderOptions()),
		service.WithModuleResolver(a.page.Resolve),
		service.WithLogger(log),
		service.WithMetrics(a.metrics.Loader),
	)

	a.server = httpserver.New(httpserver.Config{
		Addr:         cfg.Server.HTTP.Addr,
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
		TLSCertFile:  cfg.Server.HTTP.TLSCertFile,
		TLSKeyFile:   cfg.Server.HTTP.TLSKeyFile,
	}, httpserver.NewRouter(a.routerConfig(cfg)))

	ln, err := a.server.Listen()
	if err != nil {
		a.page.Close()
		a.closeStorage()
		return nil, fmt.Errorf("listen %s: %w", cfg.Server.HTTP.Addr, err)
	}
	a.listener = ln

	if path := conf.FilePath(); path != "" {
		w, err := confloader.NewWatcher(path, confloader.WithWatcherLogger(log))
		if err != nil {
			log.Warn("configuration watcher unavailable", "file", path, "error", err)
		} else {
			w.OnChange(func(string) { a.reloadAndLog() })
			a.watcher = w
		}
	}
	return a, nil
}

func (a *App) buildPage(cfg *config.ServerConfig) error {
	tlsCfg, err := tlsroots.ClientTLSConfig(cfg.Page.TLSCAFile)
	if err != nil {
		return fmt.Errorf("page tls: %w", err)
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if tlsCfg != nil {
		transport.TLSClientConfig = tlsCfg
	}

	opts := []page.Option{
		page.WithHTTPClient(&http.Client{Transport: transport}),
		page.WithLogger(a.logger),
		page.WithMetrics(a.metrics.Page),
	}

	if cfg.Cache.Enabled {
		kvCfg := storage.DefaultKVConfig(cfg.Cache.Dir)
		kvCfg.InMemory = cfg.Cache.InMemory
		kvCfg.Badger.GCInterval = cfg.Cache.GCInterval
		kv, err := storage.NewBadgerEngine(kvCfg, a.logger)
		if err != nil {
			return fmt.Errorf("open script cache: %w", err)
		}
		a.kv = kv.RegisterMetrics(a.metrics.Prometheus())
		opts = append(opts, page.WithCache(storage.NewScriptCache(a.kv, cfg.Cache.TTL)))
	}

	a.page = page.New(cfg.PageConfig(), opts...)
	return nil
}

func (a *App) routerConfig(cfg *config.ServerConfig) *httpserver.RouterConfig {
	rc := httpserver.DefaultRouterConfig()
	rc.Scripts = a.loader
	rc.Logger = a.logger
	rc.Ready = a.ready
	if cfg.Metrics.Enabled {
		rc.Metrics = a.metrics.Handler()
	}
	if cfg.Server.RateLimit.Enabled {
		rc.RateLimitRPS = cfg.Server.RateLimit.RPS
		rc.RateLimitBurst = cfg.Server.RateLimit.Burst
	} else {
		rc.RateLimitRPS = 0
	}
	return rc
}

func (a *App) ready() error {
	select {
	case <-a.shutdown.Stopping():
		return ErrShuttingDown
	default:
		return nil
	}
}

func (a *App) closeStorage() error {
	if a.kv == nil {
		return nil
	}
	return a.kv.Close()
}

// Addr returns the bound API address.
func (a *App) Addr() net.Addr {
	return a.server.Addr()
}

// Loader returns the script loader.
func (a *App) Loader() *service.Loader {
	return a.loader
}

// Run serves until a shutdown signal, Stop or the end of ctx, then shuts
// the components down in reverse order: API, watcher, page, cache.
func (a *App) Run(ctx context.Context) error {
	a.shutdown.OnShutdown("cache", func(context.Context) error {
		return a.closeStorage()
	})
	a.shutdown.OnShutdown("page", func(context.Context) error {
		return a.page.Close()
	})
	if a.watcher != nil {
		a.shutdown.OnShutdown("watcher", func(context.Context) error {
			return a.watcher.Stop()
		})
		a.watcher.StartAsync()
	}
	a.shutdown.OnShutdown("http", a.server.Shutdown)
	a.shutdown.OnReload(a.reloadAndLog)

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening", "addr", a.Addr().String())
		if err := a.server.Serve(a.listener); err != nil {
			a.logger.Error("HTTP server error", "error", err)
			serveErr <- err
			a.shutdown.Trigger()
		}
	}()

	err := a.shutdown.Wait(ctx)
	select {
	case serr := <-serveErr:
		return errors.Join(serr, err)
	default:
		return err
	}
}

// Stop starts a graceful shutdown; Run returns when it is complete.
func (a *App) Stop() {
	a.shutdown.Trigger()
}

// Reload reads the configuration again and applies what can change at
// runtime: the loader options and the log level. Other changes need a
// restart and are ignored.
func (a *App) Reload() error {
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	cfg, err := config.LoadWith(a.conf)
	if err != nil {
		return err
	}
	a.loader.SetInstanceOptions(cfg.LoaderOptions())
	logger.SetLevel(cfg.Log.Level)
	return nil
}

func (a *App) reloadAndLog() {
	if err := a.Reload(); err != nil {
		a.logger.Error("configuration reload failed, keeping the current configuration", "error", err)
		return
	}
	a.logger.Info("configuration reloaded")
}
