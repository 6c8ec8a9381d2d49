package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/yndnr/scriptloader-go/internal/telemetry/logger"
)

type hook struct {
	name string
	fn   func(context.Context) error
}

// Handler handles graceful shutdown.
type Handler struct {
	timeout time.Duration
	logger  logger.Logger

	mu      sync.Mutex
	hooks   []hook
	reloads []func()

	trigger     chan struct{}
	triggerOnce sync.Once
	stopping    chan struct{}
	done        chan struct{}
}

// NewHandler creates a new shutdown handler. A nil logger discards output.
func NewHandler(timeout time.Duration, l logger.Logger) *Handler {
	if l == nil {
		l = logger.Nop()
	}
	return &Handler{
		timeout: timeout,
		logger:  l,
		trigger:  make(chan struct{}),
		stopping: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// OnShutdown registers a named shutdown hook.
// Hooks are called in reverse order of registration.
func (h *Handler) OnShutdown(name string, fn func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook{name: name, fn: fn})
}

// OnReload registers a callback run on SIGHUP.
func (h *Handler) OnReload(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reloads = append(h.reloads, fn)
}

// Trigger starts shutdown without a signal.
func (h *Handler) Trigger() {
	h.triggerOnce.Do(func() { close(h.trigger) })
}

// Wait blocks until SIGINT, SIGTERM, Trigger or the end of ctx, then runs
// the shutdown hooks. Every hook runs; their errors are joined.
func (h *Handler) Wait(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

wait:
	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				h.logger.Info("reload signal received")
				h.runReloads()
				continue
			}
			h.logger.Info("shutdown signal received", "signal", sig.String())
			break wait
		case <-h.trigger:
			h.logger.Info("shutdown triggered")
			break wait
		case <-ctx.Done():
			h.logger.Info("shutdown context ended", "error", ctx.Err())
			break wait
		}
	}

	return h.runHooks()
}

func (h *Handler) runReloads() {
	h.mu.Lock()
	reloads := append([]func(){}, h.reloads...)
	h.mu.Unlock()

	for _, fn := range reloads {
		fn()
	}
}

func (h *Handler) runHooks() error {
	close(h.stopping)
	defer close(h.done)

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.mu.Lock()
	hooks := append([]hook{}, h.hooks...)
	h.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		start := time.Now()
		if err := hooks[i].fn(ctx); err != nil {
			h.logger.Error("shutdown hook failed", "hook", hooks[i].name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", hooks[i].name, err))
			continue
		}
		h.logger.Debug("shutdown hook done", "hook", hooks[i].name, "elapsed", time.Since(start))
	}
	return errors.Join(errs...)
}

// Stopping returns a channel that closes when shutdown starts, before the
// first hook runs.
func (h *Handler) Stopping() <-chan struct{} {
	return h.stopping
}

// Done returns a channel that closes when shutdown is complete.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
