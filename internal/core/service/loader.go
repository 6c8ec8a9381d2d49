package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/scriptloader-go/internal/core/domain"
	"github.com/yndnr/scriptloader-go/internal/telemetry/logger"
	"github.com/yndnr/scriptloader-go/internal/telemetry/metric"
)

// Loader injects scripts into a Document and records their outcomes.
//
// Each request runs through START, then either CacheHit or Injecting, and
// ends in Success, SuppressedFailure, PropagatedFailure or Cancelled.
type Loader struct {
	doc     Document
	repo    ScriptRepository
	resolve ModuleResolver
	logger  logger.Logger
	metrics *metric.LoaderMetrics

	instance atomic.Pointer[domain.Options]
}

// Option configures a Loader.
type Option func(*Loader)

// WithInstanceOptions sets the instance configuration layer.
func WithInstanceOptions(opts domain.Options) Option {
	return func(l *Loader) {
		l.instance.Store(&opts)
	}
}

// WithModuleResolver sets how modules are looked up after a load event.
func WithModuleResolver(r ModuleResolver) Option {
	return func(l *Loader) {
		l.resolve = r
	}
}

// WithLogger sets the logger.
func WithLogger(lg logger.Logger) Option {
	return func(l *Loader) {
		l.logger = lg
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metric.LoaderMetrics) Option {
	return func(l *Loader) {
		l.metrics = m
	}
}

// NewLoader creates a Loader that injects into doc and records into repo.
func NewLoader(doc Document, repo ScriptRepository, opts ...Option) *Loader {
	l := &Loader{
		doc:  doc,
		repo: repo,
	}
	l.instance.Store(&domain.Options{})

	for _, opt := range opts {
		opt(l)
	}

	if l.resolve == nil {
		l.resolve = func(string) (any, bool) { return nil, false }
	}
	if l.logger == nil {
		l.logger = logger.Nop()
	}
	l.logger = l.logger.With("component", "loader")
	return l
}

// SetInstanceOptions replaces the instance configuration layer. Requests
// already started keep the configuration they resolved.
func (l *Loader) SetInstanceOptions(opts domain.Options) {
	l.instance.Store(&opts)
}

// InstanceOptions returns the current instance configuration layer.
func (l *Loader) InstanceOptions() domain.Options {
	return *l.instance.Load()
}

// Get returns the outcome recorded for name.
func (l *Loader) Get(name string) (*domain.Outcome, bool) {
	return l.repo.Get(name)
}

// Exists reports whether an outcome is recorded for name.
func (l *Loader) Exists(name string) bool {
	return l.repo.Exists(name)
}

// IsLoaded reports whether name loaded successfully.
func (l *Loader) IsLoaded(name string) bool {
	return l.repo.IsLoaded(name)
}

// State returns the registry state of name.
func (l *Loader) State(name string) domain.EntryState {
	return l.repo.State(name)
}

// Scripts returns every recorded outcome sorted by name.
func (l *Loader) Scripts() []*domain.Outcome {
	return l.repo.List()
}

// LoadScript loads ref and waits for its outcome. Cancelling ctx before the
// terminal event returns ErrLoadCancelled.
func (l *Loader) LoadScript(ctx context.Context, ref domain.ScriptRef) (*domain.Outcome, error) {
	return l.Start(ref).Wait(ctx)
}

// Start begins loading ref and returns immediately.
func (l *Loader) Start(ref domain.ScriptRef) *Pending {
	cfg := domain.Resolve(l.InstanceOptions(), ref.Options)
	p := newPending(ref, cfg, ulid.Make().String())
	log := l.logger.With("load_id", p.loadID, "name", ref.Name, "src", ref.Src)
	p.onResolve = func(p *Pending) {
		l.metrics.ObserveLoad(resultLabel(p.outcome, p.err), time.Since(p.started))
	}

	if err := ref.Validate(); err != nil {
		log.Warn("invalid script reference", "error", err)
		p.resolve(nil, err)
		return p
	}

	for {
		cached, f, leader := l.repo.Begin(ref.Name)
		if cached != nil {
			log.Debug("script already loaded")
			p.onResolve = func(p *Pending) {
				l.metrics.ObserveLoad(metric.ResultCached, time.Since(p.started))
			}
			p.resolve(cached, nil)
			return p
		}

		if !f.subscribe(p) {
			// Settled between Begin and subscribe; the next Begin sees the
			// repository after Finish.
			<-f.Done()
			continue
		}

		if leader {
			log.Debug("injecting script", "async", cfg.Async)
			l.inject(f, ref, cfg, log)
		} else {
			log.Debug("joined load in flight")
			l.metrics.Joined()
		}
		return p
	}
}

// inject creates and attaches the element for f. Failures to build or
// attach the element are delivered as an error event.
func (l *Loader) inject(f *Flight, ref domain.ScriptRef, cfg domain.LoadConfig, log logger.Logger) {
	l.metrics.Injected()

	el, err := l.doc.CreateElement("script")
	if err != nil {
		l.settle(f, ref, domain.Event{Kind: domain.EventError, Reason: err}, log)
		return
	}

	el.Type = ScriptType
	el.Src = ref.Src
	el.Async = cfg.Async
	el.ID = ref.Name
	el.Integrity = ref.Integrity
	el.OnLoad = func() {
		l.settle(f, ref, domain.Event{Kind: domain.EventLoad}, log)
	}
	el.OnAbort = func(reason error) {
		l.settle(f, ref, domain.Event{Kind: domain.EventAbort, Reason: reason}, log)
	}
	el.OnError = func(reason error) {
		l.settle(f, ref, domain.Event{Kind: domain.EventError, Reason: reason}, log)
	}

	if _, err := l.doc.Attach(el); err != nil {
		l.settle(f, ref, domain.Event{Kind: domain.EventError, Reason: err}, log)
	}
}

// settle applies the first terminal event of f to every waiting request.
func (l *Loader) settle(f *Flight, ref domain.ScriptRef, ev domain.Event, log logger.Logger) {
	subs, ok := f.settle(ev)
	if !ok {
		log.Debug("ignoring event after terminal event", "event", ev.Kind.String())
		return
	}
	l.metrics.Settled()

	var outcome *domain.Outcome
	if ev.Kind == domain.EventLoad {
		module, _ := l.resolve(ref.Name)
		outcome = domain.LoadedOutcome(ref, module)
	}

	// Nobody is left to observe the load; record nothing.
	var record *domain.Outcome
	if outcome != nil && len(subs) > 0 {
		record = outcome
	}
	// The repository is updated before any callback runs, so a callback that
	// requests the same name sees the cached outcome.
	l.repo.Finish(ref.Name, f, record)
	f.close()

	switch ev.Kind {
	case domain.EventLoad:
		log.Info("script loaded", "subscribers", len(subs))
	default:
		log.Warn("script failed", "event", ev.Kind.String(), "reason", ev.Err(), "subscribers", len(subs))
	}

	for _, p := range subs {
		deliver(p, ev, outcome)
	}
}

// deliver resolves p according to its own skip policy.
func deliver(p *Pending, ev domain.Event, loaded *domain.Outcome) {
	switch ev.Kind {
	case domain.EventLoad:
		p.cfg.OnLoad(loaded.Clone())
		p.resolve(loaded.Clone(), nil)

	case domain.EventAbort:
		if p.cfg.SkipAbort {
			p.resolve(domain.SuppressedOutcome(p.ref), nil)
			return
		}
		reason := ev.Err()
		p.cfg.OnAbort(reason)
		p.resolve(nil, domain.ErrScriptAborted.WithDetails(p.ref.Name).WithCause(reason))

	default:
		if p.cfg.SkipError {
			p.resolve(domain.SuppressedOutcome(p.ref), nil)
			return
		}
		reason := ev.Err()
		p.cfg.OnError(reason)
		p.resolve(nil, domain.ErrScriptFailed.WithDetails(p.ref.Name).WithCause(reason))
	}
}

func resultLabel(outcome *domain.Outcome, err error) string {
	switch {
	case err == nil && outcome != nil && outcome.Loaded:
		return metric.ResultLoaded
	case err == nil:
		return metric.ResultSuppressed
	case errors.Is(err, domain.ErrLoadCancelled):
		return metric.ResultCancelled
	case errors.Is(err, domain.ErrScriptAborted):
		return metric.ResultAborted
	case errors.Is(err, domain.ErrInvalidScriptRef):
		return metric.ResultInvalid
	default:
		return metric.ResultFailed
	}
}
