package service

import (
	"context"
	"sync"
	"time"

	"github.com/yndnr/scriptloader-go/internal/core/domain"
)

// Pending is the asynchronous result of one load request.
//
// It resolves exactly once, with an outcome or an error. Cancel stops
// waiting before a terminal event arrives; the element stays attached.
type Pending struct {
	ref     domain.ScriptRef
	cfg     domain.LoadConfig
	loadID  string
	started time.Time
	flight  *Flight

	once    sync.Once
	done    chan struct{}
	outcome *domain.Outcome
	err     error

	// onResolve runs once with the result, before Done is closed.
	onResolve func(p *Pending)
}

func newPending(ref domain.ScriptRef, cfg domain.LoadConfig, loadID string) *Pending {
	return &Pending{
		ref:     ref,
		cfg:     cfg,
		loadID:  loadID,
		started: time.Now(),
		done:    make(chan struct{}),
	}
}

// Name returns the requested script name.
func (p *Pending) Name() string {
	return p.ref.Name
}

// LoadID returns the identifier logged for this request.
func (p *Pending) LoadID() string {
	return p.loadID
}

// Done is closed when the result is available.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Result returns the outcome and error. It is only meaningful after Done is
// closed.
func (p *Pending) Result() (*domain.Outcome, error) {
	return p.outcome, p.err
}

// Wait blocks until the request resolves or ctx ends. When ctx ends first
// the request is cancelled and ErrLoadCancelled is returned.
func (p *Pending) Wait(ctx context.Context) (*domain.Outcome, error) {
	select {
	case <-p.done:
		return p.outcome, p.err
	case <-ctx.Done():
	}

	if p.Cancel() {
		return nil, domain.ErrLoadCancelled.WithDetails(p.ref.Name).WithCause(ctx.Err())
	}
	// The terminal event won the race; its result is on the way.
	<-p.done
	return p.outcome, p.err
}

// Cancel stops waiting for the terminal event. It returns false if the
// request already resolved or is being resolved. A cancelled request gets
// no outcome, runs no callbacks and writes nothing to the registry.
func (p *Pending) Cancel() bool {
	if p.flight == nil || !p.flight.unsubscribe(p) {
		return false
	}
	p.resolve(nil, domain.ErrLoadCancelled.WithDetails(p.ref.Name))
	return true
}

func (p *Pending) resolve(outcome *domain.Outcome, err error) {
	p.once.Do(func() {
		p.outcome = outcome
		p.err = err
		if p.onResolve != nil {
			p.onResolve(p)
		}
		close(p.done)
	})
}
