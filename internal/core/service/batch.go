package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/yndnr/scriptloader-go/internal/core/domain"
)

// LoadScripts loads every ref concurrently and returns the outcomes in input
// order. The first propagated failure fails the whole batch with that error
// and stops waiting for the rest; their elements stay attached.
func (l *Loader) LoadScripts(ctx context.Context, refs ...domain.ScriptRef) ([]*domain.Outcome, error) {
	outcomes := make([]*domain.Outcome, len(refs))
	if len(refs) == 0 {
		return outcomes, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		p := l.Start(ref)
		g.Go(func() error {
			outcome, err := p.Wait(gctx)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		l.metrics.ObserveBatch(false)
		return nil, err
	}
	l.metrics.ObserveBatch(true)
	return outcomes, nil
}
