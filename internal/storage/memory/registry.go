package memory

import (
	"sort"
	"sync"

	"github.com/yndnr/scriptloader-go/internal/core/domain"
	"github.com/yndnr/scriptloader-go/internal/core/service"
	"github.com/yndnr/scriptloader-go/pkg/cmap"
)

// Registry is the load registry. The zero value is not usable; use
// NewRegistry.
type Registry struct {
	outcomes *cmap.Map[*domain.Outcome]

	mu      sync.Mutex
	flights map[string]*service.Flight
}

var _ service.ScriptRepository = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		outcomes: cmap.New[*domain.Outcome](),
		flights:  make(map[string]*service.Flight),
	}
}

// Get returns a copy of the outcome recorded for name.
func (r *Registry) Get(name string) (*domain.Outcome, bool) {
	o, ok := r.outcomes.Get(name)
	if !ok {
		return nil, false
	}
	return o.Clone(), true
}

// Exists reports whether an outcome is recorded for name.
func (r *Registry) Exists(name string) bool {
	return r.outcomes.Has(name)
}

// IsLoaded reports whether name has a loaded outcome.
func (r *Registry) IsLoaded(name string) bool {
	o, ok := r.outcomes.Get(name)
	return ok && o.Loaded
}

// Put records outcome under its name. A loaded outcome is never replaced;
// any other outcome may be.
func (r *Registry) Put(outcome *domain.Outcome) {
	if outcome == nil || outcome.Name == "" {
		return
	}
	stored := outcome.Clone()
	r.outcomes.Update(outcome.Name, func(cur *domain.Outcome, exists bool) (*domain.Outcome, bool) {
		if exists && cur.Loaded {
			return cur, false
		}
		return stored, true
	})
}

// State returns the tri-state of name. A name with a load in flight is
// pending even if an earlier suppressed outcome is recorded.
func (r *Registry) State(name string) domain.EntryState {
	r.mu.Lock()
	_, pending := r.flights[name]
	r.mu.Unlock()

	switch {
	case pending:
		return domain.StatePending
	case r.outcomes.Has(name):
		return domain.StateResolved
	default:
		return domain.StateAbsent
	}
}

// Begin implements service.ScriptRepository.
func (r *Registry) Begin(name string) (*domain.Outcome, *service.Flight, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if o, ok := r.outcomes.Get(name); ok && o.Loaded {
		return o.Clone(), nil, false
	}
	if f, ok := r.flights[name]; ok {
		return nil, f, false
	}

	f := service.NewFlight(name)
	r.flights[name] = f
	return nil, f, true
}

// Finish implements service.ScriptRepository. A stale flight does not
// clear a newer one registered under the same name.
func (r *Registry) Finish(name string, f *service.Flight, outcome *domain.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.flights[name]; ok && cur == f {
		delete(r.flights, name)
	}
	if outcome != nil {
		r.Put(outcome)
	}
}

// List returns every recorded outcome sorted by name.
func (r *Registry) List() []*domain.Outcome {
	out := make([]*domain.Outcome, 0, r.outcomes.Count())
	r.outcomes.Range(func(_ string, o *domain.Outcome) bool {
		out = append(out, o.Clone())
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of recorded outcomes.
func (r *Registry) Len() int {
	return r.outcomes.Count()
}

// Pending returns the number of names with a load in flight.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flights)
}

// Stats reports recorded and pending counts for the metrics collector.
func (r *Registry) Stats() (resolved, pending int) {
	return r.Len(), r.Pending()
}
