package service

import (
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/scriptloader-go/internal/core/domain"
)

// mockRepo is an in-memory ScriptRepository for testing.
type mockRepo struct {
	mu       sync.Mutex
	outcomes map[string]*domain.Outcome
	flights  map[string]*Flight
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		outcomes: make(map[string]*domain.Outcome),
		flights:  make(map[string]*Flight),
	}
}

func (m *mockRepo) Get(name string) (*domain.Outcome, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.outcomes[name]
	return o.Clone(), ok
}

func (m *mockRepo) Exists(name string) bool {
	_, ok := m.Get(name)
	return ok
}

func (m *mockRepo) IsLoaded(name string) bool {
	o, ok := m.Get(name)
	return ok && o.Loaded
}

func (m *mockRepo) Put(o *domain.Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(o)
}

func (m *mockRepo) put(o *domain.Outcome) {
	if cur, ok := m.outcomes[o.Name]; ok && cur.Loaded {
		return
	}
	m.outcomes[o.Name] = o.Clone()
}

func (m *mockRepo) State(name string) domain.EntryState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.flights[name]; ok {
		return domain.StatePending
	}
	if _, ok := m.outcomes[name]; ok {
		return domain.StateResolved
	}
	return domain.StateAbsent
}

func (m *mockRepo) Begin(name string) (*domain.Outcome, *Flight, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.outcomes[name]; ok && o.Loaded {
		return o.Clone(), nil, false
	}
	if f, ok := m.flights[name]; ok {
		return nil, f, false
	}
	f := NewFlight(name)
	m.flights[name] = f
	return nil, f, true
}

func (m *mockRepo) Finish(name string, f *Flight, o *domain.Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.flights[name] == f {
		delete(m.flights, name)
	}
	if o != nil {
		m.put(o)
	}
}

func (m *mockRepo) List() []*domain.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Outcome, 0, len(m.outcomes))
	for _, o := range m.outcomes {
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *mockRepo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.outcomes)
}

// fakeDocument records attached elements so tests can fire their events.
type fakeDocument struct {
	mu       sync.Mutex
	created  int
	attached []*Element

	createErr error
	attachErr error

	// fire, when set, runs synchronously inside Attach.
	fire func(el *Element)

	ch chan *Element
}

func newFakeDocument() *fakeDocument {
	return &fakeDocument{ch: make(chan *Element, 64)}
}

func (d *fakeDocument) CreateElement(tag string) (*Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.createErr != nil {
		return nil, d.createErr
	}
	d.created++
	return &Element{Tag: tag}, nil
}

func (d *fakeDocument) Attach(el *Element) (*Element, error) {
	d.mu.Lock()
	if d.attachErr != nil {
		d.mu.Unlock()
		return nil, d.attachErr
	}
	d.attached = append(d.attached, el)
	fire := d.fire
	d.mu.Unlock()

	if fire != nil {
		fire(el)
		return el, nil
	}
	d.ch <- el
	return el, nil
}

func (d *fakeDocument) counts() (created, attached int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created, len(d.attached)
}

func (d *fakeDocument) next(t *testing.T) *Element {
	t.Helper()
	select {
	case el := <-d.ch:
		return el
	case <-time.After(2 * time.Second):
		t.Fatal("no element attached")
		return nil
	}
}

func waitResult(t *testing.T, p *Pending) (*domain.Outcome, error) {
	t.Helper()
	select {
	case <-p.Done():
		return p.Result()
	case <-time.After(2 * time.Second):
		t.Fatalf("request %s did not resolve", p.Name())
		return nil, nil
	}
}

func assertPending(t *testing.T, p *Pending) {
	t.Helper()
	select {
	case <-p.Done():
		o, err := p.Result()
		t.Fatalf("request %s resolved early: outcome=%+v err=%v", p.Name(), o, err)
	default:
	}
}

var errNetwork = errors.New("network unreachable")
