package page

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/scriptloader-go/internal/core/service"
	"github.com/yndnr/scriptloader-go/internal/infra/buildinfo"
	"github.com/yndnr/scriptloader-go/internal/storage"
	"github.com/yndnr/scriptloader-go/internal/telemetry/logger"
	"github.com/yndnr/scriptloader-go/internal/telemetry/metric"
)

// ErrClosed is the abort reason of fetches cut short by Close.
var ErrClosed = errors.New("page closed")

// Module is what a loaded script registers in the page namespace.
type Module struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int       `json:"size"`
	Integrity   string    `json:"integrity"`
	FetchedAt   time.Time `json:"fetched_at"`
	FromCache   bool      `json:"from_cache"`

	Body []byte `json:"-"`
}

// Config configures a Page.
type Config struct {
	// UserAgent is sent with every fetch.
	UserAgent string

	// FetchTimeout bounds one fetch including body download. Zero means no
	// limit beyond Close.
	FetchTimeout time.Duration

	// MaxScriptBytes caps the decoded body size.
	MaxScriptBytes int64

	// FetchRate is the sustained fetch rate per second. Zero disables
	// limiting.
	FetchRate float64

	// FetchBurst is the limiter bucket size.
	FetchBurst int

	// Headers are added to every fetch, e.g. credentials for a private CDN.
	Headers map[string]string
}

// DefaultConfig returns the default page configuration.
func DefaultConfig() Config {
	return Config{
		UserAgent:      buildinfo.UserAgent(),
		FetchTimeout:   30 * time.Second,
		MaxScriptBytes: 8 << 20,
		FetchRate:      20,
		FetchBurst:     10,
	}
}

// Option configures a Page.
type Option func(*Page)

// WithHTTPClient sets the client used for fetches.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Page) {
		p.client = c
	}
}

// WithCache enables the persistent content cache.
func WithCache(c *storage.ScriptCache) Option {
	return func(p *Page) {
		p.cache = c
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Page) {
		p.logger = l
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metric.PageMetrics) Option {
	return func(p *Page) {
		p.metrics = m
	}
}

// Page is a headless document. It is safe for concurrent use.
type Page struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	cache   *storage.ScriptCache
	logger  logger.Logger
	metrics *metric.PageMetrics
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.RWMutex
	modules  map[string]*Module
	attached int
	closed   bool
}

var _ service.Document = (*Page)(nil)

// New creates a page.
func New(cfg Config, opts ...Option) *Page {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Page{
		cfg:     cfg,
		client:  http.DefaultClient,
		limiter: rate.NewLimiter(rate.Inf, 0),
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		modules: make(map[string]*Module),
	}
	if cfg.FetchRate > 0 {
		burst := cfg.FetchBurst
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(cfg.FetchRate), burst)
	}
	if p.cfg.MaxScriptBytes <= 0 {
		p.cfg.MaxScriptBytes = DefaultConfig().MaxScriptBytes
	}

	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Nop()
	}
	p.logger = p.logger.With("component", "page")
	return p
}

// CreateElement implements service.Document. Only script elements exist.
func (p *Page) CreateElement(tag string) (*service.Element, error) {
	if tag != "script" {
		return nil, fmt.Errorf("page: unsupported element %q", tag)
	}
	return &service.Element{Tag: tag}, nil
}

// Attach implements service.Document. The fetch runs on its own goroutine;
// exactly one of the element handlers fires when it ends.
func (p *Page) Attach(el *service.Element) (*service.Element, error) {
	if el == nil || el.Src == "" {
		return nil, fmt.Errorf("page: element without src")
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	p.attached++
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		p.run(el)
	}()
	return el, nil
}

// run fetches el and fires its terminal handler.
func (p *Page) run(el *service.Element) {
	ctx := p.ctx
	if p.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.FetchTimeout)
		defer cancel()
	}
	log := p.logger.With("name", el.ID, "src", el.Src)

	module, err := p.fetch(ctx, el)
	switch {
	case err == nil:
		p.register(module)
		log.Debug("script fetched", "size", module.Size, "from_cache", module.FromCache)
		fire(el.OnLoad)

	case p.ctx.Err() != nil:
		log.Debug("script fetch aborted")
		fireErr(el.OnAbort, ErrClosed)

	default:
		log.Warn("script fetch failed", "error", err)
		fireErr(el.OnError, err)
	}
}

func fire(fn func()) {
	if fn != nil {
		fn()
	}
}

func fireErr(fn func(error), err error) {
	if fn != nil {
		fn(err)
	}
}

func (p *Page) register(m *Module) {
	if m.Name == "" {
		return
	}
	p.mu.Lock()
	p.modules[m.Name] = m
	p.mu.Unlock()
}

// Resolve returns the module registered under name. It has the signature of
// service.ModuleResolver.
func (p *Page) Resolve(name string) (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m, ok := p.modules[name]
	if !ok {
		return nil, false
	}
	return m, true
}

// Modules returns every registered module sorted by name.
func (p *Page) Modules() []*Module {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Module, 0, len(p.modules))
	for _, m := range p.modules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Attached returns the number of elements attached so far.
func (p *Page) Attached() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.attached
}

// Close aborts every fetch in progress and waits for their handlers to
// return. Later Attach calls fail.
func (p *Page) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
	return nil
}
