package storage

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/scriptloader-go/internal/telemetry/logger"
)

// Common errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("kv engine closed")
)

// BadgerEngine implements KVEngine using Badger v3.
type BadgerEngine struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger logger.Logger
	closed atomic.Bool

	lastGCTime atomic.Int64 // Unix milliseconds
	gcRewrites atomic.Uint64

	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsLastGCTime   prometheus.Gauge
	metricsGCRewrites   prometheus.Counter

	stopCh chan struct{}
	doneCh chan struct{}
}

var _ KVEngine = (*BadgerEngine)(nil)

// NewBadgerEngine opens a Badger database and starts the GC loop.
func NewBadgerEngine(cfg KVConfig, log logger.Logger) (*BadgerEngine, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if log == nil {
		log = logger.Default()
	}
	log = log.With("component", "badger")

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts.Logger = &badgerLogger{logger: log}

	bc := cfg.Badger
	if bc.CacheSize > 0 {
		opts.BlockCacheSize = bc.CacheSize
	}
	if bc.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = bc.ValueLogFileSize
	}
	if bc.NumMemtables > 0 {
		opts.NumMemtables = bc.NumMemtables
	}
	opts.SyncWrites = bc.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	engine := &BadgerEngine{
		db:     db,
		cfg:    bc,
		logger: log,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go engine.gcLoop()

	log.Info("badger engine started",
		"dir", cfg.Dir,
		"in_memory", cfg.InMemory,
		"gc_interval", bc.GCInterval.String())

	return engine, nil
}

// Get retrieves a value by key.
func (e *BadgerEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}

	var value []byte
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores a key-value pair.
func (e *BadgerEngine) Set(ctx context.Context, key, value []byte, ttl time.Duration) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return e.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Delete removes a key.
func (e *BadgerEngine) Delete(ctx context.Context, key []byte) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// Scan iterates over keys with a given prefix.
func (e *BadgerEngine) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return e.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if !fn(item.KeyCopy(nil), value) {
				break
			}
		}
		return nil
	})
}

// GC runs value-log GC until Badger reports nothing left to rewrite.
func (e *BadgerEngine) GC(ctx context.Context) (int, error) {
	if e.closed.Load() {
		return 0, ErrClosed
	}
	if e.db.Opts().InMemory {
		return 0, nil
	}

	start := time.Now()
	rewrites := 0
	for ctx.Err() == nil {
		err := e.db.RunValueLogGC(e.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			return rewrites, fmt.Errorf("gc: %w", err)
		}
		rewrites++
	}

	e.lastGCTime.Store(time.Now().UnixMilli())
	e.gcRewrites.Add(uint64(rewrites))
	if e.metricsGCRewrites != nil {
		e.metricsGCRewrites.Add(float64(rewrites))
	}

	e.logger.Debug("gc completed",
		"rewrites", rewrites,
		"elapsed", time.Since(start).String())

	return rewrites, nil
}

// Stats returns storage statistics.
func (e *BadgerEngine) Stats(ctx context.Context) (*KVStats, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	lsm, vlog := e.db.Size()

	return &KVStats{
		TotalSize:    uint64(lsm + vlog),
		LSMSize:      uint64(lsm),
		ValueLogSize: uint64(vlog),
		LastGCTime:   e.lastGCTime.Load(),
		GCRewrites:   e.gcRewrites.Load(),
	}, nil
}

// Close stops the background loops and closes the database.
func (e *BadgerEngine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}

	close(e.stopCh)
	<-e.doneCh

	if err := e.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	e.logger.Info("badger engine closed")
	return nil
}

// RegisterMetrics registers Badger size and GC metrics with reg and starts
// refreshing them.
func (e *BadgerEngine) RegisterMetrics(reg prometheus.Registerer) *BadgerEngine {
	e.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "scriptloader",
		Subsystem: "cache",
		Name:      "lsm_size_bytes",
		Help:      "Script cache LSM tree size in bytes",
	})
	e.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "scriptloader",
		Subsystem: "cache",
		Name:      "value_log_size_bytes",
		Help:      "Script cache value log size in bytes",
	})
	e.metricsLastGCTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "scriptloader",
		Subsystem: "cache",
		Name:      "last_gc_timestamp_seconds",
		Help:      "Unix timestamp of the last value-log GC run",
	})
	e.metricsGCRewrites = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "scriptloader",
		Subsystem: "cache",
		Name:      "gc_rewrites_total",
		Help:      "Value-log files rewritten by GC",
	})

	reg.MustRegister(
		e.metricsLSMSize,
		e.metricsValueLogSize,
		e.metricsLastGCTime,
		e.metricsGCRewrites,
	)

	e.refreshMetrics()
	go e.metricsUpdateLoop()
	return e
}

func (e *BadgerEngine) refreshMetrics() {
	stats, err := e.Stats(context.Background())
	if err != nil {
		return
	}
	e.metricsLSMSize.Set(float64(stats.LSMSize))
	e.metricsValueLogSize.Set(float64(stats.ValueLogSize))
	if stats.LastGCTime > 0 {
		e.metricsLastGCTime.Set(float64(stats.LastGCTime) / 1000.0)
	}
}

func (e *BadgerEngine) metricsUpdateLoop() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.refreshMetrics()
		case <-e.stopCh:
			return
		}
	}
}

func (e *BadgerEngine) gcLoop() {
	defer close(e.doneCh)

	if e.cfg.GCInterval <= 0 {
		<-e.stopCh
		return
	}

	ticker := time.NewTicker(e.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if _, err := e.GC(ctx); err != nil {
				e.logger.Error("auto gc failed", "error", err)
			}
			cancel()

		case <-e.stopCh:
			return
		}
	}
}

// badgerLogger adapts logger.Logger to Badger's Logger interface. Badger is
// chatty at info level, so info goes to debug.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
