// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package history

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/domfi/internal/cache"
	"github.com/tomtom215/domfi/internal/logging"
	"github.com/tomtom215/domfi/internal/metrics"
	"github.com/tomtom215/domfi/internal/models"
)

// Fetcher loads the raw trailing history of an asset's underlying.
type Fetcher interface {
	FetchHistory(ctx context.Context, asset models.DominanceAsset) ([]models.HistoryRow, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, asset models.DominanceAsset) ([]models.HistoryRow, error)

// FetchHistory implements Fetcher.
func (f FetcherFunc) FetchHistory(ctx context.Context, asset models.DominanceAsset) ([]models.HistoryRow, error) {
	return f(ctx, asset)
}

// Config holds history service tuning.
type Config struct {
	// TTL is how long an unread dataset stays cached. Reads re-arm it.
	TTL time.Duration

	// UpdateInterval is the monitor refresh period.
	UpdateInterval time.Duration

	// Capacity bounds the number of cached datasets.
	Capacity int

	// RequestBuffer is the depth of the request queue.
	RequestBuffer int

	// MonitorBuffer is the depth of the monitor message queue.
	MonitorBuffer int

	// SweepInterval is how often expired entries are purged.
	SweepInterval time.Duration

	// RequestTimeout bounds a full request/reply exchange.
	RequestTimeout time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		TTL:            5 * time.Minute,
		UpdateInterval: 45 * time.Second,
		Capacity:       4096,
		RequestBuffer:  1024,
		MonitorBuffer:  64,
		SweepInterval:  time.Minute,
		RequestTimeout: 30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TTL <= 0 {
		c.TTL = d.TTL
	}
	if c.UpdateInterval <= 0 {
		c.UpdateInterval = d.UpdateInterval
	}
	if c.Capacity <= 0 {
		c.Capacity = d.Capacity
	}
	if c.RequestBuffer <= 0 {
		c.RequestBuffer = d.RequestBuffer
	}
	if c.MonitorBuffer <= 0 {
		c.MonitorBuffer = d.MonitorBuffer
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = d.SweepInterval
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	return c
}

// Stats is a point-in-time view of the coordinator.
type Stats struct {
	Cache          cache.Stats
	Entries        int
	PendingFetches int
	PendingWaiters int
	ActiveMonitors int64
}

type response struct {
	dataset *models.Dataset
	err     error
}

type request struct {
	id    string
	reply chan response
}

type fetchCompleted struct {
	key     string
	asset   models.AssetWithMetadata
	dataset *models.Dataset
	err     error
}

type monitorMsgKind int

const (
	shouldUpdate monitorMsgKind = iota
	updatedDataset
)

type monitorMsg struct {
	kind    monitorMsgKind
	key     string
	gen     uint64
	dataset *models.Dataset
	live    chan bool
}

// Service is the history coordinator. A single goroutine (Serve) owns the
// TTL cache; everything else talks to it by message. Datasets are immutable
// and shared by pointer between the cache and every reader.
//
// Resolution of a request:
//   - unknown id: ErrCoinUnknownOrNotAllowed, nothing fetched
//   - cached: reply with the shared dataset and re-arm its TTL
//   - missing: fetch off-loop (coalescing concurrent misses), cache with a
//     fresh TTL, start one monitor for the key, reply
//
// A monitor refreshes its key every UpdateInterval for as long as the entry
// is cached. Refreshes replace the value without extending the TTL, so only
// reads keep an entry alive.
type Service struct {
	cfg      Config
	registry *models.Registry
	fetcher  Fetcher
	clock    Clock

	requests  chan request
	monitorCh chan monitorMsg
	fetchCh   chan fetchCompleted
	statsCh   chan chan Stats

	running        atomic.Bool
	activeMonitors atomic.Int64
	done           chan struct{}
	doneOnce       sync.Once
}

// NewService builds a coordinator. Call Serve to start it.
func NewService(cfg Config, registry *models.Registry, fetcher Fetcher, clock Clock) *Service {
	cfg = cfg.withDefaults()
	if clock == nil {
		clock = RealClock()
	}
	return &Service{
		cfg:       cfg,
		registry:  registry,
		fetcher:   fetcher,
		clock:     clock,
		requests:  make(chan request, cfg.RequestBuffer),
		monitorCh: make(chan monitorMsg, cfg.MonitorBuffer),
		fetchCh:   make(chan fetchCompleted),
		statsCh:   make(chan chan Stats),
		done:      make(chan struct{}),
	}
}

// String implements fmt.Stringer for suture logging.
func (s *Service) String() string {
	return "history-service"
}

// ActiveMonitors returns the number of running monitors.
func (s *Service) ActiveMonitors() int64 {
	return s.activeMonitors.Load()
}

// Request resolves id to its cached or freshly fetched dataset.
func (s *Service) Request(ctx context.Context, id string) (*models.Dataset, error) {
	if s == nil {
		return nil, &TransportError{Op: OpLocate, Err: ErrServiceUnavailable}
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	req := request{id: id, reply: make(chan response, 1)}

	select {
	case <-s.done:
		return nil, &TransportError{Op: OpSend, Err: ErrStopped}
	default:
	}

	select {
	case s.requests <- req:
	case <-s.done:
		return nil, &TransportError{Op: OpSend, Err: ErrStopped}
	case <-ctx.Done():
		return nil, &TransportError{Op: OpSend, Err: ctx.Err()}
	}

	select {
	case resp := <-req.reply:
		return resp.dataset, resp.err
	case <-s.done:
		select {
		case resp := <-req.reply:
			return resp.dataset, resp.err
		default:
			return nil, &TransportError{Op: OpReceive, Err: ErrStopped}
		}
	case <-ctx.Done():
		return nil, &TransportError{Op: OpReceive, Err: ctx.Err()}
	}
}

// Stats asks the coordinator for a snapshot of its state.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	select {
	case s.statsCh <- reply:
	case <-s.done:
		return Stats{}, &TransportError{Op: OpSend, Err: ErrStopped}
	case <-ctx.Done():
		return Stats{}, &TransportError{Op: OpSend, Err: ctx.Err()}
	}
	select {
	case st := <-reply:
		return st, nil
	case <-ctx.Done():
		return Stats{}, &TransportError{Op: OpReceive, Err: ctx.Err()}
	}
}

// coordinator is the state owned by one run of Serve.
type coordinator struct {
	svc      *Service
	ctx      context.Context
	cache    *cache.TTL[*models.Dataset]
	pending  map[string][]chan response
	monitors map[string]uint64
	gen      uint64

	// evicted is the cache eviction count already exported to metrics.
	evicted int64
}

// Serve runs the coordinator loop until ctx is canceled. It implements
// suture.Service. Monitors started by this run exit when it returns.
func (s *Service) Serve(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("history service already running")
	}
	defer s.running.Store(false)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := &coordinator{
		svc:      s,
		ctx:      runCtx,
		cache:    cache.NewTTL[*models.Dataset](s.cfg.Capacity, s.clock.Now),
		pending:  make(map[string][]chan response),
		monitors: make(map[string]uint64),
	}

	sweep := s.clock.NewTicker(s.cfg.SweepInterval)
	defer sweep.Stop()

	logging.Info().
		Dur("ttl", s.cfg.TTL).
		Dur("update_interval", s.cfg.UpdateInterval).
		Int("capacity", s.cfg.Capacity).
		Msg("Starting historical cache service")

	for {
		select {
		case <-ctx.Done():
			s.doneOnce.Do(func() { close(s.done) })
			logging.Info().Msg("Historical cache service stopped")
			return ctx.Err()

		case req := <-s.requests:
			c.handleRequest(req)

		case res := <-s.fetchCh:
			c.handleFetchCompleted(res)

		case msg := <-s.monitorCh:
			c.handleMonitor(msg)

		case reply := <-s.statsCh:
			reply <- c.stats()

		case <-sweep.C():
			if n := c.cache.Sweep(); n > 0 {
				logging.Debug().Int("removed", n).Msg("Swept expired history datasets")
			}
			metrics.CacheSize.WithLabelValues(metrics.CacheTypeHistory).Set(float64(c.cache.Len()))
		}
		c.recordEvictions()
	}
}

// recordEvictions exports evictions made since the last step, whether by a
// sweep, a lookup that found an expired entry, or the capacity bound.
func (c *coordinator) recordEvictions() {
	total := c.cache.Stats().Evictions
	if delta := total - c.evicted; delta > 0 {
		metrics.CacheEvictions.WithLabelValues(metrics.CacheTypeHistory).Add(float64(delta))
	}
	c.evicted = total
}

func (c *coordinator) handleRequest(req request) {
	asset, ok := c.svc.registry.Lookup(strings.ToLower(req.id))
	if !ok {
		req.reply <- response{err: ErrCoinUnknownOrNotAllowed}
		return
	}

	key := asset.Asset.Key()
	if ds, ok := c.cache.Get(key); ok {
		c.cache.Touch(key, c.svc.cfg.TTL)
		metrics.RecordCacheLookup(metrics.CacheTypeHistory, true)
		req.reply <- response{dataset: ds}
		return
	}
	metrics.RecordCacheLookup(metrics.CacheTypeHistory, false)

	if waiters, ok := c.pending[key]; ok {
		c.pending[key] = append(waiters, req.reply)
		return
	}
	c.pending[key] = []chan response{req.reply}

	go func() {
		ds, err := c.svc.fetchDataset(c.ctx, asset, "miss")
		select {
		case c.svc.fetchCh <- fetchCompleted{key: key, asset: asset, dataset: ds, err: err}:
		case <-c.ctx.Done():
		}
	}()
}

func (c *coordinator) handleFetchCompleted(res fetchCompleted) {
	waiters := c.pending[res.key]
	delete(c.pending, res.key)

	if res.err != nil {
		for _, w := range waiters {
			w <- response{err: ErrDBError}
		}
		return
	}

	c.cache.Insert(res.key, res.dataset, c.svc.cfg.TTL)
	metrics.CacheSize.WithLabelValues(metrics.CacheTypeHistory).Set(float64(c.cache.Len()))
	c.startMonitor(res.key, res.asset)

	for _, w := range waiters {
		w <- response{dataset: res.dataset}
	}
}

func (c *coordinator) handleMonitor(msg monitorMsg) {
	current, tracked := c.monitors[msg.key]
	owner := tracked && current == msg.gen

	switch msg.kind {
	case shouldUpdate:
		live := owner && c.cache.Contains(msg.key)
		if owner && !live {
			delete(c.monitors, msg.key)
		}
		msg.live <- live

	case updatedDataset:
		if !owner || !c.cache.Replace(msg.key, msg.dataset) {
			metrics.HistoryUpdatesDropped.Inc()
			logging.Debug().Str("asset", msg.key).Msg("Dropped refreshed dataset for expired entry")
		}
	}
}

func (c *coordinator) stats() Stats {
	waiters := 0
	for _, w := range c.pending {
		waiters += len(w)
	}
	return Stats{
		Cache:          c.cache.Stats(),
		Entries:        c.cache.Len(),
		PendingFetches: len(c.pending),
		PendingWaiters: waiters,
		ActiveMonitors: c.svc.activeMonitors.Load(),
	}
}

// startMonitor hands key to a new monitor generation. Any older monitor for
// the key loses ownership and stops at its next tick. The ticker is created
// here, before any reply is sent, so the first tick is one full interval
// after the insert.
func (c *coordinator) startMonitor(key string, asset models.AssetWithMetadata) {
	c.gen++
	c.monitors[key] = c.gen

	m := &monitor{
		svc:    c.svc,
		key:    key,
		gen:    c.gen,
		asset:  asset,
		ticker: c.svc.clock.NewTicker(c.svc.cfg.UpdateInterval),
	}
	c.svc.activeMonitors.Add(1)
	metrics.HistoryActiveMonitors.Inc()
	go m.run(c.ctx)
}

// fetchDataset loads and transforms the history for asset.
func (s *Service) fetchDataset(ctx context.Context, asset models.AssetWithMetadata, trigger string) (*models.Dataset, error) {
	start := time.Now()
	rows, err := s.fetcher.FetchHistory(ctx, asset.Asset)
	metrics.RecordHistoryFetch(trigger, time.Since(start), err)
	if err != nil {
		logging.Error().Err(err).
			Str("asset", asset.Asset.TickerID()).
			Str("trigger", trigger).
			Msg("Failed to fetch history")
		return nil, err
	}
	return models.BuildDataset(asset, rows), nil
}
