// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package history

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/domfi/internal/models"
)

// fakeClock is a manually advanced Clock. Tickers fire when Advance crosses
// their next deadline; like time.Ticker, a tick is dropped if the previous
// one has not been received.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{clock: c, ch: make(chan time.Time, 1), period: d, next: c.now.Add(d)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	for _, t := range c.tickers {
		if t.stopped {
			continue
		}
		for !t.next.After(c.now) {
			select {
			case t.ch <- c.now:
			default:
			}
			t.next = t.next.Add(t.period)
		}
	}
}

type fakeTicker struct {
	clock   *fakeClock
	ch      chan time.Time
	period  time.Duration
	next    time.Time
	stopped bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.stopped = true
}

// fakeFetcher returns one row whose value is the 1-based call number, so a
// dataset reveals which fetch produced it.
type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	errs    map[int]error
	failAll error
	gates   map[int]chan struct{}
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		errs:  make(map[int]error),
		gates: make(map[int]chan struct{}),
	}
}

func (f *fakeFetcher) FetchHistory(ctx context.Context, _ models.DominanceAsset) ([]models.HistoryRow, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	gate := f.gates[n]
	err := f.errs[n]
	if f.failAll != nil {
		err = f.failAll
	}
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	tick := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	return []models.HistoryRow{{
		Tick:           tick,
		Timestamp:      tick.Add(5 * time.Second),
		ProvenanceUUID: uuid.New(),
		Value:          decimal.NewFromInt(int64(n)),
	}}, nil
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeFetcher) gate(call int) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := make(chan struct{})
	f.gates[call] = g
	return g
}

func (f *fakeFetcher) failOn(call int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[call] = err
}

// fetchedBy returns the call number that produced ds.
func fetchedBy(ds *models.Dataset) int64 {
	return ds.Rows[0].PriceOriginal.IntPart()
}

// harness runs a Service on a fake clock.
type harness struct {
	t       *testing.T
	svc     *Service
	clock   *fakeClock
	fetcher *fakeFetcher
	cfg     Config

	cancel   context.CancelFunc
	done     chan error
	stopOnce sync.Once
}

func testConfig() Config {
	return Config{
		TTL:            5 * time.Minute,
		UpdateInterval: time.Minute,
		Capacity:       16,
		RequestBuffer:  64,
		MonitorBuffer:  16,
		SweepInterval:  24 * time.Hour,
		RequestTimeout: 2 * time.Second,
	}
}

func newHarness(t *testing.T, cfg Config, fetcher *fakeFetcher) *harness {
	t.Helper()

	clk := newFakeClock()
	svc := NewService(cfg, models.DefaultRegistry(), fetcher, clk)
	ctx, cancel := context.WithCancel(context.Background())

	h := &harness{
		t:       t,
		svc:     svc,
		clock:   clk,
		fetcher: fetcher,
		cfg:     cfg,
		cancel:  cancel,
		done:    make(chan error, 1),
	}
	go func() { h.done <- svc.Serve(ctx) }()
	t.Cleanup(h.stop)
	return h
}

func (h *harness) stop() {
	h.stopOnce.Do(func() {
		h.cancel()
		select {
		case <-h.done:
		case <-time.After(2 * time.Second):
			h.t.Error("Serve did not return after cancel")
		}
	})
}

func (h *harness) request(id string) (*models.Dataset, error) {
	return h.svc.Request(context.Background(), id)
}

func (h *harness) mustRequest(id string) *models.Dataset {
	h.t.Helper()
	ds, err := h.request(id)
	if err != nil {
		h.t.Fatalf("Request(%q) failed: %v", id, err)
	}
	return ds
}

// tick advances the clock by one update interval.
func (h *harness) tick() {
	h.clock.Advance(h.cfg.UpdateInterval)
}

func (h *harness) stats() Stats {
	h.t.Helper()
	st, err := h.svc.Stats(context.Background())
	if err != nil {
		h.t.Fatalf("Stats failed: %v", err)
	}
	return st
}

// eventually polls cond until it holds or a real-time deadline passes.
func eventually(t *testing.T, cond func() bool, format string, args ...interface{}) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met: "+format, args...)
}

// never asserts cond stays false for a short real-time window.
func never(t *testing.T, cond func() bool, format string, args ...interface{}) {
	t.Helper()
	deadline := time.Now().Add(50 * time.Millisecond)
	for time.Now().Before(deadline) {
		if cond() {
			t.Fatalf("unexpected condition: "+format, args...)
		}
		time.Sleep(time.Millisecond)
	}
}
