// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tomtom215/domfi/internal/config"
	"github.com/tomtom215/domfi/internal/logging"
	"github.com/tomtom215/domfi/internal/metrics"
	"github.com/tomtom215/domfi/internal/models"
)

// Store is the subset of the database the loaders write to.
// Implemented by *database.DB.
type Store interface {
	InsertProvenance(ctx context.Context, in models.ProvenanceInput) (models.ProvenanceID, error)
	InsertCoinDominance(ctx context.Context, agent string, pid models.ProvenanceID, entries []models.CoinDominanceEntry) (int, error)
}

// Publisher announces committed snapshots. Implemented by events.Bus.
type Publisher interface {
	PublishSnapshotCommitted(ctx context.Context, ev models.SnapshotCommitted) error
}

// Loader polls the live coin_dominance endpoint and stores every snapshot
// with its provenance.
type Loader struct {
	cfg       config.LoaderConfig
	client    *Client
	store     Store
	publisher Publisher

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a loader. publisher may be nil.
func New(cfg config.LoaderConfig, store Store, publisher Publisher) *Loader {
	return &Loader{
		cfg: cfg,
		client: NewClient(ClientConfig{
			Name:      "coingecko-" + cfg.AgentName,
			Interval:  cfg.Interval,
			Burst:     cfg.Burst,
			Timeout:   cfg.Timeout,
			CacheBust: true,
		}),
		store:     store,
		publisher: publisher,
	}
}

// RunOnce fetches and stores one snapshot. The raw response is stored
// before it is parsed, so malformed bodies are still kept.
func (l *Loader) RunOnce(ctx context.Context) (ev models.SnapshotCommitted, err error) {
	rows := 0
	defer func() { metrics.RecordSnapshot(rows, err) }()

	f, err := l.client.Fetch(ctx, l.cfg.URL)
	if err != nil {
		return ev, fmt.Errorf("fetch failed: %w", err)
	}

	prov, err := f.ProvenanceInput(l.cfg.AgentName)
	if err != nil {
		return ev, err
	}
	pid, err := l.store.InsertProvenance(ctx, prov)
	if err != nil {
		return ev, fmt.Errorf("failed to store provenance: %w", err)
	}

	entries, ts, err := decodeSnapshot(f.Body)
	if err != nil {
		return ev, fmt.Errorf("provenance %s: %w", pid, err)
	}

	inserted, err := l.store.InsertCoinDominance(ctx, l.cfg.AgentName, pid, entries)
	if err != nil {
		return ev, fmt.Errorf("provenance %s: %w", pid, err)
	}
	rows = len(entries)

	logging.Info().
		Str("provenance", pid.UUID.String()).
		Int64("object_id", pid.ObjectID).
		Time("snapshot", ts).
		Int("rows", len(entries)).
		Int("inserted", inserted).
		Msg("Committed snapshot")

	ev = models.SnapshotCommitted{
		ProvenanceUUID: pid.UUID,
		Agent:          l.cfg.AgentName,
		Timestamp:      ts.Unix(),
		Rows:           inserted,
	}

	if l.publisher != nil {
		if perr := l.publisher.PublishSnapshotCommitted(ctx, ev); perr != nil {
			logging.Warn().Err(perr).Str("provenance", pid.UUID.String()).Msg("Failed to publish snapshot event")
		}
	}
	return ev, nil
}

// Start begins polling in the background.
func (l *Loader) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return fmt.Errorf("loader is already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.running = true

	logging.Info().
		Str("url", l.cfg.URL).
		Str("agent", l.cfg.AgentName).
		Dur("interval", l.cfg.Interval).
		Int("burst", l.cfg.Burst).
		Msg("Starting loader")

	l.wg.Add(1)
	go l.loop(loopCtx)
	return nil
}

// Stop cancels polling and waits for the in-flight iteration.
func (l *Loader) Stop() error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	l.running = false
	cancel := l.cancel
	l.mu.Unlock()

	cancel()
	l.wg.Wait()
	logging.Info().Msg("Loader stopped")
	return nil
}

// loop runs iterations back to back; the client's token bucket sets the pace.
func (l *Loader) loop(ctx context.Context) {
	defer l.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}
		if _, err := l.RunOnce(ctx); err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			logging.Error().Err(err).Msg("Loader iteration failed")
		}
	}
}
