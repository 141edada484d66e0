// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package history

import (
	"context"
	"errors"

	"github.com/tomtom215/domfi/internal/logging"
	"github.com/tomtom215/domfi/internal/metrics"
	"github.com/tomtom215/domfi/internal/models"
)

var errMonitorStopped = errors.New("coordinator gone")

// monitor keeps one cached dataset fresh. It owns no cache state: each tick
// it asks the coordinator whether its key is still cached, and pushes a
// refreshed dataset back if so.
type monitor struct {
	svc    *Service
	key    string
	gen    uint64
	asset  models.AssetWithMetadata
	ticker Ticker
}

func (m *monitor) run(ctx context.Context) {
	defer func() {
		m.ticker.Stop()
		m.svc.activeMonitors.Add(-1)
		metrics.HistoryActiveMonitors.Dec()
	}()

	log := logging.WithComponent("history").With().
		Str("asset", m.asset.Asset.TickerID()).
		Logger()
	log.Info().Dur("update_interval", m.svc.cfg.UpdateInterval).Msg("Started monitor")

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.ticker.C():
		}

		live, err := m.shouldUpdate(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to determine history liveliness")
			return
		}
		if !live {
			log.Info().Msg("Stopping monitoring")
			return
		}

		ds, err := m.svc.fetchDataset(ctx, m.asset, "refresh")
		if err != nil {
			log.Warn().Err(err).Msg("Failed to refresh history, retrying next tick")
			continue
		}

		msg := monitorMsg{kind: updatedDataset, key: m.key, gen: m.gen, dataset: ds}
		select {
		case m.svc.monitorCh <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (m *monitor) shouldUpdate(ctx context.Context) (bool, error) {
	live := make(chan bool, 1)
	msg := monitorMsg{kind: shouldUpdate, key: m.key, gen: m.gen, live: live}

	select {
	case m.svc.monitorCh <- msg:
	case <-ctx.Done():
		return false, errMonitorStopped
	}

	select {
	case ok := <-live:
		return ok, nil
	case <-ctx.Done():
		return false, errMonitorStopped
	}
}
