// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/domfi/internal/metrics"
	"github.com/tomtom215/domfi/internal/models"
)

// HistoryWindow is how far back FindHistory looks.
const HistoryWindow = 72 * time.Hour

// FindHistory returns one row per minute for asset's underlying over
// [now-72h, start of the current minute), taking the earliest snapshot in
// each minute. Rows are ordered by minute.
func (db *DB) FindHistory(ctx context.Context, asset models.DominanceAsset, now time.Time) ([]models.HistoryRow, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	to := truncateMinute(now)
	from := now.UTC().Add(-HistoryWindow)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT DISTINCT ON (date_trunc('minute', timestamp_utc))
		       date_trunc('minute', timestamp_utc) AS tick,
		       timestamp_utc,
		       provenance_uuid,
		       market_dominance_percentage
		FROM coin_dominance
		WHERE coin_id = $1 AND timestamp_utc >= $2 AND timestamp_utc < $3
		ORDER BY date_trunc('minute', timestamp_utc), timestamp_utc ASC`,
		asset.Underlying.ID, from, to,
	)
	metrics.RecordDBQuery("select", "coin_dominance", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for %s: %w", asset.TickerID(), err)
	}
	defer closeWithLog(rows, "rows")

	var out []models.HistoryRow
	for rows.Next() {
		var r models.HistoryRow
		if err := rows.Scan(&r.Tick, &r.Timestamp, &r.ProvenanceUUID, &r.Value); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		r.Tick = r.Tick.UTC()
		r.Timestamp = r.Timestamp.UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}
	return out, nil
}

// HistoryFetcher serves history.Fetcher from the database, anchoring the
// window on Now.
type HistoryFetcher struct {
	DB  *DB
	Now func() time.Time
}

// FetchHistory implements history.Fetcher.
func (f HistoryFetcher) FetchHistory(ctx context.Context, asset models.DominanceAsset) ([]models.HistoryRow, error) {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	return f.DB.FindHistory(ctx, asset, now())
}
