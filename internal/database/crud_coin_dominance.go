// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/domfi/internal/logging"
	"github.com/tomtom215/domfi/internal/metrics"
	"github.com/tomtom215/domfi/internal/models"
)

// insertProgressEvery controls how often bulk inserts log progress.
const insertProgressEvery = 1000

// InsertCoinDominance stores entries under pid in one transaction. Rows
// that already exist for (agent, timestamp, coin) are skipped. Returns the
// number of rows actually inserted.
func (db *DB) InsertCoinDominance(ctx context.Context, agent string, pid models.ProvenanceID, entries []models.CoinDominanceEntry) (inserted int, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert", "coin_dominance", time.Since(start), err) }()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO coin_dominance (
			provenance_uuid, object_id, agent, timestamp_utc, imported_at_utc,
			coin_id, coin_name, market_cap_usd, market_dominance_percentage
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer closeWithLog(stmt, "statement")

	importedAt := db.now().UTC()
	for i, e := range entries {
		res, err := stmt.ExecContext(ctx,
			pid.UUID, pid.ObjectID, agent, e.Timestamp.UTC(), importedAt,
			e.ID, e.Name, e.MarketCapUSD, e.DominancePercentage,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert %q at %s: %w", e.ID, e.Timestamp.UTC().Format(time.RFC3339), err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}

		if (i+1)%insertProgressEvery == 0 {
			logging.Info().
				Str("provenance", pid.UUID.String()).
				Int("done", i+1).
				Int("total", len(entries)).
				Msg("Inserting coin dominance")
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit coin dominance: %w", err)
	}

	metrics.DBRowsInserted.WithLabelValues("coin_dominance").Add(float64(inserted))
	return inserted, nil
}

// LatestTimestampAgent returns the newest snapshot's timestamp and agent.
func (db *DB) LatestTimestampAgent(ctx context.Context) (models.TimestampAgent, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	var ta models.TimestampAgent
	err := db.conn.QueryRowContext(ctx, `
		SELECT timestamp_utc, agent
		FROM coin_dominance
		WHERE timestamp_utc = (SELECT max(timestamp_utc) FROM coin_dominance)
		LIMIT 1`,
	).Scan(&ta.Timestamp, &ta.Agent)
	metrics.RecordDBQuery("select", "coin_dominance", time.Since(start), err)
	if err != nil {
		return ta, notFound(err, "latest snapshot")
	}
	ta.Timestamp = ta.Timestamp.UTC()
	return ta, nil
}

// TimestampFromRange returns the first snapshot in the minute starting at
// ts (truncated), including a snapshot exactly on the next minute.
func (db *DB) TimestampFromRange(ctx context.Context, ts time.Time) (models.TimestampAgent, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	from := truncateMinute(ts)
	to := from.Add(time.Minute)

	start := time.Now()
	var ta models.TimestampAgent
	err := db.conn.QueryRowContext(ctx, `
		SELECT timestamp_utc, agent
		FROM coin_dominance
		WHERE timestamp_utc BETWEEN $1 AND $2
		ORDER BY timestamp_utc ASC
		LIMIT 1`, from, to,
	).Scan(&ta.Timestamp, &ta.Agent)
	metrics.RecordDBQuery("select", "coin_dominance", time.Since(start), err)
	if err != nil {
		return ta, notFound(err, "snapshot near "+from.Format(time.RFC3339))
	}
	ta.Timestamp = ta.Timestamp.UTC()
	return ta, nil
}

// resolve locates the snapshot for ts, or the newest one when ts is nil.
// It returns the requested timestamp alongside.
func (db *DB) resolve(ctx context.Context, ts *time.Time) (models.TimestampAgent, time.Time, error) {
	if ts == nil {
		ta, err := db.LatestTimestampAgent(ctx)
		return ta, ta.Timestamp, err
	}
	ta, err := db.TimestampFromRange(ctx, *ts)
	return ta, ts.UTC(), err
}

// FindByTimestamp returns every coin of the snapshot nearest ts (see
// TimestampFromRange), or of the newest snapshot when ts is nil. The
// aggregate row sorts last; the rest by market cap, largest first.
func (db *DB) FindByTimestamp(ctx context.Context, ts *time.Time) (*models.Snapshot, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	ta, requested, err := db.resolve(ctx, ts)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT c.coin_name, c.coin_id, c.market_cap_usd, c.market_dominance_percentage,
		       c.provenance_uuid, c.imported_at_utc, o.sha256
		FROM coin_dominance c
		JOIN object_storage o ON o.id = c.object_id
		WHERE c.timestamp_utc = $1 AND c.agent = $2
		ORDER BY CASE WHEN coalesce(c.coin_id, '') = '' THEN 1 ELSE 0 END,
		         %s DESC`, db.dialect.numeric("c.market_cap_usd"))

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, ta.Timestamp, ta.Agent)
	metrics.RecordDBQuery("select", "coin_dominance", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer closeWithLog(rows, "rows")

	snap := &models.Snapshot{
		Meta: models.OriginMetadata{
			RequestedTimestamp: requested,
			ActualTimestamp:    ta.Timestamp,
			Agent:              ta.Agent,
		},
	}
	for rows.Next() {
		var r models.CoinDominanceRecord
		if err := rows.Scan(&r.Name, &r.ID, &r.MarketCapUSD, &r.DominancePercentage,
			&snap.Meta.ProvenanceUUID, &snap.Meta.ImportedAt, &snap.Meta.BlobSHA256); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snap.Records = append(snap.Records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}
	if len(snap.Records) == 0 {
		return nil, fmt.Errorf("snapshot at %s: %w", ta.Timestamp.Format(time.RFC3339), ErrNotFound)
	}

	snap.Meta.ImportedAt = snap.Meta.ImportedAt.UTC()
	return snap, nil
}

// FindByIDAtTimestamp returns the stored dominance of asset's underlying
// in the snapshot nearest ts. Percentage is the raw stored value; callers
// apply the asset transform.
func (db *DB) FindByIDAtTimestamp(ctx context.Context, asset models.DominanceAsset, ts *time.Time) (*models.PricingResult, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	ta, requested, err := db.resolve(ctx, ts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res := &models.PricingResult{
		Meta: models.OriginMetadataSlim{
			RequestedTimestamp: requested,
			ActualTimestamp:    ta.Timestamp,
		},
		CoinID:     asset.TickerID(),
		CoinSymbol: asset.TickerDisplay(),
	}
	err = db.conn.QueryRowContext(ctx, `
		SELECT market_dominance_percentage, provenance_uuid
		FROM coin_dominance
		WHERE timestamp_utc = $1 AND agent = $2 AND coin_id = $3
		LIMIT 1`, ta.Timestamp, ta.Agent, asset.Underlying.ID,
	).Scan(&res.Percentage, &res.Meta.ProvenanceUUID)
	metrics.RecordDBQuery("select", "coin_dominance", time.Since(start), err)
	if err != nil {
		return nil, notFound(err, asset.TickerID()+" at "+ta.Timestamp.Format(time.RFC3339))
	}
	return res, nil
}
