// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/domfi/internal/metrics"
	"github.com/tomtom215/domfi/internal/models"
)

// InsertProvenance stores the raw blob (deduplicated by sha256) and a new
// provenance row pointing at it, in one transaction.
func (db *DB) InsertProvenance(ctx context.Context, in models.ProvenanceInput) (pid models.ProvenanceID, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert", "provenance", time.Since(start), err) }()

	sum := sha256.Sum256(in.Data)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return pid, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	objectID, err := db.storeObject(ctx, tx, sum[:], in.Data, in.Mime)
	if err != nil {
		return pid, err
	}

	id := uuid.New()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO provenance (uuid, object_id, agent, timestamp_utc, request_metadata, response_metadata)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, objectID, in.Agent, in.Timestamp.UTC(),
		nullJSON(in.RequestMetadata), nullJSON(in.ResponseMetadata),
	)
	if err != nil {
		return pid, fmt.Errorf("failed to insert provenance: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return pid, fmt.Errorf("failed to commit provenance: %w", err)
	}

	metrics.DBRowsInserted.WithLabelValues("provenance").Inc()
	return models.ProvenanceID{UUID: id, ObjectID: objectID}, nil
}

// storeObject inserts the blob unless its hash is already stored and
// returns the object id either way.
func (db *DB) storeObject(ctx context.Context, tx *sql.Tx, sum, data []byte, mime string) (int64, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO object_storage (sha256, data, mime)
		VALUES ($1, $2, $3)
		ON CONFLICT (sha256) `+db.dialect.objectConflict,
		sum, data, nullString(mime),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to store object: %w", err)
	}

	var objectID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM object_storage WHERE sha256 = $1`, sum).Scan(&objectID)
	if err != nil {
		return 0, fmt.Errorf("failed to look up object: %w", err)
	}
	return objectID, nil
}

// GetProvenance returns a provenance record joined with its blob.
func (db *DB) GetProvenance(ctx context.Context, id uuid.UUID) (*models.Provenance, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	var (
		p        models.Provenance
		req, res sql.NullString
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT p.uuid, p.agent, p.timestamp_utc, p.object_id, o.sha256, o.data,
		       p.request_metadata, p.response_metadata
		FROM provenance p
		JOIN object_storage o ON o.id = p.object_id
		WHERE p.uuid = $1`, id,
	).Scan(&p.UUID, &p.Agent, &p.Timestamp, &p.ObjectID, &p.ObjectSHA256, &p.Data, &req, &res)
	metrics.RecordDBQuery("select", "provenance", time.Since(start), err)
	if err != nil {
		return nil, notFound(err, "provenance "+id.String())
	}

	p.Timestamp = p.Timestamp.UTC()
	p.RequestMetadata = jsonBytes(req)
	p.ResponseMetadata = jsonBytes(res)
	return &p, nil
}

// GetBlob returns the object whose content hashes to sum.
func (db *DB) GetBlob(ctx context.Context, sum []byte) (*models.Blob, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	var (
		b    models.Blob
		mime sql.NullString
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, sha256, data, mime FROM object_storage WHERE sha256 = $1`, sum,
	).Scan(&b.ID, &b.SHA256, &b.Data, &mime)
	metrics.RecordDBQuery("select", "object_storage", time.Since(start), err)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("blob %x", sum))
	}

	b.Mime = mime.String
	return &b, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullJSON binds a JSON document as text; both VARCHAR and jsonb accept it.
func nullJSON(b []byte) sql.NullString {
	return sql.NullString{String: string(b), Valid: len(b) > 0}
}

func jsonBytes(s sql.NullString) []byte {
	if !s.Valid {
		return nil
	}
	return []byte(s.String)
}
