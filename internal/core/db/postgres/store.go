// Package postgres stores the snapshot index in PostgreSQL. It implements the
// same transactional row operations as the SQLite store so the reconciler can
// run against either backend.
package postgres

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seckatie/linkindex/internal/core/db"
	"github.com/seckatie/linkindex/internal/errors"
	"github.com/seckatie/linkindex/internal/logging"
)

const schema = `
	CREATE TABLE IF NOT EXISTS snapshots (
		seq BIGSERIAL,
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL UNIQUE,
		timestamp TEXT UNIQUE,
		title TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '',
		updated TEXT NOT NULL DEFAULT '',
		added_at TEXT NOT NULL
	)
`

const selectSnapshot = `
	SELECT id, url, COALESCE(timestamp, ''), title, tags, updated, added_at
	FROM snapshots
`

type Store struct {
	pool *pgxpool.Pool
}

// Open connects to databaseDSN and creates the snapshots table if needed.
func Open(ctx context.Context, databaseDSN string) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseDSN)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to init schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// InTx runs fn inside a single transaction with the same rollback and error
// contract as db.DB.InTx. The PostgreSQL store has no event listeners, so
// nothing is emitted after commit; it backs the update and list commands only.
func (s *Store) InTx(ctx context.Context, fn func(db.SnapshotTx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.TransactionFailed("begin", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logging.FromContext(ctx).Warn().Err(err).Msg("failed to roll back transaction")
		}
	}()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.TransactionFailed("commit", err)
	}
	return nil
}

// Snapshots streams every snapshot in insertion order.
func (s *Store) Snapshots(ctx context.Context) iter.Seq2[db.Snapshot, error] {
	return func(yield func(db.Snapshot, error) bool) {
		rows, err := s.pool.Query(ctx, selectSnapshot+" ORDER BY seq")
		if err != nil {
			yield(db.Snapshot{}, storeError("read snapshots", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			snap, err := scanSnapshot(rows)
			if err != nil {
				yield(db.Snapshot{}, storeError("scan snapshot", err))
				return
			}
			if !yield(snap, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(db.Snapshot{}, storeError("read snapshots", err))
		}
	}
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) ListSnapshots(ctx context.Context) ([]db.Snapshot, error) {
	rows, err := t.tx.Query(ctx, selectSnapshot+" ORDER BY seq")
	if err != nil {
		return nil, storeError("list snapshots", err)
	}
	defer rows.Close()

	var out []db.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, storeError("scan snapshot", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list snapshots", err)
	}
	return out, nil
}

func (t *pgTx) InsertSnapshot(ctx context.Context, f db.SnapshotFields) (db.Snapshot, error) {
	snap := db.Snapshot{
		ID:             uuid.NewString(),
		SnapshotFields: f,
		AddedAt:        time.Now().UTC().Format(time.RFC3339),
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO snapshots (id, url, timestamp, title, tags, updated, added_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, snap.ID, f.URL, nullIfEmpty(f.Timestamp), f.Title, f.Tags, f.Updated, snap.AddedAt)
	if err != nil {
		return db.Snapshot{}, storeError("insert snapshot", err)
	}
	return snap, nil
}

func (t *pgTx) UpdateSnapshot(ctx context.Context, id string, f db.SnapshotFields) (db.Snapshot, error) {
	snap, err := scanSnapshot(t.tx.QueryRow(ctx, `
		UPDATE snapshots
		SET url = $1, timestamp = $2, title = $3, tags = $4, updated = $5
		WHERE id = $6
		RETURNING id, url, COALESCE(timestamp, ''), title, tags, updated, added_at
	`, f.URL, nullIfEmpty(f.Timestamp), f.Title, f.Tags, f.Updated, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.Snapshot{}, errors.NewStoreError("update snapshot", errors.ErrNotFound, fmt.Errorf("snapshot not found: %s", id))
		}
		return db.Snapshot{}, storeError("update snapshot", err)
	}
	return snap, nil
}

func (t *pgTx) DeleteSnapshot(ctx context.Context, id string) error {
	tag, err := t.tx.Exec(ctx, "DELETE FROM snapshots WHERE id = $1", id)
	if err != nil {
		return storeError("delete snapshot", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NewStoreError("delete snapshot", errors.ErrNotFound, fmt.Errorf("snapshot not found: %s", id))
	}
	return nil
}

func (t *pgTx) ReleaseTimestamp(ctx context.Context, id string) error {
	tag, err := t.tx.Exec(ctx, "UPDATE snapshots SET timestamp = NULL WHERE id = $1", id)
	if err != nil {
		return storeError("release timestamp", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NewStoreError("release timestamp", errors.ErrNotFound, fmt.Errorf("snapshot not found: %s", id))
	}
	return nil
}

func (t *pgTx) UpsertSnapshot(ctx context.Context, f db.SnapshotFields) (db.Snapshot, bool, error) {
	var id string
	err := t.tx.QueryRow(ctx, "SELECT id FROM snapshots WHERE url = $1", f.URL).Scan(&id)
	switch {
	case err == nil:
		snap, err := t.UpdateSnapshot(ctx, id, f)
		return snap, false, err
	case errors.Is(err, pgx.ErrNoRows):
		snap, err := t.InsertSnapshot(ctx, f)
		return snap, err == nil, err
	default:
		return db.Snapshot{}, false, storeError("get snapshot", err)
	}
}

func scanSnapshot(row pgx.Row) (db.Snapshot, error) {
	var s db.Snapshot
	err := row.Scan(&s.ID, &s.URL, &s.Timestamp, &s.Title, &s.Tags, &s.Updated, &s.AddedAt)
	return s, err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// storeError classifies a driver error; integrity constraint violations become
// ErrConstraintViolation.
func storeError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		return errors.ConstraintViolation(op, err)
	}
	return errors.NewStoreError(op, nil, err)
}
