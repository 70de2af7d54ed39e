package db

import (
	"context"
	"database/sql"
	"fmt"
	"iter"

	"github.com/seckatie/linkindex/internal/errors"
	"github.com/seckatie/linkindex/internal/logging"
)

const selectSnapshot = `
	SELECT id, url, COALESCE(timestamp, ''), title, tags, updated, added_at
	FROM snapshots
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(r rowScanner) (Snapshot, error) {
	var s Snapshot
	err := r.Scan(&s.ID, &s.URL, &s.Timestamp, &s.Title, &s.Tags, &s.Updated, &s.AddedAt)
	return s, err
}

// nullIfEmpty maps an empty timestamp to NULL so the UNIQUE constraint ignores it.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// ------------------------------
// Snapshot reads
// ------------------------------

func (db *DB) GetSnapshot(id string) (Snapshot, error) {
	s, err := scanSnapshot(db.db.QueryRow(selectSnapshot+" WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, errors.NewStoreError("get snapshot", errors.ErrNotFound, fmt.Errorf("snapshot not found: %s", id))
		}
		return Snapshot{}, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return s, nil
}

func (db *DB) GetSnapshotByURL(url string) (Snapshot, error) {
	s, err := scanSnapshot(db.db.QueryRow(selectSnapshot+" WHERE url = ?", url))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, errors.NewStoreError("get snapshot", errors.ErrNotFound, fmt.Errorf("snapshot not found: %s", url))
		}
		return Snapshot{}, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return s, nil
}

// ListSnapshots returns snapshots newest first. A limit <= 0 returns all of them.
func (db *DB) ListSnapshots(limit int) ([]Snapshot, error) {
	return db.listSnapshots(selectSnapshot+" ORDER BY added_at DESC, rowid DESC", limit)
}

// ListSnapshotsWithoutTitle returns snapshots whose title is still empty, oldest first.
func (db *DB) ListSnapshotsWithoutTitle(limit int) ([]Snapshot, error) {
	return db.listSnapshots(selectSnapshot+" WHERE title = '' ORDER BY added_at, rowid", limit)
}

func (db *DB) listSnapshots(query string, limit int) ([]Snapshot, error) {
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = db.db.Query(query+" LIMIT ?", limit)
	} else {
		rows, err = db.db.Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Default().Warn().Err(err).Msg("failed to close rows")
		}
	}()

	var out []Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Snapshots streams every snapshot in insertion order. The single database
// connection is held until iteration stops, so do not query the DB from inside
// the loop body.
func (db *DB) Snapshots(ctx context.Context) iter.Seq2[Snapshot, error] {
	return func(yield func(Snapshot, error) bool) {
		rows, err := db.db.QueryContext(ctx, selectSnapshot+" ORDER BY added_at, rowid")
		if err != nil {
			yield(Snapshot{}, storeError("read snapshots", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			s, err := scanSnapshot(rows)
			if err != nil {
				yield(Snapshot{}, storeError("scan snapshot", err))
				return
			}
			if !yield(s, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Snapshot{}, storeError("read snapshots", err))
		}
	}
}

func (db *DB) CountSnapshots() (int, error) {
	var n int
	if err := db.db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return n, nil
}

// SetSnapshotTitle stores a fetched page title.
// Emits a SnapshotTitleSetEvent after successful update.
func (db *DB) SetSnapshotTitle(id string, title string) error {
	res, err := db.db.Exec("UPDATE snapshots SET title = ? WHERE id = ?", title, id)
	if err != nil {
		return fmt.Errorf("failed to set snapshot title: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to determine rows affected: %w", err)
	}
	if affected == 0 {
		return errors.NewStoreError("set snapshot title", errors.ErrNotFound, fmt.Errorf("snapshot not found: %s", id))
	}

	db.emit(SnapshotTitleSetEvent{SnapshotID: id, Title: title})
	return nil
}
