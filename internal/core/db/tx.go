package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/seckatie/linkindex/internal/errors"
	"github.com/seckatie/linkindex/internal/logging"
)

// SnapshotTx is the set of row operations available inside a unit of work.
// Rows are addressed by their store-assigned ID.
type SnapshotTx interface {
	// ListSnapshots returns every row in insertion order.
	ListSnapshots(ctx context.Context) ([]Snapshot, error)
	// InsertSnapshot creates a row with a fresh ID.
	InsertSnapshot(ctx context.Context, f SnapshotFields) (Snapshot, error)
	// UpdateSnapshot overwrites the fields of an existing row, keeping its ID.
	UpdateSnapshot(ctx context.Context, id string, f SnapshotFields) (Snapshot, error)
	// DeleteSnapshot removes a row.
	DeleteSnapshot(ctx context.Context, id string) error
	// ReleaseTimestamp clears a row's timestamp so another row can take it
	// within the same transaction. It emits no event.
	ReleaseTimestamp(ctx context.Context, id string) error
	// UpsertSnapshot replaces the fields of the row holding f.URL, or inserts one.
	// created reports whether a new row was inserted.
	UpsertSnapshot(ctx context.Context, f SnapshotFields) (s Snapshot, created bool, err error)
}

// InTx runs fn inside a single transaction. If fn returns an error the
// transaction is rolled back and the error is returned unchanged. Begin and
// commit failures are reported as ErrTransactionFailed.
//
// Events for mutations made through the SnapshotTx are dispatched only after
// a successful commit.
func (db *DB) InTx(ctx context.Context, fn func(SnapshotTx) error) error {
	sqlTx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.TransactionFailed("begin", err)
	}

	tx := &sqliteTx{tx: sqlTx, now: time.Now}
	if err := fn(tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logging.FromContext(ctx).Warn().Err(rbErr).Msg("failed to roll back transaction")
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return errors.TransactionFailed("commit", err)
	}

	for _, ev := range tx.events {
		db.emit(ev)
	}
	return nil
}

type sqliteTx struct {
	tx     *sql.Tx
	now    func() time.Time
	events []Event
}

func (t *sqliteTx) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := t.tx.QueryContext(ctx, selectSnapshot+" ORDER BY added_at, rowid")
	if err != nil {
		return nil, storeError("list snapshots", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, storeError("scan snapshot", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list snapshots", err)
	}
	return out, nil
}

func (t *sqliteTx) get(ctx context.Context, where string, arg any) (Snapshot, error) {
	s, err := scanSnapshot(t.tx.QueryRowContext(ctx, selectSnapshot+" WHERE "+where+" = ?", arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, errors.NewStoreError("get snapshot", errors.ErrNotFound, fmt.Errorf("snapshot not found: %v", arg))
		}
		return Snapshot{}, storeError("get snapshot", err)
	}
	return s, nil
}

func (t *sqliteTx) InsertSnapshot(ctx context.Context, f SnapshotFields) (Snapshot, error) {
	s := Snapshot{
		ID:             uuid.NewString(),
		SnapshotFields: f,
		AddedAt:        t.now().UTC().Format(time.RFC3339),
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, url, timestamp, title, tags, updated, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.ID, f.URL, nullIfEmpty(f.Timestamp), f.Title, f.Tags, f.Updated, s.AddedAt)
	if err != nil {
		return Snapshot{}, storeError("insert snapshot", err)
	}

	t.events = append(t.events, SnapshotCreatedEvent{Snapshot: s})
	return s, nil
}

func (t *sqliteTx) UpdateSnapshot(ctx context.Context, id string, f SnapshotFields) (Snapshot, error) {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE snapshots
		SET url = ?, timestamp = ?, title = ?, tags = ?, updated = ?
		WHERE id = ?
	`, f.URL, nullIfEmpty(f.Timestamp), f.Title, f.Tags, f.Updated, id)
	if err != nil {
		return Snapshot{}, storeError("update snapshot", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Snapshot{}, storeError("update snapshot", err)
	}
	if affected == 0 {
		return Snapshot{}, errors.NewStoreError("update snapshot", errors.ErrNotFound, fmt.Errorf("snapshot not found: %s", id))
	}

	s, err := t.get(ctx, "id", id)
	if err != nil {
		return Snapshot{}, err
	}
	t.events = append(t.events, SnapshotUpdatedEvent{Snapshot: s})
	return s, nil
}

func (t *sqliteTx) DeleteSnapshot(ctx context.Context, id string) error {
	// Fetch before deletion to include in the event
	s, err := t.get(ctx, "id", id)
	if err != nil {
		return err
	}

	if _, err := t.tx.ExecContext(ctx, "DELETE FROM snapshots WHERE id = ?", id); err != nil {
		return storeError("delete snapshot", err)
	}

	t.events = append(t.events, SnapshotDeletedEvent{Snapshot: s})
	return nil
}

func (t *sqliteTx) ReleaseTimestamp(ctx context.Context, id string) error {
	res, err := t.tx.ExecContext(ctx, "UPDATE snapshots SET timestamp = NULL WHERE id = ?", id)
	if err != nil {
		return storeError("release timestamp", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storeError("release timestamp", err)
	}
	if affected == 0 {
		return errors.NewStoreError("release timestamp", errors.ErrNotFound, fmt.Errorf("snapshot not found: %s", id))
	}
	return nil
}

func (t *sqliteTx) UpsertSnapshot(ctx context.Context, f SnapshotFields) (Snapshot, bool, error) {
	existing, err := t.get(ctx, "url", f.URL)
	switch {
	case err == nil:
		s, err := t.UpdateSnapshot(ctx, existing.ID, f)
		return s, false, err
	case errors.IsNotFound(err):
		s, err := t.InsertSnapshot(ctx, f)
		return s, err == nil, err
	default:
		return Snapshot{}, false, err
	}
}
