package db

import (
	"context"
	"testing"

	"github.com/seckatie/linkindex/internal/errors"
)

// TestInTx tests the transactional row operations.
func TestInTx(t *testing.T) {
	ctx := context.Background()

	t.Run("update keeps the row id", func(t *testing.T) {
		db := newTestDB(t)
		defer db.Close()

		s := mustInsert(t, db, SnapshotFields{URL: "https://a.com", Timestamp: "1"})
		err := db.InTx(ctx, func(tx SnapshotTx) error {
			_, err := tx.UpdateSnapshot(ctx, s.ID, SnapshotFields{URL: "https://a.com", Timestamp: "1", Title: "A"})
			return err
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got, err := db.GetSnapshotByURL("https://a.com")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.ID != s.ID {
			t.Errorf("expected id %s, got %s", s.ID, got.ID)
		}
		if got.Title != "A" {
			t.Errorf("expected title 'A', got %q", got.Title)
		}
		if got.AddedAt != s.AddedAt {
			t.Errorf("expected AddedAt to be preserved")
		}
	})

	t.Run("upsert replaces by url", func(t *testing.T) {
		db := newTestDB(t)
		defer db.Close()

		s := mustInsert(t, db, SnapshotFields{URL: "https://a.com", Timestamp: "1"})
		var created bool
		err := db.InTx(ctx, func(tx SnapshotTx) error {
			var err error
			_, created, err = tx.UpsertSnapshot(ctx, SnapshotFields{URL: "https://a.com", Timestamp: "9", Title: "new"})
			return err
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if created {
			t.Error("expected upsert to replace the existing row")
		}
		got, _ := db.GetSnapshot(s.ID)
		if got.Timestamp != "9" || got.Title != "new" {
			t.Errorf("expected replaced fields, got %+v", got.SnapshotFields)
		}

		err = db.InTx(ctx, func(tx SnapshotTx) error {
			var err error
			_, created, err = tx.UpsertSnapshot(ctx, SnapshotFields{URL: "https://b.com"})
			return err
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !created {
			t.Error("expected upsert to insert a new row")
		}
	})

	t.Run("duplicate url is a constraint violation", func(t *testing.T) {
		db := newTestDB(t)
		defer db.Close()

		mustInsert(t, db, SnapshotFields{URL: "https://a.com", Timestamp: "1"})
		err := db.InTx(ctx, func(tx SnapshotTx) error {
			_, err := tx.InsertSnapshot(ctx, SnapshotFields{URL: "https://a.com", Timestamp: "2"})
			return err
		})
		if !errors.IsConstraintViolation(err) {
			t.Errorf("expected constraint violation, got %v", err)
		}
	})

	t.Run("empty timestamps do not collide", func(t *testing.T) {
		db := newTestDB(t)
		defer db.Close()

		mustInsert(t, db, SnapshotFields{URL: "https://a.com"})
		mustInsert(t, db, SnapshotFields{URL: "https://b.com"})
		n, _ := db.CountSnapshots()
		if n != 2 {
			t.Errorf("expected 2 snapshots, got %d", n)
		}
	})

	t.Run("error from fn rolls everything back", func(t *testing.T) {
		db := newTestDB(t)
		defer db.Close()

		keep := mustInsert(t, db, SnapshotFields{URL: "https://keep.com", Timestamp: "1"})
		boom := errors.New("boom")
		err := db.InTx(ctx, func(tx SnapshotTx) error {
			if err := tx.DeleteSnapshot(ctx, keep.ID); err != nil {
				return err
			}
			if _, err := tx.InsertSnapshot(ctx, SnapshotFields{URL: "https://new.com", Timestamp: "2"}); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected fn error to be returned unchanged, got %v", err)
		}

		all, _ := db.ListSnapshots(0)
		if len(all) != 1 || all[0].ID != keep.ID {
			t.Errorf("expected only the original row, got %+v", all)
		}
	})

	t.Run("commit failure is a transaction failure", func(t *testing.T) {
		db := newFileTestDB(t)
		defer db.Close()

		txCtx, cancel := context.WithCancel(ctx)
		err := db.InTx(txCtx, func(tx SnapshotTx) error {
			if _, err := tx.InsertSnapshot(txCtx, SnapshotFields{URL: "https://a.com"}); err != nil {
				return err
			}
			cancel()
			return nil
		})
		if !errors.IsTransactionFailed(err) {
			t.Fatalf("expected transaction failure, got %v", err)
		}

		n, err := db.CountSnapshots()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if n != 0 {
			t.Errorf("expected no rows after failed commit, got %d", n)
		}
	})

	t.Run("delete unknown row is not found", func(t *testing.T) {
		db := newTestDB(t)
		defer db.Close()

		err := db.InTx(ctx, func(tx SnapshotTx) error {
			return tx.DeleteSnapshot(ctx, "missing")
		})
		if !errors.IsNotFound(err) {
			t.Errorf("expected not found error, got %v", err)
		}
	})

	t.Run("released timestamp can be taken by another row", func(t *testing.T) {
		db := newTestDB(t)
		defer db.Close()

		a := mustInsert(t, db, SnapshotFields{URL: "https://a.com", Timestamp: "1"})
		b := mustInsert(t, db, SnapshotFields{URL: "https://b.com", Timestamp: "2"})
		var updated int
		db.RegisterEventListener(OnSnapshotUpdatedEvent, func(Event) error {
			updated++
			return nil
		})

		err := db.InTx(ctx, func(tx SnapshotTx) error {
			if err := tx.ReleaseTimestamp(ctx, a.ID); err != nil {
				return err
			}
			if err := tx.ReleaseTimestamp(ctx, b.ID); err != nil {
				return err
			}
			if _, err := tx.UpdateSnapshot(ctx, a.ID, SnapshotFields{URL: "https://a.com", Timestamp: "2"}); err != nil {
				return err
			}
			_, err := tx.UpdateSnapshot(ctx, b.ID, SnapshotFields{URL: "https://b.com", Timestamp: "1"})
			return err
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		gotA, _ := db.GetSnapshot(a.ID)
		gotB, _ := db.GetSnapshot(b.ID)
		if gotA.Timestamp != "2" || gotB.Timestamp != "1" {
			t.Errorf("expected swapped timestamps, got a=%q b=%q", gotA.Timestamp, gotB.Timestamp)
		}
		if updated != 2 {
			t.Errorf("expected 2 update events, got %d", updated)
		}

		err = db.InTx(ctx, func(tx SnapshotTx) error {
			return tx.ReleaseTimestamp(ctx, "missing")
		})
		if !errors.IsNotFound(err) {
			t.Errorf("expected not found error, got %v", err)
		}
	})
}
