package db

import (
	"context"
	"testing"

	"github.com/seckatie/linkindex/internal/errors"
)

// TestGetSnapshot tests retrieving a single snapshot.
func TestGetSnapshot(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	t.Run("retrieves existing snapshot", func(t *testing.T) {
		inserted := mustInsert(t, db, SnapshotFields{URL: "https://example.com", Timestamp: "1700000000", Title: "Example", Tags: "a,b"})

		s, err := db.GetSnapshot(inserted.ID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if s.URL != "https://example.com" {
			t.Errorf("expected URL 'https://example.com', got %q", s.URL)
		}
		if s.Timestamp != "1700000000" {
			t.Errorf("expected Timestamp '1700000000', got %q", s.Timestamp)
		}
		if s.Tags != "a,b" {
			t.Errorf("expected Tags 'a,b', got %q", s.Tags)
		}
		if s.AddedAt == "" {
			t.Error("expected AddedAt to be set")
		}
	})

	t.Run("returns not found for unknown id", func(t *testing.T) {
		_, err := db.GetSnapshot("missing")
		if !errors.IsNotFound(err) {
			t.Errorf("expected not found error, got %v", err)
		}
	})

	t.Run("looks up by url", func(t *testing.T) {
		s, err := db.GetSnapshotByURL("https://example.com")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if s.Title != "Example" {
			t.Errorf("expected Title 'Example', got %q", s.Title)
		}
		if _, err := db.GetSnapshotByURL("https://nope.example"); !errors.IsNotFound(err) {
			t.Errorf("expected not found error, got %v", err)
		}
	})
}

// TestListSnapshots tests listing snapshots.
func TestListSnapshots(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	t.Run("returns empty list when no snapshots", func(t *testing.T) {
		snapshots, err := db.ListSnapshots(0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(snapshots) != 0 {
			t.Errorf("expected empty list, got %d items", len(snapshots))
		}
	})

	t.Run("returns newest first and respects limit", func(t *testing.T) {
		mustInsert(t, db, SnapshotFields{URL: "https://site1.com", Timestamp: "1"})
		mustInsert(t, db, SnapshotFields{URL: "https://site2.com", Timestamp: "2"})
		mustInsert(t, db, SnapshotFields{URL: "https://site3.com", Timestamp: "3"})

		all, err := db.ListSnapshots(0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 snapshots, got %d", len(all))
		}
		if all[0].URL != "https://site3.com" {
			t.Errorf("expected newest first, got %q", all[0].URL)
		}

		limited, err := db.ListSnapshots(2)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(limited) != 2 {
			t.Errorf("expected 2 snapshots with limit, got %d", len(limited))
		}
	})
}

// TestSnapshotsIterator tests the streaming read path.
func TestSnapshotsIterator(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	mustInsert(t, db, SnapshotFields{URL: "https://a.com", Timestamp: "1"})
	mustInsert(t, db, SnapshotFields{URL: "https://b.com", Timestamp: "2"})
	mustInsert(t, db, SnapshotFields{URL: "https://c.com"})

	t.Run("yields rows in insertion order", func(t *testing.T) {
		var urls []string
		for s, err := range db.Snapshots(context.Background()) {
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			urls = append(urls, s.URL)
		}
		want := []string{"https://a.com", "https://b.com", "https://c.com"}
		if len(urls) != len(want) {
			t.Fatalf("expected %v, got %v", want, urls)
		}
		for i := range want {
			if urls[i] != want[i] {
				t.Errorf("position %d: expected %q, got %q", i, want[i], urls[i])
			}
		}
	})

	t.Run("stops early and releases the connection", func(t *testing.T) {
		for range db.Snapshots(context.Background()) {
			break
		}
		n, err := db.CountSnapshots()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if n != 3 {
			t.Errorf("expected 3 snapshots, got %d", n)
		}
	})
}

// TestSetSnapshotTitle tests storing fetched titles.
func TestSetSnapshotTitle(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	untitled := mustInsert(t, db, SnapshotFields{URL: "https://untitled.com", Timestamp: "1"})
	mustInsert(t, db, SnapshotFields{URL: "https://titled.com", Timestamp: "2", Title: "Has Title"})

	pending, err := db.ListSnapshotsWithoutTitle(0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(pending) != 1 || pending[0].ID != untitled.ID {
		t.Fatalf("expected only the untitled snapshot, got %+v", pending)
	}

	var received SnapshotTitleSetEvent
	db.RegisterEventListener(OnSnapshotTitleSetEvent, func(event Event) error {
		received = event.(SnapshotTitleSetEvent)
		return nil
	})

	if err := db.SetSnapshotTitle(untitled.ID, "Fetched"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if received.SnapshotID != untitled.ID || received.Title != "Fetched" {
		t.Errorf("unexpected event %+v", received)
	}

	pending, err = db.ListSnapshotsWithoutTitle(0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected no untitled snapshots, got %d", len(pending))
	}

	if err := db.SetSnapshotTitle("missing", "x"); !errors.IsNotFound(err) {
		t.Errorf("expected not found error, got %v", err)
	}
}
