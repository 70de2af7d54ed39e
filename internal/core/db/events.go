package db

import "github.com/seckatie/linkindex/internal/logging"

// ------------------------------
// Event System
// ------------------------------
//
// The DB emits typed events when snapshots are created, updated, deleted or
// titled. Mutations made inside InTx are announced only after the transaction
// commits, so listeners never observe rolled-back rows.
//
// Example usage:
//
//	db.RegisterEventListener(db.OnSnapshotCreatedEvent, func(event db.Event) error {
//	    ev := event.(db.SnapshotCreatedEvent)
//	    log.Printf("New snapshot: %s - %s", ev.Snapshot.ID, ev.Snapshot.URL)
//	    return nil
//	})
//
// Event is the common interface for all database events.
type Event interface {
	Kind() EventKind
}

// EventKind represents all the kinds of events that can be emitted by the DB.
type EventKind int

const (
	// OnSnapshotCreatedEvent is emitted when a snapshot row is inserted.
	OnSnapshotCreatedEvent EventKind = iota
	// OnSnapshotDeletedEvent is emitted when a snapshot row is deleted.
	OnSnapshotDeletedEvent
	// OnSnapshotUpdatedEvent is emitted when a snapshot row is updated in place.
	OnSnapshotUpdatedEvent
	// OnSnapshotTitleSetEvent is emitted when a fetched title is stored.
	OnSnapshotTitleSetEvent
)

func (k EventKind) String() string {
	switch k {
	case OnSnapshotCreatedEvent:
		return "snapshot_created"
	case OnSnapshotDeletedEvent:
		return "snapshot_deleted"
	case OnSnapshotUpdatedEvent:
		return "snapshot_updated"
	case OnSnapshotTitleSetEvent:
		return "snapshot_title_set"
	default:
		return "unknown"
	}
}

// SnapshotCreatedEvent is emitted after a new snapshot is committed.
type SnapshotCreatedEvent struct {
	Snapshot Snapshot
}

func (e SnapshotCreatedEvent) Kind() EventKind { return OnSnapshotCreatedEvent }

// SnapshotUpdatedEvent is emitted after a snapshot's fields are updated in place.
type SnapshotUpdatedEvent struct {
	Snapshot Snapshot
}

func (e SnapshotUpdatedEvent) Kind() EventKind { return OnSnapshotUpdatedEvent }

// SnapshotDeletedEvent is emitted after a snapshot is deleted.
// The Snapshot field contains the state before deletion.
type SnapshotDeletedEvent struct {
	Snapshot Snapshot
}

func (e SnapshotDeletedEvent) Kind() EventKind { return OnSnapshotDeletedEvent }

// SnapshotTitleSetEvent is emitted after a fetched title is saved.
type SnapshotTitleSetEvent struct {
	SnapshotID string
	Title      string
}

func (e SnapshotTitleSetEvent) Kind() EventKind { return OnSnapshotTitleSetEvent }

// EventListener is a callback that handles events of a specific kind.
type EventListener func(event Event) error

// RegisterEventListener adds a listener for a specific event kind.
// Listeners are called synchronously in registration order after the DB operation succeeds.
func (db *DB) RegisterEventListener(eventKind EventKind, listener EventListener) {
	if db.eventListeners == nil {
		db.eventListeners = make(map[EventKind][]EventListener)
	}
	db.eventListeners[eventKind] = append(db.eventListeners[eventKind], listener)
}

// emit dispatches an event to all registered listeners for that event kind.
func (db *DB) emit(event Event) {
	listeners := db.eventListeners[event.Kind()]
	for _, listener := range listeners {
		if err := listener(event); err != nil {
			logging.Default().Error().Err(err).Str("event", event.Kind().String()).Msg("Event listener error")
		}
	}
}
