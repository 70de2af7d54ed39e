package db

// SnapshotFields is the persisted column set of a link record. It is everything a
// reconciliation is allowed to write; ID and AddedAt belong to the store.
type SnapshotFields struct {
	URL string
	// Timestamp is the secondary identity key. Empty is stored as NULL and never matches.
	Timestamp string
	Title     string
	// Tags is a comma separated list, stored verbatim.
	Tags string
	// Updated is the source's last-modified time as RFC3339 text, or empty.
	Updated string
}

type Snapshot struct {
	// ID is assigned by the store on insert and never changes afterwards.
	ID string
	SnapshotFields
	// AddedAt is stored in the DB as RFC3339 text.
	AddedAt string
}

type Account struct {
	ID          int64
	Username    string
	Email       string
	IsSuperuser bool
	CreatedAt   string
}
