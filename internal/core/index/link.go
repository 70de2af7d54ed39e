package index

import (
	"context"
	"iter"
	"strings"

	"github.com/seckatie/linkindex/internal/core/db"
	"github.com/seckatie/linkindex/internal/errors"
)

// Link is one archived item: its natural key (URL), its secondary identity
// key (Timestamp) and the fields persisted alongside them.
type Link struct {
	URL       string `json:"url" yaml:"url"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Title     string `json:"title,omitempty" yaml:"title,omitempty"`
	Tags      string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Updated   string `json:"updated,omitempty" yaml:"updated,omitempty"`
}

// Fields projects the link onto the persisted column set.
func (l Link) Fields() db.SnapshotFields {
	return db.SnapshotFields{
		URL:       l.URL,
		Timestamp: l.Timestamp,
		Title:     l.Title,
		Tags:      l.Tags,
		Updated:   l.Updated,
	}
}

// LinkFromSnapshot converts a persisted row back into a link record.
func LinkFromSnapshot(s db.Snapshot) Link {
	return Link{
		URL:       s.URL,
		Timestamp: s.Timestamp,
		Title:     s.Title,
		Tags:      s.Tags,
		Updated:   s.Updated,
	}
}

// Validate rejects records that cannot be reconciled.
func Validate(links []Link) error {
	for i, l := range links {
		if strings.TrimSpace(l.URL) == "" {
			return errors.NewRecordError(i, "", "empty URL")
		}
	}
	return nil
}

// Store is the persisted record store the reconciler writes to.
type Store interface {
	InTx(ctx context.Context, fn func(db.SnapshotTx) error) error
}

// Source streams persisted rows for the read path.
type Source interface {
	Snapshots(ctx context.Context) iter.Seq2[db.Snapshot, error]
}

// ReadAll lazily yields every persisted row as a Link without reconciling.
func ReadAll(ctx context.Context, src Source) iter.Seq2[Link, error] {
	return func(yield func(Link, error) bool) {
		for s, err := range src.Snapshots(ctx) {
			if err != nil {
				yield(Link{}, err)
				return
			}
			if !yield(LinkFromSnapshot(s), nil) {
				return
			}
		}
	}
}
