package index

import (
	"context"

	"github.com/seckatie/linkindex/internal/core/db"
	"github.com/seckatie/linkindex/internal/logging"
)

// Change pairs an existing row with the desired record it resolved to.
type Change struct {
	Row  db.Snapshot
	Link Link
}

// Plan is the resolution of every persisted row against a desired collection.
type Plan struct {
	// Updates are URL matches whose fields differ; applied in place.
	Updates []Change
	// Unchanged are URL matches whose fields already equal the desired record.
	Unchanged []Change
	// Replaces are timestamp matches: the row is deleted and the link inserted.
	Replaces []Change
	// Deletes are rows with no counterpart in the desired collection.
	Deletes []db.Snapshot
	// Inserts are desired records no row resolved to, in input order.
	Inserts []Link
}

// Summary counts the outcome of a reconciliation.
type Summary struct {
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Replaced  int `json:"replaced"`
	Deleted   int `json:"deleted"`
	Inserted  int `json:"inserted"`
}

func (p Plan) Summary() Summary {
	return Summary{
		Updated:   len(p.Updates),
		Unchanged: len(p.Unchanged),
		Replaced:  len(p.Replaces),
		Deleted:   len(p.Deletes),
		Inserted:  len(p.Inserts),
	}
}

// BuildPlan resolves rows against desired.
//
// Duplicate URLs in desired collapse to the last occurrence; only surviving
// records enter the timestamp map, where the last occurrence also wins. Each
// row is resolved by URL first, then by timestamp, otherwise deleted. All URL
// matches are taken before any timestamp match, so a row that owns a desired
// URL keeps its identity. A desired record is consumed at most once.
func BuildPlan(rows []db.Snapshot, desired []Link) Plan {
	byURL := make(map[string]int, len(desired))
	for i, l := range desired {
		byURL[l.URL] = i
	}
	byTimestamp := make(map[string]int, len(desired))
	for i, l := range desired {
		if l.Timestamp == "" || byURL[l.URL] != i {
			continue
		}
		byTimestamp[l.Timestamp] = i
	}

	consume := func(i int) Link {
		l := desired[i]
		delete(byURL, l.URL)
		if j, ok := byTimestamp[l.Timestamp]; ok && j == i {
			delete(byTimestamp, l.Timestamp)
		}
		return l
	}

	var p Plan
	resolved := make([]bool, len(rows))
	for r, row := range rows {
		i, ok := byURL[row.URL]
		if !ok {
			continue
		}
		resolved[r] = true
		l := consume(i)
		if row.SnapshotFields == l.Fields() {
			p.Unchanged = append(p.Unchanged, Change{Row: row, Link: l})
		} else {
			p.Updates = append(p.Updates, Change{Row: row, Link: l})
		}
	}

	for r, row := range rows {
		if resolved[r] {
			continue
		}
		if i, ok := byTimestamp[row.Timestamp]; ok && row.Timestamp != "" {
			p.Replaces = append(p.Replaces, Change{Row: row, Link: consume(i)})
			continue
		}
		p.Deletes = append(p.Deletes, row)
	}

	for i, l := range desired {
		if j, ok := byURL[l.URL]; ok && j == i {
			p.Inserts = append(p.Inserts, l)
		}
	}
	return p
}

// apply writes the plan through tx: deletions first so freed keys can be
// reused, then timestamp releases and in-place updates, then inserts.
func (p Plan) apply(ctx context.Context, tx db.SnapshotTx) error {
	log := logging.FromContext(ctx)

	for _, row := range p.Deletes {
		if err := tx.DeleteSnapshot(ctx, row.ID); err != nil {
			return err
		}
		log.Debug().Str("id", row.ID).Str("url", row.URL).Msg("Deleted snapshot")
	}
	for _, c := range p.Replaces {
		if err := tx.DeleteSnapshot(ctx, c.Row.ID); err != nil {
			return err
		}
	}
	// Timestamps move between URL-matched rows (a:1->2, b:2->3), so every
	// changing timestamp is released before any update claims a new one.
	for _, c := range p.Updates {
		if c.Row.Timestamp == "" || c.Row.Timestamp == c.Link.Timestamp {
			continue
		}
		if err := tx.ReleaseTimestamp(ctx, c.Row.ID); err != nil {
			return err
		}
	}
	for _, c := range p.Updates {
		if _, err := tx.UpdateSnapshot(ctx, c.Row.ID, c.Link.Fields()); err != nil {
			return err
		}
		log.Debug().Str("id", c.Row.ID).Str("url", c.Link.URL).Msg("Updated snapshot")
	}
	for _, c := range p.Replaces {
		s, err := tx.InsertSnapshot(ctx, c.Link.Fields())
		if err != nil {
			return err
		}
		log.Debug().
			Str("old_id", c.Row.ID).
			Str("old_url", c.Row.URL).
			Str("id", s.ID).
			Str("url", s.URL).
			Msg("Replaced snapshot after URL change")
	}
	for _, l := range p.Inserts {
		s, created, err := tx.UpsertSnapshot(ctx, l.Fields())
		if err != nil {
			return err
		}
		log.Debug().Str("id", s.ID).Str("url", s.URL).Bool("created", created).Msg("Inserted snapshot")
	}
	return nil
}
