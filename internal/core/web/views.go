package web

import (
	"html/template"
	"time"

	"github.com/seckatie/linkindex/internal/core/db"
)

type snapshotView struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Timestamp string `json:"timestamp,omitempty"`
	Title     string `json:"title"`
	Tags      string `json:"tags,omitempty"`
	Updated   string `json:"updated,omitempty"`
	AddedAt   string `json:"added_at"`
}

func newSnapshotView(s db.Snapshot) snapshotView {
	return snapshotView{
		ID:        s.ID,
		URL:       s.URL,
		Timestamp: s.Timestamp,
		Title:     s.Title,
		Tags:      s.Tags,
		Updated:   s.Updated,
		AddedAt:   s.AddedAt,
	}
}

type indexView struct {
	Snapshots []snapshotView
	Total     int
}

var templateFuncs = template.FuncMap{
	// displayDate trims an RFC3339 value to its date part.
	"displayDate": func(s string) string {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return s
		}
		return t.Format("2006-01-02")
	},
}
