package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/seckatie/linkindex/internal/errors"
	"github.com/seckatie/linkindex/internal/logging"
)

const defaultPageSize = 100

func (ws *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snapshots, err := ws.db.ListSnapshots(defaultPageSize)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		logging.FromContext(r.Context()).Error().Err(err).Msg("Failed to list snapshots")
		return
	}
	total, err := ws.db.CountSnapshots()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		logging.FromContext(r.Context()).Error().Err(err).Msg("Failed to count snapshots")
		return
	}

	view := indexView{Total: total}
	for _, s := range snapshots {
		view.Snapshots = append(view.Snapshots, newSnapshotView(s))
	}
	ws.renderTemplate(w, r, "index.html", view)
}

func (ws *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	snapshots, err := ws.db.ListSnapshots(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list snapshots")
		logging.FromContext(r.Context()).Error().Err(err).Msg("Failed to list snapshots")
		return
	}

	views := make([]snapshotView, 0, len(snapshots))
	for _, s := range snapshots {
		views = append(views, newSnapshotView(s))
	}
	writeJSON(w, http.StatusOK, views)
}

func (ws *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, err := ws.db.GetSnapshot(id)
	if err != nil {
		if errors.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "snapshot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get snapshot")
		logging.FromContext(r.Context()).Error().Err(err).Str("id", id).Msg("Failed to get snapshot")
		return
	}
	writeJSON(w, http.StatusOK, newSnapshotView(s))
}

func (ws *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	n, err := ws.db.CountSnapshots()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "snapshots": n})
}
