package web

import (
	"encoding/json"
	"net/http"

	"github.com/seckatie/linkindex/internal/logging"
)

// renderTemplate renders a template with the standard HTML content-type header.
// If template execution fails, it logs the error and returns a 500 response.
func (ws *Server) renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := ws.templates.ExecuteTemplate(w, templateName, data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		logging.FromContext(r.Context()).Error().Err(err).Str("template", templateName).Msg("Failed to execute template")
	}
}

// writeJSON encodes v before writing anything, so an unencodable value turns
// into a 500 instead of a truncated body under the original status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logging.Default().Error().Err(err).Int("status", status).Msg("Failed to encode JSON response")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logging.Default().Debug().Err(err).Msg("Failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
