package web

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/seckatie/linkindex/internal/core/db"
	"github.com/seckatie/linkindex/internal/errors"
	"github.com/seckatie/linkindex/internal/logging"
)

//go:embed templates/*.html static/*.css
var templatesFS embed.FS

const shutdownTimeout = 10 * time.Second

type Server struct {
	db        *db.DB
	templates *template.Template
	staticFS  http.FileSystem
}

// StartServer serves the read-only index view on addr until ctx is cancelled.
func StartServer(ctx context.Context, addr string, database *db.DB) error {
	ws, err := NewServer(database)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           ws.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.FromContext(ctx).Info().Str("addr", addr).Msg("Starting web server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logging.FromContext(ctx).Info().Msg("Shutting down web server")
		return srv.Shutdown(shutdownCtx)
	}
}

func NewServer(database *db.DB) (*Server, error) {
	templates, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	staticSub, err := fs.Sub(templatesFS, "static")
	if err != nil {
		return nil, err
	}

	return &Server{
		db:        database,
		templates: templates,
		staticFS:  http.FS(staticSub),
	}, nil
}

// Routes builds the HTTP handler for the server.
func (ws *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(AccessLog(logging.Default()))

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(ws.staticFS)))

	r.Get("/", ws.handleIndex)
	r.Get("/healthz", ws.handleHealthz)
	r.Route("/api/snapshots", func(r chi.Router) {
		r.Get("/", ws.handleListSnapshots)
		r.Get("/{id}", ws.handleGetSnapshot)
	})
	return r
}
