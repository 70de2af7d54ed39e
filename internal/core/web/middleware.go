package web

import (
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// quietPrefixes and quietSuffixes name requests that are not access logged.
var (
	quietPrefixes = []string{"/static/", "/admin/jsi18n/"}
	quietSuffixes = []string{"/favicon.ico", "/robots.txt", "/screenshot.png"}
)

func isQuietPath(path string) bool {
	for _, p := range quietPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	for _, s := range quietSuffixes {
		if strings.HasSuffix(path, s) {
			return true
		}
	}
	return false
}

// displayHost returns the client host from a RemoteAddr, with loopback
// addresses shown as localhost.
func displayHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return "localhost"
	}
	return host
}

// AccessLog logs one line per request as "HTTP <method> <path> (<status>) <host>".
func AccessLog(logger *zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if isQuietPath(r.URL.Path) {
				return
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Msgf("HTTP %s %s (%d) %s", r.Method, r.URL.Path, status, displayHost(r.RemoteAddr))
		})
	}
}
