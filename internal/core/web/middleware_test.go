package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/seckatie/linkindex/internal/logging"
)

func TestDisplayHost(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"127.0.0.1:5000", "localhost"},
		{"[::1]:5000", "localhost"},
		{"192.168.1.20:443", "192.168.1.20"},
		{"example.internal", "example.internal"},
	}
	for _, tt := range tests {
		t.Run(tt.remoteAddr, func(t *testing.T) {
			if got := displayHost(tt.remoteAddr); got != tt.want {
				t.Errorf("displayHost(%q) = %q, want %q", tt.remoteAddr, got, tt.want)
			}
		})
	}
}

func TestIsQuietPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/static/style.css", true},
		{"/admin/jsi18n/", true},
		{"/favicon.ico", true},
		{"/robots.txt", true},
		{"/archive/1700000000/screenshot.png", true},
		{"/", false},
		{"/api/snapshots", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := isQuietPath(tt.path); got != tt.want {
				t.Errorf("isQuietPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestAccessLog(t *testing.T) {
	tl := logging.CaptureForTest(t)
	handler := AccessLog(tl.Logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("ok"))
	}))

	for _, target := range []string{"/", "/missing", "/static/style.css", "/favicon.ico"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.RemoteAddr = "127.0.0.1:5555"
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	lines := tl.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %v", len(lines), lines)
	}
	if !tl.Contains("HTTP GET / (200) localhost") {
		t.Errorf("missing access line for /: %s", tl.Output())
	}
	if !tl.Contains("HTTP GET /missing (404) localhost") {
		t.Errorf("missing access line for /missing: %s", tl.Output())
	}
}
