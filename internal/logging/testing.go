package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// TestLogger captures log output for assertions.
type TestLogger struct {
	*zerolog.Logger
	Buffer *bytes.Buffer
}

// CaptureForTest installs a capturing logger as the default for the duration of a test.
func CaptureForTest(t testing.TB) *TestLogger {
	t.Helper()

	original := defaultLogger
	buf := &bytes.Buffer{}
	logger := zerolog.New(buf).Level(zerolog.TraceLevel)
	SetDefault(logger)
	t.Cleanup(func() {
		SetDefault(original)
	})

	return &TestLogger{Logger: &logger, Buffer: buf}
}

// DisableForTest silences the default logger for the duration of a test.
func DisableForTest(t testing.TB) {
	t.Helper()

	original := defaultLogger
	SetDefault(zerolog.Nop())
	t.Cleanup(func() {
		SetDefault(original)
	})
}

// Output returns the captured log output.
func (tl *TestLogger) Output() string {
	return tl.Buffer.String()
}

// Lines returns the captured log output as individual lines.
func (tl *TestLogger) Lines() []string {
	out := strings.TrimSpace(tl.Output())
	if out == "" {
		return []string{}
	}
	return strings.Split(out, "\n")
}

// Contains checks if the log output contains substr.
func (tl *TestLogger) Contains(substr string) bool {
	return strings.Contains(tl.Output(), substr)
}
