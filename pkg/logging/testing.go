package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// TestLogger captures JSON log output for assertions.
type TestLogger struct {
	*zerolog.Logger
	buf *syncBuffer
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewTestLogger returns a trace-level logger writing JSON into memory.
func NewTestLogger(t testing.TB) *TestLogger {
	t.Helper()
	buf := &syncBuffer{}
	l := zerolog.New(buf).Level(zerolog.TraceLevel).With().Timestamp().Logger()
	return &TestLogger{Logger: &l, buf: buf}
}

// Context returns ctx carrying the test logger.
func (tl *TestLogger) Context(ctx context.Context) context.Context {
	return WithLogger(ctx, tl.Logger)
}

// Output returns everything logged so far.
func (tl *TestLogger) Output() string {
	return tl.buf.String()
}

// Entries decodes the captured events. Lines that are not JSON are skipped.
func (tl *TestLogger) Entries() []map[string]any {
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(tl.Output()), "\n") {
		var e map[string]any
		if json.Unmarshal([]byte(line), &e) == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

// Count returns the number of captured events.
func (tl *TestLogger) Count() int {
	return len(tl.Entries())
}

// AssertContains fails the test when the output lacks substr.
func (tl *TestLogger) AssertContains(t testing.TB, substr string) {
	t.Helper()
	if !strings.Contains(tl.Output(), substr) {
		t.Errorf("log output does not contain %q\n%s", substr, tl.Output())
	}
}

// AssertNotContains fails the test when the output has substr.
func (tl *TestLogger) AssertNotContains(t testing.TB, substr string) {
	t.Helper()
	if strings.Contains(tl.Output(), substr) {
		t.Errorf("log output should not contain %q\n%s", substr, tl.Output())
	}
}
