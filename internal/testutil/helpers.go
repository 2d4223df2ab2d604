package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stackvity/doc-scanner/pkg/docscan"
	"github.com/stackvity/doc-scanner/pkg/docscan/finding"
	"github.com/stretchr/testify/require"
)

// CreateDummyFile creates a file with the given content, creating parent
// directories as needed.
func CreateDummyFile(t *testing.T, path string, content string) {
	t.Helper()
	fullPath := filepath.Clean(path)
	dir := filepath.Dir(fullPath)
	require.NoError(t, os.MkdirAll(dir, 0o755), "Failed to create directory %s for dummy file", dir)
	require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644), "Failed to write dummy file %s", fullPath)
}

// CreateSourceFile writes lines joined by "\n" to path.
func CreateSourceFile(t *testing.T, path string, lines ...string) {
	t.Helper()
	CreateDummyFile(t, path, strings.Join(lines, "\n"))
}

// CreateDummyDir ensures a directory exists at the given path.
func CreateDummyDir(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Clean(path), 0o755), "Failed to create dummy directory %s", path)
}

// DiscardHandler returns a slog.Handler that drops everything.
func DiscardHandler() slog.Handler {
	return slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1})
}

// RecordingHooks is a docscan.Hooks that keeps every event it receives. It is
// safe for concurrent use.
type RecordingHooks struct {
	mu        sync.Mutex
	Starts    []docscan.Mode
	Found     []string
	Statuses  map[string]docscan.Status
	Findings  []finding.Finding
	Progress  []docscan.Progress
	Completed []docscan.Report
}

// NewRecordingHooks returns an empty RecordingHooks.
func NewRecordingHooks() *RecordingHooks {
	return &RecordingHooks{Statuses: make(map[string]docscan.Status)}
}

func (h *RecordingHooks) OnRunStart(mode docscan.Mode, roots []string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Starts = append(h.Starts, mode)
	return nil
}

func (h *RecordingHooks) OnFileDiscovered(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Found = append(h.Found, path)
	return nil
}

func (h *RecordingHooks) OnFileStatusUpdate(path string, status docscan.Status, message string, duration time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Statuses[path] = status
	return nil
}

func (h *RecordingHooks) OnFinding(f finding.Finding) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Findings = append(h.Findings, f)
	return nil
}

func (h *RecordingHooks) OnProgress(p docscan.Progress) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Progress = append(h.Progress, p)
	return nil
}

func (h *RecordingHooks) OnRunComplete(report docscan.Report) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Completed = append(h.Completed, report)
	return nil
}
