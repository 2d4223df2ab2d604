package hooks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stackvity/doc-scanner/pkg/docscan"
	"github.com/stackvity/doc-scanner/pkg/docscan/finding"
)

// --- TUI Message Structs ---

// RunStartMsg signals that a new scan session started. The TUI clears
// whatever the previous session left behind.
type RunStartMsg struct {
	Mode  docscan.Mode
	Roots []string
}

// FileDiscoveredMsg signals that the walker found a file during pass 1.
type FileDiscoveredMsg struct{ Path string }

// FileStatusUpdateMsg signals a change in a file's scan status.
type FileStatusUpdateMsg struct {
	Path     string
	Status   docscan.Status
	Message  string
	Duration time.Duration
}

// FindingMsg carries one finding, in production order.
type FindingMsg struct{ Finding finding.Finding }

// ProgressMsg carries the running progress of a folder, tree or workspace scan.
type ProgressMsg struct{ Progress docscan.Progress }

// RunCompleteMsg signals the end of the session.
type RunCompleteMsg struct{ Report docscan.Report }

// --- Hook Implementation ---

// TUIProgram defines the interface needed to interact with the Bubble Tea program.
// *tea.Program satisfies it.
type TUIProgram interface {
	Send(msg tea.Msg)
}

// NoOpTUIProgram provides a default null implementation.
type NoOpTUIProgram struct{}

// Send implements TUIProgram.
func (n *NoOpTUIProgram) Send(msg tea.Msg) {}

// FindingFormatter renders a finding as one line of the text report.
type FindingFormatter func(f finding.Finding) string

// ProgressBar defines the interface needed to interact with the progress bar.
// *progressbar.ProgressBar satisfies it.
type ProgressBar interface {
	ChangeMax(n int)
	Set(num int) error
	Describe(description string)
	Finish() error
}

// CLIHooks implements the docscan.Hooks interface, bridging library events
// to the CLI's output surfaces: the TUI, the verbose logger, the plain
// progress bar and the streamed text report.
type CLIHooks struct {
	logger         *slog.Logger
	tuiEnabled     bool
	verboseEnabled bool
	tuiProgram     TUIProgram
	progressBar    ProgressBar // nil when there is no bar
	stream         io.Writer   // nil when findings are rendered with the final report
	format         FindingFormatter
	mu             sync.Mutex // serializes writes to stream and progressBar
}

// NewCLIHooks creates a new CLIHooks instance.
// Pass nil for tuiProg or progBar if not applicable. When stream is non-nil,
// every finding is written to it as soon as it is produced, rendered with
// format (Finding.String when format is nil).
func NewCLIHooks(logger *slog.Logger, tuiEnabled, verboseEnabled bool, tuiProg TUIProgram, progBar ProgressBar, stream io.Writer, format FindingFormatter) *CLIHooks {
	if tuiProg == nil {
		tuiProg = &NoOpTUIProgram{}
	}
	if format == nil {
		format = finding.Finding.String
	}
	return &CLIHooks{
		logger:         logger,
		tuiEnabled:     tuiEnabled,
		verboseEnabled: verboseEnabled,
		tuiProgram:     tuiProg,
		progressBar:    progBar,
		stream:         stream,
		format:         format,
	}
}

var _ docscan.Hooks = (*CLIHooks)(nil)

// Streaming reports whether findings are written as they are produced.
func (h *CLIHooks) Streaming() bool {
	return h.stream != nil
}

// OnRunStart handles the start of a scan session.
func (h *CLIHooks) OnRunStart(mode docscan.Mode, roots []string) error {
	if h.tuiEnabled {
		h.tuiProgram.Send(RunStartMsg{Mode: mode, Roots: roots})
	} else if h.verboseEnabled {
		h.logger.Info("Scan started", slog.String("mode", string(mode)), slog.Any("roots", roots))
	}
	return nil
}

// OnFileDiscovered handles the event when a file is found by the walker.
func (h *CLIHooks) OnFileDiscovered(path string) error {
	if h.tuiEnabled {
		h.tuiProgram.Send(FileDiscoveredMsg{Path: path})
	} else if h.verboseEnabled {
		h.logger.Debug("File discovered", "path", path)
	}
	return nil
}

// OnFileStatusUpdate handles events when a file's scan status changes.
func (h *CLIHooks) OnFileStatusUpdate(path string, status docscan.Status, message string, duration time.Duration) error {
	if h.tuiEnabled {
		h.tuiProgram.Send(FileStatusUpdateMsg{
			Path:     path,
			Status:   status,
			Message:  message,
			Duration: duration,
		})
		return nil
	}

	if h.verboseEnabled {
		logLevel := slog.LevelDebug
		logMsg := "File status updated"
		attrs := []any{
			slog.String("path", path),
			slog.String("status", string(status)),
		}
		if duration > 0 {
			attrs = append(attrs, slog.Duration("duration", duration))
		}
		if message != "" {
			logKey := "message"
			if status == docscan.StatusFailed {
				logKey = "error"
			}
			attrs = append(attrs, slog.String(logKey, message))
		}

		switch status {
		case docscan.StatusScanned, docscan.StatusSkipped:
			logLevel = slog.LevelInfo
		case docscan.StatusFailed:
			logLevel = slog.LevelError
			logMsg = "File scan failed"
		}
		h.logger.Log(context.Background(), logLevel, logMsg, attrs...)
		return nil
	}

	// Errors are always worth a log line.
	if status == docscan.StatusFailed {
		h.logger.Error("File scan failed", "path", path, "error", message)
	}
	return nil
}

// OnFinding handles a single finding. In TUI mode it goes to the finding
// list; otherwise it is streamed when a stream is configured.
func (h *CLIHooks) OnFinding(f finding.Finding) error {
	if h.tuiEnabled {
		h.tuiProgram.Send(FindingMsg{Finding: f})
		return nil
	}
	if h.verboseEnabled {
		h.logger.Debug("Finding", slog.String("category", f.Category.Key()), slog.String("file", f.File), slog.Int("line", f.Line))
	}
	if h.stream != nil {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, err := fmt.Fprintln(h.stream, h.format(f)); err != nil {
			return fmt.Errorf("writing finding line: %w", err)
		}
	}
	return nil
}

// OnProgress handles progress after each file of a recursive or folder scan.
func (h *CLIHooks) OnProgress(p docscan.Progress) error {
	switch {
	case h.tuiEnabled:
		h.tuiProgram.Send(ProgressMsg{Progress: p})
	case h.verboseEnabled:
		h.logger.Debug("Scan progress",
			slog.Int("done", p.Done),
			slog.Int("total", p.Total),
			slog.String("percent", fmt.Sprintf("%.1f", p.Percent)),
		)
	case h.progressBar != nil:
		h.mu.Lock()
		defer h.mu.Unlock()
		if p.Done == 1 {
			h.progressBar.ChangeMax(p.Total)
		}
		h.progressBar.Describe(filepath.Base(p.Path))
		_ = h.progressBar.Set(p.Done)
	}
	return nil
}

// OnRunComplete handles the end of the session. The report itself is
// rendered by the caller once the scan returns.
func (h *CLIHooks) OnRunComplete(report docscan.Report) error {
	switch {
	case h.tuiEnabled:
		h.tuiProgram.Send(RunCompleteMsg{Report: report})
	case h.verboseEnabled:
		h.logger.Info("Scan complete",
			slog.Bool("complete", report.Summary.Complete),
			slog.Int("files", report.Summary.TotalFiles),
			slog.Int("findings", report.Summary.TotalFindings),
		)
	case h.progressBar != nil:
		h.mu.Lock()
		_ = h.progressBar.Finish()
		h.mu.Unlock()
	}
	return nil
}
