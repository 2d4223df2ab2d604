package docscan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/stackvity/doc-scanner/pkg/docscan/finding"
)

// session is the state of one scan run: a fresh aggregator, the ordered
// findings and the per-file results. It is created by Scanner.begin and
// released by finish.
type session struct {
	scanner    *Scanner
	logger     *slog.Logger
	mode       Mode
	roots      []string
	start      time.Time
	agg        *Aggregator
	findings   []finding.Finding
	files      []FileResult
	total      int
	done       int
	percent    float64
	failedPath string
}

func newSession(s *Scanner, mode Mode, roots []string) *session {
	sess := &session{
		scanner: s,
		logger:  s.logger.With(slog.String("mode", string(mode))),
		mode:    mode,
		roots:   append([]string(nil), roots...),
		start:   time.Now(),
		agg:     NewAggregator(),
	}
	if hookErr := s.hooks.OnRunStart(mode, sess.roots); hookErr != nil {
		sess.logger.Warn("Event hook OnRunStart failed", slog.String("error", hookErr.Error()))
	}
	sess.logger.Info("Scan started", slog.Any("roots", sess.roots))
	return sess
}

// scanPath reads one file from disk and classifies it. Read failures end the
// session; unsupported and binary files are skipped.
func (sess *session) scanPath(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	if !sess.scanner.dispatcher.Supports(path) {
		sess.skip(path, SkipReasonUnsupported, start)
		return nil
	}
	sess.status(path, StatusScanning, "", 0)
	content, err := os.ReadFile(path)
	if err != nil {
		sess.status(path, StatusFailed, err.Error(), time.Since(start))
		sess.files = append(sess.files, FileResult{Path: path, Status: StatusFailed, Reason: err.Error()})
		return sess.fail(path, fmt.Errorf("%w: %s: %w", ErrReadFailed, path, err))
	}
	sess.scanContent(path, content, start)
	return nil
}

// scanContent decodes content and runs the classifier for path over it.
func (sess *session) scanContent(path string, content []byte, start time.Time) {
	s := sess.scanner
	if !s.dispatcher.Supports(path) {
		sess.skip(path, SkipReasonUnsupported, start)
		return
	}
	if s.decoder.IsBinary(content) {
		sess.skip(path, SkipReasonBinary, start)
		return
	}
	text, encName, err := s.decoder.Decode(content)
	if err != nil {
		sess.logger.Warn("Decoding failed, scanning raw bytes", slog.String("path", path), slog.String("error", err.Error()))
		text = string(content)
	}

	count := 0
	dialectName, _ := s.dispatcher.Classify(path, text, func(f finding.Finding) {
		count++
		sess.record(f)
	})
	duration := time.Since(start)
	sess.files = append(sess.files, FileResult{
		Path:       path,
		Dialect:    dialectName,
		Language:   s.detector.Detect(path, content),
		Encoding:   encName,
		Status:     StatusScanned,
		Findings:   count,
		DurationMs: duration.Milliseconds(),
	})
	sess.status(path, StatusScanned, fmt.Sprintf("%d findings", count), duration)
}

func (sess *session) record(f finding.Finding) {
	sess.agg.Record(f)
	sess.findings = append(sess.findings, f)
	if hookErr := sess.scanner.hooks.OnFinding(f); hookErr != nil {
		sess.logger.Warn("Event hook OnFinding failed", slog.String("path", f.File), slog.String("error", hookErr.Error()))
	}
}

func (sess *session) skip(path, reason string, start time.Time) {
	duration := time.Since(start)
	sess.files = append(sess.files, FileResult{Path: path, Status: StatusSkipped, Reason: reason, DurationMs: duration.Milliseconds()})
	sess.status(path, StatusSkipped, reason, duration)
}

func (sess *session) status(path string, status Status, message string, duration time.Duration) {
	if hookErr := sess.scanner.hooks.OnFileStatusUpdate(path, status, message, duration); hookErr != nil {
		sess.logger.Warn("Event hook OnFileStatusUpdate failed", slog.String("path", path), slog.String("error", hookErr.Error()))
	}
}

// progress advances the running percentage by increment after one file.
func (sess *session) progress(path string, increment float64) {
	sess.done++
	sess.percent = min(sess.percent+increment, 100)
	// Files created between the two passes must not push past the total.
	done := min(sess.done, sess.total)
	if done == sess.total {
		sess.percent = 100
	}
	p := Progress{Done: done, Total: sess.total, Increment: increment, Percent: sess.percent, Path: path}
	if hookErr := sess.scanner.hooks.OnProgress(p); hookErr != nil {
		sess.logger.Warn("Event hook OnProgress failed", slog.String("error", hookErr.Error()))
	}
}

// fail remembers which path ended the session and passes err through.
func (sess *session) fail(path string, err error) error {
	if sess.failedPath == "" {
		sess.failedPath = path
	}
	return err
}

// finish builds the session report, delivers it through OnRunComplete and
// releases the Scanner. It runs deferred on every exit path, panics included.
func (sess *session) finish(report *Report, errp *error) {
	s := sess.scanner
	defer s.running.Store(false)

	if r := recover(); r != nil {
		sess.logger.Error("Panic recovered during scan", slog.Any("panicValue", r))
		*errp = fmt.Errorf("panic during scan: %v", r)
	}

	*report = sess.report(*errp)
	sess.logger.Info("Scan finished",
		slog.Duration("duration", time.Since(sess.start)),
		slog.Int("files", len(report.Files)),
		slog.Int("findings", report.Summary.TotalFindings),
		slog.Bool("complete", report.Summary.Complete),
	)
	if hookErr := s.hooks.OnRunComplete(*report); hookErr != nil {
		sess.logger.Warn("OnRunComplete hook returned an error", slog.String("error", hookErr.Error()))
	}
}

func (sess *session) report(runErr error) Report {
	r := Report{
		Summary: ReportSummary{
			Mode:            sess.mode,
			Roots:           sess.roots,
			ProfileUsed:     sess.scanner.opts.ProfileName,
			ConfigFilePath:  sess.scanner.opts.ConfigFilePath,
			TotalFiles:      len(sess.files),
			TotalFindings:   sess.agg.Total(),
			Complete:        runErr == nil,
			DurationSeconds: time.Since(sess.start).Seconds(),
			Timestamp:       sess.start.UTC(),
			SchemaVersion:   ReportSchemaVersion,
		},
		Counts:   sess.agg.Snapshot(),
		Findings: sess.findings,
		Files:    sess.files,
	}
	if sess.total > r.Summary.TotalFiles {
		r.Summary.TotalFiles = sess.total
	}
	for _, f := range sess.files {
		switch f.Status {
		case StatusScanned:
			r.Summary.ScannedCount++
		case StatusSkipped:
			r.Summary.SkippedCount++
		}
	}
	if runErr != nil {
		r.Errors = append(r.Errors, ErrorInfo{
			Path:    sess.failedPath,
			Error:   runErr.Error(),
			IsFatal: !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded),
		})
	}
	return r
}
