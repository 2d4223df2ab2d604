package docscan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/stackvity/doc-scanner/pkg/docscan/dialect"
	"github.com/stackvity/doc-scanner/pkg/docscan/encoding"
)

// Scanner runs documentation-completeness scans. A Scanner runs one session
// at a time; starting a second one while the first is in flight fails with
// ErrScanInProgress. Sessions never share state.
type Scanner struct {
	opts          *Options
	logger        *slog.Logger
	hooks         Hooks
	dispatcher    *dialect.Dispatcher
	detector      dialect.Detector
	decoder       encoding.Decoder
	walkerFactory WalkerFactory
	running       atomic.Bool
}

// NewScanner validates opts and fills in default dependencies.
func NewScanner(opts Options) (*Scanner, error) {
	if opts.Logger == nil {
		return nil, fmt.Errorf("%w: Logger implementation (slog.Handler) cannot be nil", ErrConfigValidation)
	}
	logger := slog.New(opts.Logger).With(slog.String("component", "scanner"))

	if opts.EventHooks == nil {
		opts.EventHooks = &NoOpHooks{}
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = dialect.NewDispatcher()
	}
	if opts.Detector == nil {
		opts.Detector = dialect.NewEnryDetector()
		logger.Debug("Detector not provided, using default go-enry detector.")
	}
	if opts.Decoder == nil {
		opts.Decoder = encoding.NewCharsetDecoder(opts.DefaultEncoding)
	}
	if opts.WalkerFactory == nil {
		opts.WalkerFactory = NewWalker
	}

	return &Scanner{
		opts:          &opts,
		logger:        logger,
		hooks:         opts.EventHooks,
		dispatcher:    opts.Dispatcher,
		detector:      opts.Detector,
		decoder:       opts.Decoder,
		walkerFactory: opts.WalkerFactory,
	}, nil
}

// ScanSource scans one file whose text is already in memory, such as an
// unsaved editor buffer or stdin. path only selects the dialect and labels
// the findings.
func (s *Scanner) ScanSource(ctx context.Context, path string, content []byte) (report Report, err error) {
	if path == "" {
		return Report{}, ErrNoActiveFile
	}
	sess, err := s.begin(ModeFile, []string{path})
	if err != nil {
		return Report{}, err
	}
	defer sess.finish(&report, &err)

	sess.scanContent(path, content, time.Now())
	return report, nil
}

// ScanFile scans a single file read from disk.
func (s *Scanner) ScanFile(ctx context.Context, path string) (report Report, err error) {
	if path == "" {
		return Report{}, ErrNoActiveFile
	}
	sess, err := s.begin(ModeFile, []string{path})
	if err != nil {
		return Report{}, err
	}
	defer sess.finish(&report, &err)

	return report, sess.scanPath(ctx, path)
}

// ScanFolder scans the regular files directly inside a folder, without
// descending. When path names a file, the folder containing it is scanned.
func (s *Scanner) ScanFolder(ctx context.Context, path string) (Report, error) {
	if path == "" {
		return Report{}, ErrNoActiveFile
	}
	if info, statErr := os.Stat(path); statErr == nil && !info.IsDir() {
		path = filepath.Dir(path)
	}
	return s.scanRoots(ctx, ModeFolder, []string{path}, false)
}

// ScanTree scans every file under the given roots recursively. The progress
// total covers all roots, and one summary is produced for the whole run.
func (s *Scanner) ScanTree(ctx context.Context, roots ...string) (Report, error) {
	return s.scanRoots(ctx, ModeTree, roots, true)
}

// ScanWorkspace is ScanTree over the workspace roots, labelled as a workspace
// session in the report.
func (s *Scanner) ScanWorkspace(ctx context.Context, roots []string) (Report, error) {
	return s.scanRoots(ctx, ModeWorkspace, roots, true)
}

func (s *Scanner) scanRoots(ctx context.Context, mode Mode, roots []string, recursive bool) (report Report, err error) {
	if len(roots) == 0 {
		if mode == ModeWorkspace {
			return Report{}, ErrNoWorkspaceRoot
		}
		return Report{}, ErrNoFolderSelected
	}
	for _, root := range roots {
		if root == "" {
			return Report{}, ErrNoFolderSelected
		}
	}
	sess, err := s.begin(mode, roots)
	if err != nil {
		return Report{}, err
	}
	defer sess.finish(&report, &err)

	walkers := make([]FileWalker, 0, len(roots))
	for _, root := range roots {
		w, werr := s.walkerFactory(root, s.opts, s.opts.Logger)
		if werr != nil {
			return report, sess.fail(root, werr)
		}
		walkers = append(walkers, w)
	}

	total := 0
	for _, w := range walkers {
		werr := w.Walk(ctx, recursive, func(path string) error {
			total++
			if hookErr := s.hooks.OnFileDiscovered(path); hookErr != nil {
				s.logger.Warn("Event hook OnFileDiscovered failed", slog.String("path", path), slog.String("error", hookErr.Error()))
			}
			return nil
		})
		if werr != nil {
			return report, sess.fail("", werr)
		}
	}
	sess.total = total
	s.logger.Debug("Enumeration complete", slog.String("mode", string(mode)), slog.Int("files", total))
	if total == 0 {
		return report, nil
	}

	increment := 100.0 / float64(total)
	for _, w := range walkers {
		werr := w.Walk(ctx, recursive, func(path string) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if scanErr := sess.scanPath(ctx, path); scanErr != nil {
				return scanErr
			}
			sess.progress(path, increment)
			return nil
		})
		if werr != nil {
			return report, sess.fail("", werr)
		}
	}
	return report, nil
}

// begin claims the Scanner for a new session.
func (s *Scanner) begin(mode Mode, roots []string) (*session, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("Scan requested while another is in progress", slog.String("mode", string(mode)))
		return nil, ErrScanInProgress
	}
	return newSession(s, mode, roots), nil
}
