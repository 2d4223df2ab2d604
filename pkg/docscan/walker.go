package docscan

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/stackvity/doc-scanner/pkg/docscan/dialect"
	"github.com/stackvity/doc-scanner/pkg/util"
)

// Walker enumerates the regular files under one scan root, applying ignore
// rules, the vendored-path filter and the changed-files filter. Symbolic
// links are never followed.
type Walker struct {
	root          string
	hooks         Hooks
	logger        *slog.Logger
	ignoreMatcher *ignoreMatcher
	detector      dialect.Detector
	skipVendored  bool
	changedFiles  map[string]struct{}
}

// NewWalker creates a Walker for root. It is the default WalkerFactory.
func NewWalker(root string, opts *Options, loggerHandler slog.Handler) (FileWalker, error) {
	logger := slog.New(loggerHandler).With(slog.String("component", "walker"))
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: could not resolve %q: %w", ErrEnumerationFailed, root, err)
	}
	matcher, err := newIgnoreMatcher(absRoot, opts.IgnorePatterns, logger)
	if err != nil {
		logger.Error("Failed to initialize ignore pattern matcher", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to initialize ignore patterns: %w", err)
	}
	logger.Debug("Ignore patterns loaded", slog.String("root", absRoot), slog.Int("count", matcher.patternCount()))

	hooks := opts.EventHooks
	if hooks == nil {
		hooks = &NoOpHooks{}
	}
	detector := opts.Detector
	if detector == nil {
		detector = dialect.NewEnryDetector()
	}
	return &Walker{
		root:          absRoot,
		hooks:         hooks,
		logger:        logger,
		ignoreMatcher: matcher,
		detector:      detector,
		skipVendored:  opts.SkipVendored,
		changedFiles:  opts.ChangedFiles,
	}, nil
}

// vcsDirs are version-control metadata directories, never descended.
var vcsDirs = map[string]bool{".git": true, ".hg": true, ".svn": true}

// Walk implements FileWalker. Any error reading a directory aborts the walk
// with ErrEnumerationFailed.
func (w *Walker) Walk(ctx context.Context, recursive bool, fn func(path string) error) error {
	w.logger.Debug("Starting directory walk", slog.String("path", w.root), slog.Bool("recursive", recursive))
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrEnumerationFailed, path, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == w.root {
			if !d.IsDir() {
				return fmt.Errorf("%w: %s is not a directory", ErrEnumerationFailed, path)
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			w.logger.Debug("Skipping symbolic link", slog.String("path", path))
			return nil
		}

		relativePath, ok := util.RelativeTo(w.root, path)
		if !ok {
			return nil
		}
		isDir := d.IsDir()
		if isDir && (!recursive || vcsDirs[d.Name()]) {
			return filepath.SkipDir
		}
		if pattern, ignored := w.ignoreMatcher.Match(relativePath, isDir); ignored {
			w.logger.Debug("Path ignored", slog.String("path", relativePath), slog.Bool("isDir", isDir), slog.String("pattern", pattern))
			if isDir {
				return filepath.SkipDir
			}
			w.skip(path, fmt.Sprintf("Ignored by pattern: %s", pattern))
			return nil
		}
		if w.skipVendored && w.detector.IsVendored(relativePath+dirSuffix(isDir)) {
			w.logger.Debug("Path vendored", slog.String("path", relativePath))
			if isDir {
				return filepath.SkipDir
			}
			w.skip(path, "Vendored path")
			return nil
		}
		if isDir || !d.Type().IsRegular() {
			return nil
		}
		if w.changedFiles != nil {
			if _, found := w.changedFiles[filepath.ToSlash(path)]; !found {
				w.logger.Debug("Path excluded by changed-files filter", slog.String("path", relativePath))
				return nil
			}
		}
		return fn(path)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			w.logger.Info("Directory walk cancelled", slog.String("reason", err.Error()))
			return err
		}
		w.logger.Error("Directory walk failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

func (w *Walker) skip(path, reason string) {
	if hookErr := w.hooks.OnFileStatusUpdate(path, StatusSkipped, reason, 0); hookErr != nil {
		w.logger.Warn("Event hook OnFileStatusUpdate (Skipped) failed", slog.String("path", path), slog.String("error", hookErr.Error()))
	}
}

func dirSuffix(isDir bool) string {
	if isDir {
		return "/"
	}
	return ""
}

// --- ignoreMatcher ---

type ignoreMatcher struct {
	patterns []ignorePattern
	basePath string
	logger   *slog.Logger
}

type ignorePattern struct {
	pattern     string // slash-separated, without the markers below
	origPattern string
	negated     bool
	isDirOnly   bool
	isRooted    bool
	baseAbsPath string // directory the pattern is relative to
}

// newIgnoreMatcher loads the nearest .docscanignore at or above basePath,
// followed by the configured patterns. Later patterns win.
func newIgnoreMatcher(basePath string, configPatterns []string, logger *slog.Logger) (*ignoreMatcher, error) {
	matcher := &ignoreMatcher{
		basePath: basePath,
		logger:   logger.With(slog.String("component", "ignoreMatcher")),
	}
	ignoreFilePath, err := findIgnoreFile(basePath)
	if err != nil {
		matcher.logger.Warn("Error searching for "+IgnoreFileName, slog.String("error", err.Error()))
	}
	if ignoreFilePath != "" {
		filePatterns, err := loadPatternsFromFile(ignoreFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load ignore file %s: %w", ignoreFilePath, err)
		}
		matcher.addPatterns(filePatterns, filepath.Dir(ignoreFilePath))
		matcher.logger.Debug("Loaded patterns from ignore file", slog.String("path", ignoreFilePath), slog.Int("count", len(filePatterns)))
	}
	matcher.addPatterns(configPatterns, basePath)
	return matcher, nil
}

func findIgnoreFile(absStartPath string) (string, error) {
	current := absStartPath
	for {
		candidate := filepath.Join(current, IgnoreFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("error checking for ignore file at %s: %w", candidate, err)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", nil
		}
		current = parent
	}
}

func loadPatternsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open ignore file %s: %w", filePath, err)
	}
	defer file.Close()

	var patterns []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ignore file %s: %w", filePath, err)
	}
	return patterns, nil
}

func (m *ignoreMatcher) addPatterns(rawPatterns []string, baseAbsPath string) {
	for _, raw := range rawPatterns {
		p := ignorePattern{origPattern: raw, baseAbsPath: baseAbsPath}
		trimmed := strings.TrimSpace(raw)
		if strings.HasPrefix(trimmed, "!") {
			p.negated = true
			trimmed = trimmed[1:]
		}
		if strings.HasPrefix(trimmed, "/") {
			p.isRooted = true
			trimmed = strings.TrimPrefix(trimmed, "/")
		}
		if strings.HasSuffix(trimmed, "/") {
			p.isDirOnly = true
			trimmed = strings.TrimSuffix(trimmed, "/")
		}
		p.pattern = filepath.ToSlash(trimmed)
		if p.pattern == "" {
			continue
		}
		m.patterns = append(m.patterns, p)
	}
}

// Match reports whether relativePath (relative to the walk root) is ignored,
// and the pattern that decided it.
func (m *ignoreMatcher) Match(relativePath string, isDir bool) (string, bool) {
	ignored := false
	decidedBy := ""
	abs := filepath.Join(m.basePath, filepath.FromSlash(relativePath))
	for _, p := range m.patterns {
		if p.isDirOnly && !isDir {
			continue
		}
		rel, ok := util.RelativeTo(p.baseAbsPath, abs)
		if !ok || !util.MatchesGitignore(p.pattern, rel, p.isRooted) {
			continue
		}
		ignored = !p.negated
		decidedBy = p.origPattern
	}
	if !ignored {
		return "", false
	}
	return decidedBy, true
}

func (m *ignoreMatcher) patternCount() int {
	return len(m.patterns)
}
