// Package cli wires configuration, the scanner, the TUI and report rendering
// together for the docscan command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/stackvity/doc-scanner/internal/cli/config"
	"github.com/stackvity/doc-scanner/internal/cli/hooks"
	"github.com/stackvity/doc-scanner/internal/cli/output"
	"github.com/stackvity/doc-scanner/internal/cli/ui"
	"github.com/stackvity/doc-scanner/pkg/docscan"
	"github.com/stackvity/doc-scanner/pkg/docscan/workspace"
)

// User-facing messages for scans that could not start.
const (
	MsgNoActiveFile    = "You need to open a file first"
	MsgNoWorkingFolder = "Working folder not found, open a folder and try again"
)

// Request describes one scan invocation.
type Request struct {
	Mode docscan.Mode
	// Paths holds the file (file mode), the folder (folder mode) or the roots
	// (tree mode). Workspace roots come from configuration instead.
	Paths []string
	// Source, when non-nil, is scanned in place of reading Paths[0] from disk.
	Source  []byte
	Version string
}

// Run executes a scan and renders its report to stdout. Scans that ran, even
// partially, are always rendered; the scan error is returned afterwards so the
// command exits non-zero.
func Run(ctx context.Context, req Request, cfg config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	opts := cfg.Options
	format := opts.OutputFormat
	if format == "" {
		format = docscan.DefaultOutputFormat
	}
	recursive := req.Mode == docscan.ModeTree || req.Mode == docscan.ModeWorkspace
	tuiEnabled := opts.TuiEnabled && !opts.Verbose && recursive && isTerminal(stderr)
	colorEnabled := opts.ColorEnabled && format == docscan.OutputFormatText && isTerminal(stdout)

	roots := req.Paths
	if req.Mode == docscan.ModeWorkspace {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("%w: %w", docscan.ErrNoWorkspaceRoot, err)
		}
		if roots, err = workspace.Resolve(cfg.Workspace.Roots, cwd, logger); err != nil {
			return err
		}
		changed, err := changedFiles(ctx, roots, cfg.Workspace, logger)
		if err != nil {
			return err
		}
		opts.ChangedFiles = changed
	}

	g, gctx := errgroup.WithContext(ctx)
	scanCtx, cancelScan := context.WithCancel(gctx)
	defer cancelScan()

	var program *tea.Program
	if tuiEnabled {
		model := ui.NewModel(req.Version, cancelScan)
		program = newTUIProgram(&model, stderr)
	}

	var bar hooks.ProgressBar
	barEnabled := recursive && !tuiEnabled && !opts.Verbose && isTerminal(stderr)
	if barEnabled {
		bar = newProgressBar(stderr)
	}

	// Text findings stream live unless the TUI or the bar owns the terminal.
	var stream io.Writer
	if format == docscan.OutputFormatText && !tuiEnabled && !(barEnabled && isTerminal(stdout)) {
		stream = stdout
	}
	var tuiProgram hooks.TUIProgram
	if program != nil {
		tuiProgram = program
	}
	cliHooks := hooks.NewCLIHooks(logger, tuiEnabled, opts.Verbose, tuiProgram, bar, stream, output.FindingFormatter(colorEnabled))
	opts.EventHooks = cliHooks

	scanner, err := docscan.NewScanner(opts)
	if err != nil {
		return err
	}

	if program != nil {
		g.Go(func() error {
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("running TUI: %w", err)
			}
			return nil
		})
	}

	var report docscan.Report
	var scanErr error
	g.Go(func() error {
		report, scanErr = scan(scanCtx, scanner, req, roots)
		if program != nil {
			// Precondition failures end the scan before any session event
			// reaches the TUI, so it would otherwise wait for a key press.
			program.Quit()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Terminal UI failed", slog.String("error", err.Error()))
	}

	if report.Summary.Mode == "" {
		// The scan never started; there is nothing to render.
		return scanErr
	}
	if err := output.Render(stdout, report, format, output.Options{Color: colorEnabled, SkipFindings: cliHooks.Streaming()}); err != nil {
		return errors.Join(scanErr, fmt.Errorf("rendering report: %w", err))
	}
	return scanErr
}

func newProgressBar(w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Scanning"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetPredictTime(false),
	)
}

func scan(ctx context.Context, s *docscan.Scanner, req Request, roots []string) (docscan.Report, error) {
	switch req.Mode {
	case docscan.ModeFile:
		path := first(req.Paths)
		if req.Source != nil {
			return s.ScanSource(ctx, path, req.Source)
		}
		return s.ScanFile(ctx, path)
	case docscan.ModeFolder:
		return s.ScanFolder(ctx, first(req.Paths))
	case docscan.ModeTree:
		return s.ScanTree(ctx, roots...)
	case docscan.ModeWorkspace:
		return s.ScanWorkspace(ctx, roots)
	default:
		return docscan.Report{}, fmt.Errorf("unknown scan mode %q", req.Mode)
	}
}

// changedFiles collects the git changes of every root for the changed-only
// and since filters. It returns nil when neither filter is set.
func changedFiles(ctx context.Context, roots []string, ws config.WorkspaceConfig, logger *slog.Logger) (map[string]struct{}, error) {
	if !ws.ChangedOnly && ws.Since == "" {
		return nil, nil
	}
	all := make(map[string]struct{})
	for _, root := range roots {
		repo, err := workspace.Open(root, logger)
		if err != nil {
			return nil, err
		}
		var changed map[string]struct{}
		if ws.Since != "" {
			changed, err = repo.ChangedSince(ctx, ws.Since)
		} else {
			changed, err = repo.ChangedFiles()
		}
		if err != nil {
			return nil, err
		}
		maps.Copy(all, changed)
	}
	logger.Debug("Restricting scan to changed files", slog.Int("files", len(all)))
	return all, nil
}

// UserMessage returns the message shown to the user for err.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, docscan.ErrNoActiveFile):
		return MsgNoActiveFile
	case errors.Is(err, docscan.ErrNoFolderSelected), errors.Is(err, docscan.ErrNoWorkspaceRoot):
		return MsgNoWorkingFolder
	default:
		return err.Error()
	}
}

var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

var newTUIProgram = func(model tea.Model, out io.Writer) *tea.Program {
	return tea.NewProgram(model, tea.WithOutput(out), tea.WithAltScreen())
}

func first(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	return paths[0]
}
