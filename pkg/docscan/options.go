package docscan

import (
	"context"
	"log/slog"
	"time"

	"github.com/stackvity/doc-scanner/pkg/docscan/dialect"
	"github.com/stackvity/doc-scanner/pkg/docscan/encoding"
	"github.com/stackvity/doc-scanner/pkg/docscan/finding"
)

// Hooks defines callbacks for progress and results during a scan session.
// Callbacks are invoked from the goroutine running the scan, in order.
type Hooks interface {
	// OnRunStart is called once per session before any file is read. Sinks
	// clear whatever output the previous session left behind.
	OnRunStart(mode Mode, roots []string) error
	OnFileDiscovered(path string) error
	OnFileStatusUpdate(path string, status Status, message string, duration time.Duration) error
	// OnFinding is called for every finding, in production order.
	OnFinding(f finding.Finding) error
	// OnProgress is called after each file of a folder, tree or workspace scan.
	OnProgress(p Progress) error
	// OnRunComplete is called exactly once per session that got past the
	// re-entrancy check, including failed and cancelled ones.
	OnRunComplete(report Report) error
}

// NoOpHooks provides a default, do-nothing implementation of the Hooks interface.
type NoOpHooks struct{}

// OnRunStart implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnRunStart(mode Mode, roots []string) error { return nil }

// OnFileDiscovered implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnFileDiscovered(path string) error { return nil }

// OnFileStatusUpdate implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnFileStatusUpdate(path string, status Status, message string, duration time.Duration) error {
	return nil
}

// OnFinding implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnFinding(f finding.Finding) error { return nil }

// OnProgress implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnProgress(p Progress) error { return nil }

// OnRunComplete implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnRunComplete(report Report) error { return nil }

// FileWalker enumerates the files under one root.
type FileWalker interface {
	// Walk calls fn with the path of every eligible regular file, in lexical
	// order. Subdirectories are descended only when recursive is true.
	Walk(ctx context.Context, recursive bool, fn func(path string) error) error
}

// WalkerFactory builds the FileWalker for one root.
type WalkerFactory func(root string, opts *Options, loggerHandler slog.Handler) (FileWalker, error)

// Options holds all configuration for a Scanner.
type Options struct {
	// --- Behavior & Control ---
	ConfigFilePath string `mapstructure:"-"`
	ProfileName    string `mapstructure:"-"`
	Verbose        bool   `mapstructure:"verbose"`
	TuiEnabled     bool   `mapstructure:"tuiEnabled"`
	ColorEnabled   bool   `mapstructure:"color"`

	// --- File Handling & Filtering ---
	IgnorePatterns  []string `mapstructure:"ignore"`       // aggregated with .docscanignore
	SkipVendored    bool     `mapstructure:"skipVendored"` // node_modules/, vendor/, minified bundles
	DefaultEncoding string   `mapstructure:"defaultEncoding"`

	// --- Output ---
	OutputFormat OutputFormat `mapstructure:"outputFormat"`

	// ChangedFiles restricts enumeration to these absolute, slash-separated
	// paths. nil disables the filter; an empty non-nil map matches nothing.
	ChangedFiles map[string]struct{} `mapstructure:"-"`

	// --- Injected Dependencies ---
	EventHooks    Hooks               `mapstructure:"-"` // Optional: defaults to NoOpHooks
	Logger        slog.Handler        `mapstructure:"-"` // Required
	Dispatcher    *dialect.Dispatcher `mapstructure:"-"` // Optional
	Detector      dialect.Detector    `mapstructure:"-"` // Optional
	Decoder       encoding.Decoder    `mapstructure:"-"` // Optional
	WalkerFactory WalkerFactory       `mapstructure:"-"` // Optional: for testing
}
