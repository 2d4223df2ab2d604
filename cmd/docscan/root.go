package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stackvity/doc-scanner/internal/cli"
	"github.com/stackvity/doc-scanner/internal/cli/config"
	"github.com/stackvity/doc-scanner/pkg/docscan"
)

var (
	// These are set during build time using -ldflags
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// newRootCmd builds the docscan command tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "docscan",
		Short: "Reports missing documentation in JavaScript, PHP and Python sources.",
		Long: `docscan checks source files for missing documentation:

  - a file header comment and its @author / @date tags,
  - a comment or docstring before every function,
  - a docstring after every Python class.

Findings are printed one per line, followed by a summary per category.
Only .js, .php and .py files are examined; everything else is skipped.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(`{{.Name}} version {{.Version}}` + "\n")

	// Note: flag names must match the keys in internal/cli/config.
	pf := root.PersistentFlags()
	pf.String("config", "", "Configuration file path (default is search ., $HOME/.config/docscan/, $HOME/.docscan/)")
	pf.String("profile", "", "Name of configuration profile to use")
	pf.BoolP("verbose", "v", false, "Enable verbose (debug) logging output (disables TUI)")
	pf.Bool("no-tui", false, "Disable interactive Terminal UI even if in a TTY")
	pf.Bool("no-color", false, "Disable coloured text output")
	pf.String("output-format", string(docscan.DefaultOutputFormat), `Report format ("text", "json" or "yaml")`)
	pf.StringArray("ignore", []string{}, "Gitignore-style pattern of paths to skip (can be specified multiple times)")
	pf.Bool("skip-vendored", docscan.DefaultSkipVendored, "Skip vendored and generated paths such as node_modules/")
	pf.String("encoding", "", "Encoding assumed for files that are not valid UTF-8 (e.g. windows-1252)")

	root.AddCommand(newFileCmd(), newFolderCmd(), newTreeCmd(), newWorkspaceCmd(), newSchemaCmd())
	return root
}

func newFileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "file [path|-]",
		Aliases: []string{"scan-current-file"},
		Short:   "Scan a single file",
		Long: `Scan a single file. Use "-" to read the text from stdin, for example an
unsaved editor buffer; --stdin-path then names the file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := cli.Request{Mode: docscan.ModeFile}
			switch path := firstArg(args); path {
			case "":
			case "-":
				src, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				stdinPath, _ := cmd.Flags().GetString("stdin-path")
				req.Paths = []string{stdinPath}
				req.Source = src
			default:
				req.Paths = []string{path}
			}
			return runScan(cmd, req)
		},
	}
	cmd.Flags().String("stdin-path", "", "File name used for dialect selection and findings when reading stdin")
	return cmd
}

func newFolderCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "folder [path]",
		Aliases: []string{"scan-current-folder"},
		Short:   "Scan the files directly inside a folder",
		Long: `Scan the files directly inside a folder, without descending into
subfolders. When given a file, the folder containing it is scanned.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, cli.Request{Mode: docscan.ModeFolder, Paths: args})
		},
	}
}

func newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "tree <folder>...",
		Aliases: []string{"scan-selected-folder"},
		Short:   "Scan one or more folders recursively",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{""}
			}
			return runScan(cmd, cli.Request{Mode: docscan.ModeTree, Paths: args})
		},
	}
}

func newWorkspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"scan-workspace"},
		Short:   "Scan every workspace root recursively",
		Long: `Scan every workspace root recursively. Roots come from --root or the
workspace.roots configuration key; without them, the top level of the git
repository around the working directory is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, cli.Request{Mode: docscan.ModeWorkspace})
		},
	}
	cmd.Flags().StringArray("root", []string{}, "Workspace root folder (can be specified multiple times)")
	cmd.Flags().Bool("changed-only", docscan.DefaultChangedOnly, "Scan only files changed in the git index or working tree")
	cmd.Flags().String("since", "", "Scan only files changed since the given git reference (commit/tag/branch)")
	return cmd
}

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the json report, or validate a report against it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("validate")
			if path == "" {
				_, err := cmd.OutOrStdout().Write(docscan.ReportSchema)
				return err
			}
			var data []byte
			var err error
			if path == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(path)
			}
			if err != nil {
				return fmt.Errorf("reading report: %w", err)
			}
			if err := docscan.ValidateReportJSON(data); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Report is valid.")
			return nil
		},
	}
	cmd.Flags().String("validate", "", `JSON report file to validate ("-" for stdin)`)
	return cmd
}

// runScan loads configuration for cmd and runs the scan described by req.
func runScan(cmd *cobra.Command, req cli.Request) error {
	flags := cmd.Flags()
	cfgFile, _ := flags.GetString("config")
	profileName, _ := flags.GetString("profile")

	cfg, logger, err := config.LoadAndValidate(cfgFile, profileName, flags)
	if err != nil {
		return err
	}
	req.Version = version
	return cli.Run(cmd.Context(), req, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// execute runs root and prints a failure to its error stream. It returns the
// process exit code.
func execute(ctx context.Context, root *cobra.Command) int {
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), cli.UserMessage(err))
		return 1
	}
	return 0
}

// Execute runs the docscan command with a context cancelled on SIGINT/SIGTERM
// and exits with its status.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, newRootCmd())
	cancel()
	os.Exit(code)
}
