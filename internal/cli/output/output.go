// Package output renders a finished scan report for the terminal or for
// machines.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/stackvity/doc-scanner/pkg/docscan"
	"github.com/stackvity/doc-scanner/pkg/docscan/finding"
)

// Options controls text rendering.
type Options struct {
	Color bool
	// SkipFindings omits the finding lines because they were already
	// streamed while the scan ran.
	SkipFindings bool
}

// Render writes report to w in the given format.
func Render(w io.Writer, report docscan.Report, format docscan.OutputFormat, opts Options) error {
	switch format {
	case docscan.OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encoding JSON report: %w", err)
		}
		return nil
	case docscan.OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encoding YAML report: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encoding YAML report: %w", err)
		}
		return nil
	case docscan.OutputFormatText, "":
		return renderText(w, report, opts)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func renderText(w io.Writer, report docscan.Report, opts Options) error {
	p := newPalette(opts.Color)
	var b strings.Builder
	if !opts.SkipFindings {
		for _, f := range report.Findings {
			b.WriteString(p.finding(f))
			b.WriteByte('\n')
		}
	}
	for _, line := range report.SummaryLines() {
		if line == docscan.SummaryRule {
			line = p.rule.Sprint(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if !report.Summary.Complete {
		b.WriteString(p.err.Sprint(incompleteLine(report)))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// incompleteLine describes why the summary above it covers only part of the
// requested files.
func incompleteLine(report docscan.Report) string {
	for _, e := range report.Errors {
		if e.Path != "" {
			return fmt.Sprintf("Scan incomplete: %s (%s)", e.Error, e.Path)
		}
		return "Scan incomplete: " + e.Error
	}
	return "Scan incomplete"
}

// FindingFormatter returns the function that renders a single finding line,
// coloured when enabled.
func FindingFormatter(enableColor bool) func(finding.Finding) string {
	return newPalette(enableColor).finding
}

type palette struct {
	categories map[finding.Category]*color.Color
	rule       *color.Color
	err        *color.Color
}

func newPalette(enableColor bool) palette {
	p := palette{
		categories: map[finding.Category]*color.Color{
			finding.MissingHeader:      color.New(color.FgRed),
			finding.MissingHeaderInfo:  color.New(color.FgMagenta),
			finding.MissingFunctionDoc: color.New(color.FgYellow),
			finding.MissingClassDoc:    color.New(color.FgCyan),
		},
		rule: color.New(color.Bold),
		err:  color.New(color.FgRed, color.Bold),
	}
	for _, c := range p.all() {
		// Colour is decided per writer, not by the package-wide NoColor.
		if enableColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) all() []*color.Color {
	all := []*color.Color{p.rule, p.err}
	for _, c := range p.categories {
		all = append(all, c)
	}
	return all
}

// finding colours the category prefix of a finding line, padding included.
func (p palette) finding(f finding.Finding) string {
	line := f.String()
	c, ok := p.categories[f.Category]
	sep := strings.Index(line, ": ")
	if !ok || sep < 0 {
		return line
	}
	return c.Sprint(line[:sep]) + line[sep:]
}
