package docscan

import (
	"fmt"
	"time"

	"github.com/stackvity/doc-scanner/pkg/docscan/finding"
)

// SummaryRule is the separator printed around the end-of-scan summary.
const SummaryRule = "===================="

// Report summarizes the result of a single scan session.
type Report struct {
	Summary  ReportSummary     `json:"summary" yaml:"summary"`
	Counts   []CategoryCount   `json:"counts" yaml:"counts"`
	Findings []finding.Finding `json:"findings" yaml:"findings"`
	Files    []FileResult      `json:"files" yaml:"files"`
	Errors   []ErrorInfo       `json:"errors" yaml:"errors"`
}

// ReportSummary contains aggregated statistics for a scan session.
type ReportSummary struct {
	Mode            Mode      `json:"mode" yaml:"mode"`
	Roots           []string  `json:"roots" yaml:"roots"`
	ProfileUsed     string    `json:"profileUsed,omitempty" yaml:"profileUsed,omitempty"`
	ConfigFilePath  string    `json:"configFilePath,omitempty" yaml:"configFilePath,omitempty"`
	TotalFiles      int       `json:"totalFiles" yaml:"totalFiles"`
	ScannedCount    int       `json:"scannedCount" yaml:"scannedCount"`
	SkippedCount    int       `json:"skippedCount" yaml:"skippedCount"`
	TotalFindings   int       `json:"totalFindings" yaml:"totalFindings"`
	Complete        bool      `json:"complete" yaml:"complete"`
	DurationSeconds float64   `json:"durationSeconds" yaml:"durationSeconds"`
	Timestamp       time.Time `json:"timestamp" yaml:"timestamp"`
	SchemaVersion   string    `json:"schemaVersion,omitempty" yaml:"schemaVersion,omitempty"`
}

// FileResult details a single file the session looked at.
type FileResult struct {
	Path       string `json:"path" yaml:"path"`
	Dialect    string `json:"dialect,omitempty" yaml:"dialect,omitempty"`
	Language   string `json:"language,omitempty" yaml:"language,omitempty"`
	Encoding   string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	Status     Status `json:"status" yaml:"status"`
	Reason     string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Findings   int    `json:"findings" yaml:"findings"`
	DurationMs int64  `json:"durationMs" yaml:"durationMs"`
}

// ErrorInfo details an error encountered during the session.
type ErrorInfo struct {
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	Error   string `json:"error" yaml:"error"`
	IsFatal bool   `json:"isFatal" yaml:"isFatal"`
}

// Count returns the number of findings recorded for c.
func (r Report) Count(c finding.Category) int {
	for _, cc := range r.Counts {
		if cc.Category == c {
			return cc.Count
		}
	}
	return 0
}

// SummaryLines renders the per-category totals block printed at the end of
// every completed session. Categories with zero findings are listed.
func (r Report) SummaryLines() []string {
	lines := make([]string, 0, len(finding.Categories)+3)
	lines = append(lines, SummaryRule, "Total missing information :")
	for _, c := range finding.Categories {
		lines = append(lines, fmt.Sprintf(" - %s => %d", c.Label(), r.Count(c)))
	}
	return append(lines, SummaryRule)
}
