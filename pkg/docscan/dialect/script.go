package dialect

import (
	"regexp"

	"github.com/stackvity/doc-scanner/pkg/docscan/finding"
)

// Patterns for the indentation-based dialect, compiled once.
var (
	scriptDefPattern       = regexp.MustCompile(`(?i)[^\S\r\n]*def\s+\S+\s*\(\S*\)\s*:`)
	scriptClassPattern     = regexp.MustCompile(`(?i)\s*class\s+\S+\s*\(?\S*\)?\s*:`)
	scriptHeaderPattern    = regexp.MustCompile(`\s*"""`)
	scriptDocstringPattern = regexp.MustCompile(`^\s*"""`)
)

// ScriptScanner classifies Python-like files. The file docstring is expected
// on the very first line, and every def/class line must be followed directly
// by a docstring opener.
type ScriptScanner struct{}

// NewScriptScanner returns the indentation-based classifier.
func NewScriptScanner() *ScriptScanner { return &ScriptScanner{} }

// Name implements Classifier.
func (s *ScriptScanner) Name() string { return "python" }

// Classify implements Classifier. Findings for definitions point at the line
// after the definition (i+2, 1-indexed), where the docstring should have been.
// A first line without a docstring marker is only reported as MissingHeader and
// is not examined as a definition.
func (s *ScriptScanner) Classify(src SourceFile, emit finding.Emit) {
	for i, line := range src.Lines {
		if i == 0 && !scriptHeaderPattern.MatchString(line) {
			emit(finding.Finding{Category: finding.MissingHeader, File: src.Path, Line: 1})
			continue
		}
		if scriptDocstringPattern.MatchString(src.line(i + 1)) {
			continue
		}
		switch {
		case scriptDefPattern.MatchString(line):
			emit(finding.Finding{Category: finding.MissingFunctionDoc, File: src.Path, Line: i + 2})
		case scriptClassPattern.MatchString(line):
			emit(finding.Finding{Category: finding.MissingClassDoc, File: src.Path, Line: i + 2})
		}
	}
}
