// Package dialect holds the line-oriented classifiers that decide whether a
// source file is missing its header comment, header tags, or the documentation
// comments that should precede function and class definitions.
//
// Detection is a heuristic over raw lines: there is no parsing, and each
// dialect is a small state machine driven one line at a time.
package dialect

import (
	"path/filepath"
	"strings"
)

// SourceFile is the immutable input of a classifier.
type SourceFile struct {
	Path      string
	Extension string
	Lines     []string
}

// NewSourceFile splits text into lines on '\n' only. A trailing '\r' stays on
// its line, so a CRLF blank line is a one-character line.
func NewSourceFile(path, text string) SourceFile {
	return SourceFile{
		Path:      path,
		Extension: filepath.Ext(path),
		Lines:     strings.Split(text, "\n"),
	}
}

// line returns the line at index i, or "" when i is out of range.
func (s SourceFile) line(i int) string {
	if i < 0 || i >= len(s.Lines) {
		return ""
	}
	return s.Lines[i]
}
