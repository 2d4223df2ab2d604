// Package finding defines the missing-documentation findings produced by the
// line classifiers and consumed by the scan session.
package finding

import (
	"fmt"
	"strings"
)

// Category identifies the kind of documentation that is missing.
type Category int

// Categories in their declared order. The order drives summary rendering.
const (
	MissingHeader Category = iota
	MissingHeaderInfo
	MissingFunctionDoc
	MissingClassDoc
)

// Categories lists every category in declared order.
var Categories = []Category{MissingHeader, MissingHeaderInfo, MissingFunctionDoc, MissingClassDoc}

// prefixWidth is the column the " : " separator of a finding line is aligned to.
const prefixWidth = 28

// Label returns the summary label of the category.
func (c Category) Label() string {
	switch c {
	case MissingHeader:
		return "File Header"
	case MissingHeaderInfo:
		return "File Header Information"
	case MissingFunctionDoc:
		return "Function Documentation"
	case MissingClassDoc:
		return "Class Documentation"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Prefix returns the leading text of a finding line for the category.
func (c Category) Prefix() string {
	switch c {
	case MissingHeader:
		return "Missing {Header} Doc"
	case MissingHeaderInfo:
		return "Missing {Header} Info"
	case MissingFunctionDoc:
		return "Missing {Function} Doc"
	case MissingClassDoc:
		return "Missing {Class} Doc"
	default:
		return "Missing {Unknown} Doc"
	}
}

// Key returns a stable machine-readable identifier, used in JSON/YAML reports.
func (c Category) Key() string {
	switch c {
	case MissingHeader:
		return "header"
	case MissingHeaderInfo:
		return "headerInfo"
	case MissingFunctionDoc:
		return "function"
	case MissingClassDoc:
		return "class"
	default:
		return "unknown"
	}
}

// String implements fmt.Stringer.
func (c Category) String() string { return c.Key() }

// MarshalText renders the category by its key.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.Key()), nil
}

// UnmarshalText parses a category key.
func (c *Category) UnmarshalText(text []byte) error {
	for _, candidate := range Categories {
		if candidate.Key() == string(text) {
			*c = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown finding category %q", string(text))
}

// Finding is one detected instance of missing documentation.
// Line is 1-indexed. Detail lists missing header tag names and is only set for
// MissingHeaderInfo.
type Finding struct {
	Category Category `json:"category" yaml:"category"`
	File     string   `json:"file" yaml:"file"`
	Line     int      `json:"line" yaml:"line"`
	Detail   []string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// String renders the finding the way it appears in the text report, e.g.
//
//	Missing {Header} Info       : src/a.js:1 => @date
func (f Finding) String() string {
	var b strings.Builder
	prefix := f.Category.Prefix()
	b.WriteString(prefix)
	if pad := prefixWidth - len(prefix); pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	fmt.Fprintf(&b, ": %s:%d", f.File, f.Line)
	if len(f.Detail) > 0 {
		b.WriteString(" => ")
		b.WriteString(strings.Join(f.Detail, ", "))
	}
	return b.String()
}

// Emit receives findings as a classifier produces them.
type Emit func(Finding)
