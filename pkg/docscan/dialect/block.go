package dialect

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/stackvity/doc-scanner/pkg/docscan/finding"
)

// Classifier inspects one source file and emits a finding for every piece of
// documentation it considers missing. Implementations are stateless between
// calls; all scan state lives on the stack of Classify.
type Classifier interface {
	// Name identifies the dialect (e.g. "javascript").
	Name() string
	// Classify walks src once and reports findings through emit, in line order.
	Classify(src SourceFile, emit finding.Emit)
}

// Patterns shared by the block-comment dialects, compiled once.
var (
	headerStartPattern = regexp.MustCompile(`/\*\*`)
	headerEndPattern   = regexp.MustCompile(` \*/`)
	functionPattern    = regexp.MustCompile(`(?i)\s*(public|private)?\s*(function)\s+.*\s*\(.*\)`)
	docMarkerPattern   = regexp.MustCompile(`\*/|//`)
)

// RequiredHeaderTags are the tags a header comment must carry, in declared order.
var RequiredHeaderTags = []string{"@author", "@date"}

// EntryGuard decides whether a header-start line may open the file header.
// prev is the previous non-skipped line; hasPrev is false when there is none.
type EntryGuard func(prev string, hasPrev bool) bool

// Rules is the capability set that turns the shared block-comment state
// machine into a concrete dialect.
type Rules struct {
	Name            string
	HeaderStart     *regexp.Regexp
	HeaderEnd       *regexp.Regexp
	EntryGuard      EntryGuard
	FunctionKeyword string
	Function        *regexp.Regexp
	DocMarker       *regexp.Regexp
	Tags            []string
}

// BlockScanner is the line state machine for dialects whose header is a
// /** ... */ block comment.
type BlockScanner struct {
	rules Rules
}

// NewBlockScanner returns a classifier driven by rules.
func NewBlockScanner(rules Rules) *BlockScanner {
	return &BlockScanner{rules: rules}
}

// Name implements Classifier.
func (b *BlockScanner) Name() string { return b.rules.Name }

// headerTag is per-file scan state for one required tag.
type headerTag struct {
	name  string
	found bool
}

// Classify implements Classifier.
//
// Each line whose length is exactly one character is skipped; every other line
// goes through the transitions below, first match wins:
//
//  1. inside the header and the line closes it: the header is found, and any
//     required tag not seen yet is reported as MissingHeaderInfo at line 1;
//  2. inside the header: required tags are marked by substring containment;
//  3. no header yet, the line opens one and the entry guard holds: enter it;
//  4. the line is a function signature: it is undocumented unless the previous
//     non-skipped line contains a line comment or a block-comment end.
//
// A file whose header never closed gets a single MissingHeader finding.
func (b *BlockScanner) Classify(src SourceFile, emit finding.Emit) {
	r := b.rules
	tags := make([]headerTag, len(r.Tags))
	for i, name := range r.Tags {
		tags[i] = headerTag{name: name}
	}

	readingHeader := false
	headerFound := false
	lastNonEmpty := -1

	for i, line := range src.Lines {
		// Runes, not UTF-16 units: a lone astral character is one character.
		if utf8.RuneCountInString(line) == 1 {
			continue
		}
		prev, hasPrev := src.line(lastNonEmpty), lastNonEmpty >= 0

		switch {
		case readingHeader && r.HeaderEnd.MatchString(line):
			readingHeader = false
			headerFound = true
			var missing []string
			for _, tag := range tags {
				if !tag.found {
					missing = append(missing, tag.name)
				}
			}
			if len(missing) > 0 {
				emit(finding.Finding{Category: finding.MissingHeaderInfo, File: src.Path, Line: 1, Detail: missing})
			}
		case readingHeader:
			for j := range tags {
				if strings.Contains(line, tags[j].name) {
					tags[j].found = true
				}
			}
		case !headerFound && r.HeaderStart.MatchString(line) && r.EntryGuard(prev, hasPrev):
			readingHeader = true
		case strings.Contains(line, r.FunctionKeyword) && r.Function.MatchString(line):
			if !hasPrev || !r.DocMarker.MatchString(prev) {
				emit(finding.Finding{Category: finding.MissingFunctionDoc, File: src.Path, Line: i + 1})
			}
		}

		lastNonEmpty = i
	}

	if !headerFound {
		emit(finding.Finding{Category: finding.MissingHeader, File: src.Path, Line: 1})
	}
}

// FirstLineGuard admits a header only on the first non-skipped line of a file.
func FirstLineGuard(_ string, hasPrev bool) bool {
	return !hasPrev
}

// AfterOpenTagGuard admits a header only directly after a line holding marker.
// With no previous line the guard fails.
func AfterOpenTagGuard(marker string) EntryGuard {
	return func(prev string, hasPrev bool) bool {
		return hasPrev && strings.Contains(prev, marker)
	}
}

// JavaScriptRules configures the block scanner for .js files.
func JavaScriptRules() Rules {
	return Rules{
		Name:            "javascript",
		HeaderStart:     headerStartPattern,
		HeaderEnd:       headerEndPattern,
		EntryGuard:      FirstLineGuard,
		FunctionKeyword: "function",
		Function:        functionPattern,
		DocMarker:       docMarkerPattern,
		Tags:            RequiredHeaderTags,
	}
}

// PHPRules configures the block scanner for .php files: the header must follow
// the line carrying the <?php open tag.
func PHPRules() Rules {
	rules := JavaScriptRules()
	rules.Name = "php"
	rules.EntryGuard = AfterOpenTagGuard("<?php")
	return rules
}
