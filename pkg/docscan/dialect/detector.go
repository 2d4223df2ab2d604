package dialect

import (
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// Detector names the language of a scanned file for reports. It never decides
// which classifier runs; that is the Dispatcher's job.
type Detector interface {
	// Detect returns a lowercase language name, or "unknown" when nothing
	// matches. content may be empty.
	Detect(path string, content []byte) string
	// IsVendored reports whether path looks like third-party or generated
	// material (node_modules/, vendor/, minified bundles, ...).
	IsVendored(path string) bool
}

// enryDetector implements Detector with go-enry.
type enryDetector struct{}

// NewEnryDetector returns the go-enry backed Detector.
func NewEnryDetector() Detector {
	return enryDetector{}
}

// Detect implements Detector. Content-based detection is tried first, then the
// extension, then the bare filename.
func (enryDetector) Detect(path string, content []byte) string {
	filename := filepath.Base(path)
	if len(content) > 0 {
		if lang := enry.GetLanguage(filename, content); lang != "" && lang != "Text" {
			return strings.ToLower(lang)
		}
	}
	if lang, _ := enry.GetLanguageByExtension(filename); lang != "" {
		return strings.ToLower(lang)
	}
	if lang, _ := enry.GetLanguageByFilename(filename); lang != "" {
		return strings.ToLower(lang)
	}
	return "unknown"
}

// IsVendored implements Detector.
func (enryDetector) IsVendored(path string) bool {
	return enry.IsVendor(filepath.ToSlash(path))
}
