package dialect

import (
	"path/filepath"

	"github.com/stackvity/doc-scanner/pkg/docscan/finding"
)

// Dispatcher maps a file extension to the classifier that understands it.
// Extensions are matched exactly (".js", not ".JS"); unknown extensions have no
// classifier and are skipped without error.
type Dispatcher struct {
	byExtension map[string]Classifier
}

// NewDispatcher returns the default mapping: .js, .php and .py.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		byExtension: map[string]Classifier{
			".js":  NewBlockScanner(JavaScriptRules()),
			".php": NewBlockScanner(PHPRules()),
			".py":  NewScriptScanner(),
		},
	}
}

// Lookup returns the classifier registered for the extension of path.
func (d *Dispatcher) Lookup(path string) (Classifier, bool) {
	c, ok := d.byExtension[filepath.Ext(path)]
	return c, ok
}

// Supports reports whether path has a classifier.
func (d *Dispatcher) Supports(path string) bool {
	_, ok := d.Lookup(path)
	return ok
}

// Classify runs the classifier for path over text. It returns the dialect name
// and true when a classifier ran, or "" and false for unsupported files, which
// produce no findings.
func (d *Dispatcher) Classify(path, text string, emit finding.Emit) (string, bool) {
	c, ok := d.Lookup(path)
	if !ok {
		return "", false
	}
	c.Classify(NewSourceFile(path, text), emit)
	return c.Name(), true
}
