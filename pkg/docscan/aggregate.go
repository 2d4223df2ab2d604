package docscan

import (
	"sync"

	"github.com/stackvity/doc-scanner/pkg/docscan/finding"
)

// CategoryCount is the number of findings of one category in a session.
type CategoryCount struct {
	Category finding.Category `json:"category" yaml:"category"`
	Label    string           `json:"label" yaml:"label"`
	Count    int              `json:"count" yaml:"count"`
}

// Aggregator keeps one counter per finding category. A fresh Aggregator (or one
// that has been Reset) reports zero for every category.
type Aggregator struct {
	mu     sync.Mutex
	counts map[finding.Category]int
}

// NewAggregator returns an Aggregator with all counters at zero.
func NewAggregator() *Aggregator {
	return &Aggregator{counts: make(map[finding.Category]int, len(finding.Categories))}
}

// Reset sets every counter back to zero.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counts = make(map[finding.Category]int, len(finding.Categories))
}

// Record increments the counter for the category of f.
func (a *Aggregator) Record(f finding.Finding) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counts[f.Category]++
}

// Count returns the current counter for c.
func (a *Aggregator) Count(c finding.Category) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counts[c]
}

// Total returns the sum of all counters.
func (a *Aggregator) Total() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	total := 0
	for _, n := range a.counts {
		total += n
	}
	return total
}

// Snapshot returns the counters in fixed category order, zeros included.
func (a *Aggregator) Snapshot() []CategoryCount {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]CategoryCount, 0, len(finding.Categories))
	for _, c := range finding.Categories {
		out = append(out, CategoryCount{Category: c, Label: c.Label(), Count: a.counts[c]})
	}
	return out
}
