package graphqlpipeline

import "sync"

// BudgetTracker counts Atlas API requests against a process-wide cap.
// The agent consults Available before offering atlas_graphql as a tool.
type BudgetTracker struct {
	mu   sync.Mutex
	used int
	max  int
}

// NewBudgetTracker creates a tracker. max <= 0 means unlimited.
func NewBudgetTracker(max int) *BudgetTracker {
	return &BudgetTracker{max: max}
}

// Available reports whether another request may be made.
func (b *BudgetTracker) Available() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.max <= 0 || b.used < b.max
}

// Consume records one request. Returns false when the budget was
// already exhausted, in which case nothing is recorded.
func (b *BudgetTracker) Consume() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.max > 0 && b.used >= b.max {
		return false
	}
	b.used++
	return true
}

// Status returns the used count and the cap.
func (b *BudgetTracker) Status() (used, max int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used, b.max
}
