package llm

import (
	"fmt"
	"sync"
)

// TokenTracker accumulates token usage across the calls of a chat session
// and optionally enforces a budget.
type TokenTracker struct {
	mu     sync.Mutex
	budget int
	used   TokenUsage
}

// NewTokenTracker creates a tracker with the given budget.
// A budget of 0 means unlimited.
func NewTokenTracker(budget int) *TokenTracker {
	return &TokenTracker{budget: budget}
}

// Add records token usage from a single chat call.
func (t *TokenTracker) Add(usage TokenUsage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.used.InputTokens += usage.InputTokens
	t.used.OutputTokens += usage.OutputTokens
	t.used.CacheRead += usage.CacheRead
	t.used.CacheWrite += usage.CacheWrite
}

// CheckBudget returns an error if the budget is already spent.
func (t *TokenTracker) CheckBudget() error {
	if t.budget <= 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if total := t.used.Total(); total >= t.budget {
		return fmt.Errorf("token budget exhausted: used %d of %d", total, t.budget)
	}
	return nil
}

// Usage returns the current cumulative usage.
func (t *TokenTracker) Usage() TokenUsage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.used
}

// Remaining returns the number of tokens remaining in the budget.
// Returns -1 if the budget is unlimited.
func (t *TokenTracker) Remaining() int {
	if t.budget <= 0 {
		return -1
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	rem := t.budget - t.used.Total()
	if rem < 0 {
		return 0
	}
	return rem
}
