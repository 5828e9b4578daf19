package graphqlpipeline

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBudgetTrackerConsumeUntilExhausted(t *testing.T) {
	budget := NewBudgetTracker(2)

	assert.True(t, budget.Available())
	assert.True(t, budget.Consume())
	assert.True(t, budget.Consume())

	assert.False(t, budget.Available())
	assert.False(t, budget.Consume())

	used, max := budget.Status()
	assert.Equal(t, 2, used)
	assert.Equal(t, 2, max)
}

func TestBudgetTrackerUnlimitedWhenMaxNonPositive(t *testing.T) {
	budget := NewBudgetTracker(0)
	for i := 0; i < 100; i++ {
		assert.True(t, budget.Consume())
	}
	assert.True(t, budget.Available())
}

func TestBudgetTrackerConcurrentConsumeNeverOvershoots(t *testing.T) {
	budget := NewBudgetTracker(10)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			budget.Consume()
		}()
	}
	wg.Wait()

	used, _ := budget.Status()
	assert.Equal(t, 10, used)
}
