package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestLineBudgetEnforcesBurst verifies that exactly burst lines pass within
// one window and the rest are refused.
func TestLineBudgetEnforcesBurst(t *testing.T) {
	budget := newLineBudget(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, budget.allowLine(), "line %d should fit the budget", i+1)
	}
	assert.False(t, budget.allowLine(), "line past the burst should be refused")
	assert.False(t, budget.allowLine(), "budget should stay exhausted within the window")
}

// TestLineBudgetResetsAfterWindow verifies that a fresh window restores the
// full burst.
func TestLineBudgetResetsAfterWindow(t *testing.T) {
	budget := newLineBudget(2, 50*time.Millisecond)

	assert.True(t, budget.allowLine())
	assert.True(t, budget.allowLine())
	assert.False(t, budget.allowLine())

	time.Sleep(60 * time.Millisecond)

	assert.True(t, budget.allowLine(), "new window should restore the budget")
	assert.True(t, budget.allowLine())
	assert.False(t, budget.allowLine())
}

// TestLineBudgetDisabled verifies that a non-positive burst yields a nil
// budget that allows everything.
func TestLineBudgetDisabled(t *testing.T) {
	for _, burst := range []int{0, -1} {
		budget := newLineBudget(burst, time.Second)
		assert.Nil(t, budget)
		for i := 0; i < 100; i++ {
			assert.True(t, budget.allowLine())
		}
	}
}
