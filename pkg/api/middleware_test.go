package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGlobalRateLimiter_SweepDropsStaleVisitors(t *testing.T) {
	rl := NewGlobalRateLimiter(1, 1)
	defer rl.Close()

	rl.getVisitor("10.0.0.1")
	rl.getVisitor("10.0.0.2")

	rl.mu.Lock()
	rl.visitors["10.0.0.1"].lastSeen = time.Now().Add(-10 * time.Minute)
	rl.mu.Unlock()

	rl.sweep(3 * time.Minute)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.visitors, "10.0.0.1")
	assert.Contains(t, rl.visitors, "10.0.0.2")
}

func TestGlobalRateLimiter_CloseStopsCleanup(t *testing.T) {
	rl := NewGlobalRateLimiter(1, 1)
	rl.Close()

	select {
	case <-rl.done:
	default:
		t.Fatal("done channel still open after Close")
	}

	// The limiter itself keeps working after Close.
	assert.True(t, rl.getVisitor("10.0.0.9").Allow())
}
