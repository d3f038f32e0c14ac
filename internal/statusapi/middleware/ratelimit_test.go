package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRateLimiter_BurstThenThrottle(t *testing.T) {
	rl := NewInMemoryRateLimiter(1)
	defer rl.Close()

	successCount := 0

	for i := 0; i < 3; i++ {
		if rl.Allow("10.0.0.1:1234") {
			successCount++
		}
	}

	assert.Equal(t, 2, successCount)
}

func TestInMemoryRateLimiter_AddressesTrackedIndependently(t *testing.T) {
	rl := NewInMemoryRateLimiter(1)
	defer rl.Close()

	require.True(t, rl.Allow("10.0.0.1:1"))
	require.True(t, rl.Allow("10.0.0.1:1"))
	require.False(t, rl.Allow("10.0.0.1:1"))

	assert.True(t, rl.Allow("10.0.0.2:1"))
}

func TestInMemoryRateLimiter_CleanupRemovesIdleAddresses(t *testing.T) {
	rl := NewInMemoryRateLimiter(1)
	defer rl.Close()

	require.True(t, rl.Allow("10.0.0.1:1"))

	rl.mu.Lock()
	rl.limiters["10.0.0.1:1"].lastAccess = time.Now().Add(-2 * idleTimeout)
	rl.mu.Unlock()

	rl.cleanup()

	rl.mu.Lock()
	_, exists := rl.limiters["10.0.0.1:1"]
	rl.mu.Unlock()

	assert.False(t, exists)
}

func TestRateLimit_NilLimiterIsNoOp(t *testing.T) {
	handler := RateLimit(nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_RejectsOverBudgetRequestWithProblemDetail(t *testing.T) {
	rl := NewInMemoryRateLimiter(1)
	defer rl.Close()

	handler := RateLimit(rl)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "192.0.2.1:5555"

	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, req)
	require.Equal(t, http.StatusOK, rec1.Code)

	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req)

	assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
	assert.Equal(t, "application/problem+json", rec2.Header().Get("Content-Type"))
}
