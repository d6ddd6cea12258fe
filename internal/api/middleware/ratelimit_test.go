package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionIDFromPath(t *testing.T) {
	assert.Equal(t, "s1", sessionIDFromPath("/v1/sessions/s1/turns"))
	assert.Equal(t, "s1", sessionIDFromPath("/v1/sessions/s1"))
	assert.Equal(t, "", sessionIDFromPath("/v1/cases/abc"))
	assert.Equal(t, "", sessionIDFromPath("/health"))
}

func TestRateLimit_KeyedBySessionThenIP(t *testing.T) {
	// A refill rate near zero makes the burst the whole budget.
	handler := RateLimit(0.001, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(path, ip string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("X-Real-IP", ip)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// Turns count against the session, so switching addresses doesn't
	// reset the budget.
	require.Equal(t, http.StatusOK, do("/v1/sessions/s1/turns", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("/v1/sessions/s1/turns", "10.0.0.2"))

	// An unrelated session behind the first address is unaffected.
	assert.Equal(t, http.StatusOK, do("/v1/sessions/s2/turns", "10.0.0.1"))

	// Non-session routes fall back to per-IP buckets.
	require.Equal(t, http.StatusOK, do("/health", "10.0.0.3"))
	assert.Equal(t, http.StatusTooManyRequests, do("/health", "10.0.0.3"))
	assert.Equal(t, http.StatusOK, do("/health", "10.0.0.4"))
}
