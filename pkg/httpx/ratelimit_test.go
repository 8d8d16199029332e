package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimitByIP(t *testing.T) {
	t.Parallel()

	limited := Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
		RateLimitByIP(RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}),
	)

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, do("10.0.0.1:4000"))
	require.Equal(t, http.StatusOK, do("10.0.0.1:4000"))
	require.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:4000"))

	// A different caller has its own bucket.
	require.Equal(t, http.StatusOK, do("10.0.0.2:4000"))
}

func TestClientIPHeaders(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.9:1234"
	require.Equal(t, "192.0.2.9", ClientIP(req))

	req.Header.Set("X-Real-IP", "203.0.113.5")
	require.Equal(t, "203.0.113.5", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	require.Equal(t, "198.51.100.7", ClientIP(req))
}
