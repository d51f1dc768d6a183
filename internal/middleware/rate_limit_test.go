package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 5) // 10 per minute, burst of 5
	defer rl.Stop()

	clientIP := "203.0.113.10"

	// First 5 requests should be allowed (burst)
	for i := 0; i < 5; i++ {
		if !rl.Allow(clientIP) {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	// 6th request should be rate limited (exceeded burst)
	if rl.Allow(clientIP) {
		t.Error("Request 6 should be rate limited")
	}
}

func TestRateLimiter_DifferentClients(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 3)
	defer rl.Stop()

	client1 := "203.0.113.10"
	client2 := "203.0.113.20"

	// Exhaust client1's burst
	for i := 0; i < 3; i++ {
		if !rl.Allow(client1) {
			t.Errorf("Client1 request %d should be allowed", i+1)
		}
	}

	// Client1 should be rate limited
	if rl.Allow(client1) {
		t.Error("Client1 should be rate limited")
	}

	// Client2 should still have its full burst
	for i := 0; i < 3; i++ {
		if !rl.Allow(client2) {
			t.Errorf("Client2 request %d should be allowed", i+1)
		}
	}
}

func TestRateLimitMiddleware_AllowsWithinBurst(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(10, 2)
	defer rl.Stop()

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	}

	// First 2 requests should succeed (burst)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/loans", nil)
		req.RemoteAddr = "203.0.113.10:54321"
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := RateLimitMiddleware(rl)(handler)(c)
		if err != nil {
			t.Fatalf("Request %d: Expected no error, got %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("Request %d: Expected status 200, got %d", i+1, rec.Code)
		}
		// Check rate limit headers are present
		if rec.Header().Get("X-RateLimit-Limit") == "" {
			t.Errorf("Request %d: Expected X-RateLimit-Limit header", i+1)
		}
	}

	// 3rd request should be rate limited
	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans", nil)
	req.RemoteAddr = "203.0.113.10:54321"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := RateLimitMiddleware(rl)(handler)(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}
}

func TestRateLimitMiddleware_IsolatesClients(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(10, 1)
	defer rl.Stop()

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	}

	// Exhaust the first client's burst
	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans", nil)
	req.RemoteAddr = "203.0.113.10:54321"
	rec := httptest.NewRecorder()
	if err := RateLimitMiddleware(rl)(handler)(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/loans", nil)
	req.RemoteAddr = "203.0.113.10:54321"
	rec = httptest.NewRecorder()
	if err := RateLimitMiddleware(rl)(handler)(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429 for exhausted client, got %d", rec.Code)
	}

	// A second client should still get through
	req = httptest.NewRequest(http.MethodGet, "/api/v1/loans", nil)
	req.RemoteAddr = "203.0.113.20:54321"
	rec = httptest.NewRecorder()
	if err := RateLimitMiddleware(rl)(handler)(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200 for second client, got %d", rec.Code)
	}
}
