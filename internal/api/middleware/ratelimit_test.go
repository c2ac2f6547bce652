package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("key") {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if rl.Allow("key") {
		t.Error("request over the limit should be denied")
	}

	// A different key has its own budget.
	if !rl.Allow("other") {
		t.Error("distinct key should be allowed")
	}
}

func TestRateLimitByIPMiddleware(t *testing.T) {
	rl := NewRateLimiter(2)
	handler := RateLimitByIP(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if do("10.0.0.1:1234") != http.StatusOK {
		t.Error("first request should pass")
	}
	if do("10.0.0.1:1234") != http.StatusOK {
		t.Error("second request should pass")
	}
	if do("10.0.0.1:1234") != http.StatusTooManyRequests {
		t.Error("third request should be rate limited")
	}
	if do("10.0.0.2:1234") != http.StatusOK {
		t.Error("different client should not be limited")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr",
			remoteAddr: "192.168.1.10:4321",
			want:       "192.168.1.10",
		},
		{
			name:       "x-forwarded-for",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7"},
			want:       "203.0.113.7",
		},
		{
			name:       "x-real-ip",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Real-IP": "198.51.100.9"},
			want:       "198.51.100.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
