package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimitMiddleware_PerWallet(t *testing.T) {
	handler := RateLimitMiddleware(NewRateLimiter(1))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(wallet string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/contacts", nil)
		req.Header.Set("X-Wallet-Address", wallet)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 10; i++ {
		if code := send("0xAA"); code != http.StatusOK {
			t.Fatalf("request %d within burst: expected 200, got %d", i, code)
		}
	}
	if code := send("0xaa"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once the burst is spent, got %d", code)
	}
	if code := send("0xBB"); code != http.StatusOK {
		t.Fatalf("other wallets keep their own budget, got %d", code)
	}
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	handler := RateLimitMiddleware(NewRateLimiter(0))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 100; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
}
