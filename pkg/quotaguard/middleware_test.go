package quotaguard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("success"))
	})
}

func TestMiddleware_AllowedRequest(t *testing.T) {
	cfg := NewConfig()
	cfg.Defaults = RuleConfig{Capacity: 5, Window: "1m", Enabled: true}

	limiter := newTestLimiter(t, WithConfig(cfg))
	handler := limiter.Middleware(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status code = %d, want %d", rr.Code, http.StatusOK)
	}
	if rr.Header().Get("X-RateLimit-Limit") != "5" {
		t.Errorf("X-RateLimit-Limit = %s, want 5", rr.Header().Get("X-RateLimit-Limit"))
	}
	if rr.Header().Get("X-RateLimit-Remaining") != "4" {
		t.Errorf("X-RateLimit-Remaining = %s, want 4", rr.Header().Get("X-RateLimit-Remaining"))
	}
	if rr.Body.String() != "success" {
		t.Errorf("body = %s, want success", rr.Body.String())
	}
}

func TestMiddleware_RateLimited(t *testing.T) {
	cfg := NewConfig()
	cfg.Defaults = RuleConfig{Capacity: 3, Window: "1m", Enabled: true}

	limiter := newTestLimiter(t, WithConfig(cfg))
	handler := limiter.Middleware(okHandler())

	// First 3 requests should succeed
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("request %d: status code = %d, want %d", i+1, rr.Code, http.StatusOK)
		}
	}

	// 4th request should be rate limited
	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusTooManyRequests)
	}

	retryAfter := rr.Header().Get("Retry-After")
	if retryAfter == "" {
		t.Error("Retry-After header not set")
	} else if secs, err := strconv.Atoi(retryAfter); err != nil || secs < 1 {
		t.Errorf("Retry-After = %q, want a positive integer", retryAfter)
	}
	if rr.Header().Get("X-RateLimit-Reset") == "" {
		t.Error("X-RateLimit-Reset header not set")
	}

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("deny body is not JSON: %v", err)
	}
	if body["error"] != "rate_limit_exceeded" {
		t.Errorf("error = %q, want rate_limit_exceeded", body["error"])
	}
	if body["message"] != "Request rate limit exceeded" {
		t.Errorf("message = %q", body["message"])
	}
}

func TestMiddleware_PerRouteRules(t *testing.T) {
	cfg := NewConfig()
	cfg.Defaults = RuleConfig{Capacity: 100, Window: "1m", Enabled: true}
	cfg.Rules["/api/login"] = RuleConfig{Capacity: 1, Window: "1m", Enabled: true}

	limiter := newTestLimiter(t, WithConfig(cfg))
	handler := limiter.Middleware(okHandler())

	send := func(path string) int {
		req := httptest.NewRequest("GET", path, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := send("/api/login"); code != http.StatusOK {
		t.Fatalf("first login: status = %d", code)
	}
	if code := send("/api/login"); code != http.StatusTooManyRequests {
		t.Errorf("second login: status = %d, want 429", code)
	}

	// Distinct routes are fully independent.
	if code := send("/api/search"); code != http.StatusOK {
		t.Errorf("search blocked by login's limit: status = %d", code)
	}
}

func TestMiddleware_DisabledRoute(t *testing.T) {
	cfg := NewConfig()
	cfg.Rules["/health"] = RuleConfig{Capacity: 1, Window: "1m", Enabled: false}

	limiter := newTestLimiter(t, WithConfig(cfg))
	handler := limiter.Middleware(okHandler())

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest("GET", "/health", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d on disabled route: status = %d", i+1, rr.Code)
		}
	}
}

func TestMiddleware_RouteExtractor(t *testing.T) {
	cfg := NewConfig()
	cfg.Rules["/users"] = RuleConfig{Capacity: 1, Window: "1m", Enabled: true}

	// Collapse /users/<id> onto one resource key.
	limiter := newTestLimiter(t,
		WithConfig(cfg),
		WithRouteExtractor(func(path string) string {
			if len(path) > len("/users") && path[:len("/users")] == "/users" {
				return "/users"
			}
			return path
		}),
	)
	handler := limiter.Middleware(okHandler())

	req := httptest.NewRequest("GET", "/users/42", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("first request: status = %d", rr.Code)
	}

	req = httptest.NewRequest("GET", "/users/43", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("second request: status = %d, want 429 (shared resource key)", rr.Code)
	}
}

func TestMiddleware_FailOpenKeepsServing(t *testing.T) {
	limiter := newTestLimiter(t, WithStore(&failingStore{}))
	handler := limiter.Middleware(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 under fail-open", rr.Code)
	}
	// Degraded-store verdicts carry no counter headers.
	if rr.Header().Get("X-RateLimit-Remaining") != "" {
		t.Error("X-RateLimit-Remaining set on a fallback verdict")
	}
}

func TestMiddleware_FailClosedRejects(t *testing.T) {
	limiter := newTestLimiter(t, WithStore(&failingStore{}), WithFallback(FailClosed))
	handler := limiter.Middleware(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429 under fail-closed", rr.Code)
	}
}
