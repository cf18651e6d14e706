package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/yourusername/quotaguard/core"
	"github.com/yourusername/quotaguard/pkg/quotaguard"
)

// Limiter is the slice of the rate limiter the check endpoint needs.
type Limiter interface {
	Allow(ctx context.Context, resource string) (*quotaguard.Decision, error)
	AllowWithRule(ctx context.Context, resource string, rule core.Rule) (*quotaguard.Decision, error)
}

// Handler handles rate limit check requests
type Handler struct {
	limiter Limiter
}

// NewHandler creates a new API handler
func NewHandler(limiter Limiter) *Handler {
	return &Handler{limiter: limiter}
}

// CheckRequest represents the incoming rate limit check request
type CheckRequest struct {
	Resource string `json:"resource"`            // Required: resource key (e.g. route path)
	Capacity *int64 `json:"capacity,omitempty"`  // Optional: override the registered capacity
	WindowMs *int64 `json:"window_ms,omitempty"` // Optional: override the registered window
}

// CheckResponse represents the rate limit check response
type CheckResponse struct {
	Allowed      bool  `json:"allowed"`                  // Whether the request is admitted
	Count        int64 `json:"count,omitempty"`          // Post-increment count in the window
	Limit        int64 `json:"limit"`                    // Rule capacity
	Remaining    int64 `json:"remaining"`                // Requests still admissible
	RetryAfterMs int64 `json:"retry_after_ms,omitempty"` // Milliseconds until a fresh window (if denied)
	ResetAt      int64 `json:"reset_at,omitempty"`       // Unix timestamp when the window closes
	Fallback     bool  `json:"fallback,omitempty"`       // True when the store was down and policy decided
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CheckRateLimit handles POST /check requests
func (h *Handler) CheckRateLimit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only POST requests are allowed")
		return
	}

	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	if req.Resource == "" {
		h.sendError(w, http.StatusBadRequest, "missing_resource", "resource is required")
		return
	}

	var (
		decision *quotaguard.Decision
		err      error
	)

	// An explicit capacity/window pair overrides the registered rule; it is
	// validated here, once, before evaluation.
	if req.Capacity != nil || req.WindowMs != nil {
		if req.Capacity == nil || req.WindowMs == nil {
			h.sendError(w, http.StatusBadRequest, "invalid_rule", "capacity and window_ms must be provided together")
			return
		}
		rule, ruleErr := core.NewRule(*req.Capacity, time.Duration(*req.WindowMs)*time.Millisecond)
		if ruleErr != nil {
			h.sendError(w, http.StatusBadRequest, "invalid_rule", ruleErr.Error())
			return
		}
		decision, err = h.limiter.AllowWithRule(r.Context(), req.Resource, rule)
	} else {
		decision, err = h.limiter.Allow(r.Context(), req.Resource)
	}
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	response := CheckResponse{
		Allowed:      decision.Allowed,
		Count:        decision.Count,
		Limit:        decision.Limit,
		Remaining:    decision.Remaining,
		RetryAfterMs: decision.RetryAfter.Milliseconds(),
		Fallback:     decision.Fallback,
	}
	if !decision.ResetAt.IsZero() {
		response.ResetAt = decision.ResetAt.Unix()
	}

	statusCode := http.StatusOK
	if !decision.Allowed {
		statusCode = http.StatusTooManyRequests
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

func (h *Handler) sendError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}
