package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

var (
	// ErrQuotaExceeded marks an upstream rate-limit/quota rejection.
	// The caller-facing remediation is "wait and retry later"; the client
	// never retries these in-process.
	ErrQuotaExceeded = errors.New("generation quota exceeded")

	// ErrUnavailable marks a transient upstream failure. The caller may
	// retry immediately.
	ErrUnavailable = errors.New("generation service unavailable")
)

// quota and unavailable substrings cover providers whose errors arrive as
// bare strings rather than structured API errors.
var (
	quotaMarkers       = []string{"rate limit", "quota", "resource_exhausted", "resource exhausted", "429", "too many requests"}
	unavailableMarkers = []string{"unavailable", "overloaded", "500", "502", "503", "504", "internal server error", "deadline exceeded", "connection reset"}
)

// Classify wraps an upstream generation/embedding error with the matching
// taxonomy sentinel. It inspects the structured status code first and falls
// back to substring matching, since provider errors are not uniformly
// shaped. Errors that fit neither category pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		case http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	if containsAny(err.Error(), quotaMarkers...) {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	if containsAny(err.Error(), unavailableMarkers...) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return err
}

// retryable reports whether a classified error is worth retrying
// in-process. Quota failures are explicitly excluded: the remediation is
// waiting, and silently retrying would burn the caller's remaining budget.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return false
	}
	return errors.Is(err, ErrUnavailable) ||
		containsAny(err.Error(), "timeout", "temporary", "connection refused")
}

// containsAny checks if s contains any of the substrings (case-insensitive).
func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
