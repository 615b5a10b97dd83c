// Package apierrors provides the closed error taxonomy shared by every
// layer of the SDK. Each failure is classified into exactly one category;
// retry policy and user-facing handling key off the category rather than
// runtime shape-sniffing of the underlying error.
package apierrors

import (
	"errors"
	"fmt"
)

// Category classifies a failure for propagation and retry policy.
type Category int

const (
	// CategoryValidation: local pre-flight check failed; no network call
	// was made and none should be.
	CategoryValidation Category = iota

	// CategoryAuth: 401 or expired session after the one allowed
	// refresh-and-replay cycle. Fatal for the session.
	CategoryAuth

	// CategoryNetwork: no response at all (dial failure, timeout, reset).
	CategoryNetwork

	// CategoryHTTP: the server responded with a non-2xx status.
	CategoryHTTP

	// CategoryMalformed: the response arrived but failed shape validation.
	CategoryMalformed
)

// String returns a human-readable representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryValidation:
		return "validation"
	case CategoryAuth:
		return "auth"
	case CategoryNetwork:
		return "network"
	case CategoryHTTP:
		return "http"
	case CategoryMalformed:
		return "malformed-response"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// Classified wraps an error with its category and the normalized failure
// shape every caller sees: status, message, optional server detail.
type Classified struct {
	Category     Category
	Status       int    // HTTP status (0 for non-HTTP failures)
	Message      string // operation-level description
	ServerDetail string // body "detail" field, when the server sent one
	Underlying   error
}

// Error implements the error interface.
func (e *Classified) Error() string {
	switch {
	case e.Status > 0 && e.ServerDetail != "":
		return fmt.Sprintf("[%s] %s: HTTP %d: %s", e.Category, e.Message, e.Status, e.ServerDetail)
	case e.Status > 0:
		return fmt.Sprintf("[%s] %s: HTTP %d", e.Category, e.Message, e.Status)
	case e.Underlying != nil:
		return fmt.Sprintf("[%s] %s: %v", e.Category, e.Message, e.Underlying)
	default:
		return fmt.Sprintf("[%s] %s", e.Category, e.Message)
	}
}

// Unwrap returns the underlying error for error chain compatibility.
func (e *Classified) Unwrap() error { return e.Underlying }

// Retryable reports whether the failure may succeed on a later attempt.
// Network failures and 408/429/5xx responses are retryable; validation,
// auth, malformed-response and remaining 4xx failures are not.
func (e *Classified) Retryable() bool {
	switch e.Category {
	case CategoryNetwork:
		return true
	case CategoryHTTP:
		switch {
		case e.Status == 408, e.Status == 429:
			return true
		case e.Status >= 500 && e.Status < 600:
			return true
		default:
			return false
		}
	default:
		return false
	}
}

// Validation builds a CategoryValidation error from a local check failure.
func Validation(err error) *Classified {
	return &Classified{Category: CategoryValidation, Message: "invalid input", Underlying: err}
}

// Auth builds a fatal-for-session auth error.
func Auth(op string, status int, detail string) *Classified {
	return &Classified{
		Category:     CategoryAuth,
		Status:       status,
		Message:      op,
		ServerDetail: detail,
		Underlying:   fmt.Errorf("%s: authentication failed", op),
	}
}

// Network builds a no-response error.
func Network(op string, err error) *Classified {
	return &Classified{
		Category:   CategoryNetwork,
		Message:    op,
		Underlying: fmt.Errorf("%s: %w", op, err),
	}
}

// HTTP builds an error for a non-2xx response. 401s are promoted to
// CategoryAuth so callers can match on category alone.
func HTTP(op string, status int, detail string) *Classified {
	if status == 401 {
		return Auth(op, status, detail)
	}
	return &Classified{
		Category:     CategoryHTTP,
		Status:       status,
		Message:      op,
		ServerDetail: detail,
		Underlying:   fmt.Errorf("%s failed: HTTP %d", op, status),
	}
}

// Malformed builds an error for a response that failed shape validation.
func Malformed(op string, err error) *Classified {
	return &Classified{
		Category:   CategoryMalformed,
		Message:    op,
		Underlying: fmt.Errorf("%s: malformed response: %w", op, err),
	}
}

// Retryable reports whether err may succeed on a later attempt. Errors
// outside the taxonomy are treated as non-retryable.
func Retryable(err error) bool {
	var c *Classified
	if errors.As(err, &c) {
		return c.Retryable()
	}
	return false
}

// IsCategory reports whether err carries the given category.
func IsCategory(err error, cat Category) bool {
	var c *Classified
	if errors.As(err, &c) {
		return c.Category == cat
	}
	return false
}

// IsAuth reports whether err is fatal for the session.
func IsAuth(err error) bool { return IsCategory(err, CategoryAuth) }

// IsValidation reports whether err failed a local pre-flight check.
func IsValidation(err error) bool { return IsCategory(err, CategoryValidation) }
