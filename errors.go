package complyon

import (
	"errors"

	"github.com/complyon/complyon-go/internal/apierrors"
	"github.com/complyon/complyon-go/internal/funnel"
	"github.com/complyon/complyon-go/internal/realtime"
	"github.com/complyon/complyon-go/internal/transport"
)

// ErrBackPressure is returned by SubmitFeedback when the telemetry outbox
// is full. The event is lost; callers may retry later or drop it.
var ErrBackPressure = errors.New("telemetry outbox full")

// Sentinels re-exported from the internal packages so callers never import
// internal paths.
var (
	// ErrNoToken means an authenticated call was made before Login.
	ErrNoToken = transport.ErrNoToken
	// ErrNotConnected means Send was called on a disconnected realtime
	// channel; fall back to SendMessage.
	ErrNotConnected = realtime.ErrNotConnected
	// ErrNoSession means a funnel operation ran before CaptureLead.
	ErrNoSession = funnel.ErrNoSession
	// ErrSessionExpired means the anonymous funnel session has lapsed and
	// the user must restart or register.
	ErrSessionExpired = funnel.ErrSessionExpired
)

// IsAuthError reports whether err is an authentication failure: the session
// could not be established or refreshed and the user must log in again.
func IsAuthError(err error) bool { return apierrors.IsAuth(err) }

// IsValidationError reports whether err was rejected client-side before any
// network traffic.
func IsValidationError(err error) bool { return apierrors.IsValidation(err) }

// IsRetryable reports whether err is transient: retrying the same call
// later may succeed.
func IsRetryable(err error) bool { return apierrors.Retryable(err) }

// ErrorDetail extracts the backend's human-readable detail message from an
// API error, or "" when none was supplied.
func ErrorDetail(err error) string {
	var cls *apierrors.Classified
	if errors.As(err, &cls) {
		return cls.ServerDetail
	}
	return ""
}
