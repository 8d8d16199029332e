package identitysdk

import (
	"errors"
	"fmt"
	"time"
)

// ErrOperationPending is returned when a Flow method is called while a
// previous network operation is still in flight.
var ErrOperationPending = errors.New("identitysdk: an operation is already pending for this flow")

// ErrStaleResponse is returned when a network operation completed after the
// flow it belonged to was reset; its result was discarded.
var ErrStaleResponse = errors.New("identitysdk: flow was reset while the operation was in flight")

// ErrLedgerIncomplete is returned by Flow.Register when a submitted channel
// has no valid proof.
var ErrLedgerIncomplete = errors.New("identitysdk: verification incomplete for a submitted channel")

// APIError is a status:0 envelope from the service.
type APIError struct {
	StatusCode int    // HTTP status
	Message    string // user-facing message from the envelope
}

func (e *APIError) Error() string {
	return fmt.Sprintf("identity service: %s (HTTP %d)", e.Message, e.StatusCode)
}

// RateLimitedError reports a violated resend cooldown and how long to wait.
type RateLimitedError struct {
	RetryIn time.Duration
	Message string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("identity service: rate limited, retry in %s", e.RetryIn)
}

// SecondFactorRequiredError is the login branch where the password was
// accepted but a second factor must be satisfied before a session is
// issued. It is a control-flow signal, not a terminal failure.
type SecondFactorRequiredError struct {
	Type string // "otp" or "authenticator"
}

func (e *SecondFactorRequiredError) Error() string {
	return fmt.Sprintf("identity service: second factor required (%s)", e.Type)
}
