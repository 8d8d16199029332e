package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vitrine/identity/internal/identity/service"
	"github.com/vitrine/identity/pkg/httpx"
)

// User-facing failure messages. Credential and code failures stay generic so
// responses never reveal whether an identifier is registered.
const (
	msgInvalidBody        = "Invalid request body."
	msgInvalidIdentifier  = "Enter a valid email address or mobile number."
	msgCodeExpired        = "That code has expired. Please request a new one."
	msgCodeMismatch       = "Incorrect verification code."
	msgAttemptsExhausted  = "Too many incorrect attempts. Please request a new code."
	msgChannelUnavailable = "We could not send the code right now. Please try again shortly."
	msgInvalidCredentials = "The details you entered are incorrect."
	msgDuplicate          = "An account with these details already exists."
	msgInvalidTempToken   = "Verification has expired. Please verify again."
	msgServerError        = "Something went wrong. Please try again."
)

// writeServiceError maps service-layer errors onto the response envelope.
// Unexpected errors are logged and masked with a generic message.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	var validation *service.ValidationError
	if errors.As(err, &validation) {
		httpx.WriteFailure(w, http.StatusBadRequest, validation.Msg)
		return
	}

	var limited *service.RateLimitedError
	if errors.As(err, &limited) {
		retryIn := max(int(limited.RetryIn.Seconds()), 1)
		httpx.WriteJSON(w, http.StatusTooManyRequests, httpx.Envelope{
			Status:  httpx.StatusFailure,
			Message: msgCodeRateLimited(retryIn),
			Extra:   map[string]any{"retry_in": retryIn},
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidIdentifier):
		httpx.WriteFailure(w, http.StatusBadRequest, msgInvalidIdentifier)
	case errors.Is(err, service.ErrCodeExpired):
		httpx.WriteFailure(w, http.StatusBadRequest, msgCodeExpired)
	case errors.Is(err, service.ErrCodeMismatch):
		httpx.WriteFailure(w, http.StatusBadRequest, msgCodeMismatch)
	case errors.Is(err, service.ErrAttemptsExhausted):
		httpx.WriteFailure(w, http.StatusBadRequest, msgAttemptsExhausted)
	case errors.Is(err, service.ErrChannelUnavailable):
		httpx.WriteFailure(w, http.StatusServiceUnavailable, msgChannelUnavailable)
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteFailure(w, http.StatusUnauthorized, msgInvalidCredentials)
	case errors.Is(err, service.ErrDuplicateIdentifier):
		httpx.WriteFailure(w, http.StatusConflict, msgDuplicate)
	case errors.Is(err, service.ErrInvalidTempToken):
		httpx.WriteFailure(w, http.StatusBadRequest, msgInvalidTempToken)
	case errors.Is(err, service.ErrSessionInvalid):
		httpx.WriteFailure(w, http.StatusUnauthorized, "Session is invalid or expired.")
	default:
		log.Error("unhandled service error", "err", err)
		httpx.WriteFailure(w, http.StatusInternalServerError, msgServerError)
	}
}

func msgCodeRateLimited(seconds int) string {
	if seconds == 1 {
		return "Please wait 1 second before requesting another code."
	}
	return fmt.Sprintf("Please wait %d seconds before requesting another code.", seconds)
}
