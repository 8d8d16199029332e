package http

import (
	"encoding/json"
	"net/http"

	"github.com/vitrine/identity/internal/identity/domain"
	"github.com/vitrine/identity/internal/identity/service"
	"github.com/vitrine/identity/pkg/httpx"
	"github.com/vitrine/identity/pkg/slogx"
)

// OTPHandler handles code dispatch and verification.
type OTPHandler struct {
	OTPService *service.OTPService
}

type otpRequestBody struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// HandleRequest handles POST /v1/otp/request. Dispatches a one-time code to
// the classified identifier, superseding any active challenge for the same
// channel and target.
func (h *OTPHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req otpRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("failed to parse request", "err", err)
		httpx.WriteFailure(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	receipt, err := h.OTPService.RequestCode(ctx, domain.ParseKind(req.Type), req.Value)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteOK(w, map[string]any{
		"otp_expiry": receipt.ExpiresAt.Unix(),
		"resend_in":  int(receipt.ResendIn.Seconds()),
	})
}

type otpVerifyBody struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	OTP   string `json:"otp"`
}

// HandleVerify handles POST /v1/otp/verify. A correct code spends the
// challenge and mints a single-use verification token bound to the
// identifier; the token is what register and password-reset accept as proof.
func (h *OTPHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req otpVerifyBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("failed to parse request", "err", err)
		httpx.WriteFailure(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	token, err := h.OTPService.VerifyCode(ctx, domain.ParseKind(req.Type), req.Value, req.OTP)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteOK(w, map[string]any{"token": token})
}
