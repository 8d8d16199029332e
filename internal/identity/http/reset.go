package http

import (
	"encoding/json"
	"net/http"

	"github.com/vitrine/identity/internal/identity/domain"
	"github.com/vitrine/identity/internal/identity/service"
	"github.com/vitrine/identity/pkg/httpx"
	"github.com/vitrine/identity/pkg/slogx"
)

// ResetPasswordHandler handles POST /v1/password/reset.
type ResetPasswordHandler struct {
	AuthService *service.AuthService
}

type resetPasswordBody struct {
	Identifier     string `json:"identifier"`
	IdentifierType string `json:"identifier_type"`
	Password       string `json:"password"`
	TempToken      string `json:"temp_token"`
}

// ServeHTTP replaces the password behind a verified identifier. The temp
// token from /v1/otp/verify is mandatory and spent here, so the
// request-verify-reset chain cannot be entered partway.
func (h *ResetPasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req resetPasswordBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("failed to parse request", "err", err)
		httpx.WriteFailure(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	err := h.AuthService.ResetPassword(ctx, domain.ParseKind(req.IdentifierType), req.Identifier, req.Password, req.TempToken)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteOK(w, nil)
}
