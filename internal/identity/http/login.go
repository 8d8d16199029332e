package http

import (
	"encoding/json"
	"net/http"

	"github.com/vitrine/identity/internal/identity/domain"
	"github.com/vitrine/identity/internal/identity/service"
	"github.com/vitrine/identity/pkg/httpx"
	"github.com/vitrine/identity/pkg/slogx"
)

// LoginHandler handles POST /v1/login.
type LoginHandler struct {
	AuthService *service.AuthService
}

type loginBody struct {
	Type          string `json:"type"`
	Value         string `json:"value"`
	Password      string `json:"password"`
	TwoFactorCode string `json:"two_factor_code,omitempty"`
}

// ServeHTTP authenticates an identifier+password pair. Accounts with a
// second factor get a status:2 envelope naming the pending variant; the
// client re-submits the same request with two_factor_code filled in.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("failed to parse request", "err", err)
		httpx.WriteFailure(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	result, err := h.AuthService.Login(ctx, domain.ParseKind(req.Type), req.Value, req.Password, req.TwoFactorCode)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	if result.Grant == nil {
		// Password accepted, second factor still outstanding.
		httpx.WriteChallenge(w, map[string]any{
			"two_factor_type": string(result.SecondFactor),
		})
		return
	}

	httpx.WriteOK(w, map[string]any{
		"token": result.Grant.Token,
		"data":  result.Grant.User,
	})
}
