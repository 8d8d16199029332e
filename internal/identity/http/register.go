package http

import (
	"encoding/json"
	"net/http"

	"github.com/vitrine/identity/internal/identity/domain"
	"github.com/vitrine/identity/internal/identity/service"
	"github.com/vitrine/identity/pkg/httpx"
	"github.com/vitrine/identity/pkg/slogx"
)

// RegisterHandler handles POST /v1/register.
type RegisterHandler struct {
	AuthService *service.AuthService
}

type registerBody struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email,omitempty"`
	Mobile       string `json:"mobile"`
	Password     string `json:"password"`
	ReferralCode string `json:"referral_code,omitempty"`
	Role         string `json:"role,omitempty"`

	MobileProof string `json:"mobile_proof"`
	EmailProof  string `json:"email_proof,omitempty"`
}

// ServeHTTP creates an account. Every submitted channel must carry a live
// verification token from /v1/otp/verify bound to the submitted value;
// editing a field after verifying it invalidates the proof.
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("failed to parse request", "err", err)
		httpx.WriteFailure(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	profile, err := h.AuthService.Register(ctx, service.RegisterParams{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Mobile:       req.Mobile,
		Password:     req.Password,
		ReferralCode: req.ReferralCode,
		Role:         domain.ParseRole(req.Role),
		MobileProof:  req.MobileProof,
		EmailProof:   req.EmailProof,
	})
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	log.Info("user registered", "user_id", profile.ID, "role", profile.Role)
	httpx.WriteOK(w, map[string]any{"data": profile})
}
