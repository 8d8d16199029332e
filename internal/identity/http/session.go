package http

import (
	"net/http"

	"github.com/vitrine/identity/internal/identity/service"
	"github.com/vitrine/identity/pkg/httpx"
	"github.com/vitrine/identity/pkg/slogx"
)

// SessionHandler serves the authenticated session surface.
type SessionHandler struct {
	SessionService *service.SessionService
}

// HandleGet handles GET /v1/session. Returns the profile behind the bearer
// token after checking the session row still exists, so revoked sessions
// fail even while their token is cryptographically valid.
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	sessionID, ok := httpx.SessionIDFromContext(ctx)
	if !ok {
		httpx.WriteFailure(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	_, user, err := h.SessionService.Current(ctx, sessionID)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteOK(w, map[string]any{"data": user.Profile()})
}

// HandleLogout handles POST /v1/logout. Revokes the session row; the bearer
// token is dead from this point regardless of its expiry.
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	sessionID, ok := httpx.SessionIDFromContext(ctx)
	if !ok {
		httpx.WriteFailure(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	if err := h.SessionService.Revoke(ctx, sessionID); err != nil {
		writeServiceError(w, log, err)
		return
	}

	log.Info("session revoked", "session_id", sessionID)
	httpx.WriteOK(w, nil)
}
