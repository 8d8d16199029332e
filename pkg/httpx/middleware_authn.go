package httpx

import (
	"net/http"
	"strings"

	"github.com/vitrine/identity/pkg/jwtx"
	"github.com/vitrine/identity/pkg/slogx"
)

// AuthnMiddleware verifies the bearer token and injects the authenticated
// identity into the request context.
func AuthnMiddleware(v *jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				WriteFailure(w, http.StatusUnauthorized, "Authentication required.")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.Verify(raw)
			if err != nil {
				log.Warn("bearer token rejected", "err", err)
				WriteFailure(w, http.StatusUnauthorized, "Session is invalid or expired.")
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithAuth(ctx, claims)))
		})
	}
}
