package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/vitrine/identity/internal/identity/service"
	"github.com/vitrine/identity/internal/identity/store"
	"github.com/vitrine/identity/pkg/httpx"
	"github.com/vitrine/identity/pkg/jwtx"
	"github.com/vitrine/identity/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     *jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store          store.Store
	OTPService     *service.OTPService
	AuthService    *service.AuthService
	SessionService *service.SessionService
}

func NewRouter(
	verifier *jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// handle registers h at path restricted to the given method, matching the
// behaviour of Go 1.22 "METHOD /path" mux patterns on older toolchains.
func (r *Router) handle(method, path string, h http.Handler) {
	r.Mux.Handle(path, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.Header().Set("Allow", method)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		h.ServeHTTP(w, req)
	}))
}

func (r *Router) ApplyRoutes() {
	r.registerOTP()
	r.registerAuth()
	r.registerSession()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerOTP() {
	h := &OTPHandler{OTPService: r.OTPService}

	// POST /otp/request - strict rate limit (dispatches email/SMS, prime
	// target for code farming)
	r.handle("POST", "/v1/otp/request",
		httpx.Chain(http.HandlerFunc(h.HandleRequest),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /otp/verify - moderate rate limit; brute force is already
	// bounded by the per-challenge attempt budget
	r.handle("POST", "/v1/otp/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAuth() {
	loginHandler := &LoginHandler{AuthService: r.AuthService}
	registerHandler := &RegisterHandler{AuthService: r.AuthService}
	resetHandler := &ResetPasswordHandler{AuthService: r.AuthService}

	// POST /login - strict rate limit by IP (credential guessing)
	r.handle("POST", "/v1/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /register - strict rate limit by IP (public signup endpoint)
	r.handle("POST", "/v1/register",
		httpx.Chain(registerHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /password/reset - strict rate limit by IP
	r.handle("POST", "/v1/password/reset",
		httpx.Chain(resetHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSession() {
	h := &SessionHandler{SessionService: r.SessionService}

	// GET /session - authenticated read, lenient limit
	securedRead := httpx.Chain(http.HandlerFunc(h.HandleGet),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByIP(httpx.LenientLimit),
	)

	// POST /logout - authenticated, moderate limit
	securedLogout := httpx.Chain(http.HandlerFunc(h.HandleLogout),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByIP(httpx.ModerateLimit),
	)

	r.handle("GET", "/v1/session", securedRead)
	r.handle("POST", "/v1/logout", securedLogout)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may
	// poll frequently)
	r.handle("GET", "/livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.handle("GET", "/readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
