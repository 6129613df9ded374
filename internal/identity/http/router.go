package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/lorikeetchat/lorikeet/internal/identity/service"
	"github.com/lorikeetchat/lorikeet/internal/identity/store"
	"github.com/lorikeetchat/lorikeet/pkg/httpx"
	"github.com/lorikeetchat/lorikeet/pkg/jwtx"
	"github.com/lorikeetchat/lorikeet/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	signer       jwtx.Signer
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store   store.Store
	cookies *httpx.CookieWriter
	guard   httpx.GuardConfig

	internalToken string
	fallbackPath  string

	TokenService   *service.TokenService
	SessionService *service.SessionService
	SSOService     *service.SSOService
}

func NewRouter(
	signer jwtx.Signer,
	buildVersion string,
	st store.Store,
	cookies *httpx.CookieWriter,
	guard httpx.GuardConfig,
	internalToken, fallbackPath string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:           http.NewServeMux(),
		signer:        signer,
		buildVersion:  buildVersion,
		startTime:     time.Now(),
		store:         st,
		cookies:       cookies,
		guard:         guard,
		internalToken: internalToken,
		fallbackPath:  fallbackPath,
		logger:        logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Guard(guard, r.authenticate),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSession()
	r.registerSSO()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware
// chain: request logging outermost, then the route guard.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// authenticate is the guard's probe: a live access cookie bound to this
// device, and when a sid rides along its session record must be usable
// too.
func (r *Router) authenticate(req *http.Request) bool {
	raw, ok := httpx.CookieValue(req, httpx.CookieSession)
	if !ok {
		return false
	}
	fingerprint := httpx.RequestFingerprint(req)
	if _, err := r.TokenService.VerifyAccess(req.Context(), raw, fingerprint); err != nil {
		return false
	}
	if sid, ok := httpx.CookieValue(req, httpx.CookieSID); ok {
		if _, err := r.SessionService.Validate(req.Context(), sid, fingerprint); err != nil {
			return false
		}
	}
	return true
}

func (r *Router) registerSession() {
	mintHandler := &MintHandler{
		TokenService:   r.TokenService,
		SessionService: r.SessionService,
		InternalToken:  r.internalToken,
		Cookies:        r.cookies,
	}
	r.Mux.Handle("POST /v1/session/mint",
		httpx.Chain(mintHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// Refresh attempts come from anyone holding a stolen cookie, so the
	// strict profile applies.
	refreshHandler := &RefreshHandler{TokenService: r.TokenService, Cookies: r.cookies}
	r.Mux.Handle("POST /v1/session/refresh",
		httpx.Chain(refreshHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	verifyHandler := &VerifyHandler{SessionService: r.SessionService}
	r.Mux.Handle("GET /v1/session/verify",
		httpx.Chain(verifyHandler,
			httpx.RequireAccess(r.TokenService.Verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	logoutHandler := &LogoutHandler{
		TokenService:   r.TokenService,
		SessionService: r.SessionService,
		Cookies:        r.cookies,
	}
	r.Mux.Handle("DELETE /v1/session",
		httpx.Chain(logoutHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSSO() {
	issueHandler := &SSOIssueHandler{SSOService: r.SSOService}
	r.Mux.Handle("GET /v1/sso/issue",
		httpx.Chain(issueHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	redeemHandler := &SSORedeemHandler{
		SSOService:     r.SSOService,
		SessionService: r.SessionService,
		Cookies:        r.cookies,
		LandingPath:    r.guard.LandingPath,
		FallbackPath:   r.fallbackPath,
		PublicRoot:     r.guard.PublicRoot,
	}
	r.Mux.Handle("GET /v1/sso/redeem",
		httpx.Chain(redeemHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.signer),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
