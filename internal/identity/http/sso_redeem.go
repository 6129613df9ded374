package http

import (
	"errors"
	"net"
	"net/http"

	"github.com/lorikeetchat/lorikeet/internal/identity/service"
	"github.com/lorikeetchat/lorikeet/pkg/httpx"
	"github.com/lorikeetchat/lorikeet/pkg/slogx"
)

// SSORedeemHandler serves GET /v1/sso/redeem on the target domain. A
// good ticket becomes a local cookie session and the browser continues
// to `next`. A ticket opened on the wrong device goes to the fallback
// path so the UI can explain; anything else lands on the public root.
type SSORedeemHandler struct {
	SSOService     *service.SSOService
	SessionService *service.SessionService
	Cookies        *httpx.CookieWriter

	LandingPath  string
	FallbackPath string
	PublicRoot   string
}

func (h *SSORedeemHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	fingerprint := httpx.RequestFingerprint(r)

	ticket := r.URL.Query().Get("ticket")
	if ticket == "" {
		http.Redirect(w, r, h.PublicRoot, http.StatusFound)
		return
	}

	access, identity, err := h.SSOService.RedeemTicket(ctx, ticket, fingerprint, requestHostname(r))
	if err != nil {
		if errors.Is(err, service.ErrFingerprintMismatch) {
			http.Redirect(w, r, h.FallbackPath, http.StatusFound)
			return
		}
		http.Redirect(w, r, h.PublicRoot, http.StatusFound)
		return
	}

	ip, _, _ := net.SplitHostPort(r.RemoteAddr)
	session, err := h.SessionService.Establish(ctx, identity.UserID, fingerprint, ip)
	if err != nil {
		log.Error("sso redeem: establishing session failed", "err", err)
		http.Redirect(w, r, h.PublicRoot, http.StatusFound)
		return
	}

	h.Cookies.SetAccess(w, access)
	h.Cookies.SetSID(w, session.ID)

	next := r.URL.Query().Get("next")
	if next == "" || !isLocalPath(next) {
		next = h.LandingPath
	}
	log.Info("sso ticket redeemed", "user_id", identity.UserID)
	http.Redirect(w, r, next, http.StatusFound)
}

// isLocalPath rejects absolute and scheme-relative URLs so `next`
// cannot be used as an open redirect.
func isLocalPath(p string) bool {
	return len(p) > 0 && p[0] == '/' && !(len(p) > 1 && p[1] == '/')
}

// requestHostname returns the Host header without any port, matching
// the hostnames tickets are scoped to.
func requestHostname(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.Host); err == nil {
		return host
	}
	return r.Host
}
