package http

import (
	"net/http"

	"github.com/lorikeetchat/lorikeet/internal/identity/service"
	"github.com/lorikeetchat/lorikeet/pkg/httpx"
	"github.com/lorikeetchat/lorikeet/pkg/slogx"
)

// LogoutHandler serves DELETE /v1/session. Always answers 200 with the
// cookies cleared; logout is idempotent and reveals nothing about
// whether the presented tokens were live.
type LogoutHandler struct {
	TokenService   *service.TokenService
	SessionService *service.SessionService
	Cookies        *httpx.CookieWriter
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if sid, ok := httpx.CookieValue(r, httpx.CookieSID); ok {
		if err := h.SessionService.Revoke(ctx, sid); err != nil {
			log.Warn("logout: revoking session failed", "err", err)
		}
	}
	if raw, ok := httpx.CookieValue(r, httpx.CookieRefresh); ok {
		if err := h.TokenService.RevokeRefresh(ctx, raw); err != nil {
			log.Warn("logout: revoking refresh grant failed", "err", err)
		}
	}

	h.Cookies.ClearAll(w)
	httpx.WriteJSON(w, http.StatusOK, SessionResponse{Success: true})
}
