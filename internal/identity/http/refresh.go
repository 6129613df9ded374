package http

import (
	"net/http"

	"github.com/lorikeetchat/lorikeet/internal/identity/service"
	"github.com/lorikeetchat/lorikeet/pkg/httpx"
	"github.com/lorikeetchat/lorikeet/pkg/slogx"
)

// RefreshHandler serves POST /v1/session/refresh. A rejected refresh
// clears every auth cookie so the client falls back to a clean
// logged-out state instead of retrying a dead token.
type RefreshHandler struct {
	TokenService *service.TokenService
	Cookies      *httpx.CookieWriter
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	raw, ok := httpx.CookieValue(r, httpx.CookieRefresh)
	if !ok {
		httpx.WriteUnauthenticated(w)
		return
	}

	pair, err := h.TokenService.Refresh(ctx, raw, httpx.RequestFingerprint(r))
	if err != nil {
		log.Warn("refresh failed", "err", err)
		h.Cookies.ClearAll(w)
		httpx.WriteUnauthenticated(w)
		return
	}

	h.Cookies.SetAccess(w, pair.AccessToken)
	h.Cookies.SetRefresh(w, pair.RefreshToken)
	httpx.WriteJSON(w, http.StatusOK, SessionResponse{
		Success:   true,
		ExpiresIn: int64(pair.ExpiresIn.Seconds()),
	})
}
