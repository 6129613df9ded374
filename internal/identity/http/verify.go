package http

import (
	"net/http"

	"github.com/lorikeetchat/lorikeet/internal/identity/service"
	"github.com/lorikeetchat/lorikeet/pkg/httpx"
	"github.com/lorikeetchat/lorikeet/pkg/slogx"
)

// VerifyHandler serves GET /v1/session/verify. The RequireAccess
// middleware has already validated the JWT cookie and fingerprint; this
// handler adds the sid-backed session check, so server-side revocation
// takes effect before the JWT expires.
type VerifyHandler struct {
	SessionService *service.SessionService
}

func (h *VerifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	claims, ok := httpx.ClaimsFromCtx(ctx)
	if !ok {
		httpx.WriteUnauthenticated(w)
		return
	}

	if sid, ok := httpx.CookieValue(r, httpx.CookieSID); ok {
		if _, err := h.SessionService.Validate(ctx, sid, httpx.RequestFingerprint(r)); err != nil {
			log.Warn("verify rejected: session record not usable", "sub", claims.SubjectID())
			httpx.WriteUnauthenticated(w)
			return
		}
	}

	identity := claims.Identity()
	httpx.WriteJSON(w, http.StatusOK, SessionResponse{
		Success:  true,
		UserID:   identity.UserID,
		Username: identity.Username,
		Name:     identity.Name,
	})
}
