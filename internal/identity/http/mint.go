package http

import (
	"crypto/subtle"
	"encoding/json"
	"net"
	"net/http"

	"github.com/lorikeetchat/lorikeet/internal/identity/service"
	"github.com/lorikeetchat/lorikeet/pkg/httpx"
	"github.com/lorikeetchat/lorikeet/pkg/jwtx"
	"github.com/lorikeetchat/lorikeet/pkg/slogx"
)

// MintHandler serves POST /v1/session/mint. The endpoint is internal:
// the surrounding app authenticates credentials itself and then calls
// here with the shared service token to establish the cookie session.
type MintHandler struct {
	TokenService   *service.TokenService
	SessionService *service.SessionService
	InternalToken  string
	Cookies        *httpx.CookieWriter
}

func (h *MintHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	presented := r.Header.Get("X-Internal-Token")
	if h.InternalToken == "" ||
		subtle.ConstantTimeCompare([]byte(presented), []byte(h.InternalToken)) != 1 {
		log.Warn("mint rejected: bad internal token")
		httpx.WriteUnauthenticated(w)
		return
	}

	var req MintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, SessionResponse{Success: false})
		return
	}

	fingerprint := httpx.RequestFingerprint(r)
	identity := jwtx.Identity{UserID: req.UserID, Username: req.Username, Name: req.Name}

	pair, err := h.TokenService.IssuePair(ctx, identity, fingerprint)
	if err != nil {
		log.Error("mint: issuing token pair failed", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, SessionResponse{Success: false})
		return
	}

	ip, _, _ := net.SplitHostPort(r.RemoteAddr)
	session, err := h.SessionService.Establish(ctx, req.UserID, fingerprint, ip)
	if err != nil {
		log.Error("mint: establishing session failed", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, SessionResponse{Success: false})
		return
	}

	h.Cookies.SetAccess(w, pair.AccessToken)
	h.Cookies.SetRefresh(w, pair.RefreshToken)
	h.Cookies.SetSID(w, session.ID)

	log.Info("session minted", "user_id", req.UserID, "session_id", session.ID)
	httpx.WriteJSON(w, http.StatusOK, SessionResponse{
		Success:   true,
		UserID:    req.UserID,
		Username:  req.Username,
		Name:      req.Name,
		ExpiresIn: int64(pair.ExpiresIn.Seconds()),
	})
}
