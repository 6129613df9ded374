package httpx

import (
	"net/http"
	"time"
)

// Cookie names shared between this service and the messaging app's
// clients. Renaming any of these is a breaking change for live sessions.
const (
	CookieSession = "session_token"
	CookieRefresh = "refresh_token"
	CookieSID     = "sid"
)

// CookieWriter centralises the flags for the auth cookie trio. All three
// are http-only, Path=/ and SameSite=Lax; Secure is on everywhere except
// local dev over plain HTTP.
type CookieWriter struct {
	Secure        bool
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
}

// SetAccess writes the session_token cookie carrying the access JWT.
func (c CookieWriter) SetAccess(w http.ResponseWriter, token string) {
	c.set(w, CookieSession, token, c.AccessMaxAge)
}

// SetRefresh writes the refresh_token cookie.
func (c CookieWriter) SetRefresh(w http.ResponseWriter, token string) {
	c.set(w, CookieRefresh, token, c.RefreshMaxAge)
}

// SetSID writes the store-backed session id cookie. It shares the access
// cookie's lifetime.
func (c CookieWriter) SetSID(w http.ResponseWriter, sid string) {
	c.set(w, CookieSID, sid, c.AccessMaxAge)
}

// ClearAll expires the full trio, used on logout.
func (c CookieWriter) ClearAll(w http.ResponseWriter) {
	for _, name := range []string{CookieSession, CookieRefresh, CookieSID} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   c.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func (c CookieWriter) set(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// CookieValue returns the named cookie's value, reporting whether it
// was present and non-empty.
func CookieValue(r *http.Request, name string) (string, bool) {
	c, err := r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
