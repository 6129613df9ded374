package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lorikeetchat/lorikeet/internal/identity/service"
	"github.com/lorikeetchat/lorikeet/internal/identity/store/drivers/sqlite"
	"github.com/lorikeetchat/lorikeet/pkg/httpx"
	"github.com/lorikeetchat/lorikeet/pkg/jwtx"
)

const (
	testInternalToken = "internal-secret"
	testUA            = "Mozilla/5.0 (X11; Linux x86_64)"
	testLang          = "en-AU,en;q=0.9"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	key := []byte("0123456789abcdef0123456789abcdef")
	signer, err := jwtx.NewSignerHS256(key)
	require.NoError(t, err)
	verifier := jwtx.NewVerifierHS256(key, 0)

	tokens := &service.TokenService{
		Signer:     signer,
		Verifier:   verifier,
		Store:      st,
		Issuer:     "test-issuer",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	}
	sessions := &service.SessionService{Store: st, TTL: time.Hour}
	sso := &service.SSOService{
		Tokens:    tokens,
		Store:     st,
		Issuer:    "test-issuer",
		TicketTTL: time.Minute,
	}

	cookies := &httpx.CookieWriter{
		AccessMaxAge:  time.Hour,
		RefreshMaxAge: 24 * time.Hour,
	}
	guard := httpx.GuardConfig{
		ProtectedPrefixes: []string{"/app", "/v1/messages", "/v1/files"},
		PublicRoot:        "/",
		LandingPath:       "/app",
	}

	router := NewRouter(
		signer,
		"test",
		st,
		cookies,
		guard,
		testInternalToken,
		"/",
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	router.TokenService = tokens
	router.SessionService = sessions
	router.SSOService = sso
	router.ApplyRoutes()
	return router
}

func newRequest(t *testing.T, method, target, body string, cookies []*http.Cookie) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("User-Agent", testUA)
	req.Header.Set("Accept-Language", testLang)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func mintSession(t *testing.T, router *Router) []*http.Cookie {
	t.Helper()

	req := newRequest(t, http.MethodPost, "/v1/session/mint",
		`{"user_id":"user-1","username":"alice","name":"Alice"}`, nil)
	req.Header.Set("X-Internal-Token", testInternalToken)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	names := make(map[string]bool)
	for _, c := range cookies {
		names[c.Name] = true
		require.True(t, c.HttpOnly)
		require.Equal(t, "/", c.Path)
	}
	require.True(t, names[httpx.CookieSession])
	require.True(t, names[httpx.CookieRefresh])
	require.True(t, names[httpx.CookieSID])
	return cookies
}

func TestMintRequiresInternalToken(t *testing.T) {
	router := newTestRouter(t)

	req := newRequest(t, http.MethodPost, "/v1/session/mint",
		`{"user_id":"user-1","username":"alice"}`, nil)
	req.Header.Set("X-Internal-Token", "wrong")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionFlow(t *testing.T) {
	router := newTestRouter(t)
	cookies := mintSession(t, router)

	t.Run("verify reports the subject", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, newRequest(t, http.MethodGet, "/v1/session/verify", "", cookies))

		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"user_id":"user-1"`)
		require.Contains(t, rec.Body.String(), `"username":"alice"`)
	})

	t.Run("verify rejects a different device", func(t *testing.T) {
		req := newRequest(t, http.MethodGet, "/v1/session/verify", "", cookies)
		req.Header.Set("User-Agent", "curl/8.0")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("refresh rotates the cookie pair", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, newRequest(t, http.MethodPost, "/v1/session/refresh", "", cookies))
		require.Equal(t, http.StatusOK, rec.Code)

		var oldRefresh, newRefresh string
		for _, c := range cookies {
			if c.Name == httpx.CookieRefresh {
				oldRefresh = c.Value
			}
		}
		for _, c := range rec.Result().Cookies() {
			if c.Name == httpx.CookieRefresh {
				newRefresh = c.Value
			}
		}
		require.NotEmpty(t, newRefresh)
		require.NotEqual(t, oldRefresh, newRefresh)

		// The consumed refresh cookie is rejected and cleared.
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, newRequest(t, http.MethodPost, "/v1/session/refresh", "", cookies))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestLogout(t *testing.T) {
	router := newTestRouter(t)
	cookies := mintSession(t, router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, newRequest(t, http.MethodDelete, "/v1/session", "", cookies))
	require.Equal(t, http.StatusOK, rec.Code)

	for _, c := range rec.Result().Cookies() {
		require.Equal(t, -1, c.MaxAge, "cookie %s should be expired", c.Name)
	}

	// The sid-backed session is revoked, so verify fails even though the
	// JWT cookie itself has not expired.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, newRequest(t, http.MethodGet, "/v1/session/verify", "", cookies))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuardOnRouter(t *testing.T) {
	router := newTestRouter(t)

	t.Run("anonymous request to a protected path is redirected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, newRequest(t, http.MethodGet, "/app/channels", "", nil))

		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, "/", rec.Header().Get("Location"))
	})

	t.Run("minted session passes the guard", func(t *testing.T) {
		cookies := mintSession(t, router)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, newRequest(t, http.MethodGet, "/app/channels", "", cookies))

		// Past the guard; the reference server has no page there.
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSSOEndpoints(t *testing.T) {
	router := newTestRouter(t)
	cookies := mintSession(t, router)

	t.Run("issue without a session is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, newRequest(t, http.MethodGet, "/v1/sso/issue?audience=chat.example.com", "", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("issue redirects with the ticket attached", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, newRequest(t, http.MethodGet,
			"/v1/sso/issue?redirect=https%3A%2F%2Fchat.example.com%2Fsso", "", cookies))

		require.Equal(t, http.StatusFound, rec.Code)
		location := rec.Header().Get("Location")
		require.True(t, strings.HasPrefix(location, "https://chat.example.com/sso?ticket="), location)
	})

	t.Run("redeem establishes a session on the target host", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, newRequest(t, http.MethodGet,
			"/v1/sso/issue?audience=chat.example.com", "", cookies))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"ticket":"`)

		var resp TicketResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		req := newRequest(t, http.MethodGet, "/v1/sso/redeem?ticket="+resp.Ticket+"&next=/app", "", nil)
		req.Host = "chat.example.com"

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, "/app", rec.Header().Get("Location"))

		var sessionCookie bool
		for _, c := range rec.Result().Cookies() {
			if c.Name == httpx.CookieSession && c.Value != "" {
				sessionCookie = true
			}
		}
		require.True(t, sessionCookie)
	})

	t.Run("issue without an audience scopes the ticket to the issuing host", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, newRequest(t, http.MethodGet, "/v1/sso/issue", "", cookies))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp TicketResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		// httptest requests carry Host example.com, so a same-host
		// redeem succeeds while a sibling host is out of scope.
		req := newRequest(t, http.MethodGet, "/v1/sso/redeem?ticket="+resp.Ticket, "", nil)
		req.Host = "chat.example.com"
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, "/", rec.Header().Get("Location"))

		req = newRequest(t, http.MethodGet, "/v1/sso/redeem?ticket="+resp.Ticket, "", nil)
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, "/app", rec.Header().Get("Location"))
	})

	t.Run("redeem with a bad ticket falls back to the public root", func(t *testing.T) {
		req := newRequest(t, http.MethodGet, "/v1/sso/redeem?ticket=garbage", "", nil)
		req.Host = "chat.example.com"

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, "/", rec.Header().Get("Location"))
	})
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, newRequest(t, http.MethodGet, "/livez", "", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, newRequest(t, http.MethodGet, "/readyz", "", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"database":"ok"`)
}
