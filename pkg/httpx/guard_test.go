package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lorikeetchat/lorikeet/pkg/httpx"
)

var guardCfg = httpx.GuardConfig{
	ProtectedPrefixes: []string{"/app", "/v1/messages", "/v1/files"},
	PublicRoot:        "/",
	LandingPath:       "/app",
}

func TestGuardDecide(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		authenticated bool
		want          httpx.GuardDecision
	}{
		{
			name: "protected path without session redirects to root",
			path: "/app/channels",
			want: httpx.GuardDecision{Action: httpx.GuardRedirect, Target: "/"},
		},
		{
			name: "protected api path without session redirects to root",
			path: "/v1/messages/42",
			want: httpx.GuardDecision{Action: httpx.GuardRedirect, Target: "/"},
		},
		{
			name:          "protected path with session allowed",
			path:          "/v1/files/abc",
			authenticated: true,
			want:          httpx.GuardDecision{Action: httpx.GuardAllow},
		},
		{
			name:          "root with session bounces to landing",
			path:          "/",
			authenticated: true,
			want:          httpx.GuardDecision{Action: httpx.GuardRedirect, Target: "/app"},
		},
		{
			name: "root without session allowed",
			path: "/",
			want: httpx.GuardDecision{Action: httpx.GuardAllow},
		},
		{
			name: "unlisted path without session allowed",
			path: "/about",
			want: httpx.GuardDecision{Action: httpx.GuardAllow},
		},
		{
			name:          "unlisted path with session allowed",
			path:          "/about",
			authenticated: true,
			want:          httpx.GuardDecision{Action: httpx.GuardAllow},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, guardCfg.Decide(tt.path, tt.authenticated))
		})
	}
}

func TestGuardMiddleware(t *testing.T) {
	authenticated := false
	handler := httpx.Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
		httpx.Guard(guardCfg, func(*http.Request) bool { return authenticated }),
	)

	t.Run("redirects anonymous traffic off protected paths", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app/channels", nil))

		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, "/", rec.Header().Get("Location"))
	})

	t.Run("passes authenticated traffic through", func(t *testing.T) {
		authenticated = true
		defer func() { authenticated = false }()

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app/channels", nil))

		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("bounces a logged-in user from the login page", func(t *testing.T) {
		authenticated = true
		defer func() { authenticated = false }()

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, "/app", rec.Header().Get("Location"))
	})
}
