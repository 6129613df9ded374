package httpx

import (
	"context"
	"net/http"

	"github.com/lorikeetchat/lorikeet/pkg/jwtx"
	"github.com/lorikeetchat/lorikeet/pkg/slogx"
)

// RequireAccess authenticates API requests from the session cookie. The
// token must verify, must be a plain access token, and must be bound to
// the requesting device's fingerprint. Any failure yields the same 401
// body; the distinction lives only in the log line.
func RequireAccess(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := CookieValue(r, CookieSession)
			if !ok {
				WriteUnauthenticated(w)
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				log.Warn("access token verify failed", "err", err)
				WriteUnauthenticated(w)
				return
			}
			if err := claims.ValidatePurpose(jwtx.PurposeAccess); err != nil {
				log.Warn("non-access token presented as session cookie")
				WriteUnauthenticated(w)
				return
			}
			if err := claims.ValidateFingerprint(RequestFingerprint(r)); err != nil {
				log.Warn("access token fingerprint mismatch", "sub", claims.SubjectID())
				WriteUnauthenticated(w)
				return
			}

			ctx = context.WithValue(ctx, CtxKeyUserID, claims.SubjectID())
			ctx = context.WithValue(ctx, CtxKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
