package http

import (
	"net/http"
	"time"

	"github.com/lorikeetchat/lorikeet/internal/identity/store"
	"github.com/lorikeetchat/lorikeet/pkg/httpx"
	"github.com/lorikeetchat/lorikeet/pkg/jwtx"
)

// ReadyzHandler answers the readiness probe: database reachable and
// signing key loaded.
func ReadyzHandler(startTime time.Time, version string, st store.Store, signer jwtx.Signer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &HealthChecks{
			Database: "ok",
			Signer:   "ok",
		}
		status := "ok"
		code := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		if err := signer.Validate(); err != nil {
			checks.Signer = "error: " + err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
