package http

import (
	"net/http"
	"time"

	"github.com/lorikeetchat/lorikeet/pkg/httpx"
)

// LivezHandler answers the liveness probe. Always 200 while the process
// is serving.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}
