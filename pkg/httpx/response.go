package httpx

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// Required for responses that carry or set tokens.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// WriteUnauthenticated emits the uniform rejection body. Every auth
// failure looks identical to the client; the reason stays in the logs so
// callers can't probe for "expired" versus "forged".
func WriteUnauthenticated(w http.ResponseWriter) {
	WriteJSON(w, http.StatusUnauthorized, map[string]bool{"success": false})
}
