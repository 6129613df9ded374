package cryptox

import (
	"crypto/sha256"
	"encoding/hex"
)

// DeviceFingerprint derives a stable, non-reversible identifier for a
// client from its User-Agent and Accept-Language headers. Missing headers
// contribute an empty string, so the function is total and deterministic.
//
// Headers are attacker-visible and spoofable; this is a binding factor
// for defence in depth, not a device identity on its own.
func DeviceFingerprint(userAgent, acceptLanguage string) string {
	sum := sha256.Sum256([]byte(userAgent + "|" + acceptLanguage))
	return hex.EncodeToString(sum[:])
}
