package httpx

import (
	"net/http"

	"github.com/lorikeetchat/lorikeet/pkg/cryptox"
)

// RequestFingerprint derives the device fingerprint for an inbound
// request from the two headers the binding is defined over.
func RequestFingerprint(r *http.Request) string {
	return cryptox.DeviceFingerprint(r.UserAgent(), r.Header.Get("Accept-Language"))
}
