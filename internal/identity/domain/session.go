package domain

import "time"

// Session is the persistent server-side session record, the store-backed
// alternative to pure token auth. The sid cookie carries the opaque id.
type Session struct {
	ID                string
	UserID            string
	DeviceFingerprint string
	IP                string
	CreatedAt         time.Time
	LastSeenAt        time.Time
	ExpiresAt         time.Time
	Revoked           bool
}

// Usable reports whether the session can still authenticate a request
// from a device with the given fingerprint at time now.
func (s Session) Usable(now time.Time, fingerprint string) bool {
	return !s.Revoked && now.Before(s.ExpiresAt) && s.DeviceFingerprint == fingerprint
}
