package jwtx

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants for the cookie-based session flows.
// These mirror the cookie max-ages set by the HTTP layer.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	// Tracks the session cookie max-age; deployments may shorten it.
	DefaultAccessTokenTTL = 30 * 24 * time.Hour

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 90 * 24 * time.Hour

	// DefaultTicketTTL is the lifetime of a cross-origin SSO ticket.
	// Tickets travel in URLs, so this must stay very short.
	DefaultTicketTTL = 60 * time.Second
)

// Purpose discriminates what a token may be used for. A token minted for
// one purpose must never be accepted for another.
type Purpose string

const (
	// PurposeAccess is the zero value: plain access tokens omit the claim.
	PurposeAccess Purpose = ""

	// PurposeRefresh marks long-lived tokens accepted only by the refresh flow.
	PurposeRefresh Purpose = "refresh"

	// PurposeTicket marks one-time SSO handoff tickets.
	PurposeTicket Purpose = "sso"
)

// Claims are the token claims used across the service. Additive changes
// only, to preserve compatibility with cookies already in the wild.
type Claims struct {
	jwt.RegisteredClaims

	// UserID duplicates Subject under the legacy "_id" name that the
	// messaging app's clients still read.
	UserID string `json:"_id,omitempty"`

	// Username for the authenticated user.
	Username string `json:"username,omitempty"`

	// Name is the display name, carried for convenience, not trust-bearing.
	Name string `json:"name,omitempty"`

	// FP is the device fingerprint this token is bound to.
	FP string `json:"fp,omitempty"`

	// Purpose discriminates access tokens (absent) from refresh tokens
	// and SSO tickets.
	Purpose Purpose `json:"purpose,omitempty"`
}

// Identity is the subject identity embedded in every token.
type Identity struct {
	UserID   string
	Username string
	Name     string
}

// NewAccessClaims builds claims for a plain access token.
func NewAccessClaims(id Identity, fingerprint string, ttl time.Duration, issuer string, now time.Time) Claims {
	return newClaims(id, fingerprint, PurposeAccess, ttl, issuer, now)
}

// NewRefreshClaims builds claims for a refresh token. The jti is what the
// rotation ledger tracks, so it is always populated.
func NewRefreshClaims(id Identity, fingerprint string, ttl time.Duration, issuer string, now time.Time) Claims {
	return newClaims(id, fingerprint, PurposeRefresh, ttl, issuer, now)
}

// NewTicketClaims builds claims for a one-time SSO ticket scoped to the
// audience hostname it may be redeemed at.
func NewTicketClaims(id Identity, fingerprint, audience string, ttl time.Duration, issuer string, now time.Time) Claims {
	c := newClaims(id, fingerprint, PurposeTicket, ttl, issuer, now)
	if audience != "" {
		c.Audience = jwt.ClaimStrings{audience}
	}
	return c
}

func newClaims(id Identity, fingerprint string, purpose Purpose, ttl time.Duration, issuer string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		UserID:   id.UserID,
		Username: id.Username,
		Name:     id.Name,
		FP:       fingerprint,
		Purpose:  purpose,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// SubjectID returns the subject user id, falling back to the legacy "_id"
// claim when "sub" is absent.
func (c *Claims) SubjectID() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.UserID
}

// Identity rebuilds the subject identity carried by the claims.
func (c *Claims) Identity() Identity {
	return Identity{
		UserID:   c.SubjectID(),
		Username: c.Username,
		Name:     c.Name,
	}
}

// ValidatePurpose checks the token was minted for the expected use.
func (c *Claims) ValidatePurpose(expected Purpose) error {
	if c.Purpose != expected {
		return ErrPurpose
	}
	return nil
}

// ValidateAudienceHost checks the ticket may be redeemed at the given
// hostname. Tokens without an aud claim are not audience-scoped.
func (c *Claims) ValidateAudienceHost(host string) error {
	if len(c.Audience) == 0 {
		return nil
	}
	if slices.Contains(c.Audience, host) {
		return nil
	}
	return ErrAudience
}

// ValidateFingerprint compares the embedded device fingerprint against the
// one derived from the current request. Constant-time comparison.
func (c *Claims) ValidateFingerprint(fingerprint string) error {
	if subtle.ConstantTimeCompare([]byte(c.FP), []byte(fingerprint)) != 1 {
		return ErrFingerprint
	}
	return nil
}

// ValidateExpiry ensures the token hasn't expired. The parser already
// enforces exp; this exists for claims obtained outside a parse.
func (c *Claims) ValidateExpiry() error {
	if c.ExpiresAt != nil && time.Now().UTC().After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	return nil
}
