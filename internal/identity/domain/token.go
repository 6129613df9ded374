package domain

import "time"

// TokenPair is what the mint and refresh flows hand back: a fresh access
// JWT and its companion refresh JWT.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    time.Duration `json:"expires_in"` // access token lifetime
}

// RefreshGrant models the stored side of a refresh token. The token
// itself is a signed JWT; this row tracks its jti so rotation can be
// strictly one-time. A grant that is revoked or missing makes the JWT
// useless regardless of its signature.
type RefreshGrant struct {
	ID          string
	UserID      string
	TokenHash   string // SHA-256 of the refresh token's jti claim
	Fingerprint string // device fingerprint the token was minted for
	ExpiresAt   time.Time
	Revoked     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TicketReplay is a consumed SSO ticket jti. Rows exist only to make a
// second redemption fail and are swept once the ticket would have
// expired anyway.
type TicketReplay struct {
	JTI        string
	UserID     string
	ExpiresAt  time.Time
	RedeemedAt time.Time
}
