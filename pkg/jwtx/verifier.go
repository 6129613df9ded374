package jwtx

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a token string and gives you back the claims if it's
// legit. The sentinel errors below exist for internal branching and logs
// only and must never be surfaced verbatim to clients.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrExpired     = errors.New("jwtx: token expired")

	ErrPurpose     = errors.New("jwtx: wrong token purpose")
	ErrAudience    = errors.New("jwtx: audience mismatch")
	ErrFingerprint = errors.New("jwtx: fingerprint mismatch")
)

// HS256Verifier validates tokens signed with HMAC-SHA256. The accepted
// algorithm is pinned: a token whose header claims anything other than
// HS256 (including "none") is rejected before the signature is checked.
type HS256Verifier struct {
	key    []byte
	leeway time.Duration
}

// NewVerifierHS256 creates a verifier for the shared server secret.
// Leeway allows small clock skew when validating exp/nbf.
func NewVerifierHS256(key []byte, leeway time.Duration) *HS256Verifier {
	return &HS256Verifier{key: key, leeway: leeway}
}

// Verify parses and validates the compact token string.
func (v *HS256Verifier) Verify(tokenStr string) (Claims, error) {
	if err := pinAlgorithm(tokenStr); err != nil {
		return Claims{}, err
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if v.leeway > 0 {
		opts = append(opts, jwt.WithLeeway(v.leeway))
	}
	parser := jwt.NewParser(opts...)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrMalformed
	}
	return *claims, nil
}

// pinAlgorithm decodes the header segment and rejects any algorithm other
// than HS256 up front. This is the classic "alg: none" downgrade defence;
// the parser's WithValidMethods covers it too but folds the failure into
// its signature error, which we want to keep distinct.
func pinAlgorithm(tokenStr string) error {
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		return ErrMalformed
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return ErrMalformed
	}
	var header struct {
		Alg string `json:"alg"`
	}
	if err := json.Unmarshal(raw, &header); err != nil {
		return ErrMalformed
	}
	if header.Alg != jwt.SigningMethodHS256.Alg() {
		return ErrAlgMismatch
	}
	return nil
}

// mapParseError collapses golang-jwt's error tree into our sentinels so
// callers can branch with errors.Is without importing the jwt package.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	default:
		return ErrMalformed
	}
}
