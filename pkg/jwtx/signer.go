package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is our interface for anything that can sign session tokens.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
	Validate() error
}

// HS256Signer signs tokens with HMAC-SHA256 using a shared server secret.
type HS256Signer struct {
	key []byte
	alg string
}

// NewSignerHS256 creates an HS256 signer from raw key bytes. An absent key
// is fatal misconfiguration, not something to limp along with.
func NewSignerHS256(key []byte) (Signer, error) {
	if len(key) == 0 {
		return nil, errors.New("jwtx: empty HS256 key")
	}
	return &HS256Signer{key: key, alg: jwt.SigningMethodHS256.Alg()}, nil
}

func (s *HS256Signer) Alg() string { return s.alg }

// Sign takes the claims and turns them into a signed compact JWT string.
// The header is fixed to {"alg":"HS256","typ":"JWT"}.
func (s *HS256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.key)
}

// Validate is a quick sanity check that key material is actually loaded.
func (s *HS256Signer) Validate() error {
	if len(s.key) == 0 {
		return errors.New("jwtx: nil HS256 key")
	}
	return nil
}
