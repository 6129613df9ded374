package app

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/lorikeetchat/lorikeet/pkg/jwtx"
)

// hmacKeySize is the HS256 key length in bytes.
const hmacKeySize = 32

// DeriveSigningKey stretches the configured master secret into the
// HMAC signing key with HKDF-SHA256. Deriving rather than using the
// secret directly keeps the raw secret out of the token path and lets
// future key purposes share one secret with distinct info labels.
func DeriveSigningKey(secret, issuer string) ([]byte, error) {
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("lorikeet-identity-hs256/"+issuer))
	key := make([]byte, hmacKeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}
	return key, nil
}

// InitTokenCodec builds the signer/verifier pair from the config.
func InitTokenCodec(cfg Config) (jwtx.Signer, jwtx.Verifier, error) {
	key, err := DeriveSigningKey(cfg.Secret, cfg.Issuer)
	if err != nil {
		return nil, nil, err
	}

	signer, err := jwtx.NewSignerHS256(key)
	if err != nil {
		return nil, nil, err
	}
	return signer, jwtx.NewVerifierHS256(key, cfg.Leeway), nil
}
