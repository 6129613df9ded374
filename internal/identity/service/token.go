package service

import (
	"context"
	"errors"
	"time"

	"github.com/lorikeetchat/lorikeet/internal/identity/domain"
	"github.com/lorikeetchat/lorikeet/internal/identity/store"
	"github.com/lorikeetchat/lorikeet/pkg/cryptox"
	"github.com/lorikeetchat/lorikeet/pkg/idx"
	"github.com/lorikeetchat/lorikeet/pkg/jwtx"
	"github.com/lorikeetchat/lorikeet/pkg/slogx"
)

// ErrUnauthenticated is the single client-facing outcome for every
// verification failure. Expired, forged, wrong purpose, wrong device --
// callers must not be able to tell them apart, so neither can handlers.
var ErrUnauthenticated = errors.New("unauthenticated")

// TokenService issues and rotates the access/refresh token pair. Access
// tokens are pure stateless JWTs; refresh tokens additionally have a
// ledger row keyed by their jti hash, which is what makes rotation
// strictly one-time.
type TokenService struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Store    store.Store
	Issuer   string

	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// IssueAccess mints a plain access token bound to the device
// fingerprint. Stateless; nothing is persisted.
func (s *TokenService) IssueAccess(id jwtx.Identity, fingerprint string) (string, error) {
	return s.Signer.Sign(jwtx.NewAccessClaims(id, fingerprint, s.AccessTTL, s.Issuer, time.Now().UTC()))
}

// IssueRefresh mints a refresh token and records its grant in the
// rotation ledger.
func (s *TokenService) IssueRefresh(ctx context.Context, id jwtx.Identity, fingerprint string) (string, error) {
	now := time.Now().UTC()

	claims := jwtx.NewRefreshClaims(id, fingerprint, s.RefreshTTL, s.Issuer, now)
	refresh, err := s.Signer.Sign(claims)
	if err != nil {
		return "", err
	}

	grant := domain.RefreshGrant{
		ID:          idx.New().String(),
		UserID:      id.UserID,
		TokenHash:   cryptox.HashToken(claims.ID),
		Fingerprint: fingerprint,
		ExpiresAt:   now.Add(s.RefreshTTL),
	}
	if err := s.Store.RefreshGrants().CreateRefreshGrant(ctx, grant); err != nil {
		return "", err
	}
	return refresh, nil
}

// IssuePair mints a fresh access+refresh pair bound to the device
// fingerprint. Used at login (mint) time.
func (s *TokenService) IssuePair(ctx context.Context, id jwtx.Identity, fingerprint string) (*domain.TokenPair, error) {
	access, err := s.IssueAccess(id, fingerprint)
	if err != nil {
		return nil, err
	}

	refresh, err := s.IssueRefresh(ctx, id, fingerprint)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.AccessTTL,
	}, nil
}

// VerifyAccess validates an access token presented as the session cookie
// against the current request's device fingerprint and returns its claims.
func (s *TokenService) VerifyAccess(ctx context.Context, raw, fingerprint string) (jwtx.Claims, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.Verifier.Verify(raw)
	if err != nil {
		l.Warn("access token rejected", "err", err)
		return jwtx.Claims{}, ErrUnauthenticated
	}
	if err := claims.ValidatePurpose(jwtx.PurposeAccess); err != nil {
		l.Warn("access token rejected", "err", err)
		return jwtx.Claims{}, ErrUnauthenticated
	}
	if err := claims.ValidateFingerprint(fingerprint); err != nil {
		l.Warn("access token rejected", "err", err, "sub", claims.SubjectID())
		return jwtx.Claims{}, ErrUnauthenticated
	}
	if claims.SubjectID() == "" {
		return jwtx.Claims{}, ErrUnauthenticated
	}
	return claims, nil
}

// Refresh rotates the pair: it validates the presented refresh token
// (signature, expiry, purpose, fingerprint, ledger) and atomically
// replaces its grant with the successor's. The old token fails the
// ledger lookup from then on even though its signature still holds.
func (s *TokenService) Refresh(ctx context.Context, raw, fingerprint string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	claims, err := s.Verifier.Verify(raw)
	if err != nil {
		l.Warn("refresh rejected", "err", err)
		return nil, ErrUnauthenticated
	}
	if err := claims.ValidatePurpose(jwtx.PurposeRefresh); err != nil {
		l.Warn("refresh rejected: not a refresh token", "sub", claims.SubjectID())
		return nil, ErrUnauthenticated
	}
	if err := claims.ValidateFingerprint(fingerprint); err != nil {
		l.Warn("refresh rejected: fingerprint mismatch", "sub", claims.SubjectID())
		return nil, ErrUnauthenticated
	}
	if claims.SubjectID() == "" || claims.ID == "" {
		return nil, ErrUnauthenticated
	}

	oldHash := cryptox.HashToken(claims.ID)
	grant, err := s.Store.RefreshGrants().GetRefreshGrantByHash(ctx, oldHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Warn("refresh rejected: unknown grant", "sub", claims.SubjectID())
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	// The SQL could filter these, but double-check for defence in depth.
	if grant.Revoked || now.After(grant.ExpiresAt) {
		l.Warn("refresh rejected: grant revoked or expired", "sub", claims.SubjectID())
		return nil, ErrUnauthenticated
	}

	id := claims.Identity()

	access, err := s.Signer.Sign(jwtx.NewAccessClaims(id, fingerprint, s.AccessTTL, s.Issuer, now))
	if err != nil {
		return nil, err
	}

	refreshClaims := jwtx.NewRefreshClaims(id, fingerprint, s.RefreshTTL, s.Issuer, now)
	refresh, err := s.Signer.Sign(refreshClaims)
	if err != nil {
		return nil, err
	}

	newGrant := domain.RefreshGrant{
		ID:          idx.New().String(),
		UserID:      id.UserID,
		TokenHash:   cryptox.HashToken(refreshClaims.ID),
		Fingerprint: fingerprint,
		ExpiresAt:   now.Add(s.RefreshTTL),
	}

	// Atomically: retire the consumed grant, record its successor. At
	// most one rotation write happens per refresh call.
	if err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshGrants().RevokeRefreshGrant(ctx, oldHash); err != nil {
			return err
		}
		return tx.RefreshGrants().CreateRefreshGrant(ctx, newGrant)
	}); err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.AccessTTL,
	}, nil
}

// RevokeRefresh retires the grant behind a refresh token (logout).
func (s *TokenService) RevokeRefresh(ctx context.Context, raw string) error {
	claims, err := s.Verifier.Verify(raw)
	if err != nil || claims.ID == "" {
		// Nothing to revoke for a token we can't attribute.
		return nil
	}
	return s.Store.RefreshGrants().RevokeRefreshGrant(ctx, cryptox.HashToken(claims.ID))
}
